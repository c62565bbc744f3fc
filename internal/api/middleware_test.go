package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/bookclubapp/bookclub-server/internal/errors"
)

func TestEnvelopeTransformer_AlwaysIncludesVersion(t *testing.T) {
	tests := []struct {
		name   string
		status string
		input  any
	}{
		{name: "success response", status: "200", input: map[string]string{"key": "value"}},
		{name: "created response", status: "201", input: map[string]string{"id": "123"}},
		{name: "no content response", status: "204", input: nil},
		{name: "bad request error", status: "400", input: errors.New("invalid input")},
		{name: "domain error", status: "422", input: domainerrors.RequiresRating("add a rating")},
		{
			name:   "coded error with details",
			status: "409",
			input: &APIError{
				Code:    "CONFLICT",
				Message: "Entity already exists",
				Details: map[string]string{"existing_id": "123"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := EnvelopeTransformer(nil, tt.status, tt.input)
			require.NoError(t, err)

			jsonBytes, err := json.Marshal(result)
			require.NoError(t, err)

			var envelope map[string]any
			require.NoError(t, json.Unmarshal(jsonBytes, &envelope))
			require.Contains(t, envelope, "v", "Envelope must contain version field 'v'")
			assert.Equal(t, float64(EnvelopeVersion), envelope["v"])
		})
	}
}

func TestEnvelopeTransformer_SuccessResponse(t *testing.T) {
	data := map[string]string{"title": "Dune"}

	result, err := EnvelopeTransformer(nil, "200", data)
	require.NoError(t, err)

	envelope, ok := result.(APIEnvelope)
	require.True(t, ok, "Expected APIEnvelope type")
	assert.True(t, envelope.Success)
	assert.Equal(t, data, envelope.Data)
	assert.Empty(t, envelope.Error)
}

func TestEnvelopeTransformer_PlainError(t *testing.T) {
	result, err := EnvelopeTransformer(nil, "400", errors.New("validation failed"))
	require.NoError(t, err)

	envelope, ok := result.(APIEnvelope)
	require.True(t, ok, "Expected APIEnvelope type")
	assert.False(t, envelope.Success)
	assert.Nil(t, envelope.Data)
	assert.Equal(t, "validation failed", envelope.Error)
}

func TestEnvelopeTransformer_DomainError(t *testing.T) {
	result, err := EnvelopeTransformer(nil, "400", domainerrors.InvalidRating("rating %v is out of range", 6.0))
	require.NoError(t, err)

	envelope, ok := result.(APIErrorEnvelope)
	require.True(t, ok, "Expected APIErrorEnvelope type")
	assert.False(t, envelope.Success)
	assert.Equal(t, "INVALID_RATING", envelope.Code)
	assert.Equal(t, "rating 6 is out of range", envelope.Message)
}

func TestEnvelopeTransformer_InternalErrorIsMasked(t *testing.T) {
	result, err := EnvelopeTransformer(nil, "500", domainerrors.Internal("sqlite: disk I/O error"))
	require.NoError(t, err)

	envelope, ok := result.(APIErrorEnvelope)
	require.True(t, ok)
	assert.Equal(t, "INTERNAL", envelope.Code)
	assert.Equal(t, "internal server error", envelope.Message)
}

func TestGetClientIP(t *testing.T) {
	proxies := []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}

	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		trusted    []netip.Prefix
		want       string
	}{
		{name: "forwarded for ignored without trusted proxies", headers: map[string]string{"X-Forwarded-For": "203.0.113.7"}, remoteAddr: "192.0.2.10:5000", want: "192.0.2.10"},
		{name: "real ip ignored from untrusted peer", headers: map[string]string{"X-Real-IP": "198.51.100.2"}, remoteAddr: "192.0.2.10:5000", trusted: proxies, want: "192.0.2.10"},
		{name: "forwarded for via trusted proxy", headers: map[string]string{"X-Forwarded-For": "203.0.113.7"}, remoteAddr: "10.0.0.1:5000", trusted: proxies, want: "203.0.113.7"},
		{name: "spoofed leading hop skipped", headers: map[string]string{"X-Forwarded-For": "1.1.1.1, 203.0.113.7, 10.0.0.2"}, remoteAddr: "10.0.0.1:5000", trusted: proxies, want: "203.0.113.7"},
		{name: "garbage hop falls back to peer", headers: map[string]string{"X-Forwarded-For": "not-an-ip"}, remoteAddr: "10.0.0.1:5000", trusted: proxies, want: "10.0.0.1"},
		{name: "real ip via trusted proxy", headers: map[string]string{"X-Real-IP": " 198.51.100.2 "}, remoteAddr: "10.0.0.1:5000", trusted: proxies, want: "198.51.100.2"},
		{name: "remote addr", remoteAddr: "192.0.2.10:41234", want: "192.0.2.10"},
		{name: "remote addr without port", remoteAddr: "192.0.2.10", want: "192.0.2.10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(r, tt.trusted))
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{header: "Bearer v4.local.abc", want: "v4.local.abc", ok: true},
		{header: "bearer v4.local.abc", want: "v4.local.abc", ok: true},
		{header: "Basic dXNlcjpwYXNz", ok: false},
		{header: "Bearer ", ok: false},
		{header: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, ok := bearerToken(tt.header)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRequestLogger_LevelFollowsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	handler := requestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/books/missing", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "/api/v1/books/missing", entry["path"])
	assert.Equal(t, float64(http.StatusNotFound), entry["status"])
}
