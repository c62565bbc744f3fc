package api

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/bookclubapp/bookclub-server/internal/auth"
	"github.com/bookclubapp/bookclub-server/internal/catalog"
	"github.com/bookclubapp/bookclub-server/internal/search"
	"github.com/bookclubapp/bookclub-server/internal/service"
	"github.com/bookclubapp/bookclub-server/internal/store"
	"github.com/bookclubapp/bookclub-server/internal/store/sqlite"
)

const testPassword = "Abc123!@xyz"

// testEnvelope mirrors the success envelope with typed data.
type testEnvelope[T any] struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
}

// testErrorEnvelope mirrors the coded error envelope.
type testErrorEnvelope struct {
	Version int             `json:"v"`
	Success bool            `json:"success"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details"`
}

// testServer bundles a wrapped API with the pieces tests poke at directly.
type testServer struct {
	api      humatest.TestAPI
	server   *Server
	store    *sqlite.Store
	index    *search.Index
	searcher *stubSearcher
	cleanup  func()
}

// setupTestServer creates a test server with all dependencies.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	dir := t.TempDir()

	s, err := sqlite.Open(filepath.Join(dir, "bookclub.db"), nil)
	require.NoError(t, err)

	idx, err := search.NewIndex(search.Options{InMemory: true})
	require.NoError(t, err)

	cache, err := store.OpenInMemoryCache(time.Hour, nil)
	require.NoError(t, err)

	key, err := auth.LoadOrGenerateKey(dir)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(hex.EncodeToString(key), 15*time.Minute, 30*24*time.Hour)
	require.NoError(t, err)

	searcher := &stubSearcher{}
	sessions := service.NewSessionService(s, tokens, nil)
	services := &Services{
		Auth:    service.NewAuthService(s, tokens, sessions, service.AuthOptions{OpenRegistration: true}, nil),
		Library: service.NewLibraryService(s, idx, nil, nil),
		Review:  service.NewReviewService(s, idx, nil),
		Profile: service.NewProfileService(s, nil),
		Account: service.NewAccountService(s, sessions, idx, nil),
		Catalog: service.NewCatalogService(searcher, cache, nil),
	}

	server := NewServer(services, HealthChecks{
		Database:    s.Ping,
		SearchIndex: idx.DocumentCount,
	}, Config{Name: "Test Server", Version: "test"}, nil)

	return &testServer{
		api:      humatest.Wrap(t, server.API()),
		server:   server,
		store:    s,
		index:    idx,
		searcher: searcher,
		cleanup: func() {
			server.Close()
			_ = cache.Close() //nolint:errcheck // test cleanup
			_ = idx.Close()   //nolint:errcheck // test cleanup
			_ = s.Close()     //nolint:errcheck // test cleanup
		},
	}
}

// registerUser creates an account and returns its auth response.
func (ts *testServer) registerUser(t *testing.T, email string) AuthResponse {
	t.Helper()
	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":        email,
		"password":     testPassword,
		"display_name": "Reader",
	})
	require.Equal(t, 200, resp.Code, resp.Body.String())
	return decodeData[AuthResponse](t, resp)
}

// bearer formats an Authorization header argument for humatest.
func bearer(token string) string {
	return "Authorization: Bearer " + token
}

// addBook creates a book over the API and returns it.
func (ts *testServer) addBook(t *testing.T, token, title string) BookResponse {
	t.Helper()
	resp := ts.api.Post("/api/v1/books", bearer(token), map[string]any{
		"title":   title,
		"authors": "Test Author",
	})
	require.Equal(t, 201, resp.Code, resp.Body.String())
	return decodeData[BookResponse](t, resp)
}

func decodeData[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var envelope testEnvelope[T]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.True(t, envelope.Success, resp.Body.String())
	return envelope.Data
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) testErrorEnvelope {
	t.Helper()
	var envelope testErrorEnvelope
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.False(t, envelope.Success)
	return envelope
}

// stubSearcher serves canned catalog entries and counts upstream calls.
type stubSearcher struct {
	entries []catalog.Entry
	err     error
	calls   atomic.Int32
}

func (s *stubSearcher) Search(ctx context.Context, _ string) *catalog.Results {
	return catalog.NewResults(ctx, func(_ context.Context, yield func(catalog.Entry) bool) error {
		s.calls.Add(1)
		if s.err != nil {
			return s.err
		}
		for _, e := range s.entries {
			if !yield(e) {
				return nil
			}
		}
		return nil
	})
}
