package api

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/bookclubapp/bookclub-server/internal/errors"
)

// getFixturePath returns the path to the shared envelope fixtures.
// Client tests embed the same JSON to verify parsing compatibility.
func getFixturePath(t *testing.T) string {
	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok, "Failed to get caller info")

	// internal/api -> repository root
	root := filepath.Dir(filepath.Dir(filepath.Dir(filename)))
	return filepath.Join(root, "testdata", "envelope")
}

func loadFixture(t *testing.T, name string) map[string]any {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join(getFixturePath(t), name))
	require.NoError(t, err, "contract tests require shared fixtures")

	var fixture map[string]any
	require.NoError(t, json.Unmarshal(raw, &fixture))
	return fixture
}

func marshalToMap(t *testing.T, v any) map[string]any {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestEnvelopeContract_SuccessMatchesFixture(t *testing.T) {
	expected := loadFixture(t, "success.json")

	result, err := EnvelopeTransformer(nil, "200", map[string]string{"id": "test-123", "name": "Test Item"})
	require.NoError(t, err)
	got := marshalToMap(t, result)

	assert.Equal(t, expected, got)
}

func TestEnvelopeContract_SuccessNullDataMatchesFixture(t *testing.T) {
	expected := loadFixture(t, "success_null_data.json")

	result, err := EnvelopeTransformer(nil, "204", nil)
	require.NoError(t, err)

	assert.Equal(t, expected, marshalToMap(t, result))
}

func TestEnvelopeContract_SimpleErrorMatchesFixture(t *testing.T) {
	expected := loadFixture(t, "error_simple.json")

	result, err := EnvelopeTransformer(nil, "404", &APIError{Message: "Resource not found"})
	require.NoError(t, err)

	assert.Equal(t, expected, marshalToMap(t, result))
}

func TestEnvelopeContract_DetailedErrorMatchesFixture(t *testing.T) {
	expected := loadFixture(t, "error_detailed.json")

	err := domainerrors.RequiresRating("add a rating before saving a review").
		WithDetails(map[string]string{"rating_type": "simple"})
	result, terr := EnvelopeTransformer(nil, "422", err)
	require.NoError(t, terr)
	got := marshalToMap(t, result)

	for key := range got {
		assert.Contains(t, expected, key, "Server output contains unexpected field: %s", key)
	}
	assert.Equal(t, expected, got)
}

// The version field must be named exactly 'v'; a rename breaks clients silently.
func TestEnvelopeContract_VersionFieldName(t *testing.T) {
	result, err := EnvelopeTransformer(nil, "200", nil)
	require.NoError(t, err)
	got := marshalToMap(t, result)

	assert.Contains(t, got, "v")
	assert.NotContains(t, got, "version")
	assert.NotContains(t, got, "Version")
}
