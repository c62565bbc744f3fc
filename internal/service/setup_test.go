package service

import (
	"context"
	"encoding/hex"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bookclubapp/bookclub-server/internal/auth"
	"github.com/bookclubapp/bookclub-server/internal/catalog"
	"github.com/bookclubapp/bookclub-server/internal/search"
	"github.com/bookclubapp/bookclub-server/internal/store"
	"github.com/bookclubapp/bookclub-server/internal/store/sqlite"
)

const testPassword = "Abc123!@xyz"

// testEnv bundles the services wired against temporary storage.
type testEnv struct {
	store    *sqlite.Store
	index    *search.Index
	cache    *store.Cache
	tokens   *auth.TokenService
	sessions *SessionService
	auth     *AuthService
	library  *LibraryService
	reviews  *ReviewService
	profiles *ProfileService
	accounts *AccountService
}

func setupTest(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	s, err := sqlite.Open(filepath.Join(dir, "bookclub.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	idx, err := search.NewIndex(search.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	cache, err := store.OpenInMemoryCache(time.Hour, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	key, err := auth.LoadOrGenerateKey(dir)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(hex.EncodeToString(key), 15*time.Minute, 30*24*time.Hour)
	require.NoError(t, err)

	sessions := NewSessionService(s, tokens, nil)
	return &testEnv{
		store:    s,
		index:    idx,
		cache:    cache,
		tokens:   tokens,
		sessions: sessions,
		auth:     NewAuthService(s, tokens, sessions, AuthOptions{OpenRegistration: true}, nil),
		library:  NewLibraryService(s, idx, nil, nil),
		reviews:  NewReviewService(s, idx, nil),
		profiles: NewProfileService(s, nil),
		accounts: NewAccountService(s, sessions, idx, nil),
	}
}

// register creates a user and returns the auth response.
func (e *testEnv) register(t *testing.T, email string) *AuthResponse {
	t.Helper()
	resp, err := e.auth.Register(context.Background(), RegisterRequest{
		Email:       email,
		Password:    testPassword,
		DisplayName: "Reader",
	}, ClientInfo{IPAddress: "127.0.0.1", UserAgent: "test"})
	require.NoError(t, err)
	return resp
}

// addBook puts a book on ownerID's shelf.
func (e *testEnv) addBook(t *testing.T, ownerID, title string) string {
	t.Helper()
	book, err := e.library.AddBook(context.Background(), ownerID, AddBookRequest{
		Title:   title,
		Authors: "Test Author",
	})
	require.NoError(t, err)
	return book.ID
}

// fixedClock returns a clock that advances by one minute per call.
func fixedClock(start time.Time) func() time.Time {
	var calls atomic.Int64
	return func() time.Time {
		n := calls.Add(1) - 1
		return start.Add(time.Duration(n) * time.Minute)
	}
}

// stubSearcher serves canned entries and counts upstream calls.
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
