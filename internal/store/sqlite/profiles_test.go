package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookclubapp/bookclub-server/internal/domain"
	"github.com/bookclubapp/bookclub-server/internal/store"
)

func makeTestProfile(userID string) *domain.UserProfile {
	p := domain.NewUserProfile(userID, "Reader "+userID)
	p.CreatedAt = p.CreatedAt.UTC().Truncate(time.Millisecond)
	p.UpdatedAt = p.CreatedAt
	return p
}

func TestSaveAndGetProfile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ensureUser(t, s, "user-1")

	p := makeTestProfile("user-1")
	p.Bio = "Mostly science fiction."
	p.PhotoURL = "https://img.example.com/me.png"
	p.FavoriteBook = &domain.FavoriteBook{CatalogID: "zyTCAlFPjgYC", Title: "The Dispossessed", Authors: "Ursula K. Le Guin"}
	p.ReadingPreferences = []string{"sci-fi", "essays"}

	require.NoError(t, s.SaveProfile(ctx, p))

	got, err := s.GetProfile(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, p.Bio, got.Bio)
	assert.Equal(t, p.PhotoURL, got.PhotoURL)
	assert.Equal(t, p.FavoriteBook, got.FavoriteBook)
	assert.Equal(t, []string{"sci-fi", "essays"}, got.ReadingPreferences)
	assert.True(t, p.CreatedAt.Equal(got.CreatedAt))
}

func TestSaveProfile_Upsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ensureUser(t, s, "user-1")

	p := makeTestProfile("user-1")
	require.NoError(t, s.SaveProfile(ctx, p))

	created := p.CreatedAt
	p.Bio = "Updated"
	p.FavoriteBook = nil
	p.ReadingPreferences = nil
	p.CreatedAt = created.Add(time.Hour)
	p.UpdatedAt = created.Add(time.Hour)
	require.NoError(t, s.SaveProfile(ctx, p))

	got, err := s.GetProfile(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Updated", got.Bio)
	assert.Nil(t, got.FavoriteBook)
	assert.Empty(t, got.ReadingPreferences)
	assert.NotNil(t, got.ReadingPreferences)
	assert.True(t, created.Equal(got.CreatedAt), "created_at is preserved on update")
	assert.True(t, p.UpdatedAt.Equal(got.UpdatedAt))
}

func TestGetProfile_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetProfile(context.Background(), "nobody")
	assert.ErrorIs(t, err, store.ErrProfileNotFound)
}

func TestSaveProfile_UnknownUser(t *testing.T) {
	s := newTestStore(t)
	err := s.SaveProfile(context.Background(), makeTestProfile("ghost"))
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}
