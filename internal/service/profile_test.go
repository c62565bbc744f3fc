package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookclubapp/bookclub-server/internal/domain"
	domainerrors "github.com/bookclubapp/bookclub-server/internal/errors"
	"github.com/bookclubapp/bookclub-server/internal/store"
)

func TestProfileService_GetOrCreateProfile(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	// Users created outside registration have no profile yet.
	user := &domain.User{
		Timestamps:   domain.Timestamps{ID: "usr_direct"},
		Email:        "profile@example.com",
		PasswordHash: "x",
		DisplayName:  "Reader",
	}
	user.InitTimestamps()
	require.NoError(t, env.store.CreateUser(ctx, user))
	owner := user.ID

	_, err := env.store.GetProfile(ctx, owner)
	require.ErrorIs(t, err, store.ErrProfileNotFound)

	profile, err := env.profiles.GetOrCreateProfile(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, "Reader", profile.DisplayName)
	assert.Empty(t, profile.ReadingPreferences)

	_, err = env.store.GetProfile(ctx, owner)
	assert.NoError(t, err)

	_, err = env.profiles.GetOrCreateProfile(ctx, "")
	assert.ErrorIs(t, err, domainerrors.ErrNotAuthenticated)
}

func TestProfileService_UpdateProfile(t *testing.T) {
	env := setupTest(t)
	owner := env.register(t, "update-profile@example.com").User.ID
	ctx := context.Background()

	name := "  Octavia  "
	bio := "Reads mostly speculative fiction."
	photo := "https://images.example.com/me.png"
	profile, err := env.profiles.UpdateProfile(ctx, owner, UpdateProfileRequest{
		DisplayName:        &name,
		Bio:                &bio,
		PhotoURL:           &photo,
		FavoriteBook:       &domain.FavoriteBook{Title: "Dawn", Authors: "Octavia E. Butler"},
		ReadingPreferences: []string{"Sci-Fi", " sci-fi ", "", "Fantasy"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Octavia", profile.DisplayName)
	assert.Equal(t, []string{"Sci-Fi", "Fantasy"}, profile.ReadingPreferences)

	stored, err := env.store.GetProfile(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, bio, stored.Bio)
	assert.Equal(t, photo, stored.PhotoURL)
	require.NotNil(t, stored.FavoriteBook)
	assert.Equal(t, "Dawn", stored.FavoriteBook.Title)

	cleared, err := env.profiles.UpdateProfile(ctx, owner, UpdateProfileRequest{ClearFavoriteBook: true})
	require.NoError(t, err)
	assert.Nil(t, cleared.FavoriteBook)
	assert.Equal(t, "Octavia", cleared.DisplayName)
}

func TestProfileService_UpdateProfile_Limits(t *testing.T) {
	env := setupTest(t)
	owner := env.register(t, "limits@example.com").User.ID
	ctx := context.Background()

	blank := "   "
	longName := strings.Repeat("n", domain.MaxDisplayNameLength+1)
	longBio := strings.Repeat("b", domain.MaxBioLength+1)
	badPhoto := "ftp://example.com/me.png"
	tooMany := make([]string, domain.MaxReadingPreferences+1)
	for i := range tooMany {
		tooMany[i] = strings.Repeat("g", i+1)
	}

	tests := []struct {
		name string
		req  UpdateProfileRequest
	}{
		{"blank display name", UpdateProfileRequest{DisplayName: &blank}},
		{"long display name", UpdateProfileRequest{DisplayName: &longName}},
		{"long bio", UpdateProfileRequest{Bio: &longBio}},
		{"photo not http", UpdateProfileRequest{PhotoURL: &badPhoto}},
		{"favorite without title", UpdateProfileRequest{FavoriteBook: &domain.FavoriteBook{Authors: "x"}}},
		{"too many preferences", UpdateProfileRequest{ReadingPreferences: tooMany}},
		{"long preference", UpdateProfileRequest{ReadingPreferences: []string{strings.Repeat("p", domain.MaxReadingPreferenceLength+1)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.profiles.UpdateProfile(ctx, owner, tt.req)
			assert.ErrorIs(t, err, domainerrors.ErrValidation)
		})
	}

	// A bio of exactly the limit, counted in characters, is accepted.
	exact := strings.Repeat("é", domain.MaxBioLength)
	_, err := env.profiles.UpdateProfile(ctx, owner, UpdateProfileRequest{Bio: &exact})
	assert.NoError(t, err)
}

func TestProfileService_UnknownUser(t *testing.T) {
	env := setupTest(t)

	_, err := env.profiles.GetOrCreateProfile(context.Background(), "usr_missing")
	assert.ErrorIs(t, err, domainerrors.ErrNotAuthenticated)
	assert.NotErrorIs(t, err, store.ErrProfileNotFound)
}
