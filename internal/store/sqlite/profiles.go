package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/bookclubapp/bookclub-server/internal/domain"
	"github.com/bookclubapp/bookclub-server/internal/store"
)

// profileColumns is the ordered list of columns selected in profile queries.
// Must match the scan order in scanProfile.
const profileColumns = `user_id, display_name, bio, photo_url, favorite_book_json, reading_preferences_json, created_at, updated_at`

func scanProfile(row scanner) (*domain.UserProfile, error) {
	var (
		p            domain.UserProfile
		photoURL     sql.NullString
		favoriteJSON sql.NullString
		prefsJSON    string
		createdAt    string
		updatedAt    string
	)

	err := row.Scan(&p.UserID, &p.DisplayName, &p.Bio, &photoURL, &favoriteJSON, &prefsJSON, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	p.PhotoURL = photoURL.String
	if favoriteJSON.Valid && favoriteJSON.String != "" {
		var fav domain.FavoriteBook
		if err := json.Unmarshal([]byte(favoriteJSON.String), &fav); err != nil {
			return nil, fmt.Errorf("unmarshal favorite book: %w", err)
		}
		p.FavoriteBook = &fav
	}
	if err := json.Unmarshal([]byte(prefsJSON), &p.ReadingPreferences); err != nil {
		return nil, fmt.Errorf("unmarshal reading preferences: %w", err)
	}
	if p.ReadingPreferences == nil {
		p.ReadingPreferences = []string{}
	}

	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProfile retrieves a user profile by user ID.
// Returns store.ErrProfileNotFound if the profile does not exist.
func (s *Store) GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE user_id = ?`, userID)
	p, err := scanProfile(row)
	if isNoRows(err) {
		return nil, store.ErrProfileNotFound
	}
	return p, err
}

// SaveProfile creates or replaces a user's profile.
func (s *Store) SaveProfile(ctx context.Context, profile *domain.UserProfile) error {
	var favorite sql.NullString
	if profile.FavoriteBook != nil {
		data, err := json.Marshal(profile.FavoriteBook)
		if err != nil {
			return fmt.Errorf("marshal favorite book: %w", err)
		}
		favorite = sql.NullString{String: string(data), Valid: true}
	}

	prefs := profile.ReadingPreferences
	if prefs == nil {
		prefs = []string{}
	}
	prefsJSON, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("marshal reading preferences: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, display_name, bio, photo_url, favorite_book_json, reading_preferences_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			display_name = excluded.display_name,
			bio = excluded.bio,
			photo_url = excluded.photo_url,
			favorite_book_json = excluded.favorite_book_json,
			reading_preferences_json = excluded.reading_preferences_json,
			updated_at = excluded.updated_at`,
		profile.UserID, profile.DisplayName, profile.Bio, nullString(profile.PhotoURL),
		favorite, string(prefsJSON), formatTime(profile.CreatedAt), formatTime(profile.UpdatedAt),
	)
	if err != nil && isForeignKeyViolation(err) {
		return store.ErrUserNotFound
	}
	return err
}
