package domain

import "time"

// Profile field limits.
const (
	MaxDisplayNameLength       = 100
	MaxBioLength               = 500
	MaxReadingPreferences      = 20
	MaxReadingPreferenceLength = 50
)

// FavoriteBook is the catalog entry a reader pins to their profile.
type FavoriteBook struct {
	CatalogID string `json:"catalog_id,omitempty"`
	Title     string `json:"title"`
	Authors   string `json:"authors,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// UserProfile holds the public-facing details of a reader.
// Stored separately from User to keep credentials apart from presentation.
type UserProfile struct {
	UserID             string        `json:"user_id"`
	DisplayName        string        `json:"display_name"`
	Bio                string        `json:"bio"`
	PhotoURL           string        `json:"photo_url,omitempty"`
	FavoriteBook       *FavoriteBook `json:"favorite_book,omitempty"`
	ReadingPreferences []string      `json:"reading_preferences"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// NewUserProfile creates a default profile for a user.
func NewUserProfile(userID, displayName string) *UserProfile {
	now := time.Now()
	return &UserProfile{
		UserID:             userID,
		DisplayName:        displayName,
		ReadingPreferences: []string{},
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}
