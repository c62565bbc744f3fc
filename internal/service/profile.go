package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bookclubapp/bookclub-server/internal/domain"
	domainerrors "github.com/bookclubapp/bookclub-server/internal/errors"
	"github.com/bookclubapp/bookclub-server/internal/store"
)

// ProfileService provides reader profile management.
type ProfileService struct {
	store  store.Store
	logger *slog.Logger
}

// NewProfileService creates a new profile service.
func NewProfileService(store store.Store, logger *slog.Logger) *ProfileService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ProfileService{store: store, logger: logger}
}

// GetOrCreateProfile returns a user's profile, creating a default if none exists.
func (s *ProfileService) GetOrCreateProfile(ctx context.Context, ownerID string) (*domain.UserProfile, error) {
	if err := requireOwner(ctx, ownerID); err != nil {
		return nil, err
	}

	profile, err := s.store.GetProfile(ctx, ownerID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, store.ErrProfileNotFound) {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	user, err := s.store.GetUser(ctx, ownerID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, domainerrors.NotAuthenticated("account no longer exists")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	profile = domain.NewUserProfile(ownerID, user.Name())
	if err := s.store.SaveProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("create default profile: %w", err)
	}

	s.logger.Info("created default profile", "user_id", ownerID)
	return profile, nil
}

// UpdateProfileRequest contains optional fields to update.
type UpdateProfileRequest struct {
	DisplayName        *string              `json:"display_name,omitempty"`
	Bio                *string              `json:"bio,omitempty"`
	PhotoURL           *string              `json:"photo_url,omitempty" validate:"omitempty,max=2048"`
	FavoriteBook       *domain.FavoriteBook `json:"favorite_book,omitempty"`
	ClearFavoriteBook  bool                 `json:"clear_favorite_book,omitempty"`
	ReadingPreferences []string             `json:"reading_preferences,omitempty"`
}

// UpdateProfile updates a reader's profile.
func (s *ProfileService) UpdateProfile(ctx context.Context, ownerID string, req UpdateProfileRequest) (*domain.UserProfile, error) {
	if err := requireOwner(ctx, ownerID); err != nil {
		return nil, err
	}
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	profile, err := s.GetOrCreateProfile(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if req.DisplayName != nil {
		name := strings.TrimSpace(*req.DisplayName)
		if name == "" {
			return nil, domainerrors.Validation("display name is required")
		}
		if utf8.RuneCountInString(name) > domain.MaxDisplayNameLength {
			return nil, domainerrors.Validationf("display name must be %d characters or less", domain.MaxDisplayNameLength)
		}
		profile.DisplayName = name
	}

	if req.Bio != nil {
		if utf8.RuneCountInString(*req.Bio) > domain.MaxBioLength {
			return nil, domainerrors.Validationf("bio must be %d characters or less", domain.MaxBioLength)
		}
		profile.Bio = *req.Bio
	}

	if req.PhotoURL != nil {
		photo := strings.TrimSpace(*req.PhotoURL)
		if photo != "" {
			if err := validate.Var("photo_url", photo, "http_url"); err != nil {
				return nil, err
			}
		}
		profile.PhotoURL = photo
	}

	switch {
	case req.ClearFavoriteBook:
		profile.FavoriteBook = nil
	case req.FavoriteBook != nil:
		if strings.TrimSpace(req.FavoriteBook.Title) == "" {
			return nil, domainerrors.Validation("favorite book needs a title")
		}
		fav := *req.FavoriteBook
		profile.FavoriteBook = &fav
	}

	if req.ReadingPreferences != nil {
		prefs, err := normalizePreferences(req.ReadingPreferences)
		if err != nil {
			return nil, err
		}
		profile.ReadingPreferences = prefs
	}

	profile.UpdatedAt = time.Now()
	if err := s.store.SaveProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}

	s.logger.Info("profile updated", "user_id", ownerID)
	return profile, nil
}

// normalizePreferences trims, drops blanks and removes case-insensitive duplicates.
func normalizePreferences(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, p := range in {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if utf8.RuneCountInString(p) > domain.MaxReadingPreferenceLength {
			return nil, domainerrors.Validationf("reading preference %q must be %d characters or less", p, domain.MaxReadingPreferenceLength)
		}
		key := strings.ToLower(p)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	if len(out) > domain.MaxReadingPreferences {
		return nil, domainerrors.Validationf("at most %d reading preferences are allowed", domain.MaxReadingPreferences)
	}
	return out, nil
}
