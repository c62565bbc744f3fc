package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bookclubapp/bookclub-server/internal/domain"
	"github.com/bookclubapp/bookclub-server/internal/service"
)

func (s *Server) registerProfileRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getMyProfile",
		Method:      http.MethodGet,
		Path:        "/api/v1/profile",
		Summary:     "Get my profile",
		Description: "Returns the authenticated user's profile, creating a default one on first access",
		Tags:        []string{"Profile"},
		Security:    bearerSecurity,
	}, s.handleGetMyProfile)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateMyProfile",
		Method:      http.MethodPatch,
		Path:        "/api/v1/profile",
		Summary:     "Update my profile",
		Description: "Updates the authenticated user's profile. Omitted fields are left unchanged.",
		Tags:        []string{"Profile"},
		Security:    bearerSecurity,
	}, s.handleUpdateMyProfile)
}

// === DTOs ===

// FavoriteBookDTO is the book a reader pins to their profile.
type FavoriteBookDTO struct {
	CatalogID string `json:"catalog_id,omitempty" doc:"Catalog volume ID"`
	Title     string `json:"title" doc:"Title"`
	Authors   string `json:"authors,omitempty" doc:"Comma-separated authors"`
	Thumbnail string `json:"thumbnail,omitempty" doc:"Cover thumbnail URL"`
}

// ProfileResponse is a reader's profile.
type ProfileResponse struct {
	UserID             string           `json:"user_id" doc:"User ID"`
	DisplayName        string           `json:"display_name" doc:"Display name"`
	Bio                string           `json:"bio" doc:"Short biography"`
	PhotoURL           string           `json:"photo_url,omitempty" doc:"Profile photo URL"`
	FavoriteBook       *FavoriteBookDTO `json:"favorite_book,omitempty" doc:"Pinned favorite book"`
	ReadingPreferences []string         `json:"reading_preferences" doc:"Preferred genres or topics"`
	CreatedAt          time.Time        `json:"created_at" doc:"Creation time"`
	UpdatedAt          time.Time        `json:"updated_at" doc:"Last update time"`
}

// ProfileOutput wraps a profile for Huma.
type ProfileOutput struct {
	Body ProfileResponse
}

// UpdateProfileRequest is the request body for a profile update.
type UpdateProfileRequest struct {
	DisplayName        *string          `json:"display_name,omitempty" doc:"Display name"`
	Bio                *string          `json:"bio,omitempty" doc:"Short biography"`
	PhotoURL           *string          `json:"photo_url,omitempty" doc:"Profile photo URL, empty to remove"`
	FavoriteBook       *FavoriteBookDTO `json:"favorite_book,omitempty" doc:"New favorite book"`
	ClearFavoriteBook  bool             `json:"clear_favorite_book,omitempty" doc:"Remove the favorite book"`
	ReadingPreferences []string         `json:"reading_preferences,omitempty" doc:"Replaces the reading preferences"`
}

// UpdateProfileInput wraps the update request for Huma.
type UpdateProfileInput struct {
	Body UpdateProfileRequest
}

// === Handlers ===

func (s *Server) handleGetMyProfile(ctx context.Context, _ *struct{}) (*ProfileOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	profile, err := s.services.Profile.GetOrCreateProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ProfileOutput{Body: mapProfileResponse(profile)}, nil
}

func (s *Server) handleUpdateMyProfile(ctx context.Context, input *UpdateProfileInput) (*ProfileOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	req := service.UpdateProfileRequest{
		DisplayName:        input.Body.DisplayName,
		Bio:                input.Body.Bio,
		PhotoURL:           input.Body.PhotoURL,
		ClearFavoriteBook:  input.Body.ClearFavoriteBook,
		ReadingPreferences: input.Body.ReadingPreferences,
	}
	if fb := input.Body.FavoriteBook; fb != nil {
		req.FavoriteBook = &domain.FavoriteBook{
			CatalogID: fb.CatalogID,
			Title:     fb.Title,
			Authors:   fb.Authors,
			Thumbnail: fb.Thumbnail,
		}
	}

	profile, err := s.services.Profile.UpdateProfile(ctx, userID, req)
	if err != nil {
		return nil, err
	}
	return &ProfileOutput{Body: mapProfileResponse(profile)}, nil
}

func mapProfileResponse(p *domain.UserProfile) ProfileResponse {
	resp := ProfileResponse{
		UserID:             p.UserID,
		DisplayName:        p.DisplayName,
		Bio:                p.Bio,
		PhotoURL:           p.PhotoURL,
		ReadingPreferences: p.ReadingPreferences,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
	if resp.ReadingPreferences == nil {
		resp.ReadingPreferences = []string{}
	}
	if fb := p.FavoriteBook; fb != nil {
		resp.FavoriteBook = &FavoriteBookDTO{
			CatalogID: fb.CatalogID,
			Title:     fb.Title,
			Authors:   fb.Authors,
			Thumbnail: fb.Thumbnail,
		}
	}
	return resp
}
