package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bookclubapp/bookclub-server/internal/domain"
	"github.com/bookclubapp/bookclub-server/internal/service"
)

func (s *Server) registerReviewRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "submitReview",
		Method:      http.MethodPut,
		Path:        "/api/v1/books/{id}/review",
		Summary:     "Save review",
		Description: "Replaces the review on a book. A rating is required; an optional status is applied in the same write.",
		Tags:        []string{"Reviews"},
		Security:    bearerSecurity,
	}, s.handleSubmitReview)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteReview",
		Method:      http.MethodDelete,
		Path:        "/api/v1/books/{id}/review",
		Summary:     "Delete review",
		Description: "Removes the review from a book, keeping the book itself",
		Tags:        []string{"Reviews"},
		Security:    bearerSecurity,
	}, s.handleDeleteReview)

	huma.Register(s.api, huma.Operation{
		OperationID: "listReviews",
		Method:      http.MethodGet,
		Path:        "/api/v1/reviews",
		Summary:     "List my reviews",
		Description: "Returns a page of reviewed books, most recently updated first",
		Tags:        []string{"Reviews"},
		Security:    bearerSecurity,
	}, s.handleListReviews)

	huma.Register(s.api, huma.Operation{
		OperationID: "previewOverall",
		Method:      http.MethodPost,
		Path:        "/api/v1/ratings/overall",
		Summary:     "Preview overall score",
		Description: "Computes the overall score a rating would be stored with, without saving",
		Tags:        []string{"Reviews"},
		Security:    bearerSecurity,
	}, s.handlePreviewOverall)

	huma.Register(s.api, huma.Operation{
		OperationID: "resolveStarClick",
		Method:      http.MethodPost,
		Path:        "/api/v1/ratings/star",
		Summary:     "Resolve star click",
		Description: "Maps a click on one star of a rating control to its value. The left half of star n is n-0.5, the right half is n.",
		Tags:        []string{"Reviews"},
		Security:    bearerSecurity,
	}, s.handleResolveStarClick)
}

// === DTOs ===

// SubmitReviewRequest is the request body for saving a review.
type SubmitReviewRequest struct {
	ReviewRequest
	Status *string `json:"status,omitempty" doc:"Optional status to move the book to"`
}

// SubmitReviewInput wraps the review submission for Huma.
type SubmitReviewInput struct {
	ID   string `path:"id" doc:"Book ID"`
	Body SubmitReviewRequest
}

// DeleteReviewInput contains parameters for deleting a review.
type DeleteReviewInput struct {
	ID string `path:"id" doc:"Book ID"`
}

// ListReviewsInput contains parameters for listing reviews.
type ListReviewsInput struct {
	Page    int `query:"page" default:"1" minimum:"1" maximum:"100000" doc:"Page number"`
	PerPage int `query:"per_page" default:"10" minimum:"1" maximum:"100" doc:"Items per page"`
}

// PreviewOverallInput wraps a rating for Huma.
type PreviewOverallInput struct {
	Body ReviewRequest
}

// PreviewOverallOutput wraps the computed score for Huma.
type PreviewOverallOutput struct {
	Body *service.OverallPreview
}

// StarClickRequest is a click on one star of a rating control.
type StarClickRequest struct {
	Star     int  `json:"star" doc:"Star that was clicked, 1-5"`
	LeftHalf bool `json:"left_half,omitempty" doc:"Whether the click landed on the left half of the star"`
}

// StarClickInput wraps a star click for Huma.
type StarClickInput struct {
	Body StarClickRequest
}

// StarClickResponse is the rating a click selects.
type StarClickResponse struct {
	Value float64           `json:"value" doc:"Rating selected by the click"`
	Stars []domain.StarFill `json:"stars" doc:"How the control draws the selected rating"`
}

// StarClickOutput wraps the resolved click for Huma.
type StarClickOutput struct {
	Body StarClickResponse
}

// === Handlers ===

func (s *Server) handleSubmitReview(ctx context.Context, input *SubmitReviewInput) (*BookOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	book, err := s.services.Review.SubmitReview(ctx, userID, input.ID, service.SubmitReviewRequest{
		ReviewInput: toReviewInput(input.Body.ReviewRequest),
		Status:      input.Body.Status,
	})
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: mapBookResponse(book)}, nil
}

func (s *Server) handleDeleteReview(ctx context.Context, input *DeleteReviewInput) (*BookOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	book, err := s.services.Review.DeleteReview(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: mapBookResponse(book)}, nil
}

func (s *Server) handleListReviews(ctx context.Context, input *ListReviewsInput) (*BookListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	page, err := s.services.Review.ListReviews(ctx, userID, input.Page, input.PerPage)
	if err != nil {
		return nil, err
	}
	return &BookListOutput{Body: mapBookPage(page)}, nil
}

func (s *Server) handlePreviewOverall(ctx context.Context, input *PreviewOverallInput) (*PreviewOverallOutput, error) {
	if _, err := GetUserID(ctx); err != nil {
		return nil, err
	}

	preview, err := s.services.Review.PreviewOverall(toReviewInput(input.Body))
	if err != nil {
		return nil, err
	}
	return &PreviewOverallOutput{Body: preview}, nil
}

func (s *Server) handleResolveStarClick(ctx context.Context, input *StarClickInput) (*StarClickOutput, error) {
	if _, err := GetUserID(ctx); err != nil {
		return nil, err
	}

	value, err := domain.StarValue(input.Body.Star, input.Body.LeftHalf)
	if err != nil {
		return nil, err
	}
	return &StarClickOutput{Body: StarClickResponse{
		Value: value,
		Stars: domain.StarFills(&value),
	}}, nil
}
