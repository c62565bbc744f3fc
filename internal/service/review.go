package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bookclubapp/bookclub-server/internal/domain"
	domainerrors "github.com/bookclubapp/bookclub-server/internal/errors"
	"github.com/bookclubapp/bookclub-server/internal/store"
)

// ReviewInput is a review as submitted by a client. Rating values are
// checked by the domain layer so the errors carry the rating codes.
type ReviewInput struct {
	Text         string         `json:"text,omitempty" validate:"max=10000"`
	RatingType   string         `json:"rating_type"`
	SimpleRating *float64       `json:"simple_rating,omitempty"`
	Ratings      domain.Ratings `json:"ratings,omitempty"`
}

// Build validates the input and produces the stored review.
func (in ReviewInput) Build() (*domain.Review, error) {
	if err := validate.Validate(in); err != nil {
		return nil, err
	}
	rt, err := domain.ParseRatingType(in.RatingType)
	if err != nil {
		return nil, err
	}
	return domain.NewReview(strings.TrimSpace(in.Text), rt, in.SimpleRating, in.Ratings)
}

// SubmitReviewRequest saves a review, optionally moving the book to a new status
// in the same write.
type SubmitReviewRequest struct {
	ReviewInput
	Status *string `json:"status,omitempty"`
}

// OverallPreview is the score a review would be stored with.
type OverallPreview struct {
	RatingType string  `json:"rating_type"`
	Overall    float64 `json:"overall"`
}

// ReviewService saves and lists reader reviews.
type ReviewService struct {
	store  store.Store
	index  BookIndex
	logger *slog.Logger
	now    func() time.Time
}

// NewReviewService creates a review service. index may be nil.
func NewReviewService(store store.Store, index BookIndex, logger *slog.Logger) *ReviewService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ReviewService{store: store, index: index, logger: logger, now: time.Now}
}

// SubmitReview replaces the review on a book. Switching rating types clears
// the previous type's values.
func (s *ReviewService) SubmitReview(ctx context.Context, ownerID, bookID string, req SubmitReviewRequest) (*domain.BookRecord, error) {
	if err := requireOwner(ctx, ownerID); err != nil {
		return nil, err
	}

	review, err := req.Build()
	if err != nil {
		return nil, err
	}

	var next domain.BookStatus
	if req.Status != nil {
		if next, err = domain.ParseBookStatus(*req.Status); err != nil {
			return nil, err
		}
	}

	book, err := loadOwnedBook(ctx, s.store, ownerID, bookID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	updated := *book
	patch := store.BookPatch{UpdatedAt: now}
	if next != "" {
		if updated, err = domain.ApplyStatusChange(updated, next, now); err != nil {
			return nil, err
		}
		patch = store.StatusPatch(updated)
	}
	updated.Review = review
	updated.UpdatedAt = now
	patch.Review = review

	if err := s.store.UpdateBook(ctx, bookID, patch); err != nil {
		return nil, fmt.Errorf("save review: %w", notFoundAs(err, "book not found"))
	}
	s.reindex(&updated)

	s.logger.Info("review saved",
		"book_id", bookID,
		"owner_id", ownerID,
		"rating_type", review.RatingType,
		"overall", review.Overall,
	)
	return &updated, nil
}

// ListReviews returns the owner's reviewed books, most recently updated first.
func (s *ReviewService) ListReviews(ctx context.Context, ownerID string, page, perPage int) (*store.Page[*domain.BookRecord], error) {
	if err := requireOwner(ctx, ownerID); err != nil {
		return nil, err
	}
	result, err := s.store.ListBooksByOwner(ctx, ownerID,
		store.BookFilter{ReviewedOnly: true},
		store.PageParams{Page: page, PerPage: perPage},
	)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return result, nil
}

// DeleteReview removes the review from a book, leaving the book on the shelf.
func (s *ReviewService) DeleteReview(ctx context.Context, ownerID, bookID string) (*domain.BookRecord, error) {
	if err := requireOwner(ctx, ownerID); err != nil {
		return nil, err
	}

	book, err := loadOwnedBook(ctx, s.store, ownerID, bookID)
	if err != nil {
		return nil, err
	}
	if !book.HasReview() {
		return nil, domainerrors.NotFoundf("book %s has no review", bookID)
	}

	now := s.now()
	if err := s.store.UpdateBook(ctx, bookID, store.BookPatch{ClearReview: true, UpdatedAt: now}); err != nil {
		return nil, fmt.Errorf("delete review: %w", notFoundAs(err, "book not found"))
	}
	book.Review = nil
	book.UpdatedAt = now
	s.reindex(book)

	s.logger.Info("review deleted", "book_id", bookID, "owner_id", ownerID)
	return book, nil
}

// PreviewOverall computes the overall score without saving anything.
// A missing rating signal is not an error here; it previews as 0.
func (s *ReviewService) PreviewOverall(in ReviewInput) (*OverallPreview, error) {
	rt, err := domain.ParseRatingType(in.RatingType)
	if err != nil {
		return nil, err
	}
	overall, err := domain.ComputeOverall(rt, in.SimpleRating, in.Ratings)
	if err != nil {
		return nil, err
	}
	return &OverallPreview{RatingType: string(rt), Overall: overall}, nil
}

func (s *ReviewService) reindex(book *domain.BookRecord) {
	if s.index == nil {
		return
	}
	if err := s.index.IndexBook(book); err != nil {
		s.logger.Warn("failed to index book", "book_id", book.ID, "error", err)
	}
}
