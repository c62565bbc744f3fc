// Package store defines the persistence collaborator and the catalog cache.
package store

import (
	"context"
	"time"

	"github.com/bookclubapp/bookclub-server/internal/domain"
)

// BookFilter narrows a shelf listing.
type BookFilter struct {
	// Status limits results to one status. Empty means all.
	Status domain.BookStatus
	// ReviewedOnly keeps only books with a saved review.
	ReviewedOnly bool
}

// BookPatch is a partial update of a BookRecord. Nil fields are left untouched.
// Dates are only ever set, never cleared, by the status lifecycle.
type BookPatch struct {
	Title         *string
	Authors       *string
	PublishedDate *string
	Thumbnail     *string
	Description   *string
	Status        *domain.BookStatus
	StartDate     *time.Time
	CompletedDate *time.Time
	Review        *domain.Review
	ClearReview   bool
	CoverBlurHash *string
	// UpdatedAt is written as given; zero means now.
	UpdatedAt time.Time
	// SkipTouch leaves updated_at alone, for background enrichment
	// that is not a user mutation.
	SkipTouch bool
}

// StatusPatch captures the fields ApplyStatusChange may have changed.
func StatusPatch(rec domain.BookRecord) BookPatch {
	status := rec.Status
	return BookPatch{
		Status:        &status,
		StartDate:     rec.StartDate,
		CompletedDate: rec.CompletedDate,
		UpdatedAt:     rec.UpdatedAt,
	}
}

// Store is the persistence collaborator.
type Store interface {
	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
	// DeleteUser removes the user and, by cascade, their books, profile and sessions.
	DeleteUser(ctx context.Context, id string) error

	// Sessions
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	GetSessionByRefreshToken(ctx context.Context, tokenHash string) (*domain.Session, error)
	UpdateSession(ctx context.Context, session *domain.Session) error
	DeleteSession(ctx context.Context, id string) error
	DeleteUserSessions(ctx context.Context, userID, exceptSessionID string) (int, error)
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error)

	// Books
	CreateBook(ctx context.Context, book *domain.BookRecord) error
	GetBook(ctx context.Context, id string) (*domain.BookRecord, error)
	UpdateBook(ctx context.Context, id string, patch BookPatch) error
	DeleteBook(ctx context.Context, id string) error
	ListBooksByOwner(ctx context.Context, ownerID string, filter BookFilter, page PageParams) (*Page[*domain.BookRecord], error)
	ListAllBooks(ctx context.Context) ([]*domain.BookRecord, error)

	// Profiles
	GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error)
	SaveProfile(ctx context.Context, profile *domain.UserProfile) error

	Ping(ctx context.Context) error
	Close() error
}
