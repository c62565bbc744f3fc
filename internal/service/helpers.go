package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"

	"github.com/bookclubapp/bookclub-server/internal/domain"
	domainerrors "github.com/bookclubapp/bookclub-server/internal/errors"
	"github.com/bookclubapp/bookclub-server/internal/store"
	"github.com/bookclubapp/bookclub-server/internal/validation"
)

// validate is a shared validator instance for request validation.
var validate = validation.New()

var tracer = otel.Tracer("bookclub/service")

// requireOwner is the precondition for every owner-scoped operation.
func requireOwner(ctx context.Context, ownerID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return domain.RequireOwner(ownerID)
}

// loadOwnedBook fetches a book and hides records belonging to someone else.
func loadOwnedBook(ctx context.Context, s store.Store, ownerID, bookID string) (*domain.BookRecord, error) {
	book, err := s.GetBook(ctx, bookID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("book %s not found", bookID)
		}
		return nil, fmt.Errorf("get book: %w", err)
	}
	if !book.OwnedBy(ownerID) {
		return nil, domainerrors.NotFoundf("book %s not found", bookID)
	}
	return book, nil
}

// notFoundAs converts a store not-found error into a domain one.
func notFoundAs(err error, msg string) error {
	if errors.Is(err, store.ErrNotFound) {
		return domainerrors.NotFound(msg).WithCause(err)
	}
	return err
}
