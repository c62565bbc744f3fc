package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/bookclubapp/bookclub-server/internal/catalog"
	"github.com/bookclubapp/bookclub-server/internal/domain"
	domainerrors "github.com/bookclubapp/bookclub-server/internal/errors"
	"github.com/bookclubapp/bookclub-server/internal/id"
	"github.com/bookclubapp/bookclub-server/internal/search"
	"github.com/bookclubapp/bookclub-server/internal/store"
)

// BookIndex is the full-text index kept alongside the store.
type BookIndex interface {
	IndexBook(book *domain.BookRecord) error
	DeleteBook(id string) error
	DeleteOwner(ctx context.Context, ownerID string) (int, error)
	Search(ctx context.Context, params search.SearchParams) (*search.SearchResult, error)
	Rebuild(books []*domain.BookRecord) error
}

// CoverHasher computes placeholders for thumbnails.
type CoverHasher interface {
	BlurHash(ctx context.Context, url string) (string, error)
}

// coverTimeout bounds a single background placeholder computation.
const coverTimeout = 30 * time.Second

// LibraryService manages a reader's shelf of tracked books.
type LibraryService struct {
	store  store.Store
	index  BookIndex
	covers CoverHasher
	logger *slog.Logger
	now    func() time.Time

	background sync.WaitGroup
}

// NewLibraryService creates a library service. index and covers may be nil.
func NewLibraryService(store store.Store, index BookIndex, covers CoverHasher, logger *slog.Logger) *LibraryService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &LibraryService{
		store:  store,
		index:  index,
		covers: covers,
		logger: logger,
		now:    time.Now,
	}
}

// AddBookRequest carries the catalog entry a reader picked plus their starting status.
type AddBookRequest struct {
	CatalogID     string       `json:"catalog_id,omitempty" validate:"max=64"`
	Title         string       `json:"title" validate:"required,max=500"`
	Authors       string       `json:"authors,omitempty" validate:"max=1000"`
	PublishedDate string       `json:"published_date,omitempty" validate:"max=32"`
	Thumbnail     string       `json:"thumbnail,omitempty" validate:"omitempty,http_url,max=2048"`
	Description   string       `json:"description,omitempty" validate:"max=20000"`
	Status        string       `json:"status,omitempty"`
	Review        *ReviewInput `json:"review,omitempty"`
}

// UpdateBookRequest is a partial metadata update. Nil fields are untouched.
type UpdateBookRequest struct {
	Title         *string `json:"title,omitempty" validate:"omitempty,min=1,max=500"`
	Authors       *string `json:"authors,omitempty" validate:"omitempty,max=1000"`
	PublishedDate *string `json:"published_date,omitempty" validate:"omitempty,max=32"`
	Thumbnail     *string `json:"thumbnail,omitempty" validate:"omitempty,http_url,max=2048"`
	Description   *string `json:"description,omitempty" validate:"omitempty,max=20000"`
}

// ListBooksParams selects a filtered page of the shelf.
type ListBooksParams struct {
	Status  string
	Page    int
	PerPage int
}

// AddBook creates a record from a catalog entry. The lifecycle runs from the
// empty record, so adding as reading or finished stamps the matching date.
func (s *LibraryService) AddBook(ctx context.Context, ownerID string, req AddBookRequest) (*domain.BookRecord, error) {
	if err := requireOwner(ctx, ownerID); err != nil {
		return nil, err
	}
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "library.add_book", trace.WithAttributes(attribute.String("owner.id", ownerID)))
	defer span.End()

	status := domain.StatusWantToRead
	if req.Status != "" {
		parsed, err := domain.ParseBookStatus(req.Status)
		if err != nil {
			return nil, err
		}
		status = parsed
	}

	var review *domain.Review
	if req.Review != nil {
		built, err := req.Review.Build()
		if err != nil {
			return nil, err
		}
		review = built
	}

	bookID, err := id.Generate(id.PrefixBook)
	if err != nil {
		return nil, fmt.Errorf("generate book ID: %w", err)
	}

	rec, err := domain.NewBookRecord(bookID, ownerID, status, s.now())
	if err != nil {
		return nil, err
	}
	rec.CatalogID = req.CatalogID
	rec.Title = strings.TrimSpace(req.Title)
	rec.Authors = orDefault(req.Authors, catalog.UnknownAuthor)
	rec.PublishedDate = orDefault(req.PublishedDate, catalog.UnknownDate)
	rec.Thumbnail = req.Thumbnail
	rec.Description = req.Description
	rec.Review = review

	if err := s.store.CreateBook(ctx, &rec); err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}
	span.SetAttributes(attribute.String("book.id", rec.ID))

	s.indexBook(&rec)
	s.scheduleCover(rec.ID, rec.Thumbnail)

	s.logger.Info("book added", "book_id", rec.ID, "owner_id", ownerID, "status", rec.Status)
	return &rec, nil
}

// GetBook returns one of the owner's books.
func (s *LibraryService) GetBook(ctx context.Context, ownerID, bookID string) (*domain.BookRecord, error) {
	if err := requireOwner(ctx, ownerID); err != nil {
		return nil, err
	}
	return loadOwnedBook(ctx, s.store, ownerID, bookID)
}

// ListBooks returns a page of the owner's books, newest first.
func (s *LibraryService) ListBooks(ctx context.Context, ownerID string, params ListBooksParams) (*store.Page[*domain.BookRecord], error) {
	if err := requireOwner(ctx, ownerID); err != nil {
		return nil, err
	}

	var filter store.BookFilter
	if params.Status != "" {
		status, err := domain.ParseBookStatus(params.Status)
		if err != nil {
			return nil, err
		}
		filter.Status = status
	}

	page, err := s.store.ListBooksByOwner(ctx, ownerID, filter, store.PageParams{Page: params.Page, PerPage: params.PerPage})
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return page, nil
}

// UpdateBook applies a partial metadata update.
func (s *LibraryService) UpdateBook(ctx context.Context, ownerID, bookID string, req UpdateBookRequest) (*domain.BookRecord, error) {
	if err := requireOwner(ctx, ownerID); err != nil {
		return nil, err
	}
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	book, err := loadOwnedBook(ctx, s.store, ownerID, bookID)
	if err != nil {
		return nil, err
	}

	patch := store.BookPatch{
		Title:         req.Title,
		Authors:       req.Authors,
		PublishedDate: req.PublishedDate,
		Thumbnail:     req.Thumbnail,
		Description:   req.Description,
		UpdatedAt:     s.now(),
	}
	if err := s.store.UpdateBook(ctx, bookID, patch); err != nil {
		return nil, fmt.Errorf("update book: %w", notFoundAs(err, "book not found"))
	}

	updated, err := loadOwnedBook(ctx, s.store, ownerID, bookID)
	if err != nil {
		return nil, err
	}
	s.indexBook(updated)
	if req.Thumbnail != nil && *req.Thumbnail != book.Thumbnail {
		s.scheduleCover(bookID, *req.Thumbnail)
	}

	s.logger.Info("book updated", "book_id", bookID, "owner_id", ownerID)
	return updated, nil
}

// ChangeStatus moves a book through the reading lifecycle.
func (s *LibraryService) ChangeStatus(ctx context.Context, ownerID, bookID, status string) (*domain.BookRecord, error) {
	if err := requireOwner(ctx, ownerID); err != nil {
		return nil, err
	}
	next, err := domain.ParseBookStatus(status)
	if err != nil {
		return nil, err
	}

	book, err := loadOwnedBook(ctx, s.store, ownerID, bookID)
	if err != nil {
		return nil, err
	}

	updated, err := domain.ApplyStatusChange(*book, next, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateBook(ctx, bookID, store.StatusPatch(updated)); err != nil {
		return nil, fmt.Errorf("update status: %w", notFoundAs(err, "book not found"))
	}
	s.indexBook(&updated)

	s.logger.Info("book status changed", "book_id", bookID, "owner_id", ownerID, "from", book.Status, "to", next)
	return &updated, nil
}

// DeleteBook removes a book and its index entry.
func (s *LibraryService) DeleteBook(ctx context.Context, ownerID, bookID string) error {
	if err := requireOwner(ctx, ownerID); err != nil {
		return err
	}
	if _, err := loadOwnedBook(ctx, s.store, ownerID, bookID); err != nil {
		return err
	}

	if err := s.store.DeleteBook(ctx, bookID); err != nil {
		return fmt.Errorf("delete book: %w", notFoundAs(err, "book not found"))
	}
	if s.index != nil {
		if err := s.index.DeleteBook(bookID); err != nil {
			s.logger.Warn("failed to remove book from index", "book_id", bookID, "error", err)
		}
	}

	s.logger.Info("book deleted", "book_id", bookID, "owner_id", ownerID)
	return nil
}

// Search runs a full-text query over the owner's books.
func (s *LibraryService) Search(ctx context.Context, ownerID, query string, limit int) (*search.SearchResult, error) {
	if err := requireOwner(ctx, ownerID); err != nil {
		return nil, err
	}
	if s.index == nil {
		return nil, domainerrors.Internal("library search is unavailable")
	}

	params := search.DefaultSearchParams()
	params.OwnerID = ownerID
	params.Query = query
	if limit > 0 {
		params.Limit = min(limit, store.MaxPerPage)
	}
	if strings.TrimSpace(query) == "" {
		params.SortBy = search.SortTitle
	}

	result, err := s.index.Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("search library: %w", err)
	}
	return result, nil
}

// RebuildIndex repopulates the search index from the store.
func (s *LibraryService) RebuildIndex(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, nil
	}
	books, err := s.store.ListAllBooks(ctx)
	if err != nil {
		return 0, fmt.Errorf("list books: %w", err)
	}
	if err := s.index.Rebuild(books); err != nil {
		return 0, fmt.Errorf("rebuild index: %w", err)
	}
	return len(books), nil
}

// Wait blocks until background cover work has finished.
func (s *LibraryService) Wait() {
	s.background.Wait()
}

func (s *LibraryService) indexBook(book *domain.BookRecord) {
	if s.index == nil {
		return
	}
	if err := s.index.IndexBook(book); err != nil {
		s.logger.Warn("failed to index book", "book_id", book.ID, "error", err)
	}
}

// scheduleCover computes the thumbnail placeholder off the request path.
func (s *LibraryService) scheduleCover(bookID, thumbnail string) {
	if s.covers == nil || thumbnail == "" {
		return
	}
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		ctx, cancel := context.WithTimeout(context.Background(), coverTimeout)
		defer cancel()

		hash, err := s.covers.BlurHash(ctx, thumbnail)
		if err != nil {
			s.logger.Warn("cover placeholder failed", "book_id", bookID, "error", err)
			return
		}
		err = s.store.UpdateBook(ctx, bookID, store.BookPatch{CoverBlurHash: &hash, SkipTouch: true})
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("failed to save cover placeholder", "book_id", bookID, "error", err)
		}
	}()
}

func orDefault(s, fallback string) string {
	if s = strings.TrimSpace(s); s == "" {
		return fallback
	}
	return s
}
