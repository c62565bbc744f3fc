package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bookclubapp/bookclub-server/internal/domain"
	"github.com/bookclubapp/bookclub-server/internal/store"
)

func ptr[T any](v T) *T { return &v }

// makeTestBook builds a want-to-read record. The owner must already exist.
func makeTestBook(id, ownerID string) *domain.BookRecord {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &domain.BookRecord{
		ID:            id,
		OwnerID:       ownerID,
		CatalogID:     "cat-" + id,
		Title:         "Title " + id,
		Authors:       "Ursula K. Le Guin",
		PublishedDate: "1969-03-01",
		Thumbnail:     "https://books.example.com/" + id + ".jpg",
		Description:   "A description.",
		Status:        domain.StatusWantToRead,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestCreateAndGetBook(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ensureUser(t, s, "user-1")

	book := makeTestBook("book-1", "user-1")
	if err := s.CreateBook(ctx, book); err != nil {
		t.Fatalf("CreateBook: %v", err)
	}

	got, err := s.GetBook(ctx, "book-1")
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	if got.Title != book.Title || got.Authors != book.Authors || got.CatalogID != book.CatalogID {
		t.Errorf("book mismatch: %+v", got)
	}
	if got.Status != domain.StatusWantToRead {
		t.Errorf("Status: got %q", got.Status)
	}
	if got.StartDate != nil || got.CompletedDate != nil {
		t.Errorf("dates should be unset: %v %v", got.StartDate, got.CompletedDate)
	}
	if got.Review != nil {
		t.Errorf("Review should be nil, got %+v", got.Review)
	}
}

func TestCreateBook_UnknownOwner(t *testing.T) {
	s := newTestStore(t)
	err := s.CreateBook(context.Background(), makeTestBook("book-1", "ghost"))
	if !errors.Is(err, store.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestCreateBook_Duplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ensureUser(t, s, "user-1")

	if err := s.CreateBook(ctx, makeTestBook("book-1", "user-1")); err != nil {
		t.Fatalf("CreateBook: %v", err)
	}
	if err := s.CreateBook(ctx, makeTestBook("book-1", "user-1")); !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestUpdateBook_StatusPatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ensureUser(t, s, "user-1")

	book := makeTestBook("book-1", "user-1")
	if err := s.CreateBook(ctx, book); err != nil {
		t.Fatalf("CreateBook: %v", err)
	}

	now := book.CreatedAt.Add(time.Hour)
	next, err := domain.ApplyStatusChange(*book, domain.StatusReading, now)
	if err != nil {
		t.Fatalf("ApplyStatusChange: %v", err)
	}
	if err := s.UpdateBook(ctx, book.ID, store.StatusPatch(next)); err != nil {
		t.Fatalf("UpdateBook: %v", err)
	}

	got, err := s.GetBook(ctx, book.ID)
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	if got.Status != domain.StatusReading {
		t.Errorf("Status: got %q", got.Status)
	}
	if got.StartDate == nil || !got.StartDate.Equal(now) {
		t.Errorf("StartDate: got %v, want %v", got.StartDate, now)
	}
	if !got.UpdatedAt.Equal(now) {
		t.Errorf("UpdatedAt: got %v, want %v", got.UpdatedAt, now)
	}
	if got.Title != book.Title {
		t.Errorf("untouched Title changed: %q", got.Title)
	}
}

func TestUpdateBook_ReviewRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ensureUser(t, s, "user-1")

	book := makeTestBook("book-1", "user-1")
	if err := s.CreateBook(ctx, book); err != nil {
		t.Fatalf("CreateBook: %v", err)
	}

	ratings := domain.Ratings{
		domain.CriterionStory:       4,
		domain.CriterionPacing:      5,
		domain.CriterionOriginality: 3,
		domain.CriterionLanguage:    0,
	}
	review, err := domain.NewReview("Slow start.", domain.RatingDetailed, nil, ratings)
	if err != nil {
		t.Fatalf("NewReview: %v", err)
	}
	if err := s.UpdateBook(ctx, book.ID, store.BookPatch{Review: review}); err != nil {
		t.Fatalf("UpdateBook: %v", err)
	}

	got, err := s.GetBook(ctx, book.ID)
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	if got.Review == nil {
		t.Fatal("Review not persisted")
	}
	if got.Review.Overall != 2.4 {
		t.Errorf("Overall: got %v, want 2.4", got.Review.Overall)
	}
	if got.Review.SimpleRating != nil {
		t.Errorf("SimpleRating should be nil, got %v", *got.Review.SimpleRating)
	}
	// An explicit zero survives storage; a never-rated criterion stays absent.
	if v, ok := got.Review.Ratings[domain.CriterionLanguage]; !ok || v != 0 {
		t.Errorf("Language: got %v (present=%v), want explicit 0", v, ok)
	}
	if _, ok := got.Review.Ratings[domain.CriterionCharacters]; ok {
		t.Error("Characters should be absent")
	}

	// Switching to simple clears the detailed ratings.
	simple, err := domain.NewReview("Changed my mind.", domain.RatingSimple, ptr(4.5), ratings)
	if err != nil {
		t.Fatalf("NewReview: %v", err)
	}
	if err := s.UpdateBook(ctx, book.ID, store.BookPatch{Review: simple}); err != nil {
		t.Fatalf("UpdateBook: %v", err)
	}
	got, err = s.GetBook(ctx, book.ID)
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	if got.Review.Ratings != nil {
		t.Errorf("Ratings should be cleared, got %v", got.Review.Ratings)
	}
	if got.Review.SimpleRating == nil || *got.Review.SimpleRating != 4.5 {
		t.Errorf("SimpleRating: got %v", got.Review.SimpleRating)
	}

	if err := s.UpdateBook(ctx, book.ID, store.BookPatch{ClearReview: true}); err != nil {
		t.Fatalf("UpdateBook(clear): %v", err)
	}
	got, err = s.GetBook(ctx, book.ID)
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	if got.Review != nil {
		t.Errorf("Review should be cleared, got %+v", got.Review)
	}
}

func TestUpdateBook_NotFound(t *testing.T) {
	s := newTestStore(t)
	err := s.UpdateBook(context.Background(), "missing", store.BookPatch{Title: ptr("x")})
	if !errors.Is(err, store.ErrBookNotFound) {
		t.Errorf("expected ErrBookNotFound, got %v", err)
	}
}

func TestDeleteBook(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ensureUser(t, s, "user-1")

	if err := s.CreateBook(ctx, makeTestBook("book-1", "user-1")); err != nil {
		t.Fatalf("CreateBook: %v", err)
	}
	if err := s.DeleteBook(ctx, "book-1"); err != nil {
		t.Fatalf("DeleteBook: %v", err)
	}
	if _, err := s.GetBook(ctx, "book-1"); !errors.Is(err, store.ErrBookNotFound) {
		t.Errorf("expected ErrBookNotFound, got %v", err)
	}
	if err := s.DeleteBook(ctx, "book-1"); !errors.Is(err, store.ErrBookNotFound) {
		t.Errorf("second delete: expected ErrBookNotFound, got %v", err)
	}
}

func TestListBooksByOwner_Pagination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ensureUser(t, s, "user-1")
	ensureUser(t, s, "user-2")

	base := time.Now().UTC().Truncate(time.Millisecond)
	for i := range 23 {
		b := makeTestBook(fmt.Sprintf("book-%02d", i), "user-1")
		b.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		b.UpdatedAt = b.CreatedAt
		if err := s.CreateBook(ctx, b); err != nil {
			t.Fatalf("CreateBook: %v", err)
		}
	}
	if err := s.CreateBook(ctx, makeTestBook("foreign", "user-2")); err != nil {
		t.Fatalf("CreateBook: %v", err)
	}

	page, err := s.ListBooksByOwner(ctx, "user-1", store.BookFilter{}, store.PageParams{})
	if err != nil {
		t.Fatalf("ListBooksByOwner: %v", err)
	}
	if page.Total != 23 || page.TotalPages != 3 || page.PerPage != store.DefaultPerPage {
		t.Errorf("totals: %+v", page)
	}
	if len(page.Items) != 10 || !page.HasMore {
		t.Errorf("first page: %d items, hasMore=%v", len(page.Items), page.HasMore)
	}
	if page.Items[0].ID != "book-22" {
		t.Errorf("newest first: got %q", page.Items[0].ID)
	}

	last, err := s.ListBooksByOwner(ctx, "user-1", store.BookFilter{}, store.PageParams{Page: 3})
	if err != nil {
		t.Fatalf("ListBooksByOwner: %v", err)
	}
	if len(last.Items) != 3 || last.HasMore {
		t.Errorf("last page: %d items, hasMore=%v", len(last.Items), last.HasMore)
	}
	for _, b := range last.Items {
		if b.OwnerID != "user-1" {
			t.Errorf("foreign book leaked: %s", b.ID)
		}
	}
}

func TestListBooksByOwner_SubSecondOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ensureUser(t, s, "user-1")

	whole := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	older := makeTestBook("book-whole", "user-1")
	older.CreatedAt, older.UpdatedAt = whole, whole
	newer := makeTestBook("book-half", "user-1")
	newer.CreatedAt = whole.Add(500 * time.Millisecond)
	newer.UpdatedAt = newer.CreatedAt

	for _, b := range []*domain.BookRecord{older, newer} {
		if err := s.CreateBook(ctx, b); err != nil {
			t.Fatalf("CreateBook: %v", err)
		}
	}

	page, err := s.ListBooksByOwner(ctx, "user-1", store.BookFilter{}, store.PageParams{})
	if err != nil {
		t.Fatalf("ListBooksByOwner: %v", err)
	}
	if len(page.Items) != 2 || page.Items[0].ID != "book-half" {
		t.Fatalf("want book-half first, got %+v", page.Items)
	}
	if !page.Items[0].CreatedAt.Equal(newer.CreatedAt) {
		t.Errorf("CreatedAt round trip: got %v, want %v", page.Items[0].CreatedAt, newer.CreatedAt)
	}
}

func TestFormatTime_FixedWidth(t *testing.T) {
	a := formatTime(time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC))
	b := formatTime(time.Date(2026, 5, 4, 12, 0, 0, 500_000_000, time.UTC))
	if len(a) != len(b) {
		t.Fatalf("widths differ: %q vs %q", a, b)
	}
	if a >= b {
		t.Errorf("text order %q >= %q", a, b)
	}
}

func TestListBooksByOwner_Filters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ensureUser(t, s, "user-1")

	reading := makeTestBook("book-reading", "user-1")
	reading.Status = domain.StatusReading
	finished := makeTestBook("book-finished", "user-1")
	finished.Status = domain.StatusFinished
	review, err := domain.NewReview("", domain.RatingSimple, ptr(3.0), nil)
	if err != nil {
		t.Fatalf("NewReview: %v", err)
	}
	finished.Review = review
	queued := makeTestBook("book-queued", "user-1")

	for _, b := range []*domain.BookRecord{reading, finished, queued} {
		if err := s.CreateBook(ctx, b); err != nil {
			t.Fatalf("CreateBook(%s): %v", b.ID, err)
		}
	}

	page, err := s.ListBooksByOwner(ctx, "user-1", store.BookFilter{Status: domain.StatusReading}, store.PageParams{})
	if err != nil {
		t.Fatalf("ListBooksByOwner(status): %v", err)
	}
	if page.Total != 1 || page.Items[0].ID != "book-reading" {
		t.Errorf("status filter: %+v", page.Items)
	}

	reviewed, err := s.ListBooksByOwner(ctx, "user-1", store.BookFilter{ReviewedOnly: true}, store.PageParams{})
	if err != nil {
		t.Fatalf("ListBooksByOwner(reviewed): %v", err)
	}
	if reviewed.Total != 1 || reviewed.Items[0].ID != "book-finished" {
		t.Errorf("reviewed filter: %+v", reviewed.Items)
	}
}

func TestListBooksByOwner_Empty(t *testing.T) {
	s := newTestStore(t)
	page, err := s.ListBooksByOwner(context.Background(), "nobody", store.BookFilter{}, store.PageParams{})
	if err != nil {
		t.Fatalf("ListBooksByOwner: %v", err)
	}
	if page.Items == nil || len(page.Items) != 0 || page.Total != 0 || page.HasMore {
		t.Errorf("empty page: %+v", page)
	}
}

func TestListAllBooks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ensureUser(t, s, "user-1")
	ensureUser(t, s, "user-2")

	for _, b := range []*domain.BookRecord{makeTestBook("a", "user-1"), makeTestBook("b", "user-2")} {
		if err := s.CreateBook(ctx, b); err != nil {
			t.Fatalf("CreateBook: %v", err)
		}
	}
	all, err := s.ListAllBooks(ctx)
	if err != nil {
		t.Fatalf("ListAllBooks: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("got %d books, want 2", len(all))
	}
}

func TestUpdateBook_SkipTouch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ensureUser(t, s, "user-1")

	book := makeTestBook("book-1", "user-1")
	if err := s.CreateBook(ctx, book); err != nil {
		t.Fatalf("CreateBook: %v", err)
	}

	err := s.UpdateBook(ctx, book.ID, store.BookPatch{CoverBlurHash: ptr("LEHV6nWB2yk8"), SkipTouch: true})
	if err != nil {
		t.Fatalf("UpdateBook: %v", err)
	}

	got, err := s.GetBook(ctx, book.ID)
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	if got.CoverBlurHash != "LEHV6nWB2yk8" {
		t.Errorf("CoverBlurHash: got %q", got.CoverBlurHash)
	}
	if !got.UpdatedAt.Equal(book.UpdatedAt) {
		t.Errorf("UpdatedAt changed: got %v, want %v", got.UpdatedAt, book.UpdatedAt)
	}
}
