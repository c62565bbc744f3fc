package domain

import (
	"strings"
	"time"

	"github.com/bookclubapp/bookclub-server/internal/errors"
)

// BookStatus is where a reader is with a tracked book.
type BookStatus string

const (
	StatusWantToRead BookStatus = "want-to-read"
	StatusReading    BookStatus = "reading"
	StatusFinished   BookStatus = "finished"
)

// BookStatuses lists the valid statuses in shelf order.
var BookStatuses = []BookStatus{StatusWantToRead, StatusReading, StatusFinished}

// Valid reports whether s is one of the known statuses.
func (s BookStatus) Valid() bool {
	switch s {
	case StatusWantToRead, StatusReading, StatusFinished:
		return true
	}
	return false
}

// ParseBookStatus converts a raw string into a BookStatus.
func ParseBookStatus(s string) (BookStatus, error) {
	status := BookStatus(s)
	if !status.Valid() {
		return "", errors.InvalidStatus("unknown status %q: want one of want-to-read, reading, finished", s)
	}
	return status, nil
}

// BookRecord is one book on a reader's shelf.
type BookRecord struct {
	ID            string     `json:"id"`
	OwnerID       string     `json:"owner_id"`
	CatalogID     string     `json:"catalog_id,omitempty"`
	Title         string     `json:"title"`
	Authors       string     `json:"authors"`
	PublishedDate string     `json:"published_date"`
	Thumbnail     string     `json:"thumbnail,omitempty"`
	Description   string     `json:"description,omitempty"`
	Status        BookStatus `json:"status"`
	StartDate     *time.Time `json:"start_date,omitempty"`
	CompletedDate *time.Time `json:"completed_date,omitempty"`
	Review        *Review    `json:"review,omitempty"`
	CoverBlurHash string     `json:"cover_blur_hash,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// NewBookRecord starts a record in the given status. The lifecycle runs from
// an empty status, so starting in reading or finished stamps the matching date.
func NewBookRecord(id, ownerID string, status BookStatus, now time.Time) (BookRecord, error) {
	if err := RequireOwner(ownerID); err != nil {
		return BookRecord{}, err
	}
	rec := BookRecord{ID: id, OwnerID: ownerID, CreatedAt: now}
	return ApplyStatusChange(rec, status, now)
}

// ApplyStatusChange returns a copy of rec moved to next.
//
// Entering reading from any other status sets StartDate; staying in reading
// keeps the original StartDate. Entering finished always refreshes
// CompletedDate. UpdatedAt is set to now on every successful change.
func ApplyStatusChange(rec BookRecord, next BookStatus, now time.Time) (BookRecord, error) {
	if !next.Valid() {
		return rec, errors.InvalidStatus("unknown status %q", next)
	}

	switch next {
	case StatusReading:
		if rec.Status != StatusReading {
			t := now
			rec.StartDate = &t
		}
	case StatusFinished:
		t := now
		rec.CompletedDate = &t
	}

	rec.Status = next
	rec.UpdatedAt = now
	return rec, nil
}

// OwnedBy reports whether ownerID owns the record.
func (b *BookRecord) OwnedBy(ownerID string) bool {
	return ownerID != "" && b.OwnerID == ownerID
}

// HasReview reports whether a rating or review has been saved.
func (b *BookRecord) HasReview() bool {
	return b.Review != nil
}

// AuthorList splits the free-text authors field on commas.
func (b *BookRecord) AuthorList() []string {
	parts := strings.Split(b.Authors, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// RequireOwner fails with NotAuthenticated when no owner is present.
func RequireOwner(ownerID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return errors.NotAuthenticated("sign in to manage your books")
	}
	return nil
}
