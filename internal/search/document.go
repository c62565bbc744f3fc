// Package search provides full-text search over each reader's library using Bleve.
// Every document carries its owner so queries never cross libraries.
package search

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/bookclubapp/bookclub-server/internal/catalog"
	"github.com/bookclubapp/bookclub-server/internal/domain"
)

// BookDocument is the indexed form of a BookRecord.
type BookDocument struct {
	ID          string  `json:"id"`
	OwnerID     string  `json:"owner_id"`
	Title       string  `json:"title"`
	TitleSort   string  `json:"title_sort"`
	Authors     string  `json:"authors"`
	Description string  `json:"description,omitempty"`
	ReviewText  string  `json:"review_text,omitempty"`
	Status      string  `json:"status"`
	PublishYear int     `json:"publish_year,omitempty"`
	Overall     float64 `json:"overall,omitempty"`
	CreatedAt   int64   `json:"created_at"` // Unix millis
	UpdatedAt   int64   `json:"updated_at"` // Unix millis
}

// NewBookDocument builds the search document for a record.
func NewBookDocument(b *domain.BookRecord) *BookDocument {
	doc := &BookDocument{
		ID:          b.ID,
		OwnerID:     b.OwnerID,
		Title:       b.Title,
		TitleSort:   SortKey(b.Title),
		Authors:     b.Authors,
		Description: b.Description,
		Status:      string(b.Status),
		CreatedAt:   b.CreatedAt.UnixMilli(),
		UpdatedAt:   b.UpdatedAt.UnixMilli(),
	}
	if year, err := strconv.Atoi(catalog.PublishedYear(b.PublishedDate)); err == nil {
		doc.PublishYear = year
	}
	if b.Review != nil {
		doc.ReviewText = b.Review.Text
		doc.Overall = b.Review.Overall
	}
	return doc
}

// ToMap converts the document to a map keyed by the mapping's field names.
func (d *BookDocument) ToMap() map[string]any {
	m := map[string]any{
		"id":         d.ID,
		"owner_id":   d.OwnerID,
		"title":      d.Title,
		"title_sort": d.TitleSort,
		"authors":    d.Authors,
		"status":     d.Status,
		"created_at": d.CreatedAt,
		"updated_at": d.UpdatedAt,
	}
	if d.Description != "" {
		m["description"] = d.Description
	}
	if d.ReviewText != "" {
		m["review_text"] = d.ReviewText
	}
	if d.PublishYear > 0 {
		m["publish_year"] = d.PublishYear
	}
	if d.Overall > 0 {
		m["overall"] = d.Overall
	}
	return m
}

var stripMarks = runes.Remove(runes.In(unicode.Mn))

// SortKey folds a title for ordering: accents removed, lowercased,
// leading English articles dropped.
func SortKey(title string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, stripMarks, norm.NFC), title)
	if err != nil {
		folded = title
	}
	key := strings.ToLower(strings.TrimSpace(folded))
	for _, article := range []string{"the ", "a ", "an "} {
		if rest, ok := strings.CutPrefix(key, article); ok {
			key = strings.TrimSpace(rest)
			break
		}
	}
	return key
}
