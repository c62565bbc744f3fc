// Package catalog searches the public book catalog.
package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Placeholders used when the catalog omits a field.
const (
	UnknownAuthor = "Unknown"
	UnknownDate   = "N/A"
)

// Entry is one candidate book returned by a catalog search.
type Entry struct {
	CatalogID     string `json:"catalog_id"`
	Title         string `json:"title"`
	Authors       string `json:"authors"`
	PublishedDate string `json:"published_date"`
	Year          string `json:"year,omitempty"`
	Thumbnail     string `json:"thumbnail,omitempty"`
	Description   string `json:"description,omitempty"`
	Language      string `json:"language,omitempty"`
}

// PublishedYear extracts the leading four-digit year from a free-text date,
// or "" when the date does not start with one.
func PublishedYear(date string) string {
	if len(date) < 4 {
		return ""
	}
	for _, r := range date[:4] {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return date[:4]
}

// NormalizeQuery folds a query for cache lookups: compatibility-normalized,
// lowercased, with runs of whitespace collapsed.
func NormalizeQuery(q string) string {
	q = norm.NFKC.String(q)
	return strings.Join(strings.FieldsFunc(strings.ToLower(q), unicode.IsSpace), " ")
}
