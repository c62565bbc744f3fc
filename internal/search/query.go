package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// ErrOwnerRequired is returned when a search does not name an owner.
var ErrOwnerRequired = errors.New("search: owner id required")

// Sort orders for SearchParams.SortBy.
const (
	SortRelevance = "relevance"
	SortTitle     = "title"
	SortRecent    = "recent"
	SortRating    = "rating"
)

// SearchParams configures a library search.
type SearchParams struct {
	OwnerID string // Required; results never cross owners
	Query   string // Free text; empty matches every book of the owner
	Status  string // Optional exact status filter

	Limit  int
	Offset int

	SortBy    string // relevance, title, recent, rating
	Highlight bool
}

// DefaultSearchParams returns sensible defaults.
func DefaultSearchParams() SearchParams {
	return SearchParams{
		Limit:     20,
		SortBy:    SortRelevance,
		Highlight: true,
	}
}

// SearchResult represents the search results.
type SearchResult struct {
	Query  string       `json:"query"`
	Total  uint64       `json:"total"`
	TookMs int64        `json:"took_ms"`
	Hits   []SearchHit  `json:"hits"`
	Facets []FacetCount `json:"status_facets,omitempty"`
}

// SearchHit represents a single matching book.
type SearchHit struct {
	ID         string            `json:"id"`
	Score      float64           `json:"score"`
	Title      string            `json:"title"`
	Authors    string            `json:"authors"`
	Status     string            `json:"status"`
	Overall    float64           `json:"overall,omitempty"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// FacetCount represents a facet value and its count.
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Search executes a query against one owner's books.
func (s *Index) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	if params.OwnerID == "" {
		return nil, ErrOwnerRequired
	}
	if params.Limit <= 0 {
		params.Limit = DefaultSearchParams().Limit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(buildSearchQuery(params), params.Limit, params.Offset, false)
	addSorting(req, params)
	req.AddFacet("status", bleve.NewFacetRequest("status", 3))

	if params.Highlight {
		req.Highlight = bleve.NewHighlight()
		req.Highlight.AddField("title")
		req.Highlight.AddField("authors")
	}
	req.Fields = []string{"title", "authors", "status", "overall"}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &SearchResult{
		Query:  params.Query,
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Hits:   make([]SearchHit, 0, len(res.Hits)),
	}

	for _, hit := range res.Hits {
		h := SearchHit{ID: hit.ID, Score: hit.Score}
		if v, ok := hit.Fields["title"].(string); ok {
			h.Title = v
		}
		if v, ok := hit.Fields["authors"].(string); ok {
			h.Authors = v
		}
		if v, ok := hit.Fields["status"].(string); ok {
			h.Status = v
		}
		if v, ok := hit.Fields["overall"].(float64); ok {
			h.Overall = v
		}
		if len(hit.Fragments) > 0 {
			h.Highlights = make(map[string]string)
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					h.Highlights[field] = fragments[0]
				}
			}
		}
		result.Hits = append(result.Hits, h)
	}

	if facet, ok := res.Facets["status"]; ok && facet.Terms != nil {
		for _, term := range facet.Terms.Terms() {
			result.Facets = append(result.Facets, FacetCount{Value: term.Term, Count: term.Count})
		}
	}

	return result, nil
}

// buildSearchQuery constructs the Bleve query from params.
// The owner filter is always present.
func buildSearchQuery(params SearchParams) query.Query {
	owner := bleve.NewTermQuery(params.OwnerID)
	owner.SetField("owner_id")
	queries := []query.Query{owner}

	if q := strings.TrimSpace(params.Query); q != "" {
		titleMatch := bleve.NewMatchQuery(q)
		titleMatch.SetField("title")
		titleMatch.SetBoost(3.0)

		authorMatch := bleve.NewMatchQuery(q)
		authorMatch.SetField("authors")
		authorMatch.SetBoost(2.0)

		reviewMatch := bleve.NewMatchQuery(q)
		reviewMatch.SetField("review_text")

		descMatch := bleve.NewMatchQuery(q)
		descMatch.SetField("description")
		descMatch.SetBoost(0.5)

		fuzzy := bleve.NewFuzzyQuery(strings.ToLower(q))
		fuzzy.SetFuzziness(1)
		fuzzy.SetField("title")
		fuzzy.SetBoost(0.8)

		text := []query.Query{titleMatch, authorMatch, reviewMatch, descMatch, fuzzy}

		// Prefix query for type-ahead (minimum 2 chars)
		if len(q) >= 2 {
			prefix := bleve.NewPrefixQuery(strings.ToLower(q))
			prefix.SetField("title")
			prefix.SetBoost(0.5)
			text = append(text, prefix)
		}
		queries = append(queries, bleve.NewDisjunctionQuery(text...))
	}

	if params.Status != "" {
		status := bleve.NewTermQuery(params.Status)
		status.SetField("status")
		queries = append(queries, status)
	}

	return bleve.NewConjunctionQuery(queries...)
}

// addSorting configures sort order.
func addSorting(req *bleve.SearchRequest, params SearchParams) {
	switch params.SortBy {
	case SortTitle:
		req.SortBy([]string{"title_sort"})
	case SortRecent:
		req.SortBy([]string{"-created_at"})
	case SortRating:
		req.SortBy([]string{"-overall", "title_sort"})
	default:
		req.SortBy([]string{"-_score"})
	}
}
