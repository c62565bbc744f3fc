package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bookclubapp/bookclub-server/internal/catalog"
)

func (s *Server) registerCatalogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchCatalog",
		Method:      http.MethodGet,
		Path:        "/api/v1/catalog/search",
		Summary:     "Search catalog",
		Description: "Searches the public book catalog. Results are in provider relevance order and may contain duplicates.",
		Tags:        []string{"Catalog"},
		Security:    bearerSecurity,
	}, s.handleSearchCatalog)
}

// === DTOs ===

// CatalogSearchInput contains parameters for a catalog search.
type CatalogSearchInput struct {
	Query string `query:"q" doc:"Free-text query"`
	Limit int    `query:"limit" default:"20" minimum:"1" maximum:"40" doc:"Maximum entries"`
}

// CatalogSearchResponse lists catalog candidates.
type CatalogSearchResponse struct {
	Query   string          `json:"query" doc:"The query as received"`
	Results []catalog.Entry `json:"results" doc:"Candidate books"`
}

// CatalogSearchOutput wraps catalog results for Huma.
type CatalogSearchOutput struct {
	Body CatalogSearchResponse
}

// === Handlers ===

func (s *Server) handleSearchCatalog(ctx context.Context, input *CatalogSearchInput) (*CatalogSearchOutput, error) {
	if _, err := GetUserID(ctx); err != nil {
		return nil, err
	}

	results := s.services.Catalog.Search(ctx, input.Query)
	entries := make([]catalog.Entry, 0, input.Limit)
	for entry := range results.All() {
		entries = append(entries, entry)
		if len(entries) >= input.Limit {
			break
		}
	}
	if err := results.Err(); err != nil {
		return nil, err
	}

	return &CatalogSearchOutput{Body: CatalogSearchResponse{Query: input.Query, Results: entries}}, nil
}
