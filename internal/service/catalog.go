package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/bookclubapp/bookclub-server/internal/catalog"
	"github.com/bookclubapp/bookclub-server/internal/store"
)

// SearchCache stores complete catalog result sets by query.
type SearchCache interface {
	GetCachedSearch(ctx context.Context, query string) (*store.CachedSearch, error)
	SetCachedSearch(ctx context.Context, query string, results []catalog.Entry) error
}

// CatalogService fronts the public book catalog with a result cache.
type CatalogService struct {
	searcher catalog.Searcher
	cache    SearchCache
	logger   *slog.Logger
}

// NewCatalogService creates a catalog service. cache may be nil.
func NewCatalogService(searcher catalog.Searcher, cache SearchCache, logger *slog.Logger) *CatalogService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &CatalogService{searcher: searcher, cache: cache, logger: logger}
}

// Search returns a lazy, single-use sequence of catalog entries for query.
// Cached result sets are replayed without calling upstream. An upstream
// sequence is cached only when it was read to the end without error.
func (s *CatalogService) Search(ctx context.Context, query string) *catalog.Results {
	if strings.TrimSpace(query) == "" {
		return catalog.Empty()
	}

	if s.cache != nil {
		cached, err := s.cache.GetCachedSearch(ctx, query)
		if err != nil {
			s.logger.Warn("catalog cache read failed", "error", err)
		}
		if cached != nil {
			s.logger.Debug("catalog cache hit", "query", cached.Query, "results", len(cached.Results))
			return catalog.FromEntries(cached.Results)
		}
	}

	return catalog.NewResults(ctx, func(ctx context.Context, yield func(catalog.Entry) bool) error {
		upstream := s.searcher.Search(ctx, query)

		var seen []catalog.Entry
		complete := true
		for entry := range upstream.All() {
			seen = append(seen, entry)
			if !yield(entry) {
				complete = false
				break
			}
		}
		if err := upstream.Err(); err != nil {
			return err
		}

		if complete && s.cache != nil {
			if err := s.cache.SetCachedSearch(ctx, query, seen); err != nil {
				s.logger.Warn("catalog cache write failed", "error", err)
			}
		}
		return nil
	})
}
