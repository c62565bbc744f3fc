package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/bookclubapp/bookclub-server/internal/catalog"
)

const (
	catalogSearchPrefix = "catalog:search:"
	coverHashPrefix     = "cover:blurhash:"
)

// CachedSearch wraps catalog search results with cache info.
type CachedSearch struct {
	Results   []catalog.Entry `json:"results"`
	Query     string          `json:"query"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// CachedCover records the placeholder computed for a thumbnail URL.
type CachedCover struct {
	URL       string    `json:"url"`
	BlurHash  string    `json:"blur_hash"`
	FetchedAt time.Time `json:"fetched_at"`
}

func hashedKey(prefix, s string) []byte {
	sum := sha256.Sum256([]byte(s))
	return fmt.Appendf(nil, "%s%s", prefix, hex.EncodeToString(sum[:]))
}

func searchCacheKey(query string) []byte {
	return hashedKey(catalogSearchPrefix, catalog.NormalizeQuery(query))
}

// GetCachedSearch returns cached results for query.
// Returns nil, nil if not found or expired.
func (c *Cache) GetCachedSearch(ctx context.Context, query string) (*CachedSearch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var cached CachedSearch
	err := c.get(searchCacheKey(query), &cached)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cached search: %w", err)
	}

	if c.expired(cached.FetchedAt) {
		return nil, nil
	}
	return &cached, nil
}

// SetCachedSearch stores results for query.
func (c *Cache) SetCachedSearch(ctx context.Context, query string, results []catalog.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if results == nil {
		results = []catalog.Entry{}
	}

	cached := CachedSearch{
		Results:   results,
		Query:     catalog.NormalizeQuery(query),
		FetchedAt: time.Now(),
	}
	if err := c.set(searchCacheKey(query), cached); err != nil {
		return fmt.Errorf("set cached search: %w", err)
	}
	return nil
}

// DeleteCachedSearch removes cached results for query.
func (c *Cache) DeleteCachedSearch(ctx context.Context, query string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.delete(searchCacheKey(query))
}

// GetCoverHash returns the cached placeholder for url and whether one was found.
func (c *Cache) GetCoverHash(ctx context.Context, url string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	var cached CachedCover
	err := c.get(hashedKey(coverHashPrefix, url), &cached)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get cover hash: %w", err)
	}
	if c.expired(cached.FetchedAt) {
		return "", false, nil
	}
	return cached.BlurHash, true, nil
}

// SetCoverHash stores the placeholder for url.
func (c *Cache) SetCoverHash(ctx context.Context, url, blurHash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cached := CachedCover{URL: url, BlurHash: blurHash, FetchedAt: time.Now()}
	if err := c.set(hashedKey(coverHashPrefix, url), cached); err != nil {
		return fmt.Errorf("set cover hash: %w", err)
	}
	return nil
}
