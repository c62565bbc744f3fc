package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Cache is a Badger-backed key/value cache for catalog lookups and cover hashes.
// Entries expire both through Badger TTLs and an explicit FetchedAt check.
type Cache struct {
	db     *badger.DB
	logger *slog.Logger
	ttl    time.Duration
}

// OpenCache opens (or creates) a cache at path.
func OpenCache(path string, ttl time.Duration, logger *slog.Logger) (*Cache, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	opts.SyncWrites = false // losing recent cache writes on crash is harmless
	opts.CompactL0OnClose = true
	return openCache(opts, ttl, logger, path)
}

// OpenInMemoryCache opens a cache that lives only in memory. Used in tests.
func OpenInMemoryCache(ttl time.Duration, logger *slog.Logger) (*Cache, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return openCache(opts, ttl, logger, ":memory:")
}

func openCache(opts badger.Options, ttl time.Duration, logger *slog.Logger, path string) (*Cache, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger.Info("catalog cache opened", "path", path, "ttl", ttl)
	return &Cache{db: db, logger: logger, ttl: ttl}, nil
}

// TTL returns how long entries stay fresh.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Close flushes and closes the cache.
func (c *Cache) Close() error {
	return c.db.Close()
}

// CollectGarbage reclaims space from expired entries. Safe to call periodically.
func (c *Cache) CollectGarbage() {
	for {
		if err := c.db.RunValueLogGC(0.5); err != nil {
			if !errors.Is(err, badger.ErrNoRewrite) && !errors.Is(err, badger.ErrRejected) {
				c.logger.Warn("cache garbage collection failed", "error", err)
			}
			return
		}
	}
}

// get decodes the value at key into dest. Missing keys return badger.ErrKeyNotFound.
func (c *Cache) get(key []byte, dest any) error {
	return c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, dest)
		})
	})
}

// set stores value at key with the cache TTL.
func (c *Cache) set(key []byte, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(key, data)
		if c.ttl > 0 {
			entry = entry.WithTTL(c.ttl)
		}
		return txn.SetEntry(entry)
	})
}

// delete removes key. Missing keys are not an error.
func (c *Cache) delete(key []byte) error {
	return c.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

func (c *Cache) expired(fetchedAt time.Time) bool {
	return c.ttl > 0 && time.Since(fetchedAt) > c.ttl
}
