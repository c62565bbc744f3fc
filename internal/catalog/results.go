package catalog

import (
	"context"
	"errors"
	"iter"
	"sync/atomic"
)

// ErrResultsConsumed is reported by Err when All is called a second time.
var ErrResultsConsumed = errors.New("catalog: results already consumed")

// Source produces entries by calling yield until it returns false.
// It must stop and return nil as soon as yield returns false.
type Source func(ctx context.Context, yield func(Entry) bool) error

// Searcher is the catalog search collaborator.
type Searcher interface {
	Search(ctx context.Context, query string) *Results
}

// Results is a lazy, finite, single-use sequence of catalog entries.
// Nothing is fetched until All is ranged over; a second range yields nothing.
// Check Err after ranging, in the manner of bufio.Scanner.
type Results struct {
	ctx      context.Context
	src      Source
	consumed atomic.Bool
	err      error
}

// NewResults defers src until the results are ranged over.
func NewResults(ctx context.Context, src Source) *Results {
	return &Results{ctx: ctx, src: src}
}

// FromEntries wraps an already materialized slice.
func FromEntries(entries []Entry) *Results {
	return NewResults(context.Background(), func(_ context.Context, yield func(Entry) bool) error {
		for _, e := range entries {
			if !yield(e) {
				return nil
			}
		}
		return nil
	})
}

// Empty returns a sequence with no entries.
func Empty() *Results {
	return FromEntries(nil)
}

// All returns the sequence. It may be ranged over once.
func (r *Results) All() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		if !r.consumed.CompareAndSwap(false, true) {
			r.err = ErrResultsConsumed
			return
		}
		if err := r.ctx.Err(); err != nil {
			r.err = err
			return
		}
		r.err = r.src(r.ctx, yield)
	}
}

// Err reports the first error met while producing entries.
func (r *Results) Err() error {
	return r.err
}

// Collect ranges over the results and returns them as a slice.
func (r *Results) Collect() ([]Entry, error) {
	entries := []Entry{}
	for e := range r.All() {
		entries = append(entries, e)
	}
	return entries, r.Err()
}
