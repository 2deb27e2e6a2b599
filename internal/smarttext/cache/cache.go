// Package cache memoizes a Detector. Remote detectors (NER sidecar, LLM)
// are slow and the same snippets tend to be classified over and over, e.g.
// when a chat UI re-renders its history.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common/lru"
	"golang.org/x/crypto/blake2b"

	"github.com/gonkalabs/smarttext-go/internal/smarttext"
)

// Detector wraps another Detector with a fixed-size LRU keyed by the
// BLAKE2b-256 digest of the text. Errors and degraded results (see
// smarttext.MarkDegraded) are never cached.
type Detector struct {
	inner   smarttext.Detector
	entries *lru.Cache[[blake2b.Size256]byte, []smarttext.Match]

	hits   atomic.Uint64
	misses atomic.Uint64
}

// Stats is a snapshot of cache effectiveness.
type Stats struct {
	Hits   uint64
	Misses uint64
	Len    int
}

// New wraps inner with a cache holding up to size texts.
func New(inner smarttext.Detector, size int) (*Detector, error) {
	if size <= 0 {
		return nil, fmt.Errorf("cache: size must be positive, got %d", size)
	}
	return &Detector{
		inner:   inner,
		entries: lru.NewCache[[blake2b.Size256]byte, []smarttext.Match](size),
	}, nil
}

// Detect returns cached matches for text, calling the inner detector on a
// miss. The returned slice is a copy and may be modified by the caller.
func (d *Detector) Detect(ctx context.Context, text string) ([]smarttext.Match, error) {
	key := blake2b.Sum256([]byte(text))
	if matches, ok := d.entries.Get(key); ok {
		d.hits.Add(1)
		return clone(matches), nil
	}
	d.misses.Add(1)

	ctx, degraded := smarttext.WatchDegraded(ctx)
	matches, err := d.inner.Detect(ctx, text)
	if err != nil {
		return nil, err
	}
	if degraded() {
		slog.Debug("cache: not storing degraded result", "text_len", len(text))
		return matches, nil
	}
	d.entries.Add(key, clone(matches))
	return matches, nil
}

// Stats reports hits, misses and the current number of entries.
func (d *Detector) Stats() Stats {
	return Stats{
		Hits:   d.hits.Load(),
		Misses: d.misses.Load(),
		Len:    d.entries.Len(),
	}
}

func clone(matches []smarttext.Match) []smarttext.Match {
	if matches == nil {
		return nil
	}
	out := make([]smarttext.Match, len(matches))
	copy(out, matches)
	return out
}
