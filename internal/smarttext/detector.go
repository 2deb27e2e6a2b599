package smarttext

import (
	"context"
	"sync/atomic"
)

// Detector finds entities in a text string. Implementations return matches
// sorted by Start without overlaps, with rune offsets into the text they
// were given, and must be safe for concurrent use.
type Detector interface {
	Detect(ctx context.Context, text string) ([]Match, error)
}

// DetectorFunc adapts a function to the Detector interface.
type DetectorFunc func(ctx context.Context, text string) ([]Match, error)

// Detect calls f(ctx, text).
func (f DetectorFunc) Detect(ctx context.Context, text string) ([]Match, error) {
	return f(ctx, text)
}

type degradedKey struct{}

type degradedFlag struct {
	set    atomic.Bool
	parent *degradedFlag
}

// WatchDegraded returns a context on which detectors can report degraded
// output, and a function telling whether any did. Watches nest: a report
// reaches every enclosing watch.
func WatchDegraded(ctx context.Context) (context.Context, func() bool) {
	parent, _ := ctx.Value(degradedKey{}).(*degradedFlag)
	f := &degradedFlag{parent: parent}
	return context.WithValue(ctx, degradedKey{}, f), f.set.Load
}

// MarkDegraded reports that the matches a detector returns on ctx are
// incomplete because a dependency failed or ran out of time. Such results
// are served but must not be memoized. It is a no-op without a watch.
func MarkDegraded(ctx context.Context) {
	f, _ := ctx.Value(degradedKey{}).(*degradedFlag)
	for ; f != nil; f = f.parent {
		f.set.Store(true)
	}
}
