package smarttext

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"
)

type combined struct {
	budget    time.Duration
	detectors []Detector
}

// Combine returns a Detector that runs detectors concurrently and merges
// their matches into one sorted, non-overlapping list. A detector that
// fails, or misses the budget, is logged, contributes nothing and marks
// the call degraded (see MarkDegraded). Overlaps go to the match that
// starts first; among matches starting at the same offset the longer one
// wins, then the detector listed first. budget <= 0 means no limit beyond
// the caller's context.
func Combine(budget time.Duration, detectors ...Detector) Detector {
	if len(detectors) == 1 {
		return detectors[0]
	}
	return &combined{budget: budget, detectors: detectors}
}

func (c *combined) Detect(ctx context.Context, text string) ([]Match, error) {
	if len(c.detectors) == 0 {
		return nil, nil
	}

	runCtx := ctx
	if c.budget > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.budget)
		defer cancel()
	}

	type result struct {
		idx     int
		matches []Match
	}
	ch := make(chan result, len(c.detectors))

	var g errgroup.Group
	for i, d := range c.detectors {
		g.Go(func() error {
			matches, err := d.Detect(runCtx, text)
			if err != nil {
				slog.Warn("smarttext: detector error", "detector", i, "err", err)
				MarkDegraded(ctx)
				matches = nil
			}
			ch <- result{idx: i, matches: matches}
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(ch)
	}()

	collected := make([][]Match, len(c.detectors))
	for {
		select {
		case r, ok := <-ch:
			if !ok {
				return ResolveOverlaps(flatten(collected)), nil
			}
			collected[r.idx] = r.matches
		case <-runCtx.Done():
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			slog.Warn("smarttext: detector budget exceeded, using partial results", "budget", c.budget)
			MarkDegraded(ctx)
			return ResolveOverlaps(flatten(collected)), nil
		}
	}
}

// flatten concatenates per-detector results in detector order.
func flatten(perDetector [][]Match) []Match {
	var all []Match
	for _, ms := range perDetector {
		all = append(all, ms...)
	}
	return all
}

// ResolveOverlaps sorts matches by Start and drops every match that overlaps
// an earlier kept one. Among matches starting at the same offset the longer
// one wins, then the one listed first. Empty, inverted and negative matches
// are dropped with a warning.
func ResolveOverlaps(matches []Match) []Match {
	all := make([]Match, 0, len(matches))
	for _, m := range matches {
		if m.Start < 0 || m.End <= m.Start {
			slog.Warn("smarttext: dropping malformed match", "start", m.Start, "end", m.End)
			continue
		}
		all = append(all, m)
	}
	if len(all) == 0 {
		return nil
	}

	slices.SortStableFunc(all, func(a, b Match) int {
		if c := cmp.Compare(a.Start, b.Start); c != 0 {
			return c
		}
		return cmp.Compare(b.End-b.Start, a.End-a.Start)
	})

	out := make([]Match, 0, len(all))
	maxEnd := 0
	for _, m := range all {
		if m.Start >= maxEnd {
			out = append(out, m)
			maxEnd = m.End
		}
	}
	return out
}
