package smarttext

import "log/slog"

type assembleOptions struct {
	echoUnmatched bool
}

// AssembleOption configures Assemble.
type AssembleOption func(*assembleOptions)

// EchoUnmatched makes Assemble return the whole text as a single Text span
// when there are no matches. Without it, non-empty text with no matches
// yields no spans at all, which existing callers depend on.
func EchoUnmatched() AssembleOption {
	return func(o *assembleOptions) { o.echoUnmatched = true }
}

// Assemble partitions text into spans using matches, filling the gaps
// between and around them with Text spans. Matches must be sorted by Start
// and must not overlap; offsets are runes.
//
// Malformed matches (out of range, inverted, overlapping the previous one,
// or of an unknown category) are dropped with a warning instead of failing
// the whole call. Assemble never returns nil.
func Assemble(text string, matches []Match, opts ...AssembleOption) []Span {
	var o assembleOptions
	for _, opt := range opts {
		opt(&o)
	}

	if len(matches) == 0 {
		if text == "" || o.echoUnmatched {
			return []Span{textSpan(text)}
		}
		return []Span{}
	}

	idx := newOffsetIndex(text, UnitRune)
	n := idx.length()
	spans := make([]Span, 0, 2*len(matches)+1)

	previousEnd := 0
	for _, m := range matches {
		switch {
		case previousEnd < m.Start:
			if gap, ok := idx.slice(text, previousEnd, m.Start); ok {
				spans = append(spans, textSpan(gap))
			} else {
				slog.Warn("smarttext: invalid gap offsets", "start", previousEnd, "end", m.Start, "len", n)
			}
		case previousEnd > m.Start:
			slog.Warn("smarttext: match overlaps previous match", "start", m.Start, "previous_end", previousEnd)
		}

		typ, known := TypeOf(m.Category)
		literal, ok := idx.slice(text, m.Start, m.End)
		switch {
		case !known:
			slog.Warn("smarttext: match has unknown category", "category", m.Category, "start", m.Start, "end", m.End)
		case !ok:
			slog.Warn("smarttext: invalid match offsets", "start", m.Start, "end", m.End, "len", n)
		case literal == "":
			slog.Debug("smarttext: skipping empty match", "start", m.Start, "category", m.Category)
		default:
			spans = append(spans, Span{Text: literal, Type: typ, RawValue: m.Value})
		}
		previousEnd = m.End
	}

	// The trailing gap runs from the last match's end, even if that match was
	// dropped above.
	if previousEnd < 0 || previousEnd > n {
		slog.Warn("smarttext: invalid trailing offset", "end", previousEnd, "len", n)
		return spans
	}
	if previousEnd < n {
		tail, _ := idx.slice(text, previousEnd, n)
		spans = append(spans, textSpan(tail))
	}
	return spans
}
