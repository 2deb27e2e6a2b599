// Package smarttext turns plain text into an ordered list of typed spans:
// runs of plain text interleaved with detected entities (addresses, phone
// numbers, emails, datetimes, URLs).
//
// Detection is delegated to a Detector (see the rules, ner and llmdetect
// subpackages). The Classifier normalizes line endings, runs the detector
// and assembles its matches into spans that concatenate back to the input.
//
// Usage:
//
//	c := smarttext.New(rules.New())
//	spans, err := c.Classify(ctx, "Call 555-1234 now")
package smarttext

import (
	"context"
	"fmt"
)

// Classifier is the caller-facing entry point. It holds no mutable state
// and is safe for concurrent use when its Detector is.
type Classifier struct {
	detector Detector
	assemble []AssembleOption
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithEchoUnmatched returns text without any entities as a single Text span
// instead of an empty list. See EchoUnmatched.
func WithEchoUnmatched() Option {
	return func(c *Classifier) {
		c.assemble = append(c.assemble, EchoUnmatched())
	}
}

// New creates a Classifier backed by d.
func New(d Detector, opts ...Option) *Classifier {
	c := &Classifier{detector: d}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify normalizes text, detects entities in it and returns the span
// partition. The only error path is the detector's; malformed matches are
// dropped inside Assemble.
func (c *Classifier) Classify(ctx context.Context, text string) ([]Span, error) {
	text = Normalize(text)
	matches, err := c.detector.Detect(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("smarttext: detect: %w", err)
	}
	return Assemble(text, matches, c.assemble...), nil
}
