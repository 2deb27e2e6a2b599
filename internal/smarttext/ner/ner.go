// Package ner provides a Detector that calls an entity-recognition sidecar
// over HTTP. If the sidecar is unreachable, it logs a warning and returns no
// matches so classification still produces plain text spans.
package ner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gonkalabs/smarttext-go/internal/smarttext"
)

const defaultTimeout = 10 * time.Second

// Client calls the sidecar's /detect endpoint.
type Client struct {
	url     string
	unit    smarttext.Unit
	timeout time.Duration
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithUnit sets the unit the sidecar counts offsets in. Python sidecars
// count code points, which is the default; JVM and JS ones count UTF-16.
func WithUnit(u smarttext.Unit) Option {
	return func(c *Client) { c.unit = u }
}

// WithTimeout bounds each sidecar request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New creates a Client pointing at the given base URL
// (e.g. "http://smarttext-ner:8001").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		url:     strings.TrimRight(baseURL, "/") + "/detect",
		unit:    smarttext.UnitRune,
		timeout: defaultTimeout,
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type detectRequest struct {
	Text string `json:"text"`
}

type detectResponse struct {
	Entities []nerEntity `json:"entities"`
}

type nerEntity struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Label string `json:"label"`
	Text  string `json:"text"`
	Value string `json:"value"`
}

// Detect sends text to the sidecar and returns its matches in rune offsets,
// sorted and with overlaps resolved.
// It is safe for concurrent use.
func (c *Client) Detect(ctx context.Context, text string) ([]smarttext.Match, error) {
	if text == "" {
		return nil, nil
	}

	body, err := json.Marshal(detectRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("ner: marshal: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ner: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		slog.Warn("ner: sidecar unreachable, skipping", "err", err)
		smarttext.MarkDegraded(ctx)
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Warn("ner: unexpected status", "code", resp.StatusCode)
		smarttext.MarkDegraded(ctx)
		return nil, nil
	}

	var result detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("ner: decode: %w", err)
	}

	matches := make([]smarttext.Match, 0, len(result.Entities))
	for _, e := range result.Entities {
		cat, err := smarttext.ParseCategory(e.Label)
		if err != nil {
			slog.Debug("ner: ignoring entity", "label", e.Label)
			continue
		}
		value := e.Value
		if value == "" {
			value = e.Text
		}
		matches = append(matches, smarttext.Match{
			Start:    e.Start,
			End:      e.End,
			Category: cat,
			Value:    value,
		})
	}
	// sidecars may report nested or unordered entities
	return smarttext.ResolveOverlaps(smarttext.ConvertOffsets(text, matches, c.unit)), nil
}
