// Package llmdetect provides a Detector that uses a local OpenAI-compatible
// LLM (e.g. Ollama) to find entities a rule set misses, such as free-form
// addresses and spelled-out dates.
//
// We ask the model to return the entity strings verbatim rather than
// offsets, because small models get offsets wrong. Go code locates all
// occurrences in the original text itself.
package llmdetect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gonkalabs/smarttext-go/internal/smarttext"
)

const systemPrompt = `Find entities in the text. Return a JSON array of objects {"type": ..., "text": ..., "value": ...}. Return [] if nothing is found.

Types:
- address: a postal or street address (e.g. 1 Infinite Loop, Cupertino, CA 95014)
- phone: a phone number (e.g. +1 415 555 0100, (555) 123-4567)
- email: an email address
- datetime: a date, time or relative day (e.g. March 9, 2024; 2:30 pm; tomorrow)
- url: a web address (e.g. https://example.com, www.example.com)

"text" must be copied exactly from the input. "value" is the canonical form:
ISO 8601 for datetimes, a full URL with scheme for urls, otherwise the text.

Return ONLY the JSON array. No explanation.

Examples:
Input: "call me at (555) 123-4567 tomorrow"
Output: [{"type":"phone","text":"(555) 123-4567","value":"(555) 123-4567"},{"type":"datetime","text":"tomorrow","value":"tomorrow"}]

Input: "how are you?"
Output: []`

// Detector calls a local LLM to detect entities.
type Detector struct {
	url   string
	model string
	http  *http.Client
}

// New creates a Detector.
// baseURL is the Ollama (or any OpenAI-compatible) server, e.g. "http://ollama:11434".
func New(baseURL, model string) *Detector {
	return &Detector{
		url:   strings.TrimRight(baseURL, "/") + "/v1/chat/completions",
		model: model,
		http: &http.Client{
			Timeout: 125 * time.Second,
		},
	}
}

type openAIRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	// Hint to disable chain-of-thought thinking (Qwen3 and some others support this).
	// stripThinkBlock handles models that ignore it.
	Think bool `json:"think"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content          string `json:"content"`
			Reasoning        string `json:"reasoning"`         // Qwen3 via Ollama
			ReasoningContent string `json:"reasoning_content"` // Qwen3 direct API
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

type entity struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Value string `json:"value"`
}

// Detect sends text to the LLM and returns the matches it could locate.
// It is safe for concurrent use.
func (d *Detector) Detect(ctx context.Context, text string) ([]smarttext.Match, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	slog.Debug("llmdetect: detecting", "url", d.url, "model", d.model, "text_len", len(text))

	reqBody := openAIRequest{
		Model: d.model,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			// /no_think is Qwen3's control token to skip thinking and go straight to the answer.
			{Role: "user", Content: "Text:\n" + text + "\n/no_think"},
		},
		Temperature: 0,
		MaxTokens:   4000,
		Think:       false,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("llmdetect: marshal: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 120*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("llmdetect: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.http.Do(req)
	if err != nil {
		slog.Warn("llmdetect: LLM unreachable, skipping", "err", err)
		smarttext.MarkDegraded(ctx)
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errBody [512]byte
		n, _ := resp.Body.Read(errBody[:])
		slog.Warn("llmdetect: unexpected status", "code", resp.StatusCode, "body", string(errBody[:n]))
		smarttext.MarkDegraded(ctx)
		return nil, nil
	}

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Warn("llmdetect: read body", "err", err)
		smarttext.MarkDegraded(ctx)
		return nil, nil
	}

	var oaiResp openAIResponse
	if err := json.Unmarshal(rawBody, &oaiResp); err != nil {
		slog.Warn("llmdetect: decode response", "err", err)
		smarttext.MarkDegraded(ctx)
		return nil, nil
	}
	if len(oaiResp.Choices) == 0 {
		return nil, nil
	}

	choice := oaiResp.Choices[0]
	if choice.FinishReason == "length" {
		slog.Warn("llmdetect: response truncated by token limit")
	}

	// Qwen3 via Ollama puts thinking in "reasoning" and the answer in "content".
	// If content is empty the model ran out of tokens before answering.
	raw := strings.TrimSpace(choice.Message.Content)
	if raw == "" {
		raw = strings.TrimSpace(choice.Message.Reasoning)
		if raw == "" {
			raw = strings.TrimSpace(choice.Message.ReasoningContent)
		}
	}

	entities, err := parseEntities(raw)
	if err != nil {
		slog.Warn("llmdetect: could not parse LLM output", "content", raw, "err", err)
		return nil, nil
	}
	return locate(text, entities), nil
}

// parseEntities digs the JSON array out of a model reply.
func parseEntities(raw string) ([]entity, error) {
	content := stripThinkBlock(raw)
	content = stripCodeFence(content)
	content = extractJSONArray(content)

	var entities []entity
	if err := json.Unmarshal([]byte(content), &entities); err != nil {
		return nil, err
	}
	return entities, nil
}

// locate finds every occurrence of each entity text, skipping hits in the
// middle of a longer word, and returns sorted, non-overlapping matches.
func locate(text string, entities []entity) []smarttext.Match {
	var byteMatches []smarttext.Match
	for _, e := range entities {
		needle := strings.TrimSpace(e.Text)
		if needle == "" {
			continue
		}
		cat, err := smarttext.ParseCategory(e.Type)
		if err != nil {
			slog.Debug("llmdetect: ignoring entity", "type", e.Type)
			continue
		}
		value := strings.TrimSpace(e.Value)
		if value == "" {
			value = needle
		}

		start := 0
		for {
			idx := strings.Index(text[start:], needle)
			if idx < 0 {
				break
			}
			abs := start + idx
			end := abs + len(needle)
			start = end
			if isInsideToken(text, abs, end) {
				continue
			}
			byteMatches = append(byteMatches, smarttext.Match{Start: abs, End: end, Category: cat, Value: value})
		}
	}
	if len(byteMatches) == 0 {
		return nil
	}
	matches := smarttext.ResolveOverlaps(byteMatches)
	slog.Debug("llmdetect: located entities", "count", len(matches), "returned", len(entities))
	return smarttext.ConvertOffsets(text, matches, smarttext.UnitByte)
}

// isInsideToken reports whether span [start,end) sits inside a larger word.
// For example "b.co" inside "ab.co" would return true.
func isInsideToken(text string, start, end int) bool {
	if start > 0 && !isBoundary(text[start-1]) {
		return true
	}
	if end < len(text) && !isBoundary(text[end]) {
		return true
	}
	return false
}

// isBoundary reports whether byte b is a word-boundary character.
func isBoundary(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '<', '>', ',', ';', '(', ')', '[', ']', '{', '}', '"', '\'', '`', '.', '!', '?', ':':
		return true
	}
	return false
}

// extractJSONArray finds the first [...] substring in s.
func extractJSONArray(s string) string {
	start := strings.Index(s, "[")
	if start < 0 {
		return s
	}
	end := strings.LastIndex(s, "]")
	if end < start {
		return s
	}
	return s[start : end+1]
}

// stripThinkBlock removes Qwen3's <think>...</think> block that appears before
// the actual answer when thinking mode is active.
func stripThinkBlock(s string) string {
	const open, close = "<think>", "</think>"
	start := strings.Index(s, open)
	if start < 0 {
		return s
	}
	end := strings.Index(s, close)
	if end < 0 {
		// Unclosed block - drop everything from <think> onwards.
		return strings.TrimSpace(s[:start])
	}
	return strings.TrimSpace(s[:start] + s[end+len(close):])
}

// stripCodeFence removes ```json ... ``` or ``` ... ``` wrappers.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	return s
}
