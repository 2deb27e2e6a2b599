// Package spanschema checks classifier output: the JSON shape of a span
// array and whether the spans reconstruct the text they were built from.
package spanschema

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/gonkalabs/smarttext-go/internal/smarttext"
)

//go:embed spans.schema.json
var schemaJSON []byte

var schemaLoader = gojsonschema.NewBytesLoader(schemaJSON)

// ValidationError represents a schema validation error with field paths.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field.
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("spanschema: validation failed:\n")
	for i, err := range ve.Errors {
		fmt.Fprintf(&sb, "  %d. %s: %s\n", i+1, err.Field, err.Message)
	}
	return sb.String()
}

// Validate checks a JSON document against the span array schema.
// A document that is not JSON at all returns a plain error.
func Validate(data []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("spanschema: load document: %w", err)
	}
	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return validationErr
}

// ReconstructionError reports spans that do not add back up to their text.
// Span is -1 when the problem is not tied to a single span.
type ReconstructionError struct {
	Span   int
	Reason string
}

func (e *ReconstructionError) Error() string {
	if e.Span < 0 {
		return "spanschema: " + e.Reason
	}
	return fmt.Sprintf("spanschema: span %d: %s", e.Span, e.Reason)
}

// Verify checks that spans are a faithful segmentation of text: their
// concatenation equals the normalized text, no span is empty unless it is
// the only span of an empty text, and text spans carry themselves as raw
// value. An empty span list is accepted for any text, since that is what
// the classifier returns for text without entities unless told otherwise.
func Verify(text string, spans []smarttext.Span) error {
	if len(spans) == 0 {
		return nil
	}
	want := smarttext.Normalize(text)

	if want == "" {
		if len(spans) != 1 || spans[0] != (smarttext.Span{Type: smarttext.Text}) {
			return &ReconstructionError{Span: -1, Reason: "empty text must yield a single empty text span"}
		}
		return nil
	}

	pos := 0
	for i, s := range spans {
		if s.Text == "" {
			return &ReconstructionError{Span: i, Reason: "empty span"}
		}
		if _, err := s.Type.MarshalText(); err != nil {
			return &ReconstructionError{Span: i, Reason: fmt.Sprintf("invalid type %s", s.Type)}
		}
		if s.Type == smarttext.Text && s.RawValue != s.Text {
			return &ReconstructionError{Span: i, Reason: fmt.Sprintf("text span raw value %q differs from its text", s.RawValue)}
		}
		if !strings.HasPrefix(want[pos:], s.Text) {
			return &ReconstructionError{Span: i, Reason: fmt.Sprintf("text %q does not continue the input at byte %d", s.Text, pos)}
		}
		pos += len(s.Text)
	}
	if pos != len(want) {
		return &ReconstructionError{Span: -1, Reason: fmt.Sprintf("spans cover %d of %d bytes", pos, len(want))}
	}
	return nil
}
