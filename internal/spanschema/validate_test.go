package spanschema

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gonkalabs/smarttext-go/internal/smarttext"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr bool
	}{
		{"empty array", `[]`, false},
		{"valid spans", `[{"text":"Call ","type":"text","rawValue":"Call "},{"text":"555-1234","type":"phone","rawValue":"555-1234"}]`, false},
		{"not an array", `{"text":"x","type":"text","rawValue":"x"}`, true},
		{"missing rawValue", `[{"text":"x","type":"text"}]`, true},
		{"unknown type", `[{"text":"x","type":"person","rawValue":"x"}]`, true},
		{"extra field", `[{"text":"x","type":"text","rawValue":"x","start":0}]`, true},
		{"wrong field type", `[{"text":1,"type":"text","rawValue":"x"}]`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate([]byte(tt.doc))
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "error should be ValidationError type: %v", err)
			assert.NotEmpty(t, verr.Errors)
		})
	}
}

func TestValidate_Malformed(t *testing.T) {
	err := Validate([]byte("{ invalid json }"))
	require.Error(t, err)

	var verr *ValidationError
	assert.False(t, errors.As(err, &verr))
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Errors: []FieldError{{Field: "0.type", Message: "bad"}}}
	assert.Contains(t, err.Error(), "1. 0.type: bad")
}

func TestValidate_ClassifierOutput(t *testing.T) {
	d := smarttext.DetectorFunc(func(context.Context, string) ([]smarttext.Match, error) {
		return []smarttext.Match{{Start: 5, End: 13, Category: smarttext.Phone, Value: "555-1234"}}, nil
	})
	spans, err := smarttext.New(d).Classify(context.Background(), "Call 555-1234 now")
	require.NoError(t, err)

	data, err := json.Marshal(spans)
	require.NoError(t, err)
	assert.NoError(t, Validate(data))
	assert.NoError(t, Verify("Call 555-1234 now", spans))
}

func span(text string, typ smarttext.Type, raw string) smarttext.Span {
	return smarttext.Span{Text: text, Type: typ, RawValue: raw}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		spans []smarttext.Span
		ok    bool
	}{
		{"no spans", "anything", nil, true},
		{"lone empty span", "", []smarttext.Span{span("", smarttext.Text, "")}, true},
		{"crlf normalized", "a\r\nb", []smarttext.Span{span("a\nb", smarttext.Text, "a\nb")}, true},
		{"entity raw value may differ", "at 2pm", []smarttext.Span{
			span("at ", smarttext.Text, "at "),
			span("2pm", smarttext.TypeDateTime, "14:00"),
		}, true},
		{"empty span", "ab", []smarttext.Span{
			span("ab", smarttext.Text, "ab"),
			span("", smarttext.Text, ""),
		}, false},
		{"text raw value differs", "ab", []smarttext.Span{span("ab", smarttext.Text, "AB")}, false},
		{"gap", "abc", []smarttext.Span{
			span("a", smarttext.Text, "a"),
			span("c", smarttext.Text, "c"),
		}, false},
		{"short", "abc", []smarttext.Span{span("ab", smarttext.Text, "ab")}, false},
		{"invalid type", "ab", []smarttext.Span{{Text: "ab", RawValue: "ab"}}, false},
		{"empty text with content", "", []smarttext.Span{span("x", smarttext.Text, "x")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Verify(tt.text, tt.spans)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			var rerr *ReconstructionError
			assert.True(t, errors.As(err, &rerr), "error should be ReconstructionError type: %v", err)
		})
	}
}

func TestReconstructionError_Message(t *testing.T) {
	assert.Equal(t, "spanschema: span 2: empty span", (&ReconstructionError{Span: 2, Reason: "empty span"}).Error())
	assert.Equal(t, "spanschema: short", (&ReconstructionError{Span: -1, Reason: "short"}).Error())
}
