package smarttext

import (
	"fmt"
	"strings"
)

// Category is the entity vocabulary a Detector reports in.
type Category int

const (
	Address Category = iota
	Phone
	Email
	DateTime
	URL

	numCategories
)

var categoryNames = [numCategories]string{
	Address:  "address",
	Phone:    "phone",
	Email:    "email",
	DateTime: "datetime",
	URL:      "url",
}

func (c Category) String() string {
	if c < 0 || c >= numCategories {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryNames[c]
}

// categoryLabels maps upper-cased detector labels to categories. NER models
// and LLMs use a handful of spellings for the same thing.
var categoryLabels = map[string]Category{
	"ADDRESS":       Address,
	"LOC_ADDRESS":   Address,
	"STREET":        Address,
	"PHONE":         Phone,
	"PHONE_NUMBER":  Phone,
	"TEL":           Phone,
	"EMAIL":         Email,
	"EMAIL_ADDRESS": Email,
	"DATE":          DateTime,
	"TIME":          DateTime,
	"DATETIME":      DateTime,
	"DATE_TIME":     DateTime,
	"URL":           URL,
	"LINK":          URL,
}

// ParseCategory maps a detector label such as "PHONE_NUMBER" or "url" to a
// Category. Unknown labels are an error.
func ParseCategory(label string) (Category, error) {
	c, ok := categoryLabels[strings.ToUpper(strings.TrimSpace(label))]
	if !ok {
		return 0, fmt.Errorf("smarttext: unknown category label %q", label)
	}
	return c, nil
}

// Type tags an output span.
type Type int

const (
	typeInvalid Type = iota
	Text
	TypeAddress
	TypePhone
	TypeEmail
	TypeDateTime
	TypeURL

	numTypes
)

var typeNames = [numTypes]string{
	Text:         "text",
	TypeAddress:  "address",
	TypePhone:    "phone",
	TypeEmail:    "email",
	TypeDateTime: "datetime",
	TypeURL:      "url",
}

func (t Type) valid() bool { return t > typeInvalid && t < numTypes }

func (t Type) String() string {
	if !t.valid() {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return typeNames[t]
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	if !t.valid() {
		return nil, fmt.Errorf("smarttext: cannot marshal %s", t)
	}
	return []byte(typeNames[t]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(b []byte) error {
	s := string(b)
	for typ := Text; typ < numTypes; typ++ {
		if typeNames[typ] == s {
			*t = typ
			return nil
		}
	}
	return fmt.Errorf("smarttext: unknown span type %q", s)
}

// categoryTypes is the Category -> Type table used by the assembler.
var categoryTypes = [numCategories]Type{
	Address:  TypeAddress,
	Phone:    TypePhone,
	Email:    TypeEmail,
	DateTime: TypeDateTime,
	URL:      TypeURL,
}

func init() {
	for c, t := range categoryTypes {
		if t == typeInvalid {
			panic(fmt.Sprintf("smarttext: category %s has no span type", Category(c)))
		}
	}
}

// TypeOf returns the span type for a category.
func TypeOf(c Category) (Type, bool) {
	if c < 0 || c >= numCategories {
		return typeInvalid, false
	}
	return categoryTypes[c], true
}

// Match is a single entity found by a Detector.
type Match struct {
	Start    int // rune offset of the first character
	End      int // rune offset one past the last character
	Category Category
	Value    string // canonical form, e.g. a normalized date; may differ from the text
}

// Span is one segment of classified text.
type Span struct {
	Text     string `json:"text"`
	Type     Type   `json:"type"`
	RawValue string `json:"rawValue"`
}

func textSpan(s string) Span {
	return Span{Text: s, Type: Text, RawValue: s}
}

// Map returns the span as a generic map with the same keys as its JSON form.
func (s Span) Map() map[string]any {
	return map[string]any{
		"text":     s.Text,
		"type":     s.Type.String(),
		"rawValue": s.RawValue,
	}
}
