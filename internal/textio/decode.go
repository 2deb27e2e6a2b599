// Package textio reads classifier input from files and pipes.
package textio

import (
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrInvalidUTF8 is returned for input without a byte order mark that is
// not valid UTF-8.
var ErrInvalidUTF8 = errors.New("textio: input is not valid UTF-8")

// Decode reads all of r and returns it as a UTF-8 string. A leading byte
// order mark selects UTF-8, UTF-16LE or UTF-16BE and is dropped. Input
// without one must already be UTF-8.
func Decode(r io.Reader) (string, error) {
	dec := unicode.BOMOverride(encoding.Nop.NewDecoder())
	b, err := io.ReadAll(transform.NewReader(r, dec))
	if err != nil {
		return "", fmt.Errorf("textio: read: %w", err)
	}
	if !utf8.Valid(b) {
		return "", ErrInvalidUTF8
	}
	return string(b), nil
}
