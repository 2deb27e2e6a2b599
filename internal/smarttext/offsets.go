package smarttext

import (
	"fmt"
	"strings"
)

// Unit is the measure a detector counts offsets in. Match offsets are always
// runes; detectors that count differently convert with ConvertOffsets.
type Unit int

const (
	UnitRune  Unit = iota // Unicode scalar values
	UnitUTF16             // UTF-16 code units, as reported by JVM/JS/Cocoa detectors
	UnitByte              // UTF-8 bytes
)

func (u Unit) String() string {
	switch u {
	case UnitRune:
		return "rune"
	case UnitUTF16:
		return "utf16"
	case UnitByte:
		return "byte"
	}
	return fmt.Sprintf("Unit(%d)", int(u))
}

// ParseUnit parses "rune", "utf16" or "byte".
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rune", "runes", "codepoint":
		return UnitRune, nil
	case "utf16", "utf-16":
		return UnitUTF16, nil
	case "byte", "bytes", "utf8", "utf-8":
		return UnitByte, nil
	}
	return 0, fmt.Errorf("smarttext: unknown offset unit %q", s)
}

// offsetIndex maps offsets in one unit to byte offsets in a string.
// Positions that fall inside a code point hold -1.
type offsetIndex []int

func newOffsetIndex(text string, u Unit) offsetIndex {
	switch u {
	case UnitByte:
		idx := make(offsetIndex, len(text)+1)
		for i := range idx {
			if isRuneBoundary(text, i) {
				idx[i] = i
			} else {
				idx[i] = -1
			}
		}
		return idx
	case UnitUTF16:
		idx := make(offsetIndex, 0, len(text)+1)
		for i, r := range text {
			idx = append(idx, i)
			if r >= 0x10000 {
				// second half of a surrogate pair
				idx = append(idx, -1)
			}
		}
		return append(idx, len(text))
	default:
		idx := make(offsetIndex, 0, len(text)+1)
		for i := range text {
			idx = append(idx, i)
		}
		return append(idx, len(text))
	}
}

// length is the text length in the index's unit.
func (idx offsetIndex) length() int { return len(idx) - 1 }

// byteOffset returns the byte offset for off, or false when off is out of
// range or not on a code point boundary.
func (idx offsetIndex) byteOffset(off int) (int, bool) {
	if off < 0 || off >= len(idx) || idx[off] < 0 {
		return 0, false
	}
	return idx[off], true
}

// slice returns text[start:end] with start and end in the index's unit.
func (idx offsetIndex) slice(text string, start, end int) (string, bool) {
	if start > end {
		return "", false
	}
	b0, ok := idx.byteOffset(start)
	if !ok {
		return "", false
	}
	b1, ok := idx.byteOffset(end)
	if !ok {
		return "", false
	}
	return text[b0:b1], true
}

func isRuneBoundary(s string, i int) bool {
	if i == 0 || i == len(s) {
		return true
	}
	return s[i]&0xC0 != 0x80
}

// ConvertOffsets returns a copy of matches with offsets converted from unit
// from into runes. Offsets that are out of range or split a code point become
// -1, which the assembler rejects as malformed.
func ConvertOffsets(text string, matches []Match, from Unit) []Match {
	out := make([]Match, len(matches))
	copy(out, matches)
	if from == UnitRune || len(matches) == 0 {
		return out
	}

	src := newOffsetIndex(text, from)
	runeAt := make([]int, len(text)+1)
	for i := range runeAt {
		runeAt[i] = -1
	}
	n := 0
	for i := range text {
		runeAt[i] = n
		n++
	}
	runeAt[len(text)] = n

	conv := func(off int) int {
		b, ok := src.byteOffset(off)
		if !ok {
			return -1
		}
		return runeAt[b]
	}
	for i := range out {
		out[i].Start = conv(out[i].Start)
		out[i].End = conv(out[i].End)
	}
	return out
}
