package smarttext

import "strings"

// Normalize unifies line endings by replacing every CRLF with LF. Detector
// offsets are computed on the normalized text, so Classify normalizes before
// anything else looks at the input.
func Normalize(text string) string {
	if !strings.Contains(text, "\r\n") {
		return text
	}
	return strings.ReplaceAll(text, "\r\n", "\n")
}
