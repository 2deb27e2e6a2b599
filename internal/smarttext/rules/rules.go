// Package rules is a built-in, rule-based Detector. It recognizes the five
// smarttext categories with regular expressions and needs no sidecar.
//
// Patterns are tuned for English text. They are the fallback when no
// platform detector is available, not a replacement for one.
//
// All methods are safe for concurrent use by multiple goroutines.
package rules

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/gonkalabs/smarttext-go/internal/smarttext"
)

// Order matters: recognizers run in this order and ResolveOverlaps keeps
// the earlier one when two matches start at the same offset with the same
// length.
var (
	// URL: scheme or www. prefixed, cut at whitespace and quotes
	reURL = regexp.MustCompile(`(?i)\b(?:https?://|www\.)[^\s<>"]+`)

	// Email: standard pattern, confirmed with validator's "email" rule
	reEmail = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

	// Phone: +CC followed by 2-5 digit groups
	rePhoneIntl = regexp.MustCompile(`\+\d{1,3}(?:[ .\-]?(?:\(\d{1,4}\)|\d{1,4})){2,5}`)
	// Phone: NANP (555) 123-4567, 555-123-4567, 555.123.4567
	rePhoneNANP = regexp.MustCompile(`(?:\(\d{3}\) ?|\b\d{3}[ .\-])\d{3}[ .\-]\d{4}\b`)
	// Phone: local 555-1234
	rePhoneLocal = regexp.MustCompile(`\b\d{3}-\d{4}\b`)

	// DateTime: ISO 2024-03-09 with optional time
	reDateISO = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})(?:[T ](\d{1,2}):(\d{2})(?::(\d{2}))?)?\b`)
	// DateTime: US 3/9/2024
	reDateUS = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)
	// DateTime: March 9, 2024 / Mar 9th / Sept. 9 2024
	reDateMonth = regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec)\.? (\d{1,2})(?:st|nd|rd|th)?(?:,? (\d{4}))?\b`)
	// DateTime: 14:30, 2:30 pm, 2pm
	reClock  = regexp.MustCompile(`(?i)\b(\d{1,2}):(\d{2})(?: ?([ap])m\b)?`)
	reClockH = regexp.MustCompile(`(?i)\b(\d{1,2}) ?([ap])m\b`)
	// DateTime: relative days
	reRelative = regexp.MustCompile(`(?i)\b(today|tomorrow|yesterday)\b`)

	// Address: number, capitalized street name, street suffix, optional
	// unit and ", City, ST 12345" tail
	reAddress = regexp.MustCompile(`\b\d{1,6} [A-Z][A-Za-z0-9.']*(?: [A-Za-z0-9.']+){0,3}? ` +
		`(?i:street|st|avenue|ave|road|rd|boulevard|blvd|lane|ln|drive|dr|court|ct|way|place|pl|terrace|parkway|pkwy|highway|hwy|loop|circle|cir|square|sq)\b\.?` +
		`(?:,? (?i:apt|suite|ste|unit)\.? ?[A-Za-z0-9\-]+|,? #[A-Za-z0-9\-]+)?` +
		`(?:, [A-Z][A-Za-z .]*, [A-Z]{2}(?: \d{5}(?:-\d{4})?)?)?`)
)

// maxEmailLen is the maximum length of an email address per RFC 5321.
const maxEmailLen = 254

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

// Detector is the rule-based recognizer.
type Detector struct {
	now      func() time.Time
	loc      *time.Location
	validate *validator.Validate
}

// Option configures a Detector.
type Option func(*Detector)

// WithClock sets the reference time for relative dates ("tomorrow") and
// dates without a year.
func WithClock(now func() time.Time) Option {
	return func(d *Detector) { d.now = now }
}

// WithLocation sets the time zone datetime values are expressed in.
func WithLocation(loc *time.Location) Option {
	return func(d *Detector) { d.loc = loc }
}

// New creates a Detector. Defaults: time.Now, time.Local.
func New(opts ...Option) *Detector {
	d := &Detector{
		now:      time.Now,
		loc:      time.Local,
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect returns sorted, non-overlapping matches in rune offsets.
func (d *Detector) Detect(ctx context.Context, text string) ([]smarttext.Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if text == "" {
		return nil, nil
	}

	// byte offsets until the end
	all := make([]smarttext.Match, 0, len(text)/200+8)
	all = appendURL(all, text)
	all = d.appendEmail(all, text)
	all = appendPhone(all, text)
	all = d.appendDateTime(all, text)
	all = appendAddress(all, text)

	matches := smarttext.ResolveOverlaps(all)
	if len(matches) == 0 {
		return nil, nil
	}
	return smarttext.ConvertOffsets(text, matches, smarttext.UnitByte), nil
}

// appendURL appends URLs, trimming trailing punctuation and adding a scheme
// to www. links.
func appendURL(all []smarttext.Match, s string) []smarttext.Match {
	for _, m := range reURL.FindAllStringIndex(s, -1) {
		text := strings.TrimRight(s[m[0]:m[1]], ".,;:!?)]}>'")
		if strings.EqualFold(text, "www.") || strings.HasSuffix(text, "://") {
			continue
		}
		value := text
		if strings.HasPrefix(strings.ToLower(text), "www.") {
			value = "http://" + text
		}
		all = append(all, smarttext.Match{
			Start:    m[0],
			End:      m[0] + len(text),
			Category: smarttext.URL,
			Value:    value,
		})
	}
	return all
}

// appendEmail appends email addresses the validator accepts, lowercased.
func (d *Detector) appendEmail(all []smarttext.Match, s string) []smarttext.Match {
	for _, m := range reEmail.FindAllStringIndex(s, -1) {
		text := strings.TrimRight(s[m[0]:m[1]], ".-")
		if len(text) > maxEmailLen {
			continue
		}
		if err := d.validate.Var(text, "email"); err != nil {
			continue
		}
		all = append(all, smarttext.Match{
			Start:    m[0],
			End:      m[0] + len(text),
			Category: smarttext.Email,
			Value:    strings.ToLower(text),
		})
	}
	return all
}

// appendPhone appends phone numbers in international, NANP and local form.
func appendPhone(all []smarttext.Match, s string) []smarttext.Match {
	for _, re := range []*regexp.Regexp{rePhoneIntl, rePhoneNANP, rePhoneLocal} {
		for _, m := range re.FindAllStringIndex(s, -1) {
			text := s[m[0]:m[1]]
			if n := countDigits(text); n < 7 || n > 15 {
				continue
			}
			all = append(all, smarttext.Match{
				Start:    m[0],
				End:      m[1],
				Category: smarttext.Phone,
				Value:    text,
			})
		}
	}
	return all
}

func countDigits(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			n++
		}
	}
	return n
}

// appendDateTime appends dates and times with RFC 3339 values.
func (d *Detector) appendDateTime(all []smarttext.Match, s string) []smarttext.Match {
	now := d.now().In(d.loc)
	add := func(start, end int, t time.Time) {
		all = append(all, smarttext.Match{
			Start:    start,
			End:      end,
			Category: smarttext.DateTime,
			Value:    t.Format(time.RFC3339),
		})
	}

	for _, m := range reDateISO.FindAllStringSubmatchIndex(s, -1) {
		year, month, day := atoi(s, m, 1), atoi(s, m, 2), atoi(s, m, 3)
		hour, minute, sec := atoi(s, m, 4), atoi(s, m, 5), atoi(s, m, 6)
		if t, ok := d.date(year, month, day, hour, minute, sec); ok {
			add(m[0], m[1], t)
		}
	}
	for _, m := range reDateUS.FindAllStringSubmatchIndex(s, -1) {
		if t, ok := d.date(atoi(s, m, 3), atoi(s, m, 1), atoi(s, m, 2), 0, 0, 0); ok {
			add(m[0], m[1], t)
		}
	}
	for _, m := range reDateMonth.FindAllStringSubmatchIndex(s, -1) {
		name := strings.ToLower(s[m[2]:m[3]])
		year := now.Year()
		if m[6] >= 0 {
			year = atoi(s, m, 3)
		}
		if t, ok := d.date(year, int(months[name[:3]]), atoi(s, m, 2), 0, 0, 0); ok {
			add(m[0], m[1], t)
		}
	}
	for _, m := range reClock.FindAllStringSubmatchIndex(s, -1) {
		hour, ok := clockHour(atoi(s, m, 1), group(s, m, 3))
		if !ok {
			continue
		}
		if t, ok := d.date(now.Year(), int(now.Month()), now.Day(), hour, atoi(s, m, 2), 0); ok {
			add(m[0], m[1], t)
		}
	}
	for _, m := range reClockH.FindAllStringSubmatchIndex(s, -1) {
		hour, ok := clockHour(atoi(s, m, 1), group(s, m, 2))
		if !ok {
			continue
		}
		if t, ok := d.date(now.Year(), int(now.Month()), now.Day(), hour, 0, 0); ok {
			add(m[0], m[1], t)
		}
	}
	for _, m := range reRelative.FindAllStringSubmatchIndex(s, -1) {
		offset := 0
		switch strings.ToLower(group(s, m, 1)) {
		case "tomorrow":
			offset = 1
		case "yesterday":
			offset = -1
		}
		day := time.Date(now.Year(), now.Month(), now.Day()+offset, 0, 0, 0, 0, d.loc)
		add(m[0], m[1], day)
	}
	return all
}

// date builds a time in the detector's location, rejecting values that
// time.Date would silently normalize (Feb 30, 25:00).
func (d *Detector) date(year, month, day, hour, minute, sec int) (time.Time, bool) {
	if month < 1 || month > 12 || hour > 23 || minute > 59 || sec > 59 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, hour, minute, sec, 0, d.loc)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}

// clockHour converts a 12-hour clock reading when meridiem is "a" or "p".
func clockHour(hour int, meridiem string) (int, bool) {
	switch strings.ToLower(meridiem) {
	case "":
		return hour, hour <= 23
	case "a":
		if hour < 1 || hour > 12 {
			return 0, false
		}
		return hour % 12, true
	default:
		if hour < 1 || hour > 12 {
			return 0, false
		}
		return hour%12 + 12, true
	}
}

// appendAddress appends street addresses with whitespace-collapsed values.
func appendAddress(all []smarttext.Match, s string) []smarttext.Match {
	for _, m := range reAddress.FindAllStringIndex(s, -1) {
		text := s[m[0]:m[1]]
		all = append(all, smarttext.Match{
			Start:    m[0],
			End:      m[1],
			Category: smarttext.Address,
			Value:    strings.Join(strings.Fields(text), " "),
		})
	}
	return all
}

// group returns submatch i of a FindStringSubmatchIndex result, or "".
func group(s string, m []int, i int) string {
	if 2*i+1 >= len(m) || m[2*i] < 0 {
		return ""
	}
	return s[m[2*i]:m[2*i+1]]
}

// atoi parses submatch i, returning 0 when it did not participate.
func atoi(s string, m []int, i int) int {
	n, err := strconv.Atoi(group(s, m, i))
	if err != nil {
		return 0
	}
	return n
}
