package format

import (
	"regexp"
	"strings"
	"time"
)

// Output layouts for every screen field
const (
	DateLayout = "01/02/06"
	TimeLayout = "3:04 PM"
)

// Input layouts accepted from documents and model output, tried in order
var dateLayouts = []string{
	"2006-01-02",
	"01/02/06",
	"01/02/2006",
	"1/2/06",
	"1/2/2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"Mon, Jan 2, 2006",
	"Monday, January 2, 2006",
	"Mon 02 Jan 2006",
	"02Jan06",
	"2Jan06",
	"02Jan2006",
	"2006/01/02",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

var timeLayouts = []string{
	"15:04",
	"15:04:05",
	"3:04 PM",
	"3:04PM",
	"3:04 pm",
	"3:04pm",
	"03:04 PM",
	"3 PM",
	"3PM",
	"1504",
}

var spaceRun = regexp.MustCompile(`\s+`)

// Date formats t as MM/DD/YY
func Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// ParseDate parses a date written in any of the accepted layouts
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
	if s == "" {
		return time.Time{}, false
	}
	s = strings.TrimSuffix(s, ".")
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
		// month names arrive upper-cased from tickets
		if t, err := time.Parse(layout, titleMonth(s)); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NormalizeDate rewrites a date to MM/DD/YY. Unparseable input is returned folded but
// otherwise untouched so that no source value is silently lost.
func NormalizeDate(s string) string {
	if t, ok := ParseDate(s); ok {
		return Date(t)
	}
	return Text(s)
}

// NormalizeTime rewrites a clock time to 12-hour form, e.g. "16:40" to "4:40 PM"
func NormalizeTime(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	compact := strings.ReplaceAll(strings.ToUpper(s), ".", "")
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, compact); err == nil {
			return t.Format(TimeLayout)
		}
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(TimeLayout)
		}
	}
	return Text(s)
}

// DaysBetween returns the inclusive day count spanned by two dates, minimum 1
func DaysBetween(start, end time.Time) int {
	if start.IsZero() || end.IsZero() {
		return 0
	}
	d := int(end.Sub(start).Hours()/24) + 1
	if d < 1 {
		return 1
	}
	return d
}

// NightsBetween returns the number of nights between two dates
func NightsBetween(start, end time.Time) int {
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours() / 24)
}

func titleMonth(s string) string {
	var b strings.Builder
	prevLetter := false
	for _, r := range s {
		isLetter := (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')
		switch {
		case isLetter && !prevLetter:
			b.WriteString(strings.ToUpper(string(r)))
		case isLetter:
			b.WriteString(strings.ToLower(string(r)))
		default:
			b.WriteRune(r)
		}
		prevLetter = isLetter
	}
	return b.String()
}
