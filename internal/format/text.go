package format

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// replacements for letters that do not decompose into base + mark
var foldReplacer = strings.NewReplacer(
	"ß", "ss", "æ", "ae", "Æ", "AE", "œ", "oe", "Œ", "OE",
	"ø", "o", "Ø", "O", "ł", "l", "Ł", "L", "đ", "d", "Đ", "D",
	"‘", "'", "’", "'", "“", `"`, "”", `"`,
	"–", "-", "—", "-", " ", " ",
)

// Fold strips accents and typographic punctuation, e.g. "Montréal" to "Montreal"
func Fold(s string) string {
	if isASCII(s) {
		return s
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return foldReplacer.Replace(out)
}

// Text prepares a free-text value for a screen field: folded and trimmed.
// Line breaks are kept; runs of spaces inside a line are collapsed.
func Text(s string) string {
	s = Fold(s)
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// DigitsOnly keeps the decimal digits of s
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Lines joins non-blank lines with newlines
func Lines(lines ...string) string {
	kept := make([]string, 0, len(lines))
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n")
}

// Initialed renders a passenger as first initial plus surname, e.g. "J. Smith".
// Airline style "SMITH/JOHN MR" is understood as well.
func Initialed(name string) string {
	name = Text(name)
	if name == "" {
		return ""
	}
	var first, last string
	if i := strings.Index(name, "/"); i > 0 {
		last = strings.TrimSpace(name[:i])
		rest := strings.Fields(name[i+1:])
		if len(rest) > 0 {
			first = rest[0]
		}
		last = titleWord(last)
	} else {
		parts := strings.Fields(name)
		parts = dropHonorifics(parts)
		if len(parts) == 0 {
			return name
		}
		if len(parts) == 1 {
			return parts[0]
		}
		first, last = parts[0], parts[len(parts)-1]
	}
	if first == "" {
		return last
	}
	return strings.ToUpper(first[:1]) + ". " + last
}

var honorifics = map[string]bool{
	"MR": true, "MRS": true, "MS": true, "MISS": true, "MSTR": true, "DR": true, "MX": true,
}

func dropHonorifics(parts []string) []string {
	out := parts[:0:0]
	for _, p := range parts {
		if !honorifics[strings.ToUpper(strings.TrimSuffix(p, "."))] {
			out = append(out, p)
		}
	}
	return out
}

func titleWord(s string) string {
	if s == "" || strings.ToUpper(s) != s {
		return s
	}
	lower := strings.ToLower(s)
	return strings.ToUpper(lower[:1]) + lower[1:]
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
