package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/ppiankov/itinera/internal/model"
)

const maxLabelLen = 60

var (
	bulletPrefix   = regexp.MustCompile(`^\s*(?:[-*+•·]|\d{1,3}[.)])\s+`)
	emphasisMarker = regexp.MustCompile(`\*\*|__|\x60`)
)

// ParseFacts reads LABEL: value lines from provider output.
// Bullets and markdown emphasis are stripped; any other line is dropped.
func ParseFacts(text string) model.Facts {
	var facts model.Facts
	for _, line := range strings.Split(text, "\n") {
		if fact, ok := parseLine(line); ok {
			facts = append(facts, fact)
		}
	}
	return facts
}

func parseLine(line string) (model.Fact, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "```") {
		return model.Fact{}, false
	}
	line = bulletPrefix.ReplaceAllString(line, "")
	line = emphasisMarker.ReplaceAllString(line, "")

	idx := strings.Index(line, ":")
	if idx <= 0 {
		return model.Fact{}, false
	}

	label := strings.Join(strings.Fields(line[:idx]), " ")
	value := strings.TrimSpace(line[idx+1:])

	if !validLabel(label) || value == "" {
		return model.Fact{}, false
	}
	// "https://..." splits on the scheme colon
	if strings.HasPrefix(value, "//") {
		return model.Fact{}, false
	}
	return model.Fact{Label: label, Value: value}, true
}

func validLabel(label string) bool {
	if label == "" || len(label) > maxLabelLen {
		return false
	}
	for _, r := range label {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
