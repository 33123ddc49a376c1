package normalize

import (
	"regexp"
	"strings"

	"github.com/ppiankov/itinera/internal/model"
)

// PassengerLabel is the single label every person fact is rewritten to
const PassengerLabel = "Passenger"

var (
	personLabel = regexp.MustCompile(`(?i)^(?:lead |additional |primary )?(passenger|traveller|traveler|guest|pax)(s)?(?: name(s)?)?(?: ?(?:#\s*)?\d{1,2}| (?:one|two|three|four|five|six|seven|eight|nine|ten|1st|2nd|3rd|\d+th))?$`)
	countValue  = regexp.MustCompile(`(?i)^\d+(?:\s*(?:adults?|children|child|infants?|pax|passengers?|travell?ers?|guests?|persons?|people))?(?:\s*(?:,|and|&)\s*\d+\s*(?:adults?|children|child|infants?))*$`)
	pluralSplit = regexp.MustCompile(`\s*(?:,|\s&\s|\sand\s)\s*`)
	listSplit   = regexp.MustCompile(`\s*[;\n]\s*`)
)

// StandardizePassengers rewrites every person label to Passenger, one fact per person.
// Values that are head counts are left under their original label.
func StandardizePassengers(facts model.Facts) model.Facts {
	out := make(model.Facts, 0, len(facts))
	for _, f := range facts {
		m := personLabel.FindStringSubmatch(strings.TrimSpace(f.Label))
		if m == nil || countValue.MatchString(strings.TrimSpace(f.Value)) {
			out = append(out, f)
			continue
		}
		plural := m[2] != "" || m[3] != "" || strings.EqualFold(m[1], "pax")
		for _, name := range splitPeople(f.Value, plural) {
			out = append(out, model.Fact{Label: PassengerLabel, Value: name})
		}
	}
	return out
}

func splitPeople(value string, plural bool) []string {
	var names []string
	for _, chunk := range listSplit.Split(value, -1) {
		parts := []string{chunk}
		if plural {
			parts = pluralSplit.Split(chunk, -1)
		}
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				names = append(names, p)
			}
		}
	}
	return names
}
