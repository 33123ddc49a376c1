package rules

import (
	"slices"
	"strings"

	"github.com/ppiankov/itinera/internal/model"
	"github.com/shopspring/decimal"
)

// Partner kinds for international rate rows
const (
	PartnerJV        = "jv"
	PartnerInterline = "interline"
)

var hundred = decimal.NewFromInt(100)

// Leg is the subset of a flight segment the commission table looks at
type Leg struct {
	Carrier   string // Operating carrier code, e.g. "AC"
	Class     string // Booking class (RBD), e.g. "Y"
	FareBasis string
	Region    string // One of the Region* constants, empty when unknown
}

// Region classifies a leg by the country codes of its two airports
func (g Regions) Region(fromCountry, toCountry string) string {
	from := strings.ToUpper(strings.TrimSpace(fromCountry))
	to := strings.ToUpper(strings.TrimSpace(toCountry))
	if from == "" || to == "" {
		return ""
	}
	if from == g.Home && to == g.Home {
		return RegionDomestic
	}
	near := func(c string) bool { return c == g.Home || slices.Contains(g.Transborder, c) }
	if near(from) && near(to) {
		return RegionTransborder
	}
	far := to
	if near(to) {
		far = from
	}
	for region, codes := range g.Countries {
		if slices.Contains(codes, far) {
			return region
		}
	}
	return g.Default
}

// Evaluate applies the rate table to every leg and resolves mixed rates with the tie-break.
// It reports false when no leg matched any row.
func (fs FlightRuleSet) Evaluate(legs []Leg) (decimal.Decimal, bool) {
	considered := legs
	if fs.IgnoreFeederLegs {
		var intl []Leg
		for _, l := range legs {
			if slices.Contains(fs.International, l.Region) {
				intl = append(intl, l)
			}
		}
		if len(intl) > 0 {
			considered = intl
		}
	}

	var (
		best  decimal.Decimal
		found bool
	)
	for _, l := range considered {
		pct, ok := fs.legRate(l)
		if !ok {
			continue
		}
		switch {
		case !found:
			best = pct
		case fs.TieBreak == TieHighest && pct.GreaterThan(best):
			best = pct
		case fs.TieBreak != TieHighest && pct.LessThan(best):
			best = pct
		}
		found = true
	}
	return best, found
}

func (fs FlightRuleSet) legRate(l Leg) (decimal.Decimal, bool) {
	class := strings.ToUpper(strings.TrimSpace(l.Class))
	fareBasis := strings.ToUpper(strings.TrimSpace(l.FareBasis))
	for _, row := range fs.Rates {
		if len(row.Regions) > 0 && !slices.Contains(row.Regions, l.Region) {
			continue
		}
		if len(row.Classes) > 0 && !slices.Contains(row.Classes, class) {
			continue
		}
		if len(row.FareBasisSuffixes) > 0 && !hasAnySuffix(fareBasis, row.FareBasisSuffixes) {
			continue
		}
		if row.Partner != "" && row.Partner != fs.partnerKind(l) {
			continue
		}
		return row.Percent, true
	}
	return decimal.Zero, false
}

func (fs FlightRuleSet) partnerKind(l Leg) string {
	if slices.Contains(fs.Partners[l.Region], strings.ToUpper(strings.TrimSpace(l.Carrier))) {
		return PartnerJV
	}
	return PartnerInterline
}

// ForcedZero reports whether the booking channel forces a 0% commission
func (fs FlightRuleSet) ForcedZero(facts model.Facts) bool {
	if len(fs.ZeroChannels) == 0 {
		return false
	}
	var values []string
	for _, label := range fs.ChannelLabels {
		values = append(values, facts.All(label)...)
	}
	for _, v := range values {
		lv := strings.ToLower(v)
		for _, ch := range fs.ZeroChannels {
			if strings.Contains(lv, strings.ToLower(ch)) {
				return true
			}
		}
	}
	return false
}

// TourCodeMissing reports whether an itinerary needs the tour code and the document lacks it
func (fs FlightRuleSet) TourCodeMissing(facts model.Facts, legs []Leg) bool {
	tc := fs.TourCode
	if tc == nil || tc.Code == "" {
		return false
	}
	required := false
	for _, l := range legs {
		if l.Region != "" && !slices.Contains(tc.ExemptRegions, l.Region) {
			required = true
			break
		}
	}
	if !required {
		return false
	}
	code := strings.ToUpper(tc.Code)
	for _, label := range tc.Labels {
		for _, v := range facts.All(label) {
			if strings.Contains(strings.ToUpper(v), code) {
				return false
			}
		}
	}
	return true
}

func hasAnySuffix(s string, suffixes []string) bool {
	if s == "" {
		return false
	}
	for _, suf := range suffixes {
		if strings.HasSuffix(s, strings.ToUpper(suf)) {
			return true
		}
	}
	return false
}
