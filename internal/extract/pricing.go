package extract

import (
	"fmt"
	"strings"

	"github.com/ppiankov/itinera/internal/format"
	"github.com/ppiankov/itinera/internal/model"
	"github.com/shopspring/decimal"
)

// pricing formats money fields for one request, converting when a rate is known
type pricing struct {
	e model.Enrichment
}

func newPricing(e model.Enrichment) pricing {
	return pricing{e: e}
}

// amount parses a printed amount and returns it converted, with two decimals.
// Unparseable input yields "".
func (p pricing) amount(raw string) string {
	d, ok := format.ParseMoney(raw)
	if !ok {
		return ""
	}
	return p.value(d)
}

// value converts and formats an already parsed amount
func (p pricing) value(d decimal.Decimal) string {
	if p.e.Rate != nil {
		d = p.e.Rate.Convert(d)
	}
	return format.Money(d.Round(2))
}

// commission is a commission figure in the form the document gave it
type commission struct {
	percent bool
	amount  decimal.Decimal // source currency unless percent
}

// parseCommission reads "4%", "$42.50" or "-75.00". Negative credits keep their sign.
func parseCommission(raw string) (commission, bool) {
	d, ok := format.ParseMoney(raw)
	if !ok {
		return commission{}, false
	}
	return commission{percent: strings.Contains(raw, "%"), amount: d}, true
}

// firstCommission returns the first parseable value of label, then the model's figure
func firstCommission(facts model.Facts, label string, stated Text) (commission, bool) {
	if label != "" {
		for _, v := range facts.All(label) {
			if c, ok := parseCommission(v); ok {
				return c, true
			}
		}
	}
	return parseCommission(string(stated))
}

// commissionText renders the screen value: a percentage as-is, an amount converted
func (p pricing) commissionText(c commission) string {
	if c.percent {
		return format.Percent(c.amount)
	}
	return p.value(c.amount)
}

// remarks builds the agentRemarks block for converted bookings.
// deposit and comm are source-currency values; either may be absent.
func (p pricing) remarks(deposit string, comm *commission) string {
	if p.e.Rate == nil {
		return ""
	}
	cur, target := p.e.Rate.From, p.e.Rate.To
	var lines []string
	if d, ok := format.ParseMoney(deposit); ok {
		lines = append(lines, fmt.Sprintf("DEPOSIT PAID: $%s %s", p.value(d), target))
	}
	if comm != nil && !comm.percent {
		lines = append(lines, fmt.Sprintf("COMMISSION: %s %s", format.Money(comm.amount), cur))
	}
	lines = append(lines,
		fmt.Sprintf("Invoiced in %s by Supplier", cur),
		fmt.Sprintf("Amounts in CB Converted to %s on %s @ rate of 1 %s : %s %s",
			target, format.Date(p.e.Today), cur, p.e.Rate.Rate.StringFixed(4), target),
	)
	return strings.Join(lines, "\n")
}

// dateOr normalizes a date, falling back to today when the document has none
func dateOr(raw Text, today string) string {
	if d := format.NormalizeDate(string(raw)); d != "" {
		return d
	}
	return today
}

// count reads a positive whole number such as "2" or "2 adults"
func count(raw Text) (int, bool) {
	d, ok := format.ParseMoney(string(raw))
	if !ok || !d.IsPositive() {
		return 0, false
	}
	return int(d.IntPart()), true
}

// countOr renders a count, or fallback when the value is absent
func countOr(raw Text, fallback int) string {
	if n, ok := count(raw); ok {
		return fmt.Sprint(n)
	}
	if fallback > 0 {
		return fmt.Sprint(fallback)
	}
	return ""
}

// daySpan is the inclusive day count between two printed dates, "" when either is missing
func daySpan(start, end Text) string {
	s, ok1 := format.ParseDate(string(start))
	e, ok2 := format.ParseDate(string(end))
	if !ok1 || !ok2 {
		return ""
	}
	return fmt.Sprint(format.DaysBetween(s, e))
}

// nightSpan is the night count between two printed dates, "" when either is missing
func nightSpan(start, end Text) string {
	s, ok1 := format.ParseDate(string(start))
	e, ok2 := format.ParseDate(string(end))
	if !ok1 || !ok2 || e.Before(s) {
		return ""
	}
	return fmt.Sprint(format.NightsBetween(s, e))
}

func texts(values []Text) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s := v.String(); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// unique drops repeated values, keeping the first
func unique(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := values[:0:0]
	for _, v := range values {
		key := strings.ToUpper(v)
		if !seen[key] {
			seen[key] = true
			out = append(out, v)
		}
	}
	return out
}
