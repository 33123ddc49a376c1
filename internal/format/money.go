package format

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// amountPattern tries a decimal-comma amount ("1.234,50", "12,50") before the dot form.
// Two digits after the comma, then a word boundary, keep "1,234" a thousands group.
var amountPattern = regexp.MustCompile(`(-|\()?\s*(?:[A-Za-z]{0,3}\s*[$€£¥]?\s*)?(?:(\d{1,3}(?:\.\d{3})*,\d{2})\b|(\d{1,3}(?:,\d{3})+|\d+)(\.\d+)?)`)

var currencyPattern = regexp.MustCompile(`\b([A-Z]{3})\b`)

// ParseMoney extracts the first amount from text such as "CAD $1,234.50", "-75.00" or "1.234,50 EUR"
func ParseMoney(s string) (decimal.Decimal, bool) {
	m := amountPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return decimal.Zero, false
	}
	num := strings.ReplaceAll(m[3], ",", "") + m[4]
	if m[2] != "" {
		num = strings.ReplaceAll(strings.ReplaceAll(m[2], ".", ""), ",", ".")
	}
	d, err := decimal.NewFromString(num)
	if err != nil {
		return decimal.Zero, false
	}
	if m[1] != "" {
		d = d.Neg()
	}
	return d, true
}

// HasMoney reports whether s carries an explicit money amount, as opposed to a bare percentage
func HasMoney(s string) bool {
	if _, ok := ParseMoney(s); !ok {
		return false
	}
	return !strings.Contains(s, "%")
}

// Money formats an amount with two decimals
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// NormalizeMoney rewrites an amount string to two decimals, or returns "" when none is present
func NormalizeMoney(s string) string {
	d, ok := ParseMoney(s)
	if !ok {
		return ""
	}
	return Money(d)
}

// Percent formats a commission percentage, e.g. 4 to "4%"
func Percent(d decimal.Decimal) string {
	return d.String() + "%"
}

// CurrencyCode finds a three-letter ISO 4217 code in s, e.g. "Currency: usd" or "EUR (Euro)"
func CurrencyCode(s string) (string, bool) {
	for _, m := range currencyPattern.FindAllStringSubmatch(strings.ToUpper(strings.TrimSpace(s)), -1) {
		if unit, err := currency.ParseISO(m[1]); err == nil {
			return unit.String(), true
		}
	}
	return "", false
}
