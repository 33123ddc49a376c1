package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Classification is the vendor identity and category tags for one request.
// It is produced once by the classifier and only read afterwards.
type Classification struct {
	VendorName  string     `json:"vendor_name"`  // Display name, e.g. "Air Canada Internet"
	RuleSetKey  string     `json:"rule_set_key"` // Selects a vendor rule table inside each category
	Categories  []Category `json:"categories"`   // Tagged categories in dispatch order
	FeeIncluded bool       `json:"fee_included"` // Fee sections are synthesized when true
}

// Has reports whether c was tagged
func (c Classification) Has(cat Category) bool {
	for _, t := range c.Categories {
		if t == cat {
			return true
		}
	}
	return false
}

// ConversionRate converts one unit of From into Rate units of To
type ConversionRate struct {
	From string          `json:"from"`
	To   string          `json:"to"`
	Rate decimal.Decimal `json:"rate"`
	AsOf time.Time       `json:"as_of"`
}

// Convert applies the rate to an amount in the source currency
func (r ConversionRate) Convert(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(r.Rate)
}

// Enrichment holds the values computed once per request and shared by all extractors
type Enrichment struct {
	Currency string          // Source document currency (ISO code)
	Target   string          // Target currency, normally CAD
	Rate     *ConversionRate // nil when no conversion applies or the rate is unavailable
	Today    time.Time       // Fixed for the whole request
}

// Foreign reports whether the document is priced outside the target currency
func (e Enrichment) Foreign() bool {
	return e.Currency != "" && e.Target != "" && e.Currency != e.Target
}
