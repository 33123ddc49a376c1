// Package classify identifies the vendor and booking categories of a fact sequence
package classify

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"strings"

	"github.com/ppiankov/itinera/internal/format"
	"github.com/ppiankov/itinera/internal/llm"
	"github.com/ppiankov/itinera/internal/model"
	"github.com/ppiankov/itinera/internal/rules"
	"github.com/shopspring/decimal"
)

// Tag identifies classifier calls in provider logs
const Tag = "classify"

// GenericVendor is the display name used when no vendor is recognized and nothing names one
const GenericVendor = "Generic"

const fallbackInstructions = `You classify travel booking facts. Return only a JSON object of the form
{"categories": ["flight"]}
Allowed categories: flight, tour, hotel, cruise, insurance, rail, profile.
Use profile only for a customer profile with no booking data. Return an empty list when unsure.`

// Hints are the optional caller-supplied classification inputs
type Hints struct {
	Vendor      string
	BookingType string
	FeeAmount   decimal.Decimal
}

// Classifier maps facts to a Classification. It never fails.
type Classifier struct {
	rules    *rules.Rules
	matchers []aliasMatcher
	client   llm.Completer // nil disables the provider fallback
	logger   *slog.Logger
}

// New creates a classifier. client and logger may be nil.
func New(r *rules.Rules, client llm.Completer, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{
		rules:    r,
		matchers: compileAliases(r),
		client:   client,
		logger:   logger,
	}
}

// Classify identifies the vendor, rule set and categories for facts.
// Identical facts and hints always produce an identical result.
func (c *Classifier) Classify(ctx context.Context, facts model.Facts, hints Hints) model.Classification {
	logger := c.logger.With("req_id", model.RequestID(ctx))

	hinted := model.ParseCategories(hints.BookingType)
	signalled := c.signalCategories(facts)

	vendor, matched := c.identify(facts, hints.Vendor)

	result := model.Classification{
		VendorName:  c.unmatchedName(facts, hints.Vendor),
		RuleSetKey:  rules.GenericRuleSet,
		FeeIncluded: hints.FeeAmount.IsPositive(),
	}
	if matched {
		result.VendorName = vendor.Display
		result.RuleSetKey = vendor.RuleSet
		if vendor.Group != "" {
			if binding, ok := c.resolveReseller(vendor.Group, facts, append(append([]model.Category(nil), signalled...), hinted...)); ok {
				result.VendorName = binding.Vendor
				result.RuleSetKey = binding.RuleSet
			}
		}
	}

	// tag order: the caller's hint, then document signals, then the vendor's category
	cats := append(append([]model.Category(nil), hinted...), signalled...)
	if matched && vendor.Implies != "" && vendor.Implies != model.CategoryFee {
		cats = append(cats, vendor.Implies)
	}
	cats = dropProfile(model.UniqueCategories(cats), hinted)

	if len(cats) == 0 && c.client != nil {
		cats = c.askProvider(ctx, logger, facts)
	}
	result.Categories = cats

	logger.Info("pipeline.classify.done",
		"vendor", result.VendorName,
		"rule_set", result.RuleSetKey,
		"categories", result.Categories,
		"fee", result.FeeIncluded,
	)
	return result
}

// identify runs the three alias tiers; the first tier with a match wins
func (c *Classifier) identify(facts model.Facts, hint string) (rules.Vendor, bool) {
	if v, ok := match(c.matchers, c.vendorValues(facts)); ok {
		return v, true
	}
	if strings.TrimSpace(hint) != "" {
		if v, ok := match(c.matchers, []string{hint}); ok {
			return v, true
		}
	}
	values := make([]string, 0, len(facts))
	for _, f := range facts {
		values = append(values, f.Value)
	}
	return match(c.matchers, values)
}

func (c *Classifier) vendorValues(facts model.Facts) []string {
	var values []string
	for _, f := range facts {
		if c.isVendorLabel(f.Label) {
			values = append(values, f.Value)
		}
	}
	return values
}

func (c *Classifier) isVendorLabel(label string) bool {
	label = model.CanonicalLabel(label)
	for _, vl := range c.rules.VendorLabels {
		vl = model.CanonicalLabel(vl)
		if label == vl || strings.HasPrefix(label, vl+" ") {
			return true
		}
	}
	return false
}

// unmatchedName is the vendor display name when no alias matched
func (c *Classifier) unmatchedName(facts model.Facts, hint string) string {
	if v := strings.TrimSpace(hint); v != "" {
		return format.Text(v)
	}
	if values := c.vendorValues(facts); len(values) > 0 {
		return format.Text(values[0])
	}
	return GenericVendor
}

// resolveReseller applies the reseller decision table:
// disclosed commission amount, else tour signal, else flight signal, else tour.
func (c *Classifier) resolveReseller(group string, facts model.Facts, signals []model.Category) (rules.Binding, bool) {
	rs, ok := c.rules.Reseller(group)
	if !ok {
		return rules.Binding{}, false
	}
	switch {
	case c.disclosesCommission(facts):
		return rs.Disclosed, true
	case slices.Contains(signals, model.CategoryTour):
		return rs.Tour, true
	case slices.Contains(signals, model.CategoryFlight):
		return rs.Flight, true
	default:
		return rs.Tour, true
	}
}

func (c *Classifier) disclosesCommission(facts model.Facts) bool {
	for _, label := range c.rules.CommissionLabels {
		for _, v := range facts.All(label) {
			if format.HasMoney(v) {
				return true
			}
		}
	}
	return false
}

func (c *Classifier) signalCategories(facts model.Facts) []model.Category {
	var cats []model.Category
	for _, label := range facts.Labels() {
		for _, cat := range model.DispatchOrder {
			if c.rules.MatchSignal(cat, label) {
				cats = append(cats, cat)
			}
		}
	}
	return model.UniqueCategories(cats)
}

// dropProfile removes profile when a booking category is present, unless it was hinted
func dropProfile(cats, hinted []model.Category) []model.Category {
	if len(cats) < 2 || !slices.Contains(cats, model.CategoryProfile) || slices.Contains(hinted, model.CategoryProfile) {
		return cats
	}
	out := make([]model.Category, 0, len(cats)-1)
	for _, cat := range cats {
		if cat != model.CategoryProfile {
			out = append(out, cat)
		}
	}
	return out
}

type providerCategories struct {
	Categories []string `json:"categories"`
}

// askProvider is the last resort when no signal fired. Failures yield no categories.
func (c *Classifier) askProvider(ctx context.Context, logger *slog.Logger, facts model.Facts) []model.Category {
	resp, err := c.client.Complete(ctx, llm.Request{
		Tag:       Tag,
		System:    fallbackInstructions,
		Parts:     []llm.Part{llm.TextPart(facts.String())},
		JSON:      true,
		MaxTokens: 256,
	})
	if err != nil {
		logger.Warn("classify.fallback.failed", "error", err)
		return nil
	}

	var out providerCategories
	if err := json.Unmarshal([]byte(llm.StripFences(resp.Text)), &out); err != nil {
		logger.Warn("classify.fallback.malformed", "error", err)
		return nil
	}

	var cats []model.Category
	for _, s := range out.Categories {
		if cat, ok := model.ParseCategory(s); ok && cat != model.CategoryFee {
			cats = append(cats, cat)
		}
	}
	return model.UniqueCategories(cats)
}
