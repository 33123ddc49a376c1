package rules

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/ppiankov/itinera/internal/model"
	"gopkg.in/yaml.v3"
)

//go:embed default_rules.yaml
var defaultRules []byte

// DefaultYAML returns the embedded rule document
func DefaultYAML() []byte {
	return slices.Clone(defaultRules)
}

// Default parses the embedded rule document
func Default() (*Rules, error) {
	return Parse(defaultRules)
}

// Load reads a rule document from path, or the embedded one when path is empty
func Load(path string) (*Rules, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Parse decodes and validates a rule document. Unknown keys are rejected.
func Parse(data []byte) (*Rules, error) {
	var r Rules
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Validate checks the cross references of a rule document
func (r *Rules) Validate() error {
	var errs []error

	keys := make(map[string]bool, len(r.Vendors))
	groups := make(map[string]bool)
	for i, v := range r.Vendors {
		switch {
		case v.Key == "":
			errs = append(errs, fmt.Errorf("vendors[%d]: key is required", i))
			continue
		case keys[v.Key]:
			errs = append(errs, fmt.Errorf("vendor %s: duplicate key", v.Key))
		}
		keys[v.Key] = true
		if v.Display == "" {
			errs = append(errs, fmt.Errorf("vendor %s: display is required", v.Key))
		}
		if v.RuleSet == "" {
			errs = append(errs, fmt.Errorf("vendor %s: rule_set is required", v.Key))
		}
		if len(v.Aliases) == 0 {
			errs = append(errs, fmt.Errorf("vendor %s: at least one alias is required", v.Key))
		}
		if v.Implies != "" && !knownCategory(v.Implies) {
			errs = append(errs, fmt.Errorf("vendor %s: unknown implied category %q", v.Key, v.Implies))
		}
		if v.Group != "" {
			groups[v.Group] = true
		}
		for _, cat := range v.RulesFor {
			if !r.hasRuleSet(cat, v.RuleSet) {
				errs = append(errs, fmt.Errorf("vendor %s: %w: no %s rule set %q", v.Key, model.ErrMissingRule, cat, v.RuleSet))
			}
		}
	}

	for _, key := range r.Precedence {
		if !keys[key] {
			errs = append(errs, fmt.Errorf("precedence: unknown vendor %q", key))
		}
	}

	for _, rs := range r.Resellers {
		if !groups[rs.Group] {
			errs = append(errs, fmt.Errorf("reseller %s: no vendor belongs to this group", rs.Group))
		}
		for name, b := range map[string]Binding{"disclosed": rs.Disclosed, "tour": rs.Tour, "flight": rs.Flight} {
			if b.Vendor == "" || b.RuleSet == "" {
				errs = append(errs, fmt.Errorf("reseller %s: %s binding needs vendor and rule_set", rs.Group, name))
			}
		}
	}

	for cat := range r.Signals {
		if !knownCategory(cat) {
			errs = append(errs, fmt.Errorf("signals: unknown category %q", cat))
		}
	}

	for _, cat := range []model.Category{model.CategoryFlight, model.CategoryTour, model.CategoryHotel, model.CategoryCruise, model.CategoryRail} {
		def := r.defaultKey(cat)
		if def == "" || !r.hasRuleSet(cat, def) {
			errs = append(errs, fmt.Errorf("%s: %w: default rule set %q is not defined", cat, model.ErrMissingRule, def))
		}
	}

	for key, fs := range r.Flight.RuleSets {
		errs = append(errs, fs.validate(key)...)
	}
	for key, ts := range r.Tour.RuleSets {
		if ts.Layout != LayoutStandard && ts.Layout != LayoutDayTour {
			errs = append(errs, fmt.Errorf("tour rule set %s: unknown layout %q", key, ts.Layout))
		}
	}

	if r.Regions.Home == "" || r.Regions.Default == "" {
		errs = append(errs, errors.New("regions: home and default are required"))
	}

	return errors.Join(errs...)
}

func (fs FlightRuleSet) validate(key string) []error {
	var errs []error
	switch fs.Mode {
	case ModePercentage:
		if fs.TieBreak != TieLowest && fs.TieBreak != TieHighest {
			errs = append(errs, fmt.Errorf("flight rule set %s: tie_break must be lowest or highest, got %q", key, fs.TieBreak))
		}
		if len(fs.Rates) == 0 {
			errs = append(errs, fmt.Errorf("flight rule set %s: percentage mode needs rates", key))
		}
	case ModeVerbatim, ModeAsShown:
		if fs.CommissionLabel == "" {
			errs = append(errs, fmt.Errorf("flight rule set %s: commission_label is required", key))
		}
	case ModeCredit:
		if fs.CreditLabel == "" {
			errs = append(errs, fmt.Errorf("flight rule set %s: credit_label is required", key))
		}
	default:
		errs = append(errs, fmt.Errorf("flight rule set %s: unknown mode %q", key, fs.Mode))
	}
	for i, rate := range fs.Rates {
		if rate.Percent.IsNegative() || rate.Percent.GreaterThan(hundred) {
			errs = append(errs, fmt.Errorf("flight rule set %s: rates[%d]: percent out of range", key, i))
		}
		if rate.Partner != "" && rate.Partner != PartnerJV && rate.Partner != PartnerInterline {
			errs = append(errs, fmt.Errorf("flight rule set %s: rates[%d]: unknown partner %q", key, i, rate.Partner))
		}
	}
	return errs
}

// RuleSetFor resolves the rule set key a category extractor should use.
// An unknown key falls back to the category default. A vendor that declares
// rules for the category without a matching table entry is a configuration defect.
func (r *Rules) RuleSetFor(cat model.Category, key string) (string, error) {
	if key != "" && r.hasRuleSet(cat, key) {
		return key, nil
	}
	if key != "" {
		for _, v := range r.Vendors {
			if v.RuleSet == key && slices.Contains(v.RulesFor, cat) {
				return "", fmt.Errorf("%w: vendor %s declares %s rules under %q", model.ErrMissingRule, v.Key, cat, key)
			}
		}
	}
	def := r.defaultKey(cat)
	if def == "" || !r.hasRuleSet(cat, def) {
		return "", fmt.Errorf("%w: no default %s rule set", model.ErrMissingRule, cat)
	}
	return def, nil
}

// FlightSet returns the flight rule set for a classification key
func (r *Rules) FlightSet(key string) (FlightRuleSet, string, error) {
	resolved, err := r.RuleSetFor(model.CategoryFlight, key)
	if err != nil {
		return FlightRuleSet{}, "", err
	}
	return r.Flight.RuleSets[resolved], resolved, nil
}

// TourSet returns the tour rule set for a classification key
func (r *Rules) TourSet(key string) (TourRuleSet, string, error) {
	resolved, err := r.RuleSetFor(model.CategoryTour, key)
	if err != nil {
		return TourRuleSet{}, "", err
	}
	return r.Tour.RuleSets[resolved], resolved, nil
}

// HotelSet returns the hotel rule set for a classification key
func (r *Rules) HotelSet(key string) (HotelRuleSet, string, error) {
	resolved, err := r.RuleSetFor(model.CategoryHotel, key)
	if err != nil {
		return HotelRuleSet{}, "", err
	}
	return r.Hotel.RuleSets[resolved], resolved, nil
}

// CruiseSet returns the cruise rule set for a classification key
func (r *Rules) CruiseSet(key string) (CruiseRuleSet, string, error) {
	resolved, err := r.RuleSetFor(model.CategoryCruise, key)
	if err != nil {
		return CruiseRuleSet{}, "", err
	}
	return r.Cruise.RuleSets[resolved], resolved, nil
}

// RailSet returns the rail rule set for a classification key
func (r *Rules) RailSet(key string) (RailRuleSet, string, error) {
	resolved, err := r.RuleSetFor(model.CategoryRail, key)
	if err != nil {
		return RailRuleSet{}, "", err
	}
	return r.Rail.RuleSets[resolved], resolved, nil
}

// Vendor looks up a vendor by key
func (r *Rules) Vendor(key string) (Vendor, bool) {
	for _, v := range r.Vendors {
		if v.Key == key {
			return v, true
		}
	}
	return Vendor{}, false
}

// Reseller returns the decision table for a reseller group
func (r *Rules) Reseller(group string) (Reseller, bool) {
	for _, rs := range r.Resellers {
		if rs.Group == group {
			return rs, true
		}
	}
	return Reseller{}, false
}

// Rank orders vendors by configured precedence; unlisted vendors rank last
func (r *Rules) Rank(key string) int {
	if i := slices.Index(r.Precedence, key); i >= 0 {
		return i
	}
	return len(r.Precedence)
}

// MatchSignal reports whether a fact label matches one of a category's signal patterns
func (r *Rules) MatchSignal(cat model.Category, label string) bool {
	label = model.CanonicalLabel(label)
	for _, pattern := range r.Signals[cat] {
		if matchLabel(pattern, label) {
			return true
		}
	}
	return false
}

func matchLabel(pattern, label string) bool {
	pattern = model.CanonicalLabel(pattern)
	prefix, wildcard := strings.CutSuffix(pattern, "*")
	if !wildcard {
		return label == pattern
	}
	prefix = strings.TrimSpace(prefix)
	if !strings.HasPrefix(label, prefix) {
		return false
	}
	// word prefix: "ROOM*" matches "ROOM TYPE" but not "ROOMMATE"
	rest := label[len(prefix):]
	return rest == "" || rest[0] == ' ' || rest[0] == '-' || rest[0] == '/' || rest[0] == '('
}

func (r *Rules) hasRuleSet(cat model.Category, key string) bool {
	var ok bool
	switch cat {
	case model.CategoryFlight:
		_, ok = r.Flight.RuleSets[key]
	case model.CategoryTour:
		_, ok = r.Tour.RuleSets[key]
	case model.CategoryHotel:
		_, ok = r.Hotel.RuleSets[key]
	case model.CategoryCruise:
		_, ok = r.Cruise.RuleSets[key]
	case model.CategoryRail:
		_, ok = r.Rail.RuleSets[key]
	}
	return ok
}

func (r *Rules) defaultKey(cat model.Category) string {
	switch cat {
	case model.CategoryFlight:
		return r.Flight.Default
	case model.CategoryTour:
		return r.Tour.Default
	case model.CategoryHotel:
		return r.Hotel.Default
	case model.CategoryCruise:
		return r.Cruise.Default
	case model.CategoryRail:
		return r.Rail.Default
	}
	return ""
}

func knownCategory(c model.Category) bool {
	return slices.Contains(model.DispatchOrder, c)
}
