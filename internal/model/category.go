package model

import (
	"slices"
	"strings"
)

// Category is a booking type with its own output schema
type Category string

const (
	CategoryFlight    Category = "flight"
	CategoryTour      Category = "tour"
	CategoryHotel     Category = "hotel"
	CategoryCruise    Category = "cruise"
	CategoryInsurance Category = "insurance"
	CategoryRail      Category = "rail"
	CategoryProfile   Category = "profile"
	CategoryFee       Category = "fee" // synthesized, never tagged by the classifier
)

// DispatchOrder lists every taggable category. Signals matched by one label are tagged in this order.
var DispatchOrder = []Category{
	CategoryFlight,
	CategoryTour,
	CategoryHotel,
	CategoryCruise,
	CategoryInsurance,
	CategoryRail,
	CategoryProfile,
}

var categoryAliases = map[string]Category{
	"flight":        CategoryFlight,
	"flights":       CategoryFlight,
	"air":           CategoryFlight,
	"tour":          CategoryTour,
	"day_tour":      CategoryTour,
	"land":          CategoryTour,
	"package":       CategoryTour,
	"hotel":         CategoryHotel,
	"cruise":        CategoryCruise,
	"insurance":     CategoryInsurance,
	"rail":          CategoryRail,
	"train":         CategoryRail,
	"profile":       CategoryProfile,
	"new_traveller": CategoryProfile,
	"traveller":     CategoryProfile,
	"fee":           CategoryFee,
	"service_fee":   CategoryFee,
}

// ParseCategory resolves a category tag or one of its accepted aliases
func ParseCategory(s string) (Category, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	c, ok := categoryAliases[key]
	return c, ok
}

// ParseCategories splits a hint such as "flight, tour" into known categories.
// Unknown tokens are ignored.
func ParseCategories(hint string) []Category {
	fields := strings.FieldsFunc(hint, func(r rune) bool {
		return r == ',' || r == ';' || r == '/' || r == '+' || r == ' '
	})
	var out []Category
	for _, f := range fields {
		if c, ok := ParseCategory(f); ok && c != CategoryFee {
			out = append(out, c)
		}
	}
	return UniqueCategories(out)
}

// UniqueCategories drops repeated categories, keeping the order each was first tagged in
func UniqueCategories(cats []Category) []Category {
	out := make([]Category, 0, len(cats))
	for _, c := range cats {
		if !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}
