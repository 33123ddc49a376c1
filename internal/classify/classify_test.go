package classify

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/ppiankov/itinera/internal/llm/llmtest"
	"github.com/ppiankov/itinera/internal/model"
	"github.com/ppiankov/itinera/internal/rules"
	"github.com/shopspring/decimal"
)

func defaultRules(t *testing.T) *rules.Rules {
	t.Helper()
	r, err := rules.Default()
	if err != nil {
		t.Fatalf("load default rules: %v", err)
	}
	return r
}

func facts(pairs ...string) model.Facts {
	var f model.Facts
	for i := 0; i+1 < len(pairs); i += 2 {
		f = append(f, model.Fact{Label: pairs[i], Value: pairs[i+1]})
	}
	return f
}

func TestClassify(t *testing.T) {
	c := New(defaultRules(t), nil, nil)

	tests := []struct {
		name       string
		facts      model.Facts
		hints      Hints
		wantVendor string
		wantRule   string
		wantCats   []model.Category
	}{
		{
			name:       "air canada from vendor label",
			facts:      facts("Vendor", "Air Canada", "Flight Number", "AC 123"),
			wantVendor: "Air Canada Internet",
			wantRule:   "air_canada",
			wantCats:   []model.Category{model.CategoryFlight},
		},
		{
			name:       "reseller with disclosed commission",
			facts:      facts("Vendor", "Travel Brands", "Flight Number", "TS 110", "Commission", "$42.50"),
			wantVendor: "ADX",
			wantRule:   "adx_intair",
			wantCats:   []model.Category{model.CategoryFlight},
		},
		{
			name:       "reseller air and land package resolves to tour binding",
			facts:      facts("Vendor", "Travel Brands", "Flight Number", "TS 110", "Tour Name", "Cuba Explorer"),
			wantVendor: "Travel Brands",
			wantRule:   "travel_brands",
			wantCats:   []model.Category{model.CategoryFlight, model.CategoryTour},
		},
		{
			name:       "reseller flight only",
			facts:      facts("Supplier", "Intair Vacations", "Flight Number", "TS 110"),
			wantVendor: "Intair",
			wantRule:   "travel_brands",
			wantCats:   []model.Category{model.CategoryFlight},
		},
		{
			name:       "percentage is not a disclosed amount",
			facts:      facts("Vendor", "Travel Brands", "Flight Number", "TS 110", "Commission", "8%"),
			wantVendor: "Intair",
			wantRule:   "travel_brands",
			wantCats:   []model.Category{model.CategoryFlight},
		},
		{
			name:       "reseller without signals defaults to tour binding",
			facts:      facts("Vendor", "Travel Brands", "Reference", "TB-1"),
			wantVendor: "Travel Brands",
			wantRule:   "travel_brands",
		},
		{
			name:       "precedence inside one tier",
			facts:      facts("Booked Through", "Expedia TAAP - Air Canada", "Hotel Name", "Fairmont"),
			wantVendor: "Expedia TAAP",
			wantRule:   "expedia",
			wantCats:   []model.Category{model.CategoryHotel},
		},
		{
			name:       "vendor label beats other values",
			facts:      facts("Notes", "Connects with Air Canada", "Vendor", "WestJet"),
			wantVendor: "Westjet Internet",
			wantRule:   "westjet",
			wantCats:   []model.Category{model.CategoryFlight},
		},
		{
			name:       "hint beats other values",
			facts:      facts("Notes", "Pickup near Air Canada Centre", "Activity Date", "May 3, 2025"),
			hints:      Hints{Vendor: "Viator"},
			wantVendor: "Viator on Line",
			wantRule:   "viator",
			wantCats:   []model.Category{model.CategoryTour},
		},
		{
			name:       "implied category",
			facts:      facts("Policy Number", "ABC-123456", "Insurer", "Manulife Financial"),
			wantVendor: "Manulife Insurance",
			wantRule:   "generic",
			wantCats:   []model.Category{model.CategoryInsurance},
		},
		{
			name:       "unknown vendor falls back to generic",
			facts:      facts("Operator", "Bob's Adventures", "Cruise Ship", "Sea Breeze"),
			wantVendor: "Bob's Adventures",
			wantRule:   "generic",
			wantCats:   []model.Category{model.CategoryCruise},
		},
		{
			name:       "nothing at all",
			facts:      facts("Reference", "12345"),
			wantVendor: GenericVendor,
			wantRule:   "generic",
		},
		{
			name:       "short alias is case sensitive",
			facts:      facts("Notes", "padx adx", "Flight Number", "TS 1"),
			wantVendor: GenericVendor,
			wantRule:   "generic",
			wantCats:   []model.Category{model.CategoryFlight},
		},
		{
			name:       "profile dropped next to a booking",
			facts:      facts("Date of Birth", "01/02/1980", "Hotel Name", "Fairmont"),
			wantVendor: GenericVendor,
			wantRule:   "generic",
			wantCats:   []model.Category{model.CategoryHotel},
		},
		{
			name:       "hinted profile kept",
			facts:      facts("Date of Birth", "01/02/1980", "Hotel Name", "Fairmont"),
			hints:      Hints{BookingType: "hotel, new_traveller"},
			wantVendor: GenericVendor,
			wantRule:   "generic",
			wantCats:   []model.Category{model.CategoryHotel, model.CategoryProfile},
		},
		{
			name:       "profile alone",
			facts:      facts("Passport Number", "GA123456", "Citizenship", "Canada"),
			wantVendor: GenericVendor,
			wantRule:   "generic",
			wantCats:   []model.Category{model.CategoryProfile},
		},
		{
			name:       "hint adds categories",
			facts:      facts("Vendor", "VIA Rail Canada"),
			hints:      Hints{BookingType: "train hotel"},
			wantVendor: "VIA Rail Canada",
			wantRule:   "generic",
			wantCats:   []model.Category{model.CategoryRail, model.CategoryHotel},
		},
		{
			name:       "hint order leads",
			facts:      facts("Flight Number", "TS 110", "Tour Name", "Cuba Explorer"),
			hints:      Hints{BookingType: "tour, flight"},
			wantVendor: GenericVendor,
			wantRule:   "generic",
			wantCats:   []model.Category{model.CategoryTour, model.CategoryFlight},
		},
		{
			name:       "signals keep document order",
			facts:      facts("Hotel Name", "Fairmont", "Flight Number", "TS 110"),
			wantVendor: GenericVendor,
			wantRule:   "generic",
			wantCats:   []model.Category{model.CategoryHotel, model.CategoryFlight},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(context.Background(), tt.facts, tt.hints)
			if got.VendorName != tt.wantVendor {
				t.Errorf("vendor = %q, want %q", got.VendorName, tt.wantVendor)
			}
			if got.RuleSetKey != tt.wantRule {
				t.Errorf("rule set = %q, want %q", got.RuleSetKey, tt.wantRule)
			}
			if len(got.Categories) != len(tt.wantCats) || (len(tt.wantCats) > 0 && !reflect.DeepEqual(got.Categories, tt.wantCats)) {
				t.Errorf("categories = %v, want %v", got.Categories, tt.wantCats)
			}
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	c := New(defaultRules(t), nil, nil)
	f := facts(
		"Vendor", "Travel Brands / Intair / ADX",
		"Flight Number", "TS 110",
		"Land Package", "Riviera Maya",
		"Commission", "CAD 120.00",
	)

	first := c.Classify(context.Background(), f, Hints{})
	if first.VendorName != "ADX" || first.RuleSetKey != "adx_intair" {
		t.Fatalf("unexpected classification %+v", first)
	}
	for i := 0; i < 50; i++ {
		if got := c.Classify(context.Background(), f, Hints{}); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs: %+v vs %+v", i, got, first)
		}
	}
}

func TestClassify_FeeIncluded(t *testing.T) {
	c := New(defaultRules(t), nil, nil)
	tests := []struct {
		fee  decimal.Decimal
		want bool
	}{
		{decimal.Zero, false},
		{decimal.NewFromInt(-5), false},
		{decimal.RequireFromString("150.00"), true},
	}
	for _, tt := range tests {
		got := c.Classify(context.Background(), facts("Hotel Name", "Fairmont"), Hints{FeeAmount: tt.fee})
		if got.FeeIncluded != tt.want {
			t.Errorf("fee %s: FeeIncluded = %v, want %v", tt.fee, got.FeeIncluded, tt.want)
		}
	}
}

func TestClassify_ProviderFallback(t *testing.T) {
	provider := llmtest.New().Reply(Tag, "```json\n{\"categories\": [\"cruise\", \"fee\", \"spaceship\"]}\n```")
	c := New(defaultRules(t), provider, nil)

	got := c.Classify(context.Background(), facts("Reference", "12345"), Hints{})
	if !reflect.DeepEqual(got.Categories, []model.Category{model.CategoryCruise}) {
		t.Errorf("categories = %v, want [cruise]", got.Categories)
	}

	// no fallback call when signals already fired
	c.Classify(context.Background(), facts("Hotel Name", "Fairmont"), Hints{})
	if n := provider.CallCount(Tag); n != 1 {
		t.Errorf("provider calls = %d, want 1", n)
	}
}

func TestClassify_ProviderFallbackFailureIgnored(t *testing.T) {
	tests := []struct {
		name     string
		provider *llmtest.Provider
	}{
		{"error", llmtest.New().Fail(Tag, errors.New("overloaded"))},
		{"malformed", llmtest.New().Reply(Tag, "cruise, probably")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(defaultRules(t), tt.provider, nil).Classify(context.Background(), facts("Reference", "12345"), Hints{})
			if len(got.Categories) != 0 || got.RuleSetKey != "generic" {
				t.Errorf("unexpected classification %+v", got)
			}
		})
	}
}
