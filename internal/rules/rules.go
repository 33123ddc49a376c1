package rules

import (
	"github.com/ppiankov/itinera/internal/model"
	"github.com/shopspring/decimal"
)

// Regions used by route-keyed rate tables
const (
	RegionDomestic      = "domestic"
	RegionTransborder   = "transborder"
	RegionSun           = "sun"
	RegionSouthAmerica  = "south_america"
	RegionTransatlantic = "transatlantic"
	RegionMainlandChina = "mainland_china"
	RegionTranspacific  = "transpacific"
)

// GenericRuleSet is the rule set key used when nothing specific applies
const GenericRuleSet = "generic"

// Rules is the complete vendor and category rule document.
// It is loaded once at start-up and never mutated afterwards.
type Rules struct {
	Precedence       []string                      `yaml:"precedence"`        // Vendor keys, strongest first
	VendorLabels     []string                      `yaml:"vendor_labels"`     // Labels whose values name the issuing vendor
	CommissionLabels []string                      `yaml:"commission_labels"` // Labels that disclose a literal commission amount
	CurrencyLabels   []string                      `yaml:"currency_labels"`
	Vendors          []Vendor                      `yaml:"vendors"`
	Resellers        []Reseller                    `yaml:"resellers"`
	Signals          map[model.Category][]string   `yaml:"signals"` // Label patterns; a trailing * matches by word prefix
	Regions          Regions                       `yaml:"regions"`
	Flight           FlightRules                   `yaml:"flight"`
	Tour             TourRules                     `yaml:"tour"`
	Hotel            HotelRules                    `yaml:"hotel"`
	Cruise           CruiseRules                   `yaml:"cruise"`
	Insurance        InsuranceRules                `yaml:"insurance"`
	Rail             RailRules                     `yaml:"rail"`
	Fee              FeeRules                      `yaml:"fee"`
}

// Vendor is one known supplier with its trade-name aliases
type Vendor struct {
	Key      string           `yaml:"key"`
	Display  string           `yaml:"display"`
	RuleSet  string           `yaml:"rule_set"`
	Aliases  []string         `yaml:"aliases"`
	Implies  model.Category   `yaml:"implies,omitempty"`   // Category the vendor alone signals
	Group    string           `yaml:"group,omitempty"`     // Reseller group sharing one underlying relationship
	RulesFor []model.Category `yaml:"rules_for,omitempty"` // Categories that must carry a table entry for RuleSet
}

// Binding is the vendor identity a reseller decision resolves to
type Binding struct {
	Vendor  string `yaml:"vendor"`
	RuleSet string `yaml:"rule_set"`
}

// Reseller is the decision table for vendors sharing a reseller relationship
type Reseller struct {
	Group     string  `yaml:"group"`
	Disclosed Binding `yaml:"disclosed"` // explicit commission amount present
	Tour      Binding `yaml:"tour"`      // no commission amount, tour/land signal
	Flight    Binding `yaml:"flight"`    // no commission amount, flight signal
}

// Regions maps country codes to route regions
type Regions struct {
	Home        string              `yaml:"home"`        // Country treated as domestic
	Transborder []string            `yaml:"transborder"` // Countries that stay transborder with Home
	Countries   map[string][]string `yaml:"countries"`   // Region name to ISO country codes
	Default     string              `yaml:"default"`     // Region for any other country
}

// CommissionMode selects how a flight rule set arrives at a commission
type CommissionMode string

const (
	ModePercentage CommissionMode = "percentage" // class/route table
	ModeVerbatim   CommissionMode = "verbatim"   // explicit dollar figure used as-is
	ModeCredit     CommissionMode = "credit"     // absolute value of a negative credit line
	ModeAsShown    CommissionMode = "as_shown"   // whatever the document shows
)

// TieBreak resolves mixed rates across legs
type TieBreak string

const (
	TieLowest  TieBreak = "lowest"
	TieHighest TieBreak = "highest"
)

// FlightRules is the flight rule table keyed by rule set
type FlightRules struct {
	Default  string                   `yaml:"default"`
	RuleSets map[string]FlightRuleSet `yaml:"rule_sets"`
}

// FlightRuleSet is one vendor's flight commission and formatting policy
type FlightRuleSet struct {
	Mode             CommissionMode      `yaml:"mode"`
	TieBreak         TieBreak            `yaml:"tie_break,omitempty"`
	Ticketing        bool                `yaml:"ticketing,omitempty"` // totals live on the passenger screen
	IgnoreFeederLegs bool                `yaml:"ignore_feeder_legs,omitempty"`
	International    []string            `yaml:"international,omitempty"` // Regions that make a leg international
	ZeroChannels     []string            `yaml:"zero_channels,omitempty"` // Booking channels that force 0%
	ChannelLabels    []string            `yaml:"channel_labels,omitempty"`
	CommissionLabel  string              `yaml:"commission_label,omitempty"`
	CreditLabel      string              `yaml:"credit_label,omitempty"`
	Partners         map[string][]string `yaml:"partners,omitempty"` // Region to joint-venture carrier codes
	Rates            []RateRule          `yaml:"rates,omitempty"`
	TourCode         *TourCodeRule       `yaml:"tour_code,omitempty"`
	Locators         Locators            `yaml:"locators,omitempty"`
}

// RateRule is one row of a class/route commission table. Empty constraints match anything.
type RateRule struct {
	Regions           []string        `yaml:"regions,omitempty"`
	Classes           []string        `yaml:"classes,omitempty"`
	FareBasisSuffixes []string        `yaml:"fare_basis_suffixes,omitempty"`
	Partner           string          `yaml:"partner,omitempty"` // jv or interline
	Percent           decimal.Decimal `yaml:"percent"`
}

// TourCodeRule requires a tour code on itineraries outside the exempt regions
type TourCodeRule struct {
	Code          string   `yaml:"code"`
	Labels        []string `yaml:"labels"`
	ExemptRegions []string `yaml:"exempt_regions"`
	Remark        string   `yaml:"remark"`
}

// Locators maps screen locator fields to document labels that override model output
type Locators struct {
	ConfirmationNumber string `yaml:"confirmation_number,omitempty"`
	RecordLocator      string `yaml:"record_locator,omitempty"`
	TicketNumber       string `yaml:"ticket_number,omitempty"`
}

// TourRules is the tour rule table keyed by rule set
type TourRules struct {
	Default  string                 `yaml:"default"`
	RuleSets map[string]TourRuleSet `yaml:"rule_sets"`
}

// Tour layouts
const (
	LayoutStandard = "standard"
	LayoutDayTour  = "day_tour"
)

// TourRuleSet is one vendor's tour policy
type TourRuleSet struct {
	Layout                     string           `yaml:"layout"`
	Vendor                     string           `yaml:"vendor,omitempty"` // Fixed vendor display name
	CommissionLabel            string           `yaml:"commission_label,omitempty"`
	DefaultCommissionPercent   *decimal.Decimal `yaml:"default_commission_percent,omitempty"`
	CommissionInSourceCurrency bool             `yaml:"commission_in_source_currency,omitempty"`
	ConfirmationPrefix         string           `yaml:"confirmation_prefix,omitempty"`
}

// HotelRules is the hotel rule table keyed by rule set
type HotelRules struct {
	Default         string                  `yaml:"default"`
	DefaultCheckIn  string                  `yaml:"default_check_in"`
	DefaultCheckOut string                  `yaml:"default_check_out"`
	RuleSets        map[string]HotelRuleSet `yaml:"rule_sets"`
}

// HotelRuleSet is one vendor's hotel amount policy
type HotelRuleSet struct {
	BaseFromSubtotal    bool     `yaml:"base_from_subtotal,omitempty"` // base = subtotal - taxes & fees
	CommissionLabel     string   `yaml:"commission_label,omitempty"`
	DueAtPropertyLabels []string `yaml:"due_at_property_labels,omitempty"`
}

// CruiseRules is the cruise rule table keyed by rule set
type CruiseRules struct {
	Default  string                   `yaml:"default"`
	RuleSets map[string]CruiseRuleSet `yaml:"rule_sets"`
}

// CruiseRuleSet is one vendor's cruise policy
type CruiseRuleSet struct {
	CommissionLabel string `yaml:"commission_label,omitempty"`
}

// InsuranceRules is the fixed insurance policy
type InsuranceRules struct {
	Vendor           string `yaml:"vendor"`
	PartyCount       string `yaml:"party_count"`
	DigitsOnlyNumber bool   `yaml:"digits_only_number"`
}

// RailRules is the rail rule table keyed by rule set
type RailRules struct {
	Default  string                 `yaml:"default"`
	RuleSets map[string]RailRuleSet `yaml:"rule_sets"`
}

// RailRuleSet is one operator's rail policy
type RailRuleSet struct {
	DefaultCommission string `yaml:"default_commission"`
	CommissionLabel   string `yaml:"commission_label,omitempty"`
}

// FeeRules holds the constants of the synthesized service fee screens
type FeeRules struct {
	VendorName           string `yaml:"vendor_name"`
	Description          string `yaml:"description"`
	Duration             string `yaml:"duration"`
	Units                string `yaml:"units"`
	TripType             string `yaml:"trip_type"`
	ChargedAs            string `yaml:"charged_as"`
	CommissionPercentage string `yaml:"commission_percentage"`
	ClientGSTRate        string `yaml:"client_gst_rate"`
}
