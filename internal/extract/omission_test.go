package extract

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/ppiankov/itinera/internal/llm/llmtest"
	"github.com/ppiankov/itinera/internal/model"
	"github.com/shopspring/decimal"
)

// fullBooking is a complete provider reply and fact set for one extractor
type fullBooking struct {
	name    string
	cat     model.Category
	vendor  string
	ruleSet string
	reply   string
	facts   model.Facts
}

var fullBookings = []fullBooking{
	{
		name: "flight percentage", cat: model.CategoryFlight, vendor: "Air Canada Internet", ruleSet: "air_canada",
		reply: twoLegReply,
		facts: model.Facts{{Label: "Passenger", Value: "John Smith"}, {Label: "Tour Code", Value: "ACTOT"}, {Label: "Booking Channel", Value: "Online"}},
	},
	{
		name: "flight credit", cat: model.CategoryFlight, vendor: "Tourcan Vacations", ruleSet: "tourcan",
		reply: `{"commission": "-12.00", "deposit": "100", "totalBase": "900", "segments": [{"carrierCode": "WS", "flightNumber": "WS 22",
  "departDate": "2025-05-01", "arriveDate": "2025-05-01", "seats": [{"passenger": "A. Traveller", "seat": "3C"}]}],
  "passengers": [{"name": "A. Traveller", "commission": "-75.00", "basePrice": "900", "tax": "0"}]}`,
		facts: model.Facts{{Label: "Total Credit", Value: "-75.00"}, {Label: "Passenger", Value: "A. Traveller"}},
	},
	{
		name: "flight verbatim", cat: model.CategoryFlight, vendor: "ADX", ruleSet: "adx_intair",
		reply: `{"confirmationNumber": "X1", "recordLocators": ["R1", "R2"], "totalBase": 500, "totalTax": 80,
  "passengers": [{"name": "Lee Park", "ticketNumber": 16123456789, "commission": "7%"}]}`,
		facts: model.Facts{
			{Label: "Trip Ref", Value: "ADX-1"}, {Label: "PNR", Value: "ZZTOP1"},
			{Label: "Ticket Number", Value: "0161234567890"}, {Label: "Commission", Value: "$42.50"},
		},
	},
	{
		name: "tour standard", cat: model.CategoryTour, vendor: "Travel Brands", ruleSet: "travel_brands",
		reply: `{"dateReserved": "Feb 20, 2025", "confirmationNumber": "TB-55012", "startDate": "2025-06-01",
  "endDate": "2025-06-08", "tripType": "International", "basePrice": "3,450.00", "commission": "$150.00",
  "finalPaymentDue": "March 30, 2025", "serviceProviderName": "Sunwing", "category": "Suite",
  "description": "7 nights", "clientFeedback": "Transfers included", "deposit": "500"}`,
		facts: model.Facts{{Label: "Passenger", Value: "A. Smith"}, {Label: "Passenger", Value: "B. Smith"}},
	},
	{
		name: "tour day layout", cat: model.CategoryTour, vendor: "Viator", ruleSet: "viator",
		reply: viatorReply,
		facts: model.Facts{{Label: "Booking Reference", Value: "BR-111222333"}},
	},
	{
		name: "hotel expedia", cat: model.CategoryHotel, vendor: "Expedia TAAP", ruleSet: "expedia",
		reply: `{"bookingDate": "2025-03-01", "confirmationNumber": "7281-11", "hotelName": "Hotel Le Germain",
  "checkInDate": "2025-06-01", "checkOutDate": "2025-06-04", "guests": 2, "rooms": 1, "subtotal": "500.00",
  "taxAmount": "60.00", "roomCategory": "Deluxe King", "roomDescription": "City view", "beddingType": "King",
  "address": "2050 Mansfield St", "phone": "514-555-0100", "email": "desk@example.com", "promotions": ["Breakfast"],
  "checkInTime": "16:00", "checkOutTime": "11:00"}`,
		facts: model.Facts{{Label: "Total Earnings", Value: "$52.80"}, {Label: "Due at Property", Value: "CAD 25.00"}},
	},
	{
		name: "cruise", cat: model.CategoryCruise, vendor: "Royal Caribbean", ruleSet: "generic",
		reply: `{"reservationDate": "2025-01-02", "confirmationNumber": "RC998877", "startDate": "2025-11-02",
  "endDate": "2025-11-09", "passengers": 2, "cabins": 1, "tripType": "Sun", "totalBase": 2400, "totalTax": "310.20",
  "commission": "350", "finalPaymentDue": "2025-08-01", "shipName": "Wonder of the Seas", "category": "d1",
  "deck": 8, "cabinNumber": 8544, "diningTime": "18:00", "bedding": "Queen", "description": "Balcony",
  "itinerary": [{"date": "2025-11-04", "port": "Cozumel", "arrive": "08:00", "depart": "17:00"}, {"date": "2025-11-05", "port": "At Sea"}]}`,
	},
	{
		name: "insurance", cat: model.CategoryInsurance, vendor: "Manulife Insurance", ruleSet: "generic",
		reply: `{"policies": [{"reservationDate": "2025-03-01", "policyNumber": "TIC-12345678", "plan": "All Inclusive Plan",
  "traveller": "John Smith", "startDate": "2025-04-10", "endDate": "2025-04-20", "tripType": "International",
  "premium": "289.00", "commission": "20%"}, {"policyNumber": "TIC-12345679", "traveller": "Mary Smith"}]}`,
	},
	{
		name: "rail", cat: model.CategoryRail, vendor: "VIA Rail Canada", ruleSet: "generic",
		reply: `{"confirmationNumbers": ["VIA123"], "passengers": 1, "totalBase": "180.00", "totalTax": "23.40", "operator": "VIA Rail",
  "segments": [{"origin": "Toronto", "destination": "Montreal", "departDate": "2025-07-01", "train": 67, "ticket": "T-1", "reference": "R1"},
  {"origin": "Montreal", "destination": "Quebec City", "departDate": "2025-07-03", "train": "22"}]}`,
		facts: model.Facts{{Label: "Commission", Value: "$12.00"}},
	},
	{
		name: "profile", cat: model.CategoryProfile, vendor: "Generic", ruleSet: "generic",
		reply: `{"contact": {"lastName": "Smith", "firstNames": ["John", "Jane"], "address1": "12 Elm St", "city": "Toronto",
  "state": "on", "zipCode": "m4b 1b3", "country": "Canada", "phone": "+1 (416) 555-0199"},
  "travellers": [{"lastName": "Smith", "firstName": "John", "citizenship": "CAN", "birthDate": "1980-07-04", "email": "John@Example.com"},
  {"lastName": "Smith", "firstName": "Jane", "citizenship": "CA", "birthDate": "1982-01-09"}],
  "preferences": {"travelPreferences": "Aisle seat", "loyalty": "Aeroplan 123456789"}}`,
	},
	{
		name: "fee", cat: model.CategoryFee, vendor: "Generic", ruleSet: "generic",
		reply: `{"noofpax": 2}`,
	},
}

var omissionMarkers = []any{nil, "", " ", "N/A", "n/a", "null", "None", "unknown", "-"}

// omitRandomly drops about a quarter of the keys and list items of v and blanks some scalars
func omitRandomly(rng *rand.Rand, v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			switch n := rng.Intn(8); {
			case n < 2:
				continue
			case n == 2 && isScalar(child):
				out[k] = omissionMarkers[rng.Intn(len(omissionMarkers))]
			default:
				out[k] = omitRandomly(rng, child)
			}
		}
		return out
	case []any:
		out := make([]any, 0, len(t))
		for _, child := range t {
			if rng.Intn(5) == 0 {
				continue
			}
			out = append(out, omitRandomly(rng, child))
		}
		return out
	}
	return v
}

func isScalar(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return false
	}
	return true
}

func omitFacts(rng *rand.Rand, facts model.Facts) model.Facts {
	var out model.Facts
	for _, f := range facts {
		if rng.Intn(10) >= 3 {
			out = append(out, f)
		}
	}
	return out
}

func TestExtractors_OmittedFieldsNeverSurfaceAsBlankKeys(t *testing.T) {
	const rounds = 60

	for i, b := range fullBookings {
		t.Run(b.name, func(t *testing.T) {
			dec := json.NewDecoder(strings.NewReader(b.reply))
			dec.UseNumber()
			var full map[string]any
			if err := dec.Decode(&full); err != nil {
				t.Fatalf("fixture reply: %v", err)
			}

			rng := rand.New(rand.NewSource(int64(i) + 1))
			for round := 0; round < rounds; round++ {
				reply := any(full)
				facts := b.facts
				// round 0 checks the complete booking
				if round > 0 {
					reply = omitRandomly(rng, full)
					facts = omitFacts(rng, b.facts)
				}
				text, err := json.Marshal(reply)
				if err != nil {
					t.Fatal(err)
				}

				in := input(b.vendor, b.ruleSet, facts)
				if round%2 == 1 {
					in = usdInput(b.vendor, b.ruleSet, facts)
				}
				if b.cat == model.CategoryFee {
					in.FeeAmount = decimal.NewFromInt(50)
				}

				p := llmtest.New().Reply(Tag(b.cat), string(text))
				x, err := newSet(t, p).For(b.cat)
				if err != nil {
					t.Fatal(err)
				}
				sections, err := x.Extract(context.Background(), in)
				if err != nil {
					// a reply stripped of a required list is rejected, never half-built
					if round > 0 && errors.Is(err, model.ErrMalformedOutput) {
						continue
					}
					t.Fatalf("round %d: Extract: %v\nreply: %s", round, err, text)
				}
				if len(sections) != x.SectionCount() {
					t.Fatalf("round %d: got %d sections, want %d", round, len(sections), x.SectionCount())
				}

				for _, sec := range sections {
					for _, rec := range sec.Records() {
						for _, key := range rec.Keys() {
							v, _ := rec.Get(key)
							if emptyMarkers[strings.ToLower(strings.TrimSpace(v))] {
								t.Errorf("round %d: %s.%s = %q\nreply: %s", round, sec.Title, key, v, text)
							}
						}
					}
				}
			}
		})
	}
}
