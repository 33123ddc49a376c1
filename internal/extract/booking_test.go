package extract

import (
	"strings"
	"testing"

	"github.com/ppiankov/itinera/internal/llm/llmtest"
	"github.com/ppiankov/itinera/internal/model"
)

func TestTour_Standard(t *testing.T) {
	p := llmtest.New().Reply(Tag(model.CategoryTour), `{
  "dateReserved": "Feb 20, 2025", "confirmationNumber": "TB-55012",
  "startDate": "2025-06-01", "endDate": "2025-06-08", "tripType": "International",
  "basePrice": "3,450.00", "commission": "$150.00", "finalPaymentDue": "March 30, 2025",
  "serviceProviderName": "Sunwing Vacations", "category": "Ocean View Junior Suite",
  "description": "7 nights all inclusive, Riu Palace Macao", "clientFeedback": "Transfers included"
}`)
	facts := model.Facts{{Label: "Passenger", Value: "A. Smith"}, {Label: "Passenger", Value: "B. Smith"}}
	sections := extract(t, newSet(t, p), model.CategoryTour, input("Travel Brands", "travel_brands", facts))

	if sections[0].Title != TourSummaryTitle || sections[1].Title != TourDetailsTitle {
		t.Errorf("titles = %q, %q", sections[0].Title, sections[1].Title)
	}
	assertFields(t, record(t, sections[0]), map[string]string{
		"dateReserved":       "02/20/25",
		"vendor":             "Travel Brands",
		"confirmationNumber": "TB-55012",
		"duration":           "8",
		"numberOfTravellers": "2",
		"tripType":           "International",
		"basePrice":          "3450.00",
		"commission":         "150.00",
		"finalPaymentDue":    "03/30/25",
		"agentRemarks":       "",
	})
	assertFields(t, record(t, sections[1]), map[string]string{
		"serviceProviderName": "Sunwing Vacations",
		"startDate":           "06/01/25",
		"endDate":             "06/08/25",
		"category":            "Ocean View Junior Suite",
		"clientFeedback":      "Transfers included",
	})
}

const viatorReply = `{
  "basePrice": "200.00", "travellers": 2,
  "references": ["Ref 1234", "BR-987654321"],
  "activities": [
    {"name": "Niagara Falls Day Trip", "operator": "Niagara Tours", "startDate": "2025-05-02", "notes": "Pickup 7:00 AM"},
    {"name": "Hornblower Cruise", "startDate": "2025-05-03"}
  ]
}`

func TestTour_DayTour(t *testing.T) {
	p := llmtest.New().Reply(Tag(model.CategoryTour), viatorReply)
	sections := extract(t, newSet(t, p), model.CategoryTour, usdInput("Viator", "viator", nil))

	if sections[0].Title != DayTourSummaryTitle || sections[1].Title != DayTourDetailsTitle {
		t.Errorf("titles = %q, %q", sections[0].Title, sections[1].Title)
	}
	summary := record(t, sections[0])
	assertFields(t, summary, map[string]string{
		"vendor":             "Viator on Line",
		"confirmationNumber": "BR-987654321",
		"duration":           "2",
		"numberOfTravellers": "2",
		"basePrice":          "274.00",
		"commission":         "16.00",
		"startDate":          "05/02/25",
		"endDate":            "05/03/25",
		"description":        "Niagara Falls Day Trip / Hornblower Cruise",
	})
	if remarks, _ := summary.Get("agentRemarks"); !strings.Contains(remarks, "COMMISSION: 16.00 USD") {
		t.Errorf("agentRemarks should carry the source commission:\n%s", remarks)
	}

	details := records(t, sections[1])
	if len(details) != 2 {
		t.Fatalf("got %d activities", len(details))
	}
	assertFields(t, details[0], map[string]string{
		"serviceProviderName": "Niagara Tours",
		"startDate":           "05/02/25",
		"endDate":             "05/02/25",
		"clientfeedback":      "Pickup 7:00 AM",
	})
	assertFields(t, details[1], map[string]string{
		"serviceProviderName": "Viator on Line",
		"description":         "Hornblower Cruise",
	})
}

func TestTour_DayTourExplicitCommission(t *testing.T) {
	p := llmtest.New().Reply(Tag(model.CategoryTour), viatorReply)
	facts := model.Facts{{Label: "Commission", Value: "USD 20.00"}}
	sections := extract(t, newSet(t, p), model.CategoryTour, usdInput("Viator", "viator", facts))
	assertFields(t, record(t, sections[0]), map[string]string{"commission": "20.00"})
}

func TestHotel_Expedia(t *testing.T) {
	p := llmtest.New().Reply(Tag(model.CategoryHotel), `{
  "bookingDate": "2025-03-01", "confirmationNumber": "7281-11", "hotelName": "Hôtel Le Germain",
  "checkInDate": "2025-06-01", "checkOutDate": "2025-06-04", "guests": 2,
  "subtotal": "500.00", "taxAmount": "60.00", "baseAmount": "999",
  "roomCategory": "Deluxe King", "recordLocator": null,
  "address": "2050 Mansfield St, Montréal", "phone": "514-555-0100",
  "promotions": ["Free breakfast", ""]
}`)
	facts := model.Facts{
		{Label: "Total Earnings", Value: "$52.80"},
		{Label: "Due at Property", Value: "CAD 25.00"},
	}
	sections := extract(t, newSet(t, p), model.CategoryHotel, input("Expedia TAAP", "expedia", facts))

	assertFields(t, record(t, sections[0]), map[string]string{
		"bookingDate":        "03/01/25",
		"vendor":             "Expedia TAAP",
		"confirmationNumber": "7281-11",
		"recordLocator":      "",
		"numberOfNights":     "3",
		"numberOfGuests":     "2",
		"numberOfUnits":      "1",
		"baseAmount":         "440.00",
		"taxAmount":          "60.00",
		"commissionAmount":   "52.80",
	})
	assertFields(t, record(t, sections[1]), map[string]string{
		"serviceProviderName": "Hotel Le Germain",
		"checkInDate":         "06/01/25",
		"checkOutDate":        "06/04/25",
		"checkInTime":         "3:00 PM",
		"checkOutTime":        "11:00 AM",
		"roomCategory":        "Deluxe King",
		"notesForClient": "2050 Mansfield St, Montreal\nPhone: 514-555-0100\n" +
			"Due at property: CAD $25.00 (city/local tax)\nFree breakfast",
	})
}

func TestHotel_GenericKeepsStatedBase(t *testing.T) {
	p := llmtest.New().Reply(Tag(model.CategoryHotel), `{"subtotal": "500", "taxAmount": "60", "baseAmount": "420", "checkInTime": "16:00"}`)
	sections := extract(t, newSet(t, p), model.CategoryHotel, input("Marriott", "generic", nil))
	assertFields(t, record(t, sections[0]), map[string]string{"baseAmount": "420.00", "commissionAmount": ""})
	assertFields(t, record(t, sections[1]), map[string]string{"checkInTime": "4:00 PM"})
}

func TestCruise(t *testing.T) {
	p := llmtest.New().Reply(Tag(model.CategoryCruise), `{
  "confirmationNumber": "RC998877", "startDate": "2025-11-02", "endDate": "2025-11-09",
  "passengers": 2, "totalBase": 2400, "totalTax": "310.20", "commission": "350",
  "shipName": "Wonder of the Seas", "category": "d1", "cabinNumber": 8544,
  "itinerary": [
    {"date": "2025-11-04", "port": "Cozumel", "arrive": "08:00", "depart": "17:00"},
    {"date": "2025-11-05", "port": "At Sea"}
  ]
}`)
	sections := extract(t, newSet(t, p), model.CategoryCruise, input("Royal Caribbean", "generic", nil))

	assertFields(t, record(t, sections[0]), map[string]string{
		"reservationDate":    "03/14/25",
		"confirmationNumber": "RC998877",
		"duration":           "7",
		"noofpax":            "2",
		"noofunit":           "1",
		"totalBase":          "2400.00",
		"totalTax":           "310.20",
		"totalCommission":    "350.00",
		"finalpymntduedate":  "",
	})
	assertFields(t, record(t, sections[1]), map[string]string{
		"shipName":        "Wonder of the Seas",
		"category":        "D1",
		"cabinNumber":     "8544",
		"clientItinerary": "11/04/25 Cozumel (8:00 AM - 5:00 PM)\n11/05/25 At Sea",
	})
}

func TestInsurance(t *testing.T) {
	p := llmtest.New().Reply(Tag(model.CategoryInsurance), `{"policies": [
  {"policyNumber": "TIC-12345678", "plan": "All Inclusive Plan", "traveller": "John Smith",
   "startDate": "2025-04-10", "endDate": "2025-04-20", "premium": "289.00"},
  {"policyNumber": "TIC-12345679", "plan": "All Inclusive Plan", "traveller": "Mary Smith"}
]}`)
	sections := extract(t, newSet(t, p), model.CategoryInsurance, input("Manulife", "generic", nil))

	summaries := records(t, sections[0])
	details := records(t, sections[1])
	if len(summaries) != 2 || len(details) != 2 {
		t.Fatalf("got %d summaries and %d details, want one per policy", len(summaries), len(details))
	}
	assertFields(t, summaries[0], map[string]string{
		"vendorName":         "Manulife Insurance",
		"confirmationNumber": "12345678",
		"noofpax":            "1",
		"noofunits":          "1",
		"duration":           "11",
		"totalBase":          "289.00",
	})
	assertFields(t, summaries[1], map[string]string{"confirmationNumber": "12345679", "duration": ""})
	assertFields(t, details[0], map[string]string{
		"startDate":   "04/10/25",
		"endDate":     "04/20/25",
		"description": "All Inclusive Plan - John Smith",
	})
}

func TestRail(t *testing.T) {
	reply := `{
  "confirmationNumbers": ["VIA123"], "passengers": 1, "totalBase": "180.00",
  "segments": [
    {"origin": "Toronto", "destination": "Montréal", "departDate": "2025-07-01", "train": 67, "ticket": "T-1", "reference": "R1"},
    {"origin": "Montreal", "destination": "Quebec City", "departDate": "2025-07-03", "train": "22"}
  ]
}`
	tests := []struct {
		name     string
		facts    model.Facts
		wantComm string
	}{
		{"default commission", nil, "0%"},
		{"explicit commission", model.Facts{{Label: "Commission", Value: "$12.00"}}, "12.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := llmtest.New().Reply(Tag(model.CategoryRail), reply)
			sections := extract(t, newSet(t, p), model.CategoryRail, input("VIA Rail Canada", "generic", tt.facts))

			assertFields(t, record(t, sections[0]), map[string]string{
				"vendorName":         "VIA Rail Canada",
				"confirmationNumber": "VIA123",
				"duration":           "3",
				"noofpax":            "1",
				"noofunits":          "2",
				"totalBase":          "180.00",
				"commissionAmount":   tt.wantComm,
			})
			assertFields(t, record(t, sections[1]), map[string]string{
				"serviceProviderName": "VIA Rail Canada",
				"startDate":           "07/01/25",
				"endDate":             "07/03/25",
				"clientFeedback": "Toronto -> Montreal | 07/01/25 | Train: 67 | Ticket: T-1 | Ref: R1\n" +
					"Montreal -> Quebec City | 07/03/25 | Train: 22",
			})
		})
	}
}

func TestProfile(t *testing.T) {
	p := llmtest.New().Reply(Tag(model.CategoryProfile), `{
  "contact": {"lastName": "Smith", "firstNames": ["John", "Jane"], "address1": "12 Elm St",
    "city": "Toronto", "state": "on", "zipCode": "m4b 1b3", "country": "Canada", "phone": "+1 (416) 555-0199"},
  "travellers": [
    {"lastName": "Smith", "firstName": "John", "citizenship": "CAN", "birthDate": "1980-07-04", "email": "John@Example.com"},
    {"lastName": "Smith", "firstName": "Jane", "citizenship": "Atlantis", "birthDate": "unknown"}
  ],
  "preferences": {"travelPreferences": "Aisle seat", "loyalty": "Aeroplan 123456789"}
}`)
	sections := extract(t, newSet(t, p), model.CategoryProfile, input("Generic", "generic", nil))

	assertFields(t, record(t, sections[0]), map[string]string{
		"lastName":      "Smith",
		"firstName":     "John & Jane",
		"state":         "ON",
		"zipCode":       "M4B 1B3",
		"phoneAreaCode": "416",
		"phoneNumber":   "5550199",
	})
	travellers := records(t, sections[1])
	if len(travellers) != 2 {
		t.Fatalf("got %d travellers", len(travellers))
	}
	assertFields(t, travellers[0], map[string]string{
		"citizenship": "CA",
		"birthMonth":  "July",
		"birthDay":    "4",
		"birthYear":   "1980",
		"email":       "john@example.com",
	})
	assertFields(t, travellers[1], map[string]string{"citizenship": "", "birthMonth": ""})
	assertFields(t, record(t, sections[2]), map[string]string{
		"preferences": "Travel Preferences: Aisle seat\nLoyalty: Aeroplan 123456789",
	})
}

func TestSplitPhone(t *testing.T) {
	tests := []struct{ in, area, number string }{
		{"416-555-0199", "416", "5550199"},
		{"1 (604) 555 0100", "604", "5550100"},
		{"555-0100", "", ""},
	}
	for _, tt := range tests {
		area, number := splitPhone(tt.in)
		if area != tt.area || number != tt.number {
			t.Errorf("splitPhone(%q) = %q, %q", tt.in, area, number)
		}
	}
}
