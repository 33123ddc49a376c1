package extract

import (
	"strings"
	"testing"

	"github.com/ppiankov/itinera/internal/llm/llmtest"
	"github.com/ppiankov/itinera/internal/model"
)

const twoLegReply = `{
  "reservationDate": "2025-02-01",
  "confirmationNumber": "XK7LQP",
  "recordLocators": ["XK7LQP", "ABC123", "xk7lqp"],
  "totalBase": "1,200.00",
  "totalTax": 310.55,
  "segments": [
    {"carrierCode": "AC", "carrierName": "Air Canada", "flightNumber": "AC 123", "bookingClass": "K",
     "fareBasis": "KLX7C0", "departAirport": "yyz", "departCity": "Toronto", "departCountry": "CA",
     "departDate": "2025-04-10", "departTime": "18:40", "arriveAirport": "LHR", "arriveCity": "London",
     "arriveCountry": "GB", "arriveDate": "2025-04-11", "arriveTime": "06:55",
     "seats": [{"passenger": "SMITH/JOHN MR", "seat": "12a"}, {"passenger": "Mary Smith", "seat": "12B"}]},
    {"flightNumber": "AC456", "bookingClass": "K", "fareBasis": "KLX7C0", "departAirport": "LHR",
     "departCountry": "GB", "departDate": "2025-04-20", "departTime": "10:15", "arriveAirport": "YYZ",
     "arriveCountry": "CA", "arriveDate": "2025-04-20", "arriveTime": "13:05", "seats": []}
  ],
  "passengers": [
    {"name": "John Smith", "ticketNumber": "014-2345678901", "basePrice": 600, "tax": "155.28"},
    {"name": "Mary Smith", "ticketNumber": "0142345678902", "basePrice": 600, "tax": "155.27"}
  ]
}`

func TestFlight_AsShown(t *testing.T) {
	p := llmtest.New().Reply(Tag(model.CategoryFlight), twoLegReply)
	facts := model.Facts{{Label: "Commission", Value: "$42.50"}}
	sections := extract(t, newSet(t, p), model.CategoryFlight, input("Expedia", "expedia", facts))

	wantTitles := []string{FlightSummaryTitle, FlightSegmentsTitle, FlightPassengersTitle}
	for i, w := range wantTitles {
		if sections[i].Title != w {
			t.Errorf("section %d title = %q, want %q", i, sections[i].Title, w)
		}
	}

	summary := record(t, sections[0])
	assertFields(t, summary, map[string]string{
		"reservationDate":    "02/01/25",
		"vendorName":         "Expedia",
		"confirmationNumber": "XK7LQP",
		"recordLocator":      "XK7LQP/ABC123",
		"duration":           "11",
		"totalBase":          "1200.00",
		"totalTax":           "310.55",
		"totalCommission":    "42.50",
		"agentRemarks":       "",
	})
	remarks, _ := summary.Get("invoiceRemarks")
	wantSeats := "Seat Selections\n---------------\nAC123: J. Smith (12A) | M. Smith (12B)\nAC456: Seat: N/A (check airline site)"
	if remarks != wantSeats {
		t.Errorf("invoiceRemarks =\n%s\nwant\n%s", remarks, wantSeats)
	}

	segs := records(t, sections[1])
	if len(segs) != 2 {
		t.Fatalf("got %d segments", len(segs))
	}
	assertFields(t, segs[0], map[string]string{
		"serviceprovidercode": "AC",
		"serviceprovidername": "Air Canada",
		"flightno":            "123",
		"departcitycode":      "YYZ",
		"departcityname":      "Toronto",
		"startdate":           "04/10/25",
		"starttime":           "6:40 PM",
		"arrivecitycode":      "LHR",
		"enddate":             "04/11/25",
		"endtime":             "6:55 AM",
	})
	assertFields(t, segs[1], map[string]string{
		"serviceprovidercode": "AC",
		"serviceprovidername": "",
		"flightno":            "456",
	})

	pax := records(t, sections[2])
	if len(pax) != 2 {
		t.Fatalf("got %d passengers", len(pax))
	}
	assertFields(t, pax[0], map[string]string{
		"passengerName":         "John Smith",
		"ticketNumber":          "2345678901",
		"basePricePerPassenger": "600.00",
		"taxPerPassenger":       "155.28",
		"commission":            "42.50",
	})
	assertFields(t, pax[1], map[string]string{"ticketNumber": "2345678902"})
}

func TestFlight_PassengersFromFacts(t *testing.T) {
	p := llmtest.New().Reply(Tag(model.CategoryFlight), `{"confirmationNumber": "QWERTY"}`)
	facts := model.Facts{
		{Label: "Passenger", Value: "Jane Doe"},
		{Label: "Passenger", Value: "Joe Doe"},
	}
	sections := extract(t, newSet(t, p), model.CategoryFlight, input("Generic", "generic", facts))

	summary := record(t, sections[0])
	assertFields(t, summary, map[string]string{
		"reservationDate": "03/14/25",
		"duration":        "",
		"totalBase":       "",
		"invoiceRemarks":  "",
		"totalCommission": "",
	})
	if segs := records(t, sections[1]); len(segs) != 0 {
		t.Errorf("got %d segments, want none", len(segs))
	}
	pax := records(t, sections[2])
	if len(pax) != 2 {
		t.Fatalf("got %d passengers", len(pax))
	}
	if name, _ := pax[1].Get("passengerName"); name != "Joe Doe" {
		t.Errorf("passengerName = %q", name)
	}
}

func TestFlight_AirCanadaPercentage(t *testing.T) {
	reply := `{
  "segments": [
    {"carrierCode": "AC", "flightNumber": "8600", "bookingClass": "K", "fareBasis": "KLX7C0",
     "departAirport": "YUL", "departCountry": "CA", "arriveAirport": "YYZ", "arriveCountry": "CA",
     "departDate": "2025-04-10", "arriveDate": "2025-04-10"},
    {"carrierCode": "AC", "flightNumber": "848", "bookingClass": "K", "fareBasis": "KLX7C0",
     "departAirport": "YYZ", "departCountry": "CA", "arriveAirport": "LHR", "arriveCountry": "GB",
     "departDate": "2025-04-10", "arriveDate": "2025-04-11"}
  ],
  "totalBase": 900, "totalTax": 250,
  "passengers": [{"name": "John Smith", "basePrice": 900, "tax": 250}]
}`
	tests := []struct {
		name      string
		facts     model.Facts
		wantComm  string
		wantACTOT bool
	}{
		{"feeder leg ignored, JV rate applies", nil, "5%", true},
		{"tour code present", model.Facts{{Label: "Tour Code", Value: "ACTOT"}}, "5%", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := llmtest.New().Reply(Tag(model.CategoryFlight), reply)
			sections := extract(t, newSet(t, p), model.CategoryFlight, input("Air Canada Internet", "air_canada", tt.facts))

			summary := record(t, sections[0])
			assertFields(t, summary, map[string]string{
				"totalCommission": tt.wantComm,
				"totalBase":       "",
				"totalTax":        "",
			})
			remarks, _ := summary.Get("invoiceRemarks")
			if got := strings.Contains(remarks, "ACTOT REQUIRED"); got != tt.wantACTOT {
				t.Errorf("ACTOT warning present = %v, want %v\n%s", got, tt.wantACTOT, remarks)
			}

			pax := records(t, sections[2])
			assertFields(t, pax[0], map[string]string{
				"basePricePerPassenger": "900.00",
				"commission":            tt.wantComm,
			})

			prompt := llmtest.Prompt(p.Calls()[0])
			if !strings.Contains(prompt, "RULE SET: air_canada") || !strings.Contains(prompt, "TODAY: 03/14/25") {
				t.Errorf("prompt lacks rule set or date:\n%s", prompt)
			}
		})
	}
}

func TestFlight_AirCanadaDomesticLowest(t *testing.T) {
	reply := `{"segments": [
    {"carrierCode": "AC", "bookingClass": "Y", "fareBasis": "Y26TG", "departCountry": "CA", "arriveCountry": "US"},
    {"carrierCode": "AC", "bookingClass": "Y", "fareBasis": "Y26", "departCountry": "US", "arriveCountry": "CA"}
  ]}`
	p := llmtest.New().Reply(Tag(model.CategoryFlight), reply)
	sections := extract(t, newSet(t, p), model.CategoryFlight, input("Air Canada", "air_canada", nil))
	assertFields(t, record(t, sections[0]), map[string]string{"totalCommission": "3%"})
}

func TestFlight_WestJet(t *testing.T) {
	reply := `{"segments": [
    {"carrierCode": "WS", "bookingClass": "M", "departCountry": "CA", "arriveCountry": "CA"},
    {"carrierCode": "WS", "bookingClass": "R", "departCountry": "CA", "arriveCountry": "CA"}
  ]}`
	tests := []struct {
		name  string
		facts model.Facts
		want  string
	}{
		{"highest rate wins", nil, "8%"},
		{"call centre forces zero", model.Facts{{Label: "Booking Channel", Value: "WestJet Call Centre"}}, "0%"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := llmtest.New().Reply(Tag(model.CategoryFlight), reply)
			sections := extract(t, newSet(t, p), model.CategoryFlight, input("WestJet", "westjet", tt.facts))
			assertFields(t, record(t, sections[0]), map[string]string{"totalCommission": tt.want})
		})
	}
}

func TestFlight_TourcanCredit(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"no passenger figure", `{"commission": "12.00", "passengers": [{"name": "A. Traveller"}]}`},
		{"negative passenger figure", `{"passengers": [{"name": "A. Traveller", "commission": "-75.00"}, {"name": "B. Traveller", "commission": "12.00"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := llmtest.New().Reply(Tag(model.CategoryFlight), tt.reply)
			facts := model.Facts{{Label: "Total Credit", Value: "-75.00"}}
			sections := extract(t, newSet(t, p), model.CategoryFlight, input("Tourcan Vacations", "tourcan", facts))

			assertFields(t, record(t, sections[0]), map[string]string{"totalCommission": "75.00"})
			for _, pax := range records(t, sections[2]) {
				assertFields(t, pax, map[string]string{"commission": "75.00"})
			}
		})
	}
}

func TestFlight_PassengerCommission(t *testing.T) {
	reply := `{"passengers": [{"name": "Lee Park", "commission": "7%"}, {"name": "Kim Park", "commission": "$5.00"}]}`
	facts := model.Facts{{Label: "Commission", Value: "$42.50"}}

	tests := []struct {
		name    string
		vendor  string
		ruleSet string
		want    []string
	}{
		{"verbatim figure wins", "ADX", "adx_intair", []string{"42.50", "42.50"}},
		{"as shown keeps passenger figures", "Expedia", "expedia", []string{"7%", "5.00"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := llmtest.New().Reply(Tag(model.CategoryFlight), reply)
			sections := extract(t, newSet(t, p), model.CategoryFlight, input(tt.vendor, tt.ruleSet, facts))

			assertFields(t, record(t, sections[0]), map[string]string{"totalCommission": "42.50"})
			pax := records(t, sections[2])
			if len(pax) != len(tt.want) {
				t.Fatalf("got %d passengers, want %d", len(pax), len(tt.want))
			}
			for i, w := range tt.want {
				assertFields(t, pax[i], map[string]string{"commission": w})
			}
		})
	}
}

func TestFlight_ADXLocators(t *testing.T) {
	p := llmtest.New().Reply(Tag(model.CategoryFlight), `{
  "confirmationNumber": "WRONG1", "recordLocators": ["WRONG2"], "totalBase": 500,
  "passengers": [{"name": "Lee Park", "ticketNumber": "999"}]
}`)
	facts := model.Facts{
		{Label: "Trip Ref", Value: "ADX-778899"},
		{Label: "PNR", Value: "ZZTOP1"},
		{Label: "PNR", Value: "YYTOP2"},
		{Label: "Ticket Number", Value: "0161234567890"},
		{Label: "Ticket Number", Value: "0161234567891"},
		{Label: "Commission", Value: "CAD 88.00"},
	}
	sections := extract(t, newSet(t, p), model.CategoryFlight, input("ADX", "adx_intair", facts))

	assertFields(t, record(t, sections[0]), map[string]string{
		"confirmationNumber": "ADX-778899",
		"recordLocator":      "ZZTOP1/YYTOP2",
		"totalCommission":    "88.00",
		"totalBase":          "",
	})
	pax := records(t, sections[2])
	if len(pax) != 2 {
		t.Fatalf("got %d passengers, want one per ticket", len(pax))
	}
	assertFields(t, pax[0], map[string]string{"passengerName": "Lee Park", "ticketNumber": "1234567890"})
	assertFields(t, pax[1], map[string]string{"passengerName": "", "ticketNumber": "1234567891"})
}

func TestFlight_CurrencyConversion(t *testing.T) {
	reply := `{"totalBase": "100.00", "totalTax": "20", "deposit": "50",
  "passengers": [{"name": "Ann Lee", "basePrice": "100.00", "tax": "20"}]}`
	facts := model.Facts{{Label: "Commission", Value: "USD 10.00"}}

	t.Run("rate present", func(t *testing.T) {
		p := llmtest.New().Reply(Tag(model.CategoryFlight), reply)
		sections := extract(t, newSet(t, p), model.CategoryFlight, usdInput("Generic", "generic", facts))

		summary := record(t, sections[0])
		assertFields(t, summary, map[string]string{
			"totalBase":       "137.00",
			"totalTax":        "27.40",
			"totalCommission": "13.70",
		})
		want := strings.Join([]string{
			"DEPOSIT PAID: $68.50 CAD",
			"COMMISSION: 10.00 USD",
			"Invoiced in USD by Supplier",
			"Amounts in CB Converted to CAD on 03/14/25 @ rate of 1 USD : 1.3700 CAD",
		}, "\n")
		if got, _ := summary.Get("agentRemarks"); got != want {
			t.Errorf("agentRemarks =\n%s\nwant\n%s", got, want)
		}
		assertFields(t, records(t, sections[2])[0], map[string]string{"basePricePerPassenger": "137.00"})
	})

	t.Run("foreign without rate passes through", func(t *testing.T) {
		p := llmtest.New().Reply(Tag(model.CategoryFlight), reply)
		in := usdInput("Generic", "generic", facts)
		in.Enrichment.Rate = nil
		sections := extract(t, newSet(t, p), model.CategoryFlight, in)
		assertFields(t, record(t, sections[0]), map[string]string{
			"totalBase":       "100.00",
			"totalCommission": "10.00",
			"agentRemarks":    "",
		})
	})
}

func TestTicketNumber(t *testing.T) {
	tests := []struct{ in, want string }{
		{"014-2345678901", "2345678901"},
		{"0142345678901", "2345678901"},
		{"2345678901", "2345678901"},
		{"E-TKT pending", "E-TKT pending"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ticketNumber(tt.in); got != tt.want {
			t.Errorf("ticketNumber(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
