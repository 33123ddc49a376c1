package extract

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ppiankov/itinera/internal/format"
	"github.com/ppiankov/itinera/internal/model"
	"github.com/ppiankov/itinera/internal/normalize"
	"github.com/ppiankov/itinera/internal/rules"
	"github.com/shopspring/decimal"
)

// Flight section titles
const (
	FlightSummaryTitle    = "Flight Screen 1 (Summary)"
	FlightSegmentsTitle   = "Flight Screen 2 (Segments)"
	FlightPassengersTitle = "Flight Screen 3 (Passengers)"
)

const seatHeader = "Seat Selections"

const flightGuide = `You are reading a flight booking.
List every flight leg in travel order. For each leg give the operating carrier code, booking class
(one letter) and fare basis when printed, and each airport's country as a two-letter ISO code.
Report seat assignments per leg. Report fares per passenger when they are printed.`

type flightOutput struct {
	ReservationDate    Text              `json:"reservationDate"`
	ConfirmationNumber Text              `json:"confirmationNumber"`
	RecordLocators     []Text            `json:"recordLocators"`
	TotalBase          Text              `json:"totalBase"`
	TotalTax           Text              `json:"totalTax"`
	Commission         Text              `json:"commission"`
	Deposit            Text              `json:"deposit"`
	Segments           []flightSegment   `json:"segments"`
	Passengers         []flightPassenger `json:"passengers"`
}

type flightSegment struct {
	CarrierCode   Text `json:"carrierCode"`
	CarrierName   Text `json:"carrierName"`
	FlightNumber  Text `json:"flightNumber"`
	BookingClass  Text `json:"bookingClass"`
	FareBasis     Text `json:"fareBasis"`
	DepartAirport Text `json:"departAirport"`
	DepartCity    Text `json:"departCity"`
	DepartCountry Text `json:"departCountry"`
	DepartDate    Text `json:"departDate"`
	DepartTime    Text `json:"departTime"`
	ArriveAirport Text `json:"arriveAirport"`
	ArriveCity    Text `json:"arriveCity"`
	ArriveCountry Text `json:"arriveCountry"`
	ArriveDate    Text `json:"arriveDate"`
	ArriveTime    Text `json:"arriveTime"`
	Seats         []struct {
		Passenger Text `json:"passenger"`
		Seat      Text `json:"seat"`
	} `json:"seats"`
}

type flightPassenger struct {
	Name         Text `json:"name"`
	TicketNumber Text `json:"ticketNumber"`
	BasePrice    Text `json:"basePrice"`
	Tax          Text `json:"tax"`
	Commission   Text `json:"commission"`
}

type flightExtractor struct{ *Set }

func (x *flightExtractor) Category() model.Category { return model.CategoryFlight }

func (x *flightExtractor) SectionCount() int { return 3 }

func (x *flightExtractor) Extract(ctx context.Context, in Input) ([]model.Section, error) {
	fs, key, err := x.rules.FlightSet(in.Classification.RuleSetKey)
	if err != nil {
		return nil, err
	}

	var out flightOutput
	if err := x.understand(ctx, call{category: model.CategoryFlight, ruleSet: key, guide: flightGuide}, in, &out); err != nil {
		return nil, err
	}

	if len(out.Passengers) == 0 {
		for _, name := range in.Facts.All(normalize.PassengerLabel) {
			out.Passengers = append(out.Passengers, flightPassenger{Name: Text(name)})
		}
	}
	overrideLocators(fs.Locators, in.Facts, &out)

	legs := x.legs(out.Segments)
	p := newPricing(in.Enrichment)

	var (
		commText string
		comm     *commission
	)
	if c, ok := flightCommission(fs, in.Facts, legs, out.Commission); ok {
		commText = p.commissionText(c)
		comm = &c
	}

	remarks := []string{seatBlock(out.Segments)}
	if fs.TourCodeMissing(in.Facts, legs) {
		remarks = append(remarks, fs.TourCode.Remark)
	}

	summary := model.NewRecord().
		Set("reservationDate", dateOr(out.ReservationDate, format.Date(in.Enrichment.Today))).
		Set("vendorName", in.Classification.VendorName).
		Set("confirmationNumber", out.ConfirmationNumber.String()).
		Set("recordLocator", strings.Join(unique(texts(out.RecordLocators)), "/")).
		Set("duration", flightDuration(out.Segments))
	// ticketing vendors carry fares on the passenger screen only
	if !fs.Ticketing {
		summary.Set("totalBase", p.amount(string(out.TotalBase)))
		summary.Set("totalTax", p.amount(string(out.TotalTax)))
	}
	summary.
		Set("totalCommission", commText).
		Set("invoiceRemarks", format.Lines(remarks...)).
		Set("agentRemarks", p.remarks(string(out.Deposit), comm))

	segments := make([]*model.Record, 0, len(out.Segments))
	for _, s := range out.Segments {
		segments = append(segments, model.NewRecord().
			Set("serviceprovidercode", carrierCode(s)).
			Set("serviceprovidername", s.CarrierName.String()).
			Set("flightno", format.DigitsOnly(string(s.FlightNumber))).
			Set("departcitycode", strings.ToUpper(s.DepartAirport.String())).
			Set("departcityname", s.DepartCity.String()).
			Set("startdate", format.NormalizeDate(string(s.DepartDate))).
			Set("starttime", format.NormalizeTime(string(s.DepartTime))).
			Set("arrivecitycode", strings.ToUpper(s.ArriveAirport.String())).
			Set("arrivecityname", s.ArriveCity.String()).
			Set("enddate", format.NormalizeDate(string(s.ArriveDate))).
			Set("endtime", format.NormalizeTime(string(s.ArriveTime))))
	}

	passengers := make([]*model.Record, 0, len(out.Passengers))
	for _, ps := range out.Passengers {
		perPax := commText
		switch fs.Mode {
		case rules.ModePercentage, rules.ModeVerbatim, rules.ModeCredit:
			// rule-derived commission applies to every passenger
		default:
			if c, ok := parseCommission(string(ps.Commission)); ok {
				perPax = p.commissionText(c)
			}
		}
		passengers = append(passengers, model.NewRecord().
			Set("passengerName", ps.Name.String()).
			Set("ticketNumber", ticketNumber(string(ps.TicketNumber))).
			Set("basePricePerPassenger", p.amount(string(ps.BasePrice))).
			Set("taxPerPassenger", p.amount(string(ps.Tax))).
			Set("commission", perPax))
	}

	return []model.Section{
		model.NewSection(FlightSummaryTitle, summary),
		model.NewListSection(FlightSegmentsTitle, segments),
		model.NewListSection(FlightPassengersTitle, passengers),
	}, nil
}

// legs maps segments onto the commission table's view, deriving each route region
func (x *flightExtractor) legs(segs []flightSegment) []rules.Leg {
	legs := make([]rules.Leg, 0, len(segs))
	for _, s := range segs {
		legs = append(legs, rules.Leg{
			Carrier:   carrierCode(s),
			Class:     s.BookingClass.String(),
			FareBasis: s.FareBasis.String(),
			Region:    x.rules.Regions.Region(s.DepartCountry.String(), s.ArriveCountry.String()),
		})
	}
	return legs
}

// flightCommission applies the rule set's commission mode
func flightCommission(fs rules.FlightRuleSet, facts model.Facts, legs []rules.Leg, stated Text) (commission, bool) {
	switch fs.Mode {
	case rules.ModePercentage:
		if fs.ForcedZero(facts) {
			return commission{percent: true, amount: decimal.Zero}, true
		}
		pct, ok := fs.Evaluate(legs)
		return commission{percent: true, amount: pct}, ok
	case rules.ModeCredit:
		c, ok := firstCommission(facts, fs.CreditLabel, stated)
		c.amount = c.amount.Abs()
		return c, ok
	case rules.ModeVerbatim:
		for _, v := range facts.All(fs.CommissionLabel) {
			if format.HasMoney(v) {
				return parseCommission(v)
			}
		}
		return parseCommission(string(stated))
	default:
		return firstCommission(facts, fs.CommissionLabel, stated)
	}
}

// overrideLocators replaces model locators with the vendor's labelled facts
func overrideLocators(loc rules.Locators, facts model.Facts, out *flightOutput) {
	if loc.ConfirmationNumber != "" {
		if v, ok := facts.First(loc.ConfirmationNumber); ok {
			out.ConfirmationNumber = Text(v)
		}
	}
	if loc.RecordLocator != "" {
		if vs := facts.All(loc.RecordLocator); len(vs) > 0 {
			out.RecordLocators = out.RecordLocators[:0]
			for _, v := range vs {
				out.RecordLocators = append(out.RecordLocators, Text(v))
			}
		}
	}
	if loc.TicketNumber != "" {
		for i, v := range facts.All(loc.TicketNumber) {
			if i < len(out.Passengers) {
				out.Passengers[i].TicketNumber = Text(v)
			} else {
				out.Passengers = append(out.Passengers, flightPassenger{TicketNumber: Text(v)})
			}
		}
	}
}

var flightPrefix = regexp.MustCompile(`^([A-Z][A-Z0-9]|[0-9][A-Z])\s*-?\s*\d`)

// carrierCode is the stated carrier code or the airline prefix of the flight number
func carrierCode(s flightSegment) string {
	if code := strings.ToUpper(s.CarrierCode.String()); code != "" {
		return code
	}
	if m := flightPrefix.FindStringSubmatch(strings.ToUpper(s.FlightNumber.String())); m != nil {
		return m[1]
	}
	return ""
}

// ticketNumber keeps digits and drops the three-digit airline prefix of a 13-digit ticket
func ticketNumber(raw string) string {
	digits := format.DigitsOnly(raw)
	if len(digits) == 13 {
		return digits[3:]
	}
	if digits == "" {
		return format.Text(raw)
	}
	return digits
}

func flightDuration(segs []flightSegment) string {
	if len(segs) == 0 {
		return ""
	}
	last := segs[len(segs)-1]
	end := last.ArriveDate
	if end == "" {
		end = last.DepartDate
	}
	return daySpan(segs[0].DepartDate, end)
}

// seatBlock renders one line per leg under the Seat Selections header
func seatBlock(segs []flightSegment) string {
	if len(segs) == 0 {
		return ""
	}
	lines := []string{seatHeader, strings.Repeat("-", len(seatHeader))}
	for i, s := range segs {
		leg := carrierCode(s) + format.DigitsOnly(string(s.FlightNumber))
		if leg == "" {
			leg = fmt.Sprintf("Leg %d", i+1)
		}
		var seats []string
		for _, st := range s.Seats {
			seat := strings.ToUpper(st.Seat.String())
			if seat == "" {
				continue
			}
			if name := format.Initialed(string(st.Passenger)); name != "" {
				seats = append(seats, fmt.Sprintf("%s (%s)", name, seat))
			} else {
				seats = append(seats, seat)
			}
		}
		if len(seats) == 0 {
			lines = append(lines, leg+": Seat: N/A (check airline site)")
			continue
		}
		lines = append(lines, leg+": "+strings.Join(seats, " | "))
	}
	return strings.Join(lines, "\n")
}
