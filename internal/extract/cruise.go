package extract

import (
	"context"
	"strings"

	"github.com/ppiankov/itinera/internal/format"
	"github.com/ppiankov/itinera/internal/model"
	"github.com/ppiankov/itinera/internal/normalize"
)

// Cruise section titles
const (
	CruiseSummaryTitle = "Cruise Screen 1 (Summary)"
	CruiseDetailsTitle = "Cruise Screen 2 (Details)"
)

const cruiseGuide = `You are reading a cruise booking.
totalBase is the cruise fare; port charges, taxes and government fees go in totalTax.
List the ports of call in order in itinerary, with arrival and departure times when printed.`

type cruiseOutput struct {
	ReservationDate    Text `json:"reservationDate"`
	ConfirmationNumber Text `json:"confirmationNumber"`
	StartDate          Text `json:"startDate"`
	EndDate            Text `json:"endDate"`
	Passengers         Text `json:"passengers"`
	Cabins             Text `json:"cabins"`
	TripType           Text `json:"tripType"`
	TotalBase          Text `json:"totalBase"`
	TotalTax           Text `json:"totalTax"`
	Commission         Text `json:"commission"`
	Deposit            Text `json:"deposit"`
	FinalPaymentDue    Text `json:"finalPaymentDue"`
	InvoiceRemarks     Text `json:"invoiceRemarks"`
	ShipName           Text `json:"shipName"`
	Category           Text `json:"category"`
	Deck               Text `json:"deck"`
	CabinNumber        Text `json:"cabinNumber"`
	DiningTime         Text `json:"diningTime"`
	Bedding            Text `json:"bedding"`
	Description        Text `json:"description"`
	Itinerary          []struct {
		Date   Text `json:"date"`
		Port   Text `json:"port"`
		Arrive Text `json:"arrive"`
		Depart Text `json:"depart"`
	} `json:"itinerary"`
}

type cruiseExtractor struct{ *Set }

func (x *cruiseExtractor) Category() model.Category { return model.CategoryCruise }

func (x *cruiseExtractor) SectionCount() int { return 2 }

func (x *cruiseExtractor) Extract(ctx context.Context, in Input) ([]model.Section, error) {
	cs, key, err := x.rules.CruiseSet(in.Classification.RuleSetKey)
	if err != nil {
		return nil, err
	}

	var out cruiseOutput
	if err := x.understand(ctx, call{category: model.CategoryCruise, ruleSet: key, guide: cruiseGuide}, in, &out); err != nil {
		return nil, err
	}

	p := newPricing(in.Enrichment)
	var (
		commText string
		comm     *commission
	)
	if c, ok := firstCommission(in.Facts, cs.CommissionLabel, out.Commission); ok {
		commText = p.commissionText(c)
		comm = &c
	}

	summary := model.NewRecord().
		Set("reservationDate", dateOr(out.ReservationDate, format.Date(in.Enrichment.Today))).
		Set("vendorName", in.Classification.VendorName).
		Set("confirmationNumber", out.ConfirmationNumber.String()).
		Set("duration", nightSpan(out.StartDate, out.EndDate)).
		Set("noofpax", countOr(out.Passengers, len(in.Facts.All(normalize.PassengerLabel)))).
		Set("noofunit", countOr(out.Cabins, 1)).
		Set("tripType", out.TripType.String()).
		Set("totalBase", p.amount(string(out.TotalBase))).
		Set("totalTax", p.amount(string(out.TotalTax))).
		Set("totalCommission", commText).
		Set("finalpymntduedate", format.NormalizeDate(string(out.FinalPaymentDue))).
		Set("invoiceRemarks", out.InvoiceRemarks.String()).
		Set("agentRemarks", p.remarks(string(out.Deposit), comm))

	details := model.NewRecord().
		Set("shipName", out.ShipName.String()).
		Set("startDate", format.NormalizeDate(string(out.StartDate))).
		Set("endDate", format.NormalizeDate(string(out.EndDate))).
		Set("category", strings.ToUpper(out.Category.String())).
		Set("deck", out.Deck.String()).
		Set("cabinNumber", out.CabinNumber.String()).
		Set("diningTime", out.DiningTime.String()).
		Set("bedding", out.Bedding.String()).
		Set("description", out.Description.String()).
		Set("clientItinerary", cruiseItinerary(out))

	return []model.Section{
		model.NewSection(CruiseSummaryTitle, summary),
		model.NewSection(CruiseDetailsTitle, details),
	}, nil
}

// cruiseItinerary renders one line per port, e.g. "03/16/25 Cozumel (8:00 AM - 5:00 PM)"
func cruiseItinerary(out cruiseOutput) string {
	lines := make([]string, 0, len(out.Itinerary))
	for _, stop := range out.Itinerary {
		line := strings.TrimSpace(format.NormalizeDate(string(stop.Date)) + " " + stop.Port.String())
		arrive := format.NormalizeTime(string(stop.Arrive))
		depart := format.NormalizeTime(string(stop.Depart))
		switch {
		case arrive != "" && depart != "":
			line += " (" + arrive + " - " + depart + ")"
		case arrive != "":
			line += " (arrive " + arrive + ")"
		case depart != "":
			line += " (depart " + depart + ")"
		}
		lines = append(lines, line)
	}
	return format.Lines(lines...)
}
