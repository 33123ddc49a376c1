package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/itinera/internal/format"
	"github.com/ppiankov/itinera/internal/model"
	"github.com/ppiankov/itinera/internal/normalize"
)

// Rail section titles
const (
	RailSummaryTitle = "Rail Screen 1 (Summary)"
	RailDetailsTitle = "Rail Screen 2 (Details)"
)

const railGuide = `You are reading a train booking.
Give one segments entry per train ride in travel order.`

type railSegment struct {
	Origin      Text `json:"origin"`
	Destination Text `json:"destination"`
	DepartDate  Text `json:"departDate"`
	ArriveDate  Text `json:"arriveDate"`
	Train       Text `json:"train"`
	Ticket      Text `json:"ticket"`
	Reference   Text `json:"reference"`
}

type railOutput struct {
	ReservationDate     Text          `json:"reservationDate"`
	ConfirmationNumbers []Text        `json:"confirmationNumbers"`
	Operator            Text          `json:"operator"`
	Passengers          Text          `json:"passengers"`
	TripType            Text          `json:"tripType"`
	TotalBase           Text          `json:"totalBase"`
	TotalTax            Text          `json:"totalTax"`
	Commission          Text          `json:"commission"`
	Deposit             Text          `json:"deposit"`
	GSTStatus           Text          `json:"gstStatus"`
	Segments            []railSegment `json:"segments"`
}

type railExtractor struct{ *Set }

func (x *railExtractor) Category() model.Category { return model.CategoryRail }

func (x *railExtractor) SectionCount() int { return 2 }

func (x *railExtractor) Extract(ctx context.Context, in Input) ([]model.Section, error) {
	rs, key, err := x.rules.RailSet(in.Classification.RuleSetKey)
	if err != nil {
		return nil, err
	}

	var out railOutput
	if err := x.understand(ctx, call{category: model.CategoryRail, ruleSet: key, guide: railGuide}, in, &out); err != nil {
		return nil, err
	}

	p := newPricing(in.Enrichment)
	commText := rs.DefaultCommission
	var comm *commission
	if c, ok := firstCommission(in.Facts, rs.CommissionLabel, out.Commission); ok {
		commText = p.commissionText(c)
		comm = &c
	}

	confirmations := texts(out.ConfirmationNumbers)
	if len(confirmations) == 0 {
		for _, s := range out.Segments {
			confirmations = append(confirmations, s.Reference.String())
		}
	}

	var start, end Text
	if n := len(out.Segments); n > 0 {
		start = out.Segments[0].DepartDate
		end = out.Segments[n-1].ArriveDate
		if end == "" {
			end = out.Segments[n-1].DepartDate
		}
	}

	var units string
	if len(out.Segments) > 0 {
		units = fmt.Sprint(len(out.Segments))
	}

	vendor := in.Classification.VendorName
	summary := model.NewRecord().
		Set("reservationDate", dateOr(out.ReservationDate, format.Date(in.Enrichment.Today))).
		Set("vendorName", vendor).
		Set("confirmationNumber", strings.Join(unique(nonEmpty(confirmations)), "/")).
		Set("duration", daySpan(start, end)).
		Set("noofpax", countOr(out.Passengers, len(in.Facts.All(normalize.PassengerLabel)))).
		Set("noofunits", units).
		Set("tripType", out.TripType.String()).
		Set("totalBase", p.amount(string(out.TotalBase))).
		Set("totalTax", p.amount(string(out.TotalTax))).
		Set("commissionAmount", commText).
		Set("gstStatus", out.GSTStatus.String()).
		Set("agentRemarks", p.remarks(string(out.Deposit), comm))

	provider := out.Operator.String()
	if provider == "" {
		provider = vendor
	}
	lines := make([]string, 0, len(out.Segments))
	for _, s := range out.Segments {
		lines = append(lines, railLine(s))
	}
	details := model.NewRecord().
		Set("serviceProviderName", provider).
		Set("startDate", format.NormalizeDate(string(start))).
		Set("endDate", format.NormalizeDate(string(end))).
		Set("clientFeedback", format.Lines(lines...))

	return []model.Section{
		model.NewSection(RailSummaryTitle, summary),
		model.NewSection(RailDetailsTitle, details),
	}, nil
}

// railLine renders "Origin -> Dest | MM/DD/YY | Train: X | Ticket: T | Ref: R", leaving out absent parts
func railLine(s railSegment) string {
	var parts []string
	if route := strings.Join(nonEmpty([]string{s.Origin.String(), s.Destination.String()}), " -> "); route != "" {
		parts = append(parts, route)
	}
	if d := format.NormalizeDate(string(s.DepartDate)); d != "" {
		parts = append(parts, d)
	}
	for _, f := range []struct{ label, value string }{
		{"Train", s.Train.String()},
		{"Ticket", s.Ticket.String()},
		{"Ref", s.Reference.String()},
	} {
		if f.value != "" {
			parts = append(parts, f.label+": "+f.value)
		}
	}
	return strings.Join(parts, " | ")
}

func nonEmpty(values []string) []string {
	out := values[:0:0]
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
