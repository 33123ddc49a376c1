package extract

import (
	"context"
	"strings"

	"github.com/ppiankov/itinera/internal/format"
	"github.com/ppiankov/itinera/internal/model"
	"github.com/ppiankov/itinera/internal/normalize"
	"github.com/ppiankov/itinera/internal/rules"
	"github.com/shopspring/decimal"
)

// Tour section titles
const (
	TourSummaryTitle    = "Tour Screen 1 (Summary)"
	TourDetailsTitle    = "Tour Screen 2 (Details)"
	DayTourSummaryTitle = "Day Tour Screen 1 (Summary)"
	DayTourDetailsTitle = "Day Tour Screen 2 (Details)"
)

const tourGuide = `You are reading a tour, package or land booking.
tripType is Domestic, Transborder or International as seen from Canada.
Put inclusions, meeting points and other client-facing notes in clientFeedback.`

const dayTourGuide = `You are reading a day-tour voucher that may list several activities.
Give one activities entry per activity with its own dates, operator and client instructions.
List every booking reference in references.`

type tourOutput struct {
	DateReserved        Text   `json:"dateReserved"`
	ConfirmationNumber  Text   `json:"confirmationNumber"`
	References          []Text `json:"references"`
	StartDate           Text   `json:"startDate"`
	EndDate             Text   `json:"endDate"`
	Travellers          Text   `json:"travellers"`
	TripType            Text   `json:"tripType"`
	BasePrice           Text   `json:"basePrice"`
	Commission          Text   `json:"commission"`
	Deposit             Text   `json:"deposit"`
	FinalPaymentDue     Text   `json:"finalPaymentDue"`
	InvoiceRemarks      Text   `json:"invoiceRemarks"`
	ServiceProviderName Text   `json:"serviceProviderName"`
	Category            Text   `json:"category"`
	Description         Text   `json:"description"`
	ClientFeedback      Text   `json:"clientFeedback"`
	Activities          []struct {
		Name        Text `json:"name"`
		Operator    Text `json:"operator"`
		StartDate   Text `json:"startDate"`
		EndDate     Text `json:"endDate"`
		Description Text `json:"description"`
		Notes       Text `json:"notes"`
	} `json:"activities"`
}

type tourExtractor struct{ *Set }

func (x *tourExtractor) Category() model.Category { return model.CategoryTour }

func (x *tourExtractor) SectionCount() int { return 2 }

func (x *tourExtractor) Extract(ctx context.Context, in Input) ([]model.Section, error) {
	ts, key, err := x.rules.TourSet(in.Classification.RuleSetKey)
	if err != nil {
		return nil, err
	}

	guide := tourGuide
	if ts.Layout == rules.LayoutDayTour {
		guide = dayTourGuide
	}
	var out tourOutput
	if err := x.understand(ctx, call{category: model.CategoryTour, ruleSet: key, guide: guide}, in, &out); err != nil {
		return nil, err
	}

	if ts.Layout == rules.LayoutDayTour {
		return x.dayTour(ts, in, out), nil
	}
	return x.standard(ts, in, out), nil
}

func (x *tourExtractor) standard(ts rules.TourRuleSet, in Input, out tourOutput) []model.Section {
	p := newPricing(in.Enrichment)
	commText, comm := tourCommission(ts, p, in.Facts, out)

	summary := model.NewRecord().
		Set("dateReserved", dateOr(out.DateReserved, format.Date(in.Enrichment.Today))).
		Set("vendor", tourVendor(ts, in)).
		Set("confirmationNumber", out.ConfirmationNumber.String()).
		Set("duration", daySpan(out.StartDate, out.EndDate)).
		Set("numberOfTravellers", countOr(out.Travellers, len(in.Facts.All(normalize.PassengerLabel)))).
		Set("tripType", out.TripType.String()).
		Set("basePrice", p.amount(string(out.BasePrice))).
		Set("commission", commText).
		Set("finalPaymentDue", format.NormalizeDate(string(out.FinalPaymentDue))).
		Set("invoiceRemarks", out.InvoiceRemarks.String()).
		Set("agentRemarks", p.remarks(string(out.Deposit), comm))

	provider := out.ServiceProviderName.String()
	if provider == "" {
		provider = tourVendor(ts, in)
	}
	details := model.NewRecord().
		Set("serviceProviderName", provider).
		Set("startDate", format.NormalizeDate(string(out.StartDate))).
		Set("endDate", format.NormalizeDate(string(out.EndDate))).
		Set("category", out.Category.String()).
		Set("description", out.Description.String()).
		Set("clientFeedback", out.ClientFeedback.String())

	return []model.Section{
		model.NewSection(TourSummaryTitle, summary),
		model.NewSection(TourDetailsTitle, details),
	}
}

func (x *tourExtractor) dayTour(ts rules.TourRuleSet, in Input, out tourOutput) []model.Section {
	p := newPricing(in.Enrichment)
	commText, comm := tourCommission(ts, p, in.Facts, out)
	vendor := tourVendor(ts, in)

	start, end := out.StartDate, out.EndDate
	if len(out.Activities) > 0 {
		if start == "" {
			start = out.Activities[0].StartDate
		}
		if end == "" {
			last := out.Activities[len(out.Activities)-1]
			end = last.EndDate
			if end == "" {
				end = last.StartDate
			}
		}
	}
	if end == "" {
		end = start
	}

	description := out.Description.String()
	if description == "" && len(out.Activities) > 0 {
		names := make([]string, 0, len(out.Activities))
		for _, a := range out.Activities {
			names = append(names, a.Name.String())
		}
		description = strings.Join(unique(names), " / ")
	}

	summary := model.NewRecord().
		Set("dateReserved", dateOr(out.DateReserved, format.Date(in.Enrichment.Today))).
		Set("vendor", vendor).
		Set("confirmationNumber", prefixedReference(ts.ConfirmationPrefix, in.Facts, out)).
		Set("duration", daySpan(start, end)).
		Set("numberOfTravellers", countOr(out.Travellers, len(in.Facts.All(normalize.PassengerLabel)))).
		Set("tripType", out.TripType.String()).
		Set("basePrice", p.amount(string(out.BasePrice))).
		Set("commission", commText).
		Set("serviceProviderName", vendor).
		Set("startDate", format.NormalizeDate(string(start))).
		Set("endDate", format.NormalizeDate(string(end))).
		Set("description", description).
		Set("invoiceRemarks", out.InvoiceRemarks.String()).
		Set("agentRemarks", p.remarks(string(out.Deposit), comm))

	details := make([]*model.Record, 0, len(out.Activities))
	for _, a := range out.Activities {
		operator := a.Operator.String()
		if operator == "" {
			operator = vendor
		}
		end := a.EndDate
		if end == "" {
			end = a.StartDate
		}
		details = append(details, model.NewRecord().
			Set("serviceProviderName", operator).
			Set("startDate", format.NormalizeDate(string(a.StartDate))).
			Set("endDate", format.NormalizeDate(string(end))).
			Set("description", format.Lines(a.Name.String(), a.Description.String())).
			Set("clientfeedback", a.Notes.String()))
	}

	return []model.Section{
		model.NewSection(DayTourSummaryTitle, summary),
		model.NewListSection(DayTourDetailsTitle, details),
	}
}

// tourCommission resolves the commission screen value and the remark figure.
// An explicit figure wins; otherwise the rule set's default percentage of the base price applies.
func tourCommission(ts rules.TourRuleSet, p pricing, facts model.Facts, out tourOutput) (string, *commission) {
	c, ok := firstCommission(facts, ts.CommissionLabel, out.Commission)
	if !ok && ts.DefaultCommissionPercent != nil {
		if base, found := format.ParseMoney(string(out.BasePrice)); found {
			c = commission{amount: base.Mul(*ts.DefaultCommissionPercent).Div(decimal.NewFromInt(100))}
			ok = true
		}
	}
	if !ok {
		return "", nil
	}
	if ts.CommissionInSourceCurrency && !c.percent {
		return format.Money(c.amount.Round(2)), &c
	}
	return p.commissionText(c), &c
}

func tourVendor(ts rules.TourRuleSet, in Input) string {
	if ts.Vendor != "" {
		return ts.Vendor
	}
	return in.Classification.VendorName
}

// prefixedReference finds the booking reference starting with prefix among the model's
// references and the document's values, falling back to the stated confirmation number
func prefixedReference(prefix string, facts model.Facts, out tourOutput) string {
	if prefix == "" {
		return out.ConfirmationNumber.String()
	}
	candidates := append([]Text{out.ConfirmationNumber}, out.References...)
	for _, f := range facts {
		candidates = append(candidates, Text(f.Value))
	}
	prefix = strings.ToUpper(prefix)
	for _, c := range candidates {
		for _, tok := range strings.Fields(strings.ToUpper(string(c))) {
			tok = strings.Trim(tok, ".,;:()[]#")
			if strings.HasPrefix(tok, prefix) && len(tok) > len(prefix) && strings.ContainsAny(tok[len(prefix):], "0123456789") {
				return tok
			}
		}
	}
	return out.ConfirmationNumber.String()
}
