package extract

import (
	"context"
	"strings"

	"github.com/ppiankov/itinera/internal/format"
	"github.com/ppiankov/itinera/internal/model"
)

// Insurance section titles
const (
	InsuranceSummaryTitle = "Insurance Screen 1 (Summary)"
	InsuranceDetailsTitle = "Insurance Screen 2 (Details)"
)

const insuranceGuide = `You are reading a travel insurance confirmation.
Give one policies entry per policy number, or per insured traveller when one policy covers several.`

type insuranceOutput struct {
	Policies []struct {
		ReservationDate Text `json:"reservationDate"`
		PolicyNumber    Text `json:"policyNumber"`
		Plan            Text `json:"plan"`
		Traveller       Text `json:"traveller"`
		StartDate       Text `json:"startDate"`
		EndDate         Text `json:"endDate"`
		TripType        Text `json:"tripType"`
		Premium         Text `json:"premium"`
		Commission      Text `json:"commission"`
	} `json:"policies"`
}

type insuranceExtractor struct{ *Set }

func (x *insuranceExtractor) Category() model.Category { return model.CategoryInsurance }

func (x *insuranceExtractor) SectionCount() int { return 2 }

// Extract returns one summary and one detail record per policy. Insurance has a single
// fixed policy rather than vendor rule sets.
func (x *insuranceExtractor) Extract(ctx context.Context, in Input) ([]model.Section, error) {
	ir := x.rules.Insurance

	var out insuranceOutput
	if err := x.understand(ctx, call{category: model.CategoryInsurance, guide: insuranceGuide}, in, &out); err != nil {
		return nil, err
	}

	p := newPricing(in.Enrichment)
	today := format.Date(in.Enrichment.Today)

	summaries := make([]*model.Record, 0, len(out.Policies))
	details := make([]*model.Record, 0, len(out.Policies))
	for _, pol := range out.Policies {
		number := pol.PolicyNumber.String()
		if ir.DigitsOnlyNumber {
			number = format.DigitsOnly(number)
		}

		var (
			commText string
			comm     *commission
		)
		if c, ok := parseCommission(string(pol.Commission)); ok {
			commText = p.commissionText(c)
			comm = &c
		}

		summaries = append(summaries, model.NewRecord().
			Set("reservationDate", dateOr(pol.ReservationDate, today)).
			Set("vendorName", ir.Vendor).
			Set("confirmationNumber", number).
			Set("noofpax", ir.PartyCount).
			Set("noofunits", ir.PartyCount).
			Set("duration", daySpan(pol.StartDate, pol.EndDate)).
			Set("tripType", pol.TripType.String()).
			Set("totalBase", p.amount(string(pol.Premium))).
			Set("totalCommission", commText).
			Set("agentRemarks", p.remarks("", comm)))

		details = append(details, model.NewRecord().
			Set("startDate", format.NormalizeDate(string(pol.StartDate))).
			Set("endDate", format.NormalizeDate(string(pol.EndDate))).
			Set("description", policyDescription(pol.Plan.String(), pol.Traveller.String())))
	}

	return []model.Section{
		model.NewListSection(InsuranceSummaryTitle, summaries),
		model.NewListSection(InsuranceDetailsTitle, details),
	}, nil
}

// policyDescription renders "<Plan> - <Traveller>", or whichever part is known
func policyDescription(plan, traveller string) string {
	parts := make([]string, 0, 2)
	for _, s := range []string{plan, traveller} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " - ")
}
