package extract

import (
	"context"
	"strconv"

	"github.com/ppiankov/itinera/internal/format"
	"github.com/ppiankov/itinera/internal/model"
)

// Fee section titles
const (
	FeeSummaryTitle = "Service Fee Screen 1"
	FeeDetailsTitle = "Service Fee Screen 2"
)

const feeGuide = `You are counting the travellers an agency planning fee covers.`

type feeOutput struct {
	Noofpax Text `json:"noofpax"`
}

type feeExtractor struct{ *Set }

func (x *feeExtractor) Category() model.Category { return model.CategoryFee }

func (x *feeExtractor) SectionCount() int { return 2 }

// Extract asks only for the traveller count; every other field is synthesized
func (x *feeExtractor) Extract(ctx context.Context, in Input) ([]model.Section, error) {
	var out feeOutput
	if err := x.understand(ctx, call{category: model.CategoryFee, guide: feeGuide}, in, &out); err != nil {
		return nil, err
	}

	pax := 1
	if n, ok := count(out.Noofpax); ok {
		pax = n
	}

	fr := x.rules.Fee
	today := format.Date(in.Enrichment.Today)

	summary := model.NewRecord().
		Set("reservationDate", today).
		Set("vendorName", fr.VendorName).
		Set("duration", fr.Duration).
		Set("noofpax", strconv.Itoa(pax)).
		Set("noofunits", fr.Units).
		Set("tripType", fr.TripType).
		Set("chargedAs", fr.ChargedAs).
		Set("totalBase", format.Money(in.FeeAmount)).
		Set("commissionPercentage", fr.CommissionPercentage).
		Set("clientGstRate", fr.ClientGSTRate)

	details := model.NewRecord().
		Set("serviceProviderName", fr.VendorName).
		Set("startDate", today).
		Set("endDate", today).
		Set("description", fr.Description)

	return []model.Section{
		model.NewSection(FeeSummaryTitle, summary),
		model.NewSection(FeeDetailsTitle, details),
	}, nil
}
