package extract

import (
	"context"
	"fmt"

	"github.com/ppiankov/itinera/internal/format"
	"github.com/ppiankov/itinera/internal/model"
	"github.com/ppiankov/itinera/internal/normalize"
	"github.com/ppiankov/itinera/internal/rules"
)

// Hotel section titles
const (
	HotelSummaryTitle = "Hotel Screen 1 (Summary)"
	HotelDetailsTitle = "Hotel Screen 2 (Details)"
)

const hotelGuide = `You are reading a hotel reservation.
taxAmount is the taxes and fees charged at booking. An amount due or payable at the property
(resort fee, city or local tax) goes in dueAtProperty and never in taxAmount.
Report subtotal when the document shows one.`

type hotelOutput struct {
	BookingDate        Text   `json:"bookingDate"`
	ConfirmationNumber Text   `json:"confirmationNumber"`
	RecordLocator      Text   `json:"recordLocator"`
	HotelName          Text   `json:"hotelName"`
	CheckInDate        Text   `json:"checkInDate"`
	CheckOutDate       Text   `json:"checkOutDate"`
	CheckInTime        Text   `json:"checkInTime"`
	CheckOutTime       Text   `json:"checkOutTime"`
	Guests             Text   `json:"guests"`
	Rooms              Text   `json:"rooms"`
	Category           Text   `json:"category"`
	Subtotal           Text   `json:"subtotal"`
	BaseAmount         Text   `json:"baseAmount"`
	TaxAmount          Text   `json:"taxAmount"`
	Commission         Text   `json:"commission"`
	Deposit            Text   `json:"deposit"`
	DueAtProperty      Text   `json:"dueAtProperty"`
	RoomCategory       Text   `json:"roomCategory"`
	RoomDescription    Text   `json:"roomDescription"`
	BeddingType        Text   `json:"beddingType"`
	Address            Text   `json:"address"`
	Phone              Text   `json:"phone"`
	Email              Text   `json:"email"`
	Promotions         []Text `json:"promotions"`
}

type hotelExtractor struct{ *Set }

func (x *hotelExtractor) Category() model.Category { return model.CategoryHotel }

func (x *hotelExtractor) SectionCount() int { return 2 }

func (x *hotelExtractor) Extract(ctx context.Context, in Input) ([]model.Section, error) {
	hs, key, err := x.rules.HotelSet(in.Classification.RuleSetKey)
	if err != nil {
		return nil, err
	}

	var out hotelOutput
	if err := x.understand(ctx, call{category: model.CategoryHotel, ruleSet: key, guide: hotelGuide}, in, &out); err != nil {
		return nil, err
	}

	p := newPricing(in.Enrichment)

	var (
		commText string
		comm     *commission
	)
	if c, ok := firstCommission(in.Facts, hs.CommissionLabel, out.Commission); ok {
		c.amount = c.amount.Abs()
		commText = p.commissionText(c)
		comm = &c
	}

	summary := model.NewRecord().
		Set("bookingDate", dateOr(out.BookingDate, format.Date(in.Enrichment.Today))).
		Set("vendor", in.Classification.VendorName).
		Set("confirmationNumber", out.ConfirmationNumber.String()).
		Set("recordLocator", out.RecordLocator.String()).
		Set("numberOfNights", nightSpan(out.CheckInDate, out.CheckOutDate)).
		Set("numberOfGuests", countOr(out.Guests, len(in.Facts.All(normalize.PassengerLabel)))).
		Set("numberOfUnits", countOr(out.Rooms, 1)).
		Set("category", out.Category.String()).
		Set("baseAmount", hotelBase(hs, p, out)).
		Set("taxAmount", p.amount(string(out.TaxAmount))).
		Set("commissionAmount", commText).
		Set("agentRemarks", p.remarks(string(out.Deposit), comm))

	checkIn := format.NormalizeTime(string(out.CheckInTime))
	if checkIn == "" {
		checkIn = x.rules.Hotel.DefaultCheckIn
	}
	checkOut := format.NormalizeTime(string(out.CheckOutTime))
	if checkOut == "" {
		checkOut = x.rules.Hotel.DefaultCheckOut
	}

	provider := out.HotelName.String()
	if provider == "" {
		provider = in.Classification.VendorName
	}
	details := model.NewRecord().
		Set("serviceProviderName", provider).
		Set("checkInDate", format.NormalizeDate(string(out.CheckInDate))).
		Set("checkOutDate", format.NormalizeDate(string(out.CheckOutDate))).
		Set("checkInTime", checkIn).
		Set("checkOutTime", checkOut).
		Set("roomCategory", out.RoomCategory.String()).
		Set("roomDescription", out.RoomDescription.String()).
		Set("beddingType", out.BeddingType.String()).
		Set("notesForClient", hotelNotes(hs, in, out))

	return []model.Section{
		model.NewSection(HotelSummaryTitle, summary),
		model.NewSection(HotelDetailsTitle, details),
	}, nil
}

// hotelBase derives the base from subtotal minus taxes when the vendor prints no base
func hotelBase(hs rules.HotelRuleSet, p pricing, out hotelOutput) string {
	if hs.BaseFromSubtotal {
		subtotal, ok1 := format.ParseMoney(string(out.Subtotal))
		tax, ok2 := format.ParseMoney(string(out.TaxAmount))
		if ok1 && ok2 {
			return p.value(subtotal.Sub(tax))
		}
	}
	return p.amount(string(out.BaseAmount))
}

// hotelNotes collects contact details, the due-at-property line and promotions.
// Amounts due at the property stay in the document currency.
func hotelNotes(hs rules.HotelRuleSet, in Input, out hotelOutput) string {
	due := string(out.DueAtProperty)
	for _, label := range hs.DueAtPropertyLabels {
		if v, ok := in.Facts.First(label); ok && format.HasMoney(v) {
			due = v
			break
		}
	}
	var dueLine string
	if d, ok := format.ParseMoney(due); ok && d.IsPositive() {
		dueLine = fmt.Sprintf("Due at property: %s $%s (city/local tax)", in.Enrichment.Currency, format.Money(d))
	}

	lines := []string{out.Address.String()}
	if phone := out.Phone.String(); phone != "" {
		lines = append(lines, "Phone: "+phone)
	}
	if email := out.Email.String(); email != "" {
		lines = append(lines, "Email: "+email)
	}
	lines = append(lines, dueLine)
	lines = append(lines, texts(out.Promotions)...)
	return format.Lines(lines...)
}
