package extract

import (
	"context"
	"strconv"
	"strings"

	"github.com/ppiankov/itinera/internal/format"
	"github.com/ppiankov/itinera/internal/model"
	"golang.org/x/text/language"
)

// Profile section titles
const (
	ProfileContactTitle     = "Profile Screen 1 (Contact)"
	ProfileTravellersTitle  = "Profile Screen 2 (Travellers)"
	ProfilePreferencesTitle = "Profile Screen 3 (Preferences)"
)

const profileGuide = `You are reading a new traveller profile form.
contact is the household's mailing contact. firstNames lists the first name of every adult
sharing it. Give one travellers entry per person with their own birth date and citizenship.`

type profileOutput struct {
	Contact struct {
		LastName    Text   `json:"lastName"`
		FirstNames  []Text `json:"firstNames"`
		MiddleNames Text   `json:"middleNames"`
		Address1    Text   `json:"address1"`
		Address2    Text   `json:"address2"`
		AptSuite    Text   `json:"aptSuite"`
		ZipCode     Text   `json:"zipCode"`
		City        Text   `json:"city"`
		State       Text   `json:"state"`
		Country     Text   `json:"country"`
		Phone       Text   `json:"phone"`
	} `json:"contact"`
	Travellers []struct {
		LastName    Text `json:"lastName"`
		FirstName   Text `json:"firstName"`
		MiddleNames Text `json:"middleNames"`
		Citizenship Text `json:"citizenship"`
		BirthDate   Text `json:"birthDate"`
		Email       Text `json:"email"`
	} `json:"travellers"`
	Preferences struct {
		EmergencyContact  Text `json:"emergencyContact"`
		TravelPreferences Text `json:"travelPreferences"`
		Destinations      Text `json:"destinations"`
		Loyalty           Text `json:"loyalty"`
	} `json:"preferences"`
}

type profileExtractor struct{ *Set }

func (x *profileExtractor) Category() model.Category { return model.CategoryProfile }

func (x *profileExtractor) SectionCount() int { return 3 }

func (x *profileExtractor) Extract(ctx context.Context, in Input) ([]model.Section, error) {
	var out profileOutput
	if err := x.understand(ctx, call{category: model.CategoryProfile, guide: profileGuide}, in, &out); err != nil {
		return nil, err
	}

	c := out.Contact
	firstNames := texts(c.FirstNames)
	if len(firstNames) == 0 {
		for _, t := range out.Travellers {
			if c.LastName == "" || strings.EqualFold(t.LastName.String(), c.LastName.String()) {
				firstNames = append(firstNames, t.FirstName.String())
			}
		}
	}
	area, number := splitPhone(string(c.Phone))

	contact := model.NewRecord().
		Set("lastName", c.LastName.String()).
		Set("firstName", strings.Join(unique(nonEmpty(firstNames)), " & ")).
		Set("middlenames", c.MiddleNames.String()).
		Set("address1", c.Address1.String()).
		Set("address2", c.Address2.String()).
		Set("aptSuite", c.AptSuite.String()).
		Set("zipCode", strings.ToUpper(c.ZipCode.String())).
		Set("city", c.City.String()).
		Set("state", stateCode(c.State.String())).
		Set("country", c.Country.String()).
		Set("phoneAreaCode", area).
		Set("phoneNumber", number)

	travellers := make([]*model.Record, 0, len(out.Travellers))
	for _, t := range out.Travellers {
		rec := model.NewRecord().
			Set("lastName", t.LastName.String()).
			Set("firstName", t.FirstName.String()).
			Set("middlenames", t.MiddleNames.String()).
			Set("citizenship", regionCode(t.Citizenship.String()))
		if born, ok := format.ParseDate(string(t.BirthDate)); ok {
			rec.Set("birthMonth", born.Month().String()).
				Set("birthDay", strconv.Itoa(born.Day())).
				Set("birthYear", strconv.Itoa(born.Year()))
		}
		rec.Set("email", strings.ToLower(t.Email.String()))
		travellers = append(travellers, rec)
	}

	pr := out.Preferences
	var prefs []string
	for _, block := range []struct{ title, text string }{
		{"Emergency Contact", pr.EmergencyContact.String()},
		{"Travel Preferences", pr.TravelPreferences.String()},
		{"Destinations", pr.Destinations.String()},
		{"Loyalty", pr.Loyalty.String()},
	} {
		if block.text != "" {
			prefs = append(prefs, block.title+": "+block.text)
		}
	}

	return []model.Section{
		model.NewSection(ProfileContactTitle, contact),
		model.NewListSection(ProfileTravellersTitle, travellers),
		model.NewSection(ProfilePreferencesTitle, model.NewRecord().Set("preferences", strings.Join(prefs, "\n"))),
	}, nil
}

// splitPhone splits a North American number into a 3-digit area code and a 7-digit number
func splitPhone(raw string) (string, string) {
	digits := format.DigitsOnly(raw)
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	if len(digits) != 10 {
		return "", ""
	}
	return digits[:3], digits[3:]
}

// regionCode turns "CAN", "ca" or "124" into a two-letter ISO 3166 code; unknown values are dropped
func regionCode(raw string) string {
	if raw == "" {
		return ""
	}
	r, err := language.ParseRegion(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return r.String()
}

func stateCode(s string) string {
	if len(s) == 2 {
		return strings.ToUpper(s)
	}
	return s
}
