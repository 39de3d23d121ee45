package present

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/property-advisor/internal/model"
)

// RawInput is a property description as typed by a person: every field is
// text. Numeric fields are json.Number so API callers may send either 3 or
// "3". Unknown JSON keys, including age_of_property and price_per_sqft, are
// ignored: derived fields are never caller-supplied.
type RawInput struct {
	State           string      `json:"state"`
	City            string      `json:"city"`
	PropertyType    string      `json:"property_type"`
	BHK             json.Number `json:"bhk"`
	SizeSqFt        json.Number `json:"size_sqft"`
	YearBuilt       json.Number `json:"year_built"`
	FurnishedStatus string      `json:"furnished_status"`
	PublicTransport string      `json:"public_transport_accessibility"`
	ParkingSpace    string      `json:"parking_space"`
	Security        string      `json:"security"`
	OwnerType       string      `json:"owner_type"`
}

// InputError reports every problem found in a RawInput.
type InputError struct {
	Problems []string
}

func (e *InputError) Error() string {
	return "present: invalid input: " + strings.Join(e.Problems, "; ")
}

// Record parses and validates in. It returns an *InputError when any field
// is missing, malformed, or outside its domain. State and City are only
// trimmed.
func (in RawInput) Record() (model.PropertyRecord, error) {
	var problems []string
	note := func(err error) {
		if err != nil {
			problems = append(problems, strings.TrimPrefix(err.Error(), "model: "))
		}
	}

	rec := model.PropertyRecord{
		State: strings.TrimSpace(in.State),
		City:  strings.TrimSpace(in.City),
	}

	var err error
	rec.PropertyType, err = model.ParsePropertyType(in.PropertyType)
	note(err)
	rec.FurnishedStatus, err = model.ParseFurnishedStatus(in.FurnishedStatus)
	note(err)
	rec.PublicTransport, err = model.ParseAccessibility(in.PublicTransport)
	note(err)
	rec.ParkingSpace, err = model.ParseYesNo(in.ParkingSpace)
	note(err)
	rec.Security, err = model.ParseYesNo(in.Security)
	note(err)
	rec.OwnerType, err = model.ParseOwnerType(in.OwnerType)
	note(err)

	rec.BHK, err = parseInt("bhk", in.BHK)
	note(err)
	rec.SizeSqFt, err = parseInt("size_sqft", in.SizeSqFt)
	note(err)
	rec.YearBuilt, err = parseInt("year_built", in.YearBuilt)
	note(err)

	if len(problems) > 0 {
		return model.PropertyRecord{}, &InputError{Problems: problems}
	}
	if err := rec.Validate(); err != nil {
		msg := strings.TrimPrefix(err.Error(), "model: invalid property record: ")
		return model.PropertyRecord{}, &InputError{Problems: strings.Split(msg, "; ")}
	}
	return rec, nil
}

// FromRecord renders rec back into form values.
func FromRecord(rec model.PropertyRecord) RawInput {
	return RawInput{
		State:           rec.State,
		City:            rec.City,
		PropertyType:    string(rec.PropertyType),
		BHK:             json.Number(strconv.Itoa(rec.BHK)),
		SizeSqFt:        json.Number(strconv.Itoa(rec.SizeSqFt)),
		YearBuilt:       json.Number(strconv.Itoa(rec.YearBuilt)),
		FurnishedStatus: string(rec.FurnishedStatus),
		PublicTransport: string(rec.PublicTransport),
		ParkingSpace:    string(rec.ParkingSpace),
		Security:        string(rec.Security),
		OwnerType:       string(rec.OwnerType),
	}
}

// parseInt accepts whole numbers, including "3.0" from spreadsheets.
func parseInt(field string, raw json.Number) (int, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" {
		return 0, eris.Errorf("%s is required", field)
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, eris.Errorf("%s must be a whole number, got %q", field, s)
	}
	return int(f), nil
}
