package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// ReferenceYear is the year the pipelines were trained against. Age of a
// property is always measured from it, not from the wall clock.
const ReferenceYear = 2025

// Domain bounds for the numeric fields, inclusive.
const (
	MinBHK       = 1
	MaxBHK       = 6
	MinSizeSqFt  = 500
	MaxSizeSqFt  = 10000
	MinYearBuilt = 1950
	MaxYearBuilt = ReferenceYear
)

// PropertyType is the kind of dwelling.
type PropertyType string

const (
	Apartment        PropertyType = "Apartment"
	IndependentHouse PropertyType = "Independent House"
)

// FurnishedStatus describes how furnished a property is.
type FurnishedStatus string

const (
	Furnished     FurnishedStatus = "Furnished"
	SemiFurnished FurnishedStatus = "Semi-furnished"
	Unfurnished   FurnishedStatus = "Unfurnished"
)

// Accessibility rates public transport access.
type Accessibility string

const (
	AccessHigh   Accessibility = "High"
	AccessMedium Accessibility = "Medium"
	AccessLow    Accessibility = "Low"
)

// YesNo is a boolean carried as the "Yes"/"No" category the pipelines were trained on.
type YesNo string

const (
	Yes YesNo = "Yes"
	No  YesNo = "No"
)

// OwnerType identifies who is listing the property.
type OwnerType string

const (
	Owner   OwnerType = "Owner"
	Builder OwnerType = "Builder"
	Broker  OwnerType = "Broker"
)

// Closed vocabularies, in form display order.
var (
	PropertyTypes     = []PropertyType{Apartment, IndependentHouse}
	FurnishedStatuses = []FurnishedStatus{Furnished, SemiFurnished, Unfurnished}
	Accessibilities   = []Accessibility{AccessHigh, AccessMedium, AccessLow}
	YesNoValues       = []YesNo{Yes, No}
	OwnerTypes        = []OwnerType{Owner, Builder, Broker}
)

// PropertyRecord is one user-supplied description of a property. It carries
// only caller-settable fields: age and price per square foot are derived on
// demand and cannot be supplied.
type PropertyRecord struct {
	State           string          `json:"state"`
	City            string          `json:"city"`
	PropertyType    PropertyType    `json:"property_type"`
	BHK             int             `json:"bhk"`
	SizeSqFt        int             `json:"size_sqft"`
	YearBuilt       int             `json:"year_built"`
	FurnishedStatus FurnishedStatus `json:"furnished_status"`
	PublicTransport Accessibility   `json:"public_transport_accessibility"`
	ParkingSpace    YesNo           `json:"parking_space"`
	Security        YesNo           `json:"security"`
	OwnerType       OwnerType       `json:"owner_type"`
}

// AgeOfProperty returns ReferenceYear minus YearBuilt.
func (r PropertyRecord) AgeOfProperty() int {
	return ReferenceYear - r.YearBuilt
}

// PricePerSqFt returns SizeSqFt / 1000.
//
// This is a placeholder, not a price signal: the pipelines were fitted with
// this stand-in column and their output is calibrated against it. Replacing
// it with a real price would silently skew every prediction.
func (r PropertyRecord) PricePerSqFt() float64 {
	return float64(r.SizeSqFt) / 1000
}

// Validate checks every field against its declared domain. State and City
// only need to be non-empty; their vocabulary belongs to the pipelines.
func (r PropertyRecord) Validate() error {
	var problems []string
	if strings.TrimSpace(r.State) == "" {
		problems = append(problems, "state is required")
	}
	if strings.TrimSpace(r.City) == "" {
		problems = append(problems, "city is required")
	}
	if !contains(PropertyTypes, r.PropertyType) {
		problems = append(problems, "property_type must be one of "+join(PropertyTypes))
	}
	if r.BHK < MinBHK || r.BHK > MaxBHK {
		problems = append(problems, "bhk must be between 1 and 6")
	}
	if r.SizeSqFt < MinSizeSqFt || r.SizeSqFt > MaxSizeSqFt {
		problems = append(problems, "size_sqft must be between 500 and 10000")
	}
	if r.YearBuilt < MinYearBuilt || r.YearBuilt > MaxYearBuilt {
		problems = append(problems, "year_built must be between 1950 and 2025")
	}
	if !contains(FurnishedStatuses, r.FurnishedStatus) {
		problems = append(problems, "furnished_status must be one of "+join(FurnishedStatuses))
	}
	if !contains(Accessibilities, r.PublicTransport) {
		problems = append(problems, "public_transport_accessibility must be one of "+join(Accessibilities))
	}
	if !contains(YesNoValues, r.ParkingSpace) {
		problems = append(problems, "parking_space must be Yes or No")
	}
	if !contains(YesNoValues, r.Security) {
		problems = append(problems, "security must be Yes or No")
	}
	if !contains(OwnerTypes, r.OwnerType) {
		problems = append(problems, "owner_type must be one of "+join(OwnerTypes))
	}
	if len(problems) > 0 {
		return eris.Errorf("model: invalid property record: %s", strings.Join(problems, "; "))
	}
	return nil
}

// ParsePropertyType maps a raw value onto a PropertyType. Matching ignores
// case, spaces, hyphens and underscores, so "independent_house" and
// "IndependentHouse" both resolve.
func ParsePropertyType(raw string) (PropertyType, error) {
	return parseEnum(raw, PropertyTypes, "property type")
}

// ParseFurnishedStatus maps a raw value onto a FurnishedStatus.
func ParseFurnishedStatus(raw string) (FurnishedStatus, error) {
	return parseEnum(raw, FurnishedStatuses, "furnished status")
}

// ParseAccessibility maps a raw value onto an Accessibility.
func ParseAccessibility(raw string) (Accessibility, error) {
	return parseEnum(raw, Accessibilities, "public transport accessibility")
}

// ParseYesNo maps a raw value onto Yes or No. "true"/"false" are accepted.
func ParseYesNo(raw string) (YesNo, error) {
	switch normalizeToken(raw) {
	case "true", "y", "1":
		return Yes, nil
	case "false", "n", "0":
		return No, nil
	}
	return parseEnum(raw, YesNoValues, "yes/no")
}

// ParseOwnerType maps a raw value onto an OwnerType.
func ParseOwnerType(raw string) (OwnerType, error) {
	return parseEnum(raw, OwnerTypes, "owner type")
}

func parseEnum[T ~string](raw string, values []T, what string) (T, error) {
	want := normalizeToken(raw)
	for _, v := range values {
		if normalizeToken(string(v)) == want {
			return v, nil
		}
	}
	var zero T
	return zero, eris.Errorf("model: unknown %s %q (want one of %s)", what, raw, join(values))
}

func normalizeToken(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(s)
}

func contains[T comparable](values []T, v T) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func join[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
