// Package present holds everything between a human and the advisor: form
// choices, raw-value parsing, and the text shown for results and failures.
package present

import "github.com/sells-group/property-advisor/internal/model"

// Form choices. State and City lists are display conveniences only; the
// pipelines decide which values they accept.
var (
	States = []string{"Tamil Nadu", "Maharashtra", "Punjab", "Rajasthan", "Karnataka"}
	Cities = []string{"Chennai", "Pune", "Ludhiana", "Jodhpur", "Mumbai", "Bangalore"}
)

// Form defaults.
const (
	DefaultBHK       = 3
	DefaultSizeSqFt  = 2500
	SizeStep         = 100
	DefaultYearBuilt = 2010
)

// Range is an inclusive numeric input range.
type Range struct {
	Min     int `json:"min"`
	Max     int `json:"max"`
	Default int `json:"default"`
	Step    int `json:"step"`
}

// Options describes every input the form offers.
type Options struct {
	States          []string `json:"states"`
	Cities          []string `json:"cities"`
	PropertyTypes   []string `json:"property_types"`
	BHK             Range    `json:"bhk"`
	SizeSqFt        Range    `json:"size_sqft"`
	YearBuilt       Range    `json:"year_built"`
	FurnishedStatus []string `json:"furnished_status"`
	PublicTransport []string `json:"public_transport_accessibility"`
	ParkingSpace    []string `json:"parking_space"`
	Security        []string `json:"security"`
	OwnerTypes      []string `json:"owner_types"`
}

// FormOptions returns the choices and defaults for the input form.
func FormOptions() Options {
	return Options{
		States:          append([]string(nil), States...),
		Cities:          append([]string(nil), Cities...),
		PropertyTypes:   names(model.PropertyTypes),
		BHK:             Range{Min: model.MinBHK, Max: model.MaxBHK, Default: DefaultBHK, Step: 1},
		SizeSqFt:        Range{Min: model.MinSizeSqFt, Max: model.MaxSizeSqFt, Default: DefaultSizeSqFt, Step: SizeStep},
		YearBuilt:       Range{Min: model.MinYearBuilt, Max: model.MaxYearBuilt, Default: DefaultYearBuilt, Step: 1},
		FurnishedStatus: names(model.FurnishedStatuses),
		PublicTransport: names(model.Accessibilities),
		ParkingSpace:    names(model.YesNoValues),
		Security:        names(model.YesNoValues),
		OwnerTypes:      names(model.OwnerTypes),
	}
}

// DefaultInput is the form's initial state: the first choice of every list
// and the numeric defaults.
func DefaultInput() RawInput {
	return RawInput{
		State:           States[0],
		City:            Cities[0],
		PropertyType:    string(model.Apartment),
		BHK:             "3",
		SizeSqFt:        "2500",
		YearBuilt:       "2010",
		FurnishedStatus: string(model.Furnished),
		PublicTransport: string(model.AccessHigh),
		ParkingSpace:    string(model.Yes),
		Security:        string(model.Yes),
		OwnerType:       string(model.Owner),
	}
}

func names[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
