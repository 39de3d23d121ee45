package sheet

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/property-advisor/internal/present"
)

type field int

const (
	fieldState field = iota
	fieldCity
	fieldPropertyType
	fieldBHK
	fieldSizeSqFt
	fieldYearBuilt
	fieldFurnishedStatus
	fieldPublicTransport
	fieldParkingSpace
	fieldSecurity
	fieldOwnerType
	numFields
)

// headerAliases accepts the API field names and the dataset column names.
// Derived columns such as Age_of_Property are not listed and are ignored.
var headerAliases = map[string]field{
	"state":                          fieldState,
	"city":                           fieldCity,
	"property_type":                  fieldPropertyType,
	"bhk":                            fieldBHK,
	"size_sqft":                      fieldSizeSqFt,
	"size_in_sqft":                   fieldSizeSqFt,
	"year_built":                     fieldYearBuilt,
	"furnished_status":               fieldFurnishedStatus,
	"public_transport_accessibility": fieldPublicTransport,
	"public_transport":               fieldPublicTransport,
	"parking_space":                  fieldParkingSpace,
	"security":                       fieldSecurity,
	"owner_type":                     fieldOwnerType,
}

var fieldNames = [numFields]string{
	"state", "city", "property_type", "bhk", "size_sqft", "year_built",
	"furnished_status", "public_transport_accessibility", "parking_space",
	"security", "owner_type",
}

// columns maps each field to its cell index.
type columns []int

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(h)
}

func mapHeader(header []string) (columns, error) {
	cols := make(columns, numFields)
	for i := range cols {
		cols[i] = -1
	}
	for i, h := range header {
		f, ok := headerAliases[normalizeHeader(h)]
		if !ok {
			continue
		}
		if cols[f] >= 0 {
			return nil, eris.Errorf("sheet: duplicate column for %s", fieldNames[f])
		}
		cols[f] = i
	}

	var missing []string
	for f, idx := range cols {
		if idx < 0 {
			missing = append(missing, fieldNames[f])
		}
	}
	if len(missing) > 0 {
		return nil, eris.Errorf("sheet: header is missing columns: %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

func (c columns) input(row []string) present.RawInput {
	cell := func(f field) string {
		if i := c[f]; i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}
	return present.RawInput{
		State:           cell(fieldState),
		City:            cell(fieldCity),
		PropertyType:    cell(fieldPropertyType),
		BHK:             json.Number(cell(fieldBHK)),
		SizeSqFt:        json.Number(cell(fieldSizeSqFt)),
		YearBuilt:       json.Number(cell(fieldYearBuilt)),
		FurnishedStatus: cell(fieldFurnishedStatus),
		PublicTransport: cell(fieldPublicTransport),
		ParkingSpace:    cell(fieldParkingSpace),
		Security:        cell(fieldSecurity),
		OwnerType:       cell(fieldOwnerType),
	}
}
