package advisor

import (
	"github.com/sells-group/property-advisor/internal/artifact"
	"github.com/sells-group/property-advisor/internal/model"
)

// Column names the pipelines were fitted on.
const (
	ColState           = "State"
	ColCity            = "City"
	ColPropertyType    = "Property_Type"
	ColBHK             = "BHK"
	ColSizeSqFt        = "Size_in_SqFt"
	ColPricePerSqFt    = "Price_per_SqFt"
	ColYearBuilt       = "Year_Built"
	ColFurnishedStatus = "Furnished_Status"
	ColAgeOfProperty   = "Age_of_Property"
	ColPublicTransport = "Public_Transport_Accessibility"
	ColParkingSpace    = "Parking_Space"
	ColSecurity        = "Security"
	ColOwnerType       = "Owner_Type"
)

// Columns lists the record schema in training order.
var Columns = []string{
	ColState, ColCity, ColPropertyType, ColBHK, ColSizeSqFt, ColPricePerSqFt,
	ColYearBuilt, ColFurnishedStatus, ColAgeOfProperty, ColPublicTransport,
	ColParkingSpace, ColSecurity, ColOwnerType,
}

// toRow is the only place a PropertyRecord becomes a loosely-typed row.
// Derived columns are computed here from the record.
func toRow(r model.PropertyRecord) artifact.Row {
	return artifact.Row{
		ColState:           r.State,
		ColCity:            r.City,
		ColPropertyType:    string(r.PropertyType),
		ColBHK:             r.BHK,
		ColSizeSqFt:        r.SizeSqFt,
		ColPricePerSqFt:    r.PricePerSqFt(),
		ColYearBuilt:       r.YearBuilt,
		ColFurnishedStatus: string(r.FurnishedStatus),
		ColAgeOfProperty:   r.AgeOfProperty(),
		ColPublicTransport: string(r.PublicTransport),
		ColParkingSpace:    string(r.ParkingSpace),
		ColSecurity:        string(r.Security),
		ColOwnerType:       string(r.OwnerType),
	}
}
