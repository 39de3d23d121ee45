package present

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/property-advisor/internal/advisor"
	"github.com/sells-group/property-advisor/internal/artifact"
	"github.com/sells-group/property-advisor/internal/model"
)

// Amounts are shown in lakhs with Indian digit grouping.
var inrPrinter = message.NewPrinter(language.MustParse("en-IN"))

// Analysis is a scored property ready for display.
type Analysis struct {
	ID             string                 `json:"id"`
	Result         *model.InferenceResult `json:"result"`
	Recommendation string                 `json:"recommendation"`
	Forecast       string                 `json:"forecast"`
}

// NewAnalysis renders res for display under the given request id.
func NewAnalysis(id string, res *model.InferenceResult) *Analysis {
	return &Analysis{
		ID:             id,
		Result:         res,
		Recommendation: Recommendation(res),
		Forecast:       Forecast(res.ForecastValueLakhs),
	}
}

// Recommendation is the headline verdict. The wording follows the
// classifier's own decision, and the confidence shown is always the
// probability of "good", whichever way the decision went.
func Recommendation(res *model.InferenceResult) string {
	pct := res.Confidence * 100
	if res.IsGoodInvestment {
		return fmt.Sprintf("GOOD INVESTMENT! High potential for profit. (Confidence: %.1f%%)", pct)
	}
	return fmt.Sprintf("MODERATE INVESTMENT. Potential profit may be lower. (Confidence of being 'Good': %.1f%%)", pct)
}

// Forecast formats a value in lakhs, e.g. "₹ 123.46 Lakhs".
func Forecast(lakhs float64) string {
	return inrPrinter.Sprintf("₹ %.2f Lakhs", lakhs)
}

// ModelsMissingMessage is shown when the pipelines could not be loaded.
const ModelsMissingMessage = "Error: Model files not found. Ensure 'cls_pipeline.json' and 'reg_pipeline.json' are in the 'models/' directory."

// ErrorMessage turns an inference or input failure into text for the
// person who submitted the form.
func ErrorMessage(err error) string {
	var inErr *InputError
	if errors.As(err, &inErr) {
		return "Please check your input: " + strings.Join(inErr.Problems, "; ")
	}

	var ie *advisor.InferenceError
	if !errors.As(err, &ie) {
		return "Something went wrong while analysing this property. Please try again."
	}
	switch ie.Kind {
	case advisor.ModelUnavailable:
		return ModelsMissingMessage
	case advisor.UnsupportedCategory:
		return "A value you selected is not recognised by the model. Please choose a different " + categoryHint(err) + "."
	case advisor.SchemaMismatch:
		return "The model files do not match this version of the application. Please contact the administrator."
	default:
		return fmt.Sprintf("The %s model failed to produce a result. Please try again.", ie.Stage)
	}
}

// columnLabels maps pipeline column names to the labels used on the form.
var columnLabels = map[string]string{
	advisor.ColState:           "state",
	advisor.ColCity:            "city",
	advisor.ColPropertyType:    "property type",
	advisor.ColFurnishedStatus: "furnished status",
	advisor.ColPublicTransport: "public transport accessibility",
	advisor.ColParkingSpace:    "parking space option",
	advisor.ColSecurity:        "security option",
	advisor.ColOwnerType:       "owner type",
}

func categoryHint(err error) string {
	var unknown *artifact.UnknownCategoryError
	if errors.As(err, &unknown) {
		if label, ok := columnLabels[unknown.Column]; ok {
			return label
		}
	}
	return "value"
}
