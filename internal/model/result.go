package model

// InferenceResult is the outcome of scoring one PropertyRecord. It lives for a
// single request and is never persisted.
type InferenceResult struct {
	IsGoodInvestment   bool    `json:"is_good_investment"`
	Confidence         float64 `json:"confidence"`           // probability of the positive class, 0.0-1.0
	ForecastValueLakhs float64 `json:"forecast_value_lakhs"` // estimated value after 5 years
}

// FeatureImportance is one row of a model's feature importance table.
type FeatureImportance struct {
	Feature string  `json:"feature"`
	Score   float64 `json:"score"`
}

// Figure is a static reference chart rendered next to the results. Note is
// set when the image file is missing.
type Figure struct {
	Name      string `json:"name"`
	Title     string `json:"title"`
	Caption   string `json:"caption"`
	Available bool   `json:"available"`
	Note      string `json:"note,omitempty"`
}

// ImportanceTable is the ranked feature importance list for one pipeline.
// Placeholder marks illustrative data that was not computed from a model.
type ImportanceTable struct {
	Model       string              `json:"model"`
	Placeholder bool                `json:"placeholder"`
	Features    []FeatureImportance `json:"features"`
}
