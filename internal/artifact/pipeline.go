package artifact

import (
	"bytes"
	"encoding/json"
	"math"
	"slices"

	"github.com/rotisserie/eris"
)

// Pipeline kinds.
const (
	KindClassifier = "classifier"
	KindRegressor  = "regressor"
)

// Model types.
const (
	ModelLogistic = "logistic"
	ModelLinear   = "linear"
)

const defaultThreshold = 0.5

// Document is the portable export of one fitted pipeline.
type Document struct {
	Name        string            `json:"name"`
	Kind        string            `json:"kind"`
	Version     string            `json:"version,omitempty"`
	Columns     []string          `json:"columns"`
	Categorical []CategoricalSpec `json:"categorical"`
	Numeric     []NumericSpec     `json:"numeric"`
	Model       ModelSpec         `json:"model"`
}

// ModelSpec holds the fitted estimator parameters.
type ModelSpec struct {
	Type      string    `json:"type"`
	Intercept float64   `json:"intercept"`
	Coef      []float64 `json:"coef"`
	Threshold *float64  `json:"threshold,omitempty"` // logistic only, default 0.5
}

// LinearClassifier is a one-hot/standardize encoder followed by logistic regression.
type LinearClassifier struct {
	doc       Document
	enc       *encoder
	threshold float64
}

// LinearRegressor is a one-hot/standardize encoder followed by linear regression.
type LinearRegressor struct {
	doc Document
	enc *encoder
}

// DecodeDocument parses a pipeline export. Unknown fields are rejected so a
// format change on the training side fails loudly at load time.
func DecodeDocument(data []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, eris.Wrap(err, "artifact: decode document")
	}
	return &doc, nil
}

// NewClassifier builds a classifier from a decoded document.
func NewClassifier(doc Document) (*LinearClassifier, error) {
	if doc.Kind != KindClassifier {
		return nil, eris.Errorf("artifact: %s: kind %q is not a classifier", doc.Name, doc.Kind)
	}
	if doc.Model.Type != ModelLogistic {
		return nil, eris.Errorf("artifact: %s: unsupported classifier model %q", doc.Name, doc.Model.Type)
	}
	enc, err := buildEncoder(doc)
	if err != nil {
		return nil, err
	}
	threshold := defaultThreshold
	if doc.Model.Threshold != nil {
		threshold = *doc.Model.Threshold
		if threshold < 0 || threshold > 1 || math.IsNaN(threshold) {
			return nil, eris.Errorf("artifact: %s: threshold %v outside [0,1]", doc.Name, threshold)
		}
	}
	return &LinearClassifier{doc: doc, enc: enc, threshold: threshold}, nil
}

// NewRegressor builds a regressor from a decoded document.
func NewRegressor(doc Document) (*LinearRegressor, error) {
	if doc.Kind != KindRegressor {
		return nil, eris.Errorf("artifact: %s: kind %q is not a regressor", doc.Name, doc.Kind)
	}
	if doc.Model.Type != ModelLinear {
		return nil, eris.Errorf("artifact: %s: unsupported regressor model %q", doc.Name, doc.Model.Type)
	}
	enc, err := buildEncoder(doc)
	if err != nil {
		return nil, err
	}
	return &LinearRegressor{doc: doc, enc: enc}, nil
}

func buildEncoder(doc Document) (*encoder, error) {
	enc, err := newEncoder(doc.Columns, doc.Categorical, doc.Numeric)
	if err != nil {
		return nil, eris.Wrapf(err, "artifact: %s", doc.Name)
	}
	if len(doc.Model.Coef) != enc.width {
		return nil, eris.Errorf("artifact: %s: model has %d coefficients, encoder produces %d features",
			doc.Name, len(doc.Model.Coef), enc.width)
	}
	for _, c := range doc.Model.Coef {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, eris.Errorf("artifact: %s: non-finite coefficient", doc.Name)
		}
	}
	return enc, nil
}

func (m ModelSpec) decision(x []float64) float64 {
	z := m.Intercept
	for i, c := range m.Coef {
		z += c * x[i]
	}
	return z
}

// Columns returns the fitted input schema.
func (c *LinearClassifier) Columns() []string { return slices.Clone(c.doc.Columns) }

// Name returns the pipeline name from the export.
func (c *LinearClassifier) Name() string { return c.doc.Name }

// Threshold is the positive-class decision boundary used by Predict.
func (c *LinearClassifier) Threshold() float64 { return c.threshold }

// PredictProba returns [P(class 0), P(class 1)].
func (c *LinearClassifier) PredictProba(row Row) ([]float64, error) {
	x, err := c.enc.transform(row)
	if err != nil {
		return nil, err
	}
	p := sigmoid(c.doc.Model.decision(x))
	return []float64{1 - p, p}, nil
}

// Predict returns 1 when P(class 1) reaches the fitted threshold, else 0.
func (c *LinearClassifier) Predict(row Row) (int, error) {
	proba, err := c.PredictProba(row)
	if err != nil {
		return 0, err
	}
	if proba[1] >= c.threshold {
		return 1, nil
	}
	return 0, nil
}

// Columns returns the fitted input schema.
func (r *LinearRegressor) Columns() []string { return slices.Clone(r.doc.Columns) }

// Name returns the pipeline name from the export.
func (r *LinearRegressor) Name() string { return r.doc.Name }

// Predict returns the point estimate for row.
func (r *LinearRegressor) Predict(row Row) (float64, error) {
	x, err := r.enc.transform(row)
	if err != nil {
		return 0, err
	}
	return r.doc.Model.decision(x), nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
