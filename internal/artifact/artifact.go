// Package artifact loads and evaluates the pre-trained property pipelines.
//
// The training side exports each fitted pipeline (column encoder plus model)
// to a portable JSON document. This package reads those documents and exposes
// them through the Classifier and Regressor interfaces, mirroring the
// predict / predict_proba surface of the trained pipelines.
package artifact

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Row is a single loosely-typed tabular record keyed by column name. Values
// are strings for categorical columns and numbers for numeric columns.
type Row map[string]any

// Classifier is a fitted classification pipeline.
type Classifier interface {
	// Predict returns the class label chosen by the pipeline's own decision rule.
	Predict(row Row) (int, error)
	// PredictProba returns per-class probabilities, indexed by class label.
	PredictProba(row Row) ([]float64, error)
	Columns() []string
}

// Regressor is a fitted regression pipeline.
type Regressor interface {
	Predict(row Row) (float64, error)
	Columns() []string
}

// ErrUnavailable marks an artifact that is missing, unreadable or corrupt.
var ErrUnavailable = errors.New("artifact unavailable")

// UnknownCategoryError is returned when a categorical value was never seen
// during training.
type UnknownCategoryError struct {
	Column string
	Value  string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("artifact: found unknown category %q in column %s", e.Value, e.Column)
}

// SchemaError is returned when a row does not have the shape the pipeline
// was fitted on: missing or unexpected columns, or a value of the wrong type.
type SchemaError struct {
	Missing    []string
	Unexpected []string
	Column     string // set for a type mismatch
	Want       string
	Got        string
}

func (e *SchemaError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("artifact: column %s: want %s value, got %s", e.Column, e.Want, e.Got)
	}
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing columns "+strings.Join(e.Missing, ", "))
	}
	if len(e.Unexpected) > 0 {
		parts = append(parts, "unexpected columns "+strings.Join(e.Unexpected, ", "))
	}
	return "artifact: row does not match fitted schema: " + strings.Join(parts, "; ")
}

// checkColumns verifies the row carries exactly the fitted column set.
func checkColumns(columns []string, row Row) error {
	want := make(map[string]struct{}, len(columns))
	var missing []string
	for _, c := range columns {
		want[c] = struct{}{}
		if _, ok := row[c]; !ok {
			missing = append(missing, c)
		}
	}
	var unexpected []string
	for c := range row {
		if _, ok := want[c]; !ok {
			unexpected = append(unexpected, c)
		}
	}
	if len(missing) == 0 && len(unexpected) == 0 {
		return nil
	}
	sort.Strings(unexpected)
	return &SchemaError{Missing: missing, Unexpected: unexpected}
}
