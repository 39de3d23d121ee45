package artifact

import (
	"fmt"
	"slices"

	"github.com/rotisserie/eris"
)

// CategoricalSpec one-hot encodes a string column over a fixed vocabulary.
type CategoricalSpec struct {
	Column     string   `json:"column"`
	Categories []string `json:"categories"`
}

// NumericSpec standardizes a numeric column as (x - mean) / scale.
type NumericSpec struct {
	Column string  `json:"column"`
	Mean   float64 `json:"mean"`
	Scale  float64 `json:"scale"`
}

// encoder turns a Row into the dense feature vector the model was fitted on.
// Categoricals come first in declared order, then numerics.
type encoder struct {
	columns     []string
	categorical []categoricalColumn
	numeric     []NumericSpec
	width       int
}

type categoricalColumn struct {
	column     string
	offset     int
	categories []string
	index      map[string]int
}

func newEncoder(columns []string, cats []CategoricalSpec, nums []NumericSpec) (*encoder, error) {
	if len(columns) == 0 {
		return nil, eris.New("artifact: no input columns declared")
	}
	declared := make(map[string]bool, len(columns))
	for _, c := range columns {
		if declared[c] {
			return nil, eris.Errorf("artifact: duplicate input column %s", c)
		}
		declared[c] = true
	}

	enc := &encoder{columns: columns}
	encoded := make(map[string]bool, len(columns))
	for _, spec := range cats {
		if !declared[spec.Column] {
			return nil, eris.Errorf("artifact: categorical column %s is not an input column", spec.Column)
		}
		if len(spec.Categories) == 0 {
			return nil, eris.Errorf("artifact: categorical column %s has no categories", spec.Column)
		}
		idx := make(map[string]int, len(spec.Categories))
		for i, cat := range spec.Categories {
			idx[cat] = i
		}
		enc.categorical = append(enc.categorical, categoricalColumn{
			column:     spec.Column,
			offset:     enc.width,
			categories: slices.Clone(spec.Categories),
			index:      idx,
		})
		enc.width += len(spec.Categories)
		encoded[spec.Column] = true
	}
	for _, spec := range nums {
		if !declared[spec.Column] {
			return nil, eris.Errorf("artifact: numeric column %s is not an input column", spec.Column)
		}
		if encoded[spec.Column] {
			return nil, eris.Errorf("artifact: column %s encoded twice", spec.Column)
		}
		if spec.Scale == 0 {
			spec.Scale = 1
		}
		enc.numeric = append(enc.numeric, spec)
		enc.width++
		encoded[spec.Column] = true
	}
	return enc, nil
}

func (e *encoder) transform(row Row) ([]float64, error) {
	if err := checkColumns(e.columns, row); err != nil {
		return nil, err
	}
	x := make([]float64, e.width)
	for _, col := range e.categorical {
		s, ok := row[col.column].(string)
		if !ok {
			return nil, &SchemaError{Column: col.column, Want: "string", Got: fmt.Sprintf("%T", row[col.column])}
		}
		i, ok := col.index[s]
		if !ok {
			return nil, &UnknownCategoryError{Column: col.column, Value: s}
		}
		x[col.offset+i] = 1
	}
	offset := e.width - len(e.numeric)
	for i, spec := range e.numeric {
		v, ok := toFloat(row[spec.Column])
		if !ok {
			return nil, &SchemaError{Column: spec.Column, Want: "numeric", Got: fmt.Sprintf("%T", row[spec.Column])}
		}
		x[offset+i] = (v - spec.Mean) / spec.Scale
	}
	return x, nil
}

// featureNames names each position of the encoded vector. One-hot features
// are "<column>_<category>", numerics keep their column name.
func (e *encoder) featureNames() []string {
	names := make([]string, 0, e.width)
	for _, col := range e.categorical {
		for _, cat := range col.categories {
			names = append(names, col.column+"_"+cat)
		}
	}
	for _, spec := range e.numeric {
		names = append(names, spec.Column)
	}
	return names
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
