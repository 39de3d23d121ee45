package advisor

import (
	"errors"
	"fmt"

	"github.com/sells-group/property-advisor/internal/artifact"
)

// Kind classifies an inference failure.
type Kind string

const (
	// ModelUnavailable: an artifact was missing or corrupt at startup. Fatal.
	ModelUnavailable Kind = "ModelUnavailable"
	// UnsupportedCategory: a field value is outside the trained vocabulary.
	UnsupportedCategory Kind = "UnsupportedCategory"
	// SchemaMismatch: the record shape differs from what the pipeline was
	// fitted on. Indicates version skew between code and artifacts.
	SchemaMismatch Kind = "SchemaMismatch"
	// InternalInferenceFailure covers every other pipeline fault.
	InternalInferenceFailure Kind = "InternalInferenceFailure"
)

// Stage names the pipeline that failed.
type Stage string

const (
	StageStartup        Stage = "startup"
	StageClassification Stage = "classification"
	StageRegression     Stage = "regression"
)

// InferenceError is the structured error returned by Infer and Load.
type InferenceError struct {
	Kind  Kind
	Stage Stage
	Err   error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("advisor: %s during %s: %v", e.Kind, e.Stage, e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }

// KindOf returns the Kind carried by err, or "" if err is not an InferenceError.
func KindOf(err error) Kind {
	var ie *InferenceError
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return ""
}

// classify maps a pipeline error onto the taxonomy.
func classify(stage Stage, err error) *InferenceError {
	var unknown *artifact.UnknownCategoryError
	var schema *artifact.SchemaError
	kind := InternalInferenceFailure
	switch {
	case errors.As(err, &unknown):
		kind = UnsupportedCategory
	case errors.As(err, &schema):
		kind = SchemaMismatch
	case errors.Is(err, artifact.ErrUnavailable):
		kind = ModelUnavailable
	}
	return &InferenceError{Kind: kind, Stage: stage, Err: err}
}
