// Package advisor turns a PropertyRecord into an investment recommendation
// and a five-year price forecast using the two pre-trained pipelines.
package advisor

import (
	"fmt"
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/property-advisor/internal/artifact"
	"github.com/sells-group/property-advisor/internal/model"
)

// positiveClass is the label index of "good investment" in PredictProba.
const positiveClass = 1

// Models is the immutable pair of pipelines loaded at startup.
type Models struct {
	Classifier artifact.Classifier
	Regressor  artifact.Regressor
}

// Advisor scores property records. It holds no mutable state and is safe
// for concurrent use.
type Advisor struct {
	models Models
}

// New creates an Advisor. Both pipelines are required; a partially loaded
// system is reported as ModelUnavailable.
func New(models Models) (*Advisor, error) {
	if models.Classifier == nil {
		return nil, &InferenceError{Kind: ModelUnavailable, Stage: StageStartup, Err: eris.New("classification pipeline not loaded")}
	}
	if models.Regressor == nil {
		return nil, &InferenceError{Kind: ModelUnavailable, Stage: StageStartup, Err: eris.New("regression pipeline not loaded")}
	}
	return &Advisor{models: models}, nil
}

// Infer scores rec with both pipelines. It returns a fully populated result,
// or an *InferenceError naming the failed stage. It never panics.
//
// Field ranges are not checked here: an out-of-vocabulary value surfaces from
// the pipeline encoder as UnsupportedCategory.
func (a *Advisor) Infer(rec model.PropertyRecord) (*model.InferenceResult, error) {
	isGood, confidence, err := a.classify(rec)
	if err != nil {
		return nil, err
	}
	forecast, err := a.forecast(rec)
	if err != nil {
		return nil, err
	}

	zap.L().Debug("advisor: inference complete",
		zap.String("city", rec.City),
		zap.Bool("good_investment", isGood),
		zap.Float64("confidence", confidence),
		zap.Float64("forecast_lakhs", forecast),
	)

	return &model.InferenceResult{
		IsGoodInvestment:   isGood,
		Confidence:         confidence,
		ForecastValueLakhs: forecast,
	}, nil
}

func (a *Advisor) classify(rec model.PropertyRecord) (isGood bool, confidence float64, err error) {
	defer recoverStage(StageClassification, &err)

	proba, err := a.models.Classifier.PredictProba(toRow(rec))
	if err != nil {
		return false, 0, classify(StageClassification, err)
	}
	if len(proba) <= positiveClass {
		return false, 0, &InferenceError{
			Kind:  InternalInferenceFailure,
			Stage: StageClassification,
			Err:   eris.Errorf("probability vector has %d classes, want at least 2", len(proba)),
		}
	}
	confidence = proba[positiveClass]
	if math.IsNaN(confidence) || confidence < 0 || confidence > 1 {
		return false, 0, &InferenceError{
			Kind:  InternalInferenceFailure,
			Stage: StageClassification,
			Err:   eris.Errorf("positive-class probability %v outside [0,1]", confidence),
		}
	}

	// The boolean comes from the pipeline's own decision rule, which may not
	// be a 0.5 cut on confidence.
	label, err := a.models.Classifier.Predict(toRow(rec))
	if err != nil {
		return false, 0, classify(StageClassification, err)
	}
	return label == positiveClass, confidence, nil
}

func (a *Advisor) forecast(rec model.PropertyRecord) (value float64, err error) {
	defer recoverStage(StageRegression, &err)

	value, err = a.models.Regressor.Predict(toRow(rec))
	if err != nil {
		return 0, classify(StageRegression, err)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, &InferenceError{
			Kind:  InternalInferenceFailure,
			Stage: StageRegression,
			Err:   eris.Errorf("non-finite forecast %v", value),
		}
	}
	return value, nil
}

// recoverStage converts a pipeline panic into InternalInferenceFailure.
func recoverStage(stage Stage, err *error) {
	if r := recover(); r != nil {
		zap.L().Error("advisor: pipeline panicked",
			zap.String("stage", string(stage)),
			zap.Any("panic", r),
		)
		*err = &InferenceError{
			Kind:  InternalInferenceFailure,
			Stage: stage,
			Err:   eris.Errorf("pipeline panic: %v", r),
		}
	}
}

// PipelineInfo describes one loaded pipeline. Name and Threshold are empty
// when the pipeline does not report them.
type PipelineInfo struct {
	Stage     Stage
	Name      string
	Columns   int
	Threshold float64
}

type named interface{ Name() string }

type thresholded interface{ Threshold() float64 }

// Pipelines describes the classifier and the regressor, in that order.
func (a *Advisor) Pipelines() []PipelineInfo {
	cls := PipelineInfo{Stage: StageClassification, Columns: len(a.models.Classifier.Columns())}
	if n, ok := a.models.Classifier.(named); ok {
		cls.Name = n.Name()
	}
	if th, ok := a.models.Classifier.(thresholded); ok {
		cls.Threshold = th.Threshold()
	}
	reg := PipelineInfo{Stage: StageRegression, Columns: len(a.models.Regressor.Columns())}
	if n, ok := a.models.Regressor.(named); ok {
		reg.Name = n.Name()
	}
	return []PipelineInfo{cls, reg}
}

// SchemaDrift lists differences between the record columns this build sends
// and the columns each pipeline was fitted on. Empty means no skew.
func (a *Advisor) SchemaDrift() []string {
	var drift []string
	drift = append(drift, columnDrift("classifier", a.models.Classifier.Columns())...)
	drift = append(drift, columnDrift("regressor", a.models.Regressor.Columns())...)
	return drift
}

func columnDrift(pipeline string, fitted []string) []string {
	sent := make(map[string]bool, len(Columns))
	for _, c := range Columns {
		sent[c] = true
	}
	var drift []string
	seen := make(map[string]bool, len(fitted))
	for _, c := range fitted {
		seen[c] = true
		if !sent[c] {
			drift = append(drift, fmt.Sprintf("%s expects column %s which is not sent", pipeline, c))
		}
	}
	for _, c := range Columns {
		if !seen[c] {
			drift = append(drift, fmt.Sprintf("%s was not fitted on column %s", pipeline, c))
		}
	}
	return drift
}
