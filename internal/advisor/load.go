package advisor

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/property-advisor/internal/artifact"
)

// Load reads both artifacts concurrently and returns a ready Advisor. Any
// failure is a ModelUnavailable InferenceError: the caller must not accept
// input without a fully loaded pair.
func Load(ctx context.Context, paths artifact.Paths) (*Advisor, error) {
	if err := ctx.Err(); err != nil {
		return nil, &InferenceError{Kind: ModelUnavailable, Stage: StageStartup, Err: err}
	}
	start := time.Now()
	var models Models

	var g errgroup.Group
	g.Go(func() error {
		c, err := artifact.LoadClassifier(paths.Classifier, paths.ClassifierSHA256)
		if err != nil {
			return &InferenceError{Kind: ModelUnavailable, Stage: StageClassification, Err: err}
		}
		models.Classifier = c
		return nil
	})
	g.Go(func() error {
		r, err := artifact.LoadRegressor(paths.Regressor, paths.RegressorSHA256)
		if err != nil {
			return &InferenceError{Kind: ModelUnavailable, Stage: StageRegression, Err: err}
		}
		models.Regressor = r
		return nil
	})
	if err := g.Wait(); err != nil {
		zap.L().Error("advisor: model artifacts unavailable",
			zap.String("classifier", paths.Classifier),
			zap.String("regressor", paths.Regressor),
			zap.Error(err),
		)
		return nil, err
	}

	zap.L().Info("advisor: models loaded",
		zap.String("classifier", paths.Classifier),
		zap.String("regressor", paths.Regressor),
		zap.Duration("elapsed", time.Since(start)),
	)
	a, err := New(models)
	if err != nil {
		return nil, err
	}
	for _, d := range a.SchemaDrift() {
		zap.L().Warn("advisor: schema drift", zap.String("detail", d))
	}
	return a, nil
}
