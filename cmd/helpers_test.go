package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/property-advisor/internal/advisor"
	"github.com/sells-group/property-advisor/internal/artifact"
	"github.com/sells-group/property-advisor/internal/config"
	"github.com/sells-group/property-advisor/internal/model"
	"github.com/sells-group/property-advisor/internal/present"
)

// shippedModels points at the artifacts checked in under models/.
var shippedModels = config.ModelsConfig{Dir: "../models"}

func testAdvisor(t *testing.T) *advisor.Advisor {
	t.Helper()
	adv, err := loadAdvisor(context.Background(), shippedModels)
	require.NoError(t, err)
	return adv
}

type stubClassifier struct {
	err error
}

func (s *stubClassifier) Predict(artifact.Row) (int, error) { return 1, s.err }
func (s *stubClassifier) PredictProba(artifact.Row) ([]float64, error) { return []float64{0.2, 0.8}, s.err }
func (s *stubClassifier) Columns() []string { return advisor.Columns }

type stubRegressor struct {
	value float64
	err   error
}

func (s *stubRegressor) Predict(artifact.Row) (float64, error) { return s.value, s.err }
func (s *stubRegressor) Columns() []string { return advisor.Columns }

// stubAdvisor builds an Advisor over pipelines that fail with clsErr.
func stubAdvisor(t *testing.T, clsErr error) *advisor.Advisor {
	t.Helper()
	adv, err := advisor.New(advisor.Models{
		Classifier: &stubClassifier{err: clsErr},
		Regressor:  &stubRegressor{value: 150},
	})
	require.NoError(t, err)
	return adv
}

func mumbaiInput() present.RawInput {
	in := present.DefaultInput()
	in.State = "Maharashtra"
	in.City = "Mumbai"
	in.PropertyType = string(model.Apartment)
	return in
}
