package artifact

import (
	"cmp"
	"math"
	"slices"
)

// FeatureWeight is the share of one encoded feature in a linear model's
// total absolute coefficient mass. Numerics are standardized before the
// model sees them, so weights are comparable across features.
type FeatureWeight struct {
	Feature string
	Weight  float64
}

// FeatureWeights ranks the classifier's encoded features by weight.
func (c *LinearClassifier) FeatureWeights() []FeatureWeight {
	return featureWeights(c.enc.featureNames(), c.doc.Model.Coef)
}

// FeatureWeights ranks the regressor's encoded features by weight.
func (r *LinearRegressor) FeatureWeights() []FeatureWeight {
	return featureWeights(r.enc.featureNames(), r.doc.Model.Coef)
}

func featureWeights(names []string, coef []float64) []FeatureWeight {
	var total float64
	for _, c := range coef {
		total += math.Abs(c)
	}
	out := make([]FeatureWeight, len(names))
	for i, name := range names {
		w := 0.0
		if total > 0 {
			w = math.Abs(coef[i]) / total
		}
		out[i] = FeatureWeight{Feature: name, Weight: w}
	}
	slices.SortStableFunc(out, func(a, b FeatureWeight) int {
		if c := cmp.Compare(b.Weight, a.Weight); c != 0 {
			return c
		}
		return cmp.Compare(a.Feature, b.Feature)
	})
	return out
}
