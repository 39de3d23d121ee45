package store

import (
	"context"
	"math"

	"github.com/rotisserie/eris"

	"github.com/sells-group/property-advisor/internal/model"
)

// Store persists the feature importance tables shown in the insights panel.
// Inference results are never stored.
type Store interface {
	// FeatureImportances returns the top limit features of modelName ordered
	// by descending score. limit <= 0 returns all of them. An unknown model
	// yields an empty table, not an error.
	FeatureImportances(ctx context.Context, modelName string, limit int) (*model.ImportanceTable, error)
	// ReplaceFeatureImportances atomically swaps the table for modelName.
	ReplaceFeatureImportances(ctx context.Context, modelName string, features []model.FeatureImportance) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// PlaceholderImportances is the illustrative table shown until real
// importances are seeded from a trained pipeline.
var PlaceholderImportances = []model.FeatureImportance{
	{Feature: "Price_per_SqFt", Score: 0.45},
	{Feature: "City_Mumbai", Score: 0.15},
	{Feature: "Size_in_SqFt", Score: 0.10},
	{Feature: "Age_of_Property", Score: 0.07},
	{Feature: "BHK", Score: 0.05},
}

// validateFeatures rejects tables that could not have come from a model.
func validateFeatures(modelName string, features []model.FeatureImportance) error {
	if modelName == "" {
		return eris.New("store: model name is required")
	}
	seen := make(map[string]bool, len(features))
	for i, f := range features {
		if f.Feature == "" {
			return eris.Errorf("store: feature %d has no name", i)
		}
		if seen[f.Feature] {
			return eris.Errorf("store: duplicate feature %s", f.Feature)
		}
		seen[f.Feature] = true
		if math.IsNaN(f.Score) || math.IsInf(f.Score, 0) {
			return eris.Errorf("store: feature %s has non-finite score", f.Feature)
		}
	}
	return nil
}
