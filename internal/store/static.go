package store

import (
	"context"
	"slices"

	"github.com/rotisserie/eris"

	"github.com/sells-group/property-advisor/internal/model"
)

// StaticStore serves PlaceholderImportances for every model. It is the
// default when no database is configured and is read-only.
type StaticStore struct{}

// NewStatic returns the read-only placeholder store.
func NewStatic() *StaticStore { return &StaticStore{} }

func (s *StaticStore) FeatureImportances(_ context.Context, modelName string, limit int) (*model.ImportanceTable, error) {
	features := slices.Clone(PlaceholderImportances)
	if limit > 0 && limit < len(features) {
		features = features[:limit]
	}
	return &model.ImportanceTable{Model: modelName, Placeholder: true, Features: features}, nil
}

func (s *StaticStore) ReplaceFeatureImportances(context.Context, string, []model.FeatureImportance) error {
	return eris.New("static: store is read-only; configure store.driver sqlite or postgres")
}

func (s *StaticStore) Migrate(context.Context) error { return nil }

func (s *StaticStore) Close() error { return nil }
