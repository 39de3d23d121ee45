package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/property-advisor/internal/advisor"
	"github.com/sells-group/property-advisor/internal/artifact"
	"github.com/sells-group/property-advisor/internal/config"
	"github.com/sells-group/property-advisor/internal/store"
)

// modelPaths resolves the artifact locations from config.
func modelPaths(c config.ModelsConfig) (artifact.Paths, error) {
	return artifact.ResolvePaths(c.Dir, c.ClassifierFile, c.RegressorFile)
}

// loadAdvisor loads both pipelines. Every entrypoint calls it before reading
// any input; a failure is logged once and ends the command.
func loadAdvisor(ctx context.Context, c config.ModelsConfig) (*advisor.Advisor, error) {
	paths, err := modelPaths(c)
	if err != nil {
		return nil, &advisor.InferenceError{Kind: advisor.ModelUnavailable, Stage: advisor.StageStartup, Err: err}
	}
	return advisor.Load(ctx, paths)
}

// initStore opens the configured insights store and applies its migration.
func initStore(ctx context.Context, c config.StoreConfig) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch c.Driver {
	case "", "static":
		return store.NewStatic(), nil
	case "sqlite":
		st, err = store.NewSQLite(c.DatabaseURL)
	case "postgres":
		st, err = store.NewPostgres(ctx, c.DatabaseURL, &store.PoolConfig{MaxConns: c.MaxConns, MinConns: c.MinConns})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", c.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	zap.L().Debug("insights store ready", zap.String("driver", c.Driver))
	return st, nil
}
