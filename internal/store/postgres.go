package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/property-advisor/internal/db"
	"github.com/sells-group/property-advisor/internal/model"
)

const importanceTable = "feature_importances"

var importanceColumns = []string{"model", "feature", "score", "updated_at"}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// The insights panel issues a handful of reads; keep the pool small.
	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := retry(ctx, connectRetry, "postgres ping", pool.Ping); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS feature_importances (
	model      TEXT NOT NULL,
	feature    TEXT NOT NULL,
	score      DOUBLE PRECISION NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (model, feature)
);

CREATE INDEX IF NOT EXISTS idx_feature_importances_model_score ON feature_importances(model, score DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) FeatureImportances(ctx context.Context, modelName string, limit int) (*model.ImportanceTable, error) {
	query := `SELECT feature, score FROM feature_importances WHERE model = $1 ORDER BY score DESC, feature`
	args := []any{modelName}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: query feature importances for %s", modelName)
	}
	defer rows.Close()

	table := &model.ImportanceTable{Model: modelName, Features: []model.FeatureImportance{}}
	for rows.Next() {
		var f model.FeatureImportance
		if err := rows.Scan(&f.Feature, &f.Score); err != nil {
			return nil, eris.Wrap(err, "postgres: scan feature importance")
		}
		table.Features = append(table.Features, f)
	}
	return table, eris.Wrap(rows.Err(), "postgres: iterate feature importances")
}

func (s *PostgresStore) ReplaceFeatureImportances(ctx context.Context, modelName string, features []model.FeatureImportance) error {
	if err := validateFeatures(modelName, features); err != nil {
		return err
	}

	now := time.Now().UTC()
	rows := make([][]any, len(features))
	for i, f := range features {
		rows[i] = []any{modelName, f.Feature, f.Score, now}
	}

	_, err := db.Replace(ctx, s.pool, db.ReplaceConfig{
		Table:     importanceTable,
		KeyColumn: "model",
		Key:       modelName,
		Columns:   importanceColumns,
	}, rows)
	return eris.Wrapf(err, "postgres: replace feature importances for %s", modelName)
}
