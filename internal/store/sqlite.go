package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/property-advisor/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS feature_importances (
	model      TEXT NOT NULL,
	feature    TEXT NOT NULL,
	score      REAL NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (model, feature)
);

CREATE INDEX IF NOT EXISTS idx_feature_importances_model_score ON feature_importances(model, score DESC);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) FeatureImportances(ctx context.Context, modelName string, limit int) (*model.ImportanceTable, error) {
	query := `SELECT feature, score FROM feature_importances WHERE model = ? ORDER BY score DESC, feature`
	args := []any{modelName}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: query feature importances for %s", modelName)
	}
	defer rows.Close() //nolint:errcheck

	table := &model.ImportanceTable{Model: modelName, Features: []model.FeatureImportance{}}
	for rows.Next() {
		var f model.FeatureImportance
		if err := rows.Scan(&f.Feature, &f.Score); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan feature importance")
		}
		table.Features = append(table.Features, f)
	}
	return table, eris.Wrap(rows.Err(), "sqlite: iterate feature importances")
}

func (s *SQLiteStore) ReplaceFeatureImportances(ctx context.Context, modelName string, features []model.FeatureImportance) error {
	if err := validateFeatures(modelName, features); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM feature_importances WHERE model = ?`, modelName); err != nil {
		return eris.Wrapf(err, "sqlite: clear feature importances for %s", modelName)
	}

	now := time.Now().UTC()
	for _, f := range features {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO feature_importances (model, feature, score, updated_at) VALUES (?, ?, ?, ?)`,
			modelName, f.Feature, f.Score, now,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert feature importance %s", f.Feature)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit feature importances")
}
