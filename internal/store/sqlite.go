package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/suitability-cli/internal/model"
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
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id              TEXT PRIMARY KEY,
	farm_id         TEXT NOT NULL DEFAULT '',
	config_hash     TEXT NOT NULL DEFAULT '',
	farm            TEXT NOT NULL,
	recommendations TEXT NOT NULL,
	created_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS planting_plans (
	id            TEXT PRIMARY KEY,
	farm_id       TEXT NOT NULL DEFAULT '',
	spacing_m     REAL NOT NULL,
	max_slope_deg REAL NOT NULL,
	optimal_angle REAL NOT NULL,
	sapling_count INTEGER NOT NULL,
	dropped       INTEGER NOT NULL DEFAULT 0,
	geometry      BLOB,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_runs_farm_id ON runs(farm_id);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
CREATE INDEX IF NOT EXISTS idx_planting_plans_farm_id ON planting_plans(farm_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run *model.Run) error {
	stampRun(run)

	farmJSON, recsJSON, err := marshalRun(run)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal run")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, farm_id, config_hash, farm, recommendations, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.FarmID, run.ConfigHash, string(farmJSON), string(recsJSON), run.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert run %s", run.ID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, farm_id, config_hash, farm, recommendations, created_at FROM runs WHERE id = ?`,
		id,
	)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "run %s", id)
	}
	return r, err
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, farm_id, config_hash, farm, recommendations, created_at FROM runs WHERE 1=1`
	var args []any

	if filter.FarmID != "" {
		query += ` AND farm_id = ?`
		args = append(args, filter.FarmID)
	}
	query += ` ORDER BY created_at DESC, id LIMIT ?`
	args = append(args, listLimit(filter.Limit))

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) SavePlan(ctx context.Context, plan *model.PlantingPlan) error {
	stampPlan(plan)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO planting_plans (id, farm_id, spacing_m, max_slope_deg, optimal_angle, sapling_count, dropped, geometry, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		plan.ID, plan.FarmID, plan.SpacingM, plan.MaxSlopeDeg, plan.OptimalAngle,
		plan.SaplingCount, plan.Dropped, plan.Geometry, plan.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert plan %s", plan.ID)
}

func (s *SQLiteStore) GetPlan(ctx context.Context, id string) (*model.PlantingPlan, error) {
	var p model.PlantingPlan
	err := s.db.QueryRowContext(ctx,
		`SELECT id, farm_id, spacing_m, max_slope_deg, optimal_angle, sapling_count, dropped, geometry, created_at
		 FROM planting_plans WHERE id = ?`,
		id,
	).Scan(&p.ID, &p.FarmID, &p.SpacingM, &p.MaxSlopeDeg, &p.OptimalAngle, &p.SaplingCount, &p.Dropped, &p.Geometry, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "plan %s", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get plan")
	}
	return &p, nil
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var farmJSON, recsJSON string

	err := row.Scan(&r.ID, &r.FarmID, &r.ConfigHash, &farmJSON, &recsJSON, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}
	if err := unmarshalRun(&r, []byte(farmJSON), []byte(recsJSON)); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal run")
	}
	return &r, nil
}

func stampRun(run *model.Run) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
}

func stampPlan(plan *model.PlantingPlan) {
	if plan.ID == "" {
		plan.ID = uuid.New().String()
	}
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = time.Now().UTC()
	}
}

func marshalRun(run *model.Run) (farm []byte, recs []byte, err error) {
	profile := run.Farm
	if profile == nil {
		profile = model.FarmProfile{}
	}
	farm, err = json.Marshal(profile)
	if err != nil {
		return nil, nil, err
	}
	list := run.Recommendations
	if list == nil {
		list = []model.Recommendation{}
	}
	recs, err = json.Marshal(list)
	if err != nil {
		return nil, nil, err
	}
	return farm, recs, nil
}

func unmarshalRun(r *model.Run, farm, recs []byte) error {
	if err := json.Unmarshal(farm, &r.Farm); err != nil {
		return eris.Wrap(err, "farm")
	}
	if err := json.Unmarshal(recs, &r.Recommendations); err != nil {
		return eris.Wrap(err, "recommendations")
	}
	return nil
}
