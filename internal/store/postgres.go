package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/suitability-cli/internal/model"
)

// Pool is the subset of *pgxpool.Pool used by PostgresStore. pgxmock pools
// satisfy it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
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

	maxConns := int32(10)
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
	if err := connectRetry.do(ctx, "postgres ping", pool.Ping); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return NewPostgresFromPool(pool), nil
}

// NewPostgresFromPool wraps an existing pool.
func NewPostgresFromPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id              TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	farm_id         TEXT NOT NULL DEFAULT '',
	config_hash     TEXT NOT NULL DEFAULT '',
	farm            JSONB NOT NULL,
	recommendations JSONB NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS planting_plans (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	farm_id       TEXT NOT NULL DEFAULT '',
	spacing_m     DOUBLE PRECISION NOT NULL,
	max_slope_deg DOUBLE PRECISION NOT NULL,
	optimal_angle DOUBLE PRECISION NOT NULL,
	sapling_count INTEGER NOT NULL,
	dropped       INTEGER NOT NULL DEFAULT 0,
	geometry      BYTEA,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_runs_farm_id ON runs(farm_id);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_planting_plans_farm_id ON planting_plans(farm_id);
`

// Ping checks the connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveRun(ctx context.Context, run *model.Run) error {
	stampRun(run)

	farmJSON, recsJSON, err := marshalRun(run)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal run")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO runs (id, farm_id, config_hash, farm, recommendations, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		run.ID, run.FarmID, run.ConfigHash, farmJSON, recsJSON, run.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert run %s", run.ID)
}

func (s *PostgresStore) GetRun(ctx context.Context, id string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, farm_id, config_hash, farm, recommendations, created_at FROM runs WHERE id = $1`,
		id,
	)
	r, err := scanPgRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "run %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", id)
	}
	return r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, farm_id, config_hash, farm, recommendations, created_at FROM runs WHERE 1=1`
	var args []any

	if filter.FarmID != "" {
		args = append(args, filter.FarmID)
		query += fmt.Sprintf(` AND farm_id = $%d`, len(args))
	}
	args = append(args, listLimit(filter.Limit))
	query += fmt.Sprintf(` ORDER BY created_at DESC, id LIMIT $%d`, len(args))
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanPgRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) SavePlan(ctx context.Context, plan *model.PlantingPlan) error {
	stampPlan(plan)

	_, err := s.pool.Exec(ctx,
		`INSERT INTO planting_plans (id, farm_id, spacing_m, max_slope_deg, optimal_angle, sapling_count, dropped, geometry, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		plan.ID, plan.FarmID, plan.SpacingM, plan.MaxSlopeDeg, plan.OptimalAngle,
		plan.SaplingCount, plan.Dropped, plan.Geometry, plan.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert plan %s", plan.ID)
}

func (s *PostgresStore) GetPlan(ctx context.Context, id string) (*model.PlantingPlan, error) {
	var p model.PlantingPlan
	err := s.pool.QueryRow(ctx,
		`SELECT id, farm_id, spacing_m, max_slope_deg, optimal_angle, sapling_count, dropped, geometry, created_at
		 FROM planting_plans WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.FarmID, &p.SpacingM, &p.MaxSlopeDeg, &p.OptimalAngle, &p.SaplingCount, &p.Dropped, &p.Geometry, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "plan %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get plan %s", id)
	}
	return &p, nil
}

func scanPgRun(row pgx.Row) (*model.Run, error) {
	var r model.Run
	var farmJSON, recsJSON []byte

	if err := row.Scan(&r.ID, &r.FarmID, &r.ConfigHash, &farmJSON, &recsJSON, &r.CreatedAt); err != nil {
		return nil, err
	}
	if err := unmarshalRun(&r, farmJSON, recsJSON); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal run")
	}
	return &r, nil
}
