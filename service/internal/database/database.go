// internal/database/database.go
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/eric0410771/Game-Theory-Threes/service/internal/stats"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the shared connection pool. It stays nil when no database URL is
// configured, in which case callers skip persistence.
var DB *pgxpool.Pool

// Schema creates the run and block tables.
const Schema = `
CREATE TABLE IF NOT EXISTS training_runs (
	id            UUID PRIMARY KEY,
	player_opts   TEXT NOT NULL,
	env_opts      TEXT NOT NULL,
	total         INTEGER NOT NULL,
	block_size    INTEGER NOT NULL,
	started_at    TIMESTAMPTZ NOT NULL,
	finished_at   TIMESTAMPTZ,
	episodes      INTEGER,
	weights_path  TEXT,
	weights_hash  TEXT
);
CREATE TABLE IF NOT EXISTS training_blocks (
	run_id     UUID NOT NULL REFERENCES training_runs(id) ON DELETE CASCADE,
	count      INTEGER NOT NULL,
	episodes   INTEGER NOT NULL,
	average    DOUBLE PRECISION NOT NULL,
	max_score  INTEGER NOT NULL,
	ops        DOUBLE PRECISION NOT NULL,
	tiles      JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (run_id, count)
);`

const (
	insertRunSQL = `INSERT INTO training_runs (id, player_opts, env_opts, total, block_size, started_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	insertBlockSQL = `INSERT INTO training_blocks (run_id, count, episodes, average, max_score, ops, tiles)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (run_id, count) DO UPDATE SET episodes = EXCLUDED.episodes, average = EXCLUDED.average,
	max_score = EXCLUDED.max_score, ops = EXCLUDED.ops, tiles = EXCLUDED.tiles`
	finishRunSQL = `UPDATE training_runs SET finished_at = $2, episodes = $3, weights_path = $4, weights_hash = $5
WHERE id = $1`
)

// Run is the metadata of one training run.
type Run struct {
	ID         uuid.UUID
	PlayerOpts string
	EnvOpts    string
	Total      int
	Block      int
	StartedAt  time.Time
}

// Finish is what is known about a run once it ends.
type Finish struct {
	FinishedAt  time.Time
	Episodes    int
	WeightsPath string
	WeightsHash string
}

// ConnectDB opens DB and verifies the server answers.
func ConnectDB(ctx context.Context, url string) error {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("ping database: %w", err)
	}
	DB = pool
	return nil
}

// CloseDB closes DB if it was opened.
func CloseDB() {
	if DB != nil {
		DB.Close()
		DB = nil
	}
}

// EnsureSchema creates the tables when missing.
func EnsureSchema(ctx context.Context) error {
	if DB == nil {
		return nil
	}
	if _, err := DB.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// InsertRun records the start of a run.
func InsertRun(ctx context.Context, r Run) error {
	if DB == nil {
		return nil
	}
	if _, err := DB.Exec(ctx, insertRunSQL, runArgs(r)...); err != nil {
		return fmt.Errorf("insert run %s: %w", r.ID, err)
	}
	return nil
}

// InsertBlock records one block summary of a run.
func InsertBlock(ctx context.Context, runID uuid.UUID, b stats.BlockSummary) error {
	if DB == nil {
		return nil
	}
	args, err := blockArgs(runID, b)
	if err != nil {
		return err
	}
	if _, err := DB.Exec(ctx, insertBlockSQL, args...); err != nil {
		return fmt.Errorf("insert block %d of run %s: %w", b.Count, runID, err)
	}
	return nil
}

// FinishRun stamps the end of a run with its weight checkpoint.
func FinishRun(ctx context.Context, runID uuid.UUID, f Finish) error {
	if DB == nil {
		return nil
	}
	if _, err := DB.Exec(ctx, finishRunSQL, finishArgs(runID, f)...); err != nil {
		return fmt.Errorf("finish run %s: %w", runID, err)
	}
	return nil
}

func runArgs(r Run) []any {
	return []any{r.ID, r.PlayerOpts, r.EnvOpts, r.Total, r.Block, r.StartedAt}
}

func blockArgs(runID uuid.UUID, b stats.BlockSummary) ([]any, error) {
	tiles, err := json.Marshal(b.Tiles)
	if err != nil {
		return nil, fmt.Errorf("marshal tile rates: %w", err)
	}
	return []any{runID, b.Count, b.Episodes, b.Average, b.Max, b.Ops, tiles}, nil
}

func finishArgs(runID uuid.UUID, f Finish) []any {
	return []any{runID, f.FinishedAt, f.Episodes, nullable(f.WeightsPath), nullable(f.WeightsHash)}
}

// nullable maps "" to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
