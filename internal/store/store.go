// Package store keeps the history of generation runs and step executions in
// PostgreSQL.
package store

import (
	"context"
	stdjson "encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/prunact/internal/act"
	"github.com/xkilldash9x/prunact/internal/act/runner"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DBPool abstracts pgxpool.Pool so the store can be tested with pgxmock.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// Mode says what a run did with its plan.
type Mode string

const (
	ModeGenerate Mode = "generate"
	ModeRun      Mode = "run"
	ModeRehearse Mode = "rehearse"
)

// RunRecord is one generation pass and, when it was executed, its results.
type RunRecord struct {
	ID          uuid.UUID
	PackageName string
	Mode        Mode
	CreatedAt   time.Time
	Result      act.RunResult
	Log         []act.LogEntry
}

// RunSummary is a row of the run history.
type RunSummary struct {
	ID          uuid.UUID `json:"id"`
	PackageName string    `json:"packageName"`
	Mode        Mode      `json:"mode"`
	CreatedAt   time.Time `json:"createdAt"`
	Failed      bool      `json:"failed"`
	StepCount   int       `json:"stepCount"`
	Completed   int       `json:"completed"`
}

const schema = `
CREATE TABLE IF NOT EXISTS act_runs (
    id           UUID PRIMARY KEY,
    package_name TEXT        NOT NULL,
    mode         TEXT        NOT NULL,
    created_at   TIMESTAMPTZ NOT NULL,
    failed       BOOLEAN     NOT NULL,
    step_count   INTEGER     NOT NULL,
    log          JSONB       NOT NULL DEFAULT '[]'
);
CREATE TABLE IF NOT EXISTS act_run_steps (
    run_id UUID    NOT NULL REFERENCES act_runs (id) ON DELETE CASCADE,
    idx    INTEGER NOT NULL,
    type   TEXT    NOT NULL,
    data   JSONB   NOT NULL,
    PRIMARY KEY (run_id, idx)
);
CREATE TABLE IF NOT EXISTS act_step_results (
    run_id      UUID        NOT NULL REFERENCES act_runs (id) ON DELETE CASCADE,
    idx         INTEGER     NOT NULL,
    type        TEXT        NOT NULL,
    description TEXT        NOT NULL,
    outcome     TEXT        NOT NULL,
    message     TEXT        NOT NULL,
    started_at  TIMESTAMPTZ NOT NULL,
    elapsed_ms  BIGINT      NOT NULL,
    PRIMARY KEY (run_id, idx)
);
CREATE INDEX IF NOT EXISTS act_runs_created_at_idx ON act_runs (created_at DESC);
`

const sqlInsertRun = `
    INSERT INTO act_runs (id, package_name, mode, created_at, failed, step_count, log)
    VALUES ($1, $2, $3, $4, $5, $6, $7);
`

const sqlListRuns = `
    SELECT r.id, r.package_name, r.mode, r.created_at, r.failed, r.step_count,
           COUNT(s.idx) FILTER (WHERE s.outcome = 'completed') AS completed
    FROM act_runs r
    LEFT JOIN act_step_results s ON s.run_id = r.id
    GROUP BY r.id
    ORDER BY r.created_at DESC
    LIMIT $1;
`

const sqlRunSteps = `
    SELECT type, data FROM act_run_steps WHERE run_id = $1 ORDER BY idx ASC;
`

var (
	runStepColumns   = []string{"run_id", "idx", "type", "data"}
	stepResultColumn = []string{"run_id", "idx", "type", "description", "outcome", "message", "started_at", "elapsed_ms"}
)

// Store is the PostgreSQL run history.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

// New creates a store and verifies the connection.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{pool: pool, log: logger.Named("store")}, nil
}

// EnsureSchema creates the history tables when they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveRun stores a run and its generated steps in one transaction. A zero ID
// or CreatedAt is filled in; the effective ID is returned.
func (s *Store) SaveRun(ctx context.Context, run RunRecord) (uuid.UUID, error) {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	logJSON, err := json.Marshal(orEmpty(run.Log))
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to encode run log: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			s.log.Error("Failed to rollback transaction", zap.Error(rollbackErr))
		}
	}()

	if _, err := tx.Exec(ctx, sqlInsertRun,
		run.ID, run.PackageName, string(run.Mode), run.CreatedAt.UTC(),
		run.Result.Fail, len(run.Result.Steps), logJSON,
	); err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert run: %w", err)
	}

	if len(run.Result.Steps) > 0 {
		rows := make([][]any, len(run.Result.Steps))
		for i, step := range run.Result.Steps {
			data := step.Data
			if len(data) == 0 {
				data = stdjson.RawMessage("{}")
			}
			rows[i] = []any{run.ID, i, step.Type, data}
		}
		n, err := tx.CopyFrom(ctx, pgx.Identifier{"act_run_steps"}, runStepColumns, pgx.CopyFromRows(rows))
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to copy run steps: %w", err)
		}
		if int(n) != len(rows) {
			return uuid.Nil, fmt.Errorf("mismatch in copied steps count: expected %d, got %d", len(rows), n)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.log.Debug("Run saved", zap.String("run_id", run.ID.String()), zap.Int("steps", len(run.Result.Steps)))
	return run.ID, nil
}

// SaveStepResults stores the outcome of executed steps of a run.
func (s *Store) SaveStepResults(ctx context.Context, runID uuid.UUID, results []runner.StepResult) error {
	if len(results) == 0 {
		return nil
	}
	rows := make([][]any, len(results))
	for i, r := range results {
		rows[i] = []any{
			runID, r.Index, r.Type, r.Description, string(r.Outcome), r.Message,
			r.StartedAt.UTC(), r.Elapsed.Milliseconds(),
		}
	}
	n, err := s.pool.CopyFrom(ctx, pgx.Identifier{"act_step_results"}, stepResultColumn, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to copy step results: %w", err)
	}
	if int(n) != len(rows) {
		return fmt.Errorf("mismatch in copied results count: expected %d, got %d", len(rows), n)
	}
	return nil
}

// ListRuns returns the most recent runs first. A non-positive limit means 20.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, sqlListRuns, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		var mode string
		if err := rows.Scan(&r.ID, &r.PackageName, &mode, &r.CreatedAt, &r.Failed, &r.StepCount, &r.Completed); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		r.Mode = Mode(mode)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return out, nil
}

// RunSteps returns the generated plan of a run in order.
func (s *Store) RunSteps(ctx context.Context, runID uuid.UUID) ([]act.Step, error) {
	rows, err := s.pool.Query(ctx, sqlRunSteps, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run steps: %w", err)
	}
	defer rows.Close()

	var out []act.Step
	for rows.Next() {
		var step act.Step
		var data []byte
		if err := rows.Scan(&step.Type, &data); err != nil {
			return nil, fmt.Errorf("failed to scan step row: %w", err)
		}
		step.Data = data
		out = append(out, step)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return out, nil
}

func orEmpty(entries []act.LogEntry) []act.LogEntry {
	if entries == nil {
		return []act.LogEntry{}
	}
	return entries
}
