// Package postgres persists the query-run audit log.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/brettvantil/edgar-answer-engine/internal/core/domain"
)

type RunRepository struct {
	db *sql.DB
}

func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *RunRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082401)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS query_runs (
	id TEXT PRIMARY KEY,
	query TEXT NOT NULL,
	pattern TEXT NOT NULL,
	success BOOLEAN NOT NULL,
	error_code TEXT,
	filings_scanned INTEGER NOT NULL DEFAULT 0,
	matching_count INTEGER NOT NULL DEFAULT 0,
	external_calls INTEGER NOT NULL DEFAULT 0,
	execution_ms BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_query_runs_created_at ON query_runs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_query_runs_pattern ON query_runs(pattern);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *RunRepository) RecordRun(ctx context.Context, run *domain.QueryRun) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO query_runs (id, query, pattern, success, error_code, filings_scanned, matching_count, external_calls, execution_ms, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (id) DO NOTHING
`, run.ID, run.Query, run.Pattern, run.Success, nullIfEmpty(run.ErrorCode), run.FilingsScanned, run.MatchingCount, run.ExternalCalls, run.ExecutionMS, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

func (r *RunRepository) ListRecentRuns(ctx context.Context, limit int) ([]domain.QueryRun, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT id, query, pattern, success, COALESCE(error_code, ''), filings_scanned, matching_count, external_calls, execution_ms, created_at
FROM query_runs
ORDER BY created_at DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent runs: %w", err)
	}
	defer rows.Close()

	out := make([]domain.QueryRun, 0)
	for rows.Next() {
		var run domain.QueryRun
		if err := rows.Scan(
			&run.ID,
			&run.Query,
			&run.Pattern,
			&run.Success,
			&run.ErrorCode,
			&run.FilingsScanned,
			&run.MatchingCount,
			&run.ExternalCalls,
			&run.ExecutionMS,
			&run.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return out, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
