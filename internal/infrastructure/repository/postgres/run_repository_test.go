package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/brettvantil/edgar-answer-engine/internal/core/domain"
)

func TestRunRepositoryRecordRun(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewRunRepository(db)
	run := domain.QueryRun{
		ID:             "r-1",
		Query:          "which companies mention tariffs",
		Pattern:        "thematic",
		Success:        true,
		FilingsScanned: 120,
		MatchingCount:  14,
		ExternalCalls:  122,
		ExecutionMS:    5400,
		CreatedAt:      time.Now(),
	}

	mock.ExpectExec("INSERT INTO query_runs").
		WithArgs(run.ID, run.Query, run.Pattern, run.Success, nil, run.FilingsScanned, run.MatchingCount, run.ExternalCalls, run.ExecutionMS, run.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.RecordRun(context.Background(), &run); err != nil {
		t.Fatalf("RecordRun() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRunRepositoryRecordRunStoresErrorCode(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewRunRepository(db)
	run := domain.QueryRun{
		ID:        "r-2",
		Query:     "q",
		Pattern:   "thematic",
		Success:   false,
		ErrorCode: "discovery_failed",
		CreatedAt: time.Now(),
	}

	mock.ExpectExec("INSERT INTO query_runs").
		WithArgs(run.ID, run.Query, run.Pattern, run.Success, run.ErrorCode, 0, 0, 0, int64(0), run.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.RecordRun(context.Background(), &run); err != nil {
		t.Fatalf("RecordRun() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRunRepositoryListRecentRuns(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewRunRepository(db)
	rows := sqlmock.NewRows([]string{
		"id", "query", "pattern", "success", "error_code",
		"filings_scanned", "matching_count", "external_calls", "execution_ms", "created_at",
	}).
		AddRow("r-2", "q2", "thematic", true, "", 80, 9, 82, int64(3100), time.Now()).
		AddRow("r-1", "q1", "company_specific", false, "invalid_criteria", 0, 0, 1, int64(40), time.Now())

	mock.ExpectQuery("FROM query_runs").
		WithArgs(25).
		WillReturnRows(rows)

	runs, err := repo.ListRecentRuns(context.Background(), 25)
	if err != nil {
		t.Fatalf("ListRecentRuns() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != "r-2" || runs[1].ErrorCode != "invalid_criteria" {
		t.Fatalf("unexpected rows %+v", runs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
