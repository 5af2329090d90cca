package domain

import "time"

// QueryCompletedEvent is published after every resolve call for async run
// recording. It carries run stats only, never result payloads.
type QueryCompletedEvent struct {
	RunID          string        `json:"run_id"`
	Query          string        `json:"query"`
	Pattern        QueryPattern  `json:"pattern"`
	Success        bool          `json:"success"`
	ErrorCode      string        `json:"error_code,omitempty"`
	FilingsScanned int           `json:"filings_scanned"`
	MatchingCount  int           `json:"matching_count"`
	ExternalCalls  int           `json:"external_calls"`
	ExecutionTime  time.Duration `json:"execution_time"`
	CompletedAt    time.Time     `json:"completed_at"`
}

// QueryRun is one persisted audit-log row.
type QueryRun struct {
	ID             string
	Query          string
	Pattern        string
	Success        bool
	ErrorCode      string
	FilingsScanned int
	MatchingCount  int
	ExternalCalls  int
	ExecutionMS    int64
	CreatedAt      time.Time
}
