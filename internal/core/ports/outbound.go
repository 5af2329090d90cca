package ports

import (
	"context"

	"github.com/brettvantil/edgar-answer-engine/internal/core/domain"
)

// FilingPage is one page of a paginated filing listing. NextPageToken is
// empty when the source has no further pages. TotalEstimate is 0 when the
// source cannot estimate the full match count.
type FilingPage struct {
	Filings       []domain.DiscoveredFiling
	NextPageToken string
	TotalEstimate int
}

// FilingSource is the external filing corpus capability. Both calls must be
// safely retryable per page/item.
type FilingSource interface {
	ListFilings(ctx context.Context, criteria domain.DiscoveryCriteria, pageToken string) (FilingPage, error)
	FetchFilingContent(ctx context.Context, filing domain.DiscoveredFiling, sections []string) ([]domain.FilingSection, error)
}

// QueryClassifier maps raw query text onto exactly one pattern tag.
// Classification must be deterministic for identical input.
type QueryClassifier interface {
	Classify(ctx context.Context, queryText string) (domain.QueryPattern, error)
}

// AnswerGenerator produces the optional natural-language answer attached to
// full-detail envelopes.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, question string, results []domain.SearchResult) (string, error)
}

// EventPublisher notifies downstream consumers about completed resolutions.
type EventPublisher interface {
	PublishQueryCompleted(ctx context.Context, event domain.QueryCompletedEvent) error
}

// RunHistoryStore persists the query-run audit log. It is consumed by the
// recording worker only and never read back into a pipeline invocation.
type RunHistoryStore interface {
	RecordRun(ctx context.Context, run *domain.QueryRun) error
	ListRecentRuns(ctx context.Context, limit int) ([]domain.QueryRun, error)
}

// ReportExporter renders a thematic result for download.
type ReportExporter interface {
	ExportThematic(result *domain.ThematicSearchResult) ([]byte, error)
}
