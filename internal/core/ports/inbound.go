package ports

import (
	"context"

	"github.com/brettvantil/edgar-answer-engine/internal/core/domain"
)

// QueryResolver is the inbound contract for pattern-dispatched resolution.
type QueryResolver interface {
	Resolve(ctx context.Context, queryText string, options domain.QueryOptions) domain.ResultEnvelope
}

// CompanyFilingsService handles the company-specific direct-lookup
// pattern. The int return is the number of external source calls made.
type CompanyFilingsService interface {
	LatestFilings(ctx context.Context, queryText string, options domain.QueryOptions) (domain.CompanyFilingsData, int, error)
}

// ThematicSearcher is the inbound contract for the discovery-search-
// aggregation pipeline. Progress events are published to sink before the
// call returns; a nil-safe no-op sink is acceptable.
type ThematicSearcher interface {
	Run(ctx context.Context, params domain.ThematicSearchParams, sink domain.ProgressSink) (*domain.ThematicSearchResult, error)
}
