package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/brettvantil/edgar-answer-engine/internal/core/domain"
	"github.com/brettvantil/edgar-answer-engine/internal/core/ports"
)

// PipelineConfig bounds the pipeline's interaction with the filing source.
type PipelineConfig struct {
	Workers      int
	FetchTimeout time.Duration
}

// ThematicPipeline runs discovery, search and aggregation strictly in
// sequence. Each invocation owns its accumulation state, so concurrent
// invocations share nothing but the injected filing source.
type ThematicPipeline struct {
	discovery *DiscoveryEngine
	search    *SearchEngine
}

func NewThematicPipeline(source ports.FilingSource, cfg PipelineConfig) *ThematicPipeline {
	return &ThematicPipeline{
		discovery: NewDiscoveryEngine(source, cfg.FetchTimeout),
		search:    NewSearchEngine(source, cfg.Workers, cfg.FetchTimeout),
	}
}

// Run executes the full pipeline. Fatal errors (invalid criteria,
// unrecoverable source conditions) are returned with no partial result;
// item-level failures and cancellation yield a tagged partial envelope.
func (p *ThematicPipeline) Run(ctx context.Context, params domain.ThematicSearchParams, sink domain.ProgressSink) (*domain.ThematicSearchResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = domain.NopProgressSink{}
	}
	started := time.Now()

	discovered, err := p.discovery.Discover(ctx, params.Discovery, sink)
	if err != nil {
		return nil, err
	}

	result := &domain.ThematicSearchResult{
		Query:               params.Query,
		TotalFilingsScanned: len(discovered.Filings),
		Results:             []domain.SearchResult{},
		Aggregations:        []domain.ThemeAggregation{},
		Criteria:            params,
		ItemErrors:          discovered.Errors,
		Cancelled:           discovered.Cancelled,
		ExternalCalls:       discovered.Pages,
	}

	// An empty discovery is a well-formed empty answer, not a failure.
	// Search and aggregation are skipped entirely.
	if len(discovered.Filings) == 0 {
		result.ExecutionTime = time.Since(started)
		slog.Info("thematic_search_empty", "query", params.Query, "pages", discovered.Pages)
		return result, nil
	}

	searched, err := p.search.Search(ctx, params.SearchCriteria(discovered.Filings), sink)
	if err != nil {
		return nil, err
	}
	result.Results = searched.Results
	result.MatchingFilings = len(searched.Results)
	result.CompaniesFound = distinctCompanies(searched.Results)
	result.ItemErrors = append(result.ItemErrors, searched.Errors...)
	result.Cancelled = result.Cancelled || searched.Cancelled
	result.ExternalCalls += searched.Fetched + len(searched.Errors)

	// Aggregation is synchronous; the bookend events keep the stream
	// symmetric with the other stages for callers that render phases.
	sink.Publish(domain.ProgressUpdate{Phase: domain.PhaseAggregation, Completed: 0, Total: 1})
	result.Aggregations = Aggregate(params.Query, searched.Results)
	sink.Publish(domain.ProgressUpdate{Phase: domain.PhaseAggregation, Completed: 1, Total: 1})

	result.ExecutionTime = time.Since(started)
	slog.Info("thematic_search_done",
		"query", params.Query,
		"scanned", result.TotalFilingsScanned,
		"matching", result.MatchingFilings,
		"companies", result.CompaniesFound,
		"cancelled", result.Cancelled,
		"duration_ms", float64(result.ExecutionTime.Microseconds())/1000.0,
	)
	return result, nil
}

func distinctCompanies(results []domain.SearchResult) int {
	seen := make(map[string]struct{}, len(results))
	for _, result := range results {
		seen[result.Filing.CompanyName] = struct{}{}
	}
	return len(seen)
}
