package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/brettvantil/edgar-answer-engine/internal/core/domain"
	"github.com/brettvantil/edgar-answer-engine/internal/core/ports"
)

const defaultPageAttempts = 2

// DiscoveryEngine accumulates candidate filings page by page from the
// filing source, deduplicating by accession number and stopping at the
// requested bound or the end of the listing.
type DiscoveryEngine struct {
	source       ports.FilingSource
	pageTimeout  time.Duration
	pageAttempts int
}

func NewDiscoveryEngine(source ports.FilingSource, pageTimeout time.Duration) *DiscoveryEngine {
	if pageTimeout <= 0 {
		pageTimeout = 30 * time.Second
	}
	return &DiscoveryEngine{
		source:       source,
		pageTimeout:  pageTimeout,
		pageAttempts: defaultPageAttempts,
	}
}

// DiscoveryOutcome carries accumulated filings plus non-fatal page errors.
// Filings preserve source order; a cancelled run keeps what was gathered.
type DiscoveryOutcome struct {
	Filings   []domain.DiscoveredFiling
	Errors    []string
	Pages     int
	Cancelled bool
}

// Discover runs the pagination loop. Criteria errors and unrecoverable
// source conditions are fatal and discard partial accumulation; a single
// failed page fetch is retried and then recorded without aborting the run.
func (e *DiscoveryEngine) Discover(ctx context.Context, criteria domain.DiscoveryCriteria, sink domain.ProgressSink) (DiscoveryOutcome, error) {
	if err := criteria.Validate(); err != nil {
		return DiscoveryOutcome{}, err
	}
	if sink == nil {
		sink = domain.NopProgressSink{}
	}

	outcome := DiscoveryOutcome{Filings: make([]domain.DiscoveredFiling, 0, 64)}
	seen := make(map[string]struct{})
	pageToken := ""
	total := criteria.MaxFilings

	for {
		if ctx.Err() != nil {
			outcome.Cancelled = true
			return outcome, nil
		}

		page, err := e.fetchPage(ctx, criteria, pageToken)
		if err != nil {
			if domain.IsKind(err, domain.ErrSourceUnrecoverable) || domain.IsKind(err, domain.ErrInvalidCriteria) {
				return DiscoveryOutcome{}, err
			}
			if ctx.Err() != nil {
				outcome.Cancelled = true
				return outcome, nil
			}
			// Page token pagination cannot skip past a persistently failing
			// page, so record the error and stop accumulating.
			outcome.Errors = append(outcome.Errors, fmt.Sprintf("discovery page %d: %v", outcome.Pages+1, err))
			slog.Warn("discovery_page_failed", "page", outcome.Pages+1, "error", err)
			return outcome, nil
		}

		outcome.Pages++
		for _, filing := range page.Filings {
			if !matchesCriteria(filing, criteria) {
				continue
			}
			if _, dup := seen[filing.AccessionNumber]; dup {
				continue
			}
			seen[filing.AccessionNumber] = struct{}{}
			outcome.Filings = append(outcome.Filings, filing)
			if criteria.MaxFilings > 0 && len(outcome.Filings) >= criteria.MaxFilings {
				break
			}
		}

		if total == 0 {
			total = page.TotalEstimate
		}
		sink.Publish(domain.ProgressUpdate{
			Phase:       domain.PhaseDiscovery,
			Completed:   len(outcome.Filings),
			Total:       total,
			CurrentItem: fmt.Sprintf("page %d", outcome.Pages),
		})

		if criteria.MaxFilings > 0 && len(outcome.Filings) >= criteria.MaxFilings {
			return outcome, nil
		}
		if page.NextPageToken == "" {
			return outcome, nil
		}
		pageToken = page.NextPageToken
	}
}

func (e *DiscoveryEngine) fetchPage(ctx context.Context, criteria domain.DiscoveryCriteria, pageToken string) (ports.FilingPage, error) {
	var lastErr error
	for attempt := 1; attempt <= e.pageAttempts; attempt++ {
		pageCtx, cancel := context.WithTimeout(ctx, e.pageTimeout)
		page, err := e.source.ListFilings(pageCtx, criteria, pageToken)
		cancel()
		if err == nil {
			return page, nil
		}
		lastErr = err
		if domain.IsKind(err, domain.ErrSourceUnrecoverable) || domain.IsKind(err, domain.ErrInvalidCriteria) || ctx.Err() != nil {
			return ports.FilingPage{}, err
		}
	}
	return ports.FilingPage{}, lastErr
}

// matchesCriteria guards against source pages leaking filings outside the
// requested form-type set or date range.
func matchesCriteria(filing domain.DiscoveredFiling, criteria domain.DiscoveryCriteria) bool {
	if len(criteria.FormTypes) > 0 {
		matched := false
		for _, formType := range criteria.FormTypes {
			if filing.FormType == formType {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	if !criteria.DateFrom.IsZero() && filing.FiledAt.Before(criteria.DateFrom) {
		return false
	}
	if !criteria.DateTo.IsZero() && filing.FiledAt.After(criteria.DateTo) {
		return false
	}
	return true
}
