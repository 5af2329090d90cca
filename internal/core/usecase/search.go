package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/brettvantil/edgar-answer-engine/internal/core/domain"
	"github.com/brettvantil/edgar-answer-engine/internal/core/ports"
)

// SearchEngine scores candidate filings against a free-text query. Content
// fetches run under a bounded worker pool; a failed fetch skips that filing
// without aborting the scan.
type SearchEngine struct {
	source       ports.FilingSource
	workers      int
	fetchTimeout time.Duration
}

func NewSearchEngine(source ports.FilingSource, workers int, fetchTimeout time.Duration) *SearchEngine {
	if workers <= 0 {
		workers = 4
	}
	if fetchTimeout <= 0 {
		fetchTimeout = 30 * time.Second
	}
	return &SearchEngine{
		source:       source,
		workers:      workers,
		fetchTimeout: fetchTimeout,
	}
}

type SearchOutcome struct {
	Results   []domain.SearchResult
	Errors    []string
	Fetched   int
	Cancelled bool
}

func (e *SearchEngine) Search(ctx context.Context, criteria domain.SearchCriteria, sink domain.ProgressSink) (SearchOutcome, error) {
	if err := criteria.Validate(); err != nil {
		return SearchOutcome{}, err
	}
	if sink == nil {
		sink = domain.NopProgressSink{}
	}

	queryTokens := distinctTokens(splitAlphaNumLower(criteria.Query))
	total := len(criteria.Filings)

	var (
		mu        sync.Mutex
		raw       []domain.SearchResult
		errs      []string
		fetched   int
		completed int
		cancelled bool
	)

	jobs := make(chan domain.DiscoveredFiling)
	var wg sync.WaitGroup
	workers := e.workers
	if workers > total {
		workers = total
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for filing := range jobs {
				if ctx.Err() != nil {
					mu.Lock()
					cancelled = true
					mu.Unlock()
					continue
				}

				result, err := e.scoreFiling(ctx, filing, criteria, queryTokens)

				mu.Lock()
				completed++
				if err != nil {
					errs = append(errs, fmt.Sprintf("search filing %s: %v", filing.AccessionNumber, err))
					slog.Warn("search_filing_skipped", "accession_number", filing.AccessionNumber, "error", err)
				} else {
					fetched++
					raw = append(raw, result)
				}
				done := completed
				mu.Unlock()

				sink.Publish(domain.ProgressUpdate{
					Phase:       domain.PhaseSearch,
					Completed:   done,
					Total:       total,
					CurrentItem: filing.AccessionNumber,
				})
			}
		}()
	}

	for _, filing := range criteria.Filings {
		jobs <- filing
	}
	close(jobs)
	wg.Wait()

	outcome := SearchOutcome{
		Errors:    errs,
		Fetched:   fetched,
		Cancelled: cancelled || ctx.Err() != nil,
	}
	outcome.Results = rankResults(raw, criteria)
	return outcome, nil
}

func (e *SearchEngine) scoreFiling(ctx context.Context, filing domain.DiscoveredFiling, criteria domain.SearchCriteria, queryTokens []string) (domain.SearchResult, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, e.fetchTimeout)
	defer cancel()

	sections, err := e.source.FetchFilingContent(fetchCtx, filing, criteria.Sections)
	if err != nil {
		return domain.SearchResult{}, err
	}

	freq := make(map[string]int)
	matchedSections := make([]string, 0, len(sections))
	bestSection := ""
	bestSectionScore := -1.0
	for _, section := range sections {
		text := normalizeContent(section.Text)
		sectionFreq := termFrequencies(splitAlphaNumLower(text))
		sectionScore := relevanceScore(queryTokens, sectionFreq)
		if sectionScore > 0 {
			matchedSections = append(matchedSections, section.ID)
		}
		if sectionScore > bestSectionScore {
			bestSectionScore = sectionScore
			bestSection = text
		}
		for token, count := range sectionFreq {
			freq[token] += count
		}
	}

	result := domain.SearchResult{
		Filing:          filing,
		Score:           relevanceScore(queryTokens, freq),
		MatchedSections: matchedSections,
	}
	if criteria.IncludeSnippets && result.Score > 0 {
		result.Snippet = extractSnippet(bestSection, queryTokens, criteria.SnippetLength)
	}
	return result, nil
}

// rankResults applies dedup, the score floor, descending order and the
// result bound. A zero-overlap filing is never a match regardless of the
// configured floor.
func rankResults(raw []domain.SearchResult, criteria domain.SearchCriteria) []domain.SearchResult {
	if criteria.Deduplicate {
		best := make(map[string]domain.SearchResult, len(raw))
		order := make([]string, 0, len(raw))
		for _, result := range raw {
			key := result.Filing.AccessionNumber
			current, ok := best[key]
			if !ok {
				order = append(order, key)
				best[key] = result
				continue
			}
			if result.Score > current.Score {
				best[key] = result
			}
		}
		deduped := make([]domain.SearchResult, 0, len(order))
		for _, key := range order {
			deduped = append(deduped, best[key])
		}
		raw = deduped
	}

	out := make([]domain.SearchResult, 0, len(raw))
	for _, result := range raw {
		if result.Score <= 0 || result.Score < criteria.MinScore {
			continue
		}
		out = append(out, result)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return strings.Compare(out[i].Filing.AccessionNumber, out[j].Filing.AccessionNumber) < 0
	})

	if criteria.MaxResults > 0 && len(out) > criteria.MaxResults {
		out = out[:criteria.MaxResults]
	}
	return out
}
