package usecase

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/brettvantil/edgar-answer-engine/internal/core/domain"
	"github.com/brettvantil/edgar-answer-engine/internal/core/ports"
)

var tickerPattern = regexp.MustCompile(`\b[A-Z]{1,5}\b`)

// CompanyLookupUseCase answers company-specific queries with the latest
// filings for the referenced company, via the same filing source the
// pipeline discovers against.
type CompanyLookupUseCase struct {
	source       ports.FilingSource
	fetchTimeout time.Duration
	now          func() time.Time
}

func NewCompanyLookupUseCase(source ports.FilingSource, fetchTimeout time.Duration) *CompanyLookupUseCase {
	if fetchTimeout <= 0 {
		fetchTimeout = 30 * time.Second
	}
	return &CompanyLookupUseCase{
		source:       source,
		fetchTimeout: fetchTimeout,
		now:          time.Now,
	}
}

func (uc *CompanyLookupUseCase) LatestFilings(ctx context.Context, queryText string, options domain.QueryOptions) (domain.CompanyFilingsData, int, error) {
	cue := extractCompanyCue(queryText)
	if cue == "" {
		return domain.CompanyFilingsData{}, 0, domain.WrapError(domain.ErrInvalidCriteria, "company lookup",
			errors.New("no company reference found in query"))
	}

	now := uc.now()
	criteria := domain.DiscoveryCriteria{
		FormTypes:  options.FormTypes,
		DateFrom:   now.AddDate(0, 0, -options.LookbackDays),
		DateTo:     now,
		Companies:  []string{cue},
		MaxFilings: options.MaxResults,
		SortBy:     domain.SortByFilingDate,
		SortOrder:  domain.SortDescending,
	}
	if len(criteria.FormTypes) == 0 {
		criteria.FormTypes = []string{"10-K", "10-Q", "8-K"}
	}
	if criteria.MaxFilings <= 0 {
		criteria.MaxFilings = 10
	}

	fetchCtx, cancel := context.WithTimeout(ctx, uc.fetchTimeout)
	defer cancel()
	page, err := uc.source.ListFilings(fetchCtx, criteria, "")
	if err != nil {
		return domain.CompanyFilingsData{}, 1, err
	}

	filings := page.Filings
	if len(filings) > criteria.MaxFilings {
		filings = filings[:criteria.MaxFilings]
	}

	data := domain.CompanyFilingsData{Filings: filings}
	if len(filings) > 0 {
		data.CompanyName = filings[0].CompanyName
		data.Ticker = filings[0].Ticker
		data.CIK = filings[0].CIK
	} else {
		data.CompanyName = cue
		data.Filings = []domain.DiscoveredFiling{}
	}
	return data, 1, nil
}

// extractCompanyCue finds the company reference in free text: an uppercase
// ticker-looking token first, otherwise the longest run of capitalized
// words. Common query openers are not cues.
func extractCompanyCue(queryText string) string {
	for _, candidate := range tickerPattern.FindAllString(queryText, -1) {
		if !isQueryNoiseWord(candidate) {
			return candidate
		}
	}

	words := strings.Fields(queryText)
	best := ""
	current := make([]string, 0, 4)
	flush := func() {
		if len(current) > 0 {
			candidate := strings.Join(current, " ")
			if len(candidate) > len(best) {
				best = candidate
			}
			current = current[:0]
		}
	}
	for _, word := range words {
		trimmed := strings.Trim(word, ".,?!'\"")
		if trimmed == "" || isQueryNoiseWord(trimmed) || !startsUpper(trimmed) {
			flush()
			continue
		}
		current = append(current, trimmed)
	}
	flush()
	return best
}

func startsUpper(s string) bool {
	return s != "" && s[0] >= 'A' && s[0] <= 'Z'
}

func isQueryNoiseWord(s string) bool {
	switch strings.ToLower(s) {
	case "what", "when", "where", "which", "who", "how", "did", "does", "is",
		"are", "was", "were", "the", "a", "an", "show", "list", "find", "get",
		"latest", "recent", "sec", "edgar", "k", "q":
		return true
	default:
		return false
	}
}
