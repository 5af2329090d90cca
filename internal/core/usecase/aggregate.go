package usecase

import (
	"sort"

	"github.com/brettvantil/edgar-answer-engine/internal/core/domain"
)

const (
	topCompaniesLimit   = 10
	keyTermsLimit       = 5
	sampleSnippetsLimit = 5
	minSnippetSampleLen = 50
)

// Aggregate computes the theme summary over a ranked result set. It is a
// pure function: identical input always yields identical output. Empty
// input returns an empty sequence, not an empty aggregation record.
func Aggregate(query string, results []domain.SearchResult) []domain.ThemeAggregation {
	if len(results) == 0 {
		return []domain.ThemeAggregation{}
	}

	type companyStats struct {
		ticker     string
		matchCount int
		scoreSum   float64
		firstSeen  int
	}
	byCompany := make(map[string]*companyStats, len(results))
	companyOrder := make([]string, 0, len(results))
	byYear := make(map[int]int)

	for i, result := range results {
		name := result.Filing.CompanyName
		stats, ok := byCompany[name]
		if !ok {
			stats = &companyStats{ticker: result.Filing.Ticker, firstSeen: i}
			byCompany[name] = stats
			companyOrder = append(companyOrder, name)
		}
		stats.matchCount++
		stats.scoreSum += result.Score

		if !result.Filing.FiledAt.IsZero() {
			byYear[result.Filing.FiledAt.Year()]++
		}
	}

	sort.SliceStable(companyOrder, func(i, j int) bool {
		a, b := byCompany[companyOrder[i]], byCompany[companyOrder[j]]
		if a.matchCount != b.matchCount {
			return a.matchCount > b.matchCount
		}
		return a.firstSeen < b.firstSeen
	})

	top := make([]domain.CompanyActivity, 0, topCompaniesLimit)
	for _, name := range companyOrder {
		stats := byCompany[name]
		top = append(top, domain.CompanyActivity{
			CompanyName: name,
			Ticker:      stats.ticker,
			MatchCount:  stats.matchCount,
			AvgScore:    stats.scoreSum / float64(stats.matchCount),
		})
		if len(top) == topCompaniesLimit {
			break
		}
	}

	snippets := make([]string, 0, sampleSnippetsLimit)
	for _, result := range sortedByScore(results) {
		if len(result.Snippet) <= minSnippetSampleLen {
			continue
		}
		snippets = append(snippets, result.Snippet)
		if len(snippets) == sampleSnippetsLimit {
			break
		}
	}

	return []domain.ThemeAggregation{{
		Theme:             query,
		MatchingFilings:   len(results),
		DistinctCompanies: len(byCompany),
		TopCompanies:      top,
		FilingsByYear:     byYear,
		KeyTerms:          keyTerms(query, keyTermsLimit),
		SampleSnippets:    snippets,
	}}
}

func sortedByScore(results []domain.SearchResult) []domain.SearchResult {
	out := make([]domain.SearchResult, len(results))
	copy(out, results)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}
