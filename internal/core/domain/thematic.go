package domain

import "time"

// ThematicSearchParams bundles discovery and search settings for one
// pipeline invocation.
type ThematicSearchParams struct {
	Discovery       DiscoveryCriteria `json:"discovery"`
	Query           string            `json:"query"`
	Sections        []string          `json:"sections,omitempty"`
	MaxResults      int               `json:"max_results"`
	MinScore        float64           `json:"min_score"`
	IncludeSnippets bool              `json:"include_snippets"`
	SnippetLength   int               `json:"snippet_length"`
	Deduplicate     bool              `json:"deduplicate"`
}

func (p ThematicSearchParams) Validate() error {
	if err := p.Discovery.Validate(); err != nil {
		return err
	}
	return p.SearchCriteria(nil).Validate()
}

// SearchCriteria derives the search stage input from the params plus the
// filings discovery produced.
func (p ThematicSearchParams) SearchCriteria(filings []DiscoveredFiling) SearchCriteria {
	return SearchCriteria{
		Filings:         filings,
		Query:           p.Query,
		Sections:        p.Sections,
		MaxResults:      p.MaxResults,
		MinScore:        p.MinScore,
		IncludeSnippets: p.IncludeSnippets,
		SnippetLength:   p.SnippetLength,
		Deduplicate:     p.Deduplicate,
	}
}

// ThematicSearchResult is the pipeline output envelope. Results are frozen
// once the envelope is built; MatchingFilings always equals len(Results).
type ThematicSearchResult struct {
	Query               string               `json:"query"`
	ExecutionTime       time.Duration        `json:"execution_time"`
	TotalFilingsScanned int                  `json:"total_filings_scanned"`
	MatchingFilings     int                  `json:"matching_filings"`
	CompaniesFound      int                  `json:"companies_found"`
	Results             []SearchResult       `json:"results"`
	Aggregations        []ThemeAggregation   `json:"aggregations"`
	Criteria            ThematicSearchParams `json:"criteria"`
	ItemErrors          []string             `json:"item_errors,omitempty"`
	Cancelled           bool                 `json:"cancelled,omitempty"`
	ExternalCalls       int                  `json:"external_calls"`
}
