package domain

// CompanyActivity summarizes one company's matches inside a theme.
type CompanyActivity struct {
	CompanyName string  `json:"company_name"`
	Ticker      string  `json:"ticker,omitempty"`
	MatchCount  int     `json:"match_count"`
	AvgScore    float64 `json:"avg_score"`
}

// ThemeAggregation is the summary computed over one ranked result set.
// TopCompanies is sorted by match count descending, ties kept in
// first-encountered order.
type ThemeAggregation struct {
	Theme             string            `json:"theme"`
	MatchingFilings   int               `json:"matching_filings"`
	DistinctCompanies int               `json:"distinct_companies"`
	TopCompanies      []CompanyActivity `json:"top_companies"`
	FilingsByYear     map[int]int       `json:"filings_by_year"`
	KeyTerms          []string          `json:"key_terms"`
	SampleSnippets    []string          `json:"sample_snippets"`
}
