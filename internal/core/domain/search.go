package domain

import (
	"errors"
	"fmt"
	"strings"
)

// SearchCriteria drives a free-text relevance scan over discovered filings.
type SearchCriteria struct {
	Filings         []DiscoveredFiling `json:"-"`
	Query           string             `json:"query"`
	Sections        []string           `json:"sections,omitempty"`
	MaxResults      int                `json:"max_results"`
	MinScore        float64            `json:"min_score"`
	IncludeSnippets bool               `json:"include_snippets"`
	SnippetLength   int                `json:"snippet_length"`
	Deduplicate     bool               `json:"deduplicate"`
}

func (c SearchCriteria) Validate() error {
	if strings.TrimSpace(c.Query) == "" {
		return WrapError(ErrInvalidCriteria, "validate search criteria", errors.New("query must not be empty"))
	}
	if c.MaxResults < 0 {
		return WrapError(ErrInvalidCriteria, "validate search criteria", fmt.Errorf("max_results must be >= 0, got %d", c.MaxResults))
	}
	if c.MinScore < 0 || c.MinScore > 1 {
		return WrapError(ErrInvalidCriteria, "validate search criteria", fmt.Errorf("min_score must be within [0,1], got %g", c.MinScore))
	}
	return nil
}

// SearchResult is one scored filing match. Score is always within [0,1].
type SearchResult struct {
	Filing          DiscoveredFiling `json:"filing"`
	Score           float64          `json:"score"`
	Snippet         string           `json:"snippet,omitempty"`
	MatchedSections []string         `json:"matched_sections,omitempty"`
}
