// Package heuristic classifies free-text filing questions into a query
// pattern using keyword cues. It is deterministic and needs no model
// call, so identical queries always classify the same way.
package heuristic

import (
	"context"
	"regexp"
	"strings"

	"github.com/brettvantil/edgar-answer-engine/internal/core/domain"
)

var tickerPattern = regexp.MustCompile(`\b[A-Z]{2,5}\b`)

// Cues that signal a cross-document, theme-oriented question.
var thematicCues = []string{
	"which companies", "what companies", "companies that", "companies mention",
	"across filings", "across companies", "mention", "discuss", "disclose",
	"theme", "trend", "risk factor", "how many companies",
}

// Cues that ask about filing inventory rather than filing content.
var metadataCues = []string{
	"how many filings", "number of filings", "count of filings",
	"list filings", "list all filings", "filings filed", "filed between",
	"filing dates", "most recent filing date",
}

type Classifier struct{}

func New() *Classifier {
	return &Classifier{}
}

func (c *Classifier) Classify(_ context.Context, queryText string) (domain.QueryPattern, error) {
	lower := strings.ToLower(queryText)

	company := hasCompanyCue(queryText)
	thematic := containsAny(lower, thematicCues)
	metadata := containsAny(lower, metadataCues)

	switch {
	case company && thematic:
		return domain.PatternHybrid, nil
	case thematic:
		return domain.PatternThematic, nil
	case metadata:
		return domain.PatternMetadataOnly, nil
	case company:
		return domain.PatternCompanySpecific, nil
	default:
		return domain.PatternThematic, nil
	}
}

func containsAny(text string, cues []string) bool {
	for _, cue := range cues {
		if strings.Contains(text, cue) {
			return true
		}
	}
	return false
}

// hasCompanyCue looks for a specific-company reference: a ticker-looking
// uppercase token or a capitalized word pair that is not a sentence opener.
func hasCompanyCue(queryText string) bool {
	for _, candidate := range tickerPattern.FindAllString(queryText, -1) {
		if !isCommonUpper(candidate) {
			return true
		}
	}

	words := strings.Fields(queryText)
	for i, word := range words {
		if i == 0 {
			// A capitalized sentence opener is not evidence of a company.
			continue
		}
		trimmed := strings.Trim(word, ".,?!'\"")
		if len(trimmed) < 2 || isStopCue(trimmed) {
			continue
		}
		if trimmed[0] >= 'A' && trimmed[0] <= 'Z' && strings.ToUpper(trimmed) != trimmed {
			return true
		}
	}
	return false
}

func isCommonUpper(s string) bool {
	switch s {
	case "SEC", "EDGAR", "US", "USA", "AI", "ESG", "IT", "CEO", "CFO", "IPO", "GAAP", "ASC":
		return true
	default:
		return false
	}
}

func isStopCue(s string) bool {
	switch strings.ToLower(s) {
	case "what", "which", "who", "when", "where", "how", "the", "show", "list",
		"find", "latest", "recent", "i", "companies", "company", "filings", "filing":
		return true
	default:
		return false
	}
}
