package usecase

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// Relevance scoring is saturating normalized term frequency: for each
// distinct query token t with frequency f in the filing text, the token
// contributes f/(f+saturationK); the sum is divided by the number of
// distinct query tokens. The score is 0 with no overlap and approaches 1
// as every query token saturates.
const saturationK = 3.0

var (
	markupPattern     = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "was": {}, "were": {},
	"that": {}, "this": {}, "with": {}, "from": {}, "have": {}, "has": {},
	"had": {}, "not": {}, "but": {}, "its": {}, "their": {}, "they": {},
	"will": {}, "would": {}, "could": {}, "should": {}, "been": {},
	"about": {}, "which": {}, "what": {}, "when": {}, "where": {},
	"how": {}, "who": {}, "all": {}, "any": {}, "our": {}, "may": {},
	"more": {}, "other": {}, "such": {}, "into": {}, "than": {},
	"companies": {}, "company": {}, "filing": {}, "filings": {},
}

func splitAlphaNumLower(s string) []string {
	if s == "" {
		return nil
	}

	tokens := make([]string, 0, 16)
	var b strings.Builder
	for _, r := range s {
		r = unicode.ToLower(r)
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			tokens = append(tokens, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		tokens = append(tokens, b.String())
	}
	return tokens
}

func distinctTokens(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	return out
}

func termFrequencies(tokens []string) map[string]int {
	freq := make(map[string]int, len(tokens))
	for _, token := range tokens {
		freq[token]++
	}
	return freq
}

func relevanceScore(queryTokens []string, freq map[string]int) float64 {
	if len(queryTokens) == 0 || len(freq) == 0 {
		return 0
	}
	var sum float64
	for _, token := range queryTokens {
		if f := freq[token]; f > 0 {
			sum += float64(f) / (float64(f) + saturationK)
		}
	}
	return sum / float64(len(queryTokens))
}

// normalizeContent strips markup and collapses whitespace so snippet
// windows stay readable.
func normalizeContent(text string) string {
	text = markupPattern.ReplaceAllString(text, " ")
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// extractSnippet returns a window of at most snippetLength characters
// centered on the densest cluster of query-token matches.
func extractSnippet(text string, queryTokens []string, snippetLength int) string {
	if snippetLength <= 0 || text == "" {
		return ""
	}
	if len(text) <= snippetLength {
		return text
	}

	positions := matchPositions(text, queryTokens)
	if len(positions) == 0 {
		return strings.TrimSpace(text[:snippetLength])
	}

	// Densest window: for each match, count how many matches fit inside a
	// snippet-sized span starting there.
	bestStart, bestEnd, bestCount := 0, 0, 0
	j := 0
	for i := range positions {
		if j < i {
			j = i
		}
		for j+1 < len(positions) && positions[j+1] <= positions[i]+snippetLength {
			j++
		}
		if count := j - i + 1; count > bestCount {
			bestCount = count
			bestStart = positions[i]
			bestEnd = positions[j]
		}
	}

	mid := (bestStart + bestEnd) / 2
	start := mid - snippetLength/2
	if start < 0 {
		start = 0
	}
	end := start + snippetLength
	if end > len(text) {
		end = len(text)
		start = end - snippetLength
		if start < 0 {
			start = 0
		}
	}
	return strings.TrimSpace(text[start:end])
}

func matchPositions(text string, queryTokens []string) []int {
	lower := strings.ToLower(text)
	positions := make([]int, 0, 32)
	for _, token := range queryTokens {
		offset := 0
		for {
			idx := strings.Index(lower[offset:], token)
			if idx < 0 {
				break
			}
			positions = append(positions, offset+idx)
			offset += idx + len(token)
		}
	}
	sort.Ints(positions)
	return positions
}

// keyTerms extracts up to limit lowercase query terms, skipping stop-words
// and tokens of length <= 2, in first-occurrence order.
func keyTerms(query string, limit int) []string {
	tokens := distinctTokens(splitAlphaNumLower(query))
	out := make([]string, 0, limit)
	for _, token := range tokens {
		if len(token) <= 2 {
			continue
		}
		if _, stop := stopwords[token]; stop {
			continue
		}
		out = append(out, token)
		if len(out) == limit {
			break
		}
	}
	return out
}
