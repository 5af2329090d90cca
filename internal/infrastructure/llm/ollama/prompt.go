package ollama

import (
	"fmt"
	"strings"

	"github.com/brettvantil/edgar-answer-engine/internal/core/domain"
)

// At most this many excerpts go into the prompt; results arrive sorted
// by relevance so truncation keeps the strongest evidence.
const maxPromptExcerpts = 12

func buildAnswerPrompt(question string, results []domain.SearchResult) string {
	var contextBuilder strings.Builder
	for idx, result := range results {
		if idx == maxPromptExcerpts {
			break
		}
		if result.Snippet == "" {
			continue
		}
		contextBuilder.WriteString(fmt.Sprintf(
			"[%d] company=%s form=%s filed=%s accession=%s score=%.3f\n%s\n\n",
			idx+1,
			result.Filing.CompanyName,
			result.Filing.FormType,
			result.Filing.FiledAt.Format("2006-01-02"),
			result.Filing.AccessionNumber,
			result.Score,
			result.Snippet,
		))
	}

	return fmt.Sprintf(`Answer the user question only from the filing excerpts below.
Cite companies by name and reference the excerpt numbers you used.
If the excerpts are insufficient, say it directly.

Question:
%s

Excerpts:
%s
`, question, contextBuilder.String())
}
