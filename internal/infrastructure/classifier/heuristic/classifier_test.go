package heuristic

import (
	"context"
	"testing"

	"github.com/brettvantil/edgar-answer-engine/internal/core/domain"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		query string
		want  domain.QueryPattern
	}{
		{"Which companies mention climate risk in their 10-K filings?", domain.PatternThematic},
		{"what companies discuss quantum computing", domain.PatternThematic},
		{"trends in cybersecurity disclosures across filings", domain.PatternThematic},
		{"how many companies mention AI in risk factors", domain.PatternThematic},

		{"What did AAPL report in their latest 10-K?", domain.PatternCompanySpecific},
		{"show MSFT recent filings", domain.PatternCompanySpecific},
		{"latest annual report from Berkshire Hathaway", domain.PatternCompanySpecific},

		{"Did Apple discuss supply chain risks?", domain.PatternHybrid},
		{"which companies besides Tesla mention battery recycling", domain.PatternHybrid},

		{"how many filings were filed between 2023 and 2024", domain.PatternMetadataOnly},
		{"list filings with the most recent filing date", domain.PatternMetadataOnly},

		// No recognizable cue falls back to the broadest pattern.
		{"tell me about semiconductor supply chains", domain.PatternThematic},
		{"", domain.PatternThematic},
	}

	classifier := New()
	for _, tc := range cases {
		got, err := classifier.Classify(context.Background(), tc.query)
		if err != nil {
			t.Fatalf("Classify(%q) error = %v", tc.query, err)
		}
		if got != tc.want {
			t.Errorf("Classify(%q) = %s, want %s", tc.query, got, tc.want)
		}
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	classifier := New()
	query := "Did Apple discuss supply chain risks?"
	first, _ := classifier.Classify(context.Background(), query)
	for i := 0; i < 5; i++ {
		again, _ := classifier.Classify(context.Background(), query)
		if again != first {
			t.Fatalf("classification changed between calls: %s then %s", first, again)
		}
	}
}
