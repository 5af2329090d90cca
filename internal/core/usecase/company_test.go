package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/brettvantil/edgar-answer-engine/internal/core/domain"
	"github.com/brettvantil/edgar-answer-engine/internal/core/ports"
)

func TestExtractCompanyCue(t *testing.T) {
	cases := []struct {
		query string
		want  string
	}{
		{"What did AAPL report in their latest 10-K?", "AAPL"},
		{"show MSFT recent filings", "MSFT"},
		{"latest filings from Berkshire Hathaway", "Berkshire Hathaway"},
		{"did Johnson Controls mention supply chain", "Johnson Controls"},
		{"what companies mention climate risk", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := extractCompanyCue(tc.query); got != tc.want {
			t.Errorf("extractCompanyCue(%q) = %q, want %q", tc.query, got, tc.want)
		}
	}
}

func TestCompanyLookupNoCueIsInvalidCriteria(t *testing.T) {
	source := &filingSourceFake{}
	uc := NewCompanyLookupUseCase(source, time.Second)

	_, calls, err := uc.LatestFilings(context.Background(), "what about the weather", domain.QueryOptions{})
	if !domain.IsKind(err, domain.ErrInvalidCriteria) {
		t.Fatalf("expected invalid criteria error, got %v", err)
	}
	if calls != 0 || source.listCalls != 0 {
		t.Fatalf("expected no source calls without a company cue")
	}
}

func TestCompanyLookupScopesCriteriaToCompany(t *testing.T) {
	filed := time.Now().AddDate(0, -1, 0)
	apple := tenK("0000320193-25-000001", "Apple Inc.", filed)
	apple.Ticker = "AAPL"

	var captured domain.DiscoveryCriteria
	source := &capturingSource{
		page: ports.FilingPage{Filings: []domain.DiscoveredFiling{apple}},
		onList: func(criteria domain.DiscoveryCriteria) {
			captured = criteria
		},
	}

	uc := NewCompanyLookupUseCase(source, time.Second)
	data, calls, err := uc.LatestFilings(context.Background(), "AAPL latest annual report", domain.QueryOptions{
		MaxResults:   5,
		FormTypes:    []string{"10-K"},
		LookbackDays: 730,
	})
	if err != nil {
		t.Fatalf("LatestFilings() error = %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected exactly one listing call, got %d", calls)
	}
	if len(captured.Companies) != 1 || captured.Companies[0] != "AAPL" {
		t.Fatalf("expected company scope AAPL, got %v", captured.Companies)
	}
	if captured.MaxFilings != 5 {
		t.Fatalf("expected max filings 5, got %d", captured.MaxFilings)
	}
	if captured.SortOrder != domain.SortDescending {
		t.Fatalf("expected newest-first ordering")
	}
	if data.CompanyName != "Apple Inc." || data.Ticker != "AAPL" {
		t.Fatalf("expected identity taken from the first filing, got %+v", data)
	}
}

func TestCompanyLookupTruncatesToRequestedCount(t *testing.T) {
	filed := time.Now().AddDate(0, -1, 0)
	page := ports.FilingPage{}
	for i := 0; i < 6; i++ {
		page.Filings = append(page.Filings, tenK("a-"+string(rune('a'+i)), "Acme Corp", filed))
	}
	source := &capturingSource{page: page}

	uc := NewCompanyLookupUseCase(source, time.Second)
	data, _, err := uc.LatestFilings(context.Background(), "Acme latest filings", domain.QueryOptions{MaxResults: 3})
	if err != nil {
		t.Fatalf("LatestFilings() error = %v", err)
	}
	if len(data.Filings) != 3 {
		t.Fatalf("expected 3 filings, got %d", len(data.Filings))
	}
}

func TestCompanyLookupEmptyResultKeepsCue(t *testing.T) {
	source := &capturingSource{}
	uc := NewCompanyLookupUseCase(source, time.Second)

	data, _, err := uc.LatestFilings(context.Background(), "ZZZQ recent filings", domain.QueryOptions{})
	if err != nil {
		t.Fatalf("LatestFilings() error = %v", err)
	}
	if data.CompanyName != "ZZZQ" {
		t.Fatalf("expected cue echoed for empty result, got %q", data.CompanyName)
	}
	if data.Filings == nil || len(data.Filings) != 0 {
		t.Fatalf("expected empty non-nil filings slice")
	}
}

type capturingSource struct {
	page   ports.FilingPage
	onList func(domain.DiscoveryCriteria)
}

func (s *capturingSource) ListFilings(_ context.Context, criteria domain.DiscoveryCriteria, _ string) (ports.FilingPage, error) {
	if s.onList != nil {
		s.onList(criteria)
	}
	return s.page, nil
}

func (s *capturingSource) FetchFilingContent(context.Context, domain.DiscoveredFiling, []string) ([]domain.FilingSection, error) {
	return nil, nil
}
