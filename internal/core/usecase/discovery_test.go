package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/brettvantil/edgar-answer-engine/internal/core/domain"
	"github.com/brettvantil/edgar-answer-engine/internal/core/ports"
)

type filingSourceFake struct {
	pages       []ports.FilingPage
	pageErrs    map[int]error
	listCalls   int
	onListPage  func(pageIndex int)
	content     map[string][]domain.FilingSection
	contentErrs map[string]error
	fetchCalls  int
}

func (f *filingSourceFake) ListFilings(_ context.Context, _ domain.DiscoveryCriteria, pageToken string) (ports.FilingPage, error) {
	index := 0
	if pageToken != "" {
		index, _ = strconv.Atoi(pageToken)
	}
	f.listCalls++
	if f.onListPage != nil {
		f.onListPage(index)
	}
	if err, ok := f.pageErrs[index]; ok {
		return ports.FilingPage{}, err
	}
	if index >= len(f.pages) {
		return ports.FilingPage{}, nil
	}
	page := f.pages[index]
	if index+1 < len(f.pages) {
		page.NextPageToken = strconv.Itoa(index + 1)
	}
	return page, nil
}

func (f *filingSourceFake) FetchFilingContent(_ context.Context, filing domain.DiscoveredFiling, _ []string) ([]domain.FilingSection, error) {
	f.fetchCalls++
	if err, ok := f.contentErrs[filing.AccessionNumber]; ok {
		return nil, err
	}
	return f.content[filing.AccessionNumber], nil
}

func tenK(accession, company string, filedAt time.Time) domain.DiscoveredFiling {
	return domain.DiscoveredFiling{
		AccessionNumber: accession,
		CompanyName:     company,
		CIK:             "0000" + accession,
		FormType:        "10-K",
		FiledAt:         filedAt,
	}
}

func trailingYearCriteria(formTypes ...string) domain.DiscoveryCriteria {
	now := time.Now()
	return domain.DiscoveryCriteria{
		FormTypes:  formTypes,
		DateFrom:   now.AddDate(0, 0, -365),
		DateTo:     now,
		MaxFilings: 100,
		SortBy:     domain.SortByFilingDate,
		SortOrder:  domain.SortDescending,
	}
}

func TestDiscoveryDeduplicatesByAccessionNumber(t *testing.T) {
	filed := time.Now().AddDate(0, -1, 0)
	source := &filingSourceFake{pages: []ports.FilingPage{
		{Filings: []domain.DiscoveredFiling{tenK("a-1", "Acme", filed), tenK("a-2", "Beta", filed)}},
		{Filings: []domain.DiscoveredFiling{tenK("a-2", "Beta", filed), tenK("a-3", "Gamma", filed)}},
	}}

	engine := NewDiscoveryEngine(source, time.Second)
	outcome, err := engine.Discover(context.Background(), trailingYearCriteria("10-K"), nil)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(outcome.Filings) != 3 {
		t.Fatalf("expected 3 unique filings, got %d", len(outcome.Filings))
	}
	seen := map[string]bool{}
	for _, filing := range outcome.Filings {
		if seen[filing.AccessionNumber] {
			t.Fatalf("duplicate accession number %s", filing.AccessionNumber)
		}
		seen[filing.AccessionNumber] = true
	}
}

func TestDiscoveryRespectsMaxFilings(t *testing.T) {
	filed := time.Now().AddDate(0, -1, 0)
	page := ports.FilingPage{}
	for i := 0; i < 10; i++ {
		page.Filings = append(page.Filings, tenK(fmt.Sprintf("a-%d", i), "Acme", filed))
	}
	source := &filingSourceFake{pages: []ports.FilingPage{page, page}}

	criteria := trailingYearCriteria("10-K")
	criteria.MaxFilings = 4

	outcome, err := NewDiscoveryEngine(source, time.Second).Discover(context.Background(), criteria, nil)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(outcome.Filings) != 4 {
		t.Fatalf("expected 4 filings, got %d", len(outcome.Filings))
	}
	if source.listCalls != 1 {
		t.Fatalf("expected discovery to stop after the bounding page, got %d list calls", source.listCalls)
	}
}

func TestDiscoveryFiltersFormTypeAndDateRange(t *testing.T) {
	now := time.Now()
	inRange := now.AddDate(0, -2, 0)
	filings := []domain.DiscoveredFiling{
		tenK("k-1", "Acme", inRange),
		tenK("k-2", "Beta", inRange),
		tenK("k-3", "Gamma", inRange),
	}
	for i := 0; i < 5; i++ {
		q := tenK(fmt.Sprintf("q-%d", i), "Delta", inRange)
		q.FormType = "10-Q"
		filings = append(filings, q)
	}
	old := tenK("k-old", "Epsilon", now.AddDate(-2, 0, 0))
	filings = append(filings, old)

	source := &filingSourceFake{pages: []ports.FilingPage{{Filings: filings}}}
	outcome, err := NewDiscoveryEngine(source, time.Second).Discover(context.Background(), trailingYearCriteria("10-K"), nil)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(outcome.Filings) != 3 {
		t.Fatalf("expected exactly 3 matching 10-Ks, got %d", len(outcome.Filings))
	}
	for _, filing := range outcome.Filings {
		if filing.FormType != "10-K" {
			t.Fatalf("unexpected form type %s", filing.FormType)
		}
	}
}

func TestDiscoveryPageErrorIsRecordedNotFatal(t *testing.T) {
	filed := time.Now().AddDate(0, -1, 0)
	source := &filingSourceFake{
		pages: []ports.FilingPage{
			{Filings: []domain.DiscoveredFiling{tenK("a-1", "Acme", filed)}},
			{},
		},
		pageErrs: map[int]error{1: errors.New("edgar timeout")},
	}

	outcome, err := NewDiscoveryEngine(source, time.Second).Discover(context.Background(), trailingYearCriteria("10-K"), nil)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(outcome.Filings) != 1 {
		t.Fatalf("expected partial accumulation kept, got %d filings", len(outcome.Filings))
	}
	if len(outcome.Errors) != 1 {
		t.Fatalf("expected 1 recorded page error, got %v", outcome.Errors)
	}
}

func TestDiscoveryUnrecoverableSourceErrorIsFatal(t *testing.T) {
	source := &filingSourceFake{
		pageErrs: map[int]error{0: domain.WrapError(domain.ErrSourceUnrecoverable, "list filings", errors.New("malformed criteria"))},
	}

	outcome, err := NewDiscoveryEngine(source, time.Second).Discover(context.Background(), trailingYearCriteria("10-K"), nil)
	if err == nil {
		t.Fatalf("expected fatal error")
	}
	if !domain.IsKind(err, domain.ErrSourceUnrecoverable) {
		t.Fatalf("expected unrecoverable kind, got %v", err)
	}
	if len(outcome.Filings) != 0 {
		t.Fatalf("fatal discovery must discard partials, got %d filings", len(outcome.Filings))
	}
}

func TestDiscoveryInvalidCriteriaRejectedImmediately(t *testing.T) {
	source := &filingSourceFake{}
	criteria := trailingYearCriteria("10-K")
	criteria.DateFrom, criteria.DateTo = criteria.DateTo, criteria.DateFrom

	_, err := NewDiscoveryEngine(source, time.Second).Discover(context.Background(), criteria, nil)
	if !domain.IsKind(err, domain.ErrInvalidCriteria) {
		t.Fatalf("expected invalid criteria error, got %v", err)
	}
	if source.listCalls != 0 {
		t.Fatalf("expected no source calls for invalid criteria")
	}
}

func TestDiscoveryCancellationKeepsPartialResult(t *testing.T) {
	filed := time.Now().AddDate(0, -1, 0)
	pages := make([]ports.FilingPage, 5)
	for p := range pages {
		pages[p] = ports.FilingPage{Filings: []domain.DiscoveredFiling{
			tenK(fmt.Sprintf("p%d-a", p), "Acme", filed),
			tenK(fmt.Sprintf("p%d-b", p), "Beta", filed),
		}}
	}

	ctx, cancel := context.WithCancel(context.Background())
	source := &filingSourceFake{pages: pages}
	source.onListPage = func(pageIndex int) {
		if pageIndex == 1 {
			cancel()
		}
	}

	outcome, err := NewDiscoveryEngine(source, time.Second).Discover(ctx, trailingYearCriteria("10-K"), nil)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if !outcome.Cancelled {
		t.Fatalf("expected cancelled outcome")
	}
	if len(outcome.Filings) != 4 {
		t.Fatalf("expected filings from 2 fetched pages, got %d", len(outcome.Filings))
	}
}

func TestDiscoveryEmitsProgressPerPage(t *testing.T) {
	filed := time.Now().AddDate(0, -1, 0)
	source := &filingSourceFake{pages: []ports.FilingPage{
		{Filings: []domain.DiscoveredFiling{tenK("a-1", "Acme", filed)}},
		{Filings: []domain.DiscoveredFiling{tenK("a-2", "Beta", filed)}},
	}}

	var updates []domain.ProgressUpdate
	sink := sinkFunc(func(u domain.ProgressUpdate) { updates = append(updates, u) })

	criteria := trailingYearCriteria("10-K")
	if _, err := NewDiscoveryEngine(source, time.Second).Discover(context.Background(), criteria, sink); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(updates) != 2 {
		t.Fatalf("expected 2 progress events, got %d", len(updates))
	}
	for i, update := range updates {
		if update.Phase != domain.PhaseDiscovery {
			t.Fatalf("unexpected phase %s", update.Phase)
		}
		if update.Completed != i+1 {
			t.Fatalf("expected completed=%d, got %d", i+1, update.Completed)
		}
		if update.Total != criteria.MaxFilings {
			t.Fatalf("expected total=%d, got %d", criteria.MaxFilings, update.Total)
		}
	}
}

type sinkFunc func(domain.ProgressUpdate)

func (f sinkFunc) Publish(u domain.ProgressUpdate) { f(u) }
