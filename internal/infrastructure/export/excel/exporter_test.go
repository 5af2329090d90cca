package excel

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/brettvantil/edgar-answer-engine/internal/core/domain"
)

func TestExportThematicWorkbook(t *testing.T) {
	result := &domain.ThematicSearchResult{
		Query: "supply chain",
		Results: []domain.SearchResult{{
			Filing: domain.DiscoveredFiling{
				AccessionNumber: "a-1",
				CompanyName:     "Acme Corp",
				Ticker:          "ACME",
				FormType:        "10-K",
				FiledAt:         time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			},
			Score:           0.87,
			Snippet:         "supply chain constraints eased",
			MatchedSections: []string{"item1a", "item7"},
		}},
		Aggregations: []domain.ThemeAggregation{{
			Theme:             "supply chain",
			MatchingFilings:   1,
			DistinctCompanies: 1,
			TopCompanies:      []domain.CompanyActivity{{CompanyName: "Acme Corp", MatchCount: 1, AvgScore: 0.87}},
			KeyTerms:          []string{"constraints", "logistics"},
		}},
	}

	payload, err := New().ExportThematic(result)
	if err != nil {
		t.Fatalf("ExportThematic() error = %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	company, err := f.GetCellValue("Results", "B2")
	if err != nil {
		t.Fatalf("read results cell: %v", err)
	}
	if company != "Acme Corp" {
		t.Fatalf("expected company in results sheet, got %q", company)
	}

	sections, _ := f.GetCellValue("Results", "H2")
	if sections != "item1a, item7" {
		t.Fatalf("expected joined sections, got %q", sections)
	}

	theme, err := f.GetCellValue("Aggregates", "A2")
	if err != nil {
		t.Fatalf("read aggregates cell: %v", err)
	}
	if theme != "supply chain" {
		t.Fatalf("expected theme in aggregates sheet, got %q", theme)
	}
}

func TestExportThematicNilResult(t *testing.T) {
	if _, err := New().ExportThematic(nil); err == nil {
		t.Fatalf("expected error for nil result")
	}
}

func TestExportThematicEmptyResultStillValidWorkbook(t *testing.T) {
	payload, err := New().ExportThematic(&domain.ThematicSearchResult{Query: "nothing"})
	if err != nil {
		t.Fatalf("ExportThematic() error = %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()
	header, _ := f.GetCellValue("Results", "A1")
	if header != "Rank" {
		t.Fatalf("expected header row, got %q", header)
	}
}
