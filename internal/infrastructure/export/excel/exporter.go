// Package excel renders thematic search results as a downloadable
// workbook: one sheet of ranked results, one of per-theme aggregates.
package excel

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/brettvantil/edgar-answer-engine/internal/core/domain"
	"github.com/brettvantil/edgar-answer-engine/internal/core/ports"
)

const (
	resultsSheet    = "Results"
	aggregatesSheet = "Aggregates"
)

type Exporter struct{}

var _ ports.ReportExporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{}
}

func (e *Exporter) ExportThematic(result *domain.ThematicSearchResult) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("export thematic: nil result")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return nil, fmt.Errorf("rename results sheet: %w", err)
	}
	if err := writeResults(f, result); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(aggregatesSheet); err != nil {
		return nil, fmt.Errorf("create aggregates sheet: %w", err)
	}
	if err := writeAggregates(f, result.Aggregations); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeResults(f *excelize.File, result *domain.ThematicSearchResult) error {
	header := []any{"Rank", "Company", "Ticker", "Form", "Filed", "Accession Number", "Score", "Matched Sections", "Snippet"}
	if err := f.SetSheetRow(resultsSheet, "A1", &header); err != nil {
		return fmt.Errorf("write results header: %w", err)
	}

	for idx, item := range result.Results {
		filed := ""
		if !item.Filing.FiledAt.IsZero() {
			filed = item.Filing.FiledAt.Format("2006-01-02")
		}
		row := []any{
			idx + 1,
			item.Filing.CompanyName,
			item.Filing.Ticker,
			item.Filing.FormType,
			filed,
			item.Filing.AccessionNumber,
			item.Score,
			strings.Join(item.MatchedSections, ", "),
			item.Snippet,
		}
		cell, err := excelize.CoordinatesToCellName(1, idx+2)
		if err != nil {
			return fmt.Errorf("results cell name: %w", err)
		}
		if err := f.SetSheetRow(resultsSheet, cell, &row); err != nil {
			return fmt.Errorf("write result row %d: %w", idx+1, err)
		}
	}
	return nil
}

func writeAggregates(f *excelize.File, aggregations []domain.ThemeAggregation) error {
	header := []any{"Theme", "Matching Filings", "Distinct Companies", "Top Companies", "Key Terms"}
	if err := f.SetSheetRow(aggregatesSheet, "A1", &header); err != nil {
		return fmt.Errorf("write aggregates header: %w", err)
	}

	for idx, agg := range aggregations {
		companies := make([]string, 0, len(agg.TopCompanies))
		for _, company := range agg.TopCompanies {
			companies = append(companies, fmt.Sprintf("%s (%d)", company.CompanyName, company.MatchCount))
		}
		row := []any{
			agg.Theme,
			agg.MatchingFilings,
			agg.DistinctCompanies,
			strings.Join(companies, "; "),
			strings.Join(agg.KeyTerms, ", "),
		}
		cell, err := excelize.CoordinatesToCellName(1, idx+2)
		if err != nil {
			return fmt.Errorf("aggregates cell name: %w", err)
		}
		if err := f.SetSheetRow(aggregatesSheet, cell, &row); err != nil {
			return fmt.Errorf("write aggregate row %d: %w", idx+1, err)
		}
	}
	return nil
}
