package mcp

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/brettvantil/edgar-answer-engine/internal/core/domain"
	"github.com/brettvantil/edgar-answer-engine/internal/core/ports"
)

const edgarDateLayout = "2006-01-02"

// Wire shapes returned by the EDGAR MCP tools. Filing dates arrive as
// YYYY-MM-DD strings; a missing or unparseable date zeroes the field
// rather than failing the page.
type filingPagePayload struct {
	Filings       []filingPayload `json:"filings"`
	NextPageToken string          `json:"next_page_token"`
	TotalEstimate int             `json:"total_estimate"`
}

type filingPayload struct {
	AccessionNumber string `json:"accession_number"`
	CompanyName     string `json:"company_name"`
	Ticker          string `json:"ticker"`
	CIK             string `json:"cik"`
	FormType        string `json:"form_type"`
	FilingDate      string `json:"filing_date"`
	PeriodOfReport  string `json:"period_of_report"`
	PrimaryDocument string `json:"primary_document"`
}

type filingContentPayload struct {
	Sections []sectionPayload `json:"sections"`
}

type sectionPayload struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

func searchArguments(criteria domain.DiscoveryCriteria, pageToken string) map[string]any {
	args := map[string]any{
		"form_types": criteria.FormTypes,
		"date_from":  criteria.DateFrom.Format(edgarDateLayout),
		"date_to":    criteria.DateTo.Format(edgarDateLayout),
		"sort_by":    string(criteria.SortBy),
		"sort_order": string(criteria.SortOrder),
	}
	if criteria.MaxFilings > 0 {
		args["limit"] = criteria.MaxFilings
	}
	if len(criteria.Companies) > 0 {
		args["companies"] = criteria.Companies
	}
	if pageToken != "" {
		args["page_token"] = pageToken
	}
	return args
}

func contentArguments(filing domain.DiscoveredFiling, sections []string) map[string]any {
	args := map[string]any{
		"accession_number": filing.AccessionNumber,
	}
	if filing.CIK != "" {
		args["cik"] = filing.CIK
	}
	if filing.PrimaryDocument != "" {
		args["primary_document"] = filing.PrimaryDocument
	}
	if len(sections) > 0 {
		args["sections"] = sections
	}
	return args
}

func parseFilingPage(payload string) (ports.FilingPage, error) {
	var wire filingPagePayload
	if err := json.Unmarshal([]byte(payload), &wire); err != nil {
		return ports.FilingPage{}, fmt.Errorf("decode filing page: %w", err)
	}

	page := ports.FilingPage{
		Filings:       make([]domain.DiscoveredFiling, 0, len(wire.Filings)),
		NextPageToken: wire.NextPageToken,
		TotalEstimate: wire.TotalEstimate,
	}
	for _, raw := range wire.Filings {
		if raw.AccessionNumber == "" {
			continue
		}
		page.Filings = append(page.Filings, domain.DiscoveredFiling{
			AccessionNumber: raw.AccessionNumber,
			CompanyName:     raw.CompanyName,
			Ticker:          raw.Ticker,
			CIK:             raw.CIK,
			FormType:        raw.FormType,
			FiledAt:         parseEdgarDate(raw.FilingDate),
			PeriodOfReport:  raw.PeriodOfReport,
			PrimaryDocument: raw.PrimaryDocument,
		})
	}
	return page, nil
}

func parseFilingSections(payload string) ([]domain.FilingSection, error) {
	var wire filingContentPayload
	if err := json.Unmarshal([]byte(payload), &wire); err != nil {
		return nil, fmt.Errorf("decode filing content: %w", err)
	}

	sections := make([]domain.FilingSection, 0, len(wire.Sections))
	for _, raw := range wire.Sections {
		if strings.TrimSpace(raw.Text) == "" {
			continue
		}
		sections = append(sections, domain.FilingSection{
			ID:    raw.ID,
			Title: raw.Title,
			Text:  raw.Text,
		})
	}
	return sections, nil
}

func parseEdgarDate(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	parsed, err := time.Parse(edgarDateLayout, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}
