package domain

import (
	"errors"
	"fmt"
	"time"
)

type SortField string

const (
	SortByFilingDate  SortField = "filing_date"
	SortByCompanyName SortField = "company_name"
	SortByFormType    SortField = "form_type"
)

type SortOrder string

const (
	SortAscending  SortOrder = "asc"
	SortDescending SortOrder = "desc"
)

// DiscoveryCriteria is the structured filter for bulk filing discovery.
type DiscoveryCriteria struct {
	FormTypes  []string  `json:"form_types"`
	DateFrom   time.Time `json:"date_from"`
	DateTo     time.Time `json:"date_to"`
	Industries []string  `json:"industries,omitempty"`
	Companies  []string  `json:"companies,omitempty"`
	MaxFilings int       `json:"max_filings"`
	SortBy     SortField `json:"sort_by"`
	SortOrder  SortOrder `json:"sort_order"`
}

func (c DiscoveryCriteria) Validate() error {
	if len(c.FormTypes) == 0 {
		return WrapError(ErrInvalidCriteria, "validate discovery criteria", errors.New("form_types must not be empty"))
	}
	if c.MaxFilings < 0 {
		return WrapError(ErrInvalidCriteria, "validate discovery criteria", fmt.Errorf("max_filings must be >= 0, got %d", c.MaxFilings))
	}
	if !c.DateFrom.IsZero() && !c.DateTo.IsZero() && c.DateFrom.After(c.DateTo) {
		return WrapError(ErrInvalidCriteria, "validate discovery criteria", fmt.Errorf("date_from %s is after date_to %s",
			c.DateFrom.Format("2006-01-02"), c.DateTo.Format("2006-01-02")))
	}
	return nil
}

// DiscoveredFiling is one candidate document returned by discovery.
// AccessionNumber is the unique EDGAR identifier within a discovery run.
type DiscoveredFiling struct {
	AccessionNumber string    `json:"accession_number"`
	CompanyName     string    `json:"company_name"`
	Ticker          string    `json:"ticker,omitempty"`
	CIK             string    `json:"cik"`
	FormType        string    `json:"form_type"`
	FiledAt         time.Time `json:"filed_at"`
	PeriodOfReport  string    `json:"period_of_report,omitempty"`
	PrimaryDocument string    `json:"primary_document,omitempty"`
}

// FilingSection is one named block of filing text, e.g. Item 1A or Item 7.
type FilingSection struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
	Text  string `json:"text"`
}
