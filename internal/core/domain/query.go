package domain

import "time"

// QueryPattern is the closed set of resolution strategies. The classifier
// returns exactly one tag; every tag has an explicit handler in the resolver.
type QueryPattern string

const (
	PatternCompanySpecific QueryPattern = "company-specific"
	PatternMetadataOnly    QueryPattern = "metadata-only"
	PatternHybrid          QueryPattern = "hybrid"
	PatternThematic        QueryPattern = "thematic"
)

type ResponseDetail string

const (
	DetailSummary ResponseDetail = "summary"
	DetailFull    ResponseDetail = "full"
)

// QueryOptions tunes a single resolve call. Zero values fall back to the
// resolver defaults.
type QueryOptions struct {
	MaxResults int            `json:"max_results,omitempty"`
	MaxFilings int            `json:"max_filings,omitempty"`
	FormTypes  []string       `json:"form_types,omitempty"`
	LookbackDays int          `json:"lookback_days,omitempty"`
	Detail     ResponseDetail `json:"detail,omitempty"`
}

// Envelope error codes. Callers branch on these instead of parsing messages.
const (
	ErrorCodeNotImplemented  = "not_implemented"
	ErrorCodeInvalidCriteria = "invalid_criteria"
	ErrorCodeDiscoveryFailed = "discovery_failed"
	ErrorCodeInternal        = "internal_error"
)

// ResultPayload is the closed set of per-pattern response shapes.
type ResultPayload interface {
	PayloadKind() QueryPattern
}

// ThematicData carries the full pipeline envelope plus an optional generated
// natural-language answer.
type ThematicData struct {
	Search *ThematicSearchResult `json:"search"`
	Answer string                `json:"answer,omitempty"`
}

func (ThematicData) PayloadKind() QueryPattern { return PatternThematic }

// CompanyFilingsData is the company-specific direct-lookup payload.
type CompanyFilingsData struct {
	CompanyName string             `json:"company_name"`
	Ticker      string             `json:"ticker,omitempty"`
	CIK         string             `json:"cik,omitempty"`
	Filings     []DiscoveredFiling `json:"filings"`
}

func (CompanyFilingsData) PayloadKind() QueryPattern { return PatternCompanySpecific }

// FilingMetadataData is the metadata-only direct-lookup payload.
type FilingMetadataData struct {
	Filings []DiscoveredFiling `json:"filings"`
}

func (FilingMetadataData) PayloadKind() QueryPattern { return PatternMetadataOnly }

// HybridData combines a company scope with a thematic scan over it.
type HybridData struct {
	Company  CompanyFilingsData    `json:"company"`
	Thematic *ThematicSearchResult `json:"thematic,omitempty"`
}

func (HybridData) PayloadKind() QueryPattern { return PatternHybrid }

// Source describes one filing the answer drew on.
type Source struct {
	AccessionNumber string    `json:"accession_number"`
	CompanyName     string    `json:"company_name"`
	FormType        string    `json:"form_type"`
	FiledAt         time.Time `json:"filed_at"`
}

// Citation points at the matched region used for display.
type Citation struct {
	AccessionNumber string  `json:"accession_number"`
	Section         string  `json:"section,omitempty"`
	Snippet         string  `json:"snippet,omitempty"`
	Score           float64 `json:"score"`
}

type ResponseMetadata struct {
	ExecutionTime time.Duration `json:"execution_time"`
	ExternalCalls int           `json:"external_calls"`
	Errors        []string      `json:"errors,omitempty"`
	Cancelled     bool          `json:"cancelled,omitempty"`
}

// ResultEnvelope is the uniform resolver output. A failed resolution sets
// Success=false and ErrorCode; it is returned, never raised.
type ResultEnvelope struct {
	Success   bool             `json:"success"`
	Pattern   QueryPattern     `json:"pattern"`
	Data      ResultPayload    `json:"data,omitempty"`
	Sources   []Source         `json:"sources"`
	Citations []Citation       `json:"citations"`
	ErrorCode string           `json:"error_code,omitempty"`
	Metadata  ResponseMetadata `json:"metadata"`
}
