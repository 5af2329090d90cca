package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/brettvantil/edgar-answer-engine/internal/core/domain"
	"github.com/brettvantil/edgar-answer-engine/internal/core/ports"
)

// ResolveDefaults are the pipeline settings applied when the caller leaves
// an option unset.
type ResolveDefaults struct {
	FormTypes     []string
	MaxFilings    int
	MaxResults    int
	MinScore      float64
	SnippetLength int
	LookbackDays  int
}

func DefaultResolveDefaults() ResolveDefaults {
	return ResolveDefaults{
		FormTypes:     []string{"10-K", "10-Q", "8-K"},
		MaxFilings:    1000,
		MaxResults:    100,
		MinScore:      0.1,
		SnippetLength: 200,
		LookbackDays:  365,
	}
}

func (d ResolveDefaults) normalize() ResolveDefaults {
	def := DefaultResolveDefaults()
	if len(d.FormTypes) == 0 {
		d.FormTypes = def.FormTypes
	}
	if d.MaxFilings <= 0 {
		d.MaxFilings = def.MaxFilings
	}
	if d.MaxResults <= 0 {
		d.MaxResults = def.MaxResults
	}
	if d.MinScore <= 0 {
		d.MinScore = def.MinScore
	}
	if d.SnippetLength <= 0 {
		d.SnippetLength = def.SnippetLength
	}
	if d.LookbackDays <= 0 {
		d.LookbackDays = def.LookbackDays
	}
	return d
}

// QueryResolveUseCase classifies an incoming query into one pattern from a
// closed set and dispatches it. Every pattern has an explicit handler;
// patterns without a wired collaborator answer with a not_implemented
// envelope so callers can degrade instead of failing hard.
type QueryResolveUseCase struct {
	classifier ports.QueryClassifier
	thematic   ports.ThematicSearcher
	company    ports.CompanyFilingsService
	generator  ports.AnswerGenerator
	defaults   ResolveDefaults
	now        func() time.Time
}

func NewQueryResolveUseCase(
	classifier ports.QueryClassifier,
	thematic ports.ThematicSearcher,
	company ports.CompanyFilingsService,
	generator ports.AnswerGenerator,
	defaults ResolveDefaults,
) *QueryResolveUseCase {
	return &QueryResolveUseCase{
		classifier: classifier,
		thematic:   thematic,
		company:    company,
		generator:  generator,
		defaults:   defaults.normalize(),
		now:        time.Now,
	}
}

// Resolve never raises: stage failures come back as success:false envelopes
// with a machine-branchable error code.
func (uc *QueryResolveUseCase) Resolve(ctx context.Context, queryText string, options domain.QueryOptions) domain.ResultEnvelope {
	started := uc.now()

	pattern, err := uc.classifier.Classify(ctx, queryText)
	if err != nil {
		return uc.failure(domain.PatternThematic, domain.ErrorCodeInternal, started, err)
	}

	switch pattern {
	case domain.PatternThematic:
		return uc.resolveThematic(ctx, queryText, options, started)
	case domain.PatternCompanySpecific:
		return uc.resolveCompany(ctx, queryText, options, started)
	case domain.PatternMetadataOnly:
		return uc.resolveMetadata(pattern, started)
	case domain.PatternHybrid:
		return uc.resolveHybrid(pattern, started)
	default:
		// The classifier contract is a closed set; an unknown tag is a bug.
		return uc.failure(pattern, domain.ErrorCodeInternal, started, domain.ErrNotImplemented)
	}
}

func (uc *QueryResolveUseCase) resolveThematic(ctx context.Context, queryText string, options domain.QueryOptions, started time.Time) domain.ResultEnvelope {
	params := uc.thematicParams(queryText, options)

	result, err := uc.thematic.Run(ctx, params, domain.NopProgressSink{})
	if err != nil {
		code := domain.ErrorCodeInternal
		switch {
		case domain.IsKind(err, domain.ErrInvalidCriteria):
			code = domain.ErrorCodeInvalidCriteria
		case domain.IsKind(err, domain.ErrSourceUnrecoverable):
			code = domain.ErrorCodeDiscoveryFailed
		}
		return uc.failure(domain.PatternThematic, code, started, err)
	}

	data := domain.ThematicData{Search: result}
	metaErrors := append([]string(nil), result.ItemErrors...)

	if uc.generator != nil && options.Detail == domain.DetailFull && len(result.Results) > 0 {
		answer, genErr := uc.generator.GenerateAnswer(ctx, queryText, result.Results)
		if genErr != nil {
			metaErrors = append(metaErrors, "answer generation: "+genErr.Error())
			slog.Warn("answer_generation_failed", "query", queryText, "error", genErr)
		} else {
			data.Answer = answer
		}
	}

	return domain.ResultEnvelope{
		Success:   true,
		Pattern:   domain.PatternThematic,
		Data:      data,
		Sources:   thematicSources(result.Results),
		Citations: thematicCitations(result.Results),
		Metadata: domain.ResponseMetadata{
			ExecutionTime: uc.now().Sub(started),
			ExternalCalls: result.ExternalCalls,
			Errors:        metaErrors,
			Cancelled:     result.Cancelled,
		},
	}
}

func (uc *QueryResolveUseCase) resolveCompany(ctx context.Context, queryText string, options domain.QueryOptions, started time.Time) domain.ResultEnvelope {
	if uc.company == nil {
		return uc.notImplemented(domain.PatternCompanySpecific, started)
	}

	data, calls, err := uc.company.LatestFilings(ctx, queryText, uc.companyOptions(options))
	if err != nil {
		code := domain.ErrorCodeInternal
		if domain.IsKind(err, domain.ErrInvalidCriteria) || domain.IsKind(err, domain.ErrNotFound) {
			code = domain.ErrorCodeInvalidCriteria
		}
		envelope := uc.failure(domain.PatternCompanySpecific, code, started, err)
		envelope.Metadata.ExternalCalls = calls
		return envelope
	}

	sources := make([]domain.Source, 0, len(data.Filings))
	for _, filing := range data.Filings {
		sources = append(sources, domain.Source{
			AccessionNumber: filing.AccessionNumber,
			CompanyName:     filing.CompanyName,
			FormType:        filing.FormType,
			FiledAt:         filing.FiledAt,
		})
	}

	return domain.ResultEnvelope{
		Success:   true,
		Pattern:   domain.PatternCompanySpecific,
		Data:      data,
		Sources:   sources,
		Citations: []domain.Citation{},
		Metadata: domain.ResponseMetadata{
			ExecutionTime: uc.now().Sub(started),
			ExternalCalls: calls,
		},
	}
}

// Metadata-only lookups need a submissions-index collaborator that is not
// wired yet; the pattern still gets a deliberate handler.
func (uc *QueryResolveUseCase) resolveMetadata(pattern domain.QueryPattern, started time.Time) domain.ResultEnvelope {
	return uc.notImplemented(pattern, started)
}

// Hybrid resolution composes the company scope with a thematic scan; until
// that composition ships it answers with the degraded-path token.
func (uc *QueryResolveUseCase) resolveHybrid(pattern domain.QueryPattern, started time.Time) domain.ResultEnvelope {
	return uc.notImplemented(pattern, started)
}

func (uc *QueryResolveUseCase) thematicParams(queryText string, options domain.QueryOptions) domain.ThematicSearchParams {
	formTypes := options.FormTypes
	if len(formTypes) == 0 {
		formTypes = uc.defaults.FormTypes
	}
	maxFilings := options.MaxFilings
	if maxFilings <= 0 {
		maxFilings = uc.defaults.MaxFilings
	}
	maxResults := options.MaxResults
	if maxResults <= 0 {
		maxResults = uc.defaults.MaxResults
	}
	lookbackDays := options.LookbackDays
	if lookbackDays <= 0 {
		lookbackDays = uc.defaults.LookbackDays
	}
	now := uc.now()

	return domain.ThematicSearchParams{
		Discovery: domain.DiscoveryCriteria{
			FormTypes:  formTypes,
			DateFrom:   now.AddDate(0, 0, -lookbackDays),
			DateTo:     now,
			MaxFilings: maxFilings,
			SortBy:     domain.SortByFilingDate,
			SortOrder:  domain.SortDescending,
		},
		Query:           queryText,
		MaxResults:      maxResults,
		MinScore:        uc.defaults.MinScore,
		IncludeSnippets: true,
		SnippetLength:   uc.defaults.SnippetLength,
		Deduplicate:     true,
	}
}

func (uc *QueryResolveUseCase) companyOptions(options domain.QueryOptions) domain.QueryOptions {
	if options.MaxResults <= 0 {
		options.MaxResults = 10
	}
	if len(options.FormTypes) == 0 {
		options.FormTypes = uc.defaults.FormTypes
	}
	if options.LookbackDays <= 0 {
		options.LookbackDays = uc.defaults.LookbackDays
	}
	return options
}

func (uc *QueryResolveUseCase) notImplemented(pattern domain.QueryPattern, started time.Time) domain.ResultEnvelope {
	return domain.ResultEnvelope{
		Success:   false,
		Pattern:   pattern,
		Sources:   []domain.Source{},
		Citations: []domain.Citation{},
		ErrorCode: domain.ErrorCodeNotImplemented,
		Metadata: domain.ResponseMetadata{
			ExecutionTime: uc.now().Sub(started),
			Errors:        []string{domain.ErrNotImplemented.Error() + ": " + string(pattern)},
		},
	}
}

func (uc *QueryResolveUseCase) failure(pattern domain.QueryPattern, code string, started time.Time, err error) domain.ResultEnvelope {
	return domain.ResultEnvelope{
		Success:   false,
		Pattern:   pattern,
		Sources:   []domain.Source{},
		Citations: []domain.Citation{},
		ErrorCode: code,
		Metadata: domain.ResponseMetadata{
			ExecutionTime: uc.now().Sub(started),
			Errors:        []string{err.Error()},
		},
	}
}

func thematicSources(results []domain.SearchResult) []domain.Source {
	limit := len(results)
	if limit > 10 {
		limit = 10
	}
	sources := make([]domain.Source, 0, limit)
	for _, result := range results[:limit] {
		sources = append(sources, domain.Source{
			AccessionNumber: result.Filing.AccessionNumber,
			CompanyName:     result.Filing.CompanyName,
			FormType:        result.Filing.FormType,
			FiledAt:         result.Filing.FiledAt,
		})
	}
	return sources
}

func thematicCitations(results []domain.SearchResult) []domain.Citation {
	citations := make([]domain.Citation, 0, 10)
	for _, result := range results {
		if result.Snippet == "" {
			continue
		}
		section := ""
		if len(result.MatchedSections) > 0 {
			section = result.MatchedSections[0]
		}
		citations = append(citations, domain.Citation{
			AccessionNumber: result.Filing.AccessionNumber,
			Section:         section,
			Snippet:         result.Snippet,
			Score:           result.Score,
		})
		if len(citations) == 10 {
			break
		}
	}
	return citations
}
