package httpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/brettvantil/edgar-answer-engine/internal/core/domain"
	"github.com/brettvantil/edgar-answer-engine/internal/core/ports"
	"github.com/brettvantil/edgar-answer-engine/internal/core/progress"
	"github.com/brettvantil/edgar-answer-engine/internal/core/usecase"
	"github.com/brettvantil/edgar-answer-engine/internal/observability/metrics"
)

type RouterConfig struct {
	ServiceName      string
	Defaults         usecase.ResolveDefaults
	RateLimitRPS     float64
	RateLimitBurst   int
	MaxInFlight      int
	BackpressureWait time.Duration
}

type Router struct {
	resolver  ports.QueryResolver
	thematic  ports.ThematicSearcher
	exporter  ports.ReportExporter
	runs      ports.RunHistoryStore
	publisher ports.EventPublisher
	metrics   *metrics.HTTPServerMetrics
	cfg       RouterConfig
}

func NewRouter(
	resolver ports.QueryResolver,
	thematic ports.ThematicSearcher,
	exporter ports.ReportExporter,
	runs ports.RunHistoryStore,
	publisher ports.EventPublisher,
	serverMetrics *metrics.HTTPServerMetrics,
	cfg RouterConfig,
) *Router {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "api"
	}
	cfg.Defaults = mergeDefaults(cfg.Defaults)
	if cfg.BackpressureWait <= 0 {
		cfg.BackpressureWait = 2 * time.Second
	}
	return &Router{
		resolver:  resolver,
		thematic:  thematic,
		exporter:  exporter,
		runs:      runs,
		publisher: publisher,
		metrics:   serverMetrics,
		cfg:       cfg,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/query", rt.resolveQuery)
	mux.HandleFunc("/v1/thematic-search", rt.thematicSearch)
	mux.HandleFunc("/v1/thematic-search/export", rt.exportThematic)
	mux.HandleFunc("/v1/runs", rt.listRuns)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.cfg.MaxInFlight, rt.cfg.BackpressureWait)
	handler = rateLimitMiddleware(handler, rt.cfg.RateLimitRPS, rt.cfg.RateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.cfg.ServiceName, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type queryRequest struct {
	Query   string              `json:"query"`
	Options domain.QueryOptions `json:"options"`
}

func (rt *Router) resolveQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}

	started := time.Now()
	envelope := rt.resolver.Resolve(r.Context(), req.Query, req.Options)

	if rt.metrics != nil {
		rt.metrics.RecordQueryResolved(rt.cfg.ServiceName, string(envelope.Pattern), envelope.Success, time.Since(started))
		if scanned, matching, ok := thematicStats(envelope); ok {
			rt.metrics.RecordPipelineRun(rt.cfg.ServiceName, scanned, matching, envelope.Metadata.ExternalCalls)
		}
	}
	rt.publishCompletion(r.Context(), req.Query, envelope)

	writeJSON(w, envelopeHTTPStatus(envelope), envelope)
}

type thematicRequest struct {
	Query         string   `json:"query"`
	FormTypes     []string `json:"form_types"`
	Sections      []string `json:"sections"`
	MaxFilings    int      `json:"max_filings"`
	MaxResults    int      `json:"max_results"`
	MinScore      float64  `json:"min_score"`
	LookbackDays  int      `json:"lookback_days"`
	SnippetLength int      `json:"snippet_length"`
}

func (rt *Router) thematicSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	params, ok := rt.decodeThematicParams(w, r)
	if !ok {
		return
	}

	if isStreamRequested(r) {
		rt.thematicSearchStream(w, r, params)
		return
	}

	result, err := rt.thematic.Run(r.Context(), params, domain.NopProgressSink{})
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordPipelineRun(rt.cfg.ServiceName, result.TotalFilingsScanned, result.MatchingFilings, result.ExternalCalls)
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) thematicSearchStream(w http.ResponseWriter, r *http.Request, params domain.ThematicSearchParams) {
	sse, err := newSSEWriter(w)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	sink := progress.NewBufferedSink(0)
	type runOutcome struct {
		result *domain.ThematicSearchResult
		err    error
	}
	done := make(chan runOutcome, 1)

	go func() {
		result, runErr := rt.thematic.Run(r.Context(), params, sink)
		sink.Close()
		done <- runOutcome{result: result, err: runErr}
	}()

	for update := range sink.Updates() {
		if err := sse.WriteProgress(update); err != nil {
			// Client went away; the pipeline sees it via request context.
			slog.Warn("sse_write_failed", "request_id", requestIDFromContext(r.Context()), "error", err)
			<-done
			return
		}
	}

	outcome := <-done
	if outcome.err != nil {
		_ = sse.WriteError(errorCodeForStream(outcome.err), outcome.err.Error())
		_ = sse.WriteDone()
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordPipelineRun(rt.cfg.ServiceName, outcome.result.TotalFilingsScanned, outcome.result.MatchingFilings, outcome.result.ExternalCalls)
	}
	_ = sse.WriteResult(outcome.result)
	_ = sse.WriteDone()
}

func (rt *Router) exportThematic(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if rt.exporter == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "export is not configured"})
		return
	}

	params, ok := rt.decodeThematicParams(w, r)
	if !ok {
		return
	}

	result, err := rt.thematic.Run(r.Context(), params, domain.NopProgressSink{})
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	payload, err := rt.exporter.ExportThematic(result)
	if rt.metrics != nil {
		rt.metrics.RecordExport(rt.cfg.ServiceName, err)
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="thematic-search.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

func (rt *Router) listRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if rt.runs == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "run history is not configured"})
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	runs, err := rt.runs.ListRecentRuns(r.Context(), limit)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (rt *Router) decodeThematicParams(w http.ResponseWriter, r *http.Request) (domain.ThematicSearchParams, bool) {
	var req thematicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return domain.ThematicSearchParams{}, false
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return domain.ThematicSearchParams{}, false
	}
	return rt.buildThematicParams(req), true
}

func (rt *Router) buildThematicParams(req thematicRequest) domain.ThematicSearchParams {
	defaults := rt.cfg.Defaults

	formTypes := req.FormTypes
	if len(formTypes) == 0 {
		formTypes = defaults.FormTypes
	}
	maxFilings := req.MaxFilings
	if maxFilings <= 0 {
		maxFilings = defaults.MaxFilings
	}
	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = defaults.MaxResults
	}
	minScore := req.MinScore
	if minScore <= 0 {
		minScore = defaults.MinScore
	}
	lookbackDays := req.LookbackDays
	if lookbackDays <= 0 {
		lookbackDays = defaults.LookbackDays
	}
	snippetLength := req.SnippetLength
	if snippetLength <= 0 {
		snippetLength = defaults.SnippetLength
	}

	now := time.Now()
	return domain.ThematicSearchParams{
		Discovery: domain.DiscoveryCriteria{
			FormTypes:  formTypes,
			DateFrom:   now.AddDate(0, 0, -lookbackDays),
			DateTo:     now,
			MaxFilings: maxFilings,
			SortBy:     domain.SortByFilingDate,
			SortOrder:  domain.SortDescending,
		},
		Query:           req.Query,
		Sections:        req.Sections,
		MaxResults:      maxResults,
		MinScore:        minScore,
		IncludeSnippets: true,
		SnippetLength:   snippetLength,
		Deduplicate:     true,
	}
}

func (rt *Router) publishCompletion(ctx context.Context, queryText string, envelope domain.ResultEnvelope) {
	if rt.publisher == nil {
		return
	}

	event := domain.QueryCompletedEvent{
		RunID:         uuid.NewString(),
		Query:         queryText,
		Pattern:       envelope.Pattern,
		Success:       envelope.Success,
		ErrorCode:     envelope.ErrorCode,
		ExternalCalls: envelope.Metadata.ExternalCalls,
		ExecutionTime: envelope.Metadata.ExecutionTime,
		CompletedAt:   time.Now().UTC(),
	}
	if scanned, matching, ok := thematicStats(envelope); ok {
		event.FilingsScanned = scanned
		event.MatchingCount = matching
	}

	if err := rt.publisher.PublishQueryCompleted(ctx, event); err != nil {
		slog.Warn("query_completed_publish_failed", "run_id", event.RunID, "error", err)
	}
}

func thematicStats(envelope domain.ResultEnvelope) (scanned, matching int, ok bool) {
	data, isThematic := envelope.Data.(domain.ThematicData)
	if !isThematic || data.Search == nil {
		return 0, 0, false
	}
	return data.Search.TotalFilingsScanned, data.Search.MatchingFilings, true
}

func errorCodeForStream(err error) string {
	switch {
	case domain.IsKind(err, domain.ErrInvalidCriteria):
		return domain.ErrorCodeInvalidCriteria
	case domain.IsKind(err, domain.ErrSourceUnrecoverable):
		return domain.ErrorCodeDiscoveryFailed
	default:
		return domain.ErrorCodeInternal
	}
}

func isStreamRequested(r *http.Request) bool {
	switch strings.ToLower(r.URL.Query().Get("stream")) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

func mergeDefaults(d usecase.ResolveDefaults) usecase.ResolveDefaults {
	def := usecase.DefaultResolveDefaults()
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

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
