package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	queryTotal        *prometheus.CounterVec
	queryDuration     *prometheus.HistogramVec
	filingsScanned    *prometheus.HistogramVec
	matchingResults   *prometheus.HistogramVec
	externalCallTotal *prometheus.CounterVec
	exportTotal       *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eae",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "eae",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "eae",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queryTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eae",
			Subsystem: "query",
			Name:      "resolved_total",
			Help:      "Total resolved queries by pattern and outcome.",
		},
		[]string{"service", "pattern", "outcome"},
	)
	queryDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "eae",
			Subsystem: "query",
			Name:      "duration_seconds",
			Help:      "End-to-end query resolution duration in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"service", "pattern"},
	)
	filingsScanned := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "eae",
			Subsystem: "pipeline",
			Name:      "filings_scanned",
			Help:      "Distribution of filings scanned per thematic run.",
			Buckets:   []float64{0, 10, 50, 100, 250, 500, 1000, 2500},
		},
		[]string{"service"},
	)
	matchingResults := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "eae",
			Subsystem: "pipeline",
			Name:      "matching_results",
			Help:      "Distribution of matching filings per thematic run.",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
		},
		[]string{"service"},
	)
	externalCallTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eae",
			Subsystem: "pipeline",
			Name:      "external_calls_total",
			Help:      "Total upstream source calls attributed to queries.",
		},
		[]string{"service"},
	)
	exportTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eae",
			Subsystem: "export",
			Name:      "reports_total",
			Help:      "Total exported result workbooks by outcome.",
		},
		[]string{"service", "outcome"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		queryTotal,
		queryDuration,
		filingsScanned,
		matchingResults,
		externalCallTotal,
		exportTotal,
	)

	return &HTTPServerMetrics{
		registry:          registry,
		requestTotal:      requestTotal,
		requestDuration:   requestDuration,
		requestInFlight:   requestInFlight,
		queryTotal:        queryTotal,
		queryDuration:     queryDuration,
		filingsScanned:    filingsScanned,
		matchingResults:   matchingResults,
		externalCallTotal: externalCallTotal,
		exportTotal:       exportTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/runs/"):
		return "/v1/runs/{run_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordQueryResolved(service, pattern string, success bool, duration time.Duration) {
	if pattern == "" {
		pattern = "unknown"
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.queryTotal.WithLabelValues(service, pattern, outcome).Inc()
	m.queryDuration.WithLabelValues(service, pattern).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) RecordPipelineRun(service string, scanned, matching, externalCalls int) {
	m.filingsScanned.WithLabelValues(service).Observe(float64(scanned))
	m.matchingResults.WithLabelValues(service).Observe(float64(matching))
	if externalCalls > 0 {
		m.externalCallTotal.WithLabelValues(service).Add(float64(externalCalls))
	}
}

func (m *HTTPServerMetrics) RecordExport(service string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.exportTotal.WithLabelValues(service, outcome).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
