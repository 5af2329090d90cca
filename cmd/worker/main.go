package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brettvantil/edgar-answer-engine/internal/bootstrap"
	"github.com/brettvantil/edgar-answer-engine/internal/config"
	"github.com/brettvantil/edgar-answer-engine/internal/core/domain"
	"github.com/brettvantil/edgar-answer-engine/internal/observability/logging"
	"github.com/brettvantil/edgar-answer-engine/internal/observability/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	slog.SetDefault(logging.NewJSONLogger("worker", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewWorker(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: metricsHandler(workerMetrics),
	}
	go func() {
		log.Printf("worker metrics listening on :%s", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("metrics server error: %v", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	log.Printf("worker subscribed to %s", cfg.NATSSubject)
	err = app.Queue.SubscribeQueryCompleted(ctx, func(handlerCtx context.Context, event domain.QueryCompletedEvent) error {
		started := time.Now()
		workerMetrics.StartRecord()
		workerMetrics.ObserveQueueLag("worker", started.Sub(event.CompletedAt))

		recordCtx, cancel := context.WithTimeout(handlerCtx, 30*time.Second)
		defer cancel()

		run := runFromEvent(event)
		recordErr := app.Runs.RecordRun(recordCtx, &run)
		workerMetrics.FinishRecord("worker", time.Since(started), recordErr)
		if recordErr != nil {
			slog.Error("run_record_failed", "run_id", event.RunID, "error", recordErr)
		}
		return recordErr
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}

func runFromEvent(event domain.QueryCompletedEvent) domain.QueryRun {
	return domain.QueryRun{
		ID:             event.RunID,
		Query:          event.Query,
		Pattern:        string(event.Pattern),
		Success:        event.Success,
		ErrorCode:      event.ErrorCode,
		FilingsScanned: event.FilingsScanned,
		MatchingCount:  event.MatchingCount,
		ExternalCalls:  event.ExternalCalls,
		ExecutionMS:    event.ExecutionTime.Milliseconds(),
		CreatedAt:      event.CompletedAt,
	}
}

func metricsHandler(m *metrics.WorkerMetrics) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}
