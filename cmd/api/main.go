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

	httpadapter "github.com/brettvantil/edgar-answer-engine/internal/adapters/http"
	"github.com/brettvantil/edgar-answer-engine/internal/bootstrap"
	"github.com/brettvantil/edgar-answer-engine/internal/config"
	"github.com/brettvantil/edgar-answer-engine/internal/core/usecase"
	"github.com/brettvantil/edgar-answer-engine/internal/observability/logging"
	"github.com/brettvantil/edgar-answer-engine/internal/observability/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	slog.SetDefault(logging.NewJSONLogger("api", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	router := httpadapter.NewRouter(
		app.Resolver,
		app.Thematic,
		app.Exporter,
		app.Runs,
		app.Queue,
		metrics.NewHTTPServerMetrics("api"),
		httpadapter.RouterConfig{
			ServiceName: "api",
			Defaults: usecase.ResolveDefaults{
				FormTypes:     cfg.FormTypes(),
				MaxFilings:    cfg.DefaultMaxFilings,
				MaxResults:    cfg.DefaultMaxResults,
				MinScore:      cfg.DefaultMinScore,
				SnippetLength: cfg.DefaultSnippetLength,
				LookbackDays:  cfg.DefaultLookbackDays,
			},
			RateLimitRPS:   cfg.APIRateLimitRPS,
			RateLimitBurst: cfg.APIRateLimitBurst,
			MaxInFlight:    cfg.APIMaxInFlight,
		},
	).Handler()

	server := &http.Server{
		Addr:        ":" + cfg.APIPort,
		Handler:     router,
		ReadTimeout: 30 * time.Second,
		// Streaming thematic searches hold the response open; the write
		// timeout has to cover a full pipeline run.
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("api listening on :%s", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("api server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("api shutdown error: %v", err)
	}
}
