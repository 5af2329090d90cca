package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/brettvantil/edgar-answer-engine/internal/config"
	"github.com/brettvantil/edgar-answer-engine/internal/core/ports"
	"github.com/brettvantil/edgar-answer-engine/internal/core/usecase"
	"github.com/brettvantil/edgar-answer-engine/internal/infrastructure/classifier/heuristic"
	"github.com/brettvantil/edgar-answer-engine/internal/infrastructure/edgar/mcp"
	"github.com/brettvantil/edgar-answer-engine/internal/infrastructure/export/excel"
	"github.com/brettvantil/edgar-answer-engine/internal/infrastructure/llm/ollama"
	"github.com/brettvantil/edgar-answer-engine/internal/infrastructure/queue/nats"
	"github.com/brettvantil/edgar-answer-engine/internal/infrastructure/repository/postgres"
	"github.com/brettvantil/edgar-answer-engine/internal/infrastructure/resilience"
)

type App struct {
	Config config.Config

	Queue    *nats.Queue
	Runs     ports.RunHistoryStore
	Exporter ports.ReportExporter

	Resolver ports.QueryResolver
	Thematic ports.ThematicSearcher

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	runs := postgres.NewRunRepository(db)
	if err := runs.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	edgarExecutor := resilience.NewExecutor(edgarPolicy(cfg))
	source, err := mcp.New(ctx, mcp.Config{
		Command:     cfg.EdgarMCPCommand,
		Args:        cfg.EdgarArgs(),
		Env:         []string{"SEC_EDGAR_USER_AGENT=" + cfg.EdgarUserAgent},
		CallTimeout: time.Duration(cfg.EdgarCallTimeout) * time.Second,
		SearchTool:  cfg.EdgarSearchTool,
		ContentTool: cfg.EdgarContentTool,
	}, edgarExecutor)
	if err != nil {
		queue.Close()
		_ = db.Close()
		return nil, fmt.Errorf("init edgar source: %w", err)
	}

	// Answer generation is optional; without it thematic searches still
	// return ranked results, just no synthesized answer.
	var generator ports.AnswerGenerator
	if cfg.OllamaEnabled {
		client := ollama.New(cfg.OllamaURL, cfg.OllamaModel)
		generator = ollama.NewGenerator(client, resilience.NewExecutor(localPolicy()))
	}

	fetchTimeout := time.Duration(cfg.FetchTimeoutSeconds) * time.Second
	thematic := usecase.NewThematicPipeline(source, usecase.PipelineConfig{
		Workers:      cfg.PipelineWorkers,
		FetchTimeout: fetchTimeout,
	})
	company := usecase.NewCompanyLookupUseCase(source, fetchTimeout)
	resolver := usecase.NewQueryResolveUseCase(
		heuristic.New(),
		thematic,
		company,
		generator,
		usecase.ResolveDefaults{
			FormTypes:     cfg.FormTypes(),
			MaxFilings:    cfg.DefaultMaxFilings,
			MaxResults:    cfg.DefaultMaxResults,
			MinScore:      cfg.DefaultMinScore,
			SnippetLength: cfg.DefaultSnippetLength,
			LookbackDays:  cfg.DefaultLookbackDays,
		},
	)

	return &App{
		Config: cfg,

		Queue:    queue,
		Runs:     runs,
		Exporter: excel.New(),

		Resolver: resolver,
		Thematic: thematic,

		closeFn: func() {
			_ = source.Close()
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

// NewWorker wires only what the run-recording worker needs: the queue
// subscription and the Postgres audit log. No EDGAR process is spawned.
func NewWorker(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	runs := postgres.NewRunRepository(db)
	if err := runs.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	return &App{
		Config: cfg,
		Queue:  queue,
		Runs:   runs,
		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// edgarPolicy paces EDGAR tool calls to the configured fair-access budget.
func edgarPolicy(cfg config.Config) resilience.Config {
	policy := resilience.DefaultConfig()
	policy.RequestsPerSecond = cfg.EdgarRequestsPerS
	policy.Burst = cfg.EdgarRequestBurst
	policy.RetryMaxAttempts = cfg.EdgarRetryAttempts
	return policy
}

// localPolicy applies to services we run ourselves, where EDGAR-grade
// pacing would only slow things down.
func localPolicy() resilience.Config {
	policy := resilience.DefaultConfig()
	policy.RequestsPerSecond = 50
	policy.Burst = 10
	return policy
}
