// Package bootstrap wires configuration into the concrete pipeline.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/oshomadesse/shiori/internal/config"
	"github.com/oshomadesse/shiori/internal/core/domain"
	"github.com/oshomadesse/shiori/internal/core/ports"
	"github.com/oshomadesse/shiori/internal/core/usecase"
	"github.com/oshomadesse/shiori/internal/infrastructure/artifact/localfs"
	graphneo4j "github.com/oshomadesse/shiori/internal/infrastructure/graph/neo4j"
	ledgerpostgres "github.com/oshomadesse/shiori/internal/infrastructure/ledger/postgres"
	ledgerxlsx "github.com/oshomadesse/shiori/internal/infrastructure/ledger/xlsx"
	"github.com/oshomadesse/shiori/internal/infrastructure/llm/openai"
	"github.com/oshomadesse/shiori/internal/infrastructure/notify/line"
	"github.com/oshomadesse/shiori/internal/infrastructure/queue/nats"
	"github.com/oshomadesse/shiori/internal/observability/metrics"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Runner ports.PipelineRunner
	Ledger ports.ExclusionLedger
	Queue  ports.RunQueue

	closeFn func()
}

type Options struct {
	// ConnectQueue opens the NATS connection; only the surfaces that publish
	// or consume run requests need it.
	ConnectQueue bool
	// Metrics, when set, receives per-stage timings from the pipeline.
	Metrics *metrics.PipelineMetrics
	Service string
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger, opts Options) (*App, error) {
	closers := make([]func(), 0, 4)

	ledger, closeLedger, err := openLedger(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if closeLedger != nil {
		closers = append(closers, closeLedger)
	}

	policy, err := cfg.LoadPolicy()
	if err != nil {
		return nil, err
	}

	llmOpts := openai.Options{RequestsPerMin: cfg.LLMRequestsPerMin}
	if opts.Metrics != nil {
		m := opts.Metrics
		service := opts.Service
		llmOpts.CallObserver = func(operation string, err error) {
			m.RecordLLMCall(service, operation, err)
		}
	}
	llmClient := openai.New(cfg.LLMBaseURL, cfg.LLMAPIKey, openai.Models{
		Recommend: cfg.LLMRecommendModel,
		Research:  cfg.LLMResearchModel,
		Render:    cfg.LLMRenderModel,
	}, llmOpts)

	artifacts, err := localfs.New(cfg.ArtifactDir)
	if err != nil {
		return nil, fmt.Errorf("init artifact store: %w", err)
	}
	if cfg.ExportDir != "" {
		artifacts = artifacts.WithPublic(cfg.ExportDir, cfg.PublicBaseURL)
	}
	notes, err := localfs.New(cfg.NotesDir)
	if err != nil {
		return nil, fmt.Errorf("init note store: %w", err)
	}

	notifier, err := buildNotifier(cfg, logger)
	if err != nil {
		return nil, err
	}

	var graph ports.GraphRecorder
	if cfg.Neo4jEnabled {
		recorder, err := graphneo4j.New(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword, cfg.Neo4jDatabase)
		if err != nil {
			return nil, fmt.Errorf("init graph recorder: %w", err)
		}
		closers = append(closers, func() { _ = recorder.Close(context.Background()) })
		graph = recorder
	}

	runOpts := usecase.RunOptions{
		StageTimeout:  cfg.StageTimeout(),
		PublishPublic: cfg.PublishPublic,
		Graph:         graph,
	}
	if opts.Metrics != nil {
		m := opts.Metrics
		service := opts.Service
		runOpts.StageObserver = func(stage domain.RunStage, duration time.Duration) {
			m.ObserveStage(service, string(stage), duration)
		}
	}

	selector := usecase.NewCandidateSelector(openai.NewRecommender(llmClient), policy)
	runner := usecase.NewRunPipelineUseCase(
		ledger,
		selector,
		openai.NewResearcher(llmClient),
		openai.NewRenderer(llmClient),
		artifacts,
		notes,
		notifier,
		runOpts,
	)

	var queue ports.RunQueue
	if opts.ConnectQueue {
		q, err := nats.New(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			return nil, fmt.Errorf("init run queue: %w", err)
		}
		closers = append(closers, q.Close)
		queue = q
	}

	return &App{
		Config: cfg,
		Logger: logger,
		Runner: runner,
		Ledger: ledger,
		Queue:  queue,
		closeFn: func() {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func openLedger(ctx context.Context, cfg config.Config) (ports.ExclusionLedger, func(), error) {
	switch cfg.LedgerDriver {
	case "postgres":
		db, err := ledgerpostgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		ledger := ledgerpostgres.NewLedger(db)
		if err := ledger.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("ensure ledger schema: %w", err)
		}
		return ledger, func() { _ = db.Close() }, nil
	case "xlsx":
		return ledgerxlsx.NewLedger(cfg.XLSXPath, ""), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown ledger driver %q", cfg.LedgerDriver)
	}
}

func buildNotifier(cfg config.Config, logger *slog.Logger) (ports.Notifier, error) {
	if cfg.LineChannelToken == "" || cfg.LineRecipientID == "" {
		logger.Warn("line credentials missing, notifications will only be logged")
		return logNotifier{logger: logger}, nil
	}
	notifier, err := line.New(cfg.LineChannelToken, cfg.LineRecipientID, line.Options{})
	if err != nil {
		return nil, fmt.Errorf("init line notifier: %w", err)
	}
	return notifier, nil
}

// logNotifier stands in when no push channel is configured.
type logNotifier struct {
	logger *slog.Logger
}

func (n logNotifier) Send(_ context.Context, message, link string) error {
	n.logger.Info("notification", "message", message, "link", link)
	return nil
}
