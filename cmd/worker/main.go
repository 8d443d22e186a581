package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oshomadesse/shiori/internal/bootstrap"
	"github.com/oshomadesse/shiori/internal/config"
	"github.com/oshomadesse/shiori/internal/core/domain"
	"github.com/oshomadesse/shiori/internal/observability/logging"
	"github.com/oshomadesse/shiori/internal/observability/metrics"
)

const service = "worker"

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(service, cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipelineMetrics := metrics.NewPipelineMetrics(service)

	app, err := bootstrap.New(ctx, cfg, logger, bootstrap.Options{
		ConnectQueue: true,
		Metrics:      pipelineMetrics,
		Service:      service,
	})
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: pipelineMetrics.Handler(),
	}
	go func() {
		logger.Info("metrics listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("metrics server error: %v", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeRunRequests(ctx, func(handlerCtx context.Context, dateKey string) error {
		date := time.Now()
		if dateKey != "" {
			parsed, err := time.Parse("2006-01-02", dateKey)
			if err != nil {
				logger.Error("invalid run date in request", "date", dateKey, "error", err)
				return nil
			}
			date = parsed
		}

		runCtx, cancel := context.WithTimeout(handlerCtx, 30*time.Minute)
		defer cancel()

		pipelineMetrics.StartRun()
		start := time.Now()
		state, runErr := app.Runner.Run(runCtx, date)
		pipelineMetrics.FinishRun(service, string(state.Status()), time.Since(start))
		for _, effect := range state.Degraded {
			pipelineMetrics.RecordDegradedEffect(service, string(effect))
		}

		if runErr != nil {
			logger.Error("run failed",
				"run_id", state.ID,
				"date", state.DateKey(),
				"stage", string(state.Stage),
				"error", runErr,
			)
			return runErr
		}
		logger.Info("run finished",
			"run_id", state.ID,
			"date", state.DateKey(),
			"status", string(state.Status()),
			"note", state.NotePath,
		)
		if state.Status() == domain.RunDegraded {
			for _, effect := range state.Degraded {
				logger.Warn("post-step degraded", "run_id", state.ID, "effect", string(effect))
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}
