package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oshomadesse/shiori/internal/bootstrap"
	"github.com/oshomadesse/shiori/internal/config"
	"github.com/oshomadesse/shiori/internal/core/domain"
	"github.com/oshomadesse/shiori/internal/observability/logging"
)

func main() {
	dateFlag := flag.String("date", "", "run date as YYYY-MM-DD (default: today)")
	flag.Parse()

	cfg := config.Load()
	logger := logging.NewJSONLogger("runner", cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	date := time.Now()
	if *dateFlag != "" {
		parsed, err := time.Parse("2006-01-02", *dateFlag)
		if err != nil {
			log.Fatalf("invalid -date %q: %v", *dateFlag, err)
		}
		date = parsed
	}

	app, err := bootstrap.New(ctx, cfg, logger, bootstrap.Options{Service: "runner"})
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	state, err := app.Runner.Run(ctx, date)
	if err != nil {
		logger.Error("run failed",
			"run_id", state.ID,
			"date", state.DateKey(),
			"stage", string(state.Stage),
			"error", err,
		)
		os.Exit(1)
	}

	logger.Info("run finished",
		"run_id", state.ID,
		"date", state.DateKey(),
		"status", string(state.Status()),
		"note", state.NotePath,
		"degraded", degradedStrings(state),
	)
	if state.Status() == domain.RunDegraded {
		os.Exit(2)
	}
}

func degradedStrings(state *domain.RunState) []string {
	out := make([]string, 0, len(state.Degraded))
	for _, effect := range state.Degraded {
		out = append(out, string(effect))
	}
	return out
}
