package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	mcpadapter "github.com/oshomadesse/shiori/internal/adapters/mcp"
	"github.com/oshomadesse/shiori/internal/bootstrap"
	"github.com/oshomadesse/shiori/internal/config"
	"github.com/oshomadesse/shiori/internal/observability/logging"
)

const version = "0.1.0"

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("mcp", cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger, bootstrap.Options{
		ConnectQueue: true,
		Service:      "mcp",
	})
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	srv := mcpadapter.NewServer(app.Runner, app.Ledger, app.Queue, version)
	if err := srv.ServeStdio(); err != nil {
		log.Fatalf("mcp serve error: %v", err)
	}
}
