package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"repo-analyzer-client/internal/bootstrap"
	"repo-analyzer-client/internal/shared/config"
	"repo-analyzer-client/internal/shared/telemetry"
)

func main() {
	defer telemetry.Sync()

	cfg := config.Load()
	app, err := bootstrap.Build(cfg)
	if err != nil {
		telemetry.Error("bootstrap.failed", map[string]any{"error": err})
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Serve(ctx); err != nil {
		telemetry.Error("server.failed", map[string]any{"error": err})
		os.Exit(1)
	}
}
