package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/skiniq/internal/app/broadcastsender"
	"github.com/magabrotheeeer/skiniq/internal/config"
	"github.com/magabrotheeeer/skiniq/internal/lib/sl"
)

func main() {
	cfg := config.MustLoad()
	logger := sl.NewLogger(cfg.Env, os.Stdout)

	logger.Info("starting broadcast sender", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := broadcastsender.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize broadcast sender", sl.Err(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error("broadcast sender stopped with error", sl.Err(err))
		os.Exit(1)
	}

	logger.Info("broadcast sender stopped gracefully")
}
