// Package main Skiniq API
//
// @title           Skiniq API
// @version         1.0
// @description     Бэкенд Telegram мини-приложения: оплата доступа, поддержка и рассылки.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey AdminToken
// @in header
// @name Authorization
// @description "Bearer" и токен администратора. Также принимается cookie admin_token.

// @securityDefinitions.apikey TelegramInitData
// @in header
// @name Authorization
// @description "tma" и строка initData мини-приложения.

// @securityDefinitions.apikey CronSecret
// @in header
// @name Authorization
// @description "Bearer" и CRON_SECRET.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/magabrotheeeer/skiniq/docs"
	"github.com/magabrotheeeer/skiniq/internal/app/skiniq"
	"github.com/magabrotheeeer/skiniq/internal/config"
	"github.com/magabrotheeeer/skiniq/internal/lib/sl"
)

func main() {
	cfg := config.MustLoad()
	logger := sl.NewLogger(cfg.Env, os.Stdout)

	logger.Info("starting skiniq", slog.String("env", cfg.Env))
	logger.Debug("config loaded", slog.String("config", cfg.String()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := skiniq.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize app", sl.Err(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error("app stopped with error", sl.Err(err))
		os.Exit(1)
	}

	logger.Info("skiniq stopped gracefully")
}
