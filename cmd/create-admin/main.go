// Команда create-admin заводит учётную запись администратора.
//
//	CONFIG_PATH=config/local.yaml ADMIN_PASSWORD=... go run ./cmd/create-admin -email admin@example.com
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/magabrotheeeer/skiniq/internal/config"
	"github.com/magabrotheeeer/skiniq/internal/lib/password"
	"github.com/magabrotheeeer/skiniq/internal/lib/sl"
	"github.com/magabrotheeeer/skiniq/internal/migrations"
	"github.com/magabrotheeeer/skiniq/internal/storage/repository"
)

const minPasswordLen = 8

func main() {
	email := flag.String("email", "", "admin email")
	role := flag.String("role", "admin", "admin role")
	flag.Parse()

	cfg := config.MustLoad()
	logger := sl.NewLogger(cfg.Env, os.Stdout)

	rawPassword := os.Getenv("ADMIN_PASSWORD")
	normalized := strings.ToLower(strings.TrimSpace(*email))
	if normalized == "" || len(rawPassword) < minPasswordLen {
		logger.Error("email flag and ADMIN_PASSWORD of at least 8 characters are required")
		os.Exit(2)
	}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		logger.Error("failed to connect to database", sl.Err(err))
		os.Exit(1)
	}
	defer db.Close()

	if err := migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		logger.Error("failed to apply migrations", sl.Err(err))
		os.Exit(1)
	}

	hash, err := password.GetHash(rawPassword)
	if err != nil {
		logger.Error("failed to hash password", sl.Err(err))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	id, err := db.CreateAdmin(ctx, normalized, hash, *role)
	if err != nil {
		logger.Error("failed to create admin", sl.Err(err))
		os.Exit(1)
	}
	logger.Info("admin created", slog.String("id", id), slog.String("email", normalized), slog.String("role", *role))
}
