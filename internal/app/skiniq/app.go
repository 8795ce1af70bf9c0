package skiniq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/skiniq/internal/cache"
	"github.com/magabrotheeeer/skiniq/internal/config"
	customjwt "github.com/magabrotheeeer/skiniq/internal/lib/jwt"
	"github.com/magabrotheeeer/skiniq/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/skiniq/internal/lib/sl"
	"github.com/magabrotheeeer/skiniq/internal/lib/telegram"
	"github.com/magabrotheeeer/skiniq/internal/migrations"
	"github.com/magabrotheeeer/skiniq/internal/scheduler"
	"github.com/magabrotheeeer/skiniq/internal/services/adminauth"
	"github.com/magabrotheeeer/skiniq/internal/services/broadcast"
	"github.com/magabrotheeeer/skiniq/internal/services/maintenance"
	"github.com/magabrotheeeer/skiniq/internal/services/payment"
	"github.com/magabrotheeeer/skiniq/internal/services/support"
	"github.com/magabrotheeeer/skiniq/internal/storage/repository"
)

const shutdownTimeout = 15 * time.Second

// App HTTP-процесс skiniq.
type App struct {
	server    *http.Server
	logger    *slog.Logger
	db        *repository.Storage
	scheduler *scheduler.Scheduler
	conn      *amqp.Connection
	ch        *amqp.Channel
	closers   []func() error
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.skiniq.New"

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	app := &App{logger: logger, db: db, scheduler: scheduler.New(logger)}

	if err := migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	adminCache, err := app.newCache(ctx, cfg)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	app.conn, err = rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	app.ch, err = rabbitmq.SetupChannel(app.conn, rabbitmq.ExchangeBroadcasts, rabbitmq.BroadcastQueues(), 0)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	publisher := rabbitmq.NewPublisher(app.ch, rabbitmq.ExchangeBroadcasts, rabbitmq.RoutingKeyDeliver)

	if cfg.JWTSecretKey == "" {
		logger.Warn("admin jwt secret is not set, admin endpoints will answer 500")
	}
	if cfg.BotToken == "" {
		logger.Warn("telegram bot token is not set, mini app and replies are disabled")
	}
	tg := telegram.NewClient(cfg.APIURL, cfg.BotToken, cfg.Telegram.Timeout)
	jwtMaker := customjwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, Services{
		DB:          db.DB,
		Users:       db,
		Auth:        adminauth.New(db, jwtMaker, logger),
		Payments:    payment.New(db, logger),
		Support:     support.New(db, tg, adminCache, cfg.DefaultTTL, cfg.AutoReplyText, logger),
		Broadcasts:  broadcast.New(db, publisher, adminCache, cfg.DefaultTTL, logger),
		Maintenance: maintenance.New(db, logger),
	})

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

// newCache выбирает бэкенд кеша админки по admin_cache.backend.
func (a *App) newCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	c, mem, closer, err := NewCache(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		a.closers = append(a.closers, closer)
	}
	if mem != nil {
		err := a.scheduler.Every(cfg.CleanupInterval, "admin-cache-cleanup", func() {
			if n := mem.Cleanup(); n > 0 {
				a.logger.Debug("admin cache cleaned", slog.Int("removed", n))
			}
		})
		if err != nil {
			return nil, err
		}
	}
	return c, nil
}

// NewCache создаёт кеш по конфигурации. Для memory возвращает также сам
// Memory для периодической очистки, для redis функцию закрытия клиента.
func NewCache(ctx context.Context, cfg *config.Config) (cache.Cache, *cache.Memory, func() error, error) {
	const op = "app.skiniq.NewCache"
	switch cfg.Backend {
	case cache.BackendMemory, "":
		mem := cache.NewMemory(cfg.DefaultTTL)
		return cache.NewInstrumented(mem), mem, nil, nil
	case cache.BackendRedis:
		rdb, err := cache.InitServer(ctx, cfg.RedisConnection, cfg.DefaultTTL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("%s: %w", op, err)
		}
		return cache.NewInstrumented(rdb), nil, rdb.Close, nil
	default:
		return nil, nil, nil, fmt.Errorf("%s: %q: %w", op, cfg.Backend, cache.ErrUnknownBackend)
	}
}

func (a *App) Run(ctx context.Context) error {
	const op = "app.skiniq.Run"

	a.scheduler.Start()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting http server", slog.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := a.server.Shutdown(shutdownCtx)
		a.close()
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	case err, ok := <-errCh:
		a.close()
		if ok && err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	}
}

func (a *App) close() {
	a.scheduler.Stop()
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close rabbitmq channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close rabbitmq connection", sl.Err(err))
		}
	}
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.logger.Error("failed to close cache", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
}
