// Package broadcastsender процесс доставки рассылок: читает задания из
// очереди broadcast.deliver и отправляет их через Telegram Bot API.
package broadcastsender

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/skiniq/internal/config"
	"github.com/magabrotheeeer/skiniq/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/skiniq/internal/lib/sl"
	"github.com/magabrotheeeer/skiniq/internal/lib/telegram"
	"github.com/magabrotheeeer/skiniq/internal/services/broadcast"
	"github.com/magabrotheeeer/skiniq/internal/storage/repository"
)

type App struct {
	db          *repository.Storage
	conn        *amqp.Connection
	ch          *amqp.Channel
	deliverer   *broadcast.Deliverer
	concurrency int
	logger      *slog.Logger
}

func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.broadcastsender.New"

	if cfg.BotToken == "" {
		return nil, fmt.Errorf("%s: %w", op, telegram.ErrNoToken)
	}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	// prefetch не больше числа одновременных отправок
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.ExchangeBroadcasts, rabbitmq.BroadcastQueues(), cfg.SenderConcurrency)
	if err != nil {
		_ = conn.Close()
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	tg := telegram.NewClient(cfg.APIURL, cfg.BotToken, cfg.Telegram.Timeout)

	return &App{
		db:          db,
		conn:        conn,
		ch:          ch,
		deliverer:   broadcast.NewDeliverer(db, tg, logger),
		concurrency: cfg.SenderConcurrency,
		logger:      logger,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	const op = "app.broadcastsender.Run"

	done, err := rabbitmq.ConsumerMessage(ctx, a.logger, a.ch, rabbitmq.QueueBroadcastDeliver, a.concurrency, a.deliverer.HandleMessage)
	if err != nil {
		a.close()
		return fmt.Errorf("%s: %w", op, err)
	}
	a.logger.Info("consuming broadcast jobs",
		slog.String("queue", rabbitmq.QueueBroadcastDeliver),
		slog.Int("concurrency", a.concurrency),
	)

	select {
	case <-ctx.Done():
		a.logger.Info("broadcast sender shutting down gracefully")
		<-done
	case <-done:
		a.close()
		return fmt.Errorf("%s: delivery channel closed", op)
	}

	a.close()
	return nil
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
}
