package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/skiniq/internal/lib/sl"
	"github.com/magabrotheeeer/skiniq/internal/metrics"
	"github.com/magabrotheeeer/skiniq/internal/models"
)

// DeliveryRecorder учитывает результат доставки.
type DeliveryRecorder interface {
	RecordDelivery(ctx context.Context, id string, delivered bool) error
}

// Sender отправляет сообщение пользователю.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Deliverer обрабатывает задания из очереди broadcast.deliver.
type Deliverer struct {
	repo   DeliveryRecorder
	sender Sender
	log    *slog.Logger
}

func NewDeliverer(repo DeliveryRecorder, sender Sender, log *slog.Logger) *Deliverer {
	return &Deliverer{repo: repo, sender: sender, log: log}
}

// Deliver отправляет одно сообщение и записывает результат. Ошибка Telegram
// считается неудачной доставкой, а не ошибкой обработки; ошибка записи
// результата возвращается, и сообщение уходит в очередь повторно.
func (d *Deliverer) Deliver(ctx context.Context, job models.DeliveryJob) error {
	const op = "broadcast.Deliver"
	delivered := true
	if err := d.sender.SendMessage(ctx, job.TelegramChatID, job.Text); err != nil {
		delivered = false
		d.log.Warn("broadcast message not delivered",
			slog.String("op", op),
			slog.String("broadcast_id", job.BroadcastID),
			slog.Int64("telegram_chat_id", job.TelegramChatID),
			sl.Err(err),
		)
	}

	if err := d.repo.RecordDelivery(ctx, job.BroadcastID, delivered); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if delivered {
		metrics.BroadcastDeliveries.WithLabelValues(metrics.ResultSent).Inc()
	} else {
		metrics.BroadcastDeliveries.WithLabelValues(metrics.ResultFailed).Inc()
	}
	return nil
}

// HandleMessage разбирает тело сообщения RabbitMQ. Битое сообщение отбрасывается.
func (d *Deliverer) HandleMessage(ctx context.Context, body []byte) error {
	const op = "broadcast.HandleMessage"
	var job models.DeliveryJob
	if err := json.Unmarshal(body, &job); err != nil || job.BroadcastID == "" {
		d.log.Error("malformed delivery job dropped", slog.String("op", op), sl.Err(err))
		return nil
	}
	return d.Deliver(ctx, job)
}
