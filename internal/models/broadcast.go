package models

import "time"

// Статусы рассылки.
const (
	BroadcastDraft     = "draft"
	BroadcastScheduled = "scheduled"
	BroadcastSent      = "sent"
	BroadcastFailed    = "failed"
)

// Broadcast массовое сообщение всем пользователям бота.
// Счётчики меняет только воркер рассылки.
type Broadcast struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Message      string     `json:"message"`
	Status       string     `json:"status"`
	ScheduledAt  *time.Time `json:"scheduledAt,omitempty"`
	DispatchedAt *time.Time `json:"dispatchedAt,omitempty"`
	TotalCount   int        `json:"totalCount"`
	SentCount    int        `json:"sentCount"`
	FailedCount  int        `json:"failedCount"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// DeliveryJob задание на отправку одного сообщения рассылки, уходит в RabbitMQ.
type DeliveryJob struct {
	BroadcastID    string `json:"broadcast_id"`
	TelegramChatID int64  `json:"telegram_chat_id"`
	Text           string `json:"text"`
}
