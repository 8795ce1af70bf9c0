package models

import "time"

// Статусы чата поддержки.
const (
	ChatActive     = "active"
	ChatInProgress = "in_progress"
	ChatClosed     = "closed"
)

// ValidChatStatus проверяет, что статус входит в допустимый набор.
func ValidChatStatus(status string) bool {
	switch status {
	case ChatActive, ChatInProgress, ChatClosed:
		return true
	}
	return false
}

// SupportChat диалог пользователя с поддержкой.
// AutoReplySent сбрасывается при каждом закрытии, чтобы после повторного
// открытия пользователь получил ровно один новый автоответ.
type SupportChat struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	TelegramChatID int64     `json:"telegramChatId"`
	Username       string    `json:"username,omitempty"`
	Status         string    `json:"status"`
	Unread         int       `json:"unread"`
	AutoReplySent  bool      `json:"autoReplySent"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// SupportMessage сообщение в чате поддержки.
type SupportMessage struct {
	ID        int64     `json:"id"`
	ChatID    string    `json:"-"`
	Text      string    `json:"text"`
	IsAdmin   bool      `json:"isAdmin"`
	CreatedAt time.Time `json:"createdAt"`
}
