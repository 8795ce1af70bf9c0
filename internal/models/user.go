package models

import "time"

// User пользователь мини-приложения, идентифицируется Telegram id.
// Старое поле с тегами оплаты сюда намеренно не перенесено:
// доступ определяется только таблицей entitlements.
type User struct {
	ID         string    `json:"id"`
	TelegramID int64     `json:"telegramId"`
	Username   string    `json:"username,omitempty"`
	FirstName  string    `json:"firstName,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Admin учётная запись администратора панели.
type Admin struct {
	ID           string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// LogEntry клиентский лог мини-приложения. Хранится 7 дней.
type LogEntry struct {
	ID        int64          `json:"id"`
	UserID    *string        `json:"userId,omitempty"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Context   map[string]any `json:"context,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}
