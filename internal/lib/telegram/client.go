// Package telegram содержит клиент Bot API для отправки сообщений,
// типы входящих обновлений вебхука и проверку initData мини-приложения.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrNoToken возвращается, если токен бота не настроен.
var ErrNoToken = errors.New("telegram bot token is not configured")

type Client struct {
	token      string
	apiURL     string
	httpClient *http.Client
}

// NewClient создаёт клиент Bot API. apiURL без завершающего слэша,
// например https://api.telegram.org.
func NewClient(apiURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		token:      token,
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type sendMessageRequest struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Description string `json:"description,omitempty"`
}

// APIError ответ Bot API с ok=false.
type APIError struct {
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram api error %d: %s", e.Code, e.Description)
}

// SendMessage отправляет текстовое сообщение в чат chatID.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	const op = "telegram.SendMessage"
	if c.token == "" {
		return fmt.Errorf("%s: %w", op, ErrNoToken)
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(sendMessageRequest{ChatID: chatID, Text: text}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", c.apiURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("%s: unexpected status %s: %w", op, resp.Status, err)
	}
	if !body.OK {
		code := body.ErrorCode
		if code == 0 {
			code = resp.StatusCode
		}
		return fmt.Errorf("%s: %w", op, &APIError{Code: code, Description: body.Description})
	}
	return nil
}

// Update входящее обновление вебхука. Используются только текстовые сообщения.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from,omitempty"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text"`
	Date      int64  `json:"date"`
}

type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

// User пользователь Telegram (в обновлениях и в initData).
type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot,omitempty"`
	FirstName string `json:"first_name"`
	Username  string `json:"username,omitempty"`
}
