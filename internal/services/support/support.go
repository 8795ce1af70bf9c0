// Package support управляет чатами поддержки: статусами, чтением сообщений,
// приёмом сообщений из Telegram с однократным автоответом и ответами админа.
package support

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/skiniq/internal/cache"
	"github.com/magabrotheeeer/skiniq/internal/lib/sl"
	"github.com/magabrotheeeer/skiniq/internal/lib/telegram"
	"github.com/magabrotheeeer/skiniq/internal/models"
	"github.com/magabrotheeeer/skiniq/internal/storage"
)

// MessagesLimit сколько последних сообщений отдаёт ListMessages.
const MessagesLimit = 50

const chatsCacheKey = "support:chats:"

var (
	ErrInvalidStatus = errors.New("invalid status")
	ErrChatNotFound  = errors.New("chat not found")
	// ErrDeliveryFailed ответ сохранён, но Telegram его не принял.
	ErrDeliveryFailed = errors.New("message delivery failed")
)

type Repository interface {
	ListChats(ctx context.Context, status string) ([]models.SupportChat, error)
	SetChatStatus(ctx context.Context, id, status string) error
	ReadMessages(ctx context.Context, chatID string, limit int) ([]models.SupportMessage, error)
	AppendIncomingMessage(ctx context.Context, telegramChatID int64, userID, text string) (*models.SupportChat, error)
	ClaimAutoReply(ctx context.Context, chatID string) (bool, error)
	AppendAdminMessage(ctx context.Context, chatID, text string) (*models.SupportMessage, int64, error)
	UpsertTelegramUser(ctx context.Context, telegramID int64, username, firstName string) (*models.User, error)
}

// Sender доставляет сообщения пользователю.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

type Service struct {
	repo          Repository
	sender        Sender
	cache         cache.Cache
	cacheTTL      time.Duration
	autoReplyText string
	log           *slog.Logger
}

func New(repo Repository, sender Sender, c cache.Cache, cacheTTL time.Duration, autoReplyText string, log *slog.Logger) *Service {
	return &Service{
		repo:          repo,
		sender:        sender,
		cache:         c,
		cacheTTL:      cacheTTL,
		autoReplyText: autoReplyText,
		log:           log,
	}
}

// CloseChat закрывает чат и сбрасывает признак автоответа.
func (s *Service) CloseChat(ctx context.Context, chatID string) error {
	return s.SetStatus(ctx, chatID, models.ChatClosed)
}

// SetStatus меняет статус чата. Недопустимый статус не трогает чат.
func (s *Service) SetStatus(ctx context.Context, chatID, status string) error {
	const op = "support.SetStatus"
	if !models.ValidChatStatus(status) {
		return fmt.Errorf("%s: %w: %q", op, ErrInvalidStatus, status)
	}
	if err := s.repo.SetChatStatus(ctx, chatID, status); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrChatNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidateChats(ctx)
	return nil
}

// ListMessages последние MessagesLimit сообщений по возрастанию времени.
// Счётчик непрочитанных обнуляется.
func (s *Service) ListMessages(ctx context.Context, chatID string) ([]models.SupportMessage, error) {
	const op = "support.ListMessages"
	msgs, err := s.repo.ReadMessages(ctx, chatID, MessagesLimit)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrChatNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidateChats(ctx)
	return msgs, nil
}

// ListChats список чатов, пустой status означает все. Ответ кешируется.
func (s *Service) ListChats(ctx context.Context, status string) ([]models.SupportChat, error) {
	const op = "support.ListChats"
	if status != "" && !models.ValidChatStatus(status) {
		return nil, fmt.Errorf("%s: %w: %q", op, ErrInvalidStatus, status)
	}

	key := chatsCacheKey + status
	var chats []models.SupportChat
	found, err := s.cache.Get(ctx, key, &chats)
	if err != nil {
		s.log.Warn("admin cache read failed", slog.String("op", op), sl.Err(err))
	}
	if found {
		return chats, nil
	}

	chats, err = s.repo.ListChats(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Set(ctx, key, chats, s.cacheTTL); err != nil {
		s.log.Warn("admin cache write failed", slog.String("op", op), sl.Err(err))
	}
	return chats, nil
}

// ReceiveMessage сохраняет входящее сообщение пользователя. Первое сообщение
// после открытия чата получает автоответ; при гонке его отправит только один вызов.
func (s *Service) ReceiveMessage(ctx context.Context, update telegram.Update) error {
	const op = "support.ReceiveMessage"
	msg := update.Message
	if msg == nil || msg.From == nil || msg.From.IsBot || strings.TrimSpace(msg.Text) == "" {
		return nil
	}
	log := s.log.With(slog.String("op", op), slog.Int64("telegram_chat_id", msg.Chat.ID))

	user, err := s.repo.UpsertTelegramUser(ctx, msg.From.ID, msg.From.Username, msg.From.FirstName)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	chat, err := s.repo.AppendIncomingMessage(ctx, msg.Chat.ID, user.ID, msg.Text)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidateChats(ctx)

	if chat.AutoReplySent || s.autoReplyText == "" {
		return nil
	}
	claimed, err := s.repo.ClaimAutoReply(ctx, chat.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !claimed {
		return nil
	}
	if err := s.sender.SendMessage(ctx, msg.Chat.ID, s.autoReplyText); err != nil {
		log.Warn("auto-reply not delivered", slog.String("chat_id", chat.ID), sl.Err(err))
		return nil
	}
	log.Debug("auto-reply sent", slog.String("chat_id", chat.ID))
	return nil
}

// Reply сохраняет ответ администратора и отправляет его пользователю.
// Активный чат переходит в in_progress.
func (s *Service) Reply(ctx context.Context, chatID, text string) (*models.SupportMessage, error) {
	const op = "support.Reply"
	msg, telegramChatID, err := s.repo.AppendAdminMessage(ctx, chatID, text)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrChatNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidateChats(ctx)

	if err := s.sender.SendMessage(ctx, telegramChatID, text); err != nil {
		return msg, fmt.Errorf("%s: %w: %w", op, ErrDeliveryFailed, err)
	}
	return msg, nil
}

func (s *Service) invalidateChats(ctx context.Context) {
	for _, status := range []string{"", models.ChatActive, models.ChatInProgress, models.ChatClosed} {
		if err := s.cache.Delete(ctx, chatsCacheKey+status); err != nil {
			s.log.Warn("admin cache invalidation failed", slog.String("key", chatsCacheKey+status), sl.Err(err))
		}
	}
}
