package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/skiniq/internal/models"
	"github.com/magabrotheeeer/skiniq/internal/storage"
)

const chatColumns = `c.id, COALESCE(c.user_id::text, ''), c.telegram_chat_id, COALESCE(u.username, ''),
		c.status, c.unread, c.auto_reply_sent, c.created_at, c.updated_at`

func scanChat(row interface{ Scan(...any) error }) (*models.SupportChat, error) {
	var c models.SupportChat
	err := row.Scan(&c.ID, &c.UserID, &c.TelegramChatID, &c.Username,
		&c.Status, &c.Unread, &c.AutoReplySent, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListChats возвращает чаты поддержки, последние обновлённые первыми.
// Пустой status означает все статусы.
func (s *Storage) ListChats(ctx context.Context, status string) ([]models.SupportChat, error) {
	const op = "storage.ListChats"
	query := `SELECT ` + chatColumns + `
			  FROM support_chats c
			  LEFT JOIN users u ON u.id = c.user_id
			  WHERE ($1::text = '' OR c.status = $1::text)
			  ORDER BY c.updated_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.SupportChat, 0)
	for rows.Next() {
		c, err := scanChat(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetChat возвращает чат по id.
func (s *Storage) GetChat(ctx context.Context, id string) (*models.SupportChat, error) {
	const op = "storage.GetChat"
	query := `SELECT ` + chatColumns + `
			  FROM support_chats c
			  LEFT JOIN users u ON u.id = c.user_id
			  WHERE c.id = $1`
	c, err := scanChat(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// SetChatStatus меняет статус чата. При закрытии сбрасывает auto_reply_sent.
func (s *Storage) SetChatStatus(ctx context.Context, id, status string) error {
	const op = "storage.SetChatStatus"
	query := `UPDATE support_chats
			  SET status = $2::text,
			      auto_reply_sent = CASE WHEN $2::text = 'closed' THEN false ELSE auto_reply_sent END,
			      updated_at = NOW()
			  WHERE id = $1`
	res, err := s.DB.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	return nil
}

// ReadMessages возвращает последние limit сообщений чата по возрастанию времени
// и в той же транзакции обнуляет счётчик непрочитанных.
func (s *Storage) ReadMessages(ctx context.Context, chatID string, limit int) ([]models.SupportMessage, error) {
	const op = "storage.ReadMessages"
	messages := make([]models.SupportMessage, 0, limit)

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE support_chats SET unread = 0 WHERE id = $1`, chatID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return storage.ErrNotFound
		}

		rows, err := tx.QueryContext(ctx, `
			SELECT id, chat_id, text, is_admin, created_at FROM (
				SELECT id, chat_id, text, is_admin, created_at
				FROM support_messages
				WHERE chat_id = $1
				ORDER BY created_at DESC, id DESC
				LIMIT $2
			) recent
			ORDER BY created_at ASC, id ASC`, chatID, limit)
		if err != nil {
			return err
		}
		defer func() {
			_ = rows.Close()
		}()
		for rows.Next() {
			var m models.SupportMessage
			if err := rows.Scan(&m.ID, &m.ChatID, &m.Text, &m.IsAdmin, &m.CreatedAt); err != nil {
				return err
			}
			messages = append(messages, m)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return messages, nil
}

// AppendIncomingMessage сохраняет сообщение пользователя: находит или создаёт
// чат по telegram_chat_id, увеличивает unread и открывает закрытый чат заново.
func (s *Storage) AppendIncomingMessage(ctx context.Context, telegramChatID int64, userID, text string) (*models.SupportChat, error) {
	const op = "storage.AppendIncomingMessage"
	var chat models.SupportChat

	var uid any
	if userID != "" {
		uid = userID
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO support_chats (id, user_id, telegram_chat_id, status, unread)
			VALUES ($1, $2, $3, 'active', 1)
			ON CONFLICT (telegram_chat_id) DO UPDATE
			SET unread = support_chats.unread + 1,
			    user_id = COALESCE(support_chats.user_id, EXCLUDED.user_id),
			    status = CASE WHEN support_chats.status = 'closed' THEN 'active' ELSE support_chats.status END,
			    updated_at = NOW()
			RETURNING id, COALESCE(user_id::text, ''), telegram_chat_id, status, unread, auto_reply_sent, created_at, updated_at`,
			uuid.NewString(), uid, telegramChatID).
			Scan(&chat.ID, &chat.UserID, &chat.TelegramChatID, &chat.Status, &chat.Unread,
				&chat.AutoReplySent, &chat.CreatedAt, &chat.UpdatedAt)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO support_messages (chat_id, text, is_admin) VALUES ($1, $2, false)`,
			chat.ID, text)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &chat, nil
}

// ClaimAutoReply атомарно отмечает, что автоответ отправлен.
// true получает ровно один вызов на каждое открытие чата.
func (s *Storage) ClaimAutoReply(ctx context.Context, chatID string) (bool, error) {
	const op = "storage.ClaimAutoReply"
	res, err := s.DB.ExecContext(ctx,
		`UPDATE support_chats SET auto_reply_sent = true WHERE id = $1 AND auto_reply_sent = false`, chatID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n == 1, nil
}

// AppendAdminMessage сохраняет ответ администратора и переводит активный чат в in_progress.
// Возвращает сообщение и Telegram id чата для доставки.
func (s *Storage) AppendAdminMessage(ctx context.Context, chatID, text string) (*models.SupportMessage, int64, error) {
	const op = "storage.AppendAdminMessage"
	var telegramChatID int64
	msg := models.SupportMessage{ChatID: chatID, Text: text, IsAdmin: true}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			UPDATE support_chats
			SET status = CASE WHEN status = 'active' THEN 'in_progress' ELSE status END,
			    updated_at = NOW()
			WHERE id = $1
			RETURNING telegram_chat_id`, chatID).Scan(&telegramChatID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return storage.ErrNotFound
			}
			return err
		}
		return tx.QueryRowContext(ctx,
			`INSERT INTO support_messages (chat_id, text, is_admin) VALUES ($1, $2, true) RETURNING id, created_at`,
			chatID, text).Scan(&msg.ID, &msg.CreatedAt)
	})
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return &msg, telegramChatID, nil
}
