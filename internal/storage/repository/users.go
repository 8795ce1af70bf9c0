package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/skiniq/internal/models"
	"github.com/magabrotheeeer/skiniq/internal/storage"
)

// UpsertTelegramUser создаёт пользователя мини-приложения или обновляет его имя.
func (s *Storage) UpsertTelegramUser(ctx context.Context, telegramID int64, username, firstName string) (*models.User, error) {
	const op = "storage.UpsertTelegramUser"
	query := `INSERT INTO users (telegram_id, username, first_name)
			  VALUES ($1, $2, $3)
			  ON CONFLICT (telegram_id) DO UPDATE
			  SET username = EXCLUDED.username, first_name = EXCLUDED.first_name
			  RETURNING id, telegram_id, username, first_name, created_at`
	var u models.User
	err := s.DB.QueryRowContext(ctx, query, telegramID, username, firstName).
		Scan(&u.ID, &u.TelegramID, &u.Username, &u.FirstName, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &u, nil
}

// ListRecipientChatIDs возвращает Telegram id всех пользователей, получателей рассылок.
func (s *Storage) ListRecipientChatIDs(ctx context.Context) ([]int64, error) {
	const op = "storage.ListRecipientChatIDs"
	rows, err := s.DB.QueryContext(ctx, `SELECT telegram_id FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ids, nil
}

// GetAdminByEmail возвращает администратора по email.
func (s *Storage) GetAdminByEmail(ctx context.Context, email string) (*models.Admin, error) {
	const op = "storage.GetAdminByEmail"
	query := `SELECT id, email, password_hash, role, created_at FROM admins WHERE email = $1`
	var a models.Admin
	err := s.DB.QueryRowContext(ctx, query, email).
		Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Role, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &a, nil
}

// CreateAdmin добавляет администратора и возвращает его id.
func (s *Storage) CreateAdmin(ctx context.Context, email, passwordHash, role string) (string, error) {
	const op = "storage.CreateAdmin"
	var id string
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO admins (email, password_hash, role) VALUES ($1, $2, $3) RETURNING id`,
		email, passwordHash, role).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}
