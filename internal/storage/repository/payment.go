package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/skiniq/internal/models"
	"github.com/magabrotheeeer/skiniq/internal/storage"
)

// CreatePayment сохраняет платёж в статусе pending.
func (s *Storage) CreatePayment(ctx context.Context, p models.Payment) error {
	const op = "storage.CreatePayment"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO payments (id, user_id, product_code, status, created_at)
			  VALUES ($1, $2, $3, $4, $5)`
	if _, err := s.DB.ExecContext(ctx, query, p.ID, p.UserID, p.ProductCode, p.Status, p.CreatedAt); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetPayment возвращает платёж по id.
func (s *Storage) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	const op = "storage.GetPayment"
	query := `SELECT id, user_id, product_code, status, created_at, completed_at
			  FROM payments WHERE id = $1`
	var p models.Payment
	var completedAt sql.NullTime
	err := s.DB.QueryRowContext(ctx, query, id).
		Scan(&p.ID, &p.UserID, &p.ProductCode, &p.Status, &p.CreatedAt, &completedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if completedAt.Valid {
		p.CompletedAt = &completedAt.Time
	}
	return &p, nil
}

// CompletePayment переводит платёж pending → completed и выдаёт право доступа
// в одной транзакции. Строка платежа блокируется FOR UPDATE, а уникальный
// индекс по granted_from_payment_id не даёт второй выдачи, даже если вебхуки
// пришли одновременно в разные процессы.
//
// Возвращает статус платежа до вызова и признак того, что право выдано сейчас.
func (s *Storage) CompletePayment(ctx context.Context, ent models.Entitlement, completedAt time.Time) (string, bool, error) {
	const op = "storage.CompletePayment"
	var prevStatus string
	var granted bool

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`SELECT status FROM payments WHERE id = $1 FOR UPDATE`,
			ent.GrantedFromPaymentID).Scan(&prevStatus)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return storage.ErrNotFound
			}
			return err
		}
		if prevStatus != models.PaymentPending {
			return nil
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE payments SET status = $2, completed_at = $3 WHERE id = $1`,
			ent.GrantedFromPaymentID, models.PaymentCompleted, completedAt); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO entitlements (user_id, entitlement_code, valid_until, granted_from_payment_id, created_at)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (granted_from_payment_id) DO NOTHING`,
			ent.UserID, ent.EntitlementCode, ent.ValidUntil, ent.GrantedFromPaymentID, completedAt)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		granted = n == 1
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", op, err)
	}
	return prevStatus, granted, nil
}

// FailPayment переводит платёж pending → failed. Терминальный платёж не меняется.
// Возвращает статус до вызова.
func (s *Storage) FailPayment(ctx context.Context, id string) (string, error) {
	const op = "storage.FailPayment"
	var prevStatus string

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `SELECT status FROM payments WHERE id = $1 FOR UPDATE`, id).Scan(&prevStatus)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return storage.ErrNotFound
			}
			return err
		}
		if prevStatus != models.PaymentPending {
			return nil
		}
		_, err = tx.ExecContext(ctx, `UPDATE payments SET status = $2 WHERE id = $1`, id, models.PaymentFailed)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return prevStatus, nil
}

// ListEntitlements возвращает все права пользователя, новые первыми.
func (s *Storage) ListEntitlements(ctx context.Context, userID string) ([]models.Entitlement, error) {
	const op = "storage.ListEntitlements"
	query := `SELECT id, user_id, entitlement_code, valid_until, granted_from_payment_id, created_at
			  FROM entitlements
			  WHERE user_id = $1
			  ORDER BY created_at DESC, id DESC`
	rows, err := s.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.Entitlement
	for rows.Next() {
		var e models.Entitlement
		var validUntil sql.NullTime
		if err := rows.Scan(&e.ID, &e.UserID, &e.EntitlementCode, &validUntil, &e.GrantedFromPaymentID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if validUntil.Valid {
			e.ValidUntil = &validUntil.Time
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
