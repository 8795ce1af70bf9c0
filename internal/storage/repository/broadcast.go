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

const broadcastColumns = `id, title, message, status, scheduled_at, dispatched_at,
		total_count, sent_count, failed_count, created_at`

func scanBroadcast(row interface{ Scan(...any) error }) (*models.Broadcast, error) {
	var b models.Broadcast
	var scheduledAt, dispatchedAt sql.NullTime
	err := row.Scan(&b.ID, &b.Title, &b.Message, &b.Status, &scheduledAt, &dispatchedAt,
		&b.TotalCount, &b.SentCount, &b.FailedCount, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	if scheduledAt.Valid {
		b.ScheduledAt = &scheduledAt.Time
	}
	if dispatchedAt.Valid {
		b.DispatchedAt = &dispatchedAt.Time
	}
	return &b, nil
}

// CreateBroadcast сохраняет рассылку в статусе draft или scheduled.
func (s *Storage) CreateBroadcast(ctx context.Context, b models.Broadcast) error {
	const op = "storage.CreateBroadcast"
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO broadcasts (id, title, message, status, scheduled_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		b.ID, b.Title, b.Message, b.Status, b.ScheduledAt, b.CreatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetBroadcast возвращает рассылку по id.
func (s *Storage) GetBroadcast(ctx context.Context, id string) (*models.Broadcast, error) {
	const op = "storage.GetBroadcast"
	b, err := scanBroadcast(s.DB.QueryRowContext(ctx,
		`SELECT `+broadcastColumns+` FROM broadcasts WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return b, nil
}

// ListBroadcasts возвращает последние рассылки.
func (s *Storage) ListBroadcasts(ctx context.Context, limit int) ([]models.Broadcast, error) {
	const op = "storage.ListBroadcasts"
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+broadcastColumns+` FROM broadcasts ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.Broadcast, 0)
	for rows.Next() {
		b, err := scanBroadcast(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ScheduleBroadcast планирует черновик или ещё не отправленную рассылку на at.
// Уже разосланную рассылку перепланировать нельзя: storage.ErrConflict.
func (s *Storage) ScheduleBroadcast(ctx context.Context, id string, at time.Time) error {
	const op = "storage.ScheduleBroadcast"
	res, err := s.DB.ExecContext(ctx, `
		UPDATE broadcasts SET status = 'scheduled', scheduled_at = $2
		WHERE id = $1 AND status IN ('draft', 'scheduled') AND dispatched_at IS NULL`, id, at)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 1 {
		return nil
	}
	if _, err := s.GetBroadcast(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w", op, storage.ErrConflict)
}

// ClaimDueBroadcasts помечает наступившие запланированные рассылки как
// взятые в работу и возвращает их. Одну рассылку забирает только один воркер.
func (s *Storage) ClaimDueBroadcasts(ctx context.Context, now time.Time) ([]models.Broadcast, error) {
	const op = "storage.ClaimDueBroadcasts"
	rows, err := s.DB.QueryContext(ctx, `
		UPDATE broadcasts SET dispatched_at = $1
		WHERE status = 'scheduled' AND scheduled_at <= $1 AND dispatched_at IS NULL
		RETURNING `+broadcastColumns, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.Broadcast
	for rows.Next() {
		b, err := scanBroadcast(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// SetBroadcastTotal фиксирует число получателей. Рассылка без получателей сразу считается отправленной.
func (s *Storage) SetBroadcastTotal(ctx context.Context, id string, total int) error {
	const op = "storage.SetBroadcastTotal"
	_, err := s.DB.ExecContext(ctx, `
		UPDATE broadcasts
		SET total_count = $2,
		    status = CASE WHEN $2::int = 0 THEN 'sent' ELSE status END
		WHERE id = $1`, id, total)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// MarkBroadcastFailed переводит рассылку в failed.
func (s *Storage) MarkBroadcastFailed(ctx context.Context, id string) error {
	const op = "storage.MarkBroadcastFailed"
	if _, err := s.DB.ExecContext(ctx, `UPDATE broadcasts SET status = 'failed' WHERE id = $1`, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// RecordDelivery учитывает результат доставки одного сообщения.
// Когда обработаны все получатели, рассылка становится sent, а если не дошло
// ни одно сообщение, то failed.
func (s *Storage) RecordDelivery(ctx context.Context, id string, delivered bool) error {
	const op = "storage.RecordDelivery"
	sent, failed := 0, 1
	if delivered {
		sent, failed = 1, 0
	}
	_, err := s.DB.ExecContext(ctx, `
		UPDATE broadcasts
		SET sent_count = sent_count + $2,
		    failed_count = failed_count + $3,
		    status = CASE
		        WHEN sent_count + failed_count + 1 >= total_count
		            THEN CASE WHEN sent_count + $2 = 0 THEN 'failed' ELSE 'sent' END
		        ELSE status
		    END
		WHERE id = $1`, id, sent, failed)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
