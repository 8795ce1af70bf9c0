package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/magabrotheeeer/skiniq/internal/models"
)

// InsertLog сохраняет клиентский лог.
func (s *Storage) InsertLog(ctx context.Context, entry models.LogEntry) error {
	const op = "storage.InsertLog"
	var ctxJSON any
	if len(entry.Context) > 0 {
		raw, err := json.Marshal(entry.Context)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		ctxJSON = string(raw)
	}
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO app_logs (user_id, level, message, context, created_at) VALUES ($1, $2, $3, $4, $5)`,
		entry.UserID, entry.Level, entry.Message, ctxJSON, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DeleteLogsBefore удаляет логи старше cutoff и возвращает число удалённых строк.
func (s *Storage) DeleteLogsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const op = "storage.DeleteLogsBefore"
	res, err := s.DB.ExecContext(ctx, `DELETE FROM app_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}
