// Package maintenance хранит клиентские логи мини-приложения и чистит старые.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/skiniq/internal/models"
)

// LogRetention сколько хранятся клиентские логи.
const LogRetention = 7 * 24 * time.Hour

// Допустимые уровни клиентского лога.
var levels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

type Repository interface {
	InsertLog(ctx context.Context, entry models.LogEntry) error
	DeleteLogsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type Service struct {
	repo Repository
	log  *slog.Logger
	now  func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(repo Repository, log *slog.Logger, opts ...Option) *Service {
	s := &Service{repo: repo, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PurgeLogs удаляет логи старше LogRetention и возвращает число удалённых.
func (s *Service) PurgeLogs(ctx context.Context) (int64, error) {
	const op = "maintenance.PurgeLogs"
	cutoff := s.now().UTC().Add(-LogRetention)
	n, err := s.repo.DeleteLogsBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("old logs purged",
		slog.String("op", op),
		slog.Int64("deleted", n),
		slog.Time("cutoff", cutoff),
	)
	return n, nil
}

// SaveClientLog сохраняет лог клиента. Неизвестный уровень записывается как info.
func (s *Service) SaveClientLog(ctx context.Context, userID, level, message string, logContext map[string]any) error {
	const op = "maintenance.SaveClientLog"
	level = strings.ToLower(level)
	if !levels[level] {
		level = "info"
	}
	entry := models.LogEntry{
		Level:     level,
		Message:   message,
		Context:   logContext,
		CreatedAt: s.now().UTC(),
	}
	if userID != "" {
		entry.UserID = &userID
	}
	if err := s.repo.InsertLog(ctx, entry); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
