// Package broadcast создаёт и планирует рассылки, раскладывает наступившие
// рассылки на задания доставки в RabbitMQ и учитывает результаты доставки.
package broadcast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/skiniq/internal/cache"
	"github.com/magabrotheeeer/skiniq/internal/lib/sl"
	"github.com/magabrotheeeer/skiniq/internal/models"
	"github.com/magabrotheeeer/skiniq/internal/storage"
)

// ListLimit сколько последних рассылок показывает админка.
const ListLimit = 50

const listCacheKey = "broadcasts:list"

var (
	ErrBroadcastNotFound = errors.New("broadcast not found")
	ErrAlreadyDispatched = errors.New("broadcast already dispatched")
)

type Repository interface {
	CreateBroadcast(ctx context.Context, b models.Broadcast) error
	ListBroadcasts(ctx context.Context, limit int) ([]models.Broadcast, error)
	ScheduleBroadcast(ctx context.Context, id string, at time.Time) error
	ClaimDueBroadcasts(ctx context.Context, now time.Time) ([]models.Broadcast, error)
	SetBroadcastTotal(ctx context.Context, id string, total int) error
	MarkBroadcastFailed(ctx context.Context, id string) error
	ListRecipientChatIDs(ctx context.Context) ([]int64, error)
}

// Publisher кладёт задание доставки в очередь.
type Publisher interface {
	Publish(ctx context.Context, message any) error
}

type Service struct {
	repo      Repository
	publisher Publisher
	cache     cache.Cache
	cacheTTL  time.Duration
	log       *slog.Logger
	now       func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(repo Repository, publisher Publisher, c cache.Cache, cacheTTL time.Duration, log *slog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		publisher: publisher,
		cache:     c,
		cacheTTL:  cacheTTL,
		log:       log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create сохраняет черновик, а при заданном scheduledAt запланированную рассылку.
func (s *Service) Create(ctx context.Context, title, message string, scheduledAt *time.Time) (*models.Broadcast, error) {
	const op = "broadcast.Create"
	b := models.Broadcast{
		ID:        uuid.NewString(),
		Title:     title,
		Message:   message,
		Status:    models.BroadcastDraft,
		CreatedAt: s.now().UTC(),
	}
	if scheduledAt != nil {
		at := scheduledAt.UTC()
		b.ScheduledAt = &at
		b.Status = models.BroadcastScheduled
	}
	if err := s.repo.CreateBroadcast(ctx, b); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx)
	return &b, nil
}

// SendNow планирует рассылку на текущий момент; её заберёт ближайший DispatchDue.
func (s *Service) SendNow(ctx context.Context, id string) error {
	const op = "broadcast.SendNow"
	err := s.repo.ScheduleBroadcast(ctx, id, s.now().UTC())
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("%s: %w", op, ErrBroadcastNotFound)
	case errors.Is(err, storage.ErrConflict):
		return fmt.Errorf("%s: %w", op, ErrAlreadyDispatched)
	case err != nil:
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx)
	return nil
}

// List последние рассылки. Ответ кешируется.
func (s *Service) List(ctx context.Context) ([]models.Broadcast, error) {
	const op = "broadcast.List"
	var list []models.Broadcast
	found, err := s.cache.Get(ctx, listCacheKey, &list)
	if err != nil {
		s.log.Warn("admin cache read failed", slog.String("op", op), sl.Err(err))
	}
	if found {
		return list, nil
	}

	list, err = s.repo.ListBroadcasts(ctx, ListLimit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Set(ctx, listCacheKey, list, s.cacheTTL); err != nil {
		s.log.Warn("admin cache write failed", slog.String("op", op), sl.Err(err))
	}
	return list, nil
}

// DispatchSummary итог одного запуска DispatchDue.
type DispatchSummary struct {
	Claimed   int `json:"claimed"`
	Published int `json:"published"`
	Failed    int `json:"failed"`
}

// DispatchDue забирает наступившие рассылки и публикует по заданию на получателя.
// Рассылка без получателей сразу становится sent, при ошибке публикации failed.
func (s *Service) DispatchDue(ctx context.Context) (*DispatchSummary, error) {
	const op = "broadcast.DispatchDue"
	log := s.log.With(slog.String("op", op))

	due, err := s.repo.ClaimDueBroadcasts(ctx, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	summary := &DispatchSummary{Claimed: len(due)}
	if len(due) == 0 {
		return summary, nil
	}
	defer s.invalidate(ctx)

	recipients, err := s.repo.ListRecipientChatIDs(ctx)
	if err != nil {
		for _, b := range due {
			s.markFailed(ctx, log, b.ID)
		}
		summary.Failed = len(due)
		return summary, fmt.Errorf("%s: %w", op, err)
	}

	for _, b := range due {
		if err := s.repo.SetBroadcastTotal(ctx, b.ID, len(recipients)); err != nil {
			log.Error("failed to set broadcast total", slog.String("broadcast_id", b.ID), sl.Err(err))
			s.markFailed(ctx, log, b.ID)
			summary.Failed++
			continue
		}
		text := Text(b)
		for _, chatID := range recipients {
			job := models.DeliveryJob{BroadcastID: b.ID, TelegramChatID: chatID, Text: text}
			if err := s.publisher.Publish(ctx, job); err != nil {
				log.Error("failed to publish delivery job", slog.String("broadcast_id", b.ID), sl.Err(err))
				s.markFailed(ctx, log, b.ID)
				summary.Failed++
				break
			}
			summary.Published++
		}
		log.Info("broadcast dispatched",
			slog.String("broadcast_id", b.ID),
			slog.Int("recipients", len(recipients)),
		)
	}
	return summary, nil
}

func (s *Service) markFailed(ctx context.Context, log *slog.Logger, id string) {
	if err := s.repo.MarkBroadcastFailed(ctx, id); err != nil {
		log.Error("failed to mark broadcast failed", slog.String("broadcast_id", id), sl.Err(err))
	}
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Delete(ctx, listCacheKey); err != nil {
		s.log.Warn("admin cache invalidation failed", slog.String("key", listCacheKey), sl.Err(err))
	}
}

// Text текст сообщения рассылки: заголовок и тело через пустую строку.
func Text(b models.Broadcast) string {
	if b.Title == "" {
		return b.Message
	}
	return b.Title + "\n\n" + b.Message
}
