// Package payment ведёт жизненный цикл платежа (pending, completed, failed)
// и выдаёт право доступа ровно один раз на платёж.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/skiniq/internal/entitlement"
	"github.com/magabrotheeeer/skiniq/internal/metrics"
	"github.com/magabrotheeeer/skiniq/internal/models"
	"github.com/magabrotheeeer/skiniq/internal/storage"
)

// События вебхука провайдера.
const (
	EventSucceeded = "payment.succeeded"
	EventCanceled  = "payment.canceled"
)

var (
	ErrPaymentNotFound = errors.New("payment not found")
	ErrUnknownProduct  = errors.New("unknown product")
	// ErrNoPaymentID в событии нет object.metadata.payment_id.
	ErrNoPaymentID = errors.New("payment id is missing")
	// ErrInvalidPaymentID payment_id не является uuid, такого платежа быть не может.
	ErrInvalidPaymentID = errors.New("payment id is not a uuid")
)

type Repository interface {
	CreatePayment(ctx context.Context, p models.Payment) error
	GetPayment(ctx context.Context, id string) (*models.Payment, error)
	CompletePayment(ctx context.Context, ent models.Entitlement, completedAt time.Time) (string, bool, error)
	FailPayment(ctx context.Context, id string) (string, error)
	ListEntitlements(ctx context.Context, userID string) ([]models.Entitlement, error)
}

// CompleteResult итог подтверждения платежа.
// Granted=false при повторной доставке и для уже проваленного платежа.
type CompleteResult struct {
	PreviousStatus string
	Granted        bool
	Entitlement    *models.Entitlement
}

// WebhookEvent уведомление платёжного провайдера.
type WebhookEvent struct {
	Event  string `json:"event"`
	Object struct {
		ID       string            `json:"id"`
		Status   string            `json:"status"`
		Metadata map[string]string `json:"metadata"`
	} `json:"object"`
}

// PaymentID id нашего платежа из metadata.
func (e WebhookEvent) PaymentID() string {
	return e.Object.Metadata["payment_id"]
}

type Service struct {
	repo Repository
	log  *slog.Logger
	now  func() time.Time
}

type Option func(*Service)

// WithClock подменяет часы.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(repo Repository, log *slog.Logger, opts ...Option) *Service {
	s := &Service{
		repo: repo,
		log:  log,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create заводит платёж pending для продукта productCode.
func (s *Service) Create(ctx context.Context, userID, productCode string) (*models.Payment, error) {
	const op = "payment.Create"
	if !entitlement.IsKnownProduct(productCode) {
		return nil, fmt.Errorf("%s: %w: %s", op, ErrUnknownProduct, productCode)
	}
	p := models.Payment{
		ID:          uuid.NewString(),
		UserID:      userID,
		ProductCode: productCode,
		Status:      models.PaymentPending,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.CreatePayment(ctx, p); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("payment created",
		slog.String("op", op),
		slog.String("payment_id", p.ID),
		slog.String("product", productCode),
	)
	return &p, nil
}

// Complete переводит платёж в completed и выдаёт право доступа.
// Повтор для completed и вызов для failed ничего не меняют и не считаются ошибкой.
func (s *Service) Complete(ctx context.Context, paymentID string) (*CompleteResult, error) {
	const op = "payment.Complete"
	log := s.log.With(slog.String("op", op), slog.String("payment_id", paymentID))

	p, err := s.repo.GetPayment(ctx, paymentID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrPaymentNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now().UTC()
	validUntil := entitlement.ValidUntil(p.ProductCode, now)
	ent := models.Entitlement{
		UserID:               p.UserID,
		EntitlementCode:      entitlement.CodeForProduct(p.ProductCode),
		ValidUntil:           &validUntil,
		GrantedFromPaymentID: p.ID,
	}

	prev, granted, err := s.repo.CompletePayment(ctx, ent, now)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrPaymentNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	res := &CompleteResult{PreviousStatus: prev, Granted: granted}
	switch {
	case prev == models.PaymentFailed:
		log.Warn("success event for failed payment ignored")
	case granted:
		res.Entitlement = &ent
		metrics.EntitlementsGranted.WithLabelValues(ent.EntitlementCode).Inc()
		log.Info("entitlement granted",
			slog.String("code", ent.EntitlementCode),
			slog.Time("valid_until", validUntil),
		)
	default:
		log.Info("payment already completed, replay ignored")
	}
	return res, nil
}

// Fail переводит pending-платёж в failed. Возвращает статус до вызова.
func (s *Service) Fail(ctx context.Context, paymentID string) (string, error) {
	const op = "payment.Fail"
	prev, err := s.repo.FailPayment(ctx, paymentID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", fmt.Errorf("%s: %w", op, ErrPaymentNotFound)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if prev != models.PaymentPending {
		s.log.Info("cancel event for terminal payment ignored",
			slog.String("op", op),
			slog.String("payment_id", paymentID),
			slog.String("status", prev),
		)
	}
	return prev, nil
}

// HandleWebhook применяет событие провайдера. Неизвестные события
// подтверждаются без изменений. Возвращает значение метки result.
func (s *Service) HandleWebhook(ctx context.Context, event WebhookEvent) (string, error) {
	const op = "payment.HandleWebhook"
	name := strings.ToLower(event.Event)
	result, err := s.handleWebhook(ctx, name, event)

	label := name
	if label != EventSucceeded && label != EventCanceled {
		label = "other"
	}
	metrics.PaymentWebhooks.WithLabelValues(label, result).Inc()
	if err != nil {
		return result, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

func (s *Service) handleWebhook(ctx context.Context, name string, event WebhookEvent) (string, error) {
	if name != EventSucceeded && name != EventCanceled {
		s.log.Info("ignored webhook event", slog.String("event", event.Event))
		return metrics.ResultIgnored, nil
	}
	paymentID := event.PaymentID()
	if paymentID == "" {
		return metrics.ResultRejected, ErrNoPaymentID
	}
	if _, err := uuid.Parse(paymentID); err != nil {
		s.log.Warn("webhook payment id is not a uuid", slog.String("payment_id", paymentID))
		return metrics.ResultRejected, ErrInvalidPaymentID
	}

	if name == EventCanceled {
		prev, err := s.Fail(ctx, paymentID)
		if err != nil {
			return metrics.ResultError, err
		}
		if prev != models.PaymentPending {
			return metrics.ResultReplay, nil
		}
		return metrics.ResultOK, nil
	}

	res, err := s.Complete(ctx, paymentID)
	if err != nil {
		return metrics.ResultError, err
	}
	if !res.Granted {
		return metrics.ResultReplay, nil
	}
	return metrics.ResultOK, nil
}

// HasAccess true, если у пользователя есть действующее право code:
// valid_until пуст или позже текущего момента.
func (s *Service) HasAccess(ctx context.Context, userID, code string) (bool, error) {
	const op = "payment.HasAccess"
	ents, err := s.repo.ListEntitlements(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	now := s.now()
	for _, e := range ents {
		if e.EntitlementCode == code && e.ActiveAt(now) {
			return true, nil
		}
	}
	return false, nil
}

// ListActive действующие права пользователя.
func (s *Service) ListActive(ctx context.Context, userID string) ([]models.Entitlement, error) {
	const op = "payment.ListActive"
	ents, err := s.repo.ListEntitlements(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	now := s.now()
	active := make([]models.Entitlement, 0, len(ents))
	for _, e := range ents {
		if e.ActiveAt(now) {
			active = append(active, e)
		}
	}
	return active, nil
}

