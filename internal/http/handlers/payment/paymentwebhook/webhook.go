// Package paymentwebhook принимает уведомления платежного провайдера.
//
// Тело подписывается HMAC-SHA256 общим секретом, подпись в base64 приходит
// в заголовке X-Api-Signature. Повторная доставка уже примененного события
// отвечает 200, чтобы провайдер перестал ее повторять.
package paymentwebhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/skiniq/internal/http/response"
	"github.com/magabrotheeeer/skiniq/internal/lib/sl"
	"github.com/magabrotheeeer/skiniq/internal/services/payment"
)

// SignatureHeader заголовок с подписью тела.
const SignatureHeader = "X-Api-Signature"

// maxBodySize ограничивает тело вебхука.
const maxBodySize = 1 << 20

type Service interface {
	HandleWebhook(ctx context.Context, event payment.WebhookEvent) (string, error)
}

// Response ответ на принятое событие. Result: ok, replay или ignored.
type Response struct {
	Status string `json:"status" example:"OK"`
	Result string `json:"result" example:"ok"`
}

type Handler struct {
	log           *slog.Logger
	service       Service
	webhookSecret string
}

func New(log *slog.Logger, service Service, secret string) *Handler {
	return &Handler{
		log:           log,
		service:       service,
		webhookSecret: secret,
	}
}

// Sign возвращает base64 подпись тела для секрета.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func verifySignature(secret string, body []byte, signature string) bool {
	return hmac.Equal([]byte(Sign(secret, body)), []byte(signature))
}

// ServeHTTP godoc
// @Summary Вебхук платежного провайдера
// @Description payment.succeeded подтверждает платеж и выдает доступ, payment.canceled помечает платеж неуспешным. Остальные события подтверждаются без изменений.
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param X-Api-Signature header string true "base64(HMAC-SHA256(body))"
// @Param request body payment.WebhookEvent true "Событие"
// @Success 200 {object} Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/payments/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.webhook"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if h.webhookSecret == "" {
		log.Error("server misconfiguration: payment webhook secret is not set")
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(response.MsgServerMisconfigured))
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(response.MsgInvalidBody))
		return
	}

	signature := r.Header.Get(SignatureHeader)
	if signature == "" || !verifySignature(h.webhookSecret, body, signature) {
		log.Warn("invalid or missing webhook signature")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error(response.MsgUnauthorized))
		return
	}

	var event payment.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Error("failed to unmarshal webhook payload", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(response.MsgInvalidBody))
		return
	}
	log = log.With(slog.String("event", event.Event), slog.String("payment_id", event.PaymentID()))

	result, err := h.service.HandleWebhook(r.Context(), event)
	switch {
	case errors.Is(err, payment.ErrNoPaymentID):
		log.Warn("webhook without payment id")
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("field object.metadata.payment_id is a required field"))
		return
	case errors.Is(err, payment.ErrInvalidPaymentID):
		log.Warn("webhook with malformed payment id")
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("field object.metadata.payment_id can contain only uuid"))
		return
	case errors.Is(err, payment.ErrPaymentNotFound):
		log.Warn("webhook for unknown payment")
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("payment not found"))
		return
	case err != nil:
		log.Error("failed to process webhook event", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(response.MsgInternalError))
		return
	}

	log.Info("webhook processed", slog.String("result", result))
	render.JSON(w, r, Response{Status: response.StatusOK, Result: result})
}
