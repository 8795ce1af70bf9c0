// Package paymentstatus оставлен для старых клиентов мини-приложения.
// Ответ строится по таблице entitlements, флаги оплаты в профиле не читаются.
// Новые клиенты используют GET /api/entitlements?code=.
package paymentstatus

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/skiniq/internal/entitlement"
	"github.com/magabrotheeeer/skiniq/internal/http/middlewarectx"
	"github.com/magabrotheeeer/skiniq/internal/http/response"
	"github.com/magabrotheeeer/skiniq/internal/lib/sl"
)

type Service interface {
	HasAccess(ctx context.Context, userID, code string) (bool, error)
}

// Response совместим со старым форматом ответа.
type Response struct {
	Paid bool   `json:"paid"`
	Code string `json:"code"`
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Статус оплаты (устарело)
// @Description Отвечает по праву paid_access. Используйте /api/entitlements.
// @Tags Payments
// @Produce  json
// @Success 200 {object} Response
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/payments/status [get]
// @Security TelegramInitData
// @Deprecated
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.status"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	w.Header().Set("Deprecation", "true")
	w.Header().Set("Link", `</api/entitlements?code=`+entitlement.CodePaidAccess+`>; rel="successor-version"`)

	userID, ok := middlewarectx.UserIDFromContext(r.Context())
	if !ok {
		log.Error("user id not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error(response.MsgUnauthorized))
		return
	}

	paid, err := h.service.HasAccess(r.Context(), userID, entitlement.CodePaidAccess)
	if err != nil {
		log.Error("failed to check access", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(response.MsgInternalError))
		return
	}

	log.Debug("deprecated status endpoint used", slog.String("user_id", userID))
	render.JSON(w, r, Response{Paid: paid, Code: entitlement.CodePaidAccess})
}
