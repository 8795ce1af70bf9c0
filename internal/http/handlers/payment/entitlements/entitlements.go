// Package entitlements отвечает, какие права доступа действуют у пользователя.
package entitlements

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/skiniq/internal/http/middlewarectx"
	"github.com/magabrotheeeer/skiniq/internal/http/response"
	"github.com/magabrotheeeer/skiniq/internal/lib/sl"
	"github.com/magabrotheeeer/skiniq/internal/models"
)

type Service interface {
	HasAccess(ctx context.Context, userID, code string) (bool, error)
	ListActive(ctx context.Context, userID string) ([]models.Entitlement, error)
}

// AccessResponse ответ на запрос с ?code=.
type AccessResponse struct {
	Code      string `json:"code"`
	HasAccess bool   `json:"hasAccess"`
}

// ListResponse ответ без ?code=: все действующие права.
type ListResponse struct {
	Entitlements []models.Entitlement `json:"entitlements"`
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Права доступа пользователя
// @Description С параметром code проверяет одно право, без него возвращает все действующие.
// @Tags Payments
// @Produce  json
// @Param code query string false "Код права, например paid_access"
// @Success 200 {object} AccessResponse
// @Success 200 {object} ListResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/entitlements [get]
// @Security TelegramInitData
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.entitlements"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, ok := middlewarectx.UserIDFromContext(r.Context())
	if !ok {
		log.Error("user id not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error(response.MsgUnauthorized))
		return
	}

	if code := r.URL.Query().Get("code"); code != "" {
		has, err := h.service.HasAccess(r.Context(), userID, code)
		if err != nil {
			log.Error("failed to check access", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error(response.MsgInternalError))
			return
		}
		render.JSON(w, r, AccessResponse{Code: code, HasAccess: has})
		return
	}

	list, err := h.service.ListActive(r.Context(), userID)
	if err != nil {
		log.Error("failed to list entitlements", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(response.MsgInternalError))
		return
	}
	if list == nil {
		list = []models.Entitlement{}
	}
	render.JSON(w, r, ListResponse{Entitlements: list})
}
