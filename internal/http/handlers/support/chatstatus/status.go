// Package chatstatus меняет статус чата поддержки.
// Статус вне набора active, in_progress, closed отклоняется с 400, чат не меняется.
package chatstatus

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/skiniq/internal/http/response"
	"github.com/magabrotheeeer/skiniq/internal/lib/sl"
	"github.com/magabrotheeeer/skiniq/internal/services/support"
)

type Request struct {
	ChatID string `json:"chatId" validate:"required,uuid"`
	Status string `json:"status" validate:"required,oneof=active in_progress closed"`
}

type Service interface {
	SetStatus(ctx context.Context, chatID, status string) error
}

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Изменить статус чата
// @Tags Support
// @Accept  json
// @Produce  json
// @Param request body Request true "Чат и новый статус"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/admin/support/status [put]
// @Security AdminToken
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.support.status"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(response.MsgInvalidBody))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Warn("validation failed", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	err := h.service.SetStatus(r.Context(), req.ChatID, req.Status)
	switch {
	case errors.Is(err, support.ErrInvalidStatus):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("field status must be one of: active in_progress closed"))
		return
	case errors.Is(err, support.ErrChatNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("chat not found"))
		return
	case err != nil:
		log.Error("failed to set chat status", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(response.MsgInternalError))
		return
	}

	log.Info("chat status changed", slog.String("chat_id", req.ChatID), slog.String("status", req.Status))
	render.JSON(w, r, response.OK())
}
