// Package send планирует рассылку на текущий момент.
// Отправку выполняет ближайший запуск /api/cron/broadcasts.
package send

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/skiniq/internal/http/response"
	"github.com/magabrotheeeer/skiniq/internal/lib/sl"
	"github.com/magabrotheeeer/skiniq/internal/services/broadcast"
)

type Service interface {
	SendNow(ctx context.Context, id string) error
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Отправить рассылку сейчас
// @Tags Broadcasts
// @Produce  json
// @Param id path string true "Id рассылки"
// @Success 202 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse "Рассылка уже отправлена"
// @Failure 500 {object} response.ErrorResponse
// @Router /api/admin/broadcasts/{id}/send [post]
// @Security AdminToken
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.broadcast.send"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		log.Warn("invalid broadcast id", slog.String("id", id))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("field id can contain only uuid"))
		return
	}

	err := h.service.SendNow(r.Context(), id)
	switch {
	case errors.Is(err, broadcast.ErrBroadcastNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("broadcast not found"))
		return
	case errors.Is(err, broadcast.ErrAlreadyDispatched):
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.Error("broadcast already dispatched"))
		return
	case err != nil:
		log.Error("failed to schedule broadcast", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(response.MsgInternalError))
		return
	}

	log.Info("broadcast queued for dispatch", slog.String("broadcast_id", id))
	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, response.OK())
}
