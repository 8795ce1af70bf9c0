// Package chats отдаёт список чатов поддержки для админки.
package chats

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/skiniq/internal/http/response"
	"github.com/magabrotheeeer/skiniq/internal/lib/sl"
	"github.com/magabrotheeeer/skiniq/internal/models"
	"github.com/magabrotheeeer/skiniq/internal/services/support"
)

type Service interface {
	ListChats(ctx context.Context, status string) ([]models.SupportChat, error)
}

type Response struct {
	Chats []models.SupportChat `json:"chats"`
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список чатов поддержки
// @Tags Support
// @Produce  json
// @Param status query string false "active, in_progress или closed"
// @Success 200 {object} Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/admin/support/chats [get]
// @Security AdminToken
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.support.chats"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	list, err := h.service.ListChats(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		if errors.Is(err, support.ErrInvalidStatus) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("field status must be one of: active in_progress closed"))
			return
		}
		log.Error("failed to list chats", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(response.MsgInternalError))
		return
	}
	if list == nil {
		list = []models.SupportChat{}
	}
	render.JSON(w, r, Response{Chats: list})
}
