// Package list отдаёт последние рассылки со счётчиками доставки.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/skiniq/internal/http/response"
	"github.com/magabrotheeeer/skiniq/internal/lib/sl"
	"github.com/magabrotheeeer/skiniq/internal/models"
)

type Service interface {
	List(ctx context.Context) ([]models.Broadcast, error)
}

type Response struct {
	Broadcasts []models.Broadcast `json:"broadcasts"`
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список рассылок
// @Tags Broadcasts
// @Produce  json
// @Success 200 {object} Response
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/admin/broadcasts [get]
// @Security AdminToken
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.broadcast.list"

	res, err := h.service.List(r.Context())
	if err != nil {
		h.log.Error("failed to list broadcasts",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.Err(err),
		)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(response.MsgInternalError))
		return
	}
	if res == nil {
		res = []models.Broadcast{}
	}
	render.JSON(w, r, Response{Broadcasts: res})
}
