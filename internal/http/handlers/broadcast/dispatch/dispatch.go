// Package dispatch запускается внешним планировщиком: забирает наступившие
// рассылки и кладёт задания доставки в очередь.
package dispatch

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/skiniq/internal/http/response"
	"github.com/magabrotheeeer/skiniq/internal/lib/sl"
	"github.com/magabrotheeeer/skiniq/internal/services/broadcast"
)

type Service interface {
	DispatchDue(ctx context.Context) (*broadcast.DispatchSummary, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Отправить наступившие рассылки
// @Tags Cron
// @Produce  json
// @Param secret query string false "Секрет cron, если не передан в Authorization"
// @Success 200 {object} broadcast.DispatchSummary
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/cron/broadcasts [post]
// @Security CronSecret
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.broadcast.dispatch"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	summary, err := h.service.DispatchDue(r.Context())
	if err != nil {
		log.Error("broadcast dispatch failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(response.MsgInternalError))
		return
	}

	log.Info("broadcast dispatch finished",
		slog.Int("claimed", summary.Claimed),
		slog.Int("published", summary.Published),
		slog.Int("failed", summary.Failed),
	)
	render.JSON(w, r, summary)
}
