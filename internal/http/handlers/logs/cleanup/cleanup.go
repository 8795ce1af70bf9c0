// Package cleanup удаляет клиентские логи старше семи дней.
// Один обработчик обслуживает ручной запуск из админки и вызов планировщика.
package cleanup

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/skiniq/internal/http/response"
	"github.com/magabrotheeeer/skiniq/internal/lib/sl"
)

type Service interface {
	PurgeLogs(ctx context.Context) (int64, error)
}

type Response struct {
	Deleted int64 `json:"deleted"`
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Очистить старые логи
// @Tags Logs
// @Produce  json
// @Success 200 {object} Response
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/admin/logs/cleanup [post]
// @Router /api/cron/logs-cleanup [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.logs.cleanup"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	n, err := h.service.PurgeLogs(r.Context())
	if err != nil {
		log.Error("failed to purge logs", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(response.MsgInternalError))
		return
	}
	render.JSON(w, r, Response{Deleted: n})
}
