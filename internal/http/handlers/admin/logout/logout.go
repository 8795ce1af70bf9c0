// Package logout удаляет cookie администратора. Токен не отзывается:
// список отозванных токенов не ведётся, клиент просто забывает его.
package logout

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/skiniq/internal/http/response"
	"github.com/magabrotheeeer/skiniq/internal/services/adminauth"
)

type Handler struct {
	log          *slog.Logger
	secureCookie bool
}

func New(log *slog.Logger, secureCookie bool) *Handler {
	return &Handler{
		log:          log,
		secureCookie: secureCookie,
	}
}

// ServeHTTP godoc
// @Summary Выход администратора
// @Tags Admin
// @Produce  json
// @Success 200 {object} response.Response
// @Router /api/admin/logout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.logout"

	http.SetCookie(w, adminauth.ClearCookie(h.secureCookie))
	h.log.Info("admin logged out",
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
	render.JSON(w, r, response.OK())
}
