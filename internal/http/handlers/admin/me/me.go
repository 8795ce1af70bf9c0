// Package me отдаёт текущую сессию администратора.
package me

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/skiniq/internal/http/middlewarectx"
	"github.com/magabrotheeeer/skiniq/internal/http/response"
	"github.com/magabrotheeeer/skiniq/internal/services/adminauth"
)

type Handler struct {
	log *slog.Logger
}

func New(log *slog.Logger) *Handler {
	return &Handler{log: log}
}

// ServeHTTP godoc
// @Summary Текущая сессия администратора
// @Tags Admin
// @Produce  json
// @Security AdminToken
// @Success 200 {object} adminauth.Session
// @Failure 401 {object} response.ErrorResponse
// @Router /api/admin/me [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.me"

	adminID, role, ok := middlewarectx.AdminFromContext(r.Context())
	if !ok {
		h.log.Error("admin id missing in context",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error(response.MsgUnauthorized))
		return
	}
	render.JSON(w, r, adminauth.Session{Valid: true, AdminID: adminID, Role: role})
}
