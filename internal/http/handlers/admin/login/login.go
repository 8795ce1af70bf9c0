// Package login реализует вход администратора по email и паролю.
//
// При успехе обработчик ставит cookie admin_token и возвращает токен в теле,
// чтобы клиенты без cookie могли передавать его в Authorization: Bearer.
// Неизвестный email и неверный пароль дают одинаковый ответ 401.
package login

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/skiniq/internal/http/response"
	"github.com/magabrotheeeer/skiniq/internal/lib/sl"
	"github.com/magabrotheeeer/skiniq/internal/services/adminauth"
)

// Request учетные данные администратора.
type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Response ответ на успешный вход.
type Response struct {
	Token   string `json:"token"`
	AdminID string `json:"adminId"`
	Role    string `json:"role,omitempty"`
}

// Service описывает интерфейс бизнес-логики входа.
type Service interface {
	Login(ctx context.Context, email, password string) (*adminauth.LoginResult, error)
}

// Handler обрабатывает POST /api/admin/login.
type Handler struct {
	log          *slog.Logger
	service      Service
	validate     *validator.Validate
	tokenTTL     time.Duration // Max-Age cookie, равен сроку жизни токена
	secureCookie bool
}

func New(log *slog.Logger, service Service, tokenTTL time.Duration, secureCookie bool) *Handler {
	return &Handler{
		log:          log,
		service:      service,
		validate:     validator.New(),
		tokenTTL:     tokenTTL,
		secureCookie: secureCookie,
	}
}

// ServeHTTP godoc
// @Summary Вход администратора
// @Description Проверяет email и пароль, ставит cookie admin_token и возвращает токен.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param request body Request true "Учетные данные"
// @Success 200 {object} Response
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 401 {object} response.ErrorResponse "Неверные учетные данные"
// @Failure 429 {object} response.ErrorResponse "Слишком много попыток"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/admin/login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.login"

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

	res, err := h.service.Login(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, adminauth.ErrInvalidCredentials):
		log.Warn("login rejected")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid credentials"))
		return
	case errors.Is(err, adminauth.ErrNotConfigured):
		log.Error("server misconfiguration: admin jwt secret is not set")
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(response.MsgServerMisconfigured))
		return
	case err != nil:
		log.Error("login failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(response.MsgInternalError))
		return
	}

	http.SetCookie(w, adminauth.SessionCookie(res.Token, h.tokenTTL, h.secureCookie))
	log.Info("admin logged in", slog.String("admin_id", res.AdminID))
	render.JSON(w, r, Response{
		Token:   res.Token,
		AdminID: res.AdminID,
		Role:    res.Role,
	})
}
