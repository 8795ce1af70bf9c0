// Package client принимает логи мини-приложения.
package client

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/skiniq/internal/http/middlewarectx"
	"github.com/magabrotheeeer/skiniq/internal/http/response"
	"github.com/magabrotheeeer/skiniq/internal/lib/sl"
)

// Request запись лога. Неизвестный level сохраняется как info.
type Request struct {
	Level   string         `json:"level"`
	Message string         `json:"message" validate:"required,max=4000"`
	Context map[string]any `json:"context,omitempty"`
}

type Service interface {
	SaveClientLog(ctx context.Context, userID, level, message string, logContext map[string]any) error
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
// @Summary Записать лог клиента
// @Tags Logs
// @Accept  json
// @Produce  json
// @Param request body Request true "Запись"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/logs [post]
// @Security TelegramInitData
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.logs.client"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, _ := middlewarectx.UserIDFromContext(r.Context())

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(response.MsgInvalidBody))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	if err := h.service.SaveClientLog(r.Context(), userID, req.Level, req.Message, req.Context); err != nil {
		log.Error("failed to save client log", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(response.MsgInternalError))
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OK())
}
