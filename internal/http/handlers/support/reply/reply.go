// Package reply отправляет ответ администратора в чат поддержки.
package reply

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
	"github.com/magabrotheeeer/skiniq/internal/models"
	"github.com/magabrotheeeer/skiniq/internal/services/support"
)

// Request текст ответа. 4096 символов предел сообщения Telegram.
type Request struct {
	ChatID string `json:"chatId" validate:"required,uuid"`
	Text   string `json:"text" validate:"required,max=4096"`
}

type Response struct {
	Message *models.SupportMessage `json:"message"`
}

type Service interface {
	Reply(ctx context.Context, chatID, text string) (*models.SupportMessage, error)
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
// @Summary Ответить в чат
// @Description Сохраняет сообщение администратора и отправляет его пользователю в Telegram. Если Telegram не принял сообщение, ответ 502, сообщение остается в истории.
// @Tags Support
// @Accept  json
// @Produce  json
// @Param request body Request true "Ответ"
// @Success 201 {object} Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 502 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/admin/support/reply [post]
// @Security AdminToken
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.support.reply"

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

	msg, err := h.service.Reply(r.Context(), req.ChatID, req.Text)
	switch {
	case errors.Is(err, support.ErrChatNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("chat not found"))
		return
	case errors.Is(err, support.ErrDeliveryFailed):
		log.Error("reply saved but not delivered", slog.String("chat_id", req.ChatID), sl.Err(err))
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, response.Error("message saved but not delivered"))
		return
	case err != nil:
		log.Error("failed to reply", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(response.MsgInternalError))
		return
	}

	log.Info("reply sent", slog.String("chat_id", req.ChatID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, Response{Message: msg})
}
