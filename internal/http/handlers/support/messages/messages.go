// Package messages отдаёт переписку чата поддержки.
//
// Отдаются последние 50 сообщений по возрастанию времени. Каждый просмотр
// обнуляет счётчик непрочитанных чата.
package messages

import (
	"context"
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

type Service interface {
	ListMessages(ctx context.Context, chatID string) ([]models.SupportMessage, error)
}

// Query параметры запроса.
type Query struct {
	ChatID string `validate:"required,uuid"`
}

type Response struct {
	Messages []models.SupportMessage `json:"messages"`
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
// @Summary Сообщения чата поддержки
// @Description Последние 50 сообщений по возрастанию createdAt. Сбрасывает счетчик непрочитанных.
// @Tags Support
// @Produce  json
// @Param chatId query string true "Id чата"
// @Success 200 {object} Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/admin/support/messages [get]
// @Security AdminToken
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.support.messages"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	q := Query{ChatID: r.URL.Query().Get("chatId")}
	if err := h.validate.Struct(q); err != nil {
		log.Warn("validation failed", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	msgs, err := h.service.ListMessages(r.Context(), q.ChatID)
	if err != nil {
		if errors.Is(err, support.ErrChatNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("chat not found"))
			return
		}
		log.Error("failed to read messages", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(response.MsgInternalError))
		return
	}
	if msgs == nil {
		msgs = []models.SupportMessage{}
	}
	render.JSON(w, r, Response{Messages: msgs})
}
