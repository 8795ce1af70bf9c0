// Package telegramwebhook принимает обновления бота. Текстовые сообщения
// пользователей попадают в чат поддержки.
package telegramwebhook

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/skiniq/internal/http/response"
	"github.com/magabrotheeeer/skiniq/internal/lib/sl"
	"github.com/magabrotheeeer/skiniq/internal/lib/telegram"
)

// SecretHeader заголовок с секретом, заданным при setWebhook.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

type Service interface {
	ReceiveMessage(ctx context.Context, update telegram.Update) error
}

type Handler struct {
	log     *slog.Logger
	service Service
	secret  string
}

func New(log *slog.Logger, service Service, secret string) *Handler {
	return &Handler{
		log:     log,
		service: service,
		secret:  secret,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.support.telegramwebhook"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if h.secret == "" {
		log.Error("server misconfiguration: telegram webhook secret is not set")
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(response.MsgServerMisconfigured))
		return
	}
	if subtle.ConstantTimeCompare([]byte(r.Header.Get(SecretHeader)), []byte(h.secret)) != 1 {
		log.Warn("telegram webhook secret mismatch")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error(response.MsgUnauthorized))
		return
	}

	var update telegram.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		log.Error("failed to decode update", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(response.MsgInvalidBody))
		return
	}

	// Telegram повторяет доставку, пока не получит 2xx.
	if err := h.service.ReceiveMessage(r.Context(), update); err != nil {
		log.Error("failed to handle update", slog.Int64("update_id", update.UpdateID), sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(response.MsgInternalError))
		return
	}
	render.JSON(w, r, response.OK())
}
