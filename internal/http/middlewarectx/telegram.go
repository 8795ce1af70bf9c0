package middlewarectx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/skiniq/internal/http/response"
	"github.com/magabrotheeeer/skiniq/internal/lib/sl"
	"github.com/magabrotheeeer/skiniq/internal/lib/telegram"
	"github.com/magabrotheeeer/skiniq/internal/models"
)

const initDataScheme = "tma "

// UserRepository находит или заводит пользователя по Telegram id.
type UserRepository interface {
	UpsertTelegramUser(ctx context.Context, telegramID int64, username, firstName string) (*models.User, error)
}

// TelegramUser проверяет заголовок Authorization: tma <initData> и кладёт
// в контекст uuid пользователя.
func TelegramUser(users UserRepository, botToken string, ttl time.Duration, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.TelegramUser"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			initData, ok := strings.CutPrefix(r.Header.Get("Authorization"), initDataScheme)
			if !ok {
				log.Warn("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error(response.MsgUnauthorized))
				return
			}

			tgUser, err := telegram.ValidateInitData(initData, botToken, ttl, time.Now())
			if err != nil {
				if errors.Is(err, telegram.ErrNoToken) {
					log.Error("server misconfiguration: telegram bot token is not set")
					render.Status(r, http.StatusInternalServerError)
					render.JSON(w, r, response.Error(response.MsgServerMisconfigured))
					return
				}
				log.Warn("init data rejected", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error(response.MsgUnauthorized))
				return
			}

			user, err := users.UpsertTelegramUser(r.Context(), tgUser.ID, tgUser.Username, tgUser.FirstName)
			if err != nil {
				log.Error("failed to upsert telegram user", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error(response.MsgInternalError))
				return
			}

			ctx := context.WithValue(r.Context(), UserID, user.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
