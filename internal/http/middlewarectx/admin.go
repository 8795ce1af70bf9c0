// Package middlewarectx содержит HTTP middleware доступа: проверку токена
// администратора, initData мини-приложения, секрета cron и ограничение частоты.
//
// При успешной проверке middleware кладёт идентификатор в контекст запроса,
// обработчики достают его функциями AdminFromContext и UserIDFromContext.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/skiniq/internal/http/response"
	"github.com/magabrotheeeer/skiniq/internal/services/adminauth"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// AdminID ключ id администратора в контексте
	AdminID Key = "admin_id"
	// AdminRole ключ роли администратора в контексте
	AdminRole Key = "admin_role"
	// UserID ключ uuid пользователя мини-приложения в контексте
	UserID Key = "user_id"
)

// AdminVerifier проверяет админский токен запроса.
type AdminVerifier interface {
	VerifyRequest(r *http.Request) adminauth.Session
}

// AdminAuth пропускает запрос только с валидной админской сессией.
//
// Причина отказа пишется в лог, клиент получает 401 unauthorized.
// Если секрет подписи не настроен, ответ 500.
func AdminAuth(verifier AdminVerifier, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.AdminAuth"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			session := verifier.VerifyRequest(r)
			if session.NotConfigured() {
				log.Error("server misconfiguration: admin jwt secret is not set")
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error(response.MsgServerMisconfigured))
				return
			}
			if !session.Valid {
				log.Warn("admin access denied", slog.String("reason", session.Error))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error(response.MsgUnauthorized))
				return
			}

			ctx := context.WithValue(r.Context(), AdminID, session.AdminID)
			ctx = context.WithValue(ctx, AdminRole, session.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminChecker отвечает только да или нет по админскому токену запроса.
type AdminChecker interface {
	IsAdmin(r *http.Request) bool
}

// RequireAdmin пропускает запрос с валидной админской сессией, ничего не
// кладя в контекст. Для маршрутов, которым не нужен id администратора.
// configured=false означает, что секрет подписи не задан: ответ 500.
func RequireAdmin(checker AdminChecker, configured bool, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.RequireAdmin"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			if !configured {
				log.Error("server misconfiguration: admin jwt secret is not set")
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error(response.MsgServerMisconfigured))
				return
			}
			if !checker.IsAdmin(r) {
				log.Warn("admin access denied", slog.String("path", r.URL.Path))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error(response.MsgUnauthorized))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AdminFromContext id и роль администратора, положенные AdminAuth.
func AdminFromContext(ctx context.Context) (id, role string, ok bool) {
	id, ok = ctx.Value(AdminID).(string)
	role, _ = ctx.Value(AdminRole).(string)
	return id, role, ok && id != ""
}

// UserIDFromContext uuid пользователя, положенный TelegramUser.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(UserID).(string)
	return id, ok && id != ""
}
