// Package skiniq собирает HTTP API: маршруты админки, мини-приложения,
// вебхуков и cron, а также фоновые задачи процесса.
package skiniq

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/skiniq/internal/config"
	"github.com/magabrotheeeer/skiniq/internal/http/handlers/admin/login"
	"github.com/magabrotheeeer/skiniq/internal/http/handlers/admin/logout"
	"github.com/magabrotheeeer/skiniq/internal/http/handlers/admin/me"
	"github.com/magabrotheeeer/skiniq/internal/http/handlers/broadcast/create"
	"github.com/magabrotheeeer/skiniq/internal/http/handlers/broadcast/dispatch"
	"github.com/magabrotheeeer/skiniq/internal/http/handlers/broadcast/list"
	"github.com/magabrotheeeer/skiniq/internal/http/handlers/broadcast/send"
	"github.com/magabrotheeeer/skiniq/internal/http/handlers/health"
	"github.com/magabrotheeeer/skiniq/internal/http/handlers/logs/cleanup"
	"github.com/magabrotheeeer/skiniq/internal/http/handlers/logs/client"
	"github.com/magabrotheeeer/skiniq/internal/http/handlers/payment/entitlements"
	"github.com/magabrotheeeer/skiniq/internal/http/handlers/payment/paymentcreate"
	"github.com/magabrotheeeer/skiniq/internal/http/handlers/payment/paymentstatus"
	"github.com/magabrotheeeer/skiniq/internal/http/handlers/payment/paymentwebhook"
	"github.com/magabrotheeeer/skiniq/internal/http/handlers/support/chatclose"
	"github.com/magabrotheeeer/skiniq/internal/http/handlers/support/chats"
	"github.com/magabrotheeeer/skiniq/internal/http/handlers/support/chatstatus"
	"github.com/magabrotheeeer/skiniq/internal/http/handlers/support/messages"
	"github.com/magabrotheeeer/skiniq/internal/http/handlers/support/reply"
	"github.com/magabrotheeeer/skiniq/internal/http/handlers/support/telegramwebhook"
	"github.com/magabrotheeeer/skiniq/internal/http/middlewarectx"
	"github.com/magabrotheeeer/skiniq/internal/services/adminauth"
	"github.com/magabrotheeeer/skiniq/internal/services/broadcast"
	"github.com/magabrotheeeer/skiniq/internal/services/maintenance"
	"github.com/magabrotheeeer/skiniq/internal/services/payment"
	"github.com/magabrotheeeer/skiniq/internal/services/support"
)

// Services зависимости обработчиков.
type Services struct {
	DB          health.Pinger
	Users       middlewarectx.UserRepository
	Auth        *adminauth.Service
	Payments    *payment.Service
	Support     *support.Service
	Broadcasts  *broadcast.Service
	Maintenance *maintenance.Service
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config, s Services) {
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	secureCookie := !cfg.InsecureCookie
	loginLimiter := rate.NewLimiter(rate.Limit(cfg.LoginRateLimit), cfg.LoginBurst)
	cleanupHandler := cleanup.New(logger, s.Maintenance)

	r.Get("/health", health.New(logger, s.DB).ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Route("/admin", func(r chi.Router) {
			r.With(middlewarectx.RateLimit(loginLimiter, logger)).
				Post("/login", login.New(logger, s.Auth, cfg.TokenTTL, secureCookie).ServeHTTP)
			r.Post("/logout", logout.New(logger, secureCookie).ServeHTTP)

			// Группа с токеном администратора
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.AdminAuth(s.Auth, logger))
				r.Get("/me", me.New(logger).ServeHTTP)

				r.Get("/support/chats", chats.New(logger, s.Support).ServeHTTP)
				r.Get("/support/messages", messages.New(logger, s.Support).ServeHTTP)
				r.Put("/support/status", chatstatus.New(logger, s.Support).ServeHTTP)
				r.Post("/support/close", chatclose.New(logger, s.Support).ServeHTTP)
				r.Post("/support/reply", reply.New(logger, s.Support).ServeHTTP)

				r.Get("/broadcasts", list.New(logger, s.Broadcasts).ServeHTTP)
				r.Post("/broadcasts", create.New(logger, s.Broadcasts).ServeHTTP)
				r.Post("/broadcasts/{id}/send", send.New(logger, s.Broadcasts).ServeHTTP)
			})

			r.With(middlewarectx.RequireAdmin(s.Auth, cfg.JWTSecretKey != "", logger)).
				Post("/logs/cleanup", cleanupHandler.ServeHTTP)
		})

		// Пользователь мини-приложения
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.TelegramUser(s.Users, cfg.BotToken, cfg.InitDataTTL, logger))
			r.Post("/payments", paymentcreate.New(logger, s.Payments).ServeHTTP)
			r.Get("/payments/status", paymentstatus.New(logger, s.Payments).ServeHTTP)
			r.Get("/entitlements", entitlements.New(logger, s.Payments).ServeHTTP)
			r.Post("/logs", client.New(logger, s.Maintenance).ServeHTTP)
		})

		// Вебхуки проверяют подпись сами
		r.Post("/payments/webhook", paymentwebhook.New(logger, s.Payments, cfg.PaymentWebhookSecret).ServeHTTP)
		r.Post("/telegram/webhook", telegramwebhook.New(logger, s.Support, cfg.WebhookSecret).ServeHTTP)

		r.Route("/cron", func(r chi.Router) {
			r.With(middlewarectx.CronSecret(cfg.CronSecret, logger)).
				Post("/broadcasts", dispatch.New(logger, s.Broadcasts).ServeHTTP)
			r.With(middlewarectx.CronSecret(cfg.CronSecret, logger, middlewarectx.AllowSchedulerHeader())).
				Get("/logs-cleanup", cleanupHandler.ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
