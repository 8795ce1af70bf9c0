package middlewarectx

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/skiniq/internal/http/response"
)

// VercelCronHeader заголовок, которым планировщик хостинга помечает свои вызовы.
const VercelCronHeader = "x-vercel-cron"

// CronOption настраивает CronSecret.
type CronOption func(*cronGate)

type cronGate struct {
	allowScheduler bool
}

// AllowSchedulerHeader пускает запросы с заголовком x-vercel-cron: 1 без секрета.
func AllowSchedulerHeader() CronOption {
	return func(g *cronGate) { g.allowScheduler = true }
}

// CronSecret пропускает запрос, если секрет передан как Authorization: Bearer
// или параметр ?secret= и совпадает с настроенным. Пустой настроенный секрет даёт 500.
func CronSecret(secret string, log *slog.Logger, opts ...CronOption) func(http.Handler) http.Handler {
	var gate cronGate
	for _, opt := range opts {
		opt(&gate)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.CronSecret"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			if gate.allowScheduler && r.Header.Get(VercelCronHeader) == "1" {
				next.ServeHTTP(w, r)
				return
			}
			if secret == "" {
				log.Error("server misconfiguration: cron secret is not set")
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error(response.MsgServerMisconfigured))
				return
			}

			got := r.URL.Query().Get("secret")
			if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
				got = strings.TrimSpace(token)
			}
			if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				log.Warn("cron secret mismatch", slog.String("path", r.URL.Path))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error(response.MsgUnauthorized))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
