// Package metrics объявляет счётчики Prometheus сервиса.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PaymentWebhooks считает вебхуки платёжного провайдера по событию и результату.
	PaymentWebhooks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skiniq_payment_webhooks_total",
		Help: "Payment provider webhooks by event and result.",
	}, []string{"event", "result"})

	// EntitlementsGranted считает выданные права доступа.
	EntitlementsGranted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skiniq_entitlements_granted_total",
		Help: "Entitlements granted by code.",
	}, []string{"code"})

	AdminCacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skiniq_admin_cache_requests_total",
		Help: "Admin cache lookups by result.",
	}, []string{"result"})

	BroadcastDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skiniq_broadcast_deliveries_total",
		Help: "Broadcast message deliveries by result.",
	}, []string{"result"})
)

// Значения метки result.
const (
	ResultOK       = "ok"
	ResultError    = "error"
	ResultIgnored  = "ignored"
	ResultReplay   = "replay"
	ResultHit      = "hit"
	ResultMiss     = "miss"
	ResultSent     = "sent"
	ResultFailed   = "failed"
	ResultRejected = "rejected"
)
