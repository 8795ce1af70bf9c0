// Package cache содержит кеш ответов админки: in-memory с инжектируемыми
// часами и вариант на Redis для нескольких инстансов.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/magabrotheeeer/skiniq/internal/metrics"
)

// Backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// ErrUnknownBackend возвращается при неизвестном значении admin_cache.backend.
var ErrUnknownBackend = errors.New("unknown cache backend")

// Cache общий интерфейс бэкендов. Значения хранятся в JSON,
// Get декодирует их в result и сообщает, найден ли ключ.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// Instrumented считает попадания и промахи в skiniq_admin_cache_requests_total.
type Instrumented struct {
	Cache
}

// NewInstrumented оборачивает c метриками.
func NewInstrumented(c Cache) *Instrumented {
	return &Instrumented{Cache: c}
}

// Get делегирует вызов и учитывает результат.
func (i *Instrumented) Get(ctx context.Context, key string, result any) (bool, error) {
	found, err := i.Cache.Get(ctx, key, result)
	switch {
	case err != nil:
		metrics.AdminCacheRequests.WithLabelValues(metrics.ResultError).Inc()
	case found:
		metrics.AdminCacheRequests.WithLabelValues(metrics.ResultHit).Inc()
	default:
		metrics.AdminCacheRequests.WithLabelValues(metrics.ResultMiss).Inc()
	}
	return found, err
}
