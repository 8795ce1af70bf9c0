// Package models содержит доменные структуры сервиса: платежи, права доступа,
// чаты поддержки, рассылки, пользователей мини-приложения и администраторов.
package models

import "time"

// Статусы платежа. completed и failed терминальные.
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
)

// Payment попытка покупки. Создаётся при старте оплаты, статус меняет только вебхук.
type Payment struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	ProductCode string     `json:"productCode"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// IsTerminal сообщает, что статус больше не меняется.
func (p Payment) IsTerminal() bool {
	return p.Status == PaymentCompleted || p.Status == PaymentFailed
}

// Entitlement выданное право доступа. ValidUntil == nil означает бессрочный доступ.
type Entitlement struct {
	ID                   int64      `json:"id"`
	UserID               string     `json:"userId"`
	EntitlementCode      string     `json:"entitlementCode"`
	ValidUntil           *time.Time `json:"validUntil"`
	GrantedFromPaymentID string     `json:"grantedFromPaymentId"`
	CreatedAt            time.Time  `json:"createdAt"`
}

// ActiveAt сообщает, действует ли право в момент now.
func (e Entitlement) ActiveAt(now time.Time) bool {
	return e.ValidUntil == nil || e.ValidUntil.After(now)
}
