// Package entitlement сопоставляет купленный продукт с правом доступа
// и сроком его действия. Это единственное место, где живут эти правила:
// и создание платежа, и подтверждение вебхуком берут их отсюда.
package entitlement

import "time"

// Коды продуктов, которые продаёт мини-приложение.
const (
	ProductPlanAccess        = "plan_access"
	ProductRetakeTopic       = "retake_topic"
	ProductRetakeFull        = "retake_full"
	ProductSubscriptionMonth = "subscription_month"
)

// Коды прав доступа.
const (
	CodePaidAccess         = "paid_access"
	CodeRetakeTopicAccess  = "retake_topic_access"
	CodeRetakeFullAccess   = "retake_full_access"
	CodeSubscriptionActive = "subscription_active"
)

var productCodes = map[string]string{
	ProductPlanAccess:        CodePaidAccess,
	ProductRetakeTopic:       CodeRetakeTopicAccess,
	ProductRetakeFull:        CodeRetakeFullAccess,
	ProductSubscriptionMonth: CodeSubscriptionActive,
}

// CodeForProduct возвращает код права доступа для продукта.
// Неизвестный продукт даёт paid_access, а не ошибку.
func CodeForProduct(productCode string) string {
	if code, ok := productCodes[productCode]; ok {
		return code
	}
	return CodePaidAccess
}

// ValidUntil возвращает момент окончания доступа, купленного в now.
// retake_topic живёт 7 дней, хотя по смыслу одноразовый: запас на
// расхождение часов и задержку обработки.
func ValidUntil(productCode string, now time.Time) time.Time {
	switch productCode {
	case ProductSubscriptionMonth:
		return now.AddDate(0, 1, 0)
	case ProductPlanAccess, ProductRetakeFull:
		return now.AddDate(0, 0, 28)
	case ProductRetakeTopic:
		return now.AddDate(0, 0, 7)
	default:
		return now.AddDate(1, 0, 0)
	}
}

// IsKnownProduct сообщает, продаётся ли такой продукт.
func IsKnownProduct(productCode string) bool {
	_, ok := productCodes[productCode]
	return ok
}

// Products возвращает все продаваемые коды продуктов.
func Products() []string {
	return []string{ProductPlanAccess, ProductRetakeTopic, ProductRetakeFull, ProductSubscriptionMonth}
}
