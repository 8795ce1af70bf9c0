package entitlement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCodeForProduct(t *testing.T) {
	tests := []struct {
		product string
		want    string
	}{
		{product: "plan_access", want: "paid_access"},
		{product: "retake_topic", want: "retake_topic_access"},
		{product: "retake_full", want: "retake_full_access"},
		{product: "subscription_month", want: "subscription_active"},
		{product: "", want: "paid_access"},
		{product: "gift_card", want: "paid_access"},
		{product: "PLAN_ACCESS", want: "paid_access"},
	}

	for _, tt := range tests {
		t.Run(tt.product, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeForProduct(tt.product))
		})
	}
}

func TestCodeForProduct_AlwaysFromTable(t *testing.T) {
	allowed := map[string]bool{}
	for _, code := range productCodes {
		allowed[code] = true
	}
	for _, p := range append(Products(), "unknown", "x", "retake") {
		assert.True(t, allowed[CodeForProduct(p)], "product %q", p)
	}
}

func TestValidUntil(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		product string
		want    time.Time
	}{
		{product: "subscription_month", want: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
		{product: "plan_access", want: time.Date(2024, 1, 29, 0, 0, 0, 0, time.UTC)},
		{product: "retake_topic", want: time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)},
		{product: "retake_full", want: time.Date(2024, 1, 29, 0, 0, 0, 0, time.UTC)},
		{product: "something_else", want: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.product, func(t *testing.T) {
			got := ValidUntil(tt.product, now)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
			assert.True(t, got.After(now))
		})
	}
}

func TestValidUntil_AlwaysAfterNow(t *testing.T) {
	moments := []time.Time{
		time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC),
		time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC),
		time.Date(2023, 12, 31, 0, 0, 0, 0, time.FixedZone("MSK", 3*3600)),
	}
	for _, now := range moments {
		for _, p := range append(Products(), "unknown") {
			assert.True(t, ValidUntil(p, now).After(now), "product %q at %s", p, now)
		}
	}
}

func TestRetakeTopicScenario(t *testing.T) {
	assert.Equal(t, "retake_topic_access", CodeForProduct("retake_topic"))
	got := ValidUntil("retake_topic", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "2024-01-08", got.Format("2006-01-02"))
}

func TestIsKnownProduct(t *testing.T) {
	for _, p := range Products() {
		assert.True(t, IsKnownProduct(p))
	}
	assert.False(t, IsKnownProduct("paid_access"))
}
