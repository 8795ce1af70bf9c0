package paymentwebhook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/skiniq/internal/lib/sl"
	"github.com/magabrotheeeer/skiniq/internal/metrics"
	"github.com/magabrotheeeer/skiniq/internal/services/payment"
)

const secret = "whsec"

type MockService struct {
	mock.Mock
}

func (m *MockService) HandleWebhook(ctx context.Context, event payment.WebhookEvent) (string, error) {
	args := m.Called(ctx, event)
	return args.String(0), args.Error(1)
}

func isPayment(id, event string) any {
	return mock.MatchedBy(func(e payment.WebhookEvent) bool {
		return e.PaymentID() == id && e.Event == event
	})
}

func TestWebhookHandler(t *testing.T) {
	succeeded := `{"event":"payment.succeeded","object":{"id":"prov-1","status":"succeeded","metadata":{"payment_id":"pay-1"}}}`

	tests := []struct {
		name      string
		secret    string
		body      string
		signature string
		setupMock func(*MockService)
		wantCode  int
		wantBody  string
	}{
		{
			name:      "первое подтверждение",
			secret:    secret,
			body:      succeeded,
			signature: Sign(secret, []byte(succeeded)),
			setupMock: func(m *MockService) {
				m.On("HandleWebhook", mock.Anything, isPayment("pay-1", payment.EventSucceeded)).
					Return(metrics.ResultOK, nil).Once()
			},
			wantCode: http.StatusOK,
			wantBody: `{"status":"OK","result":"ok"}`,
		},
		{
			name:      "повторная доставка",
			secret:    secret,
			body:      succeeded,
			signature: Sign(secret, []byte(succeeded)),
			setupMock: func(m *MockService) {
				m.On("HandleWebhook", mock.Anything, mock.Anything).Return(metrics.ResultReplay, nil).Once()
			},
			wantCode: http.StatusOK,
			wantBody: `{"status":"OK","result":"replay"}`,
		},
		{
			name:      "нет подписи",
			secret:    secret,
			body:      succeeded,
			setupMock: func(_ *MockService) {},
			wantCode:  http.StatusUnauthorized,
			wantBody:  `{"status":"Error","error":"unauthorized"}`,
		},
		{
			name:      "подпись другим секретом",
			secret:    secret,
			body:      succeeded,
			signature: Sign("other", []byte(succeeded)),
			setupMock: func(_ *MockService) {},
			wantCode:  http.StatusUnauthorized,
			wantBody:  `{"status":"Error","error":"unauthorized"}`,
		},
		{
			name:      "секрет не настроен",
			body:      succeeded,
			signature: Sign("", []byte(succeeded)),
			setupMock: func(_ *MockService) {},
			wantCode:  http.StatusInternalServerError,
			wantBody:  `{"status":"Error","error":"server misconfiguration"}`,
		},
		{
			name:      "битый json",
			secret:    secret,
			body:      `{"event":`,
			signature: Sign(secret, []byte(`{"event":`)),
			setupMock: func(_ *MockService) {},
			wantCode:  http.StatusBadRequest,
			wantBody:  `{"status":"Error","error":"invalid request body"}`,
		},
		{
			name:      "нет payment_id",
			secret:    secret,
			body:      `{"event":"payment.succeeded","object":{}}`,
			signature: Sign(secret, []byte(`{"event":"payment.succeeded","object":{}}`)),
			setupMock: func(m *MockService) {
				m.On("HandleWebhook", mock.Anything, mock.Anything).
					Return(metrics.ResultRejected, fmt.Errorf("payment.HandleWebhook: %w", payment.ErrNoPaymentID)).Once()
			},
			wantCode: http.StatusBadRequest,
			wantBody: `{"status":"Error","error":"field object.metadata.payment_id is a required field"}`,
		},
		{
			name:      "payment_id не uuid",
			secret:    secret,
			body:      succeeded,
			signature: Sign(secret, []byte(succeeded)),
			setupMock: func(m *MockService) {
				m.On("HandleWebhook", mock.Anything, isPayment("pay-1", "payment.succeeded")).
					Return(metrics.ResultRejected, fmt.Errorf("payment.HandleWebhook: %w", payment.ErrInvalidPaymentID)).Once()
			},
			wantCode: http.StatusBadRequest,
			wantBody: `{"status":"Error","error":"field object.metadata.payment_id can contain only uuid"}`,
		},
		{
			name:      "неизвестный платеж",
			secret:    secret,
			body:      succeeded,
			signature: Sign(secret, []byte(succeeded)),
			setupMock: func(m *MockService) {
				m.On("HandleWebhook", mock.Anything, mock.Anything).
					Return(metrics.ResultError, fmt.Errorf("payment.Complete: %w", payment.ErrPaymentNotFound)).Once()
			},
			wantCode: http.StatusNotFound,
			wantBody: `{"status":"Error","error":"payment not found"}`,
		},
		{
			name:      "ошибка базы",
			secret:    secret,
			body:      succeeded,
			signature: Sign(secret, []byte(succeeded)),
			setupMock: func(m *MockService) {
				m.On("HandleWebhook", mock.Anything, mock.Anything).
					Return(metrics.ResultError, errors.New("db down")).Once()
			},
			wantCode: http.StatusInternalServerError,
			wantBody: `{"status":"Error","error":"internal error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewBufferString(tt.body))
			if tt.signature != "" {
				req.Header.Set(SignatureHeader, tt.signature)
			}
			rec := httptest.NewRecorder()

			New(sl.Discard(), svc, tt.secret).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
			svc.AssertExpectations(t)
		})
	}
}
