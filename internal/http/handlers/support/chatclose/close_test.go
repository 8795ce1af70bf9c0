package chatclose

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/skiniq/internal/lib/sl"
	"github.com/magabrotheeeer/skiniq/internal/services/support"
)

const chatID = "2f1c7c6e-8f0e-4a7e-9a51-0d1f3b1f1a11"

type MockService struct {
	mock.Mock
}

func (m *MockService) CloseChat(ctx context.Context, chatID string) error {
	return m.Called(ctx, chatID).Error(0)
}

func TestCloseHandler(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		setupMock func(*MockService)
		wantCode  int
		wantBody  string
	}{
		{
			name: "закрытие чата",
			body: `{"chatId":"` + chatID + `"}`,
			setupMock: func(m *MockService) {
				m.On("CloseChat", mock.Anything, chatID).Return(nil).Once()
			},
			wantCode: http.StatusOK,
			wantBody: `{"status":"OK"}`,
		},
		{
			name:      "пустое тело",
			body:      `{}`,
			setupMock: func(_ *MockService) {},
			wantCode:  http.StatusBadRequest,
			wantBody:  `{"status":"Error","error":"field ChatID is a required field"}`,
		},
		{
			name: "чат не найден",
			body: `{"chatId":"` + chatID + `"}`,
			setupMock: func(m *MockService) {
				m.On("CloseChat", mock.Anything, chatID).
					Return(fmt.Errorf("support.SetStatus: %w", support.ErrChatNotFound)).Once()
			},
			wantCode: http.StatusNotFound,
			wantBody: `{"status":"Error","error":"chat not found"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/admin/support/close", bytes.NewBufferString(tt.body))

			New(sl.Discard(), svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
			svc.AssertExpectations(t)
		})
	}
}
