package paymentstatus

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/skiniq/internal/http/middlewarectx"
	"github.com/magabrotheeeer/skiniq/internal/lib/sl"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) HasAccess(ctx context.Context, userID, code string) (bool, error) {
	args := m.Called(ctx, userID, code)
	return args.Bool(0), args.Error(1)
}

func TestStatusHandler(t *testing.T) {
	tests := []struct {
		name      string
		userID    string
		setupMock func(*MockService)
		wantCode  int
		wantBody  string
	}{
		{
			name:   "paid",
			userID: "user-1",
			setupMock: func(m *MockService) {
				m.On("HasAccess", mock.Anything, "user-1", "paid_access").Return(true, nil).Once()
			},
			wantCode: http.StatusOK,
			wantBody: `{"paid":true,"code":"paid_access"}`,
		},
		{
			name:   "not paid",
			userID: "user-1",
			setupMock: func(m *MockService) {
				m.On("HasAccess", mock.Anything, "user-1", "paid_access").Return(false, nil).Once()
			},
			wantCode: http.StatusOK,
			wantBody: `{"paid":false,"code":"paid_access"}`,
		},
		{
			name:      "no user",
			setupMock: func(_ *MockService) {},
			wantCode:  http.StatusUnauthorized,
			wantBody:  `{"status":"Error","error":"unauthorized"}`,
		},
		{
			name:   "storage error",
			userID: "user-1",
			setupMock: func(m *MockService) {
				m.On("HasAccess", mock.Anything, "user-1", "paid_access").Return(false, errors.New("db down")).Once()
			},
			wantCode: http.StatusInternalServerError,
			wantBody: `{"status":"Error","error":"internal error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodGet, "/api/payments/status", nil)
			if tt.userID != "" {
				req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserID, tt.userID))
			}
			rec := httptest.NewRecorder()

			New(sl.Discard(), svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, "true", rec.Header().Get("Deprecation"))
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
			svc.AssertExpectations(t)
		})
	}
}
