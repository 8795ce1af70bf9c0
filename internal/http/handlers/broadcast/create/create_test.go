package create

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/skiniq/internal/lib/sl"
	"github.com/magabrotheeeer/skiniq/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Create(ctx context.Context, title, message string, scheduledAt *time.Time) (*models.Broadcast, error) {
	args := m.Called(ctx, title, message, scheduledAt)
	b, _ := args.Get(0).(*models.Broadcast)
	return b, args.Error(1)
}

func TestCreateHandler(t *testing.T) {
	at := time.Date(2024, 3, 8, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		body       string
		setupMock  func(*MockService)
		wantCode   int
		wantStatus string
		wantError  string
	}{
		{
			name: "черновик",
			body: `{"title":"Новинки","message":"Новая линейка сывороток"}`,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, "Новинки", "Новая линейка сывороток", (*time.Time)(nil)).
					Return(&models.Broadcast{ID: "b1", Status: models.BroadcastDraft}, nil).Once()
			},
			wantCode:   http.StatusCreated,
			wantStatus: "draft",
		},
		{
			name: "запланированная",
			body: `{"title":"8 марта","message":"Скидки","scheduledAt":"2024-03-08T09:00:00Z"}`,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, "8 марта", "Скидки", mock.MatchedBy(func(p *time.Time) bool {
					return p != nil && p.Equal(at)
				})).Return(&models.Broadcast{ID: "b2", Status: models.BroadcastScheduled, ScheduledAt: &at}, nil).Once()
			},
			wantCode:   http.StatusCreated,
			wantStatus: "scheduled",
		},
		{
			name:      "без текста",
			body:      `{"title":"Пусто"}`,
			setupMock: func(_ *MockService) {},
			wantCode:  http.StatusBadRequest,
			wantError: "field Message is a required field",
		},
		{
			name:      "битая дата",
			body:      `{"message":"x","scheduledAt":"завтра"}`,
			setupMock: func(_ *MockService) {},
			wantCode:  http.StatusBadRequest,
			wantError: "invalid request body",
		},
		{
			name: "ошибка базы",
			body: `{"message":"x"}`,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, "", "x", (*time.Time)(nil)).Return(nil, errors.New("db down")).Once()
			},
			wantCode:  http.StatusInternalServerError,
			wantError: "internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/admin/broadcasts", bytes.NewBufferString(tt.body))

			New(sl.Discard(), svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			svc.AssertExpectations(t)

			var got map[string]any
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, got["error"])
				return
			}
			b, ok := got["broadcast"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, tt.wantStatus, b["status"])
		})
	}
}
