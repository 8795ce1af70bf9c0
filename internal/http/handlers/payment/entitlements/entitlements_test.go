package entitlements

import (
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

	"github.com/magabrotheeeer/skiniq/internal/http/middlewarectx"
	"github.com/magabrotheeeer/skiniq/internal/lib/sl"
	"github.com/magabrotheeeer/skiniq/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) HasAccess(ctx context.Context, userID, code string) (bool, error) {
	args := m.Called(ctx, userID, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockService) ListActive(ctx context.Context, userID string) ([]models.Entitlement, error) {
	args := m.Called(ctx, userID)
	list, _ := args.Get(0).([]models.Entitlement)
	return list, args.Error(1)
}

func request(url, userID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, url, nil)
	if userID == "" {
		return req
	}
	return req.WithContext(context.WithValue(req.Context(), middlewarectx.UserID, userID))
}

func TestEntitlements_Code(t *testing.T) {
	svc := new(MockService)
	svc.On("HasAccess", mock.Anything, "user-1", "retake_topic_access").Return(true, nil).Once()
	rec := httptest.NewRecorder()

	New(sl.Discard(), svc).ServeHTTP(rec, request("/api/entitlements?code=retake_topic_access", "user-1"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"code":"retake_topic_access","hasAccess":true}`, rec.Body.String())
	svc.AssertExpectations(t)
}

func TestEntitlements_List(t *testing.T) {
	until := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	svc := new(MockService)
	svc.On("ListActive", mock.Anything, "user-1").Return([]models.Entitlement{
		{ID: 1, UserID: "user-1", EntitlementCode: "paid_access", ValidUntil: &until, GrantedFromPaymentID: "pay-1"},
	}, nil).Once()
	rec := httptest.NewRecorder()

	New(sl.Discard(), svc).ServeHTTP(rec, request("/api/entitlements", "user-1"))

	assert.Equal(t, http.StatusOK, rec.Code)
	var got ListResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	require.Len(t, got.Entitlements, 1)
	assert.Equal(t, "paid_access", got.Entitlements[0].EntitlementCode)
	assert.Equal(t, "pay-1", got.Entitlements[0].GrantedFromPaymentID)
}

func TestEntitlements_EmptyListIsArray(t *testing.T) {
	svc := new(MockService)
	svc.On("ListActive", mock.Anything, "user-1").Return(nil, nil).Once()
	rec := httptest.NewRecorder()

	New(sl.Discard(), svc).ServeHTTP(rec, request("/api/entitlements", "user-1"))

	assert.JSONEq(t, `{"entitlements":[]}`, rec.Body.String())
}

func TestEntitlements_Errors(t *testing.T) {
	t.Run("no user", func(t *testing.T) {
		rec := httptest.NewRecorder()
		New(sl.Discard(), new(MockService)).ServeHTTP(rec, request("/api/entitlements", ""))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("storage error", func(t *testing.T) {
		svc := new(MockService)
		svc.On("HasAccess", mock.Anything, "user-1", "paid_access").Return(false, errors.New("db down")).Once()
		rec := httptest.NewRecorder()

		New(sl.Discard(), svc).ServeHTTP(rec, request("/api/entitlements?code=paid_access", "user-1"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"status":"Error","error":"internal error"}`, rec.Body.String())
	})
}
