package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/skiniq/internal/models"
	"github.com/magabrotheeeer/skiniq/internal/storage"
)

func newMockStorage(t *testing.T) (*Storage, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return NewWithDB(db), mock
}

func testEntitlement(validUntil time.Time) models.Entitlement {
	return models.Entitlement{
		UserID:               "user-1",
		EntitlementCode:      "paid_access",
		ValidUntil:           &validUntil,
		GrantedFromPaymentID: "pay-1",
	}
}

func TestStorage_CompletePayment(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	validUntil := now.AddDate(0, 0, 28)
	ent := testEntitlement(validUntil)

	lockQuery := regexp.QuoteMeta(`SELECT status FROM payments WHERE id = $1 FOR UPDATE`)
	updateQuery := regexp.QuoteMeta(`UPDATE payments SET status = $2, completed_at = $3 WHERE id = $1`)
	insertQuery := regexp.QuoteMeta(`INSERT INTO entitlements`)

	tests := []struct {
		name        string
		setup       func(mock sqlmock.Sqlmock)
		wantPrev    string
		wantGranted bool
		wantErr     error
	}{
		{
			name: "pending payment is completed and entitlement granted",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(lockQuery).WithArgs("pay-1").
					WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("pending"))
				mock.ExpectExec(updateQuery).WithArgs("pay-1", "completed", now).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(insertQuery).WithArgs("user-1", "paid_access", validUntil, "pay-1", now).
					WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectCommit()
			},
			wantPrev:    "pending",
			wantGranted: true,
		},
		{
			name: "completed payment is a no-op",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(lockQuery).WithArgs("pay-1").
					WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("completed"))
				mock.ExpectCommit()
			},
			wantPrev:    "completed",
			wantGranted: false,
		},
		{
			name: "failed payment is left untouched",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(lockQuery).WithArgs("pay-1").
					WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("failed"))
				mock.ExpectCommit()
			},
			wantPrev:    "failed",
			wantGranted: false,
		},
		{
			name: "entitlement already exists",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(lockQuery).WithArgs("pay-1").
					WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("pending"))
				mock.ExpectExec(updateQuery).WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(insertQuery).WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectCommit()
			},
			wantPrev:    "pending",
			wantGranted: false,
		},
		{
			name: "unknown payment",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(lockQuery).WithArgs("pay-1").
					WillReturnRows(sqlmock.NewRows([]string{"status"}))
				mock.ExpectRollback()
			},
			wantErr: storage.ErrNotFound,
		},
		{
			name: "insert error rolls back",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(lockQuery).WithArgs("pay-1").
					WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("pending"))
				mock.ExpectExec(updateQuery).WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(insertQuery).WillReturnError(errors.New("boom"))
				mock.ExpectRollback()
			},
			wantErr: errors.New("boom"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMockStorage(t)
			tt.setup(mock)

			prev, granted, err := s.CompletePayment(context.Background(), ent, now)

			if tt.wantErr != nil {
				require.Error(t, err)
				if errors.Is(tt.wantErr, storage.ErrNotFound) {
					assert.ErrorIs(t, err, storage.ErrNotFound)
				} else {
					assert.Contains(t, err.Error(), tt.wantErr.Error())
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantPrev, prev)
				assert.Equal(t, tt.wantGranted, granted)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStorage_FailPayment(t *testing.T) {
	lockQuery := regexp.QuoteMeta(`SELECT status FROM payments WHERE id = $1 FOR UPDATE`)

	t.Run("pending becomes failed", func(t *testing.T) {
		s, mock := newMockStorage(t)
		mock.ExpectBegin()
		mock.ExpectQuery(lockQuery).WithArgs("pay-1").
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("pending"))
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE payments SET status = $2 WHERE id = $1`)).
			WithArgs("pay-1", "failed").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		prev, err := s.FailPayment(context.Background(), "pay-1")
		require.NoError(t, err)
		assert.Equal(t, "pending", prev)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("completed stays completed", func(t *testing.T) {
		s, mock := newMockStorage(t)
		mock.ExpectBegin()
		mock.ExpectQuery(lockQuery).WithArgs("pay-1").
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("completed"))
		mock.ExpectCommit()

		prev, err := s.FailPayment(context.Background(), "pay-1")
		require.NoError(t, err)
		assert.Equal(t, "completed", prev)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStorage_ListEntitlements(t *testing.T) {
	s, mock := newMockStorage(t)
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	until := created.AddDate(0, 0, 7)

	rows := sqlmock.NewRows([]string{"id", "user_id", "entitlement_code", "valid_until", "granted_from_payment_id", "created_at"}).
		AddRow(int64(2), "user-1", "retake_topic_access", until, "pay-2", created).
		AddRow(int64(1), "user-1", "paid_access", nil, "pay-1", created)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM entitlements`)).WithArgs("user-1").WillReturnRows(rows)

	got, err := s.ListEntitlements(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.NotNil(t, got[0].ValidUntil)
	assert.True(t, until.Equal(*got[0].ValidUntil))
	assert.Nil(t, got[1].ValidUntil)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStorage_GetPayment_NotFound(t *testing.T) {
	s, mock := newMockStorage(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM payments WHERE id = $1`)).WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.GetPayment(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStorage_CreatePayment_CanceledContext(t *testing.T) {
	s, _ := newMockStorage(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.CreatePayment(ctx, models.Payment{ID: "pay-1"})
	assert.ErrorIs(t, err, context.Canceled)
}
