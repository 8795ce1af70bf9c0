package maintenance_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/skiniq/internal/lib/sl"
	"github.com/magabrotheeeer/skiniq/internal/models"
	"github.com/magabrotheeeer/skiniq/internal/services/maintenance"
)

var testNow = time.Date(2024, 3, 10, 3, 0, 0, 0, time.UTC)

type RepoMock struct {
	mock.Mock
}

func (m *RepoMock) InsertLog(ctx context.Context, entry models.LogEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *RepoMock) DeleteLogsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func newService(repo *RepoMock) *maintenance.Service {
	return maintenance.New(repo, sl.Discard(), maintenance.WithClock(func() time.Time { return testNow }))
}

func TestService_PurgeLogs(t *testing.T) {
	cutoff := time.Date(2024, 3, 3, 3, 0, 0, 0, time.UTC)

	t.Run("deletes older than seven days", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("DeleteLogsBefore", mock.Anything, cutoff).Return(int64(5), nil).Once()

		n, err := newService(repo).PurgeLogs(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(5), n)
		repo.AssertExpectations(t)
	})

	t.Run("repository error", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("DeleteLogsBefore", mock.Anything, cutoff).Return(int64(0), errors.New("db down")).Once()

		_, err := newService(repo).PurgeLogs(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "maintenance.PurgeLogs")
	})
}

func TestService_SaveClientLog(t *testing.T) {
	tests := []struct {
		name      string
		userID    string
		level     string
		wantLevel string
		wantUser  bool
	}{
		{name: "known level", userID: "u-1", level: "ERROR", wantLevel: "error", wantUser: true},
		{name: "unknown level becomes info", userID: "u-1", level: "fatal", wantLevel: "info", wantUser: true},
		{name: "anonymous", userID: "", level: "warn", wantLevel: "warn", wantUser: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			repo.On("InsertLog", mock.Anything, mock.MatchedBy(func(e models.LogEntry) bool {
				return e.Level == tt.wantLevel &&
					e.Message == "quiz crashed" &&
					(e.UserID != nil) == tt.wantUser &&
					e.CreatedAt.Equal(testNow)
			})).Return(nil).Once()

			err := newService(repo).SaveClientLog(context.Background(), tt.userID, tt.level, "quiz crashed",
				map[string]any{"step": 3})
			require.NoError(t, err)
			repo.AssertExpectations(t)
		})
	}
}
