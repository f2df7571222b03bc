package subscription

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/afinadao/membership/internal/models"
	"github.com/afinadao/membership/internal/services"
	"github.com/afinadao/membership/internal/storage"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *RepoMock) GetSubscriptionInfo(ctx context.Context, id int64) (*models.SubscriptionInfo, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SubscriptionInfo), args.Error(1)
}

func (m *RepoMock) ListUserSubscriptions(ctx context.Context, userID int64) ([]*models.SubscriptionInfo, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.SubscriptionInfo), args.Error(1)
}

func (m *RepoMock) ListSubscriptions(ctx context.Context, filter models.SubscriptionFilter) ([]*models.SubscriptionInfo, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.SubscriptionInfo), args.Error(1)
}

func (m *RepoMock) UpdateSubscription(ctx context.Context, id int64, endDate *time.Time, status *models.SubscriptionStatus) error {
	return m.Called(ctx, id, endDate, status).Error(0)
}

func (m *RepoMock) CancelSubscription(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *RepoMock) InsertAudit(ctx context.Context, e models.AuditEntry) error {
	return m.Called(ctx, e).Error(0)
}

type LifecycleMock struct{ mock.Mock }

func (m *LifecycleMock) HandleExpired(ctx context.Context, subscriptionID int64) error {
	return m.Called(ctx, subscriptionID).Error(0)
}

func (m *LifecycleMock) RevokeAccess(ctx context.Context, info *models.SubscriptionInfo) error {
	return m.Called(ctx, info).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

var testNow = time.Date(2025, 4, 15, 12, 0, 0, 0, time.UTC)

func newTestService(r *RepoMock, l *LifecycleMock) *SubscriptionService {
	s := NewSubscriptionService(r, l, newNoopLogger())
	s.now = func() time.Time { return testNow }
	return s
}

func info(id int64, status models.SubscriptionStatus, end time.Time) *models.SubscriptionInfo {
	return &models.SubscriptionInfo{Subscription: models.Subscription{
		ID: id, UserID: 3, TariffID: 1, Status: status, EndDate: end,
		Access: models.Access{Notion: true},
	}}
}

func TestSubscriptionService_Update(t *testing.T) {
	future := testNow.AddDate(0, 1, 0)
	past := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		patch      models.DummySubscriptionPatch
		setupMocks func(r *RepoMock, l *LifecycleMock)
		wantErr    error
	}{
		{
			name:  "extend active subscription",
			patch: models.DummySubscriptionPatch{EndDate: "15-05-2025"},
			setupMocks: func(r *RepoMock, _ *LifecycleMock) {
				end := time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC)
				r.On("GetSubscriptionInfo", mock.Anything, int64(1)).Return(info(1, models.StatusActive, future), nil).Once()
				r.On("UpdateSubscription", mock.Anything, int64(1), &end, (*models.SubscriptionStatus)(nil)).Return(nil)
				r.On("GetSubscriptionInfo", mock.Anything, int64(1)).Return(info(1, models.StatusActive, end), nil).Once()
			},
		},
		{
			name:  "end date moved to the past expires immediately",
			patch: models.DummySubscriptionPatch{EndDate: "01-04-2025"},
			setupMocks: func(r *RepoMock, l *LifecycleMock) {
				r.On("GetSubscriptionInfo", mock.Anything, int64(1)).Return(info(1, models.StatusActive, future), nil).Once()
				r.On("UpdateSubscription", mock.Anything, int64(1), &past, (*models.SubscriptionStatus)(nil)).Return(nil)
				r.On("GetSubscriptionInfo", mock.Anything, int64(1)).Return(info(1, models.StatusActive, past), nil).Once()
				l.On("HandleExpired", mock.Anything, int64(1)).Return(nil)
				r.On("GetSubscriptionInfo", mock.Anything, int64(1)).Return(info(1, models.StatusExpired, past), nil).Once()
			},
		},
		{
			name:  "manual cancel revokes access",
			patch: models.DummySubscriptionPatch{Status: "cancelled"},
			setupMocks: func(r *RepoMock, l *LifecycleMock) {
				before := info(1, models.StatusActive, future)
				st := models.StatusCancelled
				r.On("GetSubscriptionInfo", mock.Anything, int64(1)).Return(before, nil).Once()
				r.On("UpdateSubscription", mock.Anything, int64(1), (*time.Time)(nil), &st).Return(nil)
				r.On("GetSubscriptionInfo", mock.Anything, int64(1)).Return(info(1, models.StatusCancelled, future), nil).Twice()
				l.On("RevokeAccess", mock.Anything, before).Return(nil)
			},
		},
		{
			name:       "empty patch",
			patch:      models.DummySubscriptionPatch{},
			setupMocks: func(_ *RepoMock, _ *LifecycleMock) {},
			wantErr:    services.ErrInvalidInput,
		},
		{
			name:       "bad date",
			patch:      models.DummySubscriptionPatch{EndDate: "2025-05-01"},
			setupMocks: func(_ *RepoMock, _ *LifecycleMock) {},
			wantErr:    services.ErrInvalidInput,
		},
		{
			name:  "not found",
			patch: models.DummySubscriptionPatch{Status: "active"},
			setupMocks: func(r *RepoMock, _ *LifecycleMock) {
				r.On("GetSubscriptionInfo", mock.Anything, int64(1)).Return(nil, storage.ErrNotFound)
			},
			wantErr: storage.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := new(RepoMock)
			l := new(LifecycleMock)
			tt.setupMocks(r, l)
			s := newTestService(r, l)

			got, err := s.Update(context.Background(), 1, tt.patch)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, got)
			r.AssertExpectations(t)
			l.AssertExpectations(t)
		})
	}
}

func TestSubscriptionService_Cancel(t *testing.T) {
	r := new(RepoMock)
	l := new(LifecycleMock)
	s := newTestService(r, l)

	before := info(5, models.StatusActive, testNow.AddDate(0, 0, 10))
	r.On("GetSubscriptionInfo", mock.Anything, int64(5)).Return(before, nil)
	r.On("CancelSubscription", mock.Anything, int64(5)).Return(true, nil)
	l.On("RevokeAccess", mock.Anything, before).Return(nil)
	r.On("InsertAudit", mock.Anything, mock.MatchedBy(func(e models.AuditEntry) bool {
		return e.Event == models.EventCancelled && *e.SubscriptionID == 5
	})).Return(nil)

	require.NoError(t, s.Cancel(context.Background(), 5))
	r.AssertExpectations(t)
	l.AssertExpectations(t)
}

func TestSubscriptionService_Cancel_AlreadyClosed(t *testing.T) {
	r := new(RepoMock)
	l := new(LifecycleMock)
	s := newTestService(r, l)

	r.On("GetSubscriptionInfo", mock.Anything, int64(5)).Return(info(5, models.StatusExpired, testNow), nil)
	r.On("CancelSubscription", mock.Anything, int64(5)).Return(false, nil)

	err := s.Cancel(context.Background(), 5)
	require.ErrorIs(t, err, services.ErrUnavailable)
	l.AssertNotCalled(t, "RevokeAccess", mock.Anything, mock.Anything)
}

func TestSubscriptionService_List(t *testing.T) {
	r := new(RepoMock)
	s := newTestService(r, new(LifecycleMock))

	r.On("ListSubscriptions", mock.Anything, models.SubscriptionFilter{Limit: 200, Offset: 0}).
		Return([]*models.SubscriptionInfo{}, nil)

	_, err := s.List(context.Background(), models.SubscriptionFilter{Limit: 1000, Offset: -3})
	require.NoError(t, err)

	bad := models.SubscriptionStatus("paused")
	_, err = s.List(context.Background(), models.SubscriptionFilter{Status: &bad})
	require.ErrorIs(t, err, services.ErrInvalidInput)
}

func TestSubscriptionService_ListForTelegramUser(t *testing.T) {
	r := new(RepoMock)
	s := newTestService(r, new(LifecycleMock))

	r.On("GetUserByTelegramID", mock.Anything, int64(100)).Return(&models.User{ID: 3}, nil)
	r.On("ListUserSubscriptions", mock.Anything, int64(3)).Return([]*models.SubscriptionInfo{info(1, models.StatusActive, testNow)}, nil)

	subs, err := s.ListForTelegramUser(context.Background(), 100)
	require.NoError(t, err)
	assert.Len(t, subs, 1)

	r2 := new(RepoMock)
	s2 := newTestService(r2, new(LifecycleMock))
	r2.On("GetUserByTelegramID", mock.Anything, int64(100)).Return(nil, errors.New("db down"))
	_, err = s2.ListForTelegramUser(context.Background(), 100)
	require.Error(t, err)
}

func TestPage(t *testing.T) {
	tests := []struct {
		limit, offset         int
		wantLimit, wantOffset int
	}{
		{0, 0, 50, 0},
		{10, 20, 10, 20},
		{500, -1, 200, 0},
	}
	for _, tt := range tests {
		l, o := Page(tt.limit, tt.offset)
		assert.Equal(t, tt.wantLimit, l)
		assert.Equal(t, tt.wantOffset, o)
	}
}
