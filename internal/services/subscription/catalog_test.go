package subscription

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/afinadao/membership/internal/models"
	"github.com/afinadao/membership/internal/services"
	"github.com/afinadao/membership/internal/storage"
)

type CatalogRepoMock struct{ mock.Mock }

func (m *CatalogRepoMock) ListTariffs(ctx context.Context, includeArchived bool) ([]*models.Tariff, error) {
	args := m.Called(ctx, includeArchived)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Tariff), args.Error(1)
}

func (m *CatalogRepoMock) GetTariff(ctx context.Context, id int64) (*models.Tariff, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tariff), args.Error(1)
}

func (m *CatalogRepoMock) CreateTariff(ctx context.Context, tariff models.DummyTariff) (int64, error) {
	args := m.Called(ctx, tariff)
	return args.Get(0).(int64), args.Error(1)
}

func (m *CatalogRepoMock) ArchiveTariff(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *CatalogRepoMock) GetSettings(ctx context.Context) (*models.Settings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Settings), args.Error(1)
}

func (m *CatalogRepoMock) UpdateSettings(ctx context.Context, st models.Settings) error {
	return m.Called(ctx, st).Error(0)
}

func (m *CatalogRepoMock) ListNotificationTexts(ctx context.Context) ([]*models.NotificationText, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.NotificationText), args.Error(1)
}

func (m *CatalogRepoMock) UpsertNotificationText(ctx context.Context, days int, text string) error {
	return m.Called(ctx, days, text).Error(0)
}

func (m *CatalogRepoMock) DeleteNotificationText(ctx context.Context, days int) error {
	return m.Called(ctx, days).Error(0)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(ctx context.Context, key string, result any) (bool, error) {
	args := m.Called(ctx, key, result)
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	return m.Called(ctx, key, value, expiration).Error(0)
}

func (m *CacheMock) Invalidate(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func TestCatalogService_ListTariffs(t *testing.T) {
	tariffs := []*models.Tariff{{ID: 1, Name: "Base", IsActive: true}}

	tests := []struct {
		name       string
		setupMocks func(r *CatalogRepoMock, c *CacheMock)
		wantLen    int
	}{
		{
			name: "cache hit",
			setupMocks: func(_ *CatalogRepoMock, c *CacheMock) {
				c.On("Get", mock.Anything, cacheKeyActiveTariffs, mock.Anything).
					Run(func(args mock.Arguments) {
						dst := args.Get(2).(*[]*models.Tariff)
						*dst = tariffs
					}).Return(true, nil)
			},
			wantLen: 1,
		},
		{
			name: "cache miss fills cache",
			setupMocks: func(r *CatalogRepoMock, c *CacheMock) {
				c.On("Get", mock.Anything, cacheKeyActiveTariffs, mock.Anything).Return(false, nil)
				r.On("ListTariffs", mock.Anything, false).Return(tariffs, nil)
				c.On("Set", mock.Anything, cacheKeyActiveTariffs, tariffs, tariffsCacheTTL).Return(nil)
			},
			wantLen: 1,
		},
		{
			name: "cache error falls back to storage",
			setupMocks: func(r *CatalogRepoMock, c *CacheMock) {
				c.On("Get", mock.Anything, cacheKeyActiveTariffs, mock.Anything).Return(false, errors.New("redis down"))
				r.On("ListTariffs", mock.Anything, false).Return(tariffs, nil)
				c.On("Set", mock.Anything, cacheKeyActiveTariffs, tariffs, tariffsCacheTTL).Return(errors.New("redis down"))
			},
			wantLen: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := new(CatalogRepoMock)
			c := new(CacheMock)
			tt.setupMocks(r, c)
			s := NewCatalogService(r, c, newNoopLogger())

			got, err := s.ListTariffs(context.Background(), false)
			require.NoError(t, err)
			assert.Len(t, got, tt.wantLen)
			r.AssertExpectations(t)
			c.AssertExpectations(t)
		})
	}
}

func TestCatalogService_CreateAndArchiveInvalidateCache(t *testing.T) {
	r := new(CatalogRepoMock)
	c := new(CacheMock)
	s := NewCatalogService(r, c, newNoopLogger())

	req := models.DummyTariff{Name: "Pro", Prices: []models.DummyTariffPrice{{PeriodDays: 30, Amount: "10", Currency: "USD"}}}
	r.On("CreateTariff", mock.Anything, req).Return(int64(4), nil)
	r.On("ArchiveTariff", mock.Anything, int64(4)).Return(nil)
	c.On("Invalidate", mock.Anything, cacheKeyActiveTariffs).Return(nil)
	c.On("Invalidate", mock.Anything, cacheKeyAllTariffs).Return(nil)

	id, err := s.CreateTariff(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(4), id)
	require.NoError(t, s.ArchiveTariff(context.Background(), 4))

	c.AssertNumberOfCalls(t, "Invalidate", 4)
}

func TestCatalogService_UpdateSettings(t *testing.T) {
	id := int64(2)
	missing := int64(9)

	tests := []struct {
		name       string
		req        models.DummySettings
		setupMocks func(r *CatalogRepoMock)
		wantErr    error
	}{
		{
			name: "single with tariff",
			req:  models.DummySettings{ActualTariffMode: "single", ActualTariffID: &id, GracePeriodDays: 5},
			setupMocks: func(r *CatalogRepoMock) {
				r.On("GetTariff", mock.Anything, id).Return(&models.Tariff{ID: id}, nil)
				r.On("UpdateSettings", mock.Anything, models.Settings{
					ActualTariffMode: models.ActualTariffSingle, ActualTariffID: &id, GracePeriodDays: 5,
				}).Return(nil)
				r.On("GetSettings", mock.Anything).Return(&models.Settings{ActualTariffMode: models.ActualTariffSingle}, nil)
			},
		},
		{
			name: "all_active drops tariff id",
			req:  models.DummySettings{ActualTariffMode: "all_active", ActualTariffID: &id, GracePeriodDays: 7},
			setupMocks: func(r *CatalogRepoMock) {
				r.On("UpdateSettings", mock.Anything, models.Settings{
					ActualTariffMode: models.ActualTariffAllActive, GracePeriodDays: 7,
				}).Return(nil)
				r.On("GetSettings", mock.Anything).Return(&models.Settings{ActualTariffMode: models.ActualTariffAllActive}, nil)
			},
		},
		{
			name:       "single without tariff",
			req:        models.DummySettings{ActualTariffMode: "single"},
			setupMocks: func(_ *CatalogRepoMock) {},
			wantErr:    services.ErrInvalidInput,
		},
		{
			name: "single with unknown tariff",
			req:  models.DummySettings{ActualTariffMode: "single", ActualTariffID: &missing},
			setupMocks: func(r *CatalogRepoMock) {
				r.On("GetTariff", mock.Anything, missing).Return(nil, storage.ErrNotFound)
			},
			wantErr: services.ErrInvalidInput,
		},
		{
			name: "single with archived tariff",
			req:  models.DummySettings{ActualTariffMode: "single", ActualTariffID: &id},
			setupMocks: func(r *CatalogRepoMock) {
				r.On("GetTariff", mock.Anything, id).Return(&models.Tariff{ID: id, IsArchived: true}, nil)
			},
			wantErr: services.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := new(CatalogRepoMock)
			tt.setupMocks(r)
			s := NewCatalogService(r, new(CacheMock), newNoopLogger())

			_, err := s.UpdateSettings(context.Background(), tt.req)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				r.AssertNotCalled(t, "UpdateSettings", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			r.AssertExpectations(t)
		})
	}
}

func TestCatalogService_NotificationTexts(t *testing.T) {
	r := new(CatalogRepoMock)
	s := NewCatalogService(r, new(CacheMock), newNoopLogger())

	r.On("UpsertNotificationText", mock.Anything, 3, "Осталось {days} дня").Return(nil)
	r.On("DeleteNotificationText", mock.Anything, 8).Return(storage.ErrNotFound)

	require.NoError(t, s.SetNotificationText(context.Background(), 3, "Осталось {days} дня"))
	require.ErrorIs(t, s.SetNotificationText(context.Background(), 0, "x"), services.ErrInvalidInput)
	require.ErrorIs(t, s.DeleteNotificationText(context.Background(), 8), storage.ErrNotFound)
}
