package subscriptions

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/afinadao/membership/internal/models"
	"github.com/afinadao/membership/internal/storage"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) ListForTelegramUser(ctx context.Context, telegramID int64) ([]*models.SubscriptionInfo, error) {
	args := m.Called(ctx, telegramID)
	res, _ := args.Get(0).([]*models.SubscriptionInfo)
	return res, args.Error(1)
}

func TestSubscriptionsHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		param          string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:  "подписки найдены",
			param: "100",
			setupMock: func(m *MockService) {
				m.On("ListForTelegramUser", mock.Anything, int64(100)).Return([]*models.SubscriptionInfo{
					{Subscription: models.Subscription{ID: 1, Status: models.StatusActive}, TariffName: "Базовый"},
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"tariff_name":"Базовый"`,
		},
		{
			name:           "некорректный id",
			param:          "-5",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `failed to decode telegram id from url`,
		},
		{
			name:  "пользователь не найден",
			param: "7",
			setupMock: func(m *MockService) {
				m.On("ListForTelegramUser", mock.Anything, int64(7)).
					Return(nil, fmt.Errorf("storage.GetUserByTelegramID: %w", storage.ErrNotFound))
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `not found`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/bot/users/"+tt.param+"/subscriptions", nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("telegramID", tt.param)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			rr := httptest.NewRecorder()
			New(logger, svc).ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
