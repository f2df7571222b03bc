package update

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/afinadao/membership/internal/models"
	"github.com/afinadao/membership/internal/services"
	"github.com/afinadao/membership/internal/storage"
)

// MockService реализует интерфейс update.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Update(ctx context.Context, id int64, patch models.DummySubscriptionPatch) (*models.SubscriptionInfo, error) {
	args := m.Called(ctx, id, patch)
	res, _ := args.Get(0).(*models.SubscriptionInfo)
	return res, args.Error(1)
}

func TestUpdateHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		id             string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "успешное продление",
			id:   "12",
			body: `{"end_date":"01-06-2025"}`,
			setupMock: func(m *MockService) {
				m.On("Update", mock.Anything, int64(12), models.DummySubscriptionPatch{EndDate: "01-06-2025"}).
					Return(&models.SubscriptionInfo{Subscription: models.Subscription{ID: 12, Status: models.StatusActive}}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"status":"active"`,
		},
		{
			name:           "некорректный статус",
			id:             "12",
			body:           `{"status":"frozen"}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `field Status must be one of [pending active expired cancelled]`,
		},
		{
			name:           "некорректный id в url",
			id:             "abc",
			body:           `{"status":"active"}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `failed to decode id from url`,
		},
		{
			name:           "некорректный JSON",
			id:             "12",
			body:           `not a json`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `failed to decode request`,
		},
		{
			name: "некорректная дата",
			id:   "12",
			body: `{"end_date":"2025-06-01"}`,
			setupMock: func(m *MockService) {
				m.On("Update", mock.Anything, int64(12), models.DummySubscriptionPatch{EndDate: "2025-06-01"}).
					Return(nil, fmt.Errorf("subscription.Update: invalid end date: %w", services.ErrInvalidInput))
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `invalid end date: invalid input`,
		},
		{
			name: "подписка не найдена",
			id:   "404",
			body: `{"status":"active"}`,
			setupMock: func(m *MockService) {
				m.On("Update", mock.Anything, int64(404), models.DummySubscriptionPatch{Status: "active"}).
					Return(nil, fmt.Errorf("storage.GetSubscriptionInfo: %w", storage.ErrNotFound))
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `not found`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPatch, "/api/v1/admin/subscriptions/"+tt.id, strings.NewReader(tt.body))
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.id)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			rr := httptest.NewRecorder()
			New(logger, svc).ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
