package create

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/afinadao/membership/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) CreateTariff(ctx context.Context, req models.DummyTariff) (int64, error) {
	args := m.Called(ctx, req)
	id, _ := args.Get(0).(int64)
	return id, args.Error(1)
}

func TestCreateHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	valid := models.DummyTariff{
		Name:   "Базовый",
		Prices: []models.DummyTariffPrice{{PeriodDays: 30, Amount: "10", Currency: "USD"}},
	}

	tests := []struct {
		name           string
		body           any
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "успешное создание",
			body: valid,
			setupMock: func(m *MockService) {
				m.On("CreateTariff", mock.Anything, valid).Return(int64(5), nil)
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `"id":5`,
		},
		{
			name:           "некорректный JSON",
			body:           "not a json",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `failed to decode request`,
		},
		{
			name:           "нет цен",
			body:           models.DummyTariff{Name: "Пустой"},
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `field Prices is a required field`,
		},
		{
			name: "ошибка сервиса",
			body: valid,
			setupMock: func(m *MockService) {
				m.On("CreateTariff", mock.Anything, valid).Return(int64(0), errors.New("db"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `internal error`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			var body []byte
			if s, ok := tt.body.(string); ok {
				body = []byte(s)
			} else {
				body, _ = json.Marshal(tt.body)
			}

			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/tariffs", bytes.NewReader(body))
			New(logger, svc).ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
