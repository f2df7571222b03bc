package upsert

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/afinadao/membership/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Upsert(ctx context.Context, req models.DummyUser) (*models.User, error) {
	args := m.Called(ctx, req)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func TestUpsertHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	req := models.DummyUser{TelegramID: 100, TelegramUsername: "alice"}

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "пользователь сохранён",
			body: `{"telegram_id":100,"telegram_username":"alice"}`,
			setupMock: func(m *MockService) {
				m.On("Upsert", mock.Anything, req).Return(&models.User{ID: 1, TelegramID: 100, TelegramUsername: "alice"}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"telegram_username":"alice"`,
		},
		{
			name:           "нет telegram_id",
			body:           `{"telegram_username":"alice"}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `field TelegramID is a required field`,
		},
		{
			name: "ошибка хранилища",
			body: `{"telegram_id":100,"telegram_username":"alice"}`,
			setupMock: func(m *MockService) {
				m.On("Upsert", mock.Anything, req).Return(nil, errors.New("db"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `internal error`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			rr := httptest.NewRecorder()
			New(logger, svc).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/bot/users", strings.NewReader(tt.body)))

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
