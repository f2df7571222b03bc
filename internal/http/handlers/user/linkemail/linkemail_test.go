package linkemail

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
	"github.com/afinadao/membership/internal/storage"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) LinkEmail(ctx context.Context, telegramID int64, req models.DummyEmailLink) (*models.User, error) {
	args := m.Called(ctx, telegramID, req)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func TestLinkEmailHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "email сохранён",
			body: `{"email":"a@example.com","google_drive_email":"a@gmail.com"}`,
			setupMock: func(m *MockService) {
				m.On("LinkEmail", mock.Anything, int64(100), models.DummyEmailLink{
					Email: "a@example.com", GoogleDriveEmail: "a@gmail.com",
				}).Return(&models.User{ID: 1, Email: "a@example.com"}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"email":"a@example.com"`,
		},
		{
			name:           "некорректный email",
			body:           `{"email":"nope"}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `field Email must be a valid email`,
		},
		{
			name: "пользователь не найден",
			body: `{"email":"a@example.com"}`,
			setupMock: func(m *MockService) {
				m.On("LinkEmail", mock.Anything, int64(100), models.DummyEmailLink{Email: "a@example.com"}).
					Return(nil, fmt.Errorf("storage.LinkEmail: %w", storage.ErrNotFound))
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `not found`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPut, "/api/v1/bot/users/100/email", strings.NewReader(tt.body))
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("telegramID", "100")
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			rr := httptest.NewRecorder()
			New(logger, svc).ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
