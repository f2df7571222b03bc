package poll

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/afinadao/membership/internal/http/middlewarectx"
	"github.com/afinadao/membership/internal/services/auth"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Poll(ctx context.Context, requestID string) (*auth.Session, error) {
	args := m.Called(ctx, requestID)
	s, _ := args.Get(0).(*auth.Session)
	return s, args.Error(1)
}

func serve(t *testing.T, svc *MockService, id string) *httptest.ResponseRecorder {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/login/"+id, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rr := httptest.NewRecorder()
	New(logger, svc, true).ServeHTTP(rr, req)
	return rr
}

func TestPollHandler_Approved(t *testing.T) {
	expires := time.Date(2025, 3, 11, 7, 0, 0, 0, time.UTC)
	svc := new(MockService)
	svc.On("Poll", mock.Anything, "req-1").Return(&auth.Session{Token: "jwt-token", ExpiresAt: expires}, nil)

	rr := serve(t, svc, "req-1")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"approved"`)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, middlewarectx.SessionCookie, cookies[0].Name)
	assert.Equal(t, "jwt-token", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
	svc.AssertExpectations(t)
}

func TestPollHandler_NotReady(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedBody   string
	}{
		{name: "ожидает подтверждения", err: fmt.Errorf("auth.Poll: %w", auth.ErrLoginPending),
			expectedStatus: http.StatusAccepted, expectedBody: `{"status":"OK","data":{"status":"pending"}}`},
		{name: "отклонён", err: fmt.Errorf("auth.Poll: %w", auth.ErrLoginDenied),
			expectedStatus: http.StatusForbidden, expectedBody: `{"status":"Error","error":"forbidden"}`},
		{name: "истёк или уже использован", err: fmt.Errorf("auth.Poll: %w", auth.ErrLoginNotFound),
			expectedStatus: http.StatusNotFound, expectedBody: `{"status":"Error","error":"not found"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("Poll", mock.Anything, "req-2").Return(nil, tt.err)

			rr := serve(t, svc, "req-2")

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.JSONEq(t, tt.expectedBody, rr.Body.String())
			assert.Empty(t, rr.Result().Cookies())
		})
	}
}
