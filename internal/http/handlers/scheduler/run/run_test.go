package run

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/afinadao/membership/internal/services/scheduler"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) RunPass(ctx context.Context) (scheduler.PassResult, error) {
	args := m.Called(ctx)
	res, _ := args.Get(0).(scheduler.PassResult)
	return res, args.Error(1)
}

func TestRunHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("проход выполнен", func(t *testing.T) {
		svc := new(MockService)
		svc.On("RunPass", mock.Anything).Return(scheduler.PassResult{Expired: 2, Warned: 5}, nil)

		rr := httptest.NewRecorder()
		New(logger, svc).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/admin/scheduler/run", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"status":"OK","data":{"expired":2,"warned":5,"failed":0}}`, rr.Body.String())
	})

	t.Run("ошибка прохода", func(t *testing.T) {
		svc := new(MockService)
		svc.On("RunPass", mock.Anything).Return(scheduler.PassResult{}, errors.New("db"))

		rr := httptest.NewRecorder()
		New(logger, svc).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/admin/scheduler/run", nil))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}
