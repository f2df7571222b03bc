package list

import (
	"context"
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

func (m *MockService) ListAudit(ctx context.Context, userID *int64, limit, offset int) ([]*models.AuditEntry, error) {
	args := m.Called(ctx, userID, limit, offset)
	res, _ := args.Get(0).([]*models.AuditEntry)
	return res, args.Error(1)
}

func TestAuditListHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("фильтр по пользователю", func(t *testing.T) {
		svc := new(MockService)
		svc.On("ListAudit", mock.Anything, mock.MatchedBy(func(id *int64) bool { return id != nil && *id == 4 }), 20, 40).
			Return([]*models.AuditEntry{{ID: 1, UserID: 4, Event: models.EventExpired, Channel: models.ChannelTelegram}}, nil)

		rr := httptest.NewRecorder()
		New(logger, svc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/admin/audit-log?user_id=4&limit=20&offset=40", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"user_id":4`)
		svc.AssertExpectations(t)
	})

	t.Run("без фильтра", func(t *testing.T) {
		svc := new(MockService)
		svc.On("ListAudit", mock.Anything, (*int64)(nil), 0, 0).Return([]*models.AuditEntry{}, nil)

		rr := httptest.NewRecorder()
		New(logger, svc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/admin/audit-log", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		svc.AssertExpectations(t)
	})

	t.Run("некорректный user_id", func(t *testing.T) {
		svc := new(MockService)

		rr := httptest.NewRecorder()
		New(logger, svc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/admin/audit-log?user_id=x", nil))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		svc.AssertNotCalled(t, "ListAudit")
	})
}
