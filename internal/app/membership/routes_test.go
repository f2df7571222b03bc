package membership

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"

	"github.com/afinadao/membership/internal/lib/jwt"
	"github.com/afinadao/membership/internal/lib/secret"
)

type readyChecker struct{}

func (readyChecker) CheckDatabaseReady(context.Context) error { return nil }

type fixedCounter int64

func (c fixedCounter) Incr(context.Context, string, time.Duration) (int64, error) {
	return int64(c), nil
}

func newTestRouter(t *testing.T, counter fixedCounter) http.Handler {
	t.Helper()
	hash, err := secret.Hash("bot-key")
	if err != nil {
		t.Fatal(err)
	}
	r := chi.NewRouter()
	RegisterRoutes(r, slog.New(slog.NewTextHandler(io.Discard, nil)), Services{
		Health:      readyChecker{},
		Sessions:    jwt.NewJWTMaker("secret", time.Hour),
		RateCounter: counter,
	}, RouteConfig{
		BotAPIKeyHash:   hash,
		WebhookSecret:   "hook",
		RateLimit:       10,
		RateLimitWindow: time.Minute,
	})
	return r
}

func TestRoutes_AccessControl(t *testing.T) {
	tests := []struct {
		name       string
		counter    fixedCounter
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{name: "health", method: http.MethodGet, path: "/health", wantStatus: http.StatusOK},
		{name: "admin without session", method: http.MethodGet, path: "/api/v1/admin/subscriptions", wantStatus: http.StatusUnauthorized},
		{name: "admin settings without session", method: http.MethodPut, path: "/api/v1/admin/settings", body: `{}`, wantStatus: http.StatusUnauthorized},
		{name: "bot without key", method: http.MethodPost, path: "/api/v1/bot/users", body: `{}`, wantStatus: http.StatusUnauthorized},
		{name: "webhook without secret", method: http.MethodPost, path: "/telegram/webhook", body: `{}`, wantStatus: http.StatusUnauthorized},
		{name: "login over rate limit", counter: 11, method: http.MethodPost, path: "/api/v1/admin/login", body: `{"telegram_id":1}`, wantStatus: http.StatusTooManyRequests},
		{name: "login validation under limit", counter: 1, method: http.MethodPost, path: "/api/v1/admin/login", body: `{}`, wantStatus: http.StatusBadRequest},
		{name: "unknown route", method: http.MethodGet, path: "/api/v1/nope", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, tt.counter)
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)
			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}
}
