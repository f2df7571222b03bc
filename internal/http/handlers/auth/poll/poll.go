// Package poll реализует опрос статуса запроса входа в админку.
//
// Пока администратор не ответил в Telegram, обработчик возвращает 202.
// После подтверждения запрос обменивается на JWT, который кладётся
// в HttpOnly cookie admin_session. Обмен возможен ровно один раз.
package poll

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/afinadao/membership/internal/http/middlewarectx"
	"github.com/afinadao/membership/internal/http/response"
	"github.com/afinadao/membership/internal/lib/sl"
	"github.com/afinadao/membership/internal/services/auth"
)

// Handler обрабатывает опрос запроса входа.
type Handler struct {
	log          *slog.Logger
	service      Service
	secureCookie bool
}

// Service описывает обмен подтверждённого запроса на сессию.
type Service interface {
	Poll(ctx context.Context, requestID string) (*auth.Session, error)
}

// New создает Handler. secureCookie выставляет флаг Secure у cookie сессии.
func New(log *slog.Logger, service Service, secureCookie bool) *Handler {
	return &Handler{
		log:          log,
		service:      service,
		secureCookie: secureCookie,
	}
}

// ServeHTTP godoc
// @Summary Статус запроса входа
// @Tags auth
// @Produce json
// @Param id path string true "ID запроса входа"
// @Success 200 {object} response.Response
// @Success 202 {object} response.Response
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/admin/login/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.poll"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")
	if id == "" {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing login id"))
		return
	}

	session, err := h.service.Poll(r.Context(), id)
	if errors.Is(err, auth.ErrLoginPending) {
		w.WriteHeader(http.StatusAccepted)
		render.JSON(w, r, response.StatusOKWithData(map[string]any{
			"status": auth.StatusPending,
		}))
		return
	}
	if err != nil {
		log.Info("login poll failed", slog.String("login_id", id), sl.Err(err))
		code, msg := response.HTTPStatus(err)
		w.WriteHeader(code)
		render.JSON(w, r, response.Error(msg))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middlewarectx.SessionCookie,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})

	log.Info("admin session issued", slog.String("login_id", id))
	w.WriteHeader(http.StatusOK)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"status":     auth.StatusApproved,
		"expires_at": session.ExpiresAt,
	}))
}
