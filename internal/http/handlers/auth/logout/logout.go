// Package logout завершает админскую сессию, удаляя cookie.
package logout

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/afinadao/membership/internal/http/middlewarectx"
	"github.com/afinadao/membership/internal/http/response"
)

// Handler обрабатывает выход.
type Handler struct {
	log          *slog.Logger
	secureCookie bool
}

// New создает Handler.
func New(log *slog.Logger, secureCookie bool) *Handler {
	return &Handler{
		log:          log,
		secureCookie: secureCookie,
	}
}

// ServeHTTP godoc
// @Summary Выйти из админки
// @Tags auth
// @Produce json
// @Success 200 {object} response.Response
// @Router /api/v1/admin/logout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"

	http.SetCookie(w, &http.Cookie{
		Name:     middlewarectx.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})

	h.log.Info("admin logged out", slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())))
	w.WriteHeader(http.StatusOK)
	render.JSON(w, r, response.StatusOKWithData(nil))
}
