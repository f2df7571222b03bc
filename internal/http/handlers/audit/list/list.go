// Package list отдаёт журнал уведомлений и изменений доступа.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/afinadao/membership/internal/http/response"
	"github.com/afinadao/membership/internal/lib/sl"
	"github.com/afinadao/membership/internal/models"
)

// Handler обрабатывает чтение журнала.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает чтение журнала.
type Service interface {
	ListAudit(ctx context.Context, userID *int64, limit, offset int) ([]*models.AuditEntry, error)
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Журнал событий
// @Tags admin
// @Produce json
// @Param user_id query int false "ID пользователя"
// @Param limit query int false "Размер страницы"
// @Param offset query int false "Смещение"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Router /api/v1/admin/audit-log [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.audit.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	q := r.URL.Query()
	var userID *int64
	if s := q.Get("user_id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid query parameters"))
			return
		}
		userID = &id
	}
	limit, errLimit := atoiOrZero(q.Get("limit"))
	offset, errOffset := atoiOrZero(q.Get("offset"))
	if errLimit != nil || errOffset != nil {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid query parameters"))
		return
	}

	entries, err := h.service.ListAudit(r.Context(), userID, limit, offset)
	if err != nil {
		log.Error("failed to list audit log", sl.Err(err))
		code, msg := response.HTTPStatus(err)
		w.WriteHeader(code)
		render.JSON(w, r, response.Error(msg))
		return
	}

	w.WriteHeader(http.StatusOK)
	render.JSON(w, r, response.StatusOKWithData(entries))
}

func atoiOrZero(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
