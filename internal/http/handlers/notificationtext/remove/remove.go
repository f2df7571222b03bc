// Package remove удаляет текст предупреждения. Предупреждения за это
// число дней больше не рассылаются.
package remove

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/afinadao/membership/internal/http/response"
	"github.com/afinadao/membership/internal/lib/sl"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	DeleteNotificationText(ctx context.Context, days int) error
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Удалить текст предупреждения
// @Tags admin
// @Produce json
// @Param days path int true "За сколько дней"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/admin/notification-texts/{days} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.notificationtext.remove"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	days, err := strconv.Atoi(chi.URLParam(r, "days"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode days from url"))
		return
	}

	if err := h.service.DeleteNotificationText(r.Context(), days); err != nil {
		log.Error("failed to delete notification text", sl.Err(err))
		code, msg := response.HTTPStatus(err)
		w.WriteHeader(code)
		render.JSON(w, r, response.Error(msg))
		return
	}

	log.Info("notification text deleted", slog.Int("days", days))
	w.WriteHeader(http.StatusOK)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"deleted_days_before": days,
	}))
}
