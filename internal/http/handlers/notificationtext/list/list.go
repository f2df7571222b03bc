// Package list отдаёт тексты предупреждений об окончании подписки.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/afinadao/membership/internal/http/response"
	"github.com/afinadao/membership/internal/lib/sl"
	"github.com/afinadao/membership/internal/models"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	ListNotificationTexts(ctx context.Context) ([]*models.NotificationText, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Тексты предупреждений
// @Tags admin
// @Produce json
// @Success 200 {object} response.Response
// @Router /api/v1/admin/notification-texts [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.notificationtext.list"

	texts, err := h.service.ListNotificationTexts(r.Context())
	if err != nil {
		h.log.Error("failed to list notification texts", slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())), sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list notification texts"))
		return
	}

	w.WriteHeader(http.StatusOK)
	render.JSON(w, r, response.StatusOKWithData(texts))
}
