// Package read отдаёт настройки актуального тарифа.
package read

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

// Handler обрабатывает чтение настроек.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает чтение настроек.
type Service interface {
	GetSettings(ctx context.Context) (*models.Settings, error)
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Настройки актуального тарифа
// @Tags admin
// @Produce json
// @Success 200 {object} response.Response
// @Router /api/v1/admin/settings [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.settings.read"

	settings, err := h.service.GetSettings(r.Context())
	if err != nil {
		h.log.Error("failed to read settings", slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())), sl.Err(err))
		code, msg := response.HTTPStatus(err)
		w.WriteHeader(code)
		render.JSON(w, r, response.Error(msg))
		return
	}

	w.WriteHeader(http.StatusOK)
	render.JSON(w, r, response.StatusOKWithData(settings))
}
