// Package run запускает один проход планировщика вручную из админки.
package run

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/afinadao/membership/internal/http/response"
	"github.com/afinadao/membership/internal/lib/sl"
	"github.com/afinadao/membership/internal/services/scheduler"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

// Service выполняет один проход планировщика.
type Service interface {
	RunPass(ctx context.Context) (scheduler.PassResult, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Запустить проход планировщика
// @Tags admin
// @Produce json
// @Success 200 {object} response.Response
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/admin/scheduler/run [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.scheduler.run"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	res, err := h.service.RunPass(r.Context())
	if err != nil {
		log.Error("scheduler pass failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("scheduler pass failed"))
		return
	}

	log.Info("scheduler pass finished", slog.Int("expired", res.Expired), slog.Int("warned", res.Warned))
	w.WriteHeader(http.StatusOK)
	render.JSON(w, r, response.StatusOKWithData(res))
}
