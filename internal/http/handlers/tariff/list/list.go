// Package list реализует HTTP-обработчик списка тарифов.
//
// Публичный маршрут отдаёт только активный каталог. В админке обработчик
// создаётся с allowArchived и учитывает параметр ?archived=true.
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

// Handler обрабатывает запросы списка тарифов.
type Handler struct {
	log           *slog.Logger
	service       Service
	allowArchived bool
}

// Service описывает чтение каталога тарифов.
type Service interface {
	ListTariffs(ctx context.Context, includeArchived bool) ([]*models.Tariff, error)
}

// New создает Handler.
func New(log *slog.Logger, service Service, allowArchived bool) *Handler {
	return &Handler{
		log:           log,
		service:       service,
		allowArchived: allowArchived,
	}
}

// ServeHTTP godoc
// @Summary Список тарифов
// @Description Возвращает активные тарифы с ценами
// @Tags tariffs
// @Produce json
// @Success 200 {object} response.Response
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/tariffs [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.tariff.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	includeArchived := h.allowArchived && r.URL.Query().Get("archived") == "true"

	tariffs, err := h.service.ListTariffs(r.Context(), includeArchived)
	if err != nil {
		log.Error("failed to list tariffs", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list tariffs"))
		return
	}

	w.WriteHeader(http.StatusOK)
	render.JSON(w, r, response.StatusOKWithData(tariffs))
}
