// Package start запускает рассылку сообщения всем пользователям бота.
//
// Рассылка идёт в фоне с ограничением скорости, обработчик сразу
// возвращает 202 и число получателей.
package start

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/afinadao/membership/internal/http/response"
	"github.com/afinadao/membership/internal/lib/sl"
)

// Request тело запроса рассылки.
type Request struct {
	Text string `json:"text" validate:"required,max=4096"`
}

// Handler обрабатывает запуск рассылки.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service запускает фоновую рассылку.
type Service interface {
	Start(ctx context.Context, text string) (int, error)
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Запустить рассылку
// @Tags admin
// @Accept json
// @Produce json
// @Param request body Request true "Текст сообщения"
// @Success 202 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Router /api/v1/admin/broadcast [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.broadcast.start"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode request"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err))
		return
	}

	recipients, err := h.service.Start(r.Context(), req.Text)
	if err != nil {
		log.Error("failed to start broadcast", sl.Err(err))
		code, msg := response.HTTPStatus(err)
		w.WriteHeader(code)
		render.JSON(w, r, response.Error(msg))
		return
	}

	log.Info("broadcast started", slog.Int("recipients", recipients))
	w.WriteHeader(http.StatusAccepted)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"recipients": recipients,
	}))
}
