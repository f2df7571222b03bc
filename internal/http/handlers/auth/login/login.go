// Package login реализует HTTP-обработчик запроса входа в админку.
//
// Handler принимает Telegram id администратора и создаёт запрос на вход.
// Бот отправляет администратору кнопки подтверждения, а клиент
// опрашивает статус запроса через пакет poll.
package login

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

// Request тело запроса входа.
type Request struct {
	TelegramID int64 `json:"telegram_id" validate:"required,gt=0"`
}

// Handler обрабатывает запрос на вход.
type Handler struct {
	log      *slog.Logger // Логгер для записи информации и ошибок
	service  Service      // Сервис входа
	validate *validator.Validate
}

// Service описывает создание запроса на вход.
type Service interface {
	RequestLogin(ctx context.Context, telegramID int64) (string, error)
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
// @Summary Запросить вход в админку
// @Description Отправляет администратору в Telegram кнопки подтверждения входа
// @Tags auth
// @Accept json
// @Produce json
// @Param request body Request true "Telegram id администратора"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 429 {object} response.ErrorResponse
// @Router /api/v1/admin/login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"

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
		log.Info("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err))
		return
	}

	id, err := h.service.RequestLogin(r.Context(), req.TelegramID)
	if err != nil {
		log.Warn("login request rejected", slog.Int64("telegram_id", req.TelegramID), sl.Err(err))
		code, msg := response.HTTPStatus(err)
		w.WriteHeader(code)
		render.JSON(w, r, response.Error(msg))
		return
	}

	log.Info("login requested", slog.String("login_id", id))
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"login_id": id,
	}))
}
