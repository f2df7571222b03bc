// Package webhook принимает обновления Telegram Bot API.
//
// Запрос должен содержать заголовок X-Telegram-Bot-Api-Secret-Token,
// совпадающий с секретом, заданным при регистрации вебхука.
// Ошибки обработки обновления только логируются: Telegram получает 200,
// чтобы не повторять доставку того же обновления.
package webhook

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/afinadao/membership/internal/http/response"
	"github.com/afinadao/membership/internal/lib/sl"
)

// SecretHeader заголовок с секретом вебхука.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// Handler обрабатывает вебхук Telegram.
type Handler struct {
	log     *slog.Logger
	service Service
	secret  string
}

// Service обрабатывает одно обновление бота.
type Service interface {
	HandleUpdate(ctx context.Context, update tgbotapi.Update) error
}

// New создает Handler.
func New(log *slog.Logger, service Service, secret string) *Handler {
	return &Handler{
		log:     log,
		service: service,
		secret:  secret,
	}
}

// ServeHTTP godoc
// @Summary Вебхук Telegram
// @Tags telegram
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Router /telegram/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.telegram.webhook"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	got := r.Header.Get(SecretHeader)
	if h.secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
		log.Warn("invalid webhook secret")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	var update tgbotapi.Update
	if err := render.DecodeJSON(r.Body, &update); err != nil {
		log.Error("failed to decode update", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode request"))
		return
	}

	if err := h.service.HandleUpdate(r.Context(), update); err != nil {
		log.Error("failed to handle update", slog.Int("update_id", update.UpdateID), sl.Err(err))
	}

	w.WriteHeader(http.StatusOK)
	render.JSON(w, r, response.StatusOKWithData(nil))
}
