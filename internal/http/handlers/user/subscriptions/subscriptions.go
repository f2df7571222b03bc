// Package subscriptions отдаёт боту подписки пользователя по Telegram id.
package subscriptions

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
	"github.com/afinadao/membership/internal/models"
)

// Handler обрабатывает запрос подписок пользователя.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает выборку подписок пользователя.
type Service interface {
	ListForTelegramUser(ctx context.Context, telegramID int64) ([]*models.SubscriptionInfo, error)
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Подписки пользователя
// @Tags bot
// @Produce json
// @Param X-Bot-Api-Key header string true "API-ключ бота"
// @Param telegramID path int true "Telegram id"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/bot/users/{telegramID}/subscriptions [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.subscriptions"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	telegramID, err := strconv.ParseInt(chi.URLParam(r, "telegramID"), 10, 64)
	if err != nil || telegramID <= 0 {
		log.Info("failed to decode telegram id from url")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode telegram id from url"))
		return
	}

	subs, err := h.service.ListForTelegramUser(r.Context(), telegramID)
	if err != nil {
		log.Error("failed to list subscriptions", sl.Err(err))
		code, msg := response.HTTPStatus(err)
		w.WriteHeader(code)
		render.JSON(w, r, response.Error(msg))
		return
	}

	w.WriteHeader(http.StatusOK)
	render.JSON(w, r, response.StatusOKWithData(subs))
}
