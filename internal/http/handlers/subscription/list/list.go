// Package list реализует HTTP-обработчик списка подписок в админке.
//
// Поддерживаются фильтры status и user_id, а также пагинация limit/offset.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/afinadao/membership/internal/http/response"
	"github.com/afinadao/membership/internal/lib/sl"
	"github.com/afinadao/membership/internal/models"
)

// Handler обрабатывает список подписок.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает выборку подписок.
type Service interface {
	List(ctx context.Context, filter models.SubscriptionFilter) ([]*models.SubscriptionInfo, error)
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список подписок
// @Tags admin
// @Produce json
// @Param status query string false "pending, active, expired, cancelled"
// @Param user_id query int false "ID пользователя"
// @Param limit query int false "Размер страницы"
// @Param offset query int false "Смещение"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /api/v1/admin/subscriptions [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		log.Info("invalid query", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid query parameters"))
		return
	}

	subs, err := h.service.List(r.Context(), filter)
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

func parseFilter(q url.Values) (models.SubscriptionFilter, error) {
	var f models.SubscriptionFilter
	if s := q.Get("status"); s != "" {
		st := models.SubscriptionStatus(s)
		f.Status = &st
	}
	if s := q.Get("user_id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return f, err
		}
		f.UserID = &id
	}
	var err error
	if f.Limit, err = atoiOrZero(q.Get("limit")); err != nil {
		return f, err
	}
	if f.Offset, err = atoiOrZero(q.Get("offset")); err != nil {
		return f, err
	}
	return f, nil
}

func atoiOrZero(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
