// Package update реализует правку подписки администратором.
//
// Handler принимает новую дату окончания (ДД-ММ-ГГГГ) и/или статус.
// После сохранения подписка один раз переоценивается сервисом: при
// прошедшей дате окончания она истекает, а закрытая вручную теряет доступы.
package update

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/afinadao/membership/internal/http/middlewarectx"
	"github.com/afinadao/membership/internal/http/response"
	"github.com/afinadao/membership/internal/lib/sl"
	"github.com/afinadao/membership/internal/models"
)

// Handler обрабатывает правку подписки.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис подписок
	validate *validator.Validate // Валидатор тела запроса
}

// Service описывает правку подписки.
type Service interface {
	Update(ctx context.Context, id int64, patch models.DummySubscriptionPatch) (*models.SubscriptionInfo, error)
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
// @Summary Изменить подписку
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "ID подписки"
// @Param patch body models.DummySubscriptionPatch true "Новая дата окончания и/или статус"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /api/v1/admin/subscriptions/{id} [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.update"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		log.Info("failed to decode id from url")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode id from url"))
		return
	}

	var req models.DummySubscriptionPatch
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

	sub, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		log.Error("failed to update subscription", sl.Err(err))
		code, msg := response.HTTPStatus(err)
		w.WriteHeader(code)
		render.JSON(w, r, response.Error(msg))
		return
	}

	adminID, _ := middlewarectx.AdminFromContext(r.Context())
	log.Info("subscription updated by admin", slog.Int64("subscription_id", id), slog.Int64("admin_id", adminID))
	w.WriteHeader(http.StatusOK)
	render.JSON(w, r, response.StatusOKWithData(sub))
}
