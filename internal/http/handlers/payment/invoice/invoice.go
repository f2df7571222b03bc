// Package invoice реализует создание инвойса NOWPayments по запросу бота.
package invoice

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/afinadao/membership/internal/http/response"
	"github.com/afinadao/membership/internal/lib/sl"
	"github.com/afinadao/membership/internal/models"
)

// Handler обрабатывает создание инвойса.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service создает ожидающий платёж и инвойс у провайдера.
type Service interface {
	CreateInvoice(ctx context.Context, req models.DummyPayment) (*models.Invoice, error)
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
// @Summary Создать инвойс
// @Description Создаёт ожидающую подписку и платёж, возвращает ссылку на оплату
// @Tags bot
// @Accept json
// @Produce json
// @Param X-Bot-Api-Key header string true "API-ключ бота"
// @Param payment body models.DummyPayment true "Telegram id и цена тарифа"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Router /api/v1/bot/payments [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.invoice"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyPayment
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

	invoice, err := h.service.CreateInvoice(r.Context(), req)
	if err != nil {
		log.Error("failed to create invoice", sl.Err(err))
		code, msg := response.HTTPStatus(err)
		w.WriteHeader(code)
		render.JSON(w, r, response.Error(msg))
		return
	}

	log.Info("invoice created", slog.String("order_id", invoice.OrderID))
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(invoice))
}
