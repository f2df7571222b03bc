// Package ipn принимает IPN-уведомления NOWPayments.
//
// Тело передаётся в сервис без изменений: подпись считается по исходным байтам.
package ipn

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/afinadao/membership/internal/http/response"
	"github.com/afinadao/membership/internal/lib/sl"
)

// SignatureHeader заголовок с HMAC-подписью тела.
const SignatureHeader = "x-nowpayments-sig"

const maxBodySize = 1 << 20

// Handler обрабатывает IPN.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service проверяет и применяет уведомление о платеже.
type Service interface {
	ProcessIPN(ctx context.Context, body []byte, signature string) error
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary IPN NOWPayments
// @Tags payments
// @Accept json
// @Produce json
// @Param x-nowpayments-sig header string true "HMAC-SHA512 подпись"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/payments/nowpayments/ipn [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.ipn"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		log.Error("failed to read body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to read request"))
		return
	}

	if err := h.service.ProcessIPN(r.Context(), body, r.Header.Get(SignatureHeader)); err != nil {
		log.Error("failed to process ipn", sl.Err(err))
		code, msg := response.HTTPStatus(err)
		w.WriteHeader(code)
		render.JSON(w, r, response.Error(msg))
		return
	}

	w.WriteHeader(http.StatusOK)
	render.JSON(w, r, response.StatusOKWithData(nil))
}
