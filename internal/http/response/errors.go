package response

import (
	"errors"
	"net/http"
	"strings"

	"github.com/afinadao/membership/internal/paymentprovider"
	"github.com/afinadao/membership/internal/services"
	"github.com/afinadao/membership/internal/services/auth"
	"github.com/afinadao/membership/internal/storage"
)

// HTTPStatus сопоставляет ошибку бизнес-логики HTTP-статусу и безопасному тексту.
func HTTPStatus(err error) (int, string) {
	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, auth.ErrLoginNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, services.ErrForbidden), errors.Is(err, auth.ErrLoginDenied):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, paymentprovider.ErrInvalidSignature):
		return http.StatusUnauthorized, "invalid signature"
	case errors.Is(err, services.ErrInvalidInput):
		return http.StatusUnprocessableEntity, invalidInputMessage(err)
	case errors.Is(err, services.ErrUnavailable):
		return http.StatusConflict, "not available"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// invalidInputMessage отрезает от текста ошибки префиксы вида "pkg.Func: ".
func invalidInputMessage(err error) string {
	msg := err.Error()
	for {
		prefix, rest, ok := strings.Cut(msg, ": ")
		if !ok || strings.Contains(prefix, " ") || !strings.Contains(prefix, ".") {
			return msg
		}
		msg = rest
	}
}
