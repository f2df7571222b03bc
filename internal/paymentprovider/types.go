package paymentprovider

import "encoding/json"

// CreateInvoiceRequest тело запроса POST /invoice.
type CreateInvoiceRequest struct {
	PriceAmount      json.Number `json:"price_amount"`
	PriceCurrency    string      `json:"price_currency"`
	OrderID          string      `json:"order_id"`
	OrderDescription string      `json:"order_description,omitempty"`
	IPNCallbackURL   string      `json:"ipn_callback_url,omitempty"`
	SuccessURL       string      `json:"success_url,omitempty"`
	CancelURL        string      `json:"cancel_url,omitempty"`
}

// CreateInvoiceResponse ответ NOWPayments на создание счёта.
type CreateInvoiceResponse struct {
	ID         string `json:"id"`
	OrderID    string `json:"order_id"`
	InvoiceURL string `json:"invoice_url"`
}

// Статусы платежа в IPN.
const (
	IPNStatusWaiting       = "waiting"
	IPNStatusConfirming    = "confirming"
	IPNStatusConfirmed     = "confirmed"
	IPNStatusSending       = "sending"
	IPNStatusPartiallyPaid = "partially_paid"
	IPNStatusFinished      = "finished"
	IPNStatusFailed        = "failed"
	IPNStatusRefunded      = "refunded"
	IPNStatusExpired       = "expired"
)

// IPNPayload уведомление NOWPayments о смене статуса платежа.
type IPNPayload struct {
	PaymentID     json.Number `json:"payment_id"`
	InvoiceID     json.Number `json:"invoice_id"`
	PaymentStatus string      `json:"payment_status"`
	OrderID       string      `json:"order_id"`
	PriceAmount   json.Number `json:"price_amount"`
	PriceCurrency string      `json:"price_currency"`
	ActuallyPaid  json.Number `json:"actually_paid"`
	PayCurrency   string      `json:"pay_currency"`
}
