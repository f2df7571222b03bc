package models

import "time"

// PaymentStatus статус платежа.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
	PaymentCancelled PaymentStatus = "cancelled"
)

// Payment платёж за подписку. После перехода в completed не изменяется.
type Payment struct {
	ID                int64         `json:"id"`
	SubscriptionID    int64         `json:"subscription_id"`
	UserID            int64         `json:"user_id"`
	OrderID           string        `json:"order_id"`
	Amount            string        `json:"amount"`
	Currency          string        `json:"currency"`
	ProviderPaymentID string        `json:"provider_payment_id,omitempty"`
	InvoiceURL        string        `json:"invoice_url,omitempty"`
	Status            PaymentStatus `json:"status"`
	CreatedAt         time.Time     `json:"created_at"`
	CompletedAt       *time.Time    `json:"completed_at,omitempty"`
}

// DummyPayment запрос бота на создание счёта.
type DummyPayment struct {
	TelegramID    int64 `json:"telegram_id" validate:"required,gt=0"`
	TariffPriceID int64 `json:"tariff_price_id" validate:"required,gt=0"`
}

// Invoice результат создания счёта для пользователя.
type Invoice struct {
	PaymentID      int64  `json:"payment_id"`
	SubscriptionID int64  `json:"subscription_id"`
	OrderID        string `json:"order_id"`
	InvoiceURL     string `json:"invoice_url"`
}

// PaymentCompletion итог зачисления платежа.
type PaymentCompletion struct {
	PaymentID      int64
	UserID         int64
	SubscriptionID int64
	TariffID       int64
	EndDate        time.Time
	// Renewed продлена существующая подписка того же тарифа,
	// подписка-заготовка отменена.
	Renewed bool
}
