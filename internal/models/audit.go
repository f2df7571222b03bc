package models

import (
	"strconv"
	"time"
)

// События аудита.
const (
	EventExpired        = "subscription_expired"
	EventAccessRevoked  = "access_revoked"
	EventAccessKept     = "access_kept"
	EventAccessGranted  = "access_granted"
	EventPaymentSuccess = "payment_completed"
	EventCancelled      = "subscription_cancelled"
)

// Каналы доставки.
const (
	ChannelTelegram = "telegram"
	ChannelDiscord  = "discord"
	ChannelSystem   = "system"
)

// WarningEvent возвращает имя события предупреждения за days дней для периода,
// который заканчивается endDate. Продление меняет endDate, и для нового периода
// предупреждение отправляется заново.
func WarningEvent(days int, endDate time.Time) string {
	return "warning_" + strconv.Itoa(days) + "_" + endDate.Format(time.DateOnly)
}

// AuditEntry запись журнала аудита.
type AuditEntry struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	SubscriptionID *int64    `json:"subscription_id,omitempty"`
	Event          string    `json:"event"`
	Channel        string    `json:"channel"`
	Message        string    `json:"message,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
