package models

import "time"

// ActualTariffMode определяет, как вычисляется набор актуальных тарифов.
type ActualTariffMode string

const (
	// ActualTariffSingle один назначенный актуальный тариф.
	ActualTariffSingle ActualTariffMode = "single"
	// ActualTariffAllActive все активные, не архивные и не кастомные тарифы.
	ActualTariffAllActive ActualTariffMode = "all_active"
)

// Settings единственная строка настроек жизненного цикла подписок.
type Settings struct {
	ActualTariffMode ActualTariffMode `json:"actual_tariff_mode"`
	ActualTariffID   *int64           `json:"actual_tariff_id,omitempty"`
	GracePeriodDays  int              `json:"grace_period_days"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// DummySettings запрос админки на изменение настроек.
type DummySettings struct {
	ActualTariffMode string `json:"actual_tariff_mode" validate:"required,oneof=single all_active"`
	ActualTariffID   *int64 `json:"actual_tariff_id" validate:"omitempty,gt=0"`
	GracePeriodDays  int    `json:"grace_period_days" validate:"gte=0,lte=365"`
}

// NotificationText текст уведомления за N дней до окончания подписки.
type NotificationText struct {
	DaysBefore int       `json:"days_before"`
	Text       string    `json:"text"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DummyNotificationText запрос админки на установку текста.
type DummyNotificationText struct {
	Text string `json:"text" validate:"required,max=4000"`
}
