package models

import "time"

// Tariff запись каталога тарифов.
type Tariff struct {
	ID            int64         `json:"id"`
	Name          string        `json:"name"`
	Description   string        `json:"description,omitempty"`
	IsActive      bool          `json:"is_active"`
	IsArchived    bool          `json:"is_archived"`
	IsCustom      bool          `json:"is_custom"`
	DiscordRoleID string        `json:"discord_role_id,omitempty"`
	Prices        []TariffPrice `json:"prices,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}

// TariffPrice цена тарифа за период.
type TariffPrice struct {
	ID         int64  `json:"id"`
	TariffID   int64  `json:"tariff_id"`
	PeriodDays int    `json:"period_days"`
	Amount     string `json:"amount"`
	Currency   string `json:"currency"`
}

// DummyTariff запрос админки на создание тарифа.
type DummyTariff struct {
	Name          string             `json:"name" validate:"required,max=128"`
	Description   string             `json:"description" validate:"omitempty,max=1024"`
	IsCustom      bool               `json:"is_custom"`
	DiscordRoleID string             `json:"discord_role_id" validate:"omitempty,numeric"`
	Prices        []DummyTariffPrice `json:"prices" validate:"required,min=1,dive"`
}

// DummyTariffPrice цена в запросе на создание тарифа.
type DummyTariffPrice struct {
	PeriodDays int    `json:"period_days" validate:"required,gt=0"`
	Amount     string `json:"amount" validate:"required,numeric"`
	Currency   string `json:"currency" validate:"required,alpha,max=10"`
}
