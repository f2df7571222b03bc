package models

import "time"

// SubscriptionStatus статус подписки.
type SubscriptionStatus string

const (
	StatusPending   SubscriptionStatus = "pending"
	StatusActive    SubscriptionStatus = "active"
	StatusExpired   SubscriptionStatus = "expired"
	StatusCancelled SubscriptionStatus = "cancelled"
)

// Valid сообщает, является ли статус одним из известных.
func (s SubscriptionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

// Access описывает флаги выданных внешних доступов.
// Флаги могут быть true только пока подписка активна и не истекла.
type Access struct {
	DiscordRole bool `json:"discord_role_granted"`
	Notion      bool `json:"notion_access_granted"`
	Drive       bool `json:"drive_access_granted"`
}

// Any сообщает, выдан ли хотя бы один доступ.
func (a Access) Any() bool {
	return a.DiscordRole || a.Notion || a.Drive
}

// Merge возвращает объединение двух наборов доступов.
func (a Access) Merge(o Access) Access {
	return Access{
		DiscordRole: a.DiscordRole || o.DiscordRole,
		Notion:      a.Notion || o.Notion,
		Drive:       a.Drive || o.Drive,
	}
}

// Subscription подписка пользователя на тариф.
type Subscription struct {
	ID            int64              `json:"id"`
	UserID        int64              `json:"user_id"`
	TariffID      int64              `json:"tariff_id"`
	TariffPriceID *int64             `json:"tariff_price_id,omitempty"`
	StartDate     time.Time          `json:"start_date"`
	EndDate       time.Time          `json:"end_date"`
	Status        SubscriptionStatus `json:"status"`
	Access        Access             `json:"access"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// ActiveAt сообщает, действует ли подписка в момент now.
func (s *Subscription) ActiveAt(now time.Time) bool {
	return s.Status == StatusActive && s.EndDate.After(now)
}

// SubscriptionInfo подписка вместе с данными пользователя и тарифа,
// которых достаточно для отправки уведомления.
type SubscriptionInfo struct {
	Subscription
	TelegramID int64  `json:"telegram_id"`
	DiscordID  string `json:"discord_id,omitempty"`
	TariffName string `json:"tariff_name"`
}

// SubscriptionFilter параметры выборки подписок для админки.
type SubscriptionFilter struct {
	Status *SubscriptionStatus
	UserID *int64
	Limit  int
	Offset int
}

// DummySubscriptionPatch используется для приёма правок подписки из админки.
// Дата приходит строкой в формате 02-01-2006.
type DummySubscriptionPatch struct {
	EndDate string `json:"end_date" validate:"omitempty"`
	Status  string `json:"status" validate:"omitempty,oneof=pending active expired cancelled"`
}
