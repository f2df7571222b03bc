// Package models содержит доменные структуры сервиса членства Afina DAO:
// пользователей, подписки, платежи, тарифы, настройки и записи аудита.
package models

import "time"

// User представляет участника сообщества. Основной канал входа Telegram.
type User struct {
	ID               int64     `json:"id"`
	TelegramID       int64     `json:"telegram_id"`
	TelegramUsername string    `json:"telegram_username,omitempty"`
	FirstName        string    `json:"first_name,omitempty"`
	DiscordID        string    `json:"discord_id,omitempty"`
	DiscordUsername  string    `json:"discord_username,omitempty"`
	Email            string    `json:"email,omitempty"`
	GoogleDriveEmail string    `json:"google_drive_email,omitempty"`
	IsAdmin          bool      `json:"is_admin"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// DummyUser используется для приёма данных пользователя от бота.
type DummyUser struct {
	TelegramID       int64  `json:"telegram_id" validate:"required,gt=0"`
	TelegramUsername string `json:"telegram_username" validate:"omitempty,max=64"`
	FirstName        string `json:"first_name" validate:"omitempty,max=128"`
}

// DummyDiscordLink запрос на привязку Discord-аккаунта.
type DummyDiscordLink struct {
	DiscordID       string `json:"discord_id" validate:"required,numeric"`
	DiscordUsername string `json:"discord_username" validate:"omitempty,max=64"`
}

// DummyEmailLink запрос на привязку почты и почты Google Drive.
type DummyEmailLink struct {
	Email            string `json:"email" validate:"omitempty,email"`
	GoogleDriveEmail string `json:"google_drive_email" validate:"omitempty,email"`
}
