// Package auth реализует вход в админку через подтверждение в Telegram.
//
// Администратор запрашивает вход по своему Telegram id, бот присылает ему
// кнопки «подтвердить» и «отклонить», а страница входа опрашивает статус
// запроса. Запросы хранятся в Redis с TTL, подтверждённый запрос
// обменивается на JWT-сессию ровно один раз.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/afinadao/membership/internal/lib/jwt"
	"github.com/afinadao/membership/internal/lib/sl"
	"github.com/afinadao/membership/internal/metrics"
	"github.com/afinadao/membership/internal/models"
	"github.com/afinadao/membership/internal/services"
	"github.com/afinadao/membership/internal/storage"
)

// RoleAdmin роль в токене админской сессии.
const RoleAdmin = "admin"

const keyPrefix = "admin_login:"

var (
	// ErrLoginNotFound запрос не существует или истёк.
	ErrLoginNotFound = errors.New("login request not found")
	// ErrLoginPending запрос ещё не подтверждён.
	ErrLoginPending = errors.New("login request pending")
	// ErrLoginDenied вход отклонён в Telegram.
	ErrLoginDenied = errors.New("login request denied")
)

// LoginStatus статус запроса на вход.
type LoginStatus string

const (
	StatusPending  LoginStatus = "pending"
	StatusApproved LoginStatus = "approved"
	StatusDenied   LoginStatus = "denied"
)

// LoginRequest запрос на вход, хранится в Redis.
type LoginRequest struct {
	ID         string      `json:"id"`
	UserID     int64       `json:"user_id"`
	TelegramID int64       `json:"telegram_id"`
	Status     LoginStatus `json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
}

// Session выданная админская сессия.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// Store хранилище записей с TTL.
type Store interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	SetKeepTTL(ctx context.Context, key string, value any) (bool, error)
	Take(ctx context.Context, key string, result any) (bool, error)
}

// UserRepository поиск пользователя по Telegram id.
type UserRepository interface {
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
}

// LoginPrompter отправляет администратору кнопки подтверждения.
type LoginPrompter interface {
	SendLoginPrompt(ctx context.Context, chatID int64, requestID string) error
}

// AuthService отвечает за вход в админку.
type AuthService struct {
	users    UserRepository
	store    Store
	prompter LoginPrompter
	jwtMaker jwt.Maker
	loginTTL time.Duration
	tokenTTL time.Duration
	log      *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, store Store, prompter LoginPrompter, jwtMaker jwt.Maker,
	loginTTL, tokenTTL time.Duration, log *slog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		store:    store,
		prompter: prompter,
		jwtMaker: jwtMaker,
		loginTTL: loginTTL,
		tokenTTL: tokenTTL,
		log:      log,
	}
}

// RequestLogin создаёт запрос на вход и отправляет подтверждение в Telegram.
// Незнакомым и не админам возвращается services.ErrForbidden.
func (s *AuthService) RequestLogin(ctx context.Context, telegramID int64) (string, error) {
	const op = "auth.RequestLogin"

	user, err := s.users.GetUserByTelegramID(ctx, telegramID)
	if errors.Is(err, storage.ErrNotFound) {
		return "", fmt.Errorf("%s: %w", op, services.ErrForbidden)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if !user.IsAdmin {
		return "", fmt.Errorf("%s: %w", op, services.ErrForbidden)
	}

	req := LoginRequest{
		ID:         uuid.NewString(),
		UserID:     user.ID,
		TelegramID: telegramID,
		Status:     StatusPending,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.Set(ctx, keyPrefix+req.ID, req, s.loginTTL); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	err = s.prompter.SendLoginPrompt(ctx, telegramID, req.ID)
	metrics.RecordNotification(models.ChannelTelegram, metrics.KindLogin, err)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("admin login requested", slog.String("op", op), slog.Int64("user_id", user.ID))
	return req.ID, nil
}

// Resolve подтверждает или отклоняет запрос. Решать может только тот же
// Telegram-аккаунт. Уже решённый запрос не меняется, возвращается его статус.
func (s *AuthService) Resolve(ctx context.Context, requestID string, telegramID int64, approve bool) (LoginStatus, error) {
	const op = "auth.Resolve"

	var req LoginRequest
	found, err := s.store.Get(ctx, keyPrefix+requestID, &req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return "", fmt.Errorf("%s: %w", op, ErrLoginNotFound)
	}
	if req.TelegramID != telegramID {
		return "", fmt.Errorf("%s: %w", op, services.ErrForbidden)
	}
	if req.Status != StatusPending {
		return req.Status, nil
	}

	req.Status = StatusDenied
	if approve {
		req.Status = StatusApproved
	}
	ok, err := s.store.SetKeepTTL(ctx, keyPrefix+requestID, req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return "", fmt.Errorf("%s: %w", op, ErrLoginNotFound)
	}

	s.log.Info("admin login resolved",
		slog.String("op", op),
		slog.Int64("user_id", req.UserID),
		slog.String("status", string(req.Status)),
	)
	return req.Status, nil
}

// Poll возвращает сессию по подтверждённому запросу и удаляет запрос.
func (s *AuthService) Poll(ctx context.Context, requestID string) (*Session, error) {
	const op = "auth.Poll"

	var req LoginRequest
	found, err := s.store.Get(ctx, keyPrefix+requestID, &req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return nil, fmt.Errorf("%s: %w", op, ErrLoginNotFound)
	}

	switch req.Status {
	case StatusPending:
		return nil, ErrLoginPending
	case StatusDenied:
		return nil, fmt.Errorf("%s: %w", op, ErrLoginDenied)
	}

	found, err = s.store.Take(ctx, keyPrefix+requestID, &req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !found || req.Status != StatusApproved {
		// запрос уже обменян параллельным опросом
		return nil, fmt.Errorf("%s: %w", op, ErrLoginNotFound)
	}

	token, err := s.jwtMaker.GenerateToken(req.UserID, req.TelegramID, RoleAdmin)
	if err != nil {
		s.log.Error("failed to issue session", slog.String("op", op), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Session{Token: token, ExpiresAt: time.Now().Add(s.tokenTTL)}, nil
}
