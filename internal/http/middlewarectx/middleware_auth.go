// Package middlewarectx содержит HTTP middleware сервиса членства.
//
// AdminSession проверяет cookie админской сессии и кладёт в контекст
// id и Telegram id администратора. BotKey проверяет API-ключ бота.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/afinadao/membership/internal/http/response"
	"github.com/afinadao/membership/internal/lib/jwt"
	"github.com/afinadao/membership/internal/lib/secret"
	"github.com/afinadao/membership/internal/lib/sl"
	"github.com/afinadao/membership/internal/services/auth"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// AdminID ключ внутреннего id администратора в контексте.
	AdminID Key = "admin_id"
	// AdminTelegramID ключ Telegram id администратора в контексте.
	AdminTelegramID Key = "admin_telegram_id"
)

// SessionCookie имя cookie админской сессии.
const SessionCookie = "admin_session"

// BotKeyHeader заголовок с API-ключом бота.
const BotKeyHeader = "X-Bot-Api-Key"

// TokenParser описывает разбор JWT админской сессии.
type TokenParser interface {
	ParseToken(tokenStr string) (*jwt.CustomClaims, error)
}

// AdminSession возвращает middleware, который пропускает только запросы
// с валидной cookie админской сессии.
func AdminSession(parser TokenParser, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.AdminSession"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			cookie, err := r.Cookie(SessionCookie)
			if err != nil || cookie.Value == "" {
				log.Info("missing admin session cookie")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("unauthorized"))
				return
			}

			claims, err := parser.ParseToken(cookie.Value)
			if err != nil {
				log.Info("invalid or expired session", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("unauthorized"))
				return
			}
			if claims.Role != auth.RoleAdmin {
				log.Warn("session without admin role", slog.Int64("telegram_id", claims.TelegramID))
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("forbidden"))
				return
			}
			userID, err := claims.UserID()
			if err != nil {
				log.Error("malformed session subject", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("unauthorized"))
				return
			}

			ctx := context.WithValue(r.Context(), AdminID, userID)
			ctx = context.WithValue(ctx, AdminTelegramID, claims.TelegramID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminFromContext возвращает id администратора, положенный AdminSession.
func AdminFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(AdminID).(int64)
	return id, ok
}

// BotKey возвращает middleware, сверяющий заголовок X-Bot-Api-Key с bcrypt-хешем.
// Пустой хеш закрывает доступ полностью.
func BotKey(hash string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.BotKey"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			key := r.Header.Get(BotKeyHeader)
			if hash == "" || key == "" {
				log.Info("missing bot api key")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("unauthorized"))
				return
			}
			if err := secret.Compare(hash, key); err != nil {
				log.Warn("invalid bot api key", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("unauthorized"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
