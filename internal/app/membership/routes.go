package membership

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	auditlist "github.com/afinadao/membership/internal/http/handlers/audit/list"
	"github.com/afinadao/membership/internal/http/handlers/auth/login"
	"github.com/afinadao/membership/internal/http/handlers/auth/logout"
	"github.com/afinadao/membership/internal/http/handlers/auth/poll"
	broadcaststart "github.com/afinadao/membership/internal/http/handlers/broadcast/start"
	"github.com/afinadao/membership/internal/http/handlers/health"
	textlist "github.com/afinadao/membership/internal/http/handlers/notificationtext/list"
	textremove "github.com/afinadao/membership/internal/http/handlers/notificationtext/remove"
	textupsert "github.com/afinadao/membership/internal/http/handlers/notificationtext/upsert"
	"github.com/afinadao/membership/internal/http/handlers/payment/invoice"
	"github.com/afinadao/membership/internal/http/handlers/payment/ipn"
	schedulerrun "github.com/afinadao/membership/internal/http/handlers/scheduler/run"
	settingsread "github.com/afinadao/membership/internal/http/handlers/settings/read"
	settingsupdate "github.com/afinadao/membership/internal/http/handlers/settings/update"
	subcancel "github.com/afinadao/membership/internal/http/handlers/subscription/cancel"
	sublist "github.com/afinadao/membership/internal/http/handlers/subscription/list"
	subupdate "github.com/afinadao/membership/internal/http/handlers/subscription/update"
	tariffarchive "github.com/afinadao/membership/internal/http/handlers/tariff/archive"
	tariffcreate "github.com/afinadao/membership/internal/http/handlers/tariff/create"
	tarifflist "github.com/afinadao/membership/internal/http/handlers/tariff/list"
	"github.com/afinadao/membership/internal/http/handlers/telegram/webhook"
	"github.com/afinadao/membership/internal/http/handlers/user/linkdiscord"
	"github.com/afinadao/membership/internal/http/handlers/user/linkemail"
	"github.com/afinadao/membership/internal/http/handlers/user/subscriptions"
	"github.com/afinadao/membership/internal/http/handlers/user/upsert"
	"github.com/afinadao/membership/internal/http/middlewarectx"
	"github.com/afinadao/membership/internal/services/auth"
	"github.com/afinadao/membership/internal/services/bot"
	"github.com/afinadao/membership/internal/services/broadcast"
	"github.com/afinadao/membership/internal/services/payment"
	"github.com/afinadao/membership/internal/services/scheduler"
	"github.com/afinadao/membership/internal/services/subscription"
)

// Services сервисы, которые обслуживают HTTP-маршруты.
type Services struct {
	Health        health.Checker
	Subscriptions *subscription.SubscriptionService
	Catalog       *subscription.CatalogService
	Users         *subscription.UserService
	Payments      *payment.PaymentService
	Auth          *auth.AuthService
	Bot           *bot.BotService
	Broadcast     *broadcast.BroadcastService
	Scheduler     *scheduler.SchedulerService
	Sessions      middlewarectx.TokenParser
	RateCounter   middlewarectx.Counter
}

// RouteConfig параметры доступа к маршрутам.
type RouteConfig struct {
	BotAPIKeyHash   string
	WebhookSecret   string
	CookieSecure    bool
	RateLimit       int
	RateLimitWindow time.Duration
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, s Services, rc RouteConfig) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middlewarectx.Metrics,
	)

	r.Get("/health", health.New(logger, s.Health).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
	r.Post("/telegram/webhook", webhook.New(logger, s.Bot, rc.WebhookSecret).ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Get("/tariffs", tarifflist.New(logger, s.Catalog, false).ServeHTTP)
		r.Post("/payments/nowpayments/ipn", ipn.New(logger, s.Payments).ServeHTTP)

		// Конечные точки бота
		r.Route("/bot", func(r chi.Router) {
			r.Use(middlewarectx.BotKey(rc.BotAPIKeyHash, logger))
			r.Post("/users", upsert.New(logger, s.Users).ServeHTTP)
			r.Get("/users/{telegramID}/subscriptions", subscriptions.New(logger, s.Subscriptions).ServeHTTP)
			r.Put("/users/{telegramID}/discord", linkdiscord.New(logger, s.Users).ServeHTTP)
			r.Put("/users/{telegramID}/email", linkemail.New(logger, s.Users).ServeHTTP)
			r.Post("/payments", invoice.New(logger, s.Payments).ServeHTTP)
		})

		r.Route("/admin", func(r chi.Router) {
			// Вход в админку
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RateLimit(s.RateCounter, rc.RateLimit, rc.RateLimitWindow, logger))
				r.Post("/login", login.New(logger, s.Auth).ServeHTTP)
				r.Get("/login/{id}", poll.New(logger, s.Auth, rc.CookieSecure).ServeHTTP)
			})

			// Группа с cookie-сессией
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.AdminSession(s.Sessions, logger))
				r.Post("/logout", logout.New(logger, rc.CookieSecure).ServeHTTP)

				r.Get("/subscriptions", sublist.New(logger, s.Subscriptions).ServeHTTP)
				r.Patch("/subscriptions/{id}", subupdate.New(logger, s.Subscriptions).ServeHTTP)
				r.Post("/subscriptions/{id}/cancel", subcancel.New(logger, s.Subscriptions).ServeHTTP)

				r.Get("/settings", settingsread.New(logger, s.Catalog).ServeHTTP)
				r.Put("/settings", settingsupdate.New(logger, s.Catalog).ServeHTTP)

				r.Get("/notification-texts", textlist.New(logger, s.Catalog).ServeHTTP)
				r.Put("/notification-texts/{days}", textupsert.New(logger, s.Catalog).ServeHTTP)
				r.Delete("/notification-texts/{days}", textremove.New(logger, s.Catalog).ServeHTTP)

				r.Get("/tariffs", tarifflist.New(logger, s.Catalog, true).ServeHTTP)
				r.Post("/tariffs", tariffcreate.New(logger, s.Catalog).ServeHTTP)
				r.Post("/tariffs/{id}/archive", tariffarchive.New(logger, s.Catalog).ServeHTTP)

				r.Get("/audit-log", auditlist.New(logger, s.Users).ServeHTTP)
				r.Post("/broadcast", broadcaststart.New(logger, s.Broadcast).ServeHTTP)
				r.Post("/scheduler/run", schedulerrun.New(logger, s.Scheduler).ServeHTTP)
			})
		})
	})
}
