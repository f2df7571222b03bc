// Package membership собирает HTTP API сервиса членства: бот, платежи и админку.
package membership

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/afinadao/membership/internal/cache"
	"github.com/afinadao/membership/internal/clients/discord"
	"github.com/afinadao/membership/internal/clients/telegram"
	"github.com/afinadao/membership/internal/config"
	"github.com/afinadao/membership/internal/lib/jwt"
	"github.com/afinadao/membership/internal/lib/sl"
	"github.com/afinadao/membership/internal/migrations"
	"github.com/afinadao/membership/internal/paymentprovider"
	"github.com/afinadao/membership/internal/services/auth"
	"github.com/afinadao/membership/internal/services/bot"
	"github.com/afinadao/membership/internal/services/broadcast"
	"github.com/afinadao/membership/internal/services/notifier"
	"github.com/afinadao/membership/internal/services/payment"
	"github.com/afinadao/membership/internal/services/scheduler"
	"github.com/afinadao/membership/internal/services/subscription"
	"github.com/afinadao/membership/internal/storage"
)

// App HTTP-приложение сервиса членства.
type App struct {
	server    *http.Server
	logger    *slog.Logger
	db        *storage.Storage
	cache     *cache.Cache
	broadcast *broadcast.BroadcastService
}

// New подключает хранилища и клиенты, применяет миграции и собирает роутер.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	loc, err := cfg.Scheduler.Location()
	if err != nil {
		return nil, err
	}

	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.Redis)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}

	tg, err := telegram.New(cfg.Telegram.BotToken, cfg.Telegram.RateLimit)
	if err != nil {
		_ = cacheRedis.Close()
		_ = db.Close()
		return nil, err
	}
	if cfg.Telegram.WebhookURL != "" && tg.Enabled() {
		if err := tg.SetWebhook(cfg.Telegram.WebhookURL, cfg.Telegram.WebhookSecret); err != nil {
			logger.Error("failed to register telegram webhook", sl.Err(err))
		} else {
			logger.Info("telegram webhook registered", slog.String("bot", tg.Username()))
		}
	}
	dc := discord.NewClient(cfg.Discord.BotToken, cfg.Discord.GuildID, cfg.Discord.APIURL)
	provider := paymentprovider.NewClient(cfg.NOWPayments.APIKey, cfg.NOWPayments.IPNSecret, cfg.NOWPayments.APIURL)
	jwtMaker := jwt.NewJWTMaker(cfg.JWT.SecretKey, cfg.JWT.TokenTTL)

	notifierService := notifier.New(db, tg, dc, loc, logger)
	authService := auth.NewAuthService(db, cacheRedis, tg, jwtMaker, cfg.Admin.LoginTTL, cfg.JWT.TokenTTL, logger)
	broadcastService := broadcast.New(db, tg, cfg.Telegram.BroadcastDelay, logger)

	services := Services{
		Health:        db,
		Subscriptions: subscription.NewSubscriptionService(db, notifierService, logger),
		Catalog:       subscription.NewCatalogService(db, cacheRedis, logger),
		Users:         subscription.NewUserService(db, logger),
		Payments: payment.New(db, provider, tg, dc, payment.URLs{
			IPNCallback: cfg.NOWPayments.IPNCallbackURL,
			Success:     cfg.NOWPayments.SuccessURL,
			Cancel:      cfg.NOWPayments.CancelURL,
		}, loc, logger),
		Auth:      authService,
		Bot:       bot.New(db, tg, authService, loc, logger),
		Broadcast: broadcastService,
		// Ручной проход из админки всегда обрабатывает уведомления в процессе API.
		Scheduler:   scheduler.NewSchedulerService(db, scheduler.NewDirectDispatcher(notifierService), loc, logger),
		Sessions:    jwtMaker,
		RateCounter: cacheRedis,
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, services, RouteConfig{
		BotAPIKeyHash:   cfg.BotAPIKeyHash,
		WebhookSecret:   cfg.Telegram.WebhookSecret,
		CookieSecure:    cfg.Admin.CookieSecure,
		RateLimit:       cfg.Admin.RateLimit,
		RateLimitWindow: cfg.Admin.RateLimitWindow,
	})

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	return &App{
		server:    srv,
		logger:    logger,
		db:        db,
		cache:     cacheRedis,
		broadcast: broadcastService,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его при отмене ctx.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	a.broadcast.Wait()
	if err := a.cache.Close(); err != nil {
		a.logger.Error("failed to close redis", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}
