// Package scheduler содержит приложение планировщика жизненного цикла подписок.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/streadway/amqp"

	"github.com/afinadao/membership/internal/clients/discord"
	"github.com/afinadao/membership/internal/clients/telegram"
	"github.com/afinadao/membership/internal/config"
	"github.com/afinadao/membership/internal/lib/rabbitmq"
	"github.com/afinadao/membership/internal/lib/sl"
	"github.com/afinadao/membership/internal/services/notifier"
	schedulerservice "github.com/afinadao/membership/internal/services/scheduler"
	"github.com/afinadao/membership/internal/storage"
)

// App представляет приложение планировщика.
type App struct {
	schedulerService *schedulerservice.SchedulerService
	cron             *cron.Cron
	db               *storage.Storage
	conn             *amqp.Connection
	ch               *amqp.Channel
	logger           *slog.Logger
}

func waitForDB(ctx context.Context, db *storage.Storage) error {
	for range 10 {
		err := db.CheckDatabaseReady(ctx)
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(3 * time.Second):
		}
	}
	return fmt.Errorf("database not ready after retries")
}

// New создает новый экземпляр приложения планировщика.
// При dispatch=rabbitmq задания публикуются в очередь, иначе
// уведомления отправляются прямо из процесса планировщика.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	loc, err := cfg.Scheduler.Location()
	if err != nil {
		return nil, err
	}

	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err := waitForDB(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	app := &App{db: db, logger: logger}

	var dispatcher schedulerservice.Dispatcher
	switch cfg.Scheduler.Dispatch {
	case "rabbitmq":
		conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
		}
		ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
		if err != nil {
			closeResources(nil, conn, logger)
			_ = db.Close()
			return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
		}
		app.conn, app.ch = conn, ch
		dispatcher = schedulerservice.NewQueueDispatcher(ch)
	default:
		tg, err := telegram.New(cfg.Telegram.BotToken, cfg.Telegram.RateLimit)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		dc := discord.NewClient(cfg.Discord.BotToken, cfg.Discord.GuildID, cfg.Discord.APIURL)
		dispatcher = schedulerservice.NewDirectDispatcher(notifier.New(db, tg, dc, loc, logger))
	}

	app.schedulerService = schedulerservice.NewSchedulerService(db, dispatcher, loc, logger)
	app.cron = cron.New(cron.WithLocation(loc))
	if _, err := app.cron.AddFunc(cfg.Scheduler.Schedule, func() { app.pass(ctx) }); err != nil {
		app.close()
		return nil, fmt.Errorf("invalid schedule %q: %w", cfg.Scheduler.Schedule, err)
	}
	logger.Info("scheduler configured",
		slog.String("schedule", cfg.Scheduler.Schedule),
		slog.String("timezone", loc.String()),
		slog.String("dispatch", cfg.Scheduler.Dispatch),
	)
	return app, nil
}

func (a *App) pass(ctx context.Context) {
	res, err := a.schedulerService.RunPass(ctx)
	if err != nil {
		a.logger.Error("scheduler pass failed", sl.Err(err))
		return
	}
	a.logger.Info("scheduler pass finished",
		slog.Int("expired", res.Expired),
		slog.Int("warned", res.Warned),
		slog.Int("failed", res.Failed),
	)
}

func closeResources(ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", sl.Err(err))
		}
	}
}

func (a *App) close() {
	closeResources(a.ch, a.conn, a.logger)
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}

// Run запускает cron и ждёт отмены ctx. Начатый проход доводится до конца.
func (a *App) Run(ctx context.Context) error {
	a.cron.Start()

	<-ctx.Done()
	a.logger.Info("shutting down scheduler service")

	<-a.cron.Stop().Done()
	a.close()
	return nil
}
