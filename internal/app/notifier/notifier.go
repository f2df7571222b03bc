// Package notifier содержит приложение, обрабатывающее задания
// планировщика из RabbitMQ.
package notifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/afinadao/membership/internal/clients/discord"
	"github.com/afinadao/membership/internal/clients/telegram"
	"github.com/afinadao/membership/internal/config"
	"github.com/afinadao/membership/internal/lib/rabbitmq"
	"github.com/afinadao/membership/internal/lib/sl"
	notifierservice "github.com/afinadao/membership/internal/services/notifier"
	"github.com/afinadao/membership/internal/services/scheduler"
	"github.com/afinadao/membership/internal/storage"
)

// App потребитель очередей уведомлений.
type App struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	db       *storage.Storage
	notifier *notifierservice.Notifier
	logger   *slog.Logger
}

// New подключает хранилище, RabbitMQ и клиенты мессенджеров.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	loc, err := cfg.Scheduler.Location()
	if err != nil {
		return nil, err
	}
	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		_ = db.Close()
		return nil, err
	}

	tg, err := telegram.New(cfg.Telegram.BotToken, cfg.Telegram.RateLimit)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		_ = db.Close()
		return nil, err
	}
	dc := discord.NewClient(cfg.Discord.BotToken, cfg.Discord.GuildID, cfg.Discord.APIURL)

	return &App{
		conn:     conn,
		ch:       ch,
		db:       db,
		notifier: notifierservice.New(db, tg, dc, loc, logger),
		logger:   logger,
	}, nil
}

// HandleExpiredJob обрабатывает сообщение очереди истёкших подписок.
func HandleExpiredJob(n scheduler.Handler) func(context.Context, []byte) error {
	return func(ctx context.Context, body []byte) error {
		job, err := scheduler.DecodeJob(body)
		if err != nil {
			return fmt.Errorf("%w: %w", rabbitmq.ErrPermanent, err)
		}
		return n.HandleExpired(ctx, job.SubscriptionID)
	}
}

// HandleUpcomingJob обрабатывает сообщение очереди предупреждений.
func HandleUpcomingJob(n scheduler.Handler) func(context.Context, []byte) error {
	return func(ctx context.Context, body []byte) error {
		job, err := scheduler.DecodeJob(body)
		if err != nil {
			return fmt.Errorf("%w: %w", rabbitmq.ErrPermanent, err)
		}
		if job.Days <= 0 {
			return fmt.Errorf("%w: invalid days %d", rabbitmq.ErrPermanent, job.Days)
		}
		return n.HandleUpcoming(ctx, job.SubscriptionID, job.Days)
	}
}

// Run запускает потребителей и ждёт отмены ctx.
func (a *App) Run(ctx context.Context) error {
	waitExpired, err := rabbitmq.ConsumerMessage(ctx, a.ch, rabbitmq.QueueExpired, a.logger, HandleExpiredJob(a.notifier))
	if err != nil {
		a.logger.Error("failed to start consumer", slog.String("queue", rabbitmq.QueueExpired), sl.Err(err))
		return err
	}
	waitUpcoming, err := rabbitmq.ConsumerMessage(ctx, a.ch, rabbitmq.QueueUpcoming, a.logger, HandleUpcomingJob(a.notifier))
	if err != nil {
		a.logger.Error("failed to start consumer", slog.String("queue", rabbitmq.QueueUpcoming), sl.Err(err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("notifier service shutting down gracefully")
	waitExpired()
	waitUpcoming()

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
	return nil
}
