package scheduler

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/afinadao/membership/internal/lib/rabbitmq"
)

// Dispatcher передаёт найденную подписку на обработку.
type Dispatcher interface {
	DispatchExpired(ctx context.Context, subscriptionID int64) error
	DispatchUpcoming(ctx context.Context, subscriptionID int64, days int) error
}

// Handler обрабатывает подписки в текущем процессе.
type Handler interface {
	HandleExpired(ctx context.Context, subscriptionID int64) error
	HandleUpcoming(ctx context.Context, subscriptionID int64, days int) error
}

// Job сообщение очереди уведомлений.
type Job struct {
	SubscriptionID int64 `json:"subscription_id"`
	Days           int   `json:"days,omitempty"`
}

// DecodeJob разбирает сообщение очереди.
func DecodeJob(body []byte) (Job, error) {
	var job Job
	if err := json.Unmarshal(body, &job); err != nil {
		return job, fmt.Errorf("decode job: %w", err)
	}
	if job.SubscriptionID <= 0 {
		return job, fmt.Errorf("decode job: invalid subscription id %d", job.SubscriptionID)
	}
	return job, nil
}

// DirectDispatcher вызывает обработчик синхронно.
type DirectDispatcher struct {
	handler Handler
}

// NewDirectDispatcher создает DirectDispatcher.
func NewDirectDispatcher(handler Handler) *DirectDispatcher {
	return &DirectDispatcher{handler: handler}
}

func (d *DirectDispatcher) DispatchExpired(ctx context.Context, subscriptionID int64) error {
	return d.handler.HandleExpired(ctx, subscriptionID)
}

func (d *DirectDispatcher) DispatchUpcoming(ctx context.Context, subscriptionID int64, days int) error {
	return d.handler.HandleUpcoming(ctx, subscriptionID, days)
}

// QueueDispatcher публикует задания в RabbitMQ для cmd/notifier.
type QueueDispatcher struct {
	ch rabbitmq.Publisher
}

// NewQueueDispatcher создает QueueDispatcher.
func NewQueueDispatcher(ch rabbitmq.Publisher) *QueueDispatcher {
	return &QueueDispatcher{ch: ch}
}

func (d *QueueDispatcher) DispatchExpired(_ context.Context, subscriptionID int64) error {
	return rabbitmq.PublishMessage(d.ch, rabbitmq.NotificationsExchange, rabbitmq.RoutingExpired,
		Job{SubscriptionID: subscriptionID})
}

func (d *QueueDispatcher) DispatchUpcoming(_ context.Context, subscriptionID int64, days int) error {
	return rabbitmq.PublishMessage(d.ch, rabbitmq.NotificationsExchange, rabbitmq.RoutingUpcoming,
		Job{SubscriptionID: subscriptionID, Days: days})
}
