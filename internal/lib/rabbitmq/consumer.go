package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/streadway/amqp"

	"github.com/afinadao/membership/internal/lib/sl"
)

// ErrPermanent помечает ошибку обработчика, после которой сообщение
// не возвращается в очередь.
var ErrPermanent = errors.New("permanent failure")

// Consumer часть *amqp.Channel, нужная для потребления.
type Consumer interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

// ConsumerMessage запускает потребителя очереди. Одновременно обрабатывается
// не больше 10 сообщений. Возвращает функцию ожидания завершения обработчиков.
func ConsumerMessage(ctx context.Context, ch Consumer, queueName string, log *slog.Logger, handler func(context.Context, []byte) error) (func(), error) {
	const op = "rabbitmq.ConsumerMessage"
	delivery, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log = log.With(slog.String("queue", queueName))
	var wg sync.WaitGroup
	sem := make(chan struct{}, 10)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case d, ok := <-delivery:
				if !ok {
					return
				}
				sem <- struct{}{}
				wg.Add(1)
				go func(d amqp.Delivery) {
					defer wg.Done()
					defer func() { <-sem }()
					handleDelivery(ctx, d, log, handler)
				}(d)
			case <-ctx.Done():
				return
			}
		}
	}()
	return wg.Wait, nil
}

func handleDelivery(ctx context.Context, d amqp.Delivery, log *slog.Logger, handler func(context.Context, []byte) error) {
	if err := handler(ctx, d.Body); err != nil {
		requeue := !errors.Is(err, ErrPermanent) && !d.Redelivered
		log.Error("failed to handle message", sl.Err(err), slog.Bool("requeue", requeue))
		if nackErr := d.Nack(false, requeue); nackErr != nil {
			log.Error("failed to nack message", sl.Err(nackErr))
		}
		return
	}
	if ackErr := d.Ack(false); ackErr != nil {
		log.Error("failed to ack message", sl.Err(ackErr))
	}
}
