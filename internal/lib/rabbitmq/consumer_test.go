package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

type fakeAcknowledger struct {
	mu      sync.Mutex
	acked   []uint64
	nacked  []uint64
	requeue []bool
}

func (a *fakeAcknowledger) Ack(tag uint64, _ bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acked = append(a.acked, tag)
	return nil
}

func (a *fakeAcknowledger) Nack(tag uint64, _ bool, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacked = append(a.nacked, tag)
	a.requeue = append(a.requeue, requeue)
	return nil
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

type fakeConsumer struct {
	deliveries chan amqp.Delivery
	err        error
}

func (c *fakeConsumer) Consume(string, string, bool, bool, bool, bool, amqp.Table) (<-chan amqp.Delivery, error) {
	return c.deliveries, c.err
}

func TestConsumerMessage_AckAndNack(t *testing.T) {
	ack := &fakeAcknowledger{}
	consumer := &fakeConsumer{deliveries: make(chan amqp.Delivery, 3)}
	consumer.deliveries <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: []byte("ok")}
	consumer.deliveries <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 2, Body: []byte("retry")}
	consumer.deliveries <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 3, Body: []byte("bad")}
	close(consumer.deliveries)

	handler := func(_ context.Context, body []byte) error {
		switch string(body) {
		case "retry":
			return errors.New("temporary")
		case "bad":
			return fmt.Errorf("decode: %w", ErrPermanent)
		}
		return nil
	}

	wait, err := ConsumerMessage(context.Background(), consumer, QueueExpired, newNoopLogger(), handler)
	require.NoError(t, err)
	wait()

	assert.Equal(t, []uint64{1}, ack.acked)
	require.Len(t, ack.nacked, 2)
	got := map[uint64]bool{}
	for i, tag := range ack.nacked {
		got[tag] = ack.requeue[i]
	}
	assert.True(t, got[2])
	assert.False(t, got[3])
}

func TestConsumerMessage_RedeliveredNotRequeued(t *testing.T) {
	ack := &fakeAcknowledger{}
	consumer := &fakeConsumer{deliveries: make(chan amqp.Delivery, 1)}
	consumer.deliveries <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 5, Redelivered: true}
	close(consumer.deliveries)

	wait, err := ConsumerMessage(context.Background(), consumer, QueueUpcoming, newNoopLogger(), func(context.Context, []byte) error {
		return errors.New("still failing")
	})
	require.NoError(t, err)
	wait()

	assert.Equal(t, []uint64{5}, ack.nacked)
	assert.Equal(t, []bool{false}, ack.requeue)
}

func TestConsumerMessage_ConsumeError(t *testing.T) {
	consumer := &fakeConsumer{err: errors.New("no channel")}

	_, err := ConsumerMessage(context.Background(), consumer, QueueExpired, newNoopLogger(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rabbitmq.ConsumerMessage")
}

func TestConsumerMessage_StopsOnContextCancel(t *testing.T) {
	consumer := &fakeConsumer{deliveries: make(chan amqp.Delivery)}
	ctx, cancel := context.WithCancel(context.Background())

	wait, err := ConsumerMessage(ctx, consumer, QueueExpired, newNoopLogger(), nil)
	require.NoError(t, err)
	cancel()
	wait()
}
