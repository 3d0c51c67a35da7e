// Package broker wraps rabbitmq/amqp091-go with the durable, prefetch=1,
// ack-after-success shape the worker pipeline depends on.
package broker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/config"
)

// Broker owns one AMQP connection and channel, shared by the poller
// (publish-only) and each worker (consume-only, one queue apiece).
type Broker struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *slog.Logger
}

// Connect dials the broker and opens a channel with the configured
// prefetch count (qos), bounding how many unacked deliveries one consumer
// can hold at once.
func Connect(cfg config.BrokerConfig, logger *slog.Logger) (*Broker, error) {
	conn, err := amqp.Dial(cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	prefetch := cfg.PrefetchCount
	if prefetch <= 0 {
		prefetch = 1
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to set qos: %w", err)
	}

	logger.Info("connected to broker")
	return &Broker{conn: conn, channel: ch, logger: logger}, nil
}

// DeclareQueue declares a durable queue by name, idempotent across
// restarts.
func (b *Broker) DeclareQueue(name string) error {
	_, err := b.channel.QueueDeclare(name, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", name, err)
	}
	return nil
}

// PublishRetry publishes body to the named durable queue, retrying with
// bounded exponential backoff on transport failure. It returns only once
// the publish is confirmed or attempts are exhausted — callers (the
// poller) must not advance their offset until this returns nil. chatID is
// carried as a header so a worker can attribute a delivery to its chat
// without parsing the body first.
func (b *Broker) PublishRetry(ctx context.Context, queue string, chatID int64, body []byte) error {
	const maxAttempts = 5
	backoff := 200 * time.Millisecond

	headers := amqp.Table{
		"message_type": "telegram_update",
		"chat_id":      chatID,
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := b.channel.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Headers:      headers,
			Body:         body,
		})
		if err == nil {
			return nil
		}
		lastErr = err
		b.logger.Warn("publish failed, retrying", "queue", queue, "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return fmt.Errorf("publish to %s cancelled: %w", queue, ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return fmt.Errorf("failed to publish to %s after %d attempts: %w", queue, maxAttempts, lastErr)
}

// Consume returns a delivery channel for queue, with manual ack left to
// the caller (the worker acks only after its handler succeeds).
func (b *Broker) Consume(queue string) (<-chan amqp.Delivery, error) {
	deliveries, err := b.channel.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to consume queue %s: %w", queue, err)
	}
	return deliveries, nil
}

func (b *Broker) Close() error {
	if err := b.channel.Close(); err != nil {
		b.conn.Close()
		return fmt.Errorf("failed to close channel: %w", err)
	}
	return b.conn.Close()
}

func (b *Broker) Ping(ctx context.Context) error {
	if b.conn == nil || b.conn.IsClosed() {
		return fmt.Errorf("broker connection is closed")
	}
	return nil
}
