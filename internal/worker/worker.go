// Package worker runs one durable queue's consume loop: decode, dispatch
// through the Handler Registry, ack only after success. An unacked
// delivery is redelivered by the broker on the next connection, which is
// why every handler upstream must be idempotent with respect to
// persisted state.
package worker

import (
	"context"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/metrics"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/pkg/update"
)

// Dispatcher is the handler side of a Worker; *handlers.Registry satisfies
// it. Kept as an interface here so worker tests can stub dispatch failures
// without dragging in storage, the chat client or the FSM manager.
type Dispatcher interface {
	Dispatch(ctx context.Context, upd *update.Update) error
}

// Worker consumes one broker queue and dispatches each delivery through a
// shared Dispatcher.
type Worker struct {
	queue      string
	deliveries <-chan amqp.Delivery
	registry   Dispatcher
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// New builds a Worker bound to an already-open delivery channel for queue.
func New(queue string, deliveries <-chan amqp.Delivery, registry Dispatcher, logger *slog.Logger, m *metrics.Metrics) *Worker {
	return &Worker{queue: queue, deliveries: deliveries, registry: registry, logger: logger, metrics: m}
}

// Run processes deliveries until ctx is cancelled or the delivery channel
// closes (the broker connection dropped). On cancellation it returns after
// the in-flight delivery finishes, leaving any remaining unacked messages
// for redelivery.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("worker started", "queue", w.queue)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker stopping", "queue", w.queue)
			return ctx.Err()
		case d, ok := <-w.deliveries:
			if !ok {
				w.logger.Warn("delivery channel closed", "queue", w.queue)
				return nil
			}
			w.handle(ctx, d)
		}
	}
}

func (w *Worker) handle(ctx context.Context, d amqp.Delivery) {
	upd, err := update.FromJSON(d.Body)
	if err != nil {
		w.logger.Error("failed to decode update, dropping", "queue", w.queue, "error", err)
		w.metrics.HandlerErrors.Inc()
		_ = d.Nack(false, false)
		return
	}

	if err := w.registry.Dispatch(ctx, upd); err != nil {
		w.logger.Error("handler failed, leaving for redelivery", "queue", w.queue, "chat_id", upd.ChatID(), "error", err)
		_ = d.Nack(false, true)
		return
	}

	w.metrics.UpdatesProcessed.Inc()
	if err := d.Ack(false); err != nil {
		w.logger.Error("failed to ack delivery", "queue", w.queue, "error", err)
	}
}
