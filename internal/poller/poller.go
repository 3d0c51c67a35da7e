// Package poller runs the single long-poll loop that pulls updates from
// the upstream chat API and hash-shards them onto durable broker queues.
// It is the one process that owns an offset into the chat API's update
// stream; everything downstream is derived from what it publishes.
package poller

import (
	"context"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/tgapi"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/pkg/update"
)

// TelegramAPI is the narrow long-poll surface the Poller needs; BotClient's
// underlying tgbotapi.BotAPI satisfies it directly.
type TelegramAPI interface {
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
}

// Publisher is the broker surface the Poller needs: a confirmed, retried
// publish. *broker.Broker satisfies it.
type Publisher interface {
	PublishRetry(ctx context.Context, queue string, chatID int64, body []byte) error
}

// Poller owns the single offset into the upstream update stream.
type Poller struct {
	api       TelegramAPI
	publisher Publisher
	numShards int
	logger    *slog.Logger

	offset        int
	pollTimeout   int
	retryInterval time.Duration
}

// New builds a Poller starting at offset 0.
func New(api TelegramAPI, publisher Publisher, numShards int, logger *slog.Logger) *Poller {
	return &Poller{
		api:           api,
		publisher:     publisher,
		numShards:     numShards,
		logger:        logger,
		pollTimeout:   30,
		retryInterval: 5 * time.Second,
	}
}

// Run long-polls until ctx is cancelled. A transport error from GetUpdates
// is logged and retried after retryInterval rather than aborting the
// process.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("poller started", "num_shards", p.numShards)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		cfg := tgbotapi.NewUpdate(p.offset)
		cfg.Timeout = p.pollTimeout

		raw, err := p.api.GetUpdates(cfg)
		if err != nil {
			p.logger.Warn("failed to fetch updates, retrying", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(p.retryInterval):
			}
			continue
		}

		switch p.processBatch(ctx, raw) {
		case batchDone:
			// fall through to the next poll immediately
		case batchStalled:
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(p.retryInterval):
			}
		case batchCancelled:
			return nil
		}
	}
}

type batchOutcome int

const (
	batchDone batchOutcome = iota
	batchStalled
	batchCancelled
)

// processBatch publishes each raw update in order, advancing the offset
// past an update only once its publish is confirmed (or it was
// intentionally skipped as malformed). A publish failure that exhausts
// broker.PublishRetry halts the batch so the next poll redelivers it,
// after a backoff pause (batchStalled) rather than hammering the broker.
func (p *Poller) processBatch(ctx context.Context, raw []tgbotapi.Update) batchOutcome {
	for _, u := range raw {
		if ctx.Err() != nil {
			return batchCancelled
		}

		upd, ok := tgapi.FromTelegramUpdate(u)
		if !ok {
			p.logger.Warn("skipping update that cannot be parsed", "update_id", u.UpdateID)
			p.offset = u.UpdateID + 1
			continue
		}

		body, err := upd.ToJSON()
		if err != nil {
			p.logger.Error("failed to encode update, skipping", "update_id", u.UpdateID, "error", err)
			p.offset = u.UpdateID + 1
			continue
		}

		shard := update.ShardIndex(upd.ChatID(), p.numShards)
		queue := update.QueueName(shard)

		if err := p.publisher.PublishRetry(ctx, queue, upd.ChatID(), body); err != nil {
			p.logger.Error("failed to publish update, will retry from this offset", "update_id", u.UpdateID, "queue", queue, "error", err)
			return batchStalled
		}

		p.offset = u.UpdateID + 1
	}
	return batchDone
}
