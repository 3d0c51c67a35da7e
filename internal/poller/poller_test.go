package poller

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"

	"github.com/AlexeyPetrochenko/kts-tg-bot-game/pkg/update"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func textMessageUpdate(updateID int, chatID, fromID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: updateID,
		Message: &tgbotapi.Message{
			MessageID: updateID,
			Date:      1,
			Chat:      &tgbotapi.Chat{ID: chatID},
			From:      &tgbotapi.User{ID: fromID, UserName: "alice"},
			Text:      text,
		},
	}
}

// fakeAPI serves pre-scripted batches keyed by the offset requested, and
// records every offset it was called with.
type fakeAPI struct {
	mu          sync.Mutex
	batches     map[int][]tgbotapi.Update
	offsetsSeen []int
	errOnce     error
}

func (f *fakeAPI) GetUpdates(cfg tgbotapi.UpdateConfig) ([]tgbotapi.Update, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offsetsSeen = append(f.offsetsSeen, cfg.Offset)
	if f.errOnce != nil {
		err := f.errOnce
		f.errOnce = nil
		return nil, err
	}
	return f.batches[cfg.Offset], nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published []string
	failFor   string
}

func (f *fakePublisher) PublishRetry(ctx context.Context, queue string, chatID int64, body []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if queue == f.failFor {
		return errors.New("broker unavailable")
	}
	f.published = append(f.published, string(body))
	return nil
}

func TestPoller_AdvancesOffsetOnConfirmedPublish(t *testing.T) {
	api := &fakeAPI{batches: map[int][]tgbotapi.Update{
		0: {textMessageUpdate(1, 100, 10, "hello")},
	}}
	pub := &fakePublisher{}
	p := New(api, pub, 4, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()
	require.NoError(t, p.Run(ctx))

	require.Len(t, pub.published, 1)
	require.Equal(t, 2, p.offset, "offset should advance past update_id 1")
}

func TestPoller_DoesNotAdvanceOffsetOnPublishFailure(t *testing.T) {
	api := &fakeAPI{batches: map[int][]tgbotapi.Update{
		0: {textMessageUpdate(1, 100, 10, "hello")},
	}}
	pub := &fakePublisher{failFor: update.QueueName(update.ShardIndex(100, 4))}
	p := New(api, pub, 4, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()
	require.NoError(t, p.Run(ctx))

	require.Empty(t, pub.published)
	require.Equal(t, 0, p.offset, "offset must not advance past an unpublished update")

	api.mu.Lock()
	seen := append([]int(nil), api.offsetsSeen...)
	api.mu.Unlock()
	for _, o := range seen {
		require.Equal(t, 0, o, "every retry must re-request from the same stuck offset")
	}
}

func TestPoller_RetriesAfterTransportError(t *testing.T) {
	api := &fakeAPI{
		errOnce: errors.New("connection reset"),
		batches: map[int][]tgbotapi.Update{
			0: {textMessageUpdate(1, 100, 10, "hello")},
		},
	}
	pub := &fakePublisher{}
	p := New(api, pub, 4, testLogger())
	p.retryInterval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(40 * time.Millisecond)
		cancel()
	}()
	require.NoError(t, p.Run(ctx))

	require.Len(t, pub.published, 1, "the batch should still be delivered after the transport error is retried")
}
