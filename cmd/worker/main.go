// Command worker consumes one durable shard queue and dispatches its
// updates through the Handler Registry into the per-chat FSM.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/broker"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/config"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/fsm"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/handlers"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/logger"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/metrics"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/storage"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/tgapi"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/worker"
	pkgstorage "github.com/AlexeyPetrochenko/kts-tg-bot-game/pkg/storage"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/pkg/update"
)

var queueID int

func main() {
	root := &cobra.Command{
		Use:   "worker",
		Short: "Consumes one shard queue and dispatches its updates",
		RunE:  run,
	}
	root.Flags().IntVar(&queueID, "queue-id", -1, "shard queue index to consume (required)")
	_ = root.MarkFlagRequired("queue-id")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	env := os.Getenv("ENV")
	cfg, err := config.Load(config.Path(env))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if queueID < 0 || queueID >= cfg.Broker.NumberQueues {
		return fmt.Errorf("--queue-id must be in [0, %d)", cfg.Broker.NumberQueues)
	}

	log := logger.Setup(env, os.Getenv("LOG_LEVEL")).With("queue_id", queueID)
	log.Info("starting worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.New(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to storage: %w", err)
	}
	defer store.Close()

	chat, err := tgapi.NewBotClient(cfg.Bot.Token, log)
	if err != nil {
		return fmt.Errorf("failed to authenticate with telegram: %w", err)
	}

	b, err := broker.Connect(cfg.Broker, log)
	if err != nil {
		return fmt.Errorf("failed to connect to broker: %w", err)
	}
	defer b.Close()

	queue := update.QueueName(queueID)
	if err := b.DeclareQueue(queue); err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	deliveries, err := b.Consume(queue)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	fsms := fsm.NewManager()
	m := metrics.New()
	registry := handlers.New(store, chat, fsms, cfg.Game, log, m)

	go func() {
		if err := m.Serve(ctx, fmt.Sprintf(":%d", cfg.Metrics.Port)); err != nil {
			log.Error("metrics server stopped", "error", err)
		}
	}()

	go reportGaugesPeriodically(ctx, fsms, store, m, log)

	w := worker.New(queue, deliveries, registry, log, m)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	select {
	case <-quit:
		log.Info("shutdown signal received")
		cancel()
		return <-errCh
	case err := <-errCh:
		return err
	}
}

// reportGaugesPeriodically refreshes the active-games and active-players
// gauges from the FSMs live in this worker process, until ctx is cancelled.
func reportGaugesPeriodically(ctx context.Context, fsms *fsm.Manager, store pkgstorage.Store, m *metrics.Metrics, log *slog.Logger) {
	const interval = 10 * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			gameIDs := fsms.GameIDs()
			m.ActiveGames.Set(float64(len(gameIDs)))

			total := 0
			for _, gameID := range gameIDs {
				count, err := store.GetParticipantCount(ctx, gameID)
				if err != nil {
					log.Error("failed to count participants for gauge refresh", "game_id", gameID, "error", err)
					continue
				}
				total += count
			}
			m.ActivePlayers.Set(float64(total))
		}
	}
}
