// Command poller runs the single long-poll loop against the upstream chat
// API and hash-shards updates onto the broker's durable queues.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"

	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/broker"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/config"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/logger"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/metrics"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/poller"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/pkg/update"
)

func main() {
	root := &cobra.Command{
		Use:   "poller",
		Short: "Long-polls the chat API and publishes updates onto the broker",
		RunE:  run,
	}
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

	log := logger.Setup(env, os.Getenv("LOG_LEVEL"))
	log.Info("starting poller", "num_queues", cfg.Broker.NumberQueues)

	bot, err := tgbotapi.NewBotAPI(cfg.Bot.Token)
	if err != nil {
		return fmt.Errorf("failed to authenticate with telegram: %w", err)
	}
	log.Info("telegram bot authenticated", "username", bot.Self.UserName)

	b, err := broker.Connect(cfg.Broker, log)
	if err != nil {
		return fmt.Errorf("failed to connect to broker: %w", err)
	}
	defer b.Close()

	for k := 0; k < cfg.Broker.NumberQueues; k++ {
		if err := b.DeclareQueue(update.QueueName(k)); err != nil {
			return fmt.Errorf("failed to declare shard queue: %w", err)
		}
	}

	m := metrics.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := m.Serve(ctx, fmt.Sprintf(":%d", cfg.Metrics.Port)); err != nil {
			log.Error("metrics server stopped", "error", err)
		}
	}()

	p := poller.New(bot, b, cfg.Broker.NumberQueues, log)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(ctx) }()

	select {
	case <-quit:
		log.Info("shutdown signal received")
		cancel()
		return <-errCh
	case err := <-errCh:
		return err
	}
}
