// Package storage implements pkg/storage.Store against PostgreSQL via pgx.
// Every accessor method runs its statements directly on the pool, each in
// its own implicit transaction, and no transaction is held across handler
// calls. Write methods are a single statement; the eager-loading reads run
// one further query per related row, not inside one shared transaction.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/config"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/pkg/storage"
)

// PostgresStore is the pgx-backed implementation of storage.Store.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var _ storage.Store = (*PostgresStore)(nil)

// New connects to PostgreSQL using cfg and returns a ready PostgresStore.
func New(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresStore{pool: pool, logger: logger}, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
