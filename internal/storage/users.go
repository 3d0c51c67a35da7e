package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/models"
)

func (s *PostgresStore) GetUserByTgID(ctx context.Context, tgUserID int64) (*models.User, error) {
	const q = `SELECT user_id, tg_user_id, username, first_name, last_name FROM users WHERE tg_user_id = $1`

	var u models.User
	row := s.pool.QueryRow(ctx, q, tgUserID)
	if err := row.Scan(&u.UserID, &u.TgUserID, &u.Username, &u.FirstName, &u.LastName); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		s.logger.Error("failed to get user by tg id", "tg_user_id", tgUserID, "error", err)
		return nil, fmt.Errorf("failed to get user by tg id %d: %w", tgUserID, err)
	}
	return &u, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, tgUserID int64, username string, firstName, lastName *string) (*models.User, error) {
	const q = `
		INSERT INTO users (tg_user_id, username, first_name, last_name)
		VALUES ($1, $2, $3, $4)
		RETURNING user_id, tg_user_id, username, first_name, last_name`

	var u models.User
	row := s.pool.QueryRow(ctx, q, tgUserID, username, firstName, lastName)
	if err := row.Scan(&u.UserID, &u.TgUserID, &u.Username, &u.FirstName, &u.LastName); err != nil {
		s.logger.Error("failed to create user", "tg_user_id", tgUserID, "error", err)
		return nil, fmt.Errorf("failed to create user for tg id %d: %w", tgUserID, err)
	}
	return &u, nil
}

func (s *PostgresStore) getUserByID(ctx context.Context, userID int64) (*models.User, error) {
	const q = `SELECT user_id, tg_user_id, username, first_name, last_name FROM users WHERE user_id = $1`

	var u models.User
	row := s.pool.QueryRow(ctx, q, userID)
	if err := row.Scan(&u.UserID, &u.TgUserID, &u.Username, &u.FirstName, &u.LastName); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	return &u, nil
}
