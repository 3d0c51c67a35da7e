package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/models"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/pkg/storage"
)

// pgUniqueViolation is the PostgreSQL error code for a unique constraint
// violation; see https://www.postgresql.org/docs/current/errcodes-appendix.html
const pgUniqueViolation = "23505"

func (s *PostgresStore) CreateGameParticipant(ctx context.Context, gameID, userID int64, turnOrder int) (*models.Participant, error) {
	const q = `
		INSERT INTO game_participants (game_id, user_id, turn_order, state, points)
		VALUES ($1, $2, $3, $4, 0)
		RETURNING participant_id, game_id, user_id, state, turn_order, points`

	var p models.Participant
	row := s.pool.QueryRow(ctx, q, gameID, userID, turnOrder, models.ParticipantStateWaiting)
	if err := row.Scan(&p.ParticipantID, &p.GameID, &p.UserID, &p.State, &p.TurnOrder, &p.Points); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			s.logger.Warn("participant already registered", "game_id", gameID, "user_id", userID)
			return nil, storage.ErrParticipantAlreadyRegistered
		}
		s.logger.Error("failed to create game participant", "game_id", gameID, "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to register participant (game %d, user %d): %w", gameID, userID, err)
	}
	return &p, nil
}

func (s *PostgresStore) GetParticipantCount(ctx context.Context, gameID int64) (int, error) {
	const q = `SELECT count(*) FROM game_participants WHERE game_id = $1`
	var count int
	if err := s.pool.QueryRow(ctx, q, gameID).Scan(&count); err != nil {
		s.logger.Error("failed to count participants", "game_id", gameID, "error", err)
		return 0, fmt.Errorf("failed to count participants for game %d: %w", gameID, err)
	}
	return count, nil
}

func (s *PostgresStore) GetPlayersByGameID(ctx context.Context, gameID int64) ([]*models.Participant, error) {
	const q = `
		SELECT participant_id, game_id, user_id, state, turn_order, points
		FROM game_participants
		WHERE game_id = $1
		ORDER BY turn_order`

	rows, err := s.pool.Query(ctx, q, gameID)
	if err != nil {
		s.logger.Error("failed to list players", "game_id", gameID, "error", err)
		return nil, fmt.Errorf("failed to list players for game %d: %w", gameID, err)
	}
	defer rows.Close()

	var out []*models.Participant
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.ParticipantID, &p.GameID, &p.UserID, &p.State, &p.TurnOrder, &p.Points); err != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", err)
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list players for game %d: %w", gameID, err)
	}

	for _, p := range out {
		user, err := s.getUserByID(ctx, p.UserID)
		if err != nil {
			return nil, err
		}
		p.User = user
	}
	return out, nil
}

func (s *PostgresStore) GetActivePlayer(ctx context.Context, gameID int64) (*models.Participant, error) {
	const q = `
		SELECT participant_id, game_id, user_id, state, turn_order, points
		FROM game_participants
		WHERE game_id = $1 AND state = $2
		LIMIT 1`

	var p models.Participant
	row := s.pool.QueryRow(ctx, q, gameID, models.ParticipantStateActiveTurn)
	if err := row.Scan(&p.ParticipantID, &p.GameID, &p.UserID, &p.State, &p.TurnOrder, &p.Points); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		s.logger.Error("failed to get active player", "game_id", gameID, "error", err)
		return nil, fmt.Errorf("failed to get active player for game %d: %w", gameID, err)
	}
	user, err := s.getUserByID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	p.User = user
	return &p, nil
}

func (s *PostgresStore) UpdateParticipantStatus(ctx context.Context, participantID int64, status models.ParticipantState) error {
	const q = `UPDATE game_participants SET state = $1 WHERE participant_id = $2`
	tag, err := s.pool.Exec(ctx, q, status, participantID)
	if err != nil {
		s.logger.Error("failed to update participant status", "participant_id", participantID, "error", err)
		return fmt.Errorf("failed to update participant %d status: %w", participantID, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) UpdateParticipantStatusMany(ctx context.Context, participantIDs []int64, status models.ParticipantState) error {
	const q = `UPDATE game_participants SET state = $1 WHERE participant_id = ANY($2)`
	if _, err := s.pool.Exec(ctx, q, status, participantIDs); err != nil {
		s.logger.Error("failed to bulk update participant status", "participant_ids", participantIDs, "error", err)
		return fmt.Errorf("failed to bulk update participant status: %w", err)
	}
	return nil
}

func (s *PostgresStore) AddParticipantPoints(ctx context.Context, participantID int64, points int) error {
	const q = `UPDATE game_participants SET points = points + $1 WHERE participant_id = $2`
	tag, err := s.pool.Exec(ctx, q, points, participantID)
	if err != nil {
		s.logger.Error("failed to add participant points", "participant_id", participantID, "error", err)
		return fmt.Errorf("failed to add points to participant %d: %w", participantID, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) getParticipantByID(ctx context.Context, participantID int64) (*models.Participant, error) {
	const q = `
		SELECT participant_id, game_id, user_id, state, turn_order, points
		FROM game_participants
		WHERE participant_id = $1`

	var p models.Participant
	row := s.pool.QueryRow(ctx, q, participantID)
	if err := row.Scan(&p.ParticipantID, &p.GameID, &p.UserID, &p.State, &p.TurnOrder, &p.Points); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get participant %d: %w", participantID, err)
	}
	user, err := s.getUserByID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	p.User = user
	return &p, nil
}
