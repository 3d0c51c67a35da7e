package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/models"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/pkg/storage"
)

func (s *PostgresStore) CreateGame(ctx context.Context, chatID int64, state models.GameState, questionID int64) (*models.Game, error) {
	const q = `
		INSERT INTO games (chat_id, state, question_id, revealed_letters, bonus_points)
		VALUES ($1, $2, $3, '', 0)
		RETURNING game_id, chat_id, state, question_id, revealed_letters, bonus_points`

	var g models.Game
	row := s.pool.QueryRow(ctx, q, chatID, state, questionID)
	if err := row.Scan(&g.GameID, &g.ChatID, &g.State, &g.QuestionID, &g.RevealedLetters, &g.BonusPoints); err != nil {
		s.logger.Error("failed to create game", "chat_id", chatID, "error", err)
		return nil, fmt.Errorf("failed to create game for chat %d: %w", chatID, err)
	}
	return &g, nil
}

func (s *PostgresStore) UpdateGameState(ctx context.Context, gameID int64, state models.GameState) error {
	const q = `UPDATE games SET state = $1, updated_at = now() WHERE game_id = $2`
	tag, err := s.pool.Exec(ctx, q, state, gameID)
	if err != nil {
		s.logger.Error("failed to update game state", "game_id", gameID, "error", err)
		return fmt.Errorf("failed to update game %d state: %w", gameID, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) UpdateGameBonusPoints(ctx context.Context, gameID int64, bonus int) error {
	const q = `UPDATE games SET bonus_points = $1, updated_at = now() WHERE game_id = $2`
	tag, err := s.pool.Exec(ctx, q, bonus, gameID)
	if err != nil {
		s.logger.Error("failed to update game bonus points", "game_id", gameID, "error", err)
		return fmt.Errorf("failed to update game %d bonus points: %w", gameID, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// AddRevealedLetter is idempotent: it upserts the letter into the game's
// revealed_letters set rather than blindly appending, so a redelivered
// broker message can't duplicate a letter.
func (s *PostgresStore) AddRevealedLetter(ctx context.Context, gameID int64, letter rune) error {
	const q = `
		UPDATE games
		SET revealed_letters = (
			CASE WHEN position(upper($1) in revealed_letters) > 0
				THEN revealed_letters
				ELSE revealed_letters || upper($1)
			END
		), updated_at = now()
		WHERE game_id = $2`
	tag, err := s.pool.Exec(ctx, q, string(letter), gameID)
	if err != nil {
		s.logger.Error("failed to add revealed letter", "game_id", gameID, "error", err)
		return fmt.Errorf("failed to add revealed letter to game %d: %w", gameID, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SetCurrentPlayer(ctx context.Context, gameID int64, participantID int64) error {
	const q = `UPDATE games SET current_player_id = $1, updated_at = now() WHERE game_id = $2`
	tag, err := s.pool.Exec(ctx, q, participantID, gameID)
	if err != nil {
		s.logger.Error("failed to set current player", "game_id", gameID, "error", err)
		return fmt.Errorf("failed to set current player for game %d: %w", gameID, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) GetRunningGame(ctx context.Context, chatID int64) (*models.Game, error) {
	const q = `
		SELECT game_id, chat_id, state, question_id, revealed_letters, bonus_points, current_player_id
		FROM games
		WHERE chat_id = $1 AND state != $2
		LIMIT 1`

	var g models.Game
	row := s.pool.QueryRow(ctx, q, chatID, models.GameStateFinished)
	if err := row.Scan(&g.GameID, &g.ChatID, &g.State, &g.QuestionID, &g.RevealedLetters, &g.BonusPoints, &g.CurrentPlayerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		s.logger.Error("failed to get running game", "chat_id", chatID, "error", err)
		return nil, fmt.Errorf("failed to get running game for chat %d: %w", chatID, err)
	}
	return s.hydrateGame(ctx, &g)
}

func (s *PostgresStore) GetGameByID(ctx context.Context, gameID int64) (*models.Game, error) {
	const q = `
		SELECT game_id, chat_id, state, question_id, revealed_letters, bonus_points, current_player_id
		FROM games
		WHERE game_id = $1`

	var g models.Game
	row := s.pool.QueryRow(ctx, q, gameID)
	if err := row.Scan(&g.GameID, &g.ChatID, &g.State, &g.QuestionID, &g.RevealedLetters, &g.BonusPoints, &g.CurrentPlayerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		s.logger.Error("failed to get game by id", "game_id", gameID, "error", err)
		return nil, fmt.Errorf("failed to get game %d: %w", gameID, err)
	}
	return s.hydrateGame(ctx, &g)
}

// hydrateGame eager-loads the Question and CurrentPlayer (with its User), as
// GetRunningGame and GetGameByID promise.
func (s *PostgresStore) hydrateGame(ctx context.Context, g *models.Game) (*models.Game, error) {
	const qq = `SELECT question_id, question, answer FROM questions WHERE question_id = $1`
	var question models.Question
	if err := s.pool.QueryRow(ctx, qq, g.QuestionID).Scan(&question.QuestionID, &question.Question, &question.Answer); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("failed to load question %d for game %d: %w", g.QuestionID, g.GameID, err)
		}
	} else {
		g.Question = &question
	}

	if g.CurrentPlayerID != nil {
		p, err := s.getParticipantByID(ctx, *g.CurrentPlayerID)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		g.CurrentPlayer = p
	}

	return g, nil
}
