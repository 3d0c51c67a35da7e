package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/models"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/pkg/storage"
)

func (s *PostgresStore) CreateQuestion(ctx context.Context, question, answer string) (*models.Question, error) {
	const q = `
		INSERT INTO questions (question, answer)
		VALUES ($1, $2)
		RETURNING question_id, question, answer`

	var out models.Question
	row := s.pool.QueryRow(ctx, q, question, answer)
	if err := row.Scan(&out.QuestionID, &out.Question, &out.Answer); err != nil {
		s.logger.Error("failed to create question", "error", err)
		return nil, fmt.Errorf("failed to create question: %w", err)
	}
	return &out, nil
}

// GetRandomQuestion picks one row uniformly at random via ORDER BY
// random() LIMIT 1.
func (s *PostgresStore) GetRandomQuestion(ctx context.Context) (*models.Question, error) {
	const q = `SELECT question_id, question, answer FROM questions ORDER BY random() LIMIT 1`

	var out models.Question
	row := s.pool.QueryRow(ctx, q)
	if err := row.Scan(&out.QuestionID, &out.Question, &out.Answer); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn("no questions available in the database")
			return nil, storage.ErrNoQuestions
		}
		s.logger.Error("failed to get random question", "error", err)
		return nil, fmt.Errorf("failed to get random question: %w", err)
	}
	return &out, nil
}

// DeleteQuestion removes a question by id, for the admin.QuestionCurator
// contract.
func (s *PostgresStore) DeleteQuestion(ctx context.Context, questionID int64) error {
	const q = `DELETE FROM questions WHERE question_id = $1`

	tag, err := s.pool.Exec(ctx, q, questionID)
	if err != nil {
		return fmt.Errorf("failed to delete question %d: %w", questionID, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListQuestions returns the full question bank in insertion order, for the
// admin.QuestionCurator contract.
func (s *PostgresStore) ListQuestions(ctx context.Context) ([]*models.Question, error) {
	const q = `SELECT question_id, question, answer FROM questions ORDER BY question_id`

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	defer rows.Close()

	var out []*models.Question
	for rows.Next() {
		var qn models.Question
		if err := rows.Scan(&qn.QuestionID, &qn.Question, &qn.Answer); err != nil {
			return nil, fmt.Errorf("failed to scan question row: %w", err)
		}
		out = append(out, &qn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate question rows: %w", err)
	}
	return out, nil
}
