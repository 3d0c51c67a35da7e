// Package storage declares the atomic operations the FSM performs against
// persistent storage. internal/storage provides the PostgreSQL-backed
// implementation; this package also provides MockStore, an in-memory fake
// of this interface for tests.
package storage

import (
	"context"
	"errors"

	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/models"
)

// Sentinel errors surfaced by the accessor. Handlers and FSM states branch
// on these rather than on driver-specific error types.
var (
	// ErrNoQuestions is returned by GetRandomQuestion when the question
	// table is empty.
	ErrNoQuestions = errors.New("no questions available")

	// ErrParticipantAlreadyRegistered is returned by CreateGameParticipant
	// when the (user_id, game_id) unique constraint is violated.
	ErrParticipantAlreadyRegistered = errors.New("participant already registered")

	// ErrNotFound is returned by single-row lookups that find nothing,
	// where the caller cannot treat a nil result as meaningful on its own
	// (unlike GetRunningGame, which defines nil as "no running game").
	ErrNotFound = errors.New("not found")
)

// GameAccessor is the set of atomic operations the FSM performs against the
// Game and Participant tables, plus the Question and User lookups games
// depend on.
type GameAccessor interface {
	CreateGame(ctx context.Context, chatID int64, state models.GameState, questionID int64) (*models.Game, error)
	UpdateGameState(ctx context.Context, gameID int64, state models.GameState) error
	UpdateGameBonusPoints(ctx context.Context, gameID int64, bonus int) error
	AddRevealedLetter(ctx context.Context, gameID int64, letter rune) error
	SetCurrentPlayer(ctx context.Context, gameID int64, participantID int64) error

	// GetRunningGame returns the chat's non-finished game, or (nil, nil)
	// if the chat has none.
	GetRunningGame(ctx context.Context, chatID int64) (*models.Game, error)
	// GetGameByID eager-loads Question and CurrentPlayer.User.
	GetGameByID(ctx context.Context, gameID int64) (*models.Game, error)

	CreateQuestion(ctx context.Context, question, answer string) (*models.Question, error)
	// GetRandomQuestion returns ErrNoQuestions if the table is empty.
	GetRandomQuestion(ctx context.Context) (*models.Question, error)
	// ListQuestions returns the full question bank, used by the
	// admin.QuestionCurator contract rather than by gameplay itself.
	ListQuestions(ctx context.Context) ([]*models.Question, error)
	// DeleteQuestion removes a question by id, used by the
	// admin.QuestionCurator contract rather than by gameplay itself.
	DeleteQuestion(ctx context.Context, questionID int64) error

	GetUserByTgID(ctx context.Context, tgUserID int64) (*models.User, error)
	CreateUser(ctx context.Context, tgUserID int64, username string, firstName, lastName *string) (*models.User, error)

	// CreateGameParticipant returns ErrParticipantAlreadyRegistered on a
	// (user_id, game_id) unique violation.
	CreateGameParticipant(ctx context.Context, gameID, userID int64, turnOrder int) (*models.Participant, error)
	GetParticipantCount(ctx context.Context, gameID int64) (int, error)
	// GetPlayersByGameID eager-loads each participant's User.
	GetPlayersByGameID(ctx context.Context, gameID int64) ([]*models.Participant, error)
	GetActivePlayer(ctx context.Context, gameID int64) (*models.Participant, error)

	UpdateParticipantStatus(ctx context.Context, participantID int64, status models.ParticipantState) error
	UpdateParticipantStatusMany(ctx context.Context, participantIDs []int64, status models.ParticipantState) error
	AddParticipantPoints(ctx context.Context, participantID int64, points int) error
}

// HealthChecker and Closer mirror the lifecycle contracts every backing
// service (storage, broker, chat API) implements so cmd/ binaries can wire
// them uniformly.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Closer interface {
	Close() error
}

// Store bundles the accessor with lifecycle management.
type Store interface {
	HealthChecker
	Closer
	GameAccessor
}
