// Package admin declares the contracts an administrative surface would
// implement against this bot's storage: authenticating an operator and
// curating the question bank. No HTTP implementation lives here — the
// admin web panel is out of scope for this service. cmd/seed is the one
// concrete driver of QuestionCurator today.
package admin

import (
	"context"

	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/models"
)

// Authenticator verifies operator credentials against config.AdminConfig.
// A future HTTP admin surface would use this to gate its session
// middleware; nothing in this service calls it yet.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (bool, error)
}

// QuestionCurator manages the question bank the bot draws from at
// /start. cmd/seed is its only driver.
type QuestionCurator interface {
	AddQuestion(ctx context.Context, question, answer string) (*models.Question, error)
	ListQuestions(ctx context.Context) ([]*models.Question, error)
	DeleteQuestion(ctx context.Context, questionID int64) error
}
