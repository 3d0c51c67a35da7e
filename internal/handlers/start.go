package handlers

import (
	"context"
	"errors"

	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/fsm"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/models"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/pkg/storage"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/pkg/update"
)

const msgGameAlreadyRunning = "Игра уже запущена"
const msgNoQuestionsAvailable = "Невозможно начать игру: нет доступных вопросов"

// StartHandler creates a fresh game, or resumes one already running in
// storage, or refuses if the chat's FSM is already live in this process.
func StartHandler(ctx context.Context, r *Registry, upd *update.Update) error {
	cb := upd.CallbackQuery
	r.Logger.Info("handling command", "handler", "start", "from_username", cb.FromUsername, "command", cb.Command, "chat_id", cb.ChatID)

	if _, ok := r.FSMs.Get(cb.ChatID); ok {
		if err := r.Chat.SendMessage(cb.ChatID, msgGameAlreadyRunning); err != nil {
			r.Logger.Error("failed to send game-already-running notice", "chat_id", cb.ChatID, "error", err)
		}
		return r.Chat.AnswerCallback(cb.CallbackID)
	}

	game, err := r.Store.GetRunningGame(ctx, cb.ChatID)
	if err != nil {
		return err
	}

	if game != nil {
		f := fsm.New(r.FSMs, cb.ChatID, game.GameID, r.Store, r.Chat, r.Cfg, r.Logger)
		r.FSMs.Set(f)
		return f.RestoreCurrentState(ctx, game)
	}

	question, err := r.Store.GetRandomQuestion(ctx)
	if errors.Is(err, storage.ErrNoQuestions) {
		if sendErr := r.Chat.SendMessage(cb.ChatID, msgNoQuestionsAvailable); sendErr != nil {
			r.Logger.Error("failed to send no-questions notice", "chat_id", cb.ChatID, "error", sendErr)
		}
		return nil
	}
	if err != nil {
		return err
	}

	newGame, err := r.Store.CreateGame(ctx, cb.ChatID, models.GameStateWaitingForPlayers, question.QuestionID)
	if err != nil {
		return err
	}

	f := fsm.New(r.FSMs, cb.ChatID, newGame.GameID, r.Store, r.Chat, r.Cfg, r.Logger)
	r.FSMs.Set(f)
	return f.SetCurrentState(ctx, models.GameStateWaitingForPlayers)
}
