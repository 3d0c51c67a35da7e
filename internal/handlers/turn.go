package handlers

import (
	"context"

	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/fsm"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/models"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/pkg/update"
)

// requireCurrentPlayer looks up the chat's FSM and checks it is in
// PLAYER_TURN with fromID owning the turn, the guard shared by
// LeaveGameHandler, SayLetterHandler and SayWordHandler.
func requireCurrentPlayer(fsms *fsm.Manager, chatID, fromID int64) (*fsm.FSM, bool) {
	f, ok := fsms.Get(chatID)
	if !ok || f.CurrentState() != models.GameStatePlayerTurn || f.CurrentPlayerTgID() != fromID {
		return nil, false
	}
	return f, true
}

// LeaveGameHandler withdraws the current player from the game.
func LeaveGameHandler(ctx context.Context, r *Registry, upd *update.Update) error {
	cb := upd.CallbackQuery
	r.Logger.Info("handling command", "handler", "leave_game", "from_username", cb.FromUsername, "command", cb.Command, "chat_id", cb.ChatID)

	f, ok := requireCurrentPlayer(r.FSMs, cb.ChatID, cb.FromID)
	if !ok {
		return r.Chat.AnswerCallback(cb.CallbackID)
	}

	if err := r.Store.UpdateParticipantStatus(ctx, f.CurrentPlayerParticipantID(), models.ParticipantStateLeft); err != nil {
		return err
	}
	if err := r.Chat.AnswerCallback(cb.CallbackID); err != nil {
		r.Logger.Error("failed to acknowledge leave callback", "chat_id", cb.ChatID, "error", err)
	}
	return f.SetCurrentState(ctx, models.GameStateCheckWinner)
}

// SayLetterHandler moves the current player's turn into letter-guessing.
func SayLetterHandler(ctx context.Context, r *Registry, upd *update.Update) error {
	cb := upd.CallbackQuery
	r.Logger.Info("handling command", "handler", "say_letter", "from_username", cb.FromUsername, "command", cb.Command, "chat_id", cb.ChatID)

	f, ok := requireCurrentPlayer(r.FSMs, cb.ChatID, cb.FromID)
	if !ok {
		return r.Chat.AnswerCallback(cb.CallbackID)
	}
	if err := r.Chat.AnswerCallback(cb.CallbackID); err != nil {
		r.Logger.Error("failed to acknowledge say-letter callback", "chat_id", cb.ChatID, "error", err)
	}
	return f.SetCurrentState(ctx, models.GameStateWaitingForLetter)
}

// SayWordHandler moves the current player's turn into word-guessing.
func SayWordHandler(ctx context.Context, r *Registry, upd *update.Update) error {
	cb := upd.CallbackQuery
	r.Logger.Info("handling command", "handler", "say_word", "from_username", cb.FromUsername, "command", cb.Command, "chat_id", cb.ChatID)

	f, ok := requireCurrentPlayer(r.FSMs, cb.ChatID, cb.FromID)
	if !ok {
		return r.Chat.AnswerCallback(cb.CallbackID)
	}
	if err := r.Chat.AnswerCallback(cb.CallbackID); err != nil {
		r.Logger.Error("failed to acknowledge say-word callback", "chat_id", cb.ChatID, "error", err)
	}
	return f.SetCurrentState(ctx, models.GameStateWaitingForWord)
}
