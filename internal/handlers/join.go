package handlers

import (
	"context"
	"errors"

	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/models"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/pkg/storage"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/pkg/update"
)

const msgJoinConfirmed = "Вы присоединились к игре!"
const msgAlreadyRegistered = "Вы уже зарегистрированы в этой игре"

// JoinHandler registers the caller as a participant while the game is
// still accepting players.
func JoinHandler(ctx context.Context, r *Registry, upd *update.Update) error {
	cb := upd.CallbackQuery
	r.Logger.Info("handling command", "handler", "join", "from_username", cb.FromUsername, "command", cb.Command, "chat_id", cb.ChatID)

	f, ok := r.FSMs.Get(cb.ChatID)
	if !ok || f.CurrentState() != models.GameStateWaitingForPlayers {
		return r.Chat.AnswerCallback(cb.CallbackID)
	}

	user, err := r.Store.GetUserByTgID(ctx, cb.FromID)
	if err != nil {
		return err
	}
	if user == nil {
		user, err = r.Store.CreateUser(ctx, cb.FromID, cb.FromUsername, nil, nil)
		if err != nil {
			return err
		}
	}

	count, err := r.Store.GetParticipantCount(ctx, f.GameID())
	if err != nil {
		return err
	}

	_, err = r.Store.CreateGameParticipant(ctx, f.GameID(), user.UserID, count)
	if errors.Is(err, storage.ErrParticipantAlreadyRegistered) {
		if sendErr := r.Chat.SendMessage(cb.ChatID, msgAlreadyRegistered); sendErr != nil {
			r.Logger.Error("failed to send already-registered notice", "chat_id", cb.ChatID, "error", sendErr)
		}
		return r.Chat.AnswerCallback(cb.CallbackID)
	}
	if err != nil {
		return err
	}

	if sendErr := r.Chat.SendMessage(cb.ChatID, msgJoinConfirmed); sendErr != nil {
		r.Logger.Error("failed to send join confirmation", "chat_id", cb.ChatID, "error", sendErr)
	}
	if err := r.Chat.AnswerCallback(cb.CallbackID); err != nil {
		r.Logger.Error("failed to acknowledge join callback", "chat_id", cb.ChatID, "error", err)
	}
	return f.UpdateCurrentState(ctx, nil)
}
