package handlers

import (
	"context"

	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/models"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/tgapi"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/pkg/update"
)

const msgStartPrompt = "Нажмите кнопку, чтобы начать игру"

var startKeyboard = [][]tgapi.Button{{{Text: "Начать игру", Command: "/start"}}}

// TextMessageHandler is the default handler for plain text. With no live
// FSM it nudges the chat toward /start; with an FSM waiting on a letter or
// word it forwards the text as the state's Update trigger. Any other
// state silently ignores the message.
func TextMessageHandler(ctx context.Context, r *Registry, upd *update.Update) error {
	msg := upd.Message
	r.Logger.Info("handling text message", "handler", "text", "from_username", msg.FromUsername, "chat_id", msg.ChatID)

	f, ok := r.FSMs.Get(msg.ChatID)
	if !ok {
		return r.Chat.SendMessageWithKeyboard(msg.ChatID, msgStartPrompt, startKeyboard)
	}

	switch f.CurrentState() {
	case models.GameStateWaitingForLetter, models.GameStateWaitingForWord:
		return f.UpdateCurrentState(ctx, msg.Text)
	default:
		return nil
	}
}
