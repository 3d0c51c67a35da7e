// Package tgapi wraps go-telegram-bot-api into the narrow surface the
// poller and handlers need: long-poll update delivery, plain replies, and
// the inline keyboards the game's commands are bound to.
package tgapi

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"github.com/AlexeyPetrochenko/kts-tg-bot-game/pkg/update"
)

// telegramRateLimit is Telegram's documented global cap of roughly 30
// messages per second across all chats; BotClient throttles to this so a
// burst of FSM-driven replies never triggers a 429.
const telegramRateLimit = 30

// Client is the outbound half of the chat API: sending replies and
// acknowledging callbacks. internal/poller owns the inbound long-poll
// loop, since it alone needs the raw tgbotapi.Update to translate into
// pkg/update.Update.
type Client interface {
	SendMessage(chatID int64, text string) error
	SendMessageWithKeyboard(chatID int64, text string, keyboard [][]Button) error
	AnswerCallback(callbackID string) error
}

// Button is one inline keyboard button: visible Text bound to a Command
// the bot dispatches on tap.
type Button struct {
	Text    string
	Command string
}

// BotClient is the production Client, backed by a long-lived tgbotapi.BotAPI.
type BotClient struct {
	api     *tgbotapi.BotAPI
	logger  *slog.Logger
	limiter *rate.Limiter
}

// NewBotClient authenticates against the Telegram Bot API with token.
func NewBotClient(token string, logger *slog.Logger) (*BotClient, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telegram bot: %w", err)
	}
	logger.Info("telegram bot authenticated", "username", api.Self.UserName)
	limiter := rate.NewLimiter(rate.Limit(telegramRateLimit), telegramRateLimit)
	return &BotClient{api: api, logger: logger, limiter: limiter}, nil
}

func (c *BotClient) SendMessage(chatID int64, text string) error {
	if err := c.limiter.Wait(context.Background()); err != nil {
		return fmt.Errorf("rate limit wait for chat %d: %w", chatID, err)
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := c.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send message to chat %d: %w", chatID, err)
	}
	return nil
}

func (c *BotClient) SendMessageWithKeyboard(chatID int64, text string, keyboard [][]Button) error {
	if err := c.limiter.Wait(context.Background()); err != nil {
		return fmt.Errorf("rate limit wait for chat %d: %w", chatID, err)
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = buildKeyboard(keyboard)
	if _, err := c.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send message with keyboard to chat %d: %w", chatID, err)
	}
	return nil
}

func (c *BotClient) AnswerCallback(callbackID string) error {
	if err := c.limiter.Wait(context.Background()); err != nil {
		return fmt.Errorf("rate limit wait for callback %s: %w", callbackID, err)
	}
	if _, err := c.api.Request(tgbotapi.NewCallback(callbackID, "")); err != nil {
		return fmt.Errorf("failed to answer callback %s: %w", callbackID, err)
	}
	return nil
}

func buildKeyboard(rows [][]Button) tgbotapi.InlineKeyboardMarkup {
	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		kbRow := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			kbRow = append(kbRow, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Command))
		}
		kbRows = append(kbRows, kbRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(kbRows...)
}

// JoinKeyboard is the single-row keyboard offered during WAITING_FOR_PLAYERS.
func JoinKeyboard() [][]Button {
	return [][]Button{{{Text: "Присоединиться", Command: "/join"}}}
}

// TurnKeyboard is the three-row keyboard offered to the active player:
// leave, say a letter, say the word.
func TurnKeyboard() [][]Button {
	return [][]Button{
		{{Text: "Покинуть игру", Command: "/leave_game"}},
		{{Text: "Назвать букву", Command: "/say_letter"}},
		{{Text: "Назвать слово", Command: "/say_word"}},
	}
}

// FromTelegramUpdate translates a raw tgbotapi.Update into the bot's own
// update.Update, the wire shape published onto the broker. It returns
// (nil, false) for update types the bot doesn't act on (e.g. edited
// messages, channel posts).
func FromTelegramUpdate(u tgbotapi.Update) (*update.Update, bool) {
	switch {
	case u.Message != nil:
		from := u.Message.From
		if from == nil {
			return nil, false
		}
		msg := update.Message{
			ChatID:       u.Message.Chat.ID,
			Text:         u.Message.Text,
			MessageID:    int64(u.Message.MessageID),
			FromID:       from.ID,
			FromUsername: from.UserName,
		}
		return update.NewMessageUpdate(int64(u.UpdateID), int64(u.Message.Date), msg), true

	case u.CallbackQuery != nil:
		cb := u.CallbackQuery
		if cb.Message == nil || cb.From == nil {
			return nil, false
		}
		q := update.CallbackQuery{
			CallbackID:   cb.ID,
			ChatID:       cb.Message.Chat.ID,
			Command:      cb.Data,
			MessageID:    int64(cb.Message.MessageID),
			FromID:       cb.From.ID,
			FromUsername: cb.From.UserName,
		}
		return update.NewCallbackQueryUpdate(int64(u.UpdateID), int64(cb.Message.Date), q), true

	default:
		return nil, false
	}
}
