package handlers

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/config"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/fsm"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/metrics"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/models"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/tgapi"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/pkg/storage"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/pkg/update"
	"github.com/stretchr/testify/require"
)

type fakeChat struct {
	sent       []string
	acked      []string
	keyboards  int
}

var _ tgapi.Client = (*fakeChat)(nil)

func (f *fakeChat) SendMessage(chatID int64, text string) error {
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeChat) SendMessageWithKeyboard(chatID int64, text string, keyboard [][]tgapi.Button) error {
	f.sent = append(f.sent, text)
	f.keyboards++
	return nil
}

func (f *fakeChat) AnswerCallback(callbackID string) error {
	f.acked = append(f.acked, callbackID)
	return nil
}

func newRegistry(t *testing.T) (*Registry, *storage.MockStore, *fakeChat) {
	t.Helper()
	store := storage.NewMockStore()
	chat := &fakeChat{}
	cfg := config.GameConfig{MinNumberOfParticipants: 2, WheelSectors: []int{0, 1}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := New(store, chat, fsm.NewManager(), cfg, logger, metrics.New())
	return r, store, chat
}

func callbackUpdate(chatID, fromID int64, username, command, callbackID string) *update.Update {
	return update.NewCallbackQueryUpdate(1, 1, update.CallbackQuery{
		CallbackID:   callbackID,
		ChatID:       chatID,
		Command:      command,
		FromID:       fromID,
		FromUsername: username,
	})
}

func textUpdate(chatID, fromID int64, username, text string) *update.Update {
	return update.NewMessageUpdate(1, 1, update.Message{
		ChatID:       chatID,
		Text:         text,
		FromID:       fromID,
		FromUsername: username,
	})
}

func TestStartHandler_CreatesGameWhenNoneRunning(t *testing.T) {
	r, store, chat := newRegistry(t)
	ctx := context.Background()
	_, err := store.CreateQuestion(ctx, "capital of france", "PARIS")
	require.NoError(t, err)

	require.NoError(t, r.Dispatch(ctx, callbackUpdate(1, 10, "alice", "/start", "cb1")))

	f, ok := r.FSMs.Get(1)
	require.True(t, ok)
	require.Equal(t, models.GameStateWaitingForPlayers, f.CurrentState())
	require.NotEmpty(t, chat.sent)
}

func TestStartHandler_NoQuestionsRefuses(t *testing.T) {
	r, _, chat := newRegistry(t)
	ctx := context.Background()

	require.NoError(t, r.Dispatch(ctx, callbackUpdate(1, 10, "alice", "/start", "cb1")))

	_, ok := r.FSMs.Get(1)
	require.False(t, ok)
	require.Contains(t, chat.sent, msgNoQuestionsAvailable)
}

func TestStartHandler_AlreadyRunningRefuses(t *testing.T) {
	r, store, chat := newRegistry(t)
	ctx := context.Background()
	_, err := store.CreateQuestion(ctx, "capital of france", "PARIS")
	require.NoError(t, err)
	require.NoError(t, r.Dispatch(ctx, callbackUpdate(1, 10, "alice", "/start", "cb1")))

	require.NoError(t, r.Dispatch(ctx, callbackUpdate(1, 11, "bob", "/start", "cb2")))
	require.Contains(t, chat.sent, msgGameAlreadyRunning, "second /start must refuse with a notice, not start a second game")
}

func TestJoinHandler_RegistersParticipantAndAdvances(t *testing.T) {
	r, store, _ := newRegistry(t)
	ctx := context.Background()
	_, err := store.CreateQuestion(ctx, "capital of france", "PARIS")
	require.NoError(t, err)
	require.NoError(t, r.Dispatch(ctx, callbackUpdate(1, 10, "alice", "/start", "cb1")))

	require.NoError(t, r.Dispatch(ctx, callbackUpdate(1, 10, "alice", "/join", "cb2")))
	f, ok := r.FSMs.Get(1)
	require.True(t, ok)
	require.Equal(t, models.GameStateWaitingForPlayers, f.CurrentState(), "one player is still below the minimum")

	require.NoError(t, r.Dispatch(ctx, callbackUpdate(1, 11, "bob", "/join", "cb3")))
	f, ok = r.FSMs.Get(1)
	require.True(t, ok)
	require.Equal(t, models.GameStatePlayerTurn, f.CurrentState(), "second join reaches the minimum and starts play")
}

func TestJoinHandler_DuplicateRejected(t *testing.T) {
	r, store, chat := newRegistry(t)
	ctx := context.Background()
	_, err := store.CreateQuestion(ctx, "capital of france", "PARIS")
	require.NoError(t, err)
	require.NoError(t, r.Dispatch(ctx, callbackUpdate(1, 10, "alice", "/start", "cb1")))
	require.NoError(t, r.Dispatch(ctx, callbackUpdate(1, 10, "alice", "/join", "cb2")))

	require.NoError(t, r.Dispatch(ctx, callbackUpdate(1, 10, "alice", "/join", "cb3")))
	require.Contains(t, chat.sent, msgAlreadyRegistered)
}

func TestLeaveGameHandler_OnlyCurrentPlayerCanLeave(t *testing.T) {
	r, store, _ := newRegistry(t)
	ctx := context.Background()
	_, err := store.CreateQuestion(ctx, "capital of france", "PARIS")
	require.NoError(t, err)
	require.NoError(t, r.Dispatch(ctx, callbackUpdate(1, 10, "alice", "/start", "cb1")))
	require.NoError(t, r.Dispatch(ctx, callbackUpdate(1, 10, "alice", "/join", "cb2")))
	require.NoError(t, r.Dispatch(ctx, callbackUpdate(1, 11, "bob", "/join", "cb3")))

	f, ok := r.FSMs.Get(1)
	require.True(t, ok)
	require.Equal(t, models.GameStatePlayerTurn, f.CurrentState())
	activeTgID := f.CurrentPlayerTgID()
	bystanderID := int64(10)
	if activeTgID == bystanderID {
		bystanderID = 11
	}

	require.NoError(t, r.Dispatch(ctx, callbackUpdate(1, bystanderID, "bystander", "/leave_game", "cb4")))
	f, _ = r.FSMs.Get(1)
	require.Equal(t, models.GameStatePlayerTurn, f.CurrentState(), "a bystander cannot leave on someone else's turn")

	require.NoError(t, r.Dispatch(ctx, callbackUpdate(1, activeTgID, "active", "/leave_game", "cb5")))
	f, ok = r.FSMs.Get(1)
	if ok {
		require.NotEqual(t, models.GameStatePlayerTurn, f.CurrentState())
	}
}

func TestSayLetterHandler_MovesToWaitingForLetter(t *testing.T) {
	r, store, _ := newRegistry(t)
	ctx := context.Background()
	_, err := store.CreateQuestion(ctx, "capital of france", "PARIS")
	require.NoError(t, err)
	require.NoError(t, r.Dispatch(ctx, callbackUpdate(1, 10, "alice", "/start", "cb1")))
	require.NoError(t, r.Dispatch(ctx, callbackUpdate(1, 10, "alice", "/join", "cb2")))
	require.NoError(t, r.Dispatch(ctx, callbackUpdate(1, 11, "bob", "/join", "cb3")))

	f, ok := r.FSMs.Get(1)
	require.True(t, ok)
	activeTgID := f.CurrentPlayerTgID()

	require.NoError(t, r.Dispatch(ctx, callbackUpdate(1, activeTgID, "active", "/say_letter", "cb4")))
	f, ok = r.FSMs.Get(1)
	require.True(t, ok)
	require.Equal(t, models.GameStateWaitingForLetter, f.CurrentState())
}

func TestTextMessageHandler_NoFSMPromptsStart(t *testing.T) {
	r, _, chat := newRegistry(t)
	require.NoError(t, r.Dispatch(context.Background(), textUpdate(99, 1, "alice", "hello")))
	require.NotEmpty(t, chat.sent)
	require.Equal(t, 1, chat.keyboards)
}

func TestTextMessageHandler_ForwardsToWaitingForLetter(t *testing.T) {
	r, store, _ := newRegistry(t)
	ctx := context.Background()
	_, err := store.CreateQuestion(ctx, "capital of france", "PARIS")
	require.NoError(t, err)
	require.NoError(t, r.Dispatch(ctx, callbackUpdate(1, 10, "alice", "/start", "cb1")))
	require.NoError(t, r.Dispatch(ctx, callbackUpdate(1, 10, "alice", "/join", "cb2")))
	require.NoError(t, r.Dispatch(ctx, callbackUpdate(1, 11, "bob", "/join", "cb3")))

	f, ok := r.FSMs.Get(1)
	require.True(t, ok)
	activeTgID := f.CurrentPlayerTgID()
	require.NoError(t, r.Dispatch(ctx, callbackUpdate(1, activeTgID, "active", "/say_letter", "cb4")))

	require.NoError(t, r.Dispatch(ctx, textUpdate(1, activeTgID, "active", "P")))
	f, ok = r.FSMs.Get(1)
	require.True(t, ok)
	require.Equal(t, models.GameStatePlayerTurn, f.CurrentState(), "a correct, non-winning letter returns to PLAYER_TURN")
}
