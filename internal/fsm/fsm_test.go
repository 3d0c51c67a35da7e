package fsm

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/config"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/models"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/pkg/storage"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testGameConfig() config.GameConfig {
	return config.GameConfig{
		MinNumberOfParticipants:  2,
		WheelSectors:             []int{0, 1, 2},
		LetterTurnTimeoutSeconds: 30,
		WordTurnTimeoutSeconds:   30,
		WaitingTimeoutSeconds:    60,
		TurnTimeoutSeconds:       30,
	}
}

// seedGame creates a question, a game in WAITING_FOR_PLAYERS, and n joined
// participants, returning the created game, an empty FSM Manager and a fake
// chat client; callers build the FSM themselves with newTestFSM.
func seedGame(t *testing.T, store *storage.MockStore, n int) (*models.Game, *Manager, *fakeChatClient) {
	t.Helper()
	ctx := context.Background()

	q, err := store.CreateQuestion(ctx, "capital of france", "PARIS")
	require.NoError(t, err)

	g, err := store.CreateGame(ctx, 100, models.GameStateWaitingForPlayers, q.QuestionID)
	require.NoError(t, err)

	for i := 0; i < n; i++ {
		u, err := store.CreateUser(ctx, int64(1000+i), "player", nil, nil)
		require.NoError(t, err)
		_, err = store.CreateGameParticipant(ctx, g.GameID, u.UserID, i)
		require.NoError(t, err)
	}

	mgr := NewManager()
	chat := &fakeChatClient{}
	return g, mgr, chat
}

func newTestFSM(mgr *Manager, chatID, gameID int64, store storage.GameAccessor, chat *fakeChatClient) *FSM {
	f := New(mgr, chatID, gameID, store, chat, testGameConfig(), testLogger())
	mgr.Set(f)
	return f
}

func TestFSM_WaitingForPlayers_NotEnoughStaysPut(t *testing.T) {
	store := storage.NewMockStore()
	g, mgr, chat := seedGame(t, store, 1)
	f := newTestFSM(mgr, g.ChatID, g.GameID, store, chat)

	ctx := context.Background()
	require.NoError(t, f.SetCurrentState(ctx, models.GameStateWaitingForPlayers))
	require.Equal(t, models.GameStateWaitingForPlayers, f.CurrentState())

	require.NoError(t, f.UpdateCurrentState(ctx, nil))
	require.Equal(t, models.GameStateWaitingForPlayers, f.CurrentState(), "only one player joined, minimum is two")
}

func TestFSM_WaitingForPlayers_EnoughAdvancesToNextPlayerTurn(t *testing.T) {
	store := storage.NewMockStore()
	g, mgr, chat := seedGame(t, store, 2)
	f := newTestFSM(mgr, g.ChatID, g.GameID, store, chat)

	ctx := context.Background()
	require.NoError(t, f.SetCurrentState(ctx, models.GameStateWaitingForPlayers))
	require.NoError(t, f.UpdateCurrentState(ctx, nil))

	require.Equal(t, models.GameStatePlayerTurn, f.CurrentState())
	require.NotZero(t, f.CurrentPlayerTgID())
}

func TestFSM_SetCurrentState_SameStateIsNoOp(t *testing.T) {
	store := storage.NewMockStore()
	g, mgr, chat := seedGame(t, store, 2)
	f := newTestFSM(mgr, g.ChatID, g.GameID, store, chat)

	ctx := context.Background()
	require.NoError(t, f.SetCurrentState(ctx, models.GameStateWaitingForPlayers))
	sentBefore := len(chat.sent)

	require.NoError(t, f.SetCurrentState(ctx, models.GameStateWaitingForPlayers))
	require.Equal(t, sentBefore, len(chat.sent), "re-entering the same state must not re-run Enter")
}

func TestFSM_FullGame_WinByLetters(t *testing.T) {
	store := storage.NewMockStore()
	g, mgr, chat := seedGame(t, store, 2)
	f := newTestFSM(mgr, g.ChatID, g.GameID, store, chat)

	ctx := context.Background()
	require.NoError(t, f.SetCurrentState(ctx, models.GameStateWaitingForPlayers))
	require.NoError(t, f.UpdateCurrentState(ctx, nil))
	require.Equal(t, models.GameStatePlayerTurn, f.CurrentState())

	require.NoError(t, f.SetCurrentState(ctx, models.GameStateWaitingForLetter))

	for _, letter := range []string{"P", "A", "R", "I"} {
		require.NoError(t, f.UpdateCurrentState(ctx, letter))
		if f.CurrentState() == models.GameStatePlayerTurn {
			require.NoError(t, f.SetCurrentState(ctx, models.GameStateWaitingForLetter))
		}
	}
	require.NoError(t, f.UpdateCurrentState(ctx, "S"))

	require.Equal(t, models.GameStateFinished, f.CurrentState())

	winnerID := f.CurrentPlayerParticipantID()
	players, err := store.GetPlayersByGameID(ctx, g.GameID)
	require.NoError(t, err)
	var winner *models.Participant
	for _, p := range players {
		if p.ParticipantID == winnerID {
			winner = p
		}
	}
	require.NotNil(t, winner)
	require.Equal(t, models.ParticipantStateWinner, winner.State)

	_, stillTracked := mgr.Get(g.ChatID)
	require.False(t, stillTracked, "GAME_FINISHED.Enter must remove the FSM from its Manager")
}

func TestFSM_CheckWinner_NoPlayersLeftEndsWithoutWinner(t *testing.T) {
	store := storage.NewMockStore()
	g, mgr, chat := seedGame(t, store, 2)
	f := newTestFSM(mgr, g.ChatID, g.GameID, store, chat)

	ctx := context.Background()
	players, err := store.GetPlayersByGameID(ctx, g.GameID)
	require.NoError(t, err)
	for _, p := range players {
		require.NoError(t, store.UpdateParticipantStatus(ctx, p.ParticipantID, models.ParticipantStateLeft))
	}

	require.NoError(t, f.SetCurrentState(ctx, models.GameStateCheckWinner))
	require.Equal(t, models.GameStateFinished, f.CurrentState())
}

func TestFSM_CheckWinner_OnePlayerLeftDeclaresWinner(t *testing.T) {
	store := storage.NewMockStore()
	g, mgr, chat := seedGame(t, store, 3)
	f := newTestFSM(mgr, g.ChatID, g.GameID, store, chat)

	ctx := context.Background()
	players, err := store.GetPlayersByGameID(ctx, g.GameID)
	require.NoError(t, err)
	require.NoError(t, store.UpdateParticipantStatus(ctx, players[0].ParticipantID, models.ParticipantStateLeft))
	require.NoError(t, store.UpdateParticipantStatus(ctx, players[1].ParticipantID, models.ParticipantStateLeft))

	require.NoError(t, f.SetCurrentState(ctx, models.GameStateCheckWinner))
	require.Equal(t, models.GameStateFinished, f.CurrentState())

	updated, err := store.GetPlayersByGameID(ctx, g.GameID)
	require.NoError(t, err)
	for _, p := range updated {
		if p.ParticipantID == players[2].ParticipantID {
			require.Equal(t, models.ParticipantStateWinner, p.State)
		}
	}
}

func TestFSM_RestoreCurrentState_RehydratesWithoutPersisting(t *testing.T) {
	store := storage.NewMockStore()
	g, mgr, chat := seedGame(t, store, 2)
	f := newTestFSM(mgr, g.ChatID, g.GameID, store, chat)

	ctx := context.Background()
	require.NoError(t, f.SetCurrentState(ctx, models.GameStateWaitingForPlayers))
	require.NoError(t, f.UpdateCurrentState(ctx, nil))
	require.Equal(t, models.GameStatePlayerTurn, f.CurrentState())

	restored := New(mgr, g.ChatID, g.GameID, store, chat, testGameConfig(), testLogger())
	persistedGame, err := store.GetGameByID(ctx, g.GameID)
	require.NoError(t, err)

	require.NoError(t, restored.RestoreCurrentState(ctx, persistedGame))
	require.Equal(t, models.GameStatePlayerTurn, restored.CurrentState())
	require.Equal(t, f.CurrentPlayerTgID(), restored.CurrentPlayerTgID())
}

// A wrong guess marks the guesser LOSER and enters CHECK_WINNER; with only
// one other player still in play, CHECK_WINNER declares that player the
// winner and moves on to GAME_FINISHED.
func TestFSM_WaitingForWord_WrongGuessGoesToCheckWinner(t *testing.T) {
	store := storage.NewMockStore()
	g, mgr, chat := seedGame(t, store, 2)
	f := newTestFSM(mgr, g.ChatID, g.GameID, store, chat)

	ctx := context.Background()
	require.NoError(t, f.SetCurrentState(ctx, models.GameStateWaitingForPlayers))
	require.NoError(t, f.UpdateCurrentState(ctx, nil))
	require.NoError(t, f.SetCurrentState(ctx, models.GameStateWaitingForWord))

	require.NoError(t, f.UpdateCurrentState(ctx, "LONDON"))
	require.Equal(t, models.GameStateFinished, f.CurrentState())
}

func TestFSM_WaitingForWord_CorrectGuessFinishesGame(t *testing.T) {
	store := storage.NewMockStore()
	g, mgr, chat := seedGame(t, store, 2)
	f := newTestFSM(mgr, g.ChatID, g.GameID, store, chat)

	ctx := context.Background()
	require.NoError(t, f.SetCurrentState(ctx, models.GameStateWaitingForPlayers))
	require.NoError(t, f.UpdateCurrentState(ctx, nil))
	require.NoError(t, f.SetCurrentState(ctx, models.GameStateWaitingForWord))

	require.NoError(t, f.UpdateCurrentState(ctx, "paris"))
	require.Equal(t, models.GameStateFinished, f.CurrentState())
}
