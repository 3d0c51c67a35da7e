// Package fsm implements the per-chat game state machine: seven states
// dispatched through a closed tagged union (models.GameState), each state
// a struct holding only a back-reference to its FSM, per the "no deep
// inheritance" design note.
package fsm

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/config"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/models"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/tgapi"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/timer"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/pkg/storage"
)

// State is the behavior one GameState contributes: Enter runs on arrival,
// Exit runs just before leaving (must cancel any timer it started), Update
// handles an in-state trigger (a button press or text message).
type State interface {
	Enter(ctx context.Context) error
	Exit(ctx context.Context) error
	Update(ctx context.Context, updateCtx any) error
}

// FSM is one chat's game state machine.
type FSM struct {
	store  storage.GameAccessor
	chat   tgapi.Client
	timers *timer.Manager
	cfg    config.GameConfig
	logger *slog.Logger
	rng    *rand.Rand
	mgr    *Manager

	chatID int64
	gameID int64

	states       map[models.GameState]State
	currentName  models.GameState
	currentState State

	currentPlayerTgID       int64
	currentPlayerUsername   string
	currentPlayerParticipID int64
	bonusPoints             int
}

// New builds an FSM for one chat's game and populates its state table.
// Callers still need to call SetCurrentState or RestoreCurrentState before
// the FSM does anything.
func New(mgr *Manager, chatID, gameID int64, store storage.GameAccessor, chat tgapi.Client, cfg config.GameConfig, logger *slog.Logger) *FSM {
	f := &FSM{
		store:  store,
		chat:   chat,
		timers: timer.NewManager(),
		cfg:    cfg,
		logger: logger,
		rng:    rand.New(rand.NewSource(chatID)),
		mgr:    mgr,
		chatID: chatID,
		gameID: gameID,
	}
	f.states = map[models.GameState]State{
		models.GameStateWaitingForPlayers: &waitingForPlayersState{fsm: f},
		models.GameStateNextPlayerTurn:    &nextPlayerTurnState{fsm: f},
		models.GameStatePlayerTurn:        &playerTurnState{fsm: f},
		models.GameStateWaitingForLetter:  &waitingForLetterState{fsm: f},
		models.GameStateWaitingForWord:    &waitingForWordState{fsm: f},
		models.GameStateCheckWinner:       &checkWinnerState{fsm: f},
		models.GameStateFinished:          &gameFinishedState{fsm: f},
	}
	return f
}

// ChatID returns the chat this FSM belongs to.
func (f *FSM) ChatID() int64 { return f.chatID }

// GameID returns the persisted game this FSM tracks.
func (f *FSM) GameID() int64 { return f.gameID }

// CurrentState returns the GameState name the FSM is presently in.
func (f *FSM) CurrentState() models.GameState { return f.currentName }

// CurrentPlayerTgID returns the Telegram user id cached for the active
// player, or 0 if there is none.
func (f *FSM) CurrentPlayerTgID() int64 { return f.currentPlayerTgID }

// CurrentPlayerParticipantID returns the participant row id cached for the
// active player, used by handlers to check a /leave_game or /say_letter
// sender actually owns the current turn.
func (f *FSM) CurrentPlayerParticipantID() int64 { return f.currentPlayerParticipID }

// SetCurrentState transitions the FSM to target. A transition to the
// state it is already in is a no-op, which is what makes a racing,
// late-firing timer callback harmless (see package fsm design notes).
func (f *FSM) SetCurrentState(ctx context.Context, target models.GameState) error {
	if f.currentName == target && f.currentState != nil {
		return nil
	}

	if f.currentState != nil {
		if err := f.currentState.Exit(ctx); err != nil {
			f.logger.Error("state exit failed", "chat_id", f.chatID, "state", f.currentName, "error", err)
		}
	}

	if err := f.store.UpdateGameState(ctx, f.gameID, target); err != nil {
		return fmt.Errorf("persist state %s for game %d: %w", target, f.gameID, err)
	}

	next, ok := f.states[target]
	if !ok {
		return fmt.Errorf("no state registered for %s", target)
	}
	f.currentName = target
	f.currentState = next

	if err := next.Enter(ctx); err != nil {
		f.logger.Error("state enter failed", "chat_id", f.chatID, "state", target, "error", err)
		return err
	}
	return nil
}

// UpdateCurrentState delegates an in-state trigger to the active state.
func (f *FSM) UpdateCurrentState(ctx context.Context, updateCtx any) error {
	if f.currentState == nil {
		return fmt.Errorf("fsm for chat %d has no current state", f.chatID)
	}
	return f.currentState.Update(ctx, updateCtx)
}

// RestoreCurrentState rehydrates the FSM from a persisted Game after a
// worker restart, without re-persisting the state (it is already
// persisted) and without calling Exit on any prior in-memory state.
func (f *FSM) RestoreCurrentState(ctx context.Context, game *models.Game) error {
	f.bonusPoints = game.BonusPoints
	if game.CurrentPlayer != nil {
		f.currentPlayerParticipID = game.CurrentPlayer.ParticipantID
		if game.CurrentPlayer.User != nil {
			f.currentPlayerTgID = game.CurrentPlayer.User.TgUserID
			f.currentPlayerUsername = game.CurrentPlayer.User.Username
		}
	}

	next, ok := f.states[game.State]
	if !ok {
		return fmt.Errorf("no state registered for %s", game.State)
	}
	f.currentName = game.State
	f.currentState = next
	return next.Enter(ctx)
}

// Manager is the process-local mapping chat_id -> *FSM. Each worker is
// single-threaded per chat (by hash shard), so no locking is needed here;
// reintroducing one would defeat the sharding that already guarantees
// exclusivity.
type Manager struct {
	fsms map[int64]*FSM
}

// NewManager builds an empty FSM Manager.
func NewManager() *Manager {
	return &Manager{fsms: make(map[int64]*FSM)}
}

// Get returns the FSM for chatID, if one is live in this worker process.
func (m *Manager) Get(chatID int64) (*FSM, bool) {
	f, ok := m.fsms[chatID]
	return f, ok
}

// Set registers f under its own chat id.
func (m *Manager) Set(f *FSM) {
	m.fsms[f.chatID] = f
}

// Remove drops the FSM for chatID, typically called by GAME_FINISHED.
func (m *Manager) Remove(chatID int64) {
	delete(m.fsms, chatID)
}

// Count returns the number of FSMs live in this process, one per game
// currently in progress on this worker's shard.
func (m *Manager) Count() int {
	return len(m.fsms)
}

// GameIDs returns the persisted game id of every FSM live in this process.
func (m *Manager) GameIDs() []int64 {
	ids := make([]int64, 0, len(m.fsms))
	for _, f := range m.fsms {
		ids = append(ids, f.gameID)
	}
	return ids
}
