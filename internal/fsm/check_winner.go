package fsm

import (
	"context"

	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/game"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/models"
)

type checkWinnerState struct {
	fsm *FSM
}

// Enter evaluates the remaining roster: exactly one player left declares a
// winner, zero left ends the game without one, and more than one sends
// play back to NEXT_PLAYER_TURN.
func (s *checkWinnerState) Enter(ctx context.Context) error {
	players, err := s.fsm.store.GetPlayersByGameID(ctx, s.fsm.gameID)
	if err != nil {
		return err
	}

	remaining := game.RemainingInPlay(players)

	switch len(remaining) {
	case 1:
		if err := s.fsm.store.UpdateParticipantStatus(ctx, remaining[0].ParticipantID, models.ParticipantStateWinner); err != nil {
			return err
		}
		return s.fsm.SetCurrentState(ctx, models.GameStateFinished)
	case 0:
		return s.fsm.SetCurrentState(ctx, models.GameStateFinished)
	default:
		return s.fsm.SetCurrentState(ctx, models.GameStateNextPlayerTurn)
	}
}

func (s *checkWinnerState) Exit(ctx context.Context) error { return nil }

func (s *checkWinnerState) Update(ctx context.Context, updateCtx any) error { return nil }
