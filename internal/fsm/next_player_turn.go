package fsm

import (
	"context"

	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/game"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/models"
)

type nextPlayerTurnState struct {
	fsm *FSM
}

// Enter picks the next active player with no update trigger of its own;
// the transition to PLAYER_TURN (or GAME_FINISHED, if no one remains) is
// immediate.
func (s *nextPlayerTurnState) Enter(ctx context.Context) error {
	players, err := s.fsm.store.GetPlayersByGameID(ctx, s.fsm.gameID)
	if err != nil {
		return err
	}

	var current *models.Participant
	for _, p := range players {
		if p.ParticipantID == s.fsm.currentPlayerParticipID {
			current = p
			break
		}
	}

	result := game.SelectNextPlayer(players, current, s.fsm.rng)

	if result.NoPlayersLeft {
		if result.Demoted != nil {
			_ = s.fsm.store.UpdateParticipantStatus(ctx, result.Demoted.ParticipantID, models.ParticipantStateWaiting)
		}
		return s.fsm.SetCurrentState(ctx, models.GameStateFinished)
	}

	if result.Demoted != nil {
		if err := s.fsm.store.UpdateParticipantStatus(ctx, result.Demoted.ParticipantID, models.ParticipantStateWaiting); err != nil {
			return err
		}
	}

	if err := s.fsm.store.UpdateParticipantStatus(ctx, result.Next.ParticipantID, models.ParticipantStateActiveTurn); err != nil {
		return err
	}
	if err := s.fsm.store.SetCurrentPlayer(ctx, s.fsm.gameID, result.Next.ParticipantID); err != nil {
		return err
	}

	s.fsm.currentPlayerParticipID = result.Next.ParticipantID
	if result.Next.User != nil {
		s.fsm.currentPlayerTgID = result.Next.User.TgUserID
		s.fsm.currentPlayerUsername = result.Next.User.Username
	}

	return s.fsm.SetCurrentState(ctx, models.GameStatePlayerTurn)
}

func (s *nextPlayerTurnState) Exit(ctx context.Context) error { return nil }

func (s *nextPlayerTurnState) Update(ctx context.Context, updateCtx any) error { return nil }
