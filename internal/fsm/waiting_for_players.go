package fsm

import (
	"context"
	"time"

	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/models"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/tgapi"
)

type waitingForPlayersState struct {
	fsm *FSM
}

func (s *waitingForPlayersState) Enter(ctx context.Context) error {
	if err := s.fsm.chat.SendMessageWithKeyboard(s.fsm.chatID, msgJoinPrompt, tgapi.JoinKeyboard()); err != nil {
		s.fsm.logger.Error("failed to send join prompt", "chat_id", s.fsm.chatID, "error", err)
	}

	timeoutSeconds := s.fsm.cfg.WaitingTimeoutSeconds
	if timeoutSeconds <= 0 {
		timeoutSeconds = 60
	}

	s.fsm.timers.Start(s.fsm.chatID, time.Duration(timeoutSeconds)*time.Second, func() {
		ctx := context.Background()
		count, err := s.fsm.store.GetParticipantCount(ctx, s.fsm.gameID)
		if err != nil {
			s.fsm.logger.Error("failed to count participants on waiting timeout", "chat_id", s.fsm.chatID, "error", err)
			return
		}
		if count >= s.fsm.cfg.MinNumberOfParticipants {
			return
		}
		if err := s.fsm.chat.SendMessage(s.fsm.chatID, fmtNotEnoughPlayers(count, s.fsm.cfg.MinNumberOfParticipants)); err != nil {
			s.fsm.logger.Error("failed to send not-enough-players notice", "chat_id", s.fsm.chatID, "error", err)
		}
		if err := s.fsm.SetCurrentState(ctx, models.GameStateFinished); err != nil {
			s.fsm.logger.Error("failed to finish game after waiting timeout", "chat_id", s.fsm.chatID, "error", err)
		}
	})
	return nil
}

func (s *waitingForPlayersState) Exit(ctx context.Context) error {
	s.fsm.timers.Cancel(s.fsm.chatID)
	return nil
}

// Update re-checks the roster after a join; once enough players are in,
// it advances to NEXT_PLAYER_TURN.
func (s *waitingForPlayersState) Update(ctx context.Context, updateCtx any) error {
	count, err := s.fsm.store.GetParticipantCount(ctx, s.fsm.gameID)
	if err != nil {
		return err
	}

	if count >= s.fsm.cfg.MinNumberOfParticipants {
		return s.fsm.SetCurrentState(ctx, models.GameStateNextPlayerTurn)
	}

	if err := s.fsm.chat.SendMessage(s.fsm.chatID, fmtPlayersConnected(count, s.fsm.cfg.MinNumberOfParticipants)); err != nil {
		s.fsm.logger.Error("failed to send players-connected notice", "chat_id", s.fsm.chatID, "error", err)
	}
	return nil
}
