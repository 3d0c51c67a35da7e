package fsm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/models"
)

type waitingForWordState struct {
	fsm *FSM
}

func (s *waitingForWordState) Enter(ctx context.Context) error {
	if err := s.fsm.chat.SendMessage(s.fsm.chatID, msgPromptWord); err != nil {
		s.fsm.logger.Error("failed to send word prompt", "chat_id", s.fsm.chatID, "error", err)
	}

	timeoutSeconds := s.fsm.cfg.WordTurnTimeoutSeconds
	if timeoutSeconds <= 0 {
		timeoutSeconds = 30
	}
	s.fsm.timers.Start(s.fsm.chatID, time.Duration(timeoutSeconds)*time.Second, func() {
		if err := s.fsm.SetCurrentState(context.Background(), models.GameStateNextPlayerTurn); err != nil {
			s.fsm.logger.Error("failed to advance turn after word timeout", "chat_id", s.fsm.chatID, "error", err)
		}
	})
	return nil
}

func (s *waitingForWordState) Exit(ctx context.Context) error {
	s.fsm.timers.Cancel(s.fsm.chatID)
	return nil
}

func (s *waitingForWordState) Update(ctx context.Context, updateCtx any) error {
	text, _ := updateCtx.(string)

	g, err := s.fsm.store.GetGameByID(ctx, s.fsm.gameID)
	if err != nil {
		return err
	}
	if g.Question == nil {
		return fmt.Errorf("game %d has no question loaded", s.fsm.gameID)
	}

	guess := strings.ToUpper(strings.TrimSpace(text))
	answer := strings.ToUpper(g.Question.Answer)

	if guess == answer {
		if err := s.fsm.store.AddParticipantPoints(ctx, s.fsm.currentPlayerParticipID, s.fsm.bonusPoints); err != nil {
			return err
		}
		if err := s.fsm.store.UpdateParticipantStatus(ctx, s.fsm.currentPlayerParticipID, models.ParticipantStateWinner); err != nil {
			return err
		}
		if err := s.fsm.chat.SendMessage(s.fsm.chatID, msgCorrectLetter); err != nil {
			s.fsm.logger.Error("failed to send correct-word notice", "chat_id", s.fsm.chatID, "error", err)
		}
		return s.fsm.SetCurrentState(ctx, models.GameStateFinished)
	}

	if err := s.fsm.store.UpdateParticipantStatus(ctx, s.fsm.currentPlayerParticipID, models.ParticipantStateLoser); err != nil {
		return err
	}
	if err := s.fsm.chat.SendMessage(s.fsm.chatID, msgWrongWord); err != nil {
		s.fsm.logger.Error("failed to send wrong-word notice", "chat_id", s.fsm.chatID, "error", err)
	}
	return s.fsm.SetCurrentState(ctx, models.GameStateCheckWinner)
}
