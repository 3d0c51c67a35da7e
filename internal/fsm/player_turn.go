package fsm

import (
	"context"
	"time"

	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/game"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/models"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/tgapi"
)

type playerTurnState struct {
	fsm *FSM
}

func (s *playerTurnState) Enter(ctx context.Context) error {
	g, err := s.fsm.store.GetGameByID(ctx, s.fsm.gameID)
	if err != nil {
		return err
	}
	if g.Question == nil {
		return nil
	}

	masked := game.MaskAnswer(g.Question.Answer, g.RevealedLetters)

	wheel := game.NewUniformWheel(s.fsm.cfg.WheelSectors)
	if len(s.fsm.cfg.SectorWeights) == len(wheel.Sectors) {
		wheel.Weights = s.fsm.cfg.SectorWeights
	}
	bonus := wheel.Spin(s.fsm.rng)

	if err := s.fsm.store.UpdateGameBonusPoints(ctx, s.fsm.gameID, bonus); err != nil {
		return err
	}
	s.fsm.bonusPoints = bonus

	if err := s.fsm.chat.SendMessageWithKeyboard(s.fsm.chatID, fmtYourTurn(masked, bonus), tgapi.TurnKeyboard()); err != nil {
		s.fsm.logger.Error("failed to send turn prompt", "chat_id", s.fsm.chatID, "error", err)
	}

	timeoutSeconds := s.fsm.cfg.TurnTimeoutSeconds
	if timeoutSeconds <= 0 {
		timeoutSeconds = 30
	}
	s.fsm.timers.Start(s.fsm.chatID, time.Duration(timeoutSeconds)*time.Second, func() {
		ctx := context.Background()
		if err := s.fsm.chat.SendMessage(s.fsm.chatID, msgPlayerTimeout); err != nil {
			s.fsm.logger.Error("failed to send turn timeout notice", "chat_id", s.fsm.chatID, "error", err)
		}
		if err := s.fsm.SetCurrentState(ctx, models.GameStateNextPlayerTurn); err != nil {
			s.fsm.logger.Error("failed to advance turn after timeout", "chat_id", s.fsm.chatID, "error", err)
		}
	})
	return nil
}

func (s *playerTurnState) Exit(ctx context.Context) error {
	s.fsm.timers.Cancel(s.fsm.chatID)
	return nil
}

// Update is unused: leave/say-letter/say-word are dispatched straight to
// SetCurrentState by their handlers rather than through this state's
// Update, since they're distinct commands rather than free text.
func (s *playerTurnState) Update(ctx context.Context, updateCtx any) error { return nil }
