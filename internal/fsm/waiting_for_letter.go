package fsm

import (
	"context"
	"fmt"
	"time"

	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/game"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/models"
)

type waitingForLetterState struct {
	fsm *FSM
}

func (s *waitingForLetterState) Enter(ctx context.Context) error {
	if err := s.fsm.chat.SendMessage(s.fsm.chatID, msgPromptLetter); err != nil {
		s.fsm.logger.Error("failed to send letter prompt", "chat_id", s.fsm.chatID, "error", err)
	}

	timeoutSeconds := s.fsm.cfg.LetterTurnTimeoutSeconds
	if timeoutSeconds <= 0 {
		timeoutSeconds = 30
	}
	s.fsm.timers.Start(s.fsm.chatID, time.Duration(timeoutSeconds)*time.Second, func() {
		if err := s.fsm.SetCurrentState(context.Background(), models.GameStateNextPlayerTurn); err != nil {
			s.fsm.logger.Error("failed to advance turn after letter timeout", "chat_id", s.fsm.chatID, "error", err)
		}
	})
	return nil
}

func (s *waitingForLetterState) Exit(ctx context.Context) error {
	s.fsm.timers.Cancel(s.fsm.chatID)
	return nil
}

// Update validates the input is a single letter, rejects a repeat, scores
// a hit, and checks for a completed word.
func (s *waitingForLetterState) Update(ctx context.Context, updateCtx any) error {
	text, _ := updateCtx.(string)

	letter, ok := game.IsSingleLetter(text)
	if !ok {
		if err := s.fsm.chat.SendMessage(s.fsm.chatID, msgNotALetter); err != nil {
			s.fsm.logger.Error("failed to send not-a-letter notice", "chat_id", s.fsm.chatID, "error", err)
		}
		return s.fsm.SetCurrentState(ctx, models.GameStateNextPlayerTurn)
	}

	g, err := s.fsm.store.GetGameByID(ctx, s.fsm.gameID)
	if err != nil {
		return err
	}
	if g.Question == nil {
		return fmt.Errorf("game %d has no question loaded", s.fsm.gameID)
	}

	if game.ContainsLetter(g.RevealedLetters, letter) {
		if err := s.fsm.chat.SendMessage(s.fsm.chatID, msgLetterAlreadyUsed); err != nil {
			s.fsm.logger.Error("failed to send letter-already-used notice", "chat_id", s.fsm.chatID, "error", err)
		}
		return s.fsm.SetCurrentState(ctx, models.GameStateNextPlayerTurn)
	}

	count := game.CountOccurrences(g.Question.Answer, letter)
	if count == 0 {
		if err := s.fsm.store.AddRevealedLetter(ctx, s.fsm.gameID, letter); err != nil {
			return err
		}
		if err := s.fsm.chat.SendMessage(s.fsm.chatID, msgLetterNotInWord); err != nil {
			s.fsm.logger.Error("failed to send letter-not-in-word notice", "chat_id", s.fsm.chatID, "error", err)
		}
		return s.fsm.SetCurrentState(ctx, models.GameStateNextPlayerTurn)
	}

	if err := s.fsm.store.AddRevealedLetter(ctx, s.fsm.gameID, letter); err != nil {
		return err
	}
	if err := s.fsm.store.AddParticipantPoints(ctx, s.fsm.currentPlayerParticipID, s.fsm.bonusPoints*count); err != nil {
		return err
	}
	if err := s.fsm.chat.SendMessage(s.fsm.chatID, msgCorrectLetter); err != nil {
		s.fsm.logger.Error("failed to send correct-letter notice", "chat_id", s.fsm.chatID, "error", err)
	}

	updatedRevealed := g.RevealedLetters + string(letter)
	if game.IsWordGuessed(g.Question.Answer, updatedRevealed) {
		if err := s.fsm.store.UpdateParticipantStatus(ctx, s.fsm.currentPlayerParticipID, models.ParticipantStateWinner); err != nil {
			return err
		}
		return s.fsm.SetCurrentState(ctx, models.GameStateFinished)
	}
	return s.fsm.SetCurrentState(ctx, models.GameStatePlayerTurn)
}
