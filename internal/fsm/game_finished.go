package fsm

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/models"
)

type gameFinishedState struct {
	fsm *FSM
}

// Enter finalizes participant statuses, announces the outcome (unless the
// game ended with no winner, in which case it ends quietly), and removes
// the FSM from its Manager so the chat's next /start builds a fresh one.
func (s *gameFinishedState) Enter(ctx context.Context) error {
	defer s.fsm.mgr.Remove(s.fsm.chatID)

	g, err := s.fsm.store.GetGameByID(ctx, s.fsm.gameID)
	if err != nil {
		return err
	}
	players, err := s.fsm.store.GetPlayersByGameID(ctx, s.fsm.gameID)
	if err != nil {
		return err
	}

	var winner *models.Participant
	for _, p := range players {
		if p.State == models.ParticipantStateWinner {
			winner = p
			break
		}
	}

	if winner == nil {
		var orphans []int64
		for _, p := range players {
			if p.State == models.ParticipantStateWaiting || p.State == models.ParticipantStateActiveTurn {
				orphans = append(orphans, p.ParticipantID)
			}
		}
		if len(orphans) > 0 {
			if err := s.fsm.store.UpdateParticipantStatusMany(ctx, orphans, models.ParticipantStateLeft); err != nil {
				return err
			}
		}
		return nil
	}

	var loserIDs []int64
	for _, p := range players {
		if p.ParticipantID != winner.ParticipantID && p.State == models.ParticipantStateWaiting {
			loserIDs = append(loserIDs, p.ParticipantID)
		}
	}
	if len(loserIDs) > 0 {
		if err := s.fsm.store.UpdateParticipantStatusMany(ctx, loserIDs, models.ParticipantStateLoser); err != nil {
			return err
		}
	}

	answer := ""
	if g.Question != nil {
		answer = g.Question.Answer
	}
	scoreboard := buildScoreboard(winner, players, answer)
	if err := s.fsm.chat.SendMessage(s.fsm.chatID, fmtGameFinished(scoreboard)); err != nil {
		s.fsm.logger.Error("failed to send final scoreboard", "chat_id", s.fsm.chatID, "error", err)
	}
	return nil
}

func (s *gameFinishedState) Exit(ctx context.Context) error { return nil }

func (s *gameFinishedState) Update(ctx context.Context, updateCtx any) error { return nil }

// buildScoreboard renders the winner line followed by the remaining
// players sorted by points descending, with the answer revealed.
func buildScoreboard(winner *models.Participant, players []*models.Participant, answer string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Слово: %s\n", answer)
	fmt.Fprintf(&b, "Победитель: %s (%d очков)\n", displayName(winner), winner.Points)

	losers := make([]*models.Participant, 0, len(players))
	for _, p := range players {
		if p.ParticipantID != winner.ParticipantID {
			losers = append(losers, p)
		}
	}
	sort.Slice(losers, func(i, j int) bool { return losers[i].Points > losers[j].Points })

	for _, p := range losers {
		fmt.Fprintf(&b, "%s: %d очков\n", displayName(p), p.Points)
	}
	return b.String()
}

func displayName(p *models.Participant) string {
	if p.User == nil {
		return fmt.Sprintf("участник %d", p.ParticipantID)
	}
	return p.User.Username
}
