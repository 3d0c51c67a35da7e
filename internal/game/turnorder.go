package game

import (
	"math/rand"
	"sort"

	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/models"
)

// NextPlayerResult is the outcome of SelectNextPlayer: who becomes the new
// active player (nil if the game has no one left to play), and who is
// demoted from ACTIVE_TURN to WAITING in the process (nil if there was no
// current player, or the current player already left/lost).
type NextPlayerResult struct {
	Next    *models.Participant
	Demoted *models.Participant
	// NoPlayersLeft is true when no participant other than the current
	// player is WAITING (a current player still in ACTIVE_TURN is then
	// reported in Demoted); the caller must transition straight to
	// GAME_FINISHED rather than attempt PLAYER_TURN.
	NoPlayersLeft bool
}

// SelectNextPlayer picks the next active player: with no current player,
// choose uniformly among WAITING participants; otherwise advance
// turn_order modulo the roster, skipping anyone not WAITING, starting just
// past the current player.
func SelectNextPlayer(participants []*models.Participant, current *models.Participant, rng *rand.Rand) NextPlayerResult {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	if current == nil {
		var waiting []*models.Participant
		for _, p := range participants {
			if p.State == models.ParticipantStateWaiting {
				waiting = append(waiting, p)
			}
		}
		if len(waiting) == 0 {
			return NextPlayerResult{NoPlayersLeft: true}
		}
		pick := waiting[rng.Intn(len(waiting))]
		return NextPlayerResult{Next: pick}
	}

	sorted := make([]*models.Participant, len(participants))
	copy(sorted, participants)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].TurnOrder < sorted[j].TurnOrder })

	n := len(sorted)
	if n == 0 {
		return NextPlayerResult{NoPlayersLeft: true}
	}

	startIdx := -1
	for i, p := range sorted {
		if p.ParticipantID == current.ParticipantID {
			startIdx = i
			break
		}
	}
	if startIdx == -1 {
		startIdx = 0
	} else {
		startIdx = (startIdx + 1) % n
	}

	var next *models.Participant
	for i := 0; i < n; i++ {
		candidate := sorted[(startIdx+i)%n]
		if candidate.State == models.ParticipantStateWaiting {
			next = candidate
			break
		}
	}

	var demoted *models.Participant
	if current.State == models.ParticipantStateActiveTurn {
		demoted = current
	}

	if next == nil {
		return NextPlayerResult{Demoted: demoted, NoPlayersLeft: true}
	}

	return NextPlayerResult{Next: next, Demoted: demoted}
}

// RemainingInPlay returns the subset of participants still eligible to win
// (ACTIVE_TURN or WAITING), used by the CHECK_WINNER state.
func RemainingInPlay(participants []*models.Participant) []*models.Participant {
	var remaining []*models.Participant
	for _, p := range participants {
		if p.State == models.ParticipantStateActiveTurn || p.State == models.ParticipantStateWaiting {
			remaining = append(remaining, p)
		}
	}
	return remaining
}
