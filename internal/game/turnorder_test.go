package game

import (
	"math/rand"
	"testing"

	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitingRoster(n int) []*models.Participant {
	roster := make([]*models.Participant, n)
	for i := 0; i < n; i++ {
		roster[i] = &models.Participant{
			ParticipantID: int64(i + 1),
			TurnOrder:     i,
			State:         models.ParticipantStateWaiting,
		}
	}
	return roster
}

func TestSelectNextPlayer_BootstrapNoCurrent(t *testing.T) {
	roster := waitingRoster(3)
	rng := rand.New(rand.NewSource(7))

	result := SelectNextPlayer(roster, nil, rng)

	require.False(t, result.NoPlayersLeft)
	require.NotNil(t, result.Next)
	assert.Nil(t, result.Demoted)
}

func TestSelectNextPlayer_BootstrapEmptyRoster(t *testing.T) {
	result := SelectNextPlayer(nil, nil, rand.New(rand.NewSource(1)))
	assert.True(t, result.NoPlayersLeft)
	assert.Nil(t, result.Next)
}

// P8: round-robin fairness — starting from any current player, every other
// WAITING participant is visited once before any is revisited.
func TestSelectNextPlayer_RoundRobinFairness(t *testing.T) {
	roster := waitingRoster(5)
	current := roster[0]
	current.State = models.ParticipantStateActiveTurn

	visited := map[int64]bool{current.ParticipantID: true}
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < len(roster)-1; i++ {
		result := SelectNextPlayer(roster, current, rng)
		require.False(t, result.NoPlayersLeft)
		require.NotNil(t, result.Next)
		assert.False(t, visited[result.Next.ParticipantID], "participant %d revisited before roster exhausted", result.Next.ParticipantID)
		visited[result.Next.ParticipantID] = true

		require.NotNil(t, result.Demoted)
		assert.Equal(t, current.ParticipantID, result.Demoted.ParticipantID)

		current.State = models.ParticipantStateWaiting
		current = result.Next
		current.State = models.ParticipantStateActiveTurn
	}

	assert.Len(t, visited, len(roster))
}

func TestSelectNextPlayer_SkipsNonWaiting(t *testing.T) {
	roster := waitingRoster(3)
	roster[0].State = models.ParticipantStateActiveTurn
	roster[1].State = models.ParticipantStateLeft
	roster[2].State = models.ParticipantStateWaiting

	result := SelectNextPlayer(roster, roster[0], rand.New(rand.NewSource(3)))

	require.NotNil(t, result.Next)
	assert.Equal(t, roster[2].ParticipantID, result.Next.ParticipantID)
}

// When no one other than the current player remains WAITING, the caller
// must go straight to GAME_FINISHED instead of attempting another
// PLAYER_TURN.
func TestSelectNextPlayer_NoPlayersLeft(t *testing.T) {
	roster := waitingRoster(2)
	roster[0].State = models.ParticipantStateActiveTurn
	roster[1].State = models.ParticipantStateLoser

	result := SelectNextPlayer(roster, roster[0], rand.New(rand.NewSource(5)))

	assert.True(t, result.NoPlayersLeft)
	assert.Nil(t, result.Next)
	require.NotNil(t, result.Demoted)
	assert.Equal(t, roster[0].ParticipantID, result.Demoted.ParticipantID)
}

func TestSelectNextPlayer_CurrentAlreadyLeftNoDemotion(t *testing.T) {
	roster := waitingRoster(2)
	roster[0].State = models.ParticipantStateLeft
	roster[1].State = models.ParticipantStateWaiting

	result := SelectNextPlayer(roster, roster[0], rand.New(rand.NewSource(9)))

	require.NotNil(t, result.Next)
	assert.Equal(t, roster[1].ParticipantID, result.Next.ParticipantID)
	assert.Nil(t, result.Demoted)
}

func TestRemainingInPlay(t *testing.T) {
	roster := waitingRoster(4)
	roster[0].State = models.ParticipantStateActiveTurn
	roster[1].State = models.ParticipantStateWaiting
	roster[2].State = models.ParticipantStateWinner
	roster[3].State = models.ParticipantStateLoser

	remaining := RemainingInPlay(roster)

	require.Len(t, remaining, 2)
	assert.Equal(t, roster[0].ParticipantID, remaining[0].ParticipantID)
	assert.Equal(t, roster[1].ParticipantID, remaining[1].ParticipantID)
}
