package update

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShardIndex_Deterministic(t *testing.T) {
	const n = 4
	first := ShardIndex(100, n)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, ShardIndex(100, n))
	}
}

func TestShardIndex_WithinRange(t *testing.T) {
	for _, chatID := range []int64{0, 1, -1, 100, 123456789, -987654} {
		for _, n := range []int{1, 2, 4, 16} {
			idx := ShardIndex(chatID, n)
			assert.GreaterOrEqual(t, idx, 0)
			assert.Less(t, idx, n)
		}
	}
}

func TestUpdate_RoundTrip(t *testing.T) {
	original := NewMessageUpdate(42, 1700000000, Message{
		ChatID:       100,
		Text:         "hello",
		MessageID:    7,
		FromID:       1,
		FromUsername: "alice",
	})

	data, err := original.ToJSON()
	require.NoError(t, err)

	parsed, err := FromJSON(data)
	require.NoError(t, err)

	assert.Equal(t, original.UpdateID, parsed.UpdateID)
	assert.Equal(t, original.Date, parsed.Date)
	assert.Equal(t, original.Kind, parsed.Kind)
	assert.Equal(t, *original.Message, *parsed.Message)

	// R1: re-serializing the parsed value must be byte-identical for the
	// contract fields.
	reData, err := parsed.ToJSON()
	require.NoError(t, err)

	var a, b map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &a))
	require.NoError(t, json.Unmarshal(reData, &b))
	assert.Equal(t, a, b)
}

func TestUpdate_CallbackQueryChatID(t *testing.T) {
	u := NewCallbackQueryUpdate(1, 1, CallbackQuery{ChatID: 555, Command: "/join"})
	assert.Equal(t, int64(555), u.ChatID())
}

func TestQueueName(t *testing.T) {
	assert.Equal(t, "update_queue_0", QueueName(0))
	assert.Equal(t, "update_queue_3", QueueName(3))
}
