// Package update defines the normalized inbound event the Poller produces
// and the Worker consumes, along with the deterministic shard routing used
// to place it on one of the N durable broker queues.
package update

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"math/big"
)

// Message is a plain text message sent by a user in a chat.
type Message struct {
	ChatID       int64  `json:"chat_id"`
	Text         string `json:"text"`
	MessageID    int64  `json:"message_id"`
	FromID       int64  `json:"from_id"`
	FromUsername string `json:"from_username"`
}

// CallbackQuery is an inline-button press.
type CallbackQuery struct {
	CallbackID   string `json:"callback_id"`
	ChatID       int64  `json:"chat_id"`
	Command      string `json:"command"`
	MessageID    int64  `json:"message_id"`
	FromID       int64  `json:"from_id"`
	FromUsername string `json:"from_username"`
}

// BodyKind identifies which concrete type Update.Body holds, since the
// queue message is transported as JSON and loses the Go type on the wire.
type BodyKind string

const (
	BodyKindMessage       BodyKind = "message"
	BodyKindCallbackQuery BodyKind = "callback_query"
)

// Update is the normalized form of one inbound event, as published to a
// broker queue.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Date     int64    `json:"date"`
	Kind     BodyKind `json:"kind"`

	Message       *Message       `json:"message,omitempty"`
	CallbackQuery *CallbackQuery `json:"callback_query,omitempty"`
}

// ChatID returns the chat_id carried by whichever body is set.
func (u *Update) ChatID() int64 {
	switch u.Kind {
	case BodyKindMessage:
		if u.Message != nil {
			return u.Message.ChatID
		}
	case BodyKindCallbackQuery:
		if u.CallbackQuery != nil {
			return u.CallbackQuery.ChatID
		}
	}
	return 0
}

// NewMessageUpdate builds an Update wrapping a text Message.
func NewMessageUpdate(updateID, date int64, msg Message) *Update {
	return &Update{UpdateID: updateID, Date: date, Kind: BodyKindMessage, Message: &msg}
}

// NewCallbackQueryUpdate builds an Update wrapping a CallbackQuery.
func NewCallbackQueryUpdate(updateID, date int64, cb CallbackQuery) *Update {
	return &Update{UpdateID: updateID, Date: date, Kind: BodyKindCallbackQuery, CallbackQuery: &cb}
}

// ToJSON serializes the update for the broker message body.
func (u *Update) ToJSON() ([]byte, error) {
	return json.Marshal(u)
}

// FromJSON parses an update as delivered from the broker.
func FromJSON(data []byte) (*Update, error) {
	var u Update
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("parse update: %w", err)
	}
	return &u, nil
}

// QueueName returns the name of the durable queue for shard index k.
func QueueName(k int) string {
	return fmt.Sprintf("update_queue_%d", k)
}

// ShardIndex deterministically maps a chat_id to one of N shard indexes:
// SHA-256 of the chat_id's ASCII decimal representation, interpreted as a
// big-endian integer, mod N. Stable for a given (chatID, n) pair across
// process restarts and independent of which language computes it, so every
// update for a chat always lands on the same queue.
func ShardIndex(chatID int64, n int) int {
	if n <= 0 {
		panic("update: ShardIndex requires n > 0")
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d", chatID)))
	hashInt := new(big.Int).SetBytes(sum[:])
	mod := new(big.Int).SetInt64(int64(n))
	return int(new(big.Int).Mod(hashInt, mod).Int64())
}
