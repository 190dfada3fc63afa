package events

import (
	"encoding/json"
	"time"
)

// Entity names carried in change messages.
const (
	EntityExpense      = "expense"
	EntityTransaction  = "transaction"
	EntityCategory     = "category"
	EntityFixedExpense = "fixed_expense"
)

// Actions carried in change messages.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// ChangeMessage is a lightweight notification that a record changed.
// It carries only identifiers; consumers fetch the current state from the
// database, so a stale or duplicated message is harmless.
type ChangeMessage struct {
	Entity    string    `json:"entity"`
	Action    string    `json:"action"`
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
}

// NewChangeMessage builds a change message stamped with the current time.
func NewChangeMessage(entity, action, id, userID string) *ChangeMessage {
	return &ChangeMessage{
		Entity:    entity,
		Action:    action,
		ID:        id,
		UserID:    userID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON creates a message from JSON bytes.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
