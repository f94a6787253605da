package amqp

import (
	"encoding/json"
	"time"
)

// Actions carried by expense events.
const (
	ActionCreated = "created"
	ActionDeleted = "deleted"
)

// ExpenseEventMessage is the lightweight event published when an
// expense changes. It carries only the ID and action; the backup worker
// fetches the full row from the database when it needs one.
type ExpenseEventMessage struct {
	ID        int64     `json:"id"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseEventMessage(id int64, action string) *ExpenseEventMessage {
	return &ExpenseEventMessage{
		ID:        id,
		Action:    action,
		Timestamp: time.Now(),
	}
}

func (m *ExpenseEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExpenseEventMessageFromJSON(data []byte) (*ExpenseEventMessage, error) {
	var msg ExpenseEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
