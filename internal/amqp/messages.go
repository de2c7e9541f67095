package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"weekspend/internal/core"
)

// EventType names what happened to an expense.
type EventType string

const (
	ExpenseCreated EventType = "expense.created"
	ExpenseDeleted EventType = "expense.deleted"
)

// ExpenseEvent is a lightweight notification. It carries the id and date of
// the expense; consumers reload whatever else they need from the store.
type ExpenseEvent struct {
	Type      EventType `json:"type"`
	ID        string    `json:"id"`
	Date      core.Date `json:"date"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseEvent(typ EventType, id string, date core.Date) *ExpenseEvent {
	return &ExpenseEvent{
		Type:      typ,
		ID:        id,
		Date:      date,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (m *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseEventFromJSON decodes an event and rejects unknown types or a
// missing id.
func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var msg ExpenseEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Type {
	case ExpenseCreated, ExpenseDeleted:
	default:
		return nil, fmt.Errorf("unknown event type %q", msg.Type)
	}
	if msg.ID == "" {
		return nil, fmt.Errorf("event without id")
	}
	return &msg, nil
}
