package amqp

import (
	"encoding/json"
	"time"
)

// Event types carried on the walletwatch exchange.
const (
	EventExpenseCreated  = "expense.created"
	EventExpenseDeleted  = "expense.deleted"
	EventAlertDispatched = "alert.dispatched"
)

// Event is the wire format for the post-commit feed. Payloads stay small:
// consumers that need the full record re-read it from storage by ID.
type Event struct {
	Type      string    `json:"type"`
	ExpenseID int64     `json:"expense_id,omitempty"`
	AlertID   int64     `json:"alert_id,omitempty"`
	Status    string    `json:"status,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseCreated(id int64) *Event {
	return &Event{Type: EventExpenseCreated, ExpenseID: id, Timestamp: time.Now()}
}

func NewExpenseDeleted(id int64) *Event {
	return &Event{Type: EventExpenseDeleted, ExpenseID: id, Timestamp: time.Now()}
}

func NewAlertDispatched(alertID int64, status string) *Event {
	return &Event{Type: EventAlertDispatched, AlertID: alertID, Status: status, Timestamp: time.Now()}
}

func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func EventFromJSON(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
