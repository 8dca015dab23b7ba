package amqp

import (
	"encoding/json"
	"time"
)

// ExpenseSyncMessage tells the worker that an expense changed. It carries only
// the ID and version; the worker fetches the current record from the database,
// so a stale message after a rapid edit cannot overwrite newer data.
type ExpenseSyncMessage struct {
	ID        int64     `json:"id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// NewExpenseSyncMessage creates a new sync message with just ID and version
func NewExpenseSyncMessage(id, version int64) *ExpenseSyncMessage {
	return &ExpenseSyncMessage{
		ID:        id,
		Version:   version,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseSyncMessageFromJSON creates a message from JSON bytes
func ExpenseSyncMessageFromJSON(data []byte) (*ExpenseSyncMessage, error) {
	var msg ExpenseSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// LoadEventMessage announces a load lifecycle transition to downstream
// consumers (invoicing, notifications).
type LoadEventMessage struct {
	LoadID     int64     `json:"load_id"`
	LoadNumber string    `json:"load_number"`
	Event      string    `json:"event"`
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
}

// Load lifecycle event names.
const (
	EventLoadStarted   = "load.started"
	EventLoadCompleted = "load.completed"
	EventLoadInvoiced  = "load.invoiced"
	EventLoadCancelled = "load.cancelled"
)

// NewLoadEventMessage creates a lifecycle event for the given load.
func NewLoadEventMessage(loadID int64, loadNumber, event, status string) *LoadEventMessage {
	return &LoadEventMessage{
		LoadID:     loadID,
		LoadNumber: loadNumber,
		Event:      event,
		Status:     status,
		Timestamp:  time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LoadEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
