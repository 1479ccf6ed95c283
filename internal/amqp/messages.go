package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"fincal/internal/events"
)

// ChangeMessage carries one ledger change notification. The payload is the
// JSON form of the event payload so consumers can decode what they need.
type ChangeMessage struct {
	Event     events.Name     `json:"event"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewChangeMessage wraps a bus event.
func NewChangeMessage(e events.Event) (*ChangeMessage, error) {
	msg := &ChangeMessage{Event: e.Name, Timestamp: e.At}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	if e.Payload != nil {
		raw, err := json.Marshal(e.Payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", e.Name, err)
		}
		msg.Payload = raw
	}
	return msg, nil
}

// ToJSON converts the message to JSON bytes
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON decodes a message and rejects unknown event names.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	for _, n := range events.Names() {
		if n == msg.Event {
			return &msg, nil
		}
	}
	return nil, fmt.Errorf("unknown event %q", msg.Event)
}
