package amqp

import (
	"encoding/json"
	"time"
)

// Message is the wire form of a change notification. It carries no entry
// data; receivers refetch what they need.
type Message struct {
	Type       string    `json:"type"`
	Topic      string    `json:"topic"`
	Reason     string    `json:"reason,omitempty"`
	EntryID    int64     `json:"entryId,omitempty"`
	Origin     string    `json:"origin,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NewMessage stamps a message with the current time.
func NewMessage(topic, typ, reason string, entryID int64) *Message {
	return &Message{
		Type:       typ,
		Topic:      topic,
		Reason:     reason,
		EntryID:    entryID,
		OccurredAt: time.Now().UTC(),
	}
}

func (m *Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func MessageFromJSON(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
