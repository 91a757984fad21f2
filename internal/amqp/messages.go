package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// Change operations carried by RecordChangeMessage.Op.
const (
	OpPut    = "put"
	OpAdd    = "add"
	OpDelete = "delete"
)

// RecordChangeMessage announces a committed write to one collection.
// Consumers re-read the store for the record itself.
type RecordChangeMessage struct {
	Collection string    `json:"collection"`
	Op         string    `json:"op"`
	Key        string    `json:"key"`
	Date       string    `json:"date,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewRecordChangeMessage creates a change message stamped with the current time.
func NewRecordChangeMessage(collection, op, key, date string) *RecordChangeMessage {
	return &RecordChangeMessage{
		Collection: collection,
		Op:         op,
		Key:        key,
		Date:       date,
		Timestamp:  time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RecordChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordChangeMessageFromJSON decodes a message and checks its required fields.
func RecordChangeMessageFromJSON(data []byte) (*RecordChangeMessage, error) {
	var msg RecordChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Collection == "" || msg.Op == "" {
		return nil, errors.New("record change message missing collection or op")
	}
	return &msg, nil
}
