package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Envelope is the wire form of a DomainEvent as published to the broker and
// streamed to dashboard clients.
type Envelope struct {
	ID            uuid.UUID       `json:"id"`
	Type          string          `json:"type"`
	AggregateID   uuid.UUID       `json:"aggregateId"`
	AggregateType string          `json:"aggregateType"`
	OccurredAt    time.Time       `json:"occurredAt"`
	Payload       json.RawMessage `json:"payload,omitempty"`
}

// NewEnvelope wraps a DomainEvent. A payload that is not valid JSON is dropped.
func NewEnvelope(event DomainEvent) Envelope {
	env := Envelope{
		ID:            event.EventID(),
		Type:          event.EventType(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		OccurredAt:    event.OccurredAt(),
	}
	if p := event.Payload(); len(p) > 0 && json.Valid(p) {
		env.Payload = json.RawMessage(p)
	}
	return env
}

// Marshal encodes the envelope as JSON.
func (e Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}
