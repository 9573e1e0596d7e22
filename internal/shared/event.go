package shared

import (
	"encoding/json"
	"maps"
	"time"

	"github.com/google/uuid"
)

// Event is an immutable record of something that happened inside an aggregate.
type Event struct {
	id            uuid.UUID
	name          string
	aggregateType string
	aggregateID   string
	occurredAt    time.Time
	payload       map[string]any
}

func NewEvent(name, aggregateType, aggregateID string, payload map[string]any) Event {
	return Event{
		id:            uuid.New(),
		name:          name,
		aggregateType: aggregateType,
		aggregateID:   aggregateID,
		occurredAt:    time.Now().UTC(),
		payload:       maps.Clone(payload),
	}
}

func (e Event) ID() uuid.UUID         { return e.id }
func (e Event) Name() string          { return e.name }
func (e Event) AggregateType() string { return e.aggregateType }
func (e Event) AggregateID() string   { return e.aggregateID }
func (e Event) OccurredAt() time.Time { return e.occurredAt }

// Payload returns a copy; mutating it does not affect the event.
func (e Event) Payload() map[string]any { return maps.Clone(e.payload) }

// String returns a payload value as a string, or "" when absent.
func (e Event) String(key string) string {
	v, ok := e.payload[key]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case interface{ String() string }:
		return s.String()
	}
	return ""
}

type eventJSON struct {
	ID            uuid.UUID      `json:"id"`
	Name          string         `json:"name"`
	AggregateType string         `json:"aggregate_type"`
	AggregateID   string         `json:"aggregate_id"`
	OccurredAt    time.Time      `json:"occurred_at"`
	Payload       map[string]any `json:"payload"`
}

func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(eventJSON{
		ID:            e.id,
		Name:          e.name,
		AggregateType: e.aggregateType,
		AggregateID:   e.aggregateID,
		OccurredAt:    e.occurredAt,
		Payload:       e.payload,
	})
}

func (e *Event) UnmarshalJSON(data []byte) error {
	var raw eventJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = Event{
		id:            raw.ID,
		name:          raw.Name,
		aggregateType: raw.AggregateType,
		aggregateID:   raw.AggregateID,
		occurredAt:    raw.OccurredAt,
		payload:       raw.Payload,
	}
	return nil
}
