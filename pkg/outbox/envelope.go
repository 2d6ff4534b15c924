package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/stockhub-backend/pkg/db/models"
)

// ActorRef identifies who produced the event.
type ActorRef struct {
	UserID    uuid.UUID  `json:"userId"`
	CompanyID *uuid.UUID `json:"companyId,omitempty"`
}

// PayloadEnvelope is the JSON stored in outbox_events.payload.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}

// DecodeEnvelope parses a stored payload and rejects unknown versions.
func DecodeEnvelope(raw []byte) (PayloadEnvelope, error) {
	var env PayloadEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return PayloadEnvelope{}, fmt.Errorf("outbox: decode envelope: %w", err)
	}
	if env.Version != envelopeVersion {
		return PayloadEnvelope{}, fmt.Errorf("outbox: unsupported envelope version %d", env.Version)
	}
	return env, nil
}

// RelayMessage is the body the publisher writes to the event channel.
type RelayMessage struct {
	OutboxID      uuid.UUID       `json:"outboxId"`
	EventType     string          `json:"eventType"`
	AggregateType string          `json:"aggregateType"`
	AggregateID   uuid.UUID       `json:"aggregateId"`
	CompanyID     *uuid.UUID      `json:"companyId,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	Envelope      json.RawMessage `json:"envelope"`
}

// NewRelayMessage wraps a stored row for publishing.
func NewRelayMessage(row models.OutboxEvent) RelayMessage {
	return RelayMessage{
		OutboxID:      row.ID,
		EventType:     string(row.EventType),
		AggregateType: string(row.AggregateType),
		AggregateID:   row.AggregateID,
		CompanyID:     row.CompanyID,
		CreatedAt:     row.CreatedAt.UTC(),
		Envelope:      row.Payload,
	}
}
