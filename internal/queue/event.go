// Package queue defines message payloads exchanged over the message broker
// and the consumer that records them.
package queue

// EventsQueue is the durable queue every provider write is published to.
const EventsQueue = "provider.events"

// EventType names the write that happened.
type EventType string

const (
    EventSlotUpserted  EventType = "slot.upserted"
    EventStatusChanged EventType = "reservation.status_changed"
    EventMemoSaved     EventType = "reservation.memo_saved"
    EventContactSaved  EventType = "reservation.contact_saved"
    EventFeedbackSaved EventType = "reservation.feedback_saved"
)

// ProviderEvent is published after a provider write commits.  It carries
// enough for downstream consumers to log or notify without querying the
// primary database.
type ProviderEvent struct {
    Type          EventType `json:"type"`
    ProviderID    uint64    `json:"provider_id"`
    EntityID      string    `json:"entity_id"`
    Status        string    `json:"status,omitempty"`    // reservation status or slot state after the write
    Remaining     *int      `json:"remaining,omitempty"` // slots only
    CorrelationID string    `json:"correlation_id,omitempty"`
    OccurredAt    string    `json:"occurred_at"`
}
