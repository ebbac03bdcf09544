package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType defines the type of outbound dispatch event.
type EventType string

const (
	EventTicketCreated       EventType = "TICKET_CREATED"
	EventTicketCalled        EventType = "TICKET_CALLED"
	EventTicketStatusChanged EventType = "TICKET_STATUS_CHANGED"
	EventQueueStatusChanged  EventType = "QUEUE_STATUS_CHANGED"
)

// Event is the fire-and-forget payload handed to the event emitter. QueueID
// is always set and is used for routing to queue-scoped listeners.
type Event struct {
	Type       EventType   `json:"type"`
	QueueID    uuid.UUID   `json:"queue_id"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// TicketCreatedPayload announces a new waiting ticket.
type TicketCreatedPayload struct {
	TicketID uuid.UUID `json:"ticket_id"`
	Number   string    `json:"number"`
}

// TicketCalledPayload tells a customer which service point to proceed to.
type TicketCalledPayload struct {
	TicketID         uuid.UUID `json:"ticket_id"`
	Number           string    `json:"number"`
	ServicePointName string    `json:"service_point_name"`
}

// TicketStatusChangedPayload reports a ticket status transition.
type TicketStatusChangedPayload struct {
	TicketID  uuid.UUID    `json:"ticket_id"`
	OldStatus TicketStatus `json:"old_status"`
	NewStatus TicketStatus `json:"new_status"`
}

// QueueStatusChangedPayload is emitted once per queue status change and
// names every ticket still waiting or called on the queue. Informational
// only; tickets are not cancelled by the change.
type QueueStatusChangedPayload struct {
	NewStatus         QueueStatus `json:"new_status"`
	AffectedTicketIDs []uuid.UUID `json:"affected_ticket_ids"`
}

// NewEvent stamps an event with the current time.
func NewEvent(eventType EventType, queueID uuid.UUID, payload interface{}) Event {
	return Event{
		Type:       eventType,
		QueueID:    queueID,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}
