package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/smartqueue/smartqueue-backend/internal/core/errors"
)

// TicketStatus represents the possible states of a ticket.
type TicketStatus string

const (
	TicketWaiting     TicketStatus = "WAITING"
	TicketCalled      TicketStatus = "CALLED"
	TicketServing     TicketStatus = "SERVING"
	TicketCompleted   TicketStatus = "COMPLETED"
	TicketCancelled   TicketStatus = "CANCELLED"
	TicketNoShow      TicketStatus = "NO_SHOW"
	TicketTransferred TicketStatus = "TRANSFERRED"
)

// ticketTransitions is the single transition table consulted by ApplyStatus.
// Terminal states have no outgoing edges.
var ticketTransitions = map[TicketStatus][]TicketStatus{
	TicketWaiting:     {TicketCalled, TicketCancelled},
	TicketCalled:      {TicketServing, TicketNoShow, TicketWaiting},
	TicketServing:     {TicketCompleted, TicketTransferred},
	TicketCompleted:   {},
	TicketCancelled:   {},
	TicketNoShow:      {},
	TicketTransferred: {},
}

// ValidTicketStatus reports whether s is a known ticket status.
func ValidTicketStatus(s TicketStatus) bool {
	_, ok := ticketTransitions[s]
	return ok
}

// CanTransition reports whether a ticket may move from one status to another.
func CanTransition(from, to TicketStatus) bool {
	for _, s := range ticketTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status ends the ticket's lifecycle.
func (s TicketStatus) IsTerminal() bool {
	switch s {
	case TicketCompleted, TicketCancelled, TicketNoShow, TicketTransferred:
		return true
	}
	return false
}

// ReleasesServicePoint reports whether entering this status must free the
// service point that currently holds the ticket.
func (s TicketStatus) ReleasesServicePoint() bool {
	return s.IsTerminal() || s == TicketWaiting
}

// Ticket is a single customer's claim on a place in a queue. Tickets are
// never deleted; they only reach a terminal status.
type Ticket struct {
	ID                 uuid.UUID
	QueueID            uuid.UUID
	Seq                int64
	Number             string
	RequesterID        uuid.UUID
	Status             TicketStatus
	PriorityLevel      int
	CheckInTime        time.Time
	CalledTime         *time.Time
	ServiceStartTime   *time.Time
	ServiceEndTime     *time.Time
	VehicleInfo        json.RawMessage
	IdentificationInfo json.RawMessage
	Notes              string
}

// NewTicket builds a waiting ticket for a queue check-in. The display
// number and creation sequence are assigned by the store at insert time.
func NewTicket(queueID, requesterID uuid.UUID, priority int, vehicleInfo, identificationInfo json.RawMessage) *Ticket {
	return &Ticket{
		ID:                 uuid.New(),
		QueueID:            queueID,
		RequesterID:        requesterID,
		Status:             TicketWaiting,
		PriorityLevel:      priority,
		CheckInTime:        time.Now().UTC(),
		VehicleInfo:        vehicleInfo,
		IdentificationInfo: identificationInfo,
	}
}

// ApplyStatus moves the ticket to newStatus, enforcing the transition table
// and stamping the relevant timestamp. Applying the current status is a
// no-op that reports no change.
func (t *Ticket) ApplyStatus(newStatus TicketStatus, notes string, now time.Time) (changed bool, err error) {
	if !ValidTicketStatus(newStatus) {
		return false, apperrors.ErrInvalidStatus
	}
	if newStatus == t.Status {
		return false, nil
	}
	if !CanTransition(t.Status, newStatus) {
		return false, apperrors.ErrIllegalTransition
	}

	switch newStatus {
	case TicketCalled:
		t.CalledTime = &now
	case TicketServing:
		t.ServiceStartTime = &now
	case TicketCompleted, TicketCancelled, TicketNoShow:
		t.ServiceEndTime = &now
	case TicketWaiting:
		// Requeued after a call; the called timestamp is kept for history.
	}

	t.Status = newStatus
	if notes != "" {
		t.Notes = notes
	}
	return true, nil
}

// IsActive reports whether the ticket still occupies a place in the queue.
func (t *Ticket) IsActive() bool {
	return t.Status == TicketWaiting || t.Status == TicketCalled || t.Status == TicketServing
}

// OrderedBefore reports whether this ticket is served before other under the
// dispatch selection order: priority level descending, then check-in time
// ascending, then creation sequence ascending.
func (t *Ticket) OrderedBefore(other *Ticket) bool {
	if t.PriorityLevel != other.PriorityLevel {
		return t.PriorityLevel > other.PriorityLevel
	}
	if !t.CheckInTime.Equal(other.CheckInTime) {
		return t.CheckInTime.Before(other.CheckInTime)
	}
	return t.Seq < other.Seq
}
