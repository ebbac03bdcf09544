package ports

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/smartqueue/smartqueue-backend/internal/core/domain"
)

// CreateTicketParams defines the input for a queue check-in.
type CreateTicketParams struct {
	QueueID            uuid.UUID
	RequesterID        uuid.UUID
	Priority           int
	VehicleInfo        json.RawMessage
	IdentificationInfo json.RawMessage
}

// CreateTicketResult carries the new ticket together with its place in the
// queue and the baseline wait estimate shown to the customer.
type CreateTicketResult struct {
	Ticket               *domain.Ticket
	Position             int
	EstimatedWaitMinutes *int
}

// UpdateStatusParams defines the input for a ticket status change.
type UpdateStatusParams struct {
	TicketID  uuid.UUID
	NewStatus domain.TicketStatus
	Notes     string
}

// TicketService is the ticket ledger: it owns ticket records and enforces
// legal status transitions.
type TicketService interface {
	CreateTicket(ctx context.Context, params CreateTicketParams) (*CreateTicketResult, error)
	GetTicket(ctx context.Context, ticketID uuid.UUID) (*domain.Ticket, error)
	UpdateStatus(ctx context.Context, params UpdateStatusParams) (*domain.Ticket, error)
}

// CreateQueueTypeParams defines the input for registering a queue template.
type CreateQueueTypeParams struct {
	OrganizationID         uuid.UUID
	BranchID               uuid.UUID
	Name                   string
	Prefix                 string
	Category               domain.QueueCategory
	Description            string
	EstimatedServiceTime   int
	MaxCapacity            int
	RequiresVehicleInfo    bool
	RequiresIdentification bool
}

// QueueSnapshot is the public display-board view of a queue.
type QueueSnapshot struct {
	Queue                *domain.Queue
	WaitingCount         int
	AvailablePoints      int
	EstimatedWaitMinutes *int
	Tickets              []*domain.Ticket
}

// QueueService is the queue registry: queue and queue-type records, queue
// status, and service point membership.
type QueueService interface {
	CreateQueueType(ctx context.Context, params CreateQueueTypeParams) (*domain.QueueType, error)
	CreateQueue(ctx context.Context, queueTypeID uuid.UUID, name string) (*domain.Queue, error)
	GetQueue(ctx context.Context, queueID uuid.UUID) (*domain.Queue, error)
	SetQueueStatus(ctx context.Context, queueID uuid.UUID, status domain.QueueStatus) (*domain.Queue, error)
	AssignServicePoint(ctx context.Context, queueID, servicePointID uuid.UUID) error
	Snapshot(ctx context.Context, queueID uuid.UUID) (*QueueSnapshot, error)
}

// SetServicePointStatusParams defines the input for a staff status change on
// a service point.
type SetServicePointStatusParams struct {
	ServicePointID uuid.UUID
	Status         domain.ServicePointStatus
	AgentID        *uuid.UUID
}

// CreateServicePointParams defines the input for registering a service point.
type CreateServicePointParams struct {
	BranchID            uuid.UUID
	Name                string
	IsVehicleCompatible bool
}

// DispatchService implements the call-next selection and claim protocol.
type DispatchService interface {
	CallNext(ctx context.Context, servicePointID uuid.UUID) (*ClaimResult, error)
	ReleaseServicePoint(ctx context.Context, servicePointID uuid.UUID) (*domain.ServicePoint, error)
	CreateServicePoint(ctx context.Context, params CreateServicePointParams) (*domain.ServicePoint, error)
	GetServicePoint(ctx context.Context, servicePointID uuid.UUID) (*domain.ServicePoint, error)
	SetServicePointStatus(ctx context.Context, params SetServicePointStatusParams) (*domain.ServicePoint, error)
}

// WaitEstimate is the baseline wait-time estimate for a waiting ticket.
// Minutes is nil when the queue has no available service points.
type WaitEstimate struct {
	Position int
	Minutes  *int
}

// EstimatorService computes the static wait-time baseline from queue depth,
// available service points, and the configured service duration.
type EstimatorService interface {
	Estimate(ctx context.Context, ticketID uuid.UUID) (*WaitEstimate, error)
}

// AgentService handles staff registration and login.
type AgentService interface {
	Register(ctx context.Context, fullName, email, password string, orgID uuid.UUID) (*domain.Agent, error)
	Login(ctx context.Context, email, password string) (*domain.Agent, error)
}
