package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/smartqueue/smartqueue-backend/internal/core/domain"
)

// TicketRepository is the persistence port for the ticket ledger.
type TicketRepository interface {
	// Create inserts a waiting ticket. The display number and creation
	// sequence are allocated inside the same transaction that re-checks the
	// queue status and capacity, so concurrent check-ins on one queue can
	// never produce duplicate numbers. Returns ErrQueueNotActive or
	// ErrQueueFull when the queue refuses the ticket.
	Create(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error)

	GetByID(ctx context.Context, id uuid.UUID) (*domain.Ticket, error)

	// UpdateStatus persists a status change. The write is conditional on the
	// ticket still being in fromStatus; a lost race returns ErrConflict.
	// When releasePoint is set, any service point holding the ticket is
	// freed in the same transaction.
	UpdateStatus(ctx context.Context, ticket *domain.Ticket, fromStatus domain.TicketStatus, releasePoint bool) (*domain.Ticket, error)

	// ListWaitingByQueue returns waiting tickets in dispatch selection order.
	ListWaitingByQueue(ctx context.Context, queueID uuid.UUID) ([]*domain.Ticket, error)

	// ListActiveTicketIDs returns the IDs of waiting and called tickets on a
	// queue, used to address queue-status notifications.
	ListActiveTicketIDs(ctx context.Context, queueID uuid.UUID) ([]uuid.UUID, error)

	// CountWaitingAhead counts waiting tickets on the same queue ordered
	// before the given ticket under the dispatch selection order.
	CountWaitingAhead(ctx context.Context, ticket *domain.Ticket) (int, error)
}

// QueueRepository is the persistence port for the queue registry.
type QueueRepository interface {
	CreateQueueType(ctx context.Context, qt *domain.QueueType) (*domain.QueueType, error)
	GetQueueType(ctx context.Context, id uuid.UUID) (*domain.QueueType, error)

	CreateQueue(ctx context.Context, q *domain.Queue) (*domain.Queue, error)
	GetQueue(ctx context.Context, id uuid.UUID) (*domain.Queue, error)
	UpdateQueueStatus(ctx context.Context, id uuid.UUID, status domain.QueueStatus) (*domain.Queue, error)

	AssignServicePoint(ctx context.Context, queueID, servicePointID uuid.UUID) error

	// AvailableServicePointCount counts assigned points currently Available.
	AvailableServicePointCount(ctx context.Context, queueID uuid.UUID) (int, error)
	WaitingTicketCount(ctx context.Context, queueID uuid.UUID) (int, error)
}

// ServicePointRepository is the persistence port for service points.
type ServicePointRepository interface {
	Create(ctx context.Context, p *domain.ServicePoint) (*domain.ServicePoint, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ServicePoint, error)
	Update(ctx context.Context, p *domain.ServicePoint) (*domain.ServicePoint, error)

	// Release frees the point and clears its current ticket. Already
	// available points are returned unchanged.
	Release(ctx context.Context, id uuid.UUID) (*domain.ServicePoint, error)
}

// ClaimResult is the outcome of a successful dispatch claim.
type ClaimResult struct {
	Ticket           *domain.Ticket
	ServicePointName string
}

// DispatchRepository executes the selection-and-claim sequence as a single
// serializable unit against the store.
type DispatchRepository interface {
	// ClaimNext locks the service point row, picks the best waiting ticket
	// across the point's assigned Active queues (priority descending,
	// check-in ascending, creation sequence ascending; locked rows are
	// skipped), marks it Called and the point Busy, all in one transaction.
	// Returns ErrServicePointNotAvailable, ErrNoWaitingTickets, or
	// ErrClaimConflict on a serialization failure the caller may retry.
	ClaimNext(ctx context.Context, servicePointID uuid.UUID, calledAt time.Time) (*ClaimResult, error)
}

// AgentRepository is the persistence port for staff accounts.
type AgentRepository interface {
	Create(ctx context.Context, agent *domain.Agent) (*domain.Agent, error)
	GetByEmail(ctx context.Context, email string) (*domain.Agent, error)
}

// EventEmitter receives dispatch-core events for downstream delivery.
// Emission is fire-and-forget: implementations must not block and their
// failures never roll back the core state change that produced the event.
type EventEmitter interface {
	Emit(ctx context.Context, event domain.Event)
}
