package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/smartqueue/smartqueue-backend/internal/core/domain"
	apperrors "github.com/smartqueue/smartqueue-backend/internal/core/errors"
	"github.com/smartqueue/smartqueue-backend/internal/core/ports"
)

// TicketService is the ticket ledger. It owns ticket records, enforces the
// status transition table, and emits events for every mutation.
type TicketService struct {
	ticketRepo ports.TicketRepository
	queueRepo  ports.QueueRepository
	estimator  ports.EstimatorService
	emitter    ports.EventEmitter
}

var _ ports.TicketService = (*TicketService)(nil)

// NewTicketService creates a new ticket ledger service.
func NewTicketService(
	ticketRepo ports.TicketRepository,
	queueRepo ports.QueueRepository,
	estimator ports.EstimatorService,
	emitter ports.EventEmitter,
) *TicketService {
	return &TicketService{
		ticketRepo: ticketRepo,
		queueRepo:  queueRepo,
		estimator:  estimator,
		emitter:    emitter,
	}
}

// CreateTicket checks a customer into a queue. The queue must be Active and
// the check-in must carry whatever info the queue type mandates. The store
// allocates the display number atomically while re-validating the queue, so
// a queue closed between the read here and the insert still rejects the
// ticket.
func (s *TicketService) CreateTicket(ctx context.Context, params ports.CreateTicketParams) (*ports.CreateTicketResult, error) {
	queue, err := s.queueRepo.GetQueue(ctx, params.QueueID)
	if err != nil {
		return nil, err
	}
	if !queue.AcceptsTickets() {
		return nil, apperrors.ErrQueueNotActive
	}

	queueType, err := s.queueRepo.GetQueueType(ctx, queue.QueueTypeID)
	if err != nil {
		return nil, err
	}
	if queueType.RequiresVehicleInfo && len(params.VehicleInfo) == 0 {
		return nil, apperrors.ErrMissingVehicleInfo
	}
	if queueType.RequiresIdentification && len(params.IdentificationInfo) == 0 {
		return nil, apperrors.ErrMissingIdentification
	}

	ticket := domain.NewTicket(params.QueueID, params.RequesterID, params.Priority, params.VehicleInfo, params.IdentificationInfo)

	created, err := s.ticketRepo.Create(ctx, ticket)
	if err != nil {
		return nil, err
	}

	s.emitter.Emit(ctx, domain.NewEvent(domain.EventTicketCreated, created.QueueID, domain.TicketCreatedPayload{
		TicketID: created.ID,
		Number:   created.Number,
	}))

	result := &ports.CreateTicketResult{Ticket: created, Position: 1}
	if estimate, err := s.estimator.Estimate(ctx, created.ID); err == nil {
		result.Position = estimate.Position
		result.EstimatedWaitMinutes = estimate.Minutes
	}
	return result, nil
}

// GetTicket retrieves a single ticket.
func (s *TicketService) GetTicket(ctx context.Context, ticketID uuid.UUID) (*domain.Ticket, error) {
	return s.ticketRepo.GetByID(ctx, ticketID)
}

// UpdateStatus applies a status transition to a ticket. Applying the current
// status is an idempotent no-op: no timestamps move and no event is emitted.
// Leaving Called or Serving for a terminal status (or back to Waiting) frees
// the service point holding the ticket in the same store transaction.
func (s *TicketService) UpdateStatus(ctx context.Context, params ports.UpdateStatusParams) (*domain.Ticket, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, params.TicketID)
	if err != nil {
		return nil, err
	}

	oldStatus := ticket.Status
	changed, err := ticket.ApplyStatus(params.NewStatus, params.Notes, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if !changed {
		return ticket, nil
	}

	releasePoint := (oldStatus == domain.TicketCalled || oldStatus == domain.TicketServing) &&
		params.NewStatus.ReleasesServicePoint()

	updated, err := s.ticketRepo.UpdateStatus(ctx, ticket, oldStatus, releasePoint)
	if err != nil {
		return nil, err
	}

	s.emitter.Emit(ctx, domain.NewEvent(domain.EventTicketStatusChanged, updated.QueueID, domain.TicketStatusChangedPayload{
		TicketID:  updated.ID,
		OldStatus: oldStatus,
		NewStatus: updated.Status,
	}))

	return updated, nil
}
