package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/smartqueue/smartqueue-backend/internal/core/domain"
	apperrors "github.com/smartqueue/smartqueue-backend/internal/core/errors"
	"github.com/smartqueue/smartqueue-backend/internal/core/ports"
)

// EstimatorService computes the static, explainable wait-time baseline
// shown to waiting customers. It never feeds back into dispatch ordering.
type EstimatorService struct {
	ticketRepo ports.TicketRepository
	queueRepo  ports.QueueRepository
}

var _ ports.EstimatorService = (*EstimatorService)(nil)

// NewEstimatorService creates a new wait-time estimator.
func NewEstimatorService(ticketRepo ports.TicketRepository, queueRepo ports.QueueRepository) *EstimatorService {
	return &EstimatorService{ticketRepo: ticketRepo, queueRepo: queueRepo}
}

// Estimate returns the ticket's position in its queue and the expected wait
// in whole minutes: position times the configured per-customer service
// duration, divided across the queue's available service points. Minutes is
// nil when no service point is available. Only waiting tickets have an
// estimate.
func (s *EstimatorService) Estimate(ctx context.Context, ticketID uuid.UUID) (*ports.WaitEstimate, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status != domain.TicketWaiting {
		return nil, apperrors.ErrTicketNotWaiting
	}

	ahead, err := s.ticketRepo.CountWaitingAhead(ctx, ticket)
	if err != nil {
		return nil, err
	}
	estimate := &ports.WaitEstimate{Position: ahead + 1}

	available, err := s.queueRepo.AvailableServicePointCount(ctx, ticket.QueueID)
	if err != nil {
		return nil, err
	}
	if available == 0 {
		return estimate, nil
	}

	queue, err := s.queueRepo.GetQueue(ctx, ticket.QueueID)
	if err != nil {
		return nil, err
	}
	queueType, err := s.queueRepo.GetQueueType(ctx, queue.QueueTypeID)
	if err != nil {
		return nil, err
	}

	minutes := estimate.Position * queueType.EstimatedServiceTime / available
	estimate.Minutes = &minutes
	return estimate, nil
}
