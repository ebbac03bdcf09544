package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/smartqueue/smartqueue-backend/internal/core/domain"
	apperrors "github.com/smartqueue/smartqueue-backend/internal/core/errors"
	"github.com/smartqueue/smartqueue-backend/internal/core/ports"
)

const (
	defaultServiceTime = 15  // minutes
	defaultMaxCapacity = 100 // tickets
)

// QueueService is the queue registry: queue-type templates, live queues,
// queue status, and service point membership.
type QueueService struct {
	queueRepo  ports.QueueRepository
	ticketRepo ports.TicketRepository
	pointRepo  ports.ServicePointRepository
	emitter    ports.EventEmitter
}

var _ ports.QueueService = (*QueueService)(nil)

// NewQueueService creates a new queue registry service.
func NewQueueService(
	queueRepo ports.QueueRepository,
	ticketRepo ports.TicketRepository,
	pointRepo ports.ServicePointRepository,
	emitter ports.EventEmitter,
) *QueueService {
	return &QueueService{
		queueRepo:  queueRepo,
		ticketRepo: ticketRepo,
		pointRepo:  pointRepo,
		emitter:    emitter,
	}
}

// CreateQueueType registers a queue template for a branch.
func (s *QueueService) CreateQueueType(ctx context.Context, params ports.CreateQueueTypeParams) (*domain.QueueType, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, apperrors.NewValidationError(apperrors.ErrBadRequest, "queue type name is required", nil)
	}
	if !domain.ValidQueueCategory(params.Category) {
		return nil, apperrors.NewValidationError(apperrors.ErrBadRequest, "unknown queue category", nil)
	}

	prefix := strings.ToUpper(strings.TrimSpace(params.Prefix))
	if prefix == "" {
		prefix = strings.ToUpper(name[:1])
	}
	serviceTime := params.EstimatedServiceTime
	if serviceTime <= 0 {
		serviceTime = defaultServiceTime
	}
	capacity := params.MaxCapacity
	if capacity <= 0 {
		capacity = defaultMaxCapacity
	}

	qt := &domain.QueueType{
		ID:                     uuid.New(),
		OrganizationID:         params.OrganizationID,
		BranchID:               params.BranchID,
		Name:                   name,
		Prefix:                 prefix,
		Category:               params.Category,
		Description:            params.Description,
		EstimatedServiceTime:   serviceTime,
		MaxCapacity:            capacity,
		RequiresVehicleInfo:    params.RequiresVehicleInfo,
		RequiresIdentification: params.RequiresIdentification,
		IsActive:               true,
		CreatedAt:              time.Now().UTC(),
	}
	return s.queueRepo.CreateQueueType(ctx, qt)
}

// CreateQueue instantiates a live queue from a queue type. New queues start
// Active with a zero ticket counter.
func (s *QueueService) CreateQueue(ctx context.Context, queueTypeID uuid.UUID, name string) (*domain.Queue, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError(apperrors.ErrBadRequest, "queue name is required", nil)
	}
	if _, err := s.queueRepo.GetQueueType(ctx, queueTypeID); err != nil {
		return nil, err
	}

	queue := &domain.Queue{
		ID:          uuid.New(),
		QueueTypeID: queueTypeID,
		Name:        name,
		Status:      domain.QueueActive,
		CreatedAt:   time.Now().UTC(),
	}
	return s.queueRepo.CreateQueue(ctx, queue)
}

// GetQueue retrieves a queue by ID.
func (s *QueueService) GetQueue(ctx context.Context, queueID uuid.UUID) (*domain.Queue, error) {
	return s.queueRepo.GetQueue(ctx, queueID)
}

// SetQueueStatus changes a queue's operational status. Moving away from
// Active notifies every waiting or called ticket on the queue with a single
// queue-status event; the tickets themselves are left untouched.
func (s *QueueService) SetQueueStatus(ctx context.Context, queueID uuid.UUID, status domain.QueueStatus) (*domain.Queue, error) {
	if !domain.ValidQueueStatus(status) {
		return nil, apperrors.ErrInvalidStatus
	}

	queue, err := s.queueRepo.UpdateQueueStatus(ctx, queueID, status)
	if err != nil {
		return nil, err
	}

	if status != domain.QueueActive {
		affected, err := s.ticketRepo.ListActiveTicketIDs(ctx, queueID)
		if err != nil {
			return nil, err
		}
		s.emitter.Emit(ctx, domain.NewEvent(domain.EventQueueStatusChanged, queueID, domain.QueueStatusChangedPayload{
			NewStatus:         status,
			AffectedTicketIDs: affected,
		}))
	}

	return queue, nil
}

// AssignServicePoint adds a service point to the queue's membership.
func (s *QueueService) AssignServicePoint(ctx context.Context, queueID, servicePointID uuid.UUID) error {
	if _, err := s.queueRepo.GetQueue(ctx, queueID); err != nil {
		return err
	}
	if _, err := s.pointRepo.GetByID(ctx, servicePointID); err != nil {
		return err
	}
	return s.queueRepo.AssignServicePoint(ctx, queueID, servicePointID)
}

// Snapshot returns the display-board view of a queue: the waiting list in
// selection order plus the wait a new check-in should expect.
func (s *QueueService) Snapshot(ctx context.Context, queueID uuid.UUID) (*ports.QueueSnapshot, error) {
	queue, err := s.queueRepo.GetQueue(ctx, queueID)
	if err != nil {
		return nil, err
	}
	queueType, err := s.queueRepo.GetQueueType(ctx, queue.QueueTypeID)
	if err != nil {
		return nil, err
	}
	tickets, err := s.ticketRepo.ListWaitingByQueue(ctx, queueID)
	if err != nil {
		return nil, err
	}
	available, err := s.queueRepo.AvailableServicePointCount(ctx, queueID)
	if err != nil {
		return nil, err
	}

	snapshot := &ports.QueueSnapshot{
		Queue:           queue,
		WaitingCount:    len(tickets),
		AvailablePoints: available,
		Tickets:         tickets,
	}
	if available > 0 {
		minutes := (len(tickets) + 1) * queueType.EstimatedServiceTime / available
		snapshot.EstimatedWaitMinutes = &minutes
	}
	return snapshot, nil
}
