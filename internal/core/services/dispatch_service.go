package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/smartqueue/smartqueue-backend/internal/core/domain"
	apperrors "github.com/smartqueue/smartqueue-backend/internal/core/errors"
	"github.com/smartqueue/smartqueue-backend/internal/core/ports"
)

// defaultClaimRetries bounds the internal retry of the claim transaction
// when the store reports a serialization conflict. Availability failures are
// never retried.
const defaultClaimRetries = 3

// DispatchService implements the call-next protocol: an available service
// point atomically claims the best waiting ticket across its assigned
// queues.
type DispatchService struct {
	dispatchRepo ports.DispatchRepository
	pointRepo    ports.ServicePointRepository
	emitter      ports.EventEmitter
	claimRetries int
	logger       *slog.Logger
}

var _ ports.DispatchService = (*DispatchService)(nil)

// NewDispatchService creates a new dispatcher. claimRetries <= 0 selects the
// default retry budget.
func NewDispatchService(
	dispatchRepo ports.DispatchRepository,
	pointRepo ports.ServicePointRepository,
	emitter ports.EventEmitter,
	claimRetries int,
	logger *slog.Logger,
) *DispatchService {
	if claimRetries <= 0 {
		claimRetries = defaultClaimRetries
	}
	return &DispatchService{
		dispatchRepo: dispatchRepo,
		pointRepo:    pointRepo,
		emitter:      emitter,
		claimRetries: claimRetries,
		logger:       logger.With("component", "dispatcher"),
	}
}

// CallNext claims the next ticket for a service point. The selection order
// is priority level descending, check-in time ascending, creation sequence
// ascending. The claim is all-or-nothing: either the ticket is Called and
// the point Busy, or nothing changed. A claim lost to a concurrent caller
// is retried against a fresh candidate set before NoWaitingTickets is
// surfaced.
func (s *DispatchService) CallNext(ctx context.Context, servicePointID uuid.UUID) (*ports.ClaimResult, error) {
	var lastErr error
	for attempt := 0; attempt < s.claimRetries; attempt++ {
		result, err := s.dispatchRepo.ClaimNext(ctx, servicePointID, time.Now().UTC())
		if err == nil {
			s.emitter.Emit(ctx, domain.NewEvent(domain.EventTicketCalled, result.Ticket.QueueID, domain.TicketCalledPayload{
				TicketID:         result.Ticket.ID,
				Number:           result.Ticket.Number,
				ServicePointName: result.ServicePointName,
			}))
			return result, nil
		}
		if !errors.Is(err, apperrors.ErrClaimConflict) {
			return nil, err
		}
		lastErr = err
		s.logger.Debug("claim conflict, retrying selection",
			"service_point_id", servicePointID,
			"attempt", attempt+1,
		)
	}
	return nil, lastErr
}

// ReleaseServicePoint frees a point after its ticket left service. Calling
// it on an already-available point is a no-op.
func (s *DispatchService) ReleaseServicePoint(ctx context.Context, servicePointID uuid.UUID) (*domain.ServicePoint, error) {
	return s.pointRepo.Release(ctx, servicePointID)
}

// CreateServicePoint registers a staffed resource for a branch.
func (s *DispatchService) CreateServicePoint(ctx context.Context, params ports.CreateServicePointParams) (*domain.ServicePoint, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, apperrors.NewValidationError(apperrors.ErrBadRequest, "service point name is required", nil)
	}

	point := &domain.ServicePoint{
		ID:                  uuid.New(),
		BranchID:            params.BranchID,
		Name:                name,
		Status:              domain.PointAvailable,
		IsVehicleCompatible: params.IsVehicleCompatible,
		CreatedAt:           time.Now().UTC(),
	}
	return s.pointRepo.Create(ctx, point)
}

// GetServicePoint retrieves a service point by ID.
func (s *DispatchService) GetServicePoint(ctx context.Context, servicePointID uuid.UUID) (*domain.ServicePoint, error) {
	return s.pointRepo.GetByID(ctx, servicePointID)
}

// SetServicePointStatus applies a staff-selected status (Available, Offline,
// Break) and optionally reassigns the staffing agent. Busy is owned by the
// dispatcher and is rejected here, as is changing status while a ticket is
// held.
func (s *DispatchService) SetServicePointStatus(ctx context.Context, params ports.SetServicePointStatusParams) (*domain.ServicePoint, error) {
	point, err := s.pointRepo.GetByID(ctx, params.ServicePointID)
	if err != nil {
		return nil, err
	}
	if err := point.SetStatus(params.Status); err != nil {
		return nil, err
	}
	if params.AgentID != nil {
		point.AssignedAgentID = params.AgentID
	}
	return s.pointRepo.Update(ctx, point)
}
