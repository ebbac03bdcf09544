package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/smartqueue/smartqueue-backend/internal/core/domain"
	"github.com/smartqueue/smartqueue-backend/internal/core/ports"
)

// MockTicketRepository is a mock implementation of ports.TicketRepository
type MockTicketRepository struct {
	mock.Mock
}

func NewMockTicketRepository() *MockTicketRepository {
	return &MockTicketRepository{}
}

func (m *MockTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	args := m.Called(ctx, ticket)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketRepository) UpdateStatus(ctx context.Context, ticket *domain.Ticket, fromStatus domain.TicketStatus, releasePoint bool) (*domain.Ticket, error) {
	args := m.Called(ctx, ticket, fromStatus, releasePoint)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketRepository) ListWaitingByQueue(ctx context.Context, queueID uuid.UUID) ([]*domain.Ticket, error) {
	args := m.Called(ctx, queueID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Ticket), args.Error(1)
}

func (m *MockTicketRepository) ListActiveTicketIDs(ctx context.Context, queueID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, queueID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockTicketRepository) CountWaitingAhead(ctx context.Context, ticket *domain.Ticket) (int, error) {
	args := m.Called(ctx, ticket)
	return args.Int(0), args.Error(1)
}

// MockQueueRepository is a mock implementation of ports.QueueRepository
type MockQueueRepository struct {
	mock.Mock
}

func NewMockQueueRepository() *MockQueueRepository {
	return &MockQueueRepository{}
}

func (m *MockQueueRepository) CreateQueueType(ctx context.Context, qt *domain.QueueType) (*domain.QueueType, error) {
	args := m.Called(ctx, qt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QueueType), args.Error(1)
}

func (m *MockQueueRepository) GetQueueType(ctx context.Context, id uuid.UUID) (*domain.QueueType, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QueueType), args.Error(1)
}

func (m *MockQueueRepository) CreateQueue(ctx context.Context, q *domain.Queue) (*domain.Queue, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Queue), args.Error(1)
}

func (m *MockQueueRepository) GetQueue(ctx context.Context, id uuid.UUID) (*domain.Queue, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Queue), args.Error(1)
}

func (m *MockQueueRepository) UpdateQueueStatus(ctx context.Context, id uuid.UUID, status domain.QueueStatus) (*domain.Queue, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Queue), args.Error(1)
}

func (m *MockQueueRepository) AssignServicePoint(ctx context.Context, queueID, servicePointID uuid.UUID) error {
	args := m.Called(ctx, queueID, servicePointID)
	return args.Error(0)
}

func (m *MockQueueRepository) AvailableServicePointCount(ctx context.Context, queueID uuid.UUID) (int, error) {
	args := m.Called(ctx, queueID)
	return args.Int(0), args.Error(1)
}

func (m *MockQueueRepository) WaitingTicketCount(ctx context.Context, queueID uuid.UUID) (int, error) {
	args := m.Called(ctx, queueID)
	return args.Int(0), args.Error(1)
}

// MockServicePointRepository is a mock implementation of ports.ServicePointRepository
type MockServicePointRepository struct {
	mock.Mock
}

func NewMockServicePointRepository() *MockServicePointRepository {
	return &MockServicePointRepository{}
}

func (m *MockServicePointRepository) Create(ctx context.Context, p *domain.ServicePoint) (*domain.ServicePoint, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ServicePoint), args.Error(1)
}

func (m *MockServicePointRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ServicePoint, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ServicePoint), args.Error(1)
}

func (m *MockServicePointRepository) Update(ctx context.Context, p *domain.ServicePoint) (*domain.ServicePoint, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ServicePoint), args.Error(1)
}

func (m *MockServicePointRepository) Release(ctx context.Context, id uuid.UUID) (*domain.ServicePoint, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ServicePoint), args.Error(1)
}

// MockDispatchRepository is a mock implementation of ports.DispatchRepository
type MockDispatchRepository struct {
	mock.Mock
}

func NewMockDispatchRepository() *MockDispatchRepository {
	return &MockDispatchRepository{}
}

func (m *MockDispatchRepository) ClaimNext(ctx context.Context, servicePointID uuid.UUID, calledAt time.Time) (*ports.ClaimResult, error) {
	args := m.Called(ctx, servicePointID, calledAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.ClaimResult), args.Error(1)
}

// MockAgentRepository is a mock implementation of ports.AgentRepository
type MockAgentRepository struct {
	mock.Mock
}

func NewMockAgentRepository() *MockAgentRepository {
	return &MockAgentRepository{}
}

func (m *MockAgentRepository) Create(ctx context.Context, agent *domain.Agent) (*domain.Agent, error) {
	args := m.Called(ctx, agent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Agent), args.Error(1)
}

func (m *MockAgentRepository) GetByEmail(ctx context.Context, email string) (*domain.Agent, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Agent), args.Error(1)
}

// MockEventEmitter is a mock implementation of ports.EventEmitter
type MockEventEmitter struct {
	mock.Mock
}

func NewMockEventEmitter() *MockEventEmitter {
	return &MockEventEmitter{}
}

func (m *MockEventEmitter) Emit(ctx context.Context, event domain.Event) {
	m.Called(ctx, event)
}

// MockEstimatorService is a mock implementation of ports.EstimatorService
type MockEstimatorService struct {
	mock.Mock
}

func NewMockEstimatorService() *MockEstimatorService {
	return &MockEstimatorService{}
}

func (m *MockEstimatorService) Estimate(ctx context.Context, ticketID uuid.UUID) (*ports.WaitEstimate, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.WaitEstimate), args.Error(1)
}
