package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/smartqueue/smartqueue-backend/internal/core/domain"
	apperrors "github.com/smartqueue/smartqueue-backend/internal/core/errors"
	"github.com/smartqueue/smartqueue-backend/internal/core/mocks"
	"github.com/smartqueue/smartqueue-backend/internal/core/ports"
	"github.com/smartqueue/smartqueue-backend/internal/core/services"
)

func newQueueServiceUnderTest() (*services.QueueService, *mocks.MockQueueRepository, *mocks.MockTicketRepository, *mocks.MockServicePointRepository, *mocks.MockEventEmitter) {
	mockQueues := mocks.NewMockQueueRepository()
	mockTickets := mocks.NewMockTicketRepository()
	mockPoints := mocks.NewMockServicePointRepository()
	mockEmitter := mocks.NewMockEventEmitter()
	svc := services.NewQueueService(mockQueues, mockTickets, mockPoints, mockEmitter)
	return svc, mockQueues, mockTickets, mockPoints, mockEmitter
}

func TestQueueService_CreateQueueType(t *testing.T) {
	ctx := context.Background()

	t.Run("fills defaults for prefix, service time and capacity", func(t *testing.T) {
		svc, mockQueues, _, _, _ := newQueueServiceUnderTest()

		var created *domain.QueueType
		mockQueues.On("CreateQueueType", ctx, mock.AnythingOfType("*domain.QueueType")).
			Run(func(args mock.Arguments) {
				created = args.Get(1).(*domain.QueueType)
			}).
			Return(nil, nil)

		_, err := svc.CreateQueueType(ctx, ports.CreateQueueTypeParams{
			Name:     "vehicle inspection",
			Category: domain.CategoryVehicle,
		})

		require.NoError(t, err)
		require.NotNil(t, created)
		assert.Equal(t, "vehicle inspection", created.Name)
		assert.Equal(t, "V", created.Prefix)
		assert.Equal(t, 15, created.EstimatedServiceTime)
		assert.Equal(t, 100, created.MaxCapacity)
		assert.True(t, created.IsActive)
	})

	t.Run("uppercases an explicit prefix", func(t *testing.T) {
		svc, mockQueues, _, _, _ := newQueueServiceUnderTest()

		var created *domain.QueueType
		mockQueues.On("CreateQueueType", ctx, mock.AnythingOfType("*domain.QueueType")).
			Run(func(args mock.Arguments) {
				created = args.Get(1).(*domain.QueueType)
			}).
			Return(nil, nil)

		_, err := svc.CreateQueueType(ctx, ports.CreateQueueTypeParams{
			Name:                 "Registration",
			Prefix:               "reg",
			Category:             domain.CategoryPerson,
			EstimatedServiceTime: 25,
			MaxCapacity:          40,
		})

		require.NoError(t, err)
		require.NotNil(t, created)
		assert.Equal(t, "REG", created.Prefix)
		assert.Equal(t, 25, created.EstimatedServiceTime)
		assert.Equal(t, 40, created.MaxCapacity)
	})

	t.Run("rejects blank name", func(t *testing.T) {
		svc, mockQueues, _, _, _ := newQueueServiceUnderTest()

		_, err := svc.CreateQueueType(ctx, ports.CreateQueueTypeParams{
			Name:     "   ",
			Category: domain.CategoryPerson,
		})

		assert.ErrorIs(t, err, apperrors.ErrBadRequest)
		mockQueues.AssertNotCalled(t, "CreateQueueType")
	})

	t.Run("rejects unknown category", func(t *testing.T) {
		svc, mockQueues, _, _, _ := newQueueServiceUnderTest()

		_, err := svc.CreateQueueType(ctx, ports.CreateQueueTypeParams{
			Name:     "Registration",
			Category: domain.QueueCategory("SPACESHIP"),
		})

		assert.ErrorIs(t, err, apperrors.ErrBadRequest)
		mockQueues.AssertNotCalled(t, "CreateQueueType")
	})
}

func TestQueueService_CreateQueue(t *testing.T) {
	ctx := context.Background()

	t.Run("new queues start active", func(t *testing.T) {
		svc, mockQueues, _, _, _ := newQueueServiceUnderTest()
		queueType := plainQueueType()

		mockQueues.On("GetQueueType", ctx, queueType.ID).Return(queueType, nil)

		var queue *domain.Queue
		mockQueues.On("CreateQueue", ctx, mock.AnythingOfType("*domain.Queue")).
			Run(func(args mock.Arguments) {
				queue = args.Get(1).(*domain.Queue)
			}).
			Return(nil, nil)

		_, err := svc.CreateQueue(ctx, queueType.ID, "  Morning shift  ")

		require.NoError(t, err)
		require.NotNil(t, queue)
		assert.Equal(t, "Morning shift", queue.Name)
		assert.Equal(t, domain.QueueActive, queue.Status)
		assert.Equal(t, 0, queue.CurrentNumber)
	})

	t.Run("unknown queue type", func(t *testing.T) {
		svc, mockQueues, _, _, _ := newQueueServiceUnderTest()
		queueTypeID := uuid.New()

		mockQueues.On("GetQueueType", ctx, queueTypeID).Return(nil, apperrors.ErrQueueTypeNotFound)

		_, err := svc.CreateQueue(ctx, queueTypeID, "Morning shift")

		assert.ErrorIs(t, err, apperrors.ErrQueueTypeNotFound)
		mockQueues.AssertNotCalled(t, "CreateQueue")
	})
}

func TestQueueService_SetQueueStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("pausing notifies active tickets once", func(t *testing.T) {
		svc, mockQueues, mockTickets, _, mockEmitter := newQueueServiceUnderTest()
		queue := activeQueue(uuid.New())
		queue.Status = domain.QueuePaused
		affected := []uuid.UUID{uuid.New(), uuid.New()}

		mockQueues.On("UpdateQueueStatus", ctx, queue.ID, domain.QueuePaused).Return(queue, nil)
		mockTickets.On("ListActiveTicketIDs", ctx, queue.ID).Return(affected, nil)
		mockEmitter.On("Emit", ctx, mock.MatchedBy(func(e domain.Event) bool {
			payload, ok := e.Payload.(domain.QueueStatusChangedPayload)
			return e.Type == domain.EventQueueStatusChanged &&
				e.QueueID == queue.ID &&
				ok && payload.NewStatus == domain.QueuePaused &&
				len(payload.AffectedTicketIDs) == 2
		})).Return()

		updated, err := svc.SetQueueStatus(ctx, queue.ID, domain.QueuePaused)

		require.NoError(t, err)
		assert.Equal(t, domain.QueuePaused, updated.Status)
		mockEmitter.AssertExpectations(t)
	})

	t.Run("reactivating emits nothing", func(t *testing.T) {
		svc, mockQueues, mockTickets, _, mockEmitter := newQueueServiceUnderTest()
		queue := activeQueue(uuid.New())

		mockQueues.On("UpdateQueueStatus", ctx, queue.ID, domain.QueueActive).Return(queue, nil)

		_, err := svc.SetQueueStatus(ctx, queue.ID, domain.QueueActive)

		require.NoError(t, err)
		mockTickets.AssertNotCalled(t, "ListActiveTicketIDs")
		mockEmitter.AssertNotCalled(t, "Emit")
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		svc, mockQueues, _, _, _ := newQueueServiceUnderTest()

		_, err := svc.SetQueueStatus(ctx, uuid.New(), domain.QueueStatus("DRAINING"))

		assert.ErrorIs(t, err, apperrors.ErrInvalidStatus)
		mockQueues.AssertNotCalled(t, "UpdateQueueStatus")
	})
}

func TestQueueService_AssignServicePoint(t *testing.T) {
	ctx := context.Background()

	t.Run("verifies both sides before linking", func(t *testing.T) {
		svc, mockQueues, _, mockPoints, _ := newQueueServiceUnderTest()
		queue := activeQueue(uuid.New())
		point := &domain.ServicePoint{ID: uuid.New(), Name: "Counter 1", Status: domain.PointAvailable}

		mockQueues.On("GetQueue", ctx, queue.ID).Return(queue, nil)
		mockPoints.On("GetByID", ctx, point.ID).Return(point, nil)
		mockQueues.On("AssignServicePoint", ctx, queue.ID, point.ID).Return(nil)

		err := svc.AssignServicePoint(ctx, queue.ID, point.ID)

		require.NoError(t, err)
		mockQueues.AssertExpectations(t)
	})

	t.Run("missing service point", func(t *testing.T) {
		svc, mockQueues, _, mockPoints, _ := newQueueServiceUnderTest()
		queue := activeQueue(uuid.New())
		pointID := uuid.New()

		mockQueues.On("GetQueue", ctx, queue.ID).Return(queue, nil)
		mockPoints.On("GetByID", ctx, pointID).Return(nil, apperrors.ErrServicePointNotFound)

		err := svc.AssignServicePoint(ctx, queue.ID, pointID)

		assert.ErrorIs(t, err, apperrors.ErrServicePointNotFound)
		mockQueues.AssertNotCalled(t, "AssignServicePoint")
	})
}

func TestQueueService_Snapshot(t *testing.T) {
	ctx := context.Background()

	t.Run("includes newcomer estimate when points are available", func(t *testing.T) {
		svc, mockQueues, mockTickets, _, _ := newQueueServiceUnderTest()
		queueType := plainQueueType()
		queue := activeQueue(queueType.ID)
		waiting := []*domain.Ticket{
			{ID: uuid.New(), QueueID: queue.ID, Status: domain.TicketWaiting},
			{ID: uuid.New(), QueueID: queue.ID, Status: domain.TicketWaiting},
			{ID: uuid.New(), QueueID: queue.ID, Status: domain.TicketWaiting},
		}

		mockQueues.On("GetQueue", ctx, queue.ID).Return(queue, nil)
		mockQueues.On("GetQueueType", ctx, queueType.ID).Return(queueType, nil)
		mockTickets.On("ListWaitingByQueue", ctx, queue.ID).Return(waiting, nil)
		mockQueues.On("AvailableServicePointCount", ctx, queue.ID).Return(2, nil)

		snapshot, err := svc.Snapshot(ctx, queue.ID)

		require.NoError(t, err)
		assert.Equal(t, 3, snapshot.WaitingCount)
		assert.Equal(t, 2, snapshot.AvailablePoints)
		// (3 waiting + the newcomer) * 10 minutes / 2 points
		require.NotNil(t, snapshot.EstimatedWaitMinutes)
		assert.Equal(t, 20, *snapshot.EstimatedWaitMinutes)
	})

	t.Run("no estimate without service points", func(t *testing.T) {
		svc, mockQueues, mockTickets, _, _ := newQueueServiceUnderTest()
		queueType := plainQueueType()
		queue := activeQueue(queueType.ID)

		mockQueues.On("GetQueue", ctx, queue.ID).Return(queue, nil)
		mockQueues.On("GetQueueType", ctx, queueType.ID).Return(queueType, nil)
		mockTickets.On("ListWaitingByQueue", ctx, queue.ID).Return([]*domain.Ticket{}, nil)
		mockQueues.On("AvailableServicePointCount", ctx, queue.ID).Return(0, nil)

		snapshot, err := svc.Snapshot(ctx, queue.ID)

		require.NoError(t, err)
		assert.Equal(t, 0, snapshot.WaitingCount)
		assert.Nil(t, snapshot.EstimatedWaitMinutes)
	})
}
