package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartqueue/smartqueue-backend/internal/core/domain"
	apperrors "github.com/smartqueue/smartqueue-backend/internal/core/errors"
	"github.com/smartqueue/smartqueue-backend/internal/core/mocks"
	"github.com/smartqueue/smartqueue-backend/internal/core/services"
)

func TestEstimatorService_Estimate(t *testing.T) {
	ctx := context.Background()

	setup := func() (*services.EstimatorService, *mocks.MockTicketRepository, *mocks.MockQueueRepository) {
		mockTickets := mocks.NewMockTicketRepository()
		mockQueues := mocks.NewMockQueueRepository()
		svc := services.NewEstimatorService(mockTickets, mockQueues)
		return svc, mockTickets, mockQueues
	}

	t.Run("position and minutes from queue depth", func(t *testing.T) {
		svc, mockTickets, mockQueues := setup()

		queueType := plainQueueType()
		queue := activeQueue(queueType.ID)
		ticket := &domain.Ticket{ID: uuid.New(), QueueID: queue.ID, Status: domain.TicketWaiting}

		mockTickets.On("GetByID", ctx, ticket.ID).Return(ticket, nil)
		mockTickets.On("CountWaitingAhead", ctx, ticket).Return(2, nil)
		mockQueues.On("AvailableServicePointCount", ctx, queue.ID).Return(3, nil)
		mockQueues.On("GetQueue", ctx, queue.ID).Return(queue, nil)
		mockQueues.On("GetQueueType", ctx, queueType.ID).Return(queueType, nil)

		estimate, err := svc.Estimate(ctx, ticket.ID)

		require.NoError(t, err)
		assert.Equal(t, 3, estimate.Position)
		// 3 * 10 minutes / 3 points
		require.NotNil(t, estimate.Minutes)
		assert.Equal(t, 10, *estimate.Minutes)
	})

	t.Run("no available points means no minutes, position still given", func(t *testing.T) {
		svc, mockTickets, mockQueues := setup()

		queueID := uuid.New()
		ticket := &domain.Ticket{ID: uuid.New(), QueueID: queueID, Status: domain.TicketWaiting}

		mockTickets.On("GetByID", ctx, ticket.ID).Return(ticket, nil)
		mockTickets.On("CountWaitingAhead", ctx, ticket).Return(4, nil)
		mockQueues.On("AvailableServicePointCount", ctx, queueID).Return(0, nil)

		estimate, err := svc.Estimate(ctx, ticket.ID)

		require.NoError(t, err)
		assert.Equal(t, 5, estimate.Position)
		assert.Nil(t, estimate.Minutes)
		mockQueues.AssertNotCalled(t, "GetQueueType")
	})

	t.Run("front of the queue", func(t *testing.T) {
		svc, mockTickets, mockQueues := setup()

		queueType := plainQueueType()
		queue := activeQueue(queueType.ID)
		ticket := &domain.Ticket{ID: uuid.New(), QueueID: queue.ID, Status: domain.TicketWaiting}

		mockTickets.On("GetByID", ctx, ticket.ID).Return(ticket, nil)
		mockTickets.On("CountWaitingAhead", ctx, ticket).Return(0, nil)
		mockQueues.On("AvailableServicePointCount", ctx, queue.ID).Return(1, nil)
		mockQueues.On("GetQueue", ctx, queue.ID).Return(queue, nil)
		mockQueues.On("GetQueueType", ctx, queueType.ID).Return(queueType, nil)

		estimate, err := svc.Estimate(ctx, ticket.ID)

		require.NoError(t, err)
		assert.Equal(t, 1, estimate.Position)
		require.NotNil(t, estimate.Minutes)
		assert.Equal(t, 10, *estimate.Minutes)
	})

	t.Run("only waiting tickets have an estimate", func(t *testing.T) {
		svc, mockTickets, _ := setup()

		ticket := &domain.Ticket{ID: uuid.New(), QueueID: uuid.New(), Status: domain.TicketServing}
		mockTickets.On("GetByID", ctx, ticket.ID).Return(ticket, nil)

		estimate, err := svc.Estimate(ctx, ticket.ID)

		assert.Nil(t, estimate)
		assert.ErrorIs(t, err, apperrors.ErrTicketNotWaiting)
	})
}
