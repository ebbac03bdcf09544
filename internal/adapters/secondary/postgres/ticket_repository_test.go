package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartqueue/smartqueue-backend/internal/core/domain"
	apperrors "github.com/smartqueue/smartqueue-backend/internal/core/errors"
)

func TestTicketRepository_Create(t *testing.T) {
	ctx := context.Background()
	repo := NewTicketRepository(testPool)

	t.Run("assigns sequential display numbers", func(t *testing.T) {
		queueType := createTestQueueType(t, 10, 100)
		queue := createTestQueue(t, queueType.ID)

		first := createTestTicket(t, queue.ID, 0)
		second := createTestTicket(t, queue.ID, 0)

		assert.Equal(t, "R-0001", first.Number)
		assert.Equal(t, "R-0002", second.Number)
		assert.Less(t, first.Seq, second.Seq)
		assert.Equal(t, domain.TicketWaiting, first.Status)
	})

	t.Run("concurrent check-ins get distinct numbers", func(t *testing.T) {
		const checkIns = 10

		queueType := createTestQueueType(t, 10, 100)
		queue := createTestQueue(t, queueType.ID)

		var wg sync.WaitGroup
		numbers := make(chan string, checkIns)
		for i := 0; i < checkIns; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ticket, err := repo.Create(ctx, domain.NewTicket(queue.ID, uuid.New(), 0, nil, nil))
				if assert.NoError(t, err) {
					numbers <- ticket.Number
				}
			}()
		}
		wg.Wait()
		close(numbers)

		seen := make(map[string]bool)
		for n := range numbers {
			assert.False(t, seen[n], "number %s issued twice", n)
			seen[n] = true
		}
		assert.Len(t, seen, checkIns)
	})

	t.Run("paused queue rejects check-in", func(t *testing.T) {
		queueType := createTestQueueType(t, 10, 100)
		queue := createTestQueue(t, queueType.ID)

		queueRepo := NewQueueRepository(testPool)
		_, err := queueRepo.UpdateQueueStatus(ctx, queue.ID, domain.QueuePaused)
		require.NoError(t, err)

		_, err = repo.Create(ctx, domain.NewTicket(queue.ID, uuid.New(), 0, nil, nil))

		assert.ErrorIs(t, err, apperrors.ErrQueueNotActive)
	})

	t.Run("unknown queue", func(t *testing.T) {
		_, err := repo.Create(ctx, domain.NewTicket(uuid.New(), uuid.New(), 0, nil, nil))

		assert.ErrorIs(t, err, apperrors.ErrQueueNotFound)
	})

	t.Run("full queue rejects check-in", func(t *testing.T) {
		queueType := createTestQueueType(t, 10, 2)
		queue := createTestQueue(t, queueType.ID)
		createTestTicket(t, queue.ID, 0)
		createTestTicket(t, queue.ID, 0)

		_, err := repo.Create(ctx, domain.NewTicket(queue.ID, uuid.New(), 0, nil, nil))

		assert.ErrorIs(t, err, apperrors.ErrQueueFull)
	})

	t.Run("terminal tickets free up capacity", func(t *testing.T) {
		queueType := createTestQueueType(t, 10, 1)
		queue := createTestQueue(t, queueType.ID)
		ticket := createTestTicket(t, queue.ID, 0)

		_, err := repo.Create(ctx, domain.NewTicket(queue.ID, uuid.New(), 0, nil, nil))
		require.ErrorIs(t, err, apperrors.ErrQueueFull)

		now := time.Now().UTC()
		_, err = ticket.ApplyStatus(domain.TicketCancelled, "", now)
		require.NoError(t, err)
		_, err = repo.UpdateStatus(ctx, ticket, domain.TicketWaiting, false)
		require.NoError(t, err)

		_, err = repo.Create(ctx, domain.NewTicket(queue.ID, uuid.New(), 0, nil, nil))
		assert.NoError(t, err)
	})
}

func TestTicketRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewTicketRepository(testPool)

	t.Run("persists the transition", func(t *testing.T) {
		queueType := createTestQueueType(t, 10, 100)
		queue := createTestQueue(t, queueType.ID)
		ticket := createTestTicket(t, queue.ID, 0)

		now := time.Now().UTC()
		changed, err := ticket.ApplyStatus(domain.TicketCalled, "", now)
		require.NoError(t, err)
		require.True(t, changed)

		updated, err := repo.UpdateStatus(ctx, ticket, domain.TicketWaiting, false)

		require.NoError(t, err)
		assert.Equal(t, domain.TicketCalled, updated.Status)
		require.NotNil(t, updated.CalledTime)
	})

	t.Run("stale status loses the race", func(t *testing.T) {
		queueType := createTestQueueType(t, 10, 100)
		queue := createTestQueue(t, queueType.ID)
		ticket := createTestTicket(t, queue.ID, 0)

		now := time.Now().UTC()
		_, err := ticket.ApplyStatus(domain.TicketCancelled, "", now)
		require.NoError(t, err)
		_, err = repo.UpdateStatus(ctx, ticket, domain.TicketWaiting, false)
		require.NoError(t, err)

		// A second writer still believing the ticket is waiting.
		_, err = repo.UpdateStatus(ctx, ticket, domain.TicketWaiting, false)

		assert.ErrorIs(t, err, apperrors.ErrConflict)
	})

	t.Run("completing a claimed ticket frees its point", func(t *testing.T) {
		queueType := createTestQueueType(t, 10, 100)
		queue := createTestQueue(t, queueType.ID)
		point := createTestServicePoint(t, queue.ID)
		createTestTicket(t, queue.ID, 0)

		dispatchRepo := NewDispatchRepository(testPool)
		result, err := dispatchRepo.ClaimNext(ctx, point.ID, time.Now().UTC())
		require.NoError(t, err)

		ticket := result.Ticket
		now := time.Now().UTC()
		_, err = ticket.ApplyStatus(domain.TicketServing, "", now)
		require.NoError(t, err)
		_, err = repo.UpdateStatus(ctx, ticket, domain.TicketCalled, false)
		require.NoError(t, err)

		_, err = ticket.ApplyStatus(domain.TicketCompleted, "", now)
		require.NoError(t, err)
		_, err = repo.UpdateStatus(ctx, ticket, domain.TicketServing, true)
		require.NoError(t, err)

		pointRepo := NewServicePointRepository(testPool)
		reloaded, err := pointRepo.GetByID(ctx, point.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PointAvailable, reloaded.Status)
		assert.Nil(t, reloaded.CurrentTicketID)
	})
}

func TestTicketRepository_Queries(t *testing.T) {
	ctx := context.Background()
	repo := NewTicketRepository(testPool)

	t.Run("waiting list follows dispatch order", func(t *testing.T) {
		queueType := createTestQueueType(t, 10, 100)
		queue := createTestQueue(t, queueType.ID)

		regular := createTestTicket(t, queue.ID, 0)
		urgent := createTestTicket(t, queue.ID, 5)
		late := createTestTicket(t, queue.ID, 0)

		tickets, err := repo.ListWaitingByQueue(ctx, queue.ID)

		require.NoError(t, err)
		require.Len(t, tickets, 3)
		assert.Equal(t, urgent.ID, tickets[0].ID)
		assert.Equal(t, regular.ID, tickets[1].ID)
		assert.Equal(t, late.ID, tickets[2].ID)
	})

	t.Run("count ahead matches dispatch order", func(t *testing.T) {
		queueType := createTestQueueType(t, 10, 100)
		queue := createTestQueue(t, queueType.ID)

		createTestTicket(t, queue.ID, 5)
		createTestTicket(t, queue.ID, 0)
		last := createTestTicket(t, queue.ID, 0)

		ahead, err := repo.CountWaitingAhead(ctx, last)

		require.NoError(t, err)
		assert.Equal(t, 2, ahead)
	})

	t.Run("active IDs include waiting and called only", func(t *testing.T) {
		queueType := createTestQueueType(t, 10, 100)
		queue := createTestQueue(t, queueType.ID)

		waiting := createTestTicket(t, queue.ID, 0)
		cancelled := createTestTicket(t, queue.ID, 0)

		now := time.Now().UTC()
		_, err := cancelled.ApplyStatus(domain.TicketCancelled, "", now)
		require.NoError(t, err)
		_, err = repo.UpdateStatus(ctx, cancelled, domain.TicketWaiting, false)
		require.NoError(t, err)

		ids, err := repo.ListActiveTicketIDs(ctx, queue.ID)

		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{waiting.ID}, ids)
	})

	t.Run("missing ticket", func(t *testing.T) {
		_, err := repo.GetByID(ctx, uuid.New())

		assert.ErrorIs(t, err, apperrors.ErrTicketNotFound)
	})
}
