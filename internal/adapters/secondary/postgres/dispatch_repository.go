package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smartqueue/smartqueue-backend/internal/core/domain"
	apperrors "github.com/smartqueue/smartqueue-backend/internal/core/errors"
	"github.com/smartqueue/smartqueue-backend/internal/core/ports"
)

// DispatchRepository runs the selection-and-claim sequence as one
// transaction against the store.
type DispatchRepository struct {
	pool *pgxpool.Pool
}

var _ ports.DispatchRepository = (*DispatchRepository)(nil)

// NewDispatchRepository creates a new dispatch repository.
func NewDispatchRepository(pool *pgxpool.Pool) *DispatchRepository {
	return &DispatchRepository{pool: pool}
}

// ClaimNext claims the best waiting ticket for the service point.
//
// The point row is locked first, which serializes claims per point and
// pins its Available status for the rest of the transaction. The candidate
// ticket is then taken with SKIP LOCKED: a ticket mid-claim by a concurrent
// caller is invisible here rather than waited on, so two concurrent calls
// with one waiting ticket resolve as one claim and one ErrNoWaitingTickets.
func (r *DispatchRepository) ClaimNext(ctx context.Context, servicePointID uuid.UUID, calledAt time.Time) (*ports.ClaimResult, error) {
	var result *ports.ClaimResult
	err := withTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		var pointName string
		var pointStatus domain.ServicePointStatus
		err := tx.QueryRow(ctx, `
			SELECT name, status FROM service_points WHERE id = $1 FOR UPDATE
		`, servicePointID).Scan(&pointName, &pointStatus)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.ErrServicePointNotFound
			}
			return err
		}
		if pointStatus != domain.PointAvailable {
			return apperrors.ErrServicePointNotAvailable
		}

		row := tx.QueryRow(ctx, `
			WITH candidate AS (
				SELECT t.id
				FROM tickets t
				JOIN queues q ON q.id = t.queue_id
				JOIN queue_service_points m ON m.queue_id = t.queue_id
				WHERE m.service_point_id = $1
					AND t.status = $2
					AND q.status = $3
				ORDER BY t.priority_level DESC, t.check_in_time ASC, t.seq ASC
				LIMIT 1
				FOR UPDATE OF t SKIP LOCKED
			)
			UPDATE tickets
			SET status = $4, called_time = $5
			FROM candidate
			WHERE tickets.id = candidate.id
			RETURNING tickets.id, tickets.queue_id, tickets.seq, tickets.number,
				tickets.requester_id, tickets.status, tickets.priority_level,
				tickets.check_in_time, tickets.called_time, tickets.service_start_time,
				tickets.service_end_time, tickets.vehicle_info,
				tickets.identification_info, tickets.notes
		`, servicePointID, domain.TicketWaiting, domain.QueueActive, domain.TicketCalled, calledAt)

		ticket, err := scanTicket(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.ErrNoWaitingTickets
			}
			return err
		}

		if _, err := tx.Exec(ctx, `
			UPDATE service_points
			SET status = $1, current_ticket_id = $2, updated_at = now()
			WHERE id = $3
		`, domain.PointBusy, ticket.ID, servicePointID); err != nil {
			return err
		}

		result = &ports.ClaimResult{Ticket: ticket, ServicePointName: pointName}
		return nil
	})
	if err != nil {
		return nil, mapConflictError(err)
	}
	return result, nil
}
