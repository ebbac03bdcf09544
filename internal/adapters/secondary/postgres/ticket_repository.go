package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smartqueue/smartqueue-backend/internal/core/domain"
	apperrors "github.com/smartqueue/smartqueue-backend/internal/core/errors"
	"github.com/smartqueue/smartqueue-backend/internal/core/ports"
)

const ticketColumns = `id, queue_id, seq, number, requester_id, status, priority_level,
	check_in_time, called_time, service_start_time, service_end_time,
	vehicle_info, identification_info, notes`

// TicketRepository is the secondary adapter for ticket persistence.
type TicketRepository struct {
	pool *pgxpool.Pool
}

var _ ports.TicketRepository = (*TicketRepository)(nil)

// NewTicketRepository creates a new ticket repository.
func NewTicketRepository(pool *pgxpool.Pool) *TicketRepository {
	return &TicketRepository{pool: pool}
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var t domain.Ticket
	err := row.Scan(
		&t.ID, &t.QueueID, &t.Seq, &t.Number, &t.RequesterID, &t.Status, &t.PriorityLevel,
		&t.CheckInTime, &t.CalledTime, &t.ServiceStartTime, &t.ServiceEndTime,
		&t.VehicleInfo, &t.IdentificationInfo, &t.Notes,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts a waiting ticket. The queue's counter is advanced with a
// conditional update that only matches an Active queue, so the row lock it
// takes both re-validates the queue status and serializes number allocation
// across concurrent check-ins. The capacity check runs under the same lock.
func (r *TicketRepository) Create(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	var created *domain.Ticket
	err := withTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		var number int
		var queueTypeID uuid.UUID
		err := tx.QueryRow(ctx, `
			UPDATE queues
			SET current_number = current_number + 1, updated_at = now()
			WHERE id = $1 AND status = $2
			RETURNING current_number, queue_type_id
		`, ticket.QueueID, domain.QueueActive).Scan(&number, &queueTypeID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				var exists bool
				if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM queues WHERE id = $1)`, ticket.QueueID).Scan(&exists); err != nil {
					return err
				}
				if !exists {
					return apperrors.ErrQueueNotFound
				}
				return apperrors.ErrQueueNotActive
			}
			return err
		}

		var prefix string
		var maxCapacity int
		if err := tx.QueryRow(ctx, `
			SELECT prefix, max_capacity FROM queue_types WHERE id = $1
		`, queueTypeID).Scan(&prefix, &maxCapacity); err != nil {
			return err
		}

		var active int
		if err := tx.QueryRow(ctx, `
			SELECT COUNT(*) FROM tickets
			WHERE queue_id = $1 AND status IN ($2, $3, $4)
		`, ticket.QueueID, domain.TicketWaiting, domain.TicketCalled, domain.TicketServing).Scan(&active); err != nil {
			return err
		}
		if active >= maxCapacity {
			return apperrors.ErrQueueFull
		}

		row := tx.QueryRow(ctx, `
			INSERT INTO tickets (
				id, queue_id, number, requester_id, status, priority_level,
				check_in_time, vehicle_info, identification_info
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING `+ticketColumns+`
		`, ticket.ID, ticket.QueueID, fmt.Sprintf("%s-%04d", prefix, number), ticket.RequesterID,
			ticket.Status, ticket.PriorityLevel, ticket.CheckInTime,
			ticket.VehicleInfo, ticket.IdentificationInfo)

		created, err = scanTicket(row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetByID retrieves a single ticket by its ID.
func (r *TicketRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Ticket, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id)
	ticket, err := scanTicket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, err
	}
	return ticket, nil
}

// UpdateStatus persists a status change conditional on the ticket still
// being in fromStatus, and frees any service point holding the ticket when
// releasePoint is set. Both writes share one transaction so the busy-points
// to in-service-tickets correspondence is never observable half-updated.
func (r *TicketRepository) UpdateStatus(ctx context.Context, ticket *domain.Ticket, fromStatus domain.TicketStatus, releasePoint bool) (*domain.Ticket, error) {
	var updated *domain.Ticket
	err := withTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			UPDATE tickets
			SET status = $1,
				called_time = $2,
				service_start_time = $3,
				service_end_time = $4,
				notes = $5
			WHERE id = $6 AND status = $7
			RETURNING `+ticketColumns+`
		`, ticket.Status, ticket.CalledTime, ticket.ServiceStartTime, ticket.ServiceEndTime,
			ticket.Notes, ticket.ID, fromStatus)

		var err error
		updated, err = scanTicket(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				// Someone else moved the ticket first.
				return apperrors.ErrConflict
			}
			return err
		}

		if releasePoint {
			_, err = tx.Exec(ctx, `
				UPDATE service_points
				SET status = $1, current_ticket_id = NULL, updated_at = now()
				WHERE current_ticket_id = $2
			`, domain.PointAvailable, ticket.ID)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ListWaitingByQueue returns waiting tickets in dispatch selection order.
func (r *TicketRepository) ListWaitingByQueue(ctx context.Context, queueID uuid.UUID) ([]*domain.Ticket, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+ticketColumns+` FROM tickets
		WHERE queue_id = $1 AND status = $2
		ORDER BY priority_level DESC, check_in_time ASC, seq ASC
	`, queueID, domain.TicketWaiting)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []*domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	return tickets, rows.Err()
}

// ListActiveTicketIDs returns the IDs of waiting and called tickets on a queue.
func (r *TicketRepository) ListActiveTicketIDs(ctx context.Context, queueID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id FROM tickets
		WHERE queue_id = $1 AND status IN ($2, $3)
		ORDER BY seq ASC
	`, queueID, domain.TicketWaiting, domain.TicketCalled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountWaitingAhead counts waiting tickets on the same queue that the
// dispatcher would select before the given ticket.
func (r *TicketRepository) CountWaitingAhead(ctx context.Context, ticket *domain.Ticket) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM tickets
		WHERE queue_id = $1 AND status = $2
			AND (priority_level > $3
				OR (priority_level = $3 AND check_in_time < $4)
				OR (priority_level = $3 AND check_in_time = $4 AND seq < $5))
	`, ticket.QueueID, domain.TicketWaiting, ticket.PriorityLevel, ticket.CheckInTime, ticket.Seq).Scan(&count)
	return count, err
}
