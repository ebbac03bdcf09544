package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smartqueue/smartqueue-backend/internal/core/domain"
	apperrors "github.com/smartqueue/smartqueue-backend/internal/core/errors"
	"github.com/smartqueue/smartqueue-backend/internal/core/ports"
)

const queueColumns = `id, queue_type_id, name, status, current_number, is_priority, created_at, updated_at`

const queueTypeColumns = `id, organization_id, branch_id, name, prefix, category, description,
	estimated_service_time, max_capacity, requires_vehicle_info, requires_identification,
	is_active, created_at, updated_at`

// QueueRepository is the secondary adapter for queue registry persistence.
type QueueRepository struct {
	pool *pgxpool.Pool
}

var _ ports.QueueRepository = (*QueueRepository)(nil)

// NewQueueRepository creates a new queue repository.
func NewQueueRepository(pool *pgxpool.Pool) *QueueRepository {
	return &QueueRepository{pool: pool}
}

func scanQueue(row pgx.Row) (*domain.Queue, error) {
	var q domain.Queue
	err := row.Scan(&q.ID, &q.QueueTypeID, &q.Name, &q.Status, &q.CurrentNumber, &q.IsPriority, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func scanQueueType(row pgx.Row) (*domain.QueueType, error) {
	var qt domain.QueueType
	err := row.Scan(
		&qt.ID, &qt.OrganizationID, &qt.BranchID, &qt.Name, &qt.Prefix, &qt.Category, &qt.Description,
		&qt.EstimatedServiceTime, &qt.MaxCapacity, &qt.RequiresVehicleInfo, &qt.RequiresIdentification,
		&qt.IsActive, &qt.CreatedAt, &qt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &qt, nil
}

// CreateQueueType persists a queue template.
func (r *QueueRepository) CreateQueueType(ctx context.Context, qt *domain.QueueType) (*domain.QueueType, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO queue_types (
			id, organization_id, branch_id, name, prefix, category, description,
			estimated_service_time, max_capacity, requires_vehicle_info,
			requires_identification, is_active, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING `+queueTypeColumns+`
	`, qt.ID, qt.OrganizationID, qt.BranchID, qt.Name, qt.Prefix, qt.Category, qt.Description,
		qt.EstimatedServiceTime, qt.MaxCapacity, qt.RequiresVehicleInfo,
		qt.RequiresIdentification, qt.IsActive, qt.CreatedAt)
	return scanQueueType(row)
}

// GetQueueType retrieves a queue template by ID.
func (r *QueueRepository) GetQueueType(ctx context.Context, id uuid.UUID) (*domain.QueueType, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+queueTypeColumns+` FROM queue_types WHERE id = $1`, id)
	qt, err := scanQueueType(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrQueueTypeNotFound
		}
		return nil, err
	}
	return qt, nil
}

// CreateQueue persists a live queue.
func (r *QueueRepository) CreateQueue(ctx context.Context, q *domain.Queue) (*domain.Queue, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO queues (id, queue_type_id, name, status, current_number, is_priority, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+queueColumns+`
	`, q.ID, q.QueueTypeID, q.Name, q.Status, q.CurrentNumber, q.IsPriority, q.CreatedAt)
	return scanQueue(row)
}

// GetQueue retrieves a queue by ID.
func (r *QueueRepository) GetQueue(ctx context.Context, id uuid.UUID) (*domain.Queue, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+queueColumns+` FROM queues WHERE id = $1`, id)
	q, err := scanQueue(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrQueueNotFound
		}
		return nil, err
	}
	return q, nil
}

// UpdateQueueStatus sets the queue's operational status.
func (r *QueueRepository) UpdateQueueStatus(ctx context.Context, id uuid.UUID, status domain.QueueStatus) (*domain.Queue, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE queues SET status = $1, updated_at = now()
		WHERE id = $2
		RETURNING `+queueColumns+`
	`, status, id)
	q, err := scanQueue(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrQueueNotFound
		}
		return nil, err
	}
	return q, nil
}

// AssignServicePoint adds a service point to the queue's membership.
// Re-assigning an existing member is a no-op.
func (r *QueueRepository) AssignServicePoint(ctx context.Context, queueID, servicePointID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO queue_service_points (queue_id, service_point_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, queueID, servicePointID)
	return err
}

// AvailableServicePointCount counts assigned points currently Available.
func (r *QueueRepository) AvailableServicePointCount(ctx context.Context, queueID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM service_points sp
		JOIN queue_service_points m ON m.service_point_id = sp.id
		WHERE m.queue_id = $1 AND sp.status = $2
	`, queueID, domain.PointAvailable).Scan(&count)
	return count, err
}

// WaitingTicketCount counts waiting tickets on the queue.
func (r *QueueRepository) WaitingTicketCount(ctx context.Context, queueID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM tickets WHERE queue_id = $1 AND status = $2
	`, queueID, domain.TicketWaiting).Scan(&count)
	return count, err
}
