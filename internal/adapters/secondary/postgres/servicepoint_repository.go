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

const servicePointColumns = `id, branch_id, name, status, current_ticket_id, assigned_agent_id,
	is_vehicle_compatible, created_at, updated_at`

// ServicePointRepository is the secondary adapter for service point persistence.
type ServicePointRepository struct {
	pool *pgxpool.Pool
}

var _ ports.ServicePointRepository = (*ServicePointRepository)(nil)

// NewServicePointRepository creates a new service point repository.
func NewServicePointRepository(pool *pgxpool.Pool) *ServicePointRepository {
	return &ServicePointRepository{pool: pool}
}

func scanServicePoint(row pgx.Row) (*domain.ServicePoint, error) {
	var p domain.ServicePoint
	err := row.Scan(
		&p.ID, &p.BranchID, &p.Name, &p.Status, &p.CurrentTicketID, &p.AssignedAgentID,
		&p.IsVehicleCompatible, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create persists a new service point.
func (r *ServicePointRepository) Create(ctx context.Context, p *domain.ServicePoint) (*domain.ServicePoint, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO service_points (id, branch_id, name, status, is_vehicle_compatible, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+servicePointColumns+`
	`, p.ID, p.BranchID, p.Name, p.Status, p.IsVehicleCompatible, p.CreatedAt)
	return scanServicePoint(row)
}

// GetByID retrieves a service point by ID.
func (r *ServicePointRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ServicePoint, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+servicePointColumns+` FROM service_points WHERE id = $1`, id)
	p, err := scanServicePoint(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrServicePointNotFound
		}
		return nil, err
	}
	return p, nil
}

// Update persists staff-driven changes to a service point.
func (r *ServicePointRepository) Update(ctx context.Context, p *domain.ServicePoint) (*domain.ServicePoint, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE service_points
		SET status = $1, current_ticket_id = $2, assigned_agent_id = $3, updated_at = now()
		WHERE id = $4
		RETURNING `+servicePointColumns+`
	`, p.Status, p.CurrentTicketID, p.AssignedAgentID, p.ID)
	updated, err := scanServicePoint(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrServicePointNotFound
		}
		return nil, err
	}
	return updated, nil
}

// Release frees the point and clears its current ticket. The update is
// conditional, so releasing an already-available point changes nothing.
func (r *ServicePointRepository) Release(ctx context.Context, id uuid.UUID) (*domain.ServicePoint, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE service_points
		SET status = $1, current_ticket_id = NULL, updated_at = now()
		WHERE id = $2 AND status <> $1
		RETURNING `+servicePointColumns+`
	`, domain.PointAvailable, id)
	p, err := scanServicePoint(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Already available, or missing entirely.
			return r.GetByID(ctx, id)
		}
		return nil, err
	}
	return p, nil
}
