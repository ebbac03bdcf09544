package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smartqueue/smartqueue-backend/internal/core/domain"
	apperrors "github.com/smartqueue/smartqueue-backend/internal/core/errors"
	"github.com/smartqueue/smartqueue-backend/internal/core/ports"
)

const agentColumns = `id, organization_id, full_name, email, password_hash, is_active, created_at`

// AgentRepository is the secondary adapter for staff account persistence.
type AgentRepository struct {
	pool *pgxpool.Pool
}

var _ ports.AgentRepository = (*AgentRepository)(nil)

// NewAgentRepository creates a new agent repository.
func NewAgentRepository(pool *pgxpool.Pool) *AgentRepository {
	return &AgentRepository{pool: pool}
}

func scanAgent(row pgx.Row) (*domain.Agent, error) {
	var a domain.Agent
	err := row.Scan(&a.ID, &a.OrganizationID, &a.FullName, &a.Email, &a.PasswordHash, &a.IsActive, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create persists a staff account.
func (r *AgentRepository) Create(ctx context.Context, agent *domain.Agent) (*domain.Agent, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO agents (id, organization_id, full_name, email, password_hash, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+agentColumns+`
	`, agent.ID, agent.OrganizationID, agent.FullName, agent.Email, agent.PasswordHash, agent.IsActive, agent.CreatedAt)

	created, err := scanAgent(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperrors.ErrAgentExists
		}
		return nil, err
	}
	return created, nil
}

// GetByEmail retrieves a staff account by email.
func (r *AgentRepository) GetByEmail(ctx context.Context, email string) (*domain.Agent, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+agentColumns+` FROM agents WHERE email = $1`, email)
	agent, err := scanAgent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrAgentNotFound
		}
		return nil, err
	}
	return agent, nil
}
