package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/smartqueue/smartqueue-backend/internal/core/domain"
	apperrors "github.com/smartqueue/smartqueue-backend/internal/core/errors"
	"github.com/smartqueue/smartqueue-backend/internal/core/ports"
)

// AgentService handles staff account registration and login.
type AgentService struct {
	agentRepo ports.AgentRepository
}

var _ ports.AgentService = (*AgentService)(nil)

// NewAgentService creates a new agent service.
func NewAgentService(agentRepo ports.AgentRepository) *AgentService {
	return &AgentService{agentRepo: agentRepo}
}

// Register creates a staff account.
func (s *AgentService) Register(ctx context.Context, fullName, email, password string, orgID uuid.UUID) (*domain.Agent, error) {
	agent, err := domain.NewAgent(fullName, email, password, orgID)
	if err != nil {
		return nil, err
	}

	existing, err := s.agentRepo.GetByEmail(ctx, agent.Email)
	if err != nil && !errors.Is(err, apperrors.ErrAgentNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.ErrAgentExists
	}

	return s.agentRepo.Create(ctx, agent)
}

// Login verifies credentials and returns the agent on success. Lookup
// failures and bad passwords are indistinguishable to the caller.
func (s *AgentService) Login(ctx context.Context, email, password string) (*domain.Agent, error) {
	agent, err := s.agentRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, apperrors.ErrAgentNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if !agent.IsActive || !agent.CheckPassword(password) {
		return nil, apperrors.ErrInvalidCredentials
	}
	return agent, nil
}
