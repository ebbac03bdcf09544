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
	"github.com/smartqueue/smartqueue-backend/internal/core/services"
)

func TestAgentService_Register(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()

	t.Run("success", func(t *testing.T) {
		mockAgents := mocks.NewMockAgentRepository()
		svc := services.NewAgentService(mockAgents)

		mockAgents.On("GetByEmail", ctx, "jordan@example.com").Return(nil, apperrors.ErrAgentNotFound)

		var created *domain.Agent
		mockAgents.On("Create", ctx, mock.AnythingOfType("*domain.Agent")).
			Run(func(args mock.Arguments) {
				created = args.Get(1).(*domain.Agent)
			}).
			Return(nil, nil)

		_, err := svc.Register(ctx, "Jordan Reyes", "Jordan@Example.com", "correct horse", orgID)

		require.NoError(t, err)
		require.NotNil(t, created)
		assert.Equal(t, "jordan@example.com", created.Email)
		assert.Equal(t, orgID, created.OrganizationID)
		assert.True(t, created.IsActive)
		assert.True(t, created.CheckPassword("correct horse"))
	})

	t.Run("duplicate email", func(t *testing.T) {
		mockAgents := mocks.NewMockAgentRepository()
		svc := services.NewAgentService(mockAgents)

		existing, err := domain.NewAgent("Jordan Reyes", "jordan@example.com", "correct horse", orgID)
		require.NoError(t, err)
		mockAgents.On("GetByEmail", ctx, "jordan@example.com").Return(existing, nil)

		_, err = svc.Register(ctx, "Jordan Reyes", "jordan@example.com", "correct horse", orgID)

		assert.ErrorIs(t, err, apperrors.ErrAgentExists)
		mockAgents.AssertNotCalled(t, "Create")
	})

	t.Run("short password never reaches the repository", func(t *testing.T) {
		mockAgents := mocks.NewMockAgentRepository()
		svc := services.NewAgentService(mockAgents)

		_, err := svc.Register(ctx, "Jordan Reyes", "jordan@example.com", "short", orgID)

		assert.ErrorIs(t, err, apperrors.ErrPasswordTooWeak)
		mockAgents.AssertNotCalled(t, "GetByEmail")
	})
}

func TestAgentService_Login(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()

	newAgent := func(t *testing.T) *domain.Agent {
		t.Helper()
		agent, err := domain.NewAgent("Jordan Reyes", "jordan@example.com", "correct horse", orgID)
		require.NoError(t, err)
		return agent
	}

	t.Run("success normalizes the email", func(t *testing.T) {
		mockAgents := mocks.NewMockAgentRepository()
		svc := services.NewAgentService(mockAgents)
		agent := newAgent(t)

		mockAgents.On("GetByEmail", ctx, "jordan@example.com").Return(agent, nil)

		got, err := svc.Login(ctx, "  Jordan@Example.com ", "correct horse")

		require.NoError(t, err)
		assert.Equal(t, agent.ID, got.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		mockAgents := mocks.NewMockAgentRepository()
		svc := services.NewAgentService(mockAgents)

		mockAgents.On("GetByEmail", ctx, "jordan@example.com").Return(newAgent(t), nil)

		_, err := svc.Login(ctx, "jordan@example.com", "wrong horse")

		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})

	t.Run("unknown email looks like a bad password", func(t *testing.T) {
		mockAgents := mocks.NewMockAgentRepository()
		svc := services.NewAgentService(mockAgents)

		mockAgents.On("GetByEmail", ctx, "nobody@example.com").Return(nil, apperrors.ErrAgentNotFound)

		_, err := svc.Login(ctx, "nobody@example.com", "correct horse")

		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})

	t.Run("deactivated account", func(t *testing.T) {
		mockAgents := mocks.NewMockAgentRepository()
		svc := services.NewAgentService(mockAgents)
		agent := newAgent(t)
		agent.IsActive = false

		mockAgents.On("GetByEmail", ctx, "jordan@example.com").Return(agent, nil)

		_, err := svc.Login(ctx, "jordan@example.com", "correct horse")

		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})
}
