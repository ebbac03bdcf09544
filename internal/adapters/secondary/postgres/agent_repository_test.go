package postgres

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartqueue/smartqueue-backend/internal/core/domain"
	apperrors "github.com/smartqueue/smartqueue-backend/internal/core/errors"
)

func TestAgentRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewAgentRepository(testPool)

	newAgent := func(t *testing.T) *domain.Agent {
		t.Helper()
		email := fmt.Sprintf("agent-%s@example.com", uuid.NewString()[:8])
		agent, err := domain.NewAgent("Jordan Reyes", email, "correct horse", uuid.New())
		require.NoError(t, err)
		return agent
	}

	t.Run("create and fetch by email", func(t *testing.T) {
		agent := newAgent(t)

		created, err := repo.Create(ctx, agent)
		require.NoError(t, err)
		assert.Equal(t, agent.ID, created.ID)

		fetched, err := repo.GetByEmail(ctx, agent.Email)
		require.NoError(t, err)
		assert.Equal(t, agent.ID, fetched.ID)
		assert.True(t, fetched.IsActive)
		assert.True(t, fetched.CheckPassword("correct horse"))
	})

	t.Run("duplicate email", func(t *testing.T) {
		agent := newAgent(t)
		_, err := repo.Create(ctx, agent)
		require.NoError(t, err)

		dup, err := domain.NewAgent("Sam Okafor", agent.Email, "another pass", uuid.New())
		require.NoError(t, err)
		_, err = repo.Create(ctx, dup)

		assert.ErrorIs(t, err, apperrors.ErrAgentExists)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := repo.GetByEmail(ctx, "nobody@example.com")

		assert.ErrorIs(t, err, apperrors.ErrAgentNotFound)
	})
}
