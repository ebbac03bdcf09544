package domain

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/smartqueue/smartqueue-backend/internal/core/errors"
)

// Agent is a staff member who operates service points.
type Agent struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	FullName       string
	Email          string
	PasswordHash   string
	IsActive       bool
	CreatedAt      time.Time
}

// NewAgent creates an agent account with a bcrypt password hash.
func NewAgent(fullName, email, password string, orgID uuid.UUID) (*Agent, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, apperrors.ErrFullNameRequired
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperrors.ErrEmailRequired
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperrors.ErrEmailInvalid
	}
	if len(password) < 8 {
		return nil, apperrors.ErrPasswordTooWeak
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	return &Agent{
		ID:             uuid.New(),
		OrganizationID: orgID,
		FullName:       fullName,
		Email:          email,
		PasswordHash:   string(hash),
		IsActive:       true,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// CheckPassword compares a candidate password against the stored hash.
func (a *Agent) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) == nil
}
