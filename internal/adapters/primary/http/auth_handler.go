package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/smartqueue/smartqueue-backend/internal/adapters/primary/validation"
	"github.com/smartqueue/smartqueue-backend/internal/auth"
	"github.com/smartqueue/smartqueue-backend/internal/core/ports"
)

// AuthHandler handles agent registration and login
type AuthHandler struct {
	agentService ports.AgentService
	tokenManager *auth.TokenManager
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	agentService ports.AgentService,
	tokenManager *auth.TokenManager,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		agentService: agentService,
		tokenManager: tokenManager,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "auth"),
	}
}

// RegisterRoutes sets up the routing for auth endpoints.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/register", h.HandleRegister)
	r.Post("/login", h.HandleLogin)
}

// --- Request/Response DTOs ---

// RegisterRequest defines the expected JSON body for agent registration
type RegisterRequest struct {
	FullName       string `json:"fullName"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	OrganizationID string `json:"organizationId"`
}

// Validate validates the register request
func (r *RegisterRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("fullName", r.FullName)

	v.Required("email", r.Email).
		Email("email", r.Email)

	v.Required("password", r.Password).
		MinLength("password", r.Password, 8)

	v.Required("organizationId", r.OrganizationID).
		UUID("organizationId", r.OrganizationID)

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// LoginRequest defines the expected JSON body for login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate validates the login request
func (r *LoginRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("email", r.Email)
	v.Required("password", r.Password)

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// AgentDTO defines the JSON response for agents.
type AgentDTO struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organizationId"`
	FullName       string `json:"fullName"`
	Email          string `json:"email"`
}

// TokenResponse carries the issued access token.
type TokenResponse struct {
	Token string   `json:"token"`
	Agent AgentDTO `json:"agent"`
}

// --- Handlers ---

// HandleRegister handles POST /auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeAndValidate[RegisterRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	orgID, err := parseUUIDString(req.OrganizationID, "organizationId")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	agent, err := h.agentService.Register(r.Context(), req.FullName, req.Email, req.Password, orgID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("agent registered", "agent_id", agent.ID)

	WriteCreated(w, AgentDTO{
		ID:             agent.ID.String(),
		OrganizationID: agent.OrganizationID.String(),
		FullName:       agent.FullName,
		Email:          agent.Email,
	})
}

// HandleLogin handles POST /auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeAndValidate[LoginRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	agent, err := h.agentService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	// Token issuance happens in the adapter, the core only verifies the
	// credentials.
	token, err := h.tokenManager.GenerateToken(agent.ID, agent.OrganizationID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("agent logged in", "agent_id", agent.ID)

	WriteJSON(w, http.StatusOK, TokenResponse{
		Token: token,
		Agent: AgentDTO{
			ID:             agent.ID.String(),
			OrganizationID: agent.OrganizationID.String(),
			FullName:       agent.FullName,
			Email:          agent.Email,
		},
	})
}
