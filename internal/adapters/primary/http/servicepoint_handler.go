package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/smartqueue/smartqueue-backend/internal/adapters/primary/validation"
	"github.com/smartqueue/smartqueue-backend/internal/core/domain"
	"github.com/smartqueue/smartqueue-backend/internal/core/ports"
)

// ServicePointHandler handles HTTP requests for service points and dispatch
type ServicePointHandler struct {
	dispatchService ports.DispatchService
	errorHandler    *ErrorHandler
	logger          *slog.Logger
}

// NewServicePointHandler creates a new service point handler
func NewServicePointHandler(
	dispatchService ports.DispatchService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *ServicePointHandler {
	return &ServicePointHandler{
		dispatchService: dispatchService,
		errorHandler:    errorHandler,
		logger:          logger.With("handler", "service_point"),
	}
}

// RegisterRoutes sets up the routing for service point endpoints.
func (h *ServicePointHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.HandleCreateServicePoint)

	r.Route("/{servicePointID}", func(r chi.Router) {
		r.Get("/", h.HandleGetServicePoint)
		r.Patch("/status", h.HandleSetStatus)
		r.Post("/call-next", h.HandleCallNext)
		r.Post("/release", h.HandleRelease)
	})
}

// --- Request/Response DTOs ---

// CreateServicePointRequest defines the expected JSON body for creating a
// service point
type CreateServicePointRequest struct {
	BranchID            string `json:"branchId"`
	Name                string `json:"name"`
	IsVehicleCompatible bool   `json:"isVehicleCompatible"`
}

// Validate validates the create service point request
func (r *CreateServicePointRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("branchId", r.BranchID).
		UUID("branchId", r.BranchID)

	v.Required("name", r.Name).
		MaxLength("name", r.Name, maxQueueNameLength)

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// SetServicePointStatusRequest defines the expected JSON body for staff
// status changes
type SetServicePointStatusRequest struct {
	Status  string  `json:"status"`
	AgentID *string `json:"agentId,omitempty"`
}

// Validate validates the status request. BUSY is owned by the dispatcher
// and is rejected here before it reaches the core.
func (r *SetServicePointStatusRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("status", r.Status).
		OneOf("status", r.Status, []string{"AVAILABLE", "OFFLINE", "BREAK"})

	if r.AgentID != nil {
		v.UUID("agentId", *r.AgentID)
	}

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// ServicePointDTO defines the JSON response for service points.
type ServicePointDTO struct {
	ID                  string  `json:"id"`
	BranchID            string  `json:"branchId"`
	Name                string  `json:"name"`
	Status              string  `json:"status"`
	CurrentTicketID     *string `json:"currentTicketId"`
	AssignedAgentID     *string `json:"assignedAgentId"`
	IsVehicleCompatible bool    `json:"isVehicleCompatible"`
	CreatedAt           string  `json:"createdAt"`
}

// CallNextResponse carries the claimed ticket and the announcing point.
type CallNextResponse struct {
	Ticket           TicketDTO `json:"ticket"`
	ServicePointName string    `json:"servicePointName"`
}

func toServicePointDTO(p *domain.ServicePoint) ServicePointDTO {
	var currentTicketID *string
	if p.CurrentTicketID != nil {
		value := p.CurrentTicketID.String()
		currentTicketID = &value
	}

	var assignedAgentID *string
	if p.AssignedAgentID != nil {
		value := p.AssignedAgentID.String()
		assignedAgentID = &value
	}

	return ServicePointDTO{
		ID:                  p.ID.String(),
		BranchID:            p.BranchID.String(),
		Name:                p.Name,
		Status:              string(p.Status),
		CurrentTicketID:     currentTicketID,
		AssignedAgentID:     assignedAgentID,
		IsVehicleCompatible: p.IsVehicleCompatible,
		CreatedAt:           p.CreatedAt.Format(time.RFC3339),
	}
}

// --- Handlers ---

// HandleCreateServicePoint handles POST /service-points
func (h *ServicePointHandler) HandleCreateServicePoint(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeAndValidate[CreateServicePointRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	branchID, err := parseUUIDString(req.BranchID, "branchId")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	point, err := h.dispatchService.CreateServicePoint(r.Context(), ports.CreateServicePointParams{
		BranchID:            branchID,
		Name:                req.Name,
		IsVehicleCompatible: req.IsVehicleCompatible,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("service point created",
		"service_point_id", point.ID,
		"name", point.Name,
	)

	WriteCreated(w, toServicePointDTO(point))
}

// HandleGetServicePoint handles GET /service-points/{servicePointID}
func (h *ServicePointHandler) HandleGetServicePoint(w http.ResponseWriter, r *http.Request) {
	servicePointID, err := parseUUIDParam(r, "servicePointID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	point, err := h.dispatchService.GetServicePoint(r.Context(), servicePointID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, toServicePointDTO(point))
}

// HandleSetStatus handles PATCH /service-points/{servicePointID}/status
func (h *ServicePointHandler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	servicePointID, err := parseUUIDParam(r, "servicePointID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := validation.DecodeAndValidate[SetServicePointStatusRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	var agentID *uuid.UUID
	if req.AgentID != nil {
		parsed, err := parseUUIDString(*req.AgentID, "agentId")
		if err != nil {
			h.errorHandler.Handle(w, r, err)
			return
		}
		agentID = &parsed
	}

	point, err := h.dispatchService.SetServicePointStatus(r.Context(), ports.SetServicePointStatusParams{
		ServicePointID: servicePointID,
		Status:         domain.ServicePointStatus(req.Status),
		AgentID:        agentID,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("service point status updated",
		"service_point_id", servicePointID,
		"new_status", req.Status,
	)

	WriteJSON(w, http.StatusOK, toServicePointDTO(point))
}

// HandleCallNext handles POST /service-points/{servicePointID}/call-next
func (h *ServicePointHandler) HandleCallNext(w http.ResponseWriter, r *http.Request) {
	servicePointID, err := parseUUIDParam(r, "servicePointID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	result, err := h.dispatchService.CallNext(r.Context(), servicePointID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("ticket called",
		"service_point_id", servicePointID,
		"ticket_id", result.Ticket.ID,
		"number", result.Ticket.Number,
	)

	WriteJSON(w, http.StatusOK, CallNextResponse{
		Ticket:           toTicketDTO(result.Ticket),
		ServicePointName: result.ServicePointName,
	})
}

// HandleRelease handles POST /service-points/{servicePointID}/release
func (h *ServicePointHandler) HandleRelease(w http.ResponseWriter, r *http.Request) {
	servicePointID, err := parseUUIDParam(r, "servicePointID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	point, err := h.dispatchService.ReleaseServicePoint(r.Context(), servicePointID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("service point released", "service_point_id", servicePointID)

	WriteJSON(w, http.StatusOK, toServicePointDTO(point))
}
