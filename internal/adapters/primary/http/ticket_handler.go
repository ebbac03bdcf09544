package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/smartqueue/smartqueue-backend/internal/adapters/primary/validation"
	"github.com/smartqueue/smartqueue-backend/internal/core/domain"
	"github.com/smartqueue/smartqueue-backend/internal/core/ports"
)

// TicketHandler handles HTTP requests for tickets
type TicketHandler struct {
	ticketService    ports.TicketService
	estimatorService ports.EstimatorService
	errorHandler     *ErrorHandler
	logger           *slog.Logger
}

// NewTicketHandler creates a new ticket handler
func NewTicketHandler(
	ticketService ports.TicketService,
	estimatorService ports.EstimatorService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *TicketHandler {
	return &TicketHandler{
		ticketService:    ticketService,
		estimatorService: estimatorService,
		errorHandler:     errorHandler,
		logger:           logger.With("handler", "ticket"),
	}
}

// --- Request/Response DTOs ---

// CheckInRequest defines the expected JSON body for a queue check-in
type CheckInRequest struct {
	RequesterID        string          `json:"requesterId"`
	Priority           int             `json:"priority"`
	VehicleInfo        json.RawMessage `json:"vehicleInfo,omitempty"`
	IdentificationInfo json.RawMessage `json:"identificationInfo,omitempty"`
}

// Validate validates the check-in request
func (r *CheckInRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("requesterId", r.RequesterID).
		UUID("requesterId", r.RequesterID)

	v.Range("priority", r.Priority, 0, 10)

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// UpdateStatusRequest defines the expected JSON body for status updates
type UpdateStatusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes,omitempty"`
}

// Validate validates the update status request
func (r *UpdateStatusRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("status", r.Status).
		OneOf("status", r.Status, []string{
			"WAITING", "CALLED", "SERVING", "COMPLETED", "CANCELLED", "NO_SHOW", "TRANSFERRED",
		})

	v.MaxLength("notes", r.Notes, 1000)

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// TicketDTO defines the JSON response for tickets.
type TicketDTO struct {
	ID                 string          `json:"id"`
	QueueID            string          `json:"queueId"`
	Number             string          `json:"number"`
	RequesterID        string          `json:"requesterId"`
	Status             string          `json:"status"`
	PriorityLevel      int             `json:"priorityLevel"`
	CheckInTime        string          `json:"checkInTime"`
	CalledTime         *string         `json:"calledTime"`
	ServiceStartTime   *string         `json:"serviceStartTime"`
	ServiceEndTime     *string         `json:"serviceEndTime"`
	VehicleInfo        json.RawMessage `json:"vehicleInfo,omitempty"`
	IdentificationInfo json.RawMessage `json:"identificationInfo,omitempty"`
	Notes              string          `json:"notes,omitempty"`
}

// CheckInResponse carries the new ticket plus its queue position and
// the baseline wait estimate.
type CheckInResponse struct {
	Ticket               TicketDTO `json:"ticket"`
	Position             int       `json:"position"`
	EstimatedWaitMinutes *int      `json:"estimatedWaitMinutes"`
}

// EstimateDTO defines the JSON response for wait estimates.
type EstimateDTO struct {
	Position             int  `json:"position"`
	EstimatedWaitMinutes *int `json:"estimatedWaitMinutes"`
}

func formatOptionalTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	value := t.Format(time.RFC3339)
	return &value
}

func toTicketDTO(ticket *domain.Ticket) TicketDTO {
	return TicketDTO{
		ID:                 ticket.ID.String(),
		QueueID:            ticket.QueueID.String(),
		Number:             ticket.Number,
		RequesterID:        ticket.RequesterID.String(),
		Status:             string(ticket.Status),
		PriorityLevel:      ticket.PriorityLevel,
		CheckInTime:        ticket.CheckInTime.Format(time.RFC3339),
		CalledTime:         formatOptionalTime(ticket.CalledTime),
		ServiceStartTime:   formatOptionalTime(ticket.ServiceStartTime),
		ServiceEndTime:     formatOptionalTime(ticket.ServiceEndTime),
		VehicleInfo:        ticket.VehicleInfo,
		IdentificationInfo: ticket.IdentificationInfo,
		Notes:              ticket.Notes,
	}
}

func toTicketDTOs(tickets []*domain.Ticket) []TicketDTO {
	response := make([]TicketDTO, 0, len(tickets))
	for _, ticket := range tickets {
		response = append(response, toTicketDTO(ticket))
	}
	return response
}

// --- Handlers ---

// HandleCheckIn handles POST /queues/{queueID}/tickets
func (h *TicketHandler) HandleCheckIn(w http.ResponseWriter, r *http.Request) {
	queueID, err := parseUUIDParam(r, "queueID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := validation.DecodeAndValidate[CheckInRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	requesterID, err := uuid.Parse(req.RequesterID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	params := ports.CreateTicketParams{
		QueueID:            queueID,
		RequesterID:        requesterID,
		Priority:           req.Priority,
		VehicleInfo:        req.VehicleInfo,
		IdentificationInfo: req.IdentificationInfo,
	}

	result, err := h.ticketService.CreateTicket(r.Context(), params)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("ticket created",
		"ticket_id", result.Ticket.ID,
		"queue_id", queueID,
		"number", result.Ticket.Number,
	)

	WriteCreated(w, CheckInResponse{
		Ticket:               toTicketDTO(result.Ticket),
		Position:             result.Position,
		EstimatedWaitMinutes: result.EstimatedWaitMinutes,
	})
}

// HandleGetTicket handles GET /tickets/{ticketID}
func (h *TicketHandler) HandleGetTicket(w http.ResponseWriter, r *http.Request) {
	ticketID, err := parseUUIDParam(r, "ticketID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	ticket, err := h.ticketService.GetTicket(r.Context(), ticketID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, toTicketDTO(ticket))
}

// HandleGetEstimate handles GET /tickets/{ticketID}/estimate
func (h *TicketHandler) HandleGetEstimate(w http.ResponseWriter, r *http.Request) {
	ticketID, err := parseUUIDParam(r, "ticketID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	estimate, err := h.estimatorService.Estimate(r.Context(), ticketID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, EstimateDTO{
		Position:             estimate.Position,
		EstimatedWaitMinutes: estimate.Minutes,
	})
}

// HandleUpdateTicketStatus handles PATCH /tickets/{ticketID}/status
func (h *TicketHandler) HandleUpdateTicketStatus(w http.ResponseWriter, r *http.Request) {
	ticketID, err := parseUUIDParam(r, "ticketID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := validation.DecodeAndValidate[UpdateStatusRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	params := ports.UpdateStatusParams{
		TicketID:  ticketID,
		NewStatus: domain.TicketStatus(req.Status),
		Notes:     req.Notes,
	}

	ticket, err := h.ticketService.UpdateStatus(r.Context(), params)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("ticket status updated",
		"ticket_id", ticketID,
		"new_status", req.Status,
	)

	WriteJSON(w, http.StatusOK, toTicketDTO(ticket))
}

// --- Helper methods ---

// parseUUIDParam extracts and validates a UUID path parameter
func parseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	return parseUUIDString(chi.URLParam(r, name), name)
}

// parseUUIDString validates a UUID carried in a request field
func parseUUIDString(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		v := validation.NewValidator()
		v.Custom(field, false, "Must be a valid UUID")
		return uuid.Nil, v.Errors()
	}
	return id, nil
}
