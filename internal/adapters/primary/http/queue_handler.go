package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/smartqueue/smartqueue-backend/internal/adapters/primary/validation"
	"github.com/smartqueue/smartqueue-backend/internal/core/domain"
	"github.com/smartqueue/smartqueue-backend/internal/core/ports"
)

const maxQueueNameLength = 120

// QueueHandler handles HTTP requests for queues and queue types
type QueueHandler struct {
	queueService ports.QueueService
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewQueueHandler creates a new queue handler
func NewQueueHandler(
	queueService ports.QueueService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *QueueHandler {
	return &QueueHandler{
		queueService: queueService,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "queue"),
	}
}

// RegisterQueueTypeRoutes sets up the routing for queue type endpoints.
func (h *QueueHandler) RegisterQueueTypeRoutes(r chi.Router) {
	r.Post("/", h.HandleCreateQueueType)
}

// --- Request/Response DTOs ---

// CreateQueueTypeRequest defines the expected JSON body for creating a queue type
type CreateQueueTypeRequest struct {
	OrganizationID         string `json:"organizationId"`
	BranchID               string `json:"branchId"`
	Name                   string `json:"name"`
	Prefix                 string `json:"prefix"`
	Category               string `json:"category"`
	Description            string `json:"description"`
	EstimatedServiceTime   int    `json:"estimatedServiceTime"`
	MaxCapacity            int    `json:"maxCapacity"`
	RequiresVehicleInfo    bool   `json:"requiresVehicleInfo"`
	RequiresIdentification bool   `json:"requiresIdentification"`
}

// Validate validates the create queue type request
func (r *CreateQueueTypeRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("organizationId", r.OrganizationID).
		UUID("organizationId", r.OrganizationID)

	v.Required("branchId", r.BranchID).
		UUID("branchId", r.BranchID)

	v.Required("name", r.Name).
		MaxLength("name", r.Name, maxQueueNameLength)

	v.MaxLength("prefix", r.Prefix, 8)

	v.Required("category", r.Category).
		OneOf("category", r.Category, []string{"VEHICLE", "PERSON", "MIXED"})

	v.Custom("estimatedServiceTime", r.EstimatedServiceTime >= 0, "Must not be negative")
	v.Custom("maxCapacity", r.MaxCapacity >= 0, "Must not be negative")

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// CreateQueueRequest defines the expected JSON body for creating a queue
type CreateQueueRequest struct {
	QueueTypeID string `json:"queueTypeId"`
	Name        string `json:"name"`
}

// Validate validates the create queue request
func (r *CreateQueueRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("queueTypeId", r.QueueTypeID).
		UUID("queueTypeId", r.QueueTypeID)

	v.Required("name", r.Name).
		MaxLength("name", r.Name, maxQueueNameLength)

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// SetQueueStatusRequest defines the expected JSON body for queue status changes
type SetQueueStatusRequest struct {
	Status string `json:"status"`
}

// Validate validates the queue status request
func (r *SetQueueStatusRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("status", r.Status).
		OneOf("status", r.Status, []string{"ACTIVE", "PAUSED", "CLOSED", "MAINTENANCE"})

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// AssignServicePointRequest defines the expected JSON body for assigning a
// service point to a queue
type AssignServicePointRequest struct {
	ServicePointID string `json:"servicePointId"`
}

// Validate validates the assign service point request
func (r *AssignServicePointRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("servicePointId", r.ServicePointID).
		UUID("servicePointId", r.ServicePointID)

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// QueueTypeDTO defines the JSON response for queue types.
type QueueTypeDTO struct {
	ID                     string `json:"id"`
	OrganizationID         string `json:"organizationId"`
	BranchID               string `json:"branchId"`
	Name                   string `json:"name"`
	Prefix                 string `json:"prefix"`
	Category               string `json:"category"`
	Description            string `json:"description,omitempty"`
	EstimatedServiceTime   int    `json:"estimatedServiceTime"`
	MaxCapacity            int    `json:"maxCapacity"`
	RequiresVehicleInfo    bool   `json:"requiresVehicleInfo"`
	RequiresIdentification bool   `json:"requiresIdentification"`
	CreatedAt              string `json:"createdAt"`
}

// QueueDTO defines the JSON response for queues.
type QueueDTO struct {
	ID            string `json:"id"`
	QueueTypeID   string `json:"queueTypeId"`
	Name          string `json:"name"`
	Status        string `json:"status"`
	CurrentNumber int    `json:"currentNumber"`
	CreatedAt     string `json:"createdAt"`
}

// QueueSnapshotDTO defines the JSON response for the display-board view.
type QueueSnapshotDTO struct {
	Queue                QueueDTO    `json:"queue"`
	WaitingCount         int         `json:"waitingCount"`
	AvailablePoints      int         `json:"availablePoints"`
	EstimatedWaitMinutes *int        `json:"estimatedWaitMinutes"`
	Tickets              []TicketDTO `json:"tickets"`
}

func toQueueTypeDTO(qt *domain.QueueType) QueueTypeDTO {
	return QueueTypeDTO{
		ID:                     qt.ID.String(),
		OrganizationID:         qt.OrganizationID.String(),
		BranchID:               qt.BranchID.String(),
		Name:                   qt.Name,
		Prefix:                 qt.Prefix,
		Category:               string(qt.Category),
		Description:            qt.Description,
		EstimatedServiceTime:   qt.EstimatedServiceTime,
		MaxCapacity:            qt.MaxCapacity,
		RequiresVehicleInfo:    qt.RequiresVehicleInfo,
		RequiresIdentification: qt.RequiresIdentification,
		CreatedAt:              qt.CreatedAt.Format(time.RFC3339),
	}
}

func toQueueDTO(q *domain.Queue) QueueDTO {
	return QueueDTO{
		ID:            q.ID.String(),
		QueueTypeID:   q.QueueTypeID.String(),
		Name:          q.Name,
		Status:        string(q.Status),
		CurrentNumber: q.CurrentNumber,
		CreatedAt:     q.CreatedAt.Format(time.RFC3339),
	}
}

// --- Handlers ---

// HandleCreateQueueType handles POST /queue-types
func (h *QueueHandler) HandleCreateQueueType(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeAndValidate[CreateQueueTypeRequest](r)
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
	branchID, err := parseUUIDString(req.BranchID, "branchId")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	params := ports.CreateQueueTypeParams{
		OrganizationID:         orgID,
		BranchID:               branchID,
		Name:                   req.Name,
		Prefix:                 req.Prefix,
		Category:               domain.QueueCategory(req.Category),
		Description:            req.Description,
		EstimatedServiceTime:   req.EstimatedServiceTime,
		MaxCapacity:            req.MaxCapacity,
		RequiresVehicleInfo:    req.RequiresVehicleInfo,
		RequiresIdentification: req.RequiresIdentification,
	}

	queueType, err := h.queueService.CreateQueueType(r.Context(), params)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("queue type created",
		"queue_type_id", queueType.ID,
		"name", queueType.Name,
	)

	WriteCreated(w, toQueueTypeDTO(queueType))
}

// HandleCreateQueue handles POST /queues
func (h *QueueHandler) HandleCreateQueue(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeAndValidate[CreateQueueRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	queueTypeID, err := parseUUIDString(req.QueueTypeID, "queueTypeId")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	queue, err := h.queueService.CreateQueue(r.Context(), queueTypeID, req.Name)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("queue created",
		"queue_id", queue.ID,
		"name", queue.Name,
	)

	WriteCreated(w, toQueueDTO(queue))
}

// HandleGetQueue handles GET /queues/{queueID}
func (h *QueueHandler) HandleGetQueue(w http.ResponseWriter, r *http.Request) {
	queueID, err := parseUUIDParam(r, "queueID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	queue, err := h.queueService.GetQueue(r.Context(), queueID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, toQueueDTO(queue))
}

// HandleGetSnapshot handles GET /queues/{queueID}/snapshot
func (h *QueueHandler) HandleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	queueID, err := parseUUIDParam(r, "queueID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	snapshot, err := h.queueService.Snapshot(r.Context(), queueID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, QueueSnapshotDTO{
		Queue:                toQueueDTO(snapshot.Queue),
		WaitingCount:         snapshot.WaitingCount,
		AvailablePoints:      snapshot.AvailablePoints,
		EstimatedWaitMinutes: snapshot.EstimatedWaitMinutes,
		Tickets:              toTicketDTOs(snapshot.Tickets),
	})
}

// HandleSetQueueStatus handles PATCH /queues/{queueID}/status
func (h *QueueHandler) HandleSetQueueStatus(w http.ResponseWriter, r *http.Request) {
	queueID, err := parseUUIDParam(r, "queueID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := validation.DecodeAndValidate[SetQueueStatusRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	queue, err := h.queueService.SetQueueStatus(r.Context(), queueID, domain.QueueStatus(req.Status))
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("queue status updated",
		"queue_id", queueID,
		"new_status", req.Status,
	)

	WriteJSON(w, http.StatusOK, toQueueDTO(queue))
}

// HandleAssignServicePoint handles POST /queues/{queueID}/service-points
func (h *QueueHandler) HandleAssignServicePoint(w http.ResponseWriter, r *http.Request) {
	queueID, err := parseUUIDParam(r, "queueID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := validation.DecodeAndValidate[AssignServicePointRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	servicePointID, err := parseUUIDString(req.ServicePointID, "servicePointId")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := h.queueService.AssignServicePoint(r.Context(), queueID, servicePointID); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("service point assigned to queue",
		"queue_id", queueID,
		"service_point_id", servicePointID,
	)

	WriteNoContent(w)
}
