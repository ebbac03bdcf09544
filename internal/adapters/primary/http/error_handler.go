package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	mw "github.com/smartqueue/smartqueue-backend/internal/adapters/primary/http/middleware"
	apperrors "github.com/smartqueue/smartqueue-backend/internal/core/errors"
)

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	return mw.GetRequestID(ctx)
}

// ErrorResponse is the standard JSON error response format
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ValidationErrorResponse includes field-level validation errors
type ValidationErrorResponse struct {
	Error  string              `json:"error"`
	Code   string              `json:"code"`
	Fields map[string][]string `json:"fields,omitempty"`
}

// ErrorHandler provides centralized error handling with logging
type ErrorHandler struct {
	logger *slog.Logger
}

// NewErrorHandler creates a new error handler with the given logger
func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle processes an error and writes the appropriate HTTP response
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	requestID := GetRequestID(r.Context())

	// Check for AppError first (our custom error type)
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		h.logError(r, appErr.StatusCode, appErr.Err, requestID)
		h.writeErrorResponse(w, appErr.StatusCode, ErrorResponse{
			Error:   appErr.Message,
			Code:    appErr.Code,
			Details: appErr.Details,
		})
		return
	}

	// Check for ValidationErrors
	var validationErrs *apperrors.ValidationErrors
	if errors.As(err, &validationErrs) {
		h.logError(r, http.StatusUnprocessableEntity, err, requestID)
		h.writeValidationErrorResponse(w, validationErrs)
		return
	}

	// Map known domain errors to HTTP responses
	statusCode, response := h.mapDomainError(err)
	h.logError(r, statusCode, err, requestID)
	h.writeErrorResponse(w, statusCode, response)
}

// mapDomainError converts domain errors to HTTP status codes and responses
func (h *ErrorHandler) mapDomainError(err error) (int, ErrorResponse) {
	switch {
	// Authentication
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, ErrorResponse{
			Error: "Invalid credentials",
			Code:  "INVALID_CREDENTIALS",
		}
	case errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized, ErrorResponse{
			Error: "Authentication required",
			Code:  "UNAUTHORIZED",
		}

	// Not Found errors
	case errors.Is(err, apperrors.ErrQueueNotFound):
		return http.StatusNotFound, ErrorResponse{
			Error: "Queue not found",
			Code:  "QUEUE_NOT_FOUND",
		}
	case errors.Is(err, apperrors.ErrQueueTypeNotFound):
		return http.StatusNotFound, ErrorResponse{
			Error: "Queue type not found",
			Code:  "QUEUE_TYPE_NOT_FOUND",
		}
	case errors.Is(err, apperrors.ErrTicketNotFound):
		return http.StatusNotFound, ErrorResponse{
			Error: "Ticket not found",
			Code:  "TICKET_NOT_FOUND",
		}
	case errors.Is(err, apperrors.ErrServicePointNotFound):
		return http.StatusNotFound, ErrorResponse{
			Error: "Service point not found",
			Code:  "SERVICE_POINT_NOT_FOUND",
		}
	case errors.Is(err, apperrors.ErrAgentNotFound):
		return http.StatusNotFound, ErrorResponse{
			Error: "Agent not found",
			Code:  "AGENT_NOT_FOUND",
		}

	// An empty queue is an expected outcome of call-next, not a fault,
	// so it gets its own code rather than the generic not-found.
	case errors.Is(err, apperrors.ErrNoWaitingTickets):
		return http.StatusNotFound, ErrorResponse{
			Error: "No waiting tickets in the assigned queues",
			Code:  "NO_WAITING_TICKETS",
		}

	// Conflict errors
	case errors.Is(err, apperrors.ErrAgentExists):
		return http.StatusConflict, ErrorResponse{
			Error: "An agent with this email already exists",
			Code:  "AGENT_EXISTS",
		}
	case errors.Is(err, apperrors.ErrServicePointNotAvailable):
		return http.StatusConflict, ErrorResponse{
			Error: "Service point is not available",
			Code:  "SERVICE_POINT_NOT_AVAILABLE",
		}
	case errors.Is(err, apperrors.ErrServicePointBusy):
		return http.StatusConflict, ErrorResponse{
			Error: "Service point is serving a ticket",
			Code:  "SERVICE_POINT_BUSY",
		}
	case errors.Is(err, apperrors.ErrIllegalTransition):
		return http.StatusConflict, ErrorResponse{
			Error: "Illegal ticket status transition",
			Code:  "ILLEGAL_TRANSITION",
		}
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict, ErrorResponse{
			Error: "The resource was modified concurrently, retry the request",
			Code:  "CONFLICT",
		}

	// Queue state violations
	case errors.Is(err, apperrors.ErrQueueNotActive):
		return http.StatusUnprocessableEntity, ErrorResponse{
			Error: "Queue is not accepting tickets",
			Code:  "QUEUE_NOT_ACTIVE",
		}
	case errors.Is(err, apperrors.ErrQueueFull):
		return http.StatusUnprocessableEntity, ErrorResponse{
			Error: "Queue is at maximum capacity",
			Code:  "QUEUE_FULL",
		}
	case errors.Is(err, apperrors.ErrTicketNotWaiting):
		return http.StatusUnprocessableEntity, ErrorResponse{
			Error: "Ticket is not waiting",
			Code:  "TICKET_NOT_WAITING",
		}

	// Validation errors
	case errors.Is(err, apperrors.ErrMissingVehicleInfo),
		errors.Is(err, apperrors.ErrMissingIdentification),
		errors.Is(err, apperrors.ErrInvalidStatus),
		errors.Is(err, apperrors.ErrEmailRequired),
		errors.Is(err, apperrors.ErrEmailInvalid),
		errors.Is(err, apperrors.ErrPasswordTooWeak),
		errors.Is(err, apperrors.ErrFullNameRequired),
		errors.Is(err, apperrors.ErrBadRequest):
		return http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  "VALIDATION_ERROR",
		}

	// Rate limiting
	case errors.Is(err, apperrors.ErrRateLimited):
		return http.StatusTooManyRequests, ErrorResponse{
			Error: "Too many requests. Please try again later.",
			Code:  "RATE_LIMITED",
		}

	// Default to internal server error
	default:
		return http.StatusInternalServerError, ErrorResponse{
			Error: "An unexpected error occurred",
			Code:  "INTERNAL_ERROR",
		}
	}
}

// logError logs the error with appropriate context
func (h *ErrorHandler) logError(r *http.Request, statusCode int, err error, requestID string) {
	logAttrs := []any{
		"request_id", requestID,
		"method", r.Method,
		"path", r.URL.Path,
		"status_code", statusCode,
		"error", err.Error(),
	}

	switch {
	case statusCode >= 500:
		h.logger.Error("server error", logAttrs...)
	case statusCode >= 400:
		h.logger.Warn("client error", logAttrs...)
	default:
		h.logger.Info("request error", logAttrs...)
	}
}

// writeErrorResponse writes a JSON error response
func (h *ErrorHandler) writeErrorResponse(w http.ResponseWriter, statusCode int, response ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

// writeValidationErrorResponse writes a validation error response
func (h *ErrorHandler) writeValidationErrorResponse(w http.ResponseWriter, errs *apperrors.ValidationErrors) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	_ = json.NewEncoder(w).Encode(ValidationErrorResponse{
		Error:  "Validation failed",
		Code:   "VALIDATION_ERROR",
		Fields: errs.Errors,
	})
}
