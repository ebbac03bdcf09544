package domain

import (
	"time"

	"github.com/google/uuid"

	apperrors "github.com/smartqueue/smartqueue-backend/internal/core/errors"
)

// ServicePointStatus represents the staffing state of a service point.
type ServicePointStatus string

const (
	PointAvailable ServicePointStatus = "AVAILABLE"
	PointBusy      ServicePointStatus = "BUSY"
	PointOffline   ServicePointStatus = "OFFLINE"
	PointBreak     ServicePointStatus = "BREAK"
)

// ValidServicePointStatus reports whether s is a known service point status.
func ValidServicePointStatus(s ServicePointStatus) bool {
	switch s {
	case PointAvailable, PointBusy, PointOffline, PointBreak:
		return true
	}
	return false
}

// ServicePoint is a staffed resource that serves tickets one at a time.
// Invariant: CurrentTicketID is non-nil iff Status is Busy, and the
// referenced ticket is Called or Serving.
type ServicePoint struct {
	ID                  uuid.UUID
	BranchID            uuid.UUID
	Name                string
	Status              ServicePointStatus
	CurrentTicketID     *uuid.UUID
	AssignedAgentID     *uuid.UUID
	IsVehicleCompatible bool
	CreatedAt           time.Time
	UpdatedAt           *time.Time
}

// SetStatus moves the point to a staff-selected status. Busy is owned by
// the dispatcher and cannot be entered or left by hand while a ticket is
// held; the holding ticket must reach a terminal status first.
func (p *ServicePoint) SetStatus(status ServicePointStatus) error {
	if !ValidServicePointStatus(status) {
		return apperrors.ErrInvalidStatus
	}
	if status == PointBusy {
		return apperrors.ErrServicePointBusy
	}
	if p.Status == PointBusy && p.CurrentTicketID != nil {
		return apperrors.ErrServicePointBusy
	}
	p.Status = status
	return nil
}

// Claim marks the point busy with the given ticket.
func (p *ServicePoint) Claim(ticketID uuid.UUID) error {
	if p.Status != PointAvailable {
		return apperrors.ErrServicePointNotAvailable
	}
	p.Status = PointBusy
	p.CurrentTicketID = &ticketID
	return nil
}

// Release frees the point after its ticket leaves service. Releasing an
// already-available point is a no-op.
func (p *ServicePoint) Release() {
	p.Status = PointAvailable
	p.CurrentTicketID = nil
}
