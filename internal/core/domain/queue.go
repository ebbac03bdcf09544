package domain

import (
	"time"

	"github.com/google/uuid"
)

// QueueCategory classifies what a queue serves.
type QueueCategory string

const (
	CategoryVehicle QueueCategory = "VEHICLE"
	CategoryPerson  QueueCategory = "PERSON"
	CategoryMixed   QueueCategory = "MIXED"
)

// ValidQueueCategory reports whether c is a known category.
func ValidQueueCategory(c QueueCategory) bool {
	switch c {
	case CategoryVehicle, CategoryPerson, CategoryMixed:
		return true
	}
	return false
}

// QueueType is the template a queue is instantiated from: per-customer
// service duration, capacity, and the info a check-in must carry.
type QueueType struct {
	ID                     uuid.UUID
	OrganizationID         uuid.UUID
	BranchID               uuid.UUID
	Name                   string
	Prefix                 string
	Category               QueueCategory
	Description            string
	EstimatedServiceTime   int // minutes per customer
	MaxCapacity            int
	RequiresVehicleInfo    bool
	RequiresIdentification bool
	IsActive               bool
	CreatedAt              time.Time
	UpdatedAt              *time.Time
}

// QueueStatus represents the operational state of a queue.
type QueueStatus string

const (
	QueueActive      QueueStatus = "ACTIVE"
	QueuePaused      QueueStatus = "PAUSED"
	QueueClosed      QueueStatus = "CLOSED"
	QueueMaintenance QueueStatus = "MAINTENANCE"
)

// ValidQueueStatus reports whether s is a known queue status.
func ValidQueueStatus(s QueueStatus) bool {
	switch s {
	case QueueActive, QueuePaused, QueueClosed, QueueMaintenance:
		return true
	}
	return false
}

// Queue is a live instance of a QueueType. CurrentNumber is the per-queue
// ticket counter; the store increments it atomically when a ticket is
// created so display numbers stay unique and monotonic under concurrent
// check-ins.
type Queue struct {
	ID            uuid.UUID
	QueueTypeID   uuid.UUID
	Name          string
	Status        QueueStatus
	CurrentNumber int
	IsPriority    bool
	CreatedAt     time.Time
	UpdatedAt     *time.Time
}

// AcceptsTickets reports whether new tickets may be created on the queue.
func (q *Queue) AcceptsTickets() bool {
	return q.Status == QueueActive
}
