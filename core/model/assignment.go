package model

import (
	"time"

	"github.com/google/uuid"
)

// AssignmentStatus tracks the lifecycle of a vendor assignment.
type AssignmentStatus string

const (
	StatusPending    AssignmentStatus = "PENDING"
	StatusAccepted   AssignmentStatus = "ACCEPTED"
	StatusRejected   AssignmentStatus = "REJECTED"
	StatusExpired    AssignmentStatus = "EXPIRED"
	StatusSuperseded AssignmentStatus = "SUPERSEDED"
	StatusCancelled  AssignmentStatus = "CANCELLED"
)

// Terminal reports whether the status ends the assignment's lifecycle.
// Every transition out of PENDING is terminal; a retry creates a new row.
func (s AssignmentStatus) Terminal() bool { return s != StatusPending }

// FailureReason explains why an assignment needs a new routing attempt.
type FailureReason string

const (
	ReasonRejected FailureReason = "REJECTED"
	ReasonExpired  FailureReason = "EXPIRED"
)

// Decision is an explicit vendor response to a pending assignment.
type Decision string

const (
	DecisionAccept Decision = "ACCEPT"
	DecisionReject Decision = "REJECT"
)

// Assignment records that a specific vendor is (or was) responsible for
// fulfilling an order. At most one assignment per order may be PENDING at any
// time; the store enforces this by superseding stale pending rows atomically
// with the creation of a replacement.
type Assignment struct {
	ID            uuid.UUID        `json:"id"`
	OrderID       string           `json:"order_id"`
	VendorID      string           `json:"vendor_id"`
	AttemptID     uuid.UUID        `json:"attempt_id"`
	AttemptNumber int              `json:"attempt_number"` // 1-based, strictly increasing per order
	Status        AssignmentStatus `json:"status"`

	NotifiedAt       time.Time  `json:"notified_at"`
	ResponseDeadline time.Time  `json:"response_deadline"`
	RespondedAt      *time.Time `json:"responded_at,omitempty"` // set on ACCEPT/REJECT only
}

// ResponseLatency returns the time between notification and the vendor's
// explicit response, or zero if the vendor never responded.
func (a Assignment) ResponseLatency() time.Duration {
	if a.RespondedAt == nil {
		return 0
	}
	return a.RespondedAt.Sub(a.NotifiedAt)
}
