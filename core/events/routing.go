package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/o2v/core/model"
)

// AssignmentEvent is published when a new pending assignment is created.
type AssignmentEvent struct {
	OrderID       string
	VendorID      string
	AssignmentID  uuid.UUID
	AttemptNumber int
	Deadline      time.Time
}

// AckEvent is published for each vendor acknowledgement processed.
type AckEvent struct {
	OrderID  string
	VendorID string
	Decision model.Decision
	Stale    bool
	Latency  time.Duration
}

// ReassignmentEvent is emitted when a failed assignment triggers a new
// routing attempt.
type ReassignmentEvent struct {
	OrderID       string
	FailedVendor  string
	NextVendor    string
	Reason        model.FailureReason
	AttemptNumber int
	Final         bool
}

// EscalationEvent is emitted when routing gives up on automatic assignment.
type EscalationEvent struct {
	OrderID string
	Reason  string
	Impact  model.CustomerImpact
}

// SweepEvent summarises one timeout sweep.
type SweepEvent struct {
	Reclaimed int
	At        time.Time
}
