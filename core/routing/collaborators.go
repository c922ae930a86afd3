package routing

import (
	"context"
	"time"

	"github.com/kilianp07/o2v/core/model"
)

// CandidateSource provides fresh candidate pools from the catalog and pricing
// collaborators. The returned pool must not contain excluded vendors; the
// engine filters defensively regardless. With relaxed set, the source should
// apply the relaxed reliability floor so a fallback attempt prefers any
// fulfillment over strict quality.
type CandidateSource interface {
	FetchEligible(ctx context.Context, orderID string, items []model.OrderItem, exclude []string, relaxed bool) ([]model.Candidate, error)
}

// NotificationKind selects the audience and template of a notification.
type NotificationKind string

const (
	NotifyVendorAssignment NotificationKind = "vendor_assignment"
	NotifyAdminRetry       NotificationKind = "admin_retry"
	NotifyAdminEscalation  NotificationKind = "admin_escalation"
)

// Notification is the payload handed to the notification collaborator.
// Delivery is fire-and-forget: a failure is logged and counted but never rolls
// back the state transition that triggered it.
type Notification struct {
	Kind           NotificationKind `json:"kind"`
	OrderID        string           `json:"order_id"`
	VendorID       string           `json:"vendor_id,omitempty"`
	AttemptNumber  int              `json:"attempt_number,omitempty"`
	Deadline       time.Time        `json:"deadline,omitempty"`
	Reason         string           `json:"reason,omitempty"`
	RequiresAction bool             `json:"requires_action,omitempty"`
}

// Notifier delivers notifications to vendors and administrators.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// OrderService is the order-state collaborator.
type OrderService interface {
	// AdvanceState moves the order forward after a vendor accepted.
	AdvanceState(ctx context.Context, orderID, state string) error
	// MarkDelayed flags the order as delayed when routing escalates.
	MarkDelayed(ctx context.Context, orderID string) error
}

// OrderStateVendorConfirmed is the state an order advances to once a vendor
// accepted its assignment.
const OrderStateVendorConfirmed = "VENDOR_CONFIRMED"

// VendorStats is the workload and performance counter collaborator.
type VendorStats interface {
	RecordResponse(ctx context.Context, vendorID string, accepted bool, latency time.Duration) error
}
