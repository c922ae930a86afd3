package model

import "time"

// DelayType categorises a delay audit record.
type DelayType string

const (
	DelayReassignment DelayType = "REASSIGNMENT"
	DelayEscalation   DelayType = "ESCALATION"
)

// CustomerImpact grades how badly the customer is affected by a delay.
type CustomerImpact string

const (
	ImpactLow      CustomerImpact = "LOW"
	ImpactMedium   CustomerImpact = "MEDIUM"
	ImpactHigh     CustomerImpact = "HIGH"
	ImpactCritical CustomerImpact = "CRITICAL"
)

// ImpactForFailures classifies customer impact by the number of attempts that
// have already failed for the order.
func ImpactForFailures(failed int) CustomerImpact {
	switch {
	case failed <= 0:
		return ImpactLow
	case failed == 1:
		return ImpactMedium
	case failed == 2:
		return ImpactHigh
	default:
		return ImpactCritical
	}
}

// DelayRecord is an append-only audit entry written whenever routing falls
// back to another vendor or escalates to manual handling. Records are never
// updated.
type DelayRecord struct {
	OrderID          string         `json:"order_id"`
	Type             DelayType      `json:"type"`
	AttemptNumber    int            `json:"attempt_number"`
	OriginalVendorID string         `json:"original_vendor_id"`
	NextVendorID     string         `json:"next_vendor_id,omitempty"`
	CustomerImpact   CustomerImpact `json:"customer_impact"`
	IsCritical       bool           `json:"is_critical"`
	Reason           string         `json:"reason"`
	CreatedAt        time.Time      `json:"created_at"`
}
