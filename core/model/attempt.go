package model

import (
	"time"

	"github.com/google/uuid"
)

// RoutingAttempt is the immutable audit record of one scoring and ranking
// pass. A new attempt is a new row, never an edit of a previous one.
type RoutingAttempt struct {
	ID            uuid.UUID         `json:"id"`
	OrderID       string            `json:"order_id"`
	AttemptNumber int               `json:"attempt_number"` // 1-based
	Items         []OrderItem       `json:"items"`
	Candidates    []ScoredCandidate `json:"candidates"` // full ranked list at decision time

	SelectedVendorID string `json:"selected_vendor_id"`
	FallbackVendorID string `json:"fallback_vendor_id,omitempty"` // rank 2, if any
	SelectionReason  string `json:"selection_reason"`
	IsFinalAttempt   bool   `json:"is_final_attempt"`

	CreatedAt time.Time `json:"created_at"`
}
