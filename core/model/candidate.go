package model

// OrderItem identifies a requested product line on an order.
type OrderItem struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

// Candidate represents a vendor considered for fulfilling an order, with the
// facts needed for scoring. Candidates are supplied by the catalog and pricing
// collaborators and are never persisted by the engine.
type Candidate struct {
	VendorID     string  `json:"vendor_id"`
	AvailableQty int     `json:"available_qty"` // stock available for the requested items
	RequestedQty int     `json:"requested_qty"`
	SameLocality bool    `json:"same_locality"` // vendor serves the requester's locality
	SameRegion   bool    `json:"same_region"`   // vendor serves the broader region
	ActiveOrders int     `json:"active_orders"` // current open workload
	Price        float64 `json:"price"`         // offered price for the requested items

	// Reliability is the 0-100 performance score computed by the reliability
	// collaborator. HasReliability is false when no history exists for the
	// vendor; scoring then falls back to a neutral default.
	Reliability    float64 `json:"reliability"`
	HasReliability bool    `json:"has_reliability"`
}

// ScoredCandidate is a Candidate with its per-dimension scores, the weighted
// overall score and the dense rank assigned by the ranker. It is recomputed on
// every routing attempt and never mutated afterwards.
type ScoredCandidate struct {
	Candidate

	AvailabilityScore float64 `json:"availability_score"`
	ProximityScore    float64 `json:"proximity_score"`
	WorkloadScore     float64 `json:"workload_score"`
	PriceScore        float64 `json:"price_score"`
	ReliabilityScore  float64 `json:"reliability_score"`

	OverallScore float64 `json:"overall_score"`
	Rank         int     `json:"rank"` // 1-based, dense
}
