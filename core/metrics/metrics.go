package metrics

import (
	"time"

	"github.com/kilianp07/o2v/core/model"
)

// RoutingResult is a single assignment outcome reported to metric sinks.
type RoutingResult struct {
	OrderID       string
	VendorID      string
	AttemptNumber int
	Status        model.AssignmentStatus
	Score         float64
	RoutedAt      time.Time
}

// AckLatency measures the time between vendor notification and response.
type AckLatency struct {
	OrderID      string
	VendorID     string
	Decision     model.Decision
	Acknowledged bool
	Latency      time.Duration
}

// MetricsSink persists routing outcomes to a metrics backend.
type MetricsSink interface {
	RecordRoutingResult(results []RoutingResult) error
}

// LatencyRecorder is optionally implemented by sinks that can record
// acknowledgement latencies.
type LatencyRecorder interface {
	RecordAckLatency(recs []AckLatency) error
}

// EscalationRecorder is optionally implemented by sinks that track
// escalations separately from per-assignment outcomes.
type EscalationRecorder interface {
	RecordEscalation(orderID, reason string) error
}

// NopSink discards every record.
type NopSink struct{}

func (NopSink) RecordRoutingResult([]RoutingResult) error { return nil }
func (NopSink) RecordAckLatency([]AckLatency) error       { return nil }
func (NopSink) RecordEscalation(string, string) error     { return nil }
