package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	coremetrics "github.com/kilianp07/o2v/core/metrics"
	"github.com/kilianp07/o2v/core/model"
)

func TestPromSink_RecordRoutingResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	sinkIf, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	sink, ok := sinkIf.(*PromSink)
	if !ok {
		t.Fatalf("expected PromSink")
	}
	rec := coremetrics.RoutingResult{
		OrderID:       "order-1",
		VendorID:      "v1",
		AttemptNumber: 1,
		Status:        model.StatusAccepted,
		RoutedAt:      time.Now(),
	}
	if err := sink.RecordRoutingResult([]coremetrics.RoutingResult{rec}); err != nil {
		t.Fatalf("record error: %v", err)
	}
	if err := sink.RecordAckLatency([]coremetrics.AckLatency{{
		OrderID:      "order-1",
		VendorID:     "v1",
		Decision:     model.DecisionAccept,
		Acknowledged: true,
		Latency:      150 * time.Millisecond,
	}}); err != nil {
		t.Fatalf("latency error: %v", err)
	}

	expected := `
# HELP routing_outcomes_total Total number of assignment outcomes by vendor and status
# TYPE routing_outcomes_total counter
routing_outcomes_total{status="ACCEPTED",vendor_id="v1"} 1
`
	if err := testutil.CollectAndCompare(sink.outcomes, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}

	if c := testutil.CollectAndCount(sink.latency); c == 0 {
		t.Errorf("latency not recorded")
	}

	if err := sink.RecordEscalation("order-1", "NO_VENDOR_AVAILABLE"); err != nil {
		t.Fatalf("escalation error: %v", err)
	}
	expectedEsc := `
# HELP routing_escalated_orders_total Number of orders escalated for manual handling, by reason
# TYPE routing_escalated_orders_total counter
routing_escalated_orders_total{reason="NO_VENDOR_AVAILABLE"} 1
`
	if err := testutil.CollectAndCompare(sink.escalations, strings.NewReader(expectedEsc)); err != nil {
		t.Errorf("unexpected escalation metric: %v", err)
	}
}

func TestPromSink_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg); err != nil {
		t.Fatalf("first sink: %v", err)
	}
	if _, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg); err != nil {
		t.Fatalf("second sink should reuse existing collectors: %v", err)
	}
}
