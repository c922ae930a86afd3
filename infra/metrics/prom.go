package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/o2v/core/metrics"
)

// PromSink records routing outcomes in Prometheus metrics.
type PromSink struct {
	outcomes    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	escalations *prometheus.CounterVec
}

// NewPromSink registers routing metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(cfg coremetrics.Config, reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "routing_outcomes_total",
		Help: "Total number of assignment outcomes by vendor and status",
	}, []string{"vendor_id", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "routing_vendor_ack_seconds",
		Help:    "Time between vendor notification and acknowledgement",
		Buckets: prometheus.DefBuckets,
	}, []string{"vendor_id", "decision", "acknowledged"})
	escalations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "routing_escalated_orders_total",
		Help: "Number of orders escalated for manual handling, by reason",
	}, []string{"reason"})

	if err := reg.Register(outcomes); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			outcomes = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(latency); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			latency = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(escalations); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			escalations = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}

	return &PromSink{outcomes: outcomes, latency: latency, escalations: escalations}, nil
}

// RecordRoutingResult increments the outcome counter for each result.
func (s *PromSink) RecordRoutingResult(res []coremetrics.RoutingResult) error {
	for _, r := range res {
		s.outcomes.WithLabelValues(r.VendorID, string(r.Status)).Inc()
	}
	return nil
}

// RecordAckLatency records the acknowledgement latency histogram.
func (s *PromSink) RecordAckLatency(recs []coremetrics.AckLatency) error {
	for _, r := range recs {
		s.latency.WithLabelValues(r.VendorID, string(r.Decision), strconv.FormatBool(r.Acknowledged)).Observe(r.Latency.Seconds())
	}
	return nil
}

// RecordEscalation increments the escalation counter.
func (s *PromSink) RecordEscalation(orderID, reason string) error {
	_ = orderID
	s.escalations.WithLabelValues(reason).Inc()
	return nil
}
