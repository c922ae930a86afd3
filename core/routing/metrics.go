package routing

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ackLatency         *prometheus.HistogramVec
	assignmentsCreated prometheus.Counter
	assignmentsClosed  *prometheus.CounterVec
	reassignmentsTotal *prometheus.CounterVec
	escalationsTotal   prometheus.Counter
	sweepReclaimed     prometheus.Counter
	notifySuccess      prometheus.Counter
	notifyFailure      prometheus.Counter
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.HistogramVec, prometheus.Counter, *prometheus.CounterVec, *prometheus.CounterVec, prometheus.Counter, prometheus.Counter, prometheus.Counter, prometheus.Counter) {
	lat := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "routing_ack_latency_seconds",
			Help:    "Latency between vendor notification and acknowledgement",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"decision"},
	)
	created := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "routing_assignments_created_total",
			Help: "Number of pending assignments created",
		},
	)
	closed := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routing_assignments_closed_total",
			Help: "Number of assignments resolved, by terminal status",
		},
		[]string{"status"},
	)
	reasn := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routing_reassignments_total",
			Help: "Number of reassignments triggered, by failure reason",
		},
		[]string{"reason"},
	)
	esc := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "routing_escalations_total",
			Help: "Number of orders escalated for manual handling",
		},
	)
	swept := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "routing_sweep_reclaimed_total",
			Help: "Number of expired assignments reclaimed by the timeout sweep",
		},
	)
	suc := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "routing_notify_success_total",
			Help: "Number of successful notification deliveries",
		},
	)
	fail := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "routing_notify_failure_total",
			Help: "Number of failed notification deliveries",
		},
	)
	return lat, created, closed, reasn, esc, swept, suc, fail
}

func init() {
	ackLatency, assignmentsCreated, assignmentsClosed, reassignmentsTotal, escalationsTotal, sweepReclaimed, notifySuccess, notifyFailure = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers routing metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(ackLatency, assignmentsCreated, assignmentsClosed, reassignmentsTotal, escalationsTotal, sweepReclaimed, notifySuccess, notifyFailure)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	ackLatency, assignmentsCreated, assignmentsClosed, reassignmentsTotal, escalationsTotal, sweepReclaimed, notifySuccess, notifyFailure = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
