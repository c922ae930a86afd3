package metrics

import coremetrics "github.com/kilianp07/o2v/core/metrics"

// MultiSink fans routing results out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordRoutingResult forwards the records to all sinks, returning the first error encountered.
func (m *MultiSink) RecordRoutingResult(res []coremetrics.RoutingResult) error {
	for _, s := range m.Sinks {
		if err := s.RecordRoutingResult(res); err != nil {
			return err
		}
	}
	return nil
}

// RecordAckLatency forwards latency records to sinks that support them.
func (m *MultiSink) RecordAckLatency(recs []coremetrics.AckLatency) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.LatencyRecorder); ok {
			if err := rec.RecordAckLatency(recs); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordEscalation forwards escalations to sinks that support them.
func (m *MultiSink) RecordEscalation(orderID, reason string) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.EscalationRecorder); ok {
			if err := rec.RecordEscalation(orderID, reason); err != nil {
				return err
			}
		}
	}
	return nil
}
