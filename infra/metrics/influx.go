package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/o2v/core/metrics"
	"github.com/kilianp07/o2v/infra/logger"
)

// InfluxSink writes routing events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordRoutingResult writes each assignment outcome as a point.
func (s *InfluxSink) RecordRoutingResult(res []coremetrics.RoutingResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, r := range res {
		p := write.NewPointWithMeasurement("routing_event").
			AddTag("order_id", r.OrderID).
			AddTag("vendor_id", r.VendorID).
			AddTag("status", string(r.Status)).
			AddTag("component", "routing_engine").
			AddField("attempt_number", r.AttemptNumber).
			AddField("score", round3(r.Score)).
			SetTime(r.RoutedAt)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// RecordAckLatency writes acknowledgement latencies.
func (s *InfluxSink) RecordAckLatency(recs []coremetrics.AckLatency) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, r := range recs {
		p := write.NewPointWithMeasurement("routing_ack_received").
			AddTag("order_id", r.OrderID).
			AddTag("vendor_id", r.VendorID).
			AddTag("decision", string(r.Decision)).
			AddTag("acknowledged", strconv.FormatBool(r.Acknowledged)).
			AddTag("component", "routing_engine").
			AddField("latency_ms", round3(r.Latency.Seconds()*1000)).
			SetTime(time.Now())
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// RecordEscalation writes an escalation event.
func (s *InfluxSink) RecordEscalation(orderID, reason string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("routing_escalation").
		AddTag("order_id", orderID).
		AddTag("component", "routing_engine").
		AddField("reason", reason).
		SetTime(time.Now())
	return s.writeAPI.WritePoint(ctx, p)
}

// Close shuts down the underlying client.
func (s *InfluxSink) Close() {
	s.client.Close()
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
