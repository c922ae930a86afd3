package routing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/o2v/core/events"
	"github.com/kilianp07/o2v/core/logger"
	"github.com/kilianp07/o2v/core/metrics"
	"github.com/kilianp07/o2v/core/model"
	"github.com/kilianp07/o2v/core/routing/audit"
	"github.com/kilianp07/o2v/core/scoring"
	"github.com/kilianp07/o2v/internal/eventbus"
)

// AckResult is the outcome of processing a vendor acknowledgement.
type AckResult string

const (
	// AckAccepted means the vendor accepted and now owns the order.
	AckAccepted AckResult = "ACCEPTED"
	// AckRejected means the vendor rejected; reassignment already ran.
	AckRejected AckResult = "REJECTED"
	// AckStale means no pending assignment matched: the response arrived
	// after expiry, supersession or cancellation and was ignored.
	AckStale AckResult = "STALE"
)

// AckOutcome reports what an acknowledgement did.
type AckOutcome struct {
	Result AckResult
	// NextVendorID is set when a rejection triggered a new assignment.
	NextVendorID string
}

// CancelResult is the outcome of a cancel-routing request.
type CancelResult string

const (
	// CancelDone means the pending assignment was cancelled and no further
	// reassignment will happen.
	CancelDone CancelResult = "CANCELLED"
	// CancelNoPending means nothing was pending for the order.
	CancelNoPending CancelResult = "NO_PENDING"
)

// Engine orchestrates vendor assignment for orders: scoring and ranking the
// candidate pool, creating pending assignments, reacting to acknowledgements,
// reclaiming expired assignments and applying the reassignment policy.
type Engine struct {
	store    Store
	catalog  CandidateSource
	notifier Notifier
	orders   OrderService
	stats    VendorStats
	scorer   *scoring.Scorer
	cfg      Config
	sink     metrics.MetricsSink
	bus      eventbus.EventBus
	delays   audit.DelayLog
	logger   logger.Logger
	now      func() time.Time
}

// New creates an engine. store, catalog, notifier, orders, scorer and log are
// required; stats, sink, bus and delays may be nil.
func New(store Store, catalog CandidateSource, notifier Notifier, orders OrderService, stats VendorStats, scorer *scoring.Scorer, cfg Config, sink metrics.MetricsSink, bus eventbus.EventBus, delays audit.DelayLog, log logger.Logger) (*Engine, error) {
	if store == nil || catalog == nil || notifier == nil || orders == nil || scorer == nil || log == nil {
		return nil, fmt.Errorf("routing: nil parameter provided to New")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		store:    store,
		catalog:  catalog,
		notifier: notifier,
		orders:   orders,
		stats:    stats,
		scorer:   scorer,
		cfg:      cfg,
		sink:     sink,
		bus:      bus,
		delays:   delays,
		logger:   log,
		now:      time.Now,
	}, nil
}

// SetNow overrides the engine clock. Intended for tests.
func (e *Engine) SetNow(now func() time.Time) {
	if now != nil {
		e.now = now
	}
}

// Config returns the validated engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// Close releases resources held by the engine.
func (e *Engine) Close() error {
	if e.bus != nil {
		e.bus.Close()
	}
	if e.delays != nil {
		if err := e.delays.Close(); err != nil {
			return err
		}
	}
	return e.store.Close()
}

// RouteOrder scores and ranks the candidate pool and creates the first
// pending assignment for the order. An empty or fully filtered pool escalates
// immediately with no assignment created and returns ErrNoCandidates.
func (e *Engine) RouteOrder(ctx context.Context, orderID string, items []model.OrderItem, pool []model.Candidate) (*model.RoutingAttempt, error) {
	if orderID == "" {
		return nil, fmt.Errorf("%w: order id is required", ErrValidation)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: order %s has no items", ErrValidation, orderID)
	}

	ranked := e.scorer.Rank(e.scorer.FilterByReliability(pool, false))
	if len(ranked) == 0 {
		e.logger.Warnf("order %s: no eligible vendor in initial pool of %d", orderID, len(pool))
		e.escalate(ctx, orderID, 1, "", "NO_VENDOR_AVAILABLE")
		return nil, ErrNoCandidates
	}
	attempt, err := e.openAttempt(ctx, orderID, items, ranked, 1)
	if err != nil {
		return nil, err
	}
	return attempt, nil
}

// Acknowledge processes an explicit vendor accept or reject for its pending
// assignment. Responses without a matching pending row are stale and ignored.
func (e *Engine) Acknowledge(ctx context.Context, orderID, vendorID string, decision model.Decision, reason string) (AckOutcome, error) {
	if orderID == "" || vendorID == "" {
		return AckOutcome{}, fmt.Errorf("%w: order id and vendor id are required", ErrValidation)
	}
	if decision != model.DecisionAccept && decision != model.DecisionReject {
		return AckOutcome{}, fmt.Errorf("%w: unknown decision %q", ErrValidation, decision)
	}

	asg, err := e.store.PendingForVendor(ctx, orderID, vendorID)
	if errors.Is(err, ErrNotFound) {
		e.logger.Infof("order %s: stale %s from vendor %s ignored", orderID, decision, vendorID)
		e.publish(events.AckEvent{OrderID: orderID, VendorID: vendorID, Decision: decision, Stale: true})
		return AckOutcome{Result: AckStale}, nil
	}
	if err != nil {
		return AckOutcome{}, err
	}

	now := e.now()
	to := model.StatusAccepted
	if decision == model.DecisionReject {
		to = model.StatusRejected
	}
	won, err := e.store.Transition(ctx, asg.ID, to, now)
	if err != nil {
		return AckOutcome{}, err
	}
	if !won {
		// Sweep or cancellation beat this response to the row.
		e.logger.Infof("order %s: vendor %s responded after resolution, ignoring", orderID, vendorID)
		e.publish(events.AckEvent{OrderID: orderID, VendorID: vendorID, Decision: decision, Stale: true})
		return AckOutcome{Result: AckStale}, nil
	}

	asg.Status = to
	asg.RespondedAt = &now
	latency := asg.ResponseLatency()
	assignmentsClosed.WithLabelValues(string(to)).Inc()
	ackLatency.WithLabelValues(string(decision)).Observe(latency.Seconds())
	e.publish(events.AckEvent{OrderID: orderID, VendorID: vendorID, Decision: decision, Latency: latency})
	e.recordResult(*asg)
	e.recordLatency(metrics.AckLatency{
		OrderID:      orderID,
		VendorID:     vendorID,
		Decision:     decision,
		Acknowledged: decision == model.DecisionAccept,
		Latency:      latency,
	})
	if e.stats != nil {
		if err := e.stats.RecordResponse(ctx, vendorID, decision == model.DecisionAccept, latency); err != nil {
			e.logger.Errorf("order %s: vendor stats update failed for %s: %v", orderID, vendorID, err)
		}
	}

	if decision == model.DecisionAccept {
		e.logger.Infof("order %s: vendor %s accepted attempt %d in %s", orderID, vendorID, asg.AttemptNumber, latency)
		if err := e.orders.AdvanceState(ctx, orderID, OrderStateVendorConfirmed); err != nil {
			e.logger.Errorf("order %s: advancing order state failed: %v", orderID, err)
		}
		return AckOutcome{Result: AckAccepted}, nil
	}

	e.logger.Warnf("order %s: vendor %s rejected attempt %d: %s", orderID, vendorID, asg.AttemptNumber, reason)
	next, err := e.reassign(ctx, *asg, model.ReasonRejected)
	if err != nil {
		return AckOutcome{Result: AckRejected}, err
	}
	out := AckOutcome{Result: AckRejected}
	if next != nil {
		out.NextVendorID = next.SelectedVendorID
	}
	return out, nil
}

// ReclaimExpired transitions every pending assignment whose deadline has
// passed to EXPIRED and runs the reassignment policy for each row it actually
// won. It is safe to invoke from any number of concurrent sweep workers: the
// per-row compare-and-swap guarantees each expiry is processed exactly once,
// and an immediate second sweep wins nothing.
func (e *Engine) ReclaimExpired(ctx context.Context) ([]uuid.UUID, error) {
	now := e.now()
	expired, err := e.store.ExpiredPending(ctx, now)
	if err != nil {
		return nil, err
	}

	var (
		won     []uuid.UUID
		reasErr error
	)
	for _, asg := range expired {
		ok, err := e.store.Transition(ctx, asg.ID, model.StatusExpired, now)
		if err != nil {
			reasErr = errors.Join(reasErr, err)
			continue
		}
		if !ok {
			continue
		}
		asg.Status = model.StatusExpired
		won = append(won, asg.ID)
		sweepReclaimed.Inc()
		assignmentsClosed.WithLabelValues(string(model.StatusExpired)).Inc()
		e.logger.Warnf("order %s: vendor %s did not respond before %s, attempt %d expired",
			asg.OrderID, asg.VendorID, asg.ResponseDeadline.Format(time.RFC3339), asg.AttemptNumber)
		e.recordResult(asg)
		if _, err := e.reassign(ctx, asg, model.ReasonExpired); err != nil {
			reasErr = errors.Join(reasErr, err)
		}
	}
	e.publish(events.SweepEvent{Reclaimed: len(won), At: now})
	return won, reasErr
}

// CancelRouting resolves the order's pending assignment to CANCELLED and
// suppresses any further reassignment. Used when the order itself is
// cancelled while routing is still in flight.
func (e *Engine) CancelRouting(ctx context.Context, orderID string) (CancelResult, error) {
	if orderID == "" {
		return "", fmt.Errorf("%w: order id is required", ErrValidation)
	}
	asg, err := e.store.PendingByOrder(ctx, orderID)
	if errors.Is(err, ErrNotFound) {
		return CancelNoPending, nil
	}
	if err != nil {
		return "", err
	}
	won, err := e.store.Transition(ctx, asg.ID, model.StatusCancelled, e.now())
	if err != nil {
		return "", err
	}
	if !won {
		return CancelNoPending, nil
	}
	assignmentsClosed.WithLabelValues(string(model.StatusCancelled)).Inc()
	e.logger.Infof("order %s: routing cancelled while attempt %d was pending with vendor %s",
		orderID, asg.AttemptNumber, asg.VendorID)
	asg.Status = model.StatusCancelled
	e.recordResult(*asg)
	return CancelDone, nil
}

// openAttempt persists a routing attempt with its pending assignment for the
// top-ranked candidate and notifies the vendor.
func (e *Engine) openAttempt(ctx context.Context, orderID string, items []model.OrderItem, ranked []model.ScoredCandidate, attemptNumber int) (*model.RoutingAttempt, error) {
	now := e.now()
	selected := ranked[0]
	attempt := &model.RoutingAttempt{
		ID:               uuid.New(),
		OrderID:          orderID,
		AttemptNumber:    attemptNumber,
		Items:            items,
		Candidates:       ranked,
		SelectedVendorID: selected.VendorID,
		SelectionReason:  scoring.Explain(selected),
		IsFinalAttempt:   attemptNumber >= e.cfg.MaxAttempts,
		CreatedAt:        now,
	}
	if len(ranked) > 1 {
		attempt.FallbackVendorID = ranked[1].VendorID
	}
	asg := &model.Assignment{
		ID:               uuid.New(),
		OrderID:          orderID,
		VendorID:         selected.VendorID,
		AttemptID:        attempt.ID,
		AttemptNumber:    attemptNumber,
		Status:           model.StatusPending,
		NotifiedAt:       now,
		ResponseDeadline: now.Add(e.cfg.ResponseTimeout()),
	}
	if err := e.store.CreateAttempt(ctx, attempt, asg); err != nil {
		return nil, fmt.Errorf("routing: persisting attempt %d for order %s: %w", attemptNumber, orderID, err)
	}

	assignmentsCreated.Inc()
	e.logger.Infof("order %s: attempt %d assigned to vendor %s (deadline %s)",
		orderID, attemptNumber, selected.VendorID, asg.ResponseDeadline.Format(time.RFC3339))
	e.publish(events.AssignmentEvent{
		OrderID:       orderID,
		VendorID:      selected.VendorID,
		AssignmentID:  asg.ID,
		AttemptNumber: attemptNumber,
		Deadline:      asg.ResponseDeadline,
	})
	e.recordResult(*asg)
	e.notify(ctx, Notification{
		Kind:          NotifyVendorAssignment,
		OrderID:       orderID,
		VendorID:      selected.VendorID,
		AttemptNumber: attemptNumber,
		Deadline:      asg.ResponseDeadline,
	})
	return attempt, nil
}

// notify delivers a notification and logs failures without propagating them.
func (e *Engine) notify(ctx context.Context, n Notification) {
	if err := e.notifier.Notify(ctx, n); err != nil {
		notifyFailure.Inc()
		e.logger.Errorf("order %s: %s notification failed: %v", n.OrderID, n.Kind, err)
		return
	}
	notifySuccess.Inc()
}

func (e *Engine) publish(ev eventbus.Event) {
	if e.bus != nil {
		e.bus.Publish(ev)
	}
}

func (e *Engine) recordResult(asg model.Assignment) {
	if e.sink == nil {
		return
	}
	err := e.sink.RecordRoutingResult([]metrics.RoutingResult{{
		OrderID:       asg.OrderID,
		VendorID:      asg.VendorID,
		AttemptNumber: asg.AttemptNumber,
		Status:        asg.Status,
		RoutedAt:      asg.NotifiedAt,
	}})
	if err != nil {
		e.logger.Errorf("metrics error: %v", err)
	}
}

func (e *Engine) recordLatency(rec metrics.AckLatency) {
	lr, ok := e.sink.(metrics.LatencyRecorder)
	if !ok {
		return
	}
	if err := lr.RecordAckLatency([]metrics.AckLatency{rec}); err != nil {
		e.logger.Errorf("latency metrics error: %v", err)
	}
}
