package routing

import (
	"context"
	"fmt"

	"github.com/kilianp07/o2v/core/events"
	"github.com/kilianp07/o2v/core/metrics"
	"github.com/kilianp07/o2v/core/model"
)

// reassign applies the reassignment policy to a failed assignment. The failed
// record is carried by value through the whole chain; it is never re-derived
// by a secondary lookup. Returns the new attempt, or nil when the order
// escalated instead.
func (e *Engine) reassign(ctx context.Context, failed model.Assignment, reason model.FailureReason) (*model.RoutingAttempt, error) {
	reassignmentsTotal.WithLabelValues(string(reason)).Inc()

	if failed.AttemptNumber >= e.cfg.MaxAttempts {
		e.logger.Warnf("order %s: final attempt %d failed (%s), escalating", failed.OrderID, failed.AttemptNumber, reason)
		e.escalate(ctx, failed.OrderID, failed.AttemptNumber, failed.VendorID, "MAX_ATTEMPTS_EXHAUSTED")
		return nil, nil
	}

	att, err := e.store.Attempt(ctx, failed.AttemptID)
	if err != nil {
		return nil, fmt.Errorf("routing: loading attempt %s for order %s: %w", failed.AttemptID, failed.OrderID, err)
	}
	excluded, err := e.store.TriedVendors(ctx, failed.OrderID)
	if err != nil {
		return nil, err
	}

	// The reliability floor is relaxed on fallback attempts: once a vendor
	// has failed the order, any fulfillment beats strict quality.
	pool, err := e.catalog.FetchEligible(ctx, failed.OrderID, att.Items, excluded, true)
	if err != nil {
		e.logger.Errorf("order %s: candidate fetch failed: %v", failed.OrderID, err)
		pool = nil
	}
	ranked := e.scorer.Rank(e.scorer.FilterByReliability(excludeVendors(pool, excluded), true))
	if len(ranked) == 0 {
		e.logger.Warnf("order %s: no vendor left after %d attempts, escalating", failed.OrderID, failed.AttemptNumber)
		e.escalate(ctx, failed.OrderID, failed.AttemptNumber, failed.VendorID, "NO_VENDOR_AVAILABLE")
		return nil, nil
	}

	next := failed.AttemptNumber + 1
	attempt, err := e.openAttempt(ctx, failed.OrderID, att.Items, ranked, next)
	if err != nil {
		return nil, err
	}

	impact := model.ImpactForFailures(failed.AttemptNumber)
	e.appendDelay(ctx, model.DelayRecord{
		OrderID:          failed.OrderID,
		Type:             model.DelayReassignment,
		AttemptNumber:    next,
		OriginalVendorID: failed.VendorID,
		NextVendorID:     attempt.SelectedVendorID,
		CustomerImpact:   impact,
		Reason:           fmt.Sprintf("attempt %d %s, reassigned to vendor %s", failed.AttemptNumber, reason, attempt.SelectedVendorID),
		CreatedAt:        e.now(),
	})
	if next >= e.cfg.NotifyAdminAfterAttempts {
		e.notify(ctx, Notification{
			Kind:          NotifyAdminRetry,
			OrderID:       failed.OrderID,
			VendorID:      attempt.SelectedVendorID,
			AttemptNumber: next,
			Reason:        string(reason),
		})
	}
	e.publish(events.ReassignmentEvent{
		OrderID:       failed.OrderID,
		FailedVendor:  failed.VendorID,
		NextVendor:    attempt.SelectedVendorID,
		Reason:        reason,
		AttemptNumber: next,
		Final:         attempt.IsFinalAttempt,
	})
	return attempt, nil
}

// escalate gives up on automatic assignment: the order is marked delayed, a
// critical delay record is appended and an administrator is paged. Escalation
// happens without waiting for any deadline.
func (e *Engine) escalate(ctx context.Context, orderID string, attemptNumber int, lastVendor, reason string) {
	escalationsTotal.Inc()
	e.logger.Errorf("order %s: escalating after attempt %d: %s", orderID, attemptNumber, reason)

	if err := e.orders.MarkDelayed(ctx, orderID); err != nil {
		e.logger.Errorf("order %s: marking order delayed failed: %v", orderID, err)
	}
	e.appendDelay(ctx, model.DelayRecord{
		OrderID:          orderID,
		Type:             model.DelayEscalation,
		AttemptNumber:    attemptNumber,
		OriginalVendorID: lastVendor,
		CustomerImpact:   model.ImpactCritical,
		IsCritical:       true,
		Reason:           reason,
		CreatedAt:        e.now(),
	})
	e.notify(ctx, Notification{
		Kind:           NotifyAdminEscalation,
		OrderID:        orderID,
		AttemptNumber:  attemptNumber,
		Reason:         reason,
		RequiresAction: true,
	})
	e.publish(events.EscalationEvent{OrderID: orderID, Reason: reason, Impact: model.ImpactCritical})
	if er, ok := e.sink.(metrics.EscalationRecorder); ok {
		if err := er.RecordEscalation(orderID, reason); err != nil {
			e.logger.Errorf("escalation metrics error: %v", err)
		}
	}
}

// appendDelay writes the audit record, logging failures without propagating
// them: the trail never blocks or reverses a state transition.
func (e *Engine) appendDelay(ctx context.Context, rec model.DelayRecord) {
	if e.delays == nil {
		return
	}
	if err := e.delays.Append(ctx, rec); err != nil {
		e.logger.Errorf("order %s: delay record append failed: %v", rec.OrderID, err)
	}
}

// excludeVendors drops pool members whose vendor was already tried. The
// catalog is asked to pre-filter, but the exclusion invariant is enforced
// here regardless.
func excludeVendors(pool []model.Candidate, excluded []string) []model.Candidate {
	if len(excluded) == 0 {
		return pool
	}
	skip := make(map[string]struct{}, len(excluded))
	for _, id := range excluded {
		skip[id] = struct{}{}
	}
	res := make([]model.Candidate, 0, len(pool))
	for _, c := range pool {
		if _, tried := skip[c.VendorID]; tried {
			continue
		}
		res = append(res, c)
	}
	return res
}
