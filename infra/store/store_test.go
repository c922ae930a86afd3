package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/o2v/core/model"
	"github.com/kilianp07/o2v/core/routing"
)

func backends(t *testing.T) map[string]routing.Store {
	t.Helper()
	sq, err := NewSQLiteStore(filepath.Join(t.TempDir(), "routing.db"))
	if err != nil {
		t.Fatalf("sqlite store: %v", err)
	}
	return map[string]routing.Store{
		"memory": NewMemoryStore(),
		"sqlite": sq,
	}
}

func seed(t *testing.T, s routing.Store, orderID, vendorID string, attemptNumber int, deadline time.Time) *model.Assignment {
	t.Helper()
	attempt := &model.RoutingAttempt{
		ID:               uuid.New(),
		OrderID:          orderID,
		AttemptNumber:    attemptNumber,
		Items:            []model.OrderItem{{SKU: "sku-1", Quantity: 2}},
		SelectedVendorID: vendorID,
		SelectionReason:  "seed",
		CreatedAt:        deadline.Add(-30 * time.Minute),
	}
	asg := &model.Assignment{
		ID:               uuid.New(),
		OrderID:          orderID,
		VendorID:         vendorID,
		AttemptID:        attempt.ID,
		AttemptNumber:    attemptNumber,
		Status:           model.StatusPending,
		NotifiedAt:       attempt.CreatedAt,
		ResponseDeadline: deadline,
	}
	if err := s.CreateAttempt(context.Background(), attempt, asg); err != nil {
		t.Fatalf("create attempt: %v", err)
	}
	return asg
}

func TestCreateAttemptSupersedesPending(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			defer closeStore(t, s)
			deadline := time.Now().Add(30 * time.Minute)
			first := seed(t, s, "order-1", "v1", 1, deadline)
			second := seed(t, s, "order-1", "v2", 2, deadline)

			got, err := s.Assignment(context.Background(), first.ID)
			if err != nil {
				t.Fatalf("first assignment: %v", err)
			}
			if got.Status != model.StatusSuperseded {
				t.Errorf("first status = %s, want SUPERSEDED", got.Status)
			}

			pending, err := s.PendingByOrder(context.Background(), "order-1")
			if err != nil {
				t.Fatalf("pending: %v", err)
			}
			if pending.ID != second.ID {
				t.Errorf("pending id = %s, want %s", pending.ID, second.ID)
			}
		})
	}
}

func TestTransitionCAS(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			defer closeStore(t, s)
			asg := seed(t, s, "order-1", "v1", 1, time.Now().Add(time.Minute))
			now := time.Now()

			won, err := s.Transition(context.Background(), asg.ID, model.StatusAccepted, now)
			if err != nil {
				t.Fatalf("transition: %v", err)
			}
			if !won {
				t.Fatal("first transition should win the row")
			}

			won, err = s.Transition(context.Background(), asg.ID, model.StatusExpired, now)
			if err != nil {
				t.Fatalf("second transition: %v", err)
			}
			if won {
				t.Error("second transition should lose: row is no longer pending")
			}

			got, err := s.Assignment(context.Background(), asg.ID)
			if err != nil {
				t.Fatalf("assignment: %v", err)
			}
			if got.Status != model.StatusAccepted {
				t.Errorf("status = %s, want ACCEPTED", got.Status)
			}
			if got.RespondedAt == nil {
				t.Error("responded_at not set on accept")
			}
		})
	}
}

func TestTransitionExpiredHasNoResponseTime(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			defer closeStore(t, s)
			asg := seed(t, s, "order-1", "v1", 1, time.Now().Add(-time.Minute))
			won, err := s.Transition(context.Background(), asg.ID, model.StatusExpired, time.Now())
			if err != nil || !won {
				t.Fatalf("transition: won=%v err=%v", won, err)
			}
			got, err := s.Assignment(context.Background(), asg.ID)
			if err != nil {
				t.Fatalf("assignment: %v", err)
			}
			if got.RespondedAt != nil {
				t.Error("responded_at set on expiry")
			}
		})
	}
}

func TestExpiredPending(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			defer closeStore(t, s)
			now := time.Now()
			expired := seed(t, s, "order-late", "v1", 1, now.Add(-time.Minute))
			seed(t, s, "order-ontime", "v2", 1, now.Add(time.Hour))

			got, err := s.ExpiredPending(context.Background(), now)
			if err != nil {
				t.Fatalf("expired pending: %v", err)
			}
			if len(got) != 1 || got[0].ID != expired.ID {
				t.Errorf("expired = %+v, want only order-late", got)
			}
		})
	}
}

func TestTriedVendorsSkipsSuperseded(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			defer closeStore(t, s)
			deadline := time.Now().Add(time.Minute)
			first := seed(t, s, "order-1", "v1", 1, deadline)
			if won, err := s.Transition(context.Background(), first.ID, model.StatusRejected, time.Now()); err != nil || !won {
				t.Fatalf("reject: won=%v err=%v", won, err)
			}
			seed(t, s, "order-1", "v2", 2, deadline)
			// v3 supersedes the still-pending v2; superseded rows never count
			// as tried
			seed(t, s, "order-1", "v3", 3, deadline)
			seed(t, s, "other-order", "v9", 1, deadline)

			tried, err := s.TriedVendors(context.Background(), "order-1")
			if err != nil {
				t.Fatalf("tried: %v", err)
			}
			want := map[string]bool{"v1": true, "v3": true}
			if len(tried) != 2 || !want[tried[0]] || !want[tried[1]] {
				t.Errorf("tried = %v, want v1 and v3", tried)
			}
		})
	}
}

func TestAttemptRoundtrip(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			defer closeStore(t, s)
			attempt := &model.RoutingAttempt{
				ID:            uuid.New(),
				OrderID:       "order-1",
				AttemptNumber: 1,
				Items:         []model.OrderItem{{SKU: "sku-9", Quantity: 4}},
				Candidates: []model.ScoredCandidate{{
					Candidate:    model.Candidate{VendorID: "v1", Price: 99.5},
					OverallScore: 87.25,
					Rank:         1,
				}},
				SelectedVendorID: "v1",
				FallbackVendorID: "v2",
				SelectionReason:  "best overall",
				CreatedAt:        time.Now().UTC().Truncate(time.Millisecond),
			}
			asg := &model.Assignment{
				ID:               uuid.New(),
				OrderID:          "order-1",
				VendorID:         "v1",
				AttemptID:        attempt.ID,
				AttemptNumber:    1,
				Status:           model.StatusPending,
				NotifiedAt:       attempt.CreatedAt,
				ResponseDeadline: attempt.CreatedAt.Add(30 * time.Minute),
			}
			if err := s.CreateAttempt(context.Background(), attempt, asg); err != nil {
				t.Fatalf("create: %v", err)
			}
			got, err := s.Attempt(context.Background(), attempt.ID)
			if err != nil {
				t.Fatalf("attempt: %v", err)
			}
			if got.SelectedVendorID != "v1" || got.FallbackVendorID != "v2" {
				t.Errorf("vendors = %s/%s", got.SelectedVendorID, got.FallbackVendorID)
			}
			if len(got.Items) != 1 || got.Items[0].SKU != "sku-9" || got.Items[0].Quantity != 4 {
				t.Errorf("items = %+v", got.Items)
			}
			if len(got.Candidates) != 1 || got.Candidates[0].OverallScore != 87.25 {
				t.Errorf("candidates = %+v", got.Candidates)
			}
		})
	}
}

func TestNotFound(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			defer closeStore(t, s)
			if _, err := s.Assignment(context.Background(), uuid.New()); !errors.Is(err, routing.ErrNotFound) {
				t.Errorf("assignment: %v", err)
			}
			if _, err := s.Attempt(context.Background(), uuid.New()); !errors.Is(err, routing.ErrNotFound) {
				t.Errorf("attempt: %v", err)
			}
			if _, err := s.PendingByOrder(context.Background(), "missing"); !errors.Is(err, routing.ErrNotFound) {
				t.Errorf("pending by order: %v", err)
			}
			if _, err := s.PendingForVendor(context.Background(), "missing", "v1"); !errors.Is(err, routing.ErrNotFound) {
				t.Errorf("pending for vendor: %v", err)
			}
		})
	}
}

func TestSQLiteSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routing.db")
	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	asg := seed(t, s, "order-1", "v1", 1, time.Now().Add(time.Minute))
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s, err = NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer closeStore(t, s)
	got, err := s.Assignment(context.Background(), asg.ID)
	if err != nil {
		t.Fatalf("assignment after reopen: %v", err)
	}
	if got.VendorID != "v1" || got.Status != model.StatusPending {
		t.Errorf("assignment = %+v", got)
	}
}

func closeStore(t *testing.T, s routing.Store) {
	t.Helper()
	if err := s.Close(); err != nil {
		t.Errorf("close store: %v", err)
	}
}
