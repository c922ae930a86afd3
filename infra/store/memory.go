package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/o2v/core/model"
	"github.com/kilianp07/o2v/core/routing"
)

// MemoryStore is an in-memory routing.Store used in tests and standalone
// runs. It honours the same conditional-update contract as the SQLite store.
type MemoryStore struct {
	mu          sync.Mutex
	assignments map[uuid.UUID]model.Assignment
	attempts    map[uuid.UUID]model.RoutingAttempt
	order       []uuid.UUID // assignment ids in creation order
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		assignments: make(map[uuid.UUID]model.Assignment),
		attempts:    make(map[uuid.UUID]model.RoutingAttempt),
	}
}

func (s *MemoryStore) CreateAttempt(ctx context.Context, attempt *model.RoutingAttempt, asg *model.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, a := range s.assignments {
		if a.OrderID == asg.OrderID && a.Status == model.StatusPending {
			a.Status = model.StatusSuperseded
			s.assignments[id] = a
		}
	}
	s.attempts[attempt.ID] = *attempt
	s.assignments[asg.ID] = *asg
	s.order = append(s.order, asg.ID)
	return nil
}

func (s *MemoryStore) Transition(ctx context.Context, id uuid.UUID, to model.AssignmentStatus, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assignments[id]
	if !ok || a.Status != model.StatusPending {
		return false, nil
	}
	a.Status = to
	if to == model.StatusAccepted || to == model.StatusRejected {
		t := at
		a.RespondedAt = &t
	}
	s.assignments[id] = a
	return true, nil
}

func (s *MemoryStore) Assignment(ctx context.Context, id uuid.UUID) (*model.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assignments[id]
	if !ok {
		return nil, routing.ErrNotFound
	}
	cp := a
	return &cp, nil
}

func (s *MemoryStore) Attempt(ctx context.Context, id uuid.UUID) (*model.RoutingAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	att, ok := s.attempts[id]
	if !ok {
		return nil, routing.ErrNotFound
	}
	cp := att
	return &cp, nil
}

func (s *MemoryStore) PendingByOrder(ctx context.Context, orderID string) (*model.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.order {
		a := s.assignments[id]
		if a.OrderID == orderID && a.Status == model.StatusPending {
			cp := a
			return &cp, nil
		}
	}
	return nil, routing.ErrNotFound
}

func (s *MemoryStore) PendingForVendor(ctx context.Context, orderID, vendorID string) (*model.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.order {
		a := s.assignments[id]
		if a.OrderID == orderID && a.VendorID == vendorID && a.Status == model.StatusPending {
			cp := a
			return &cp, nil
		}
	}
	return nil, routing.ErrNotFound
}

func (s *MemoryStore) ExpiredPending(ctx context.Context, now time.Time) ([]model.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []model.Assignment
	for _, id := range s.order {
		a := s.assignments[id]
		if a.Status == model.StatusPending && !a.ResponseDeadline.After(now) {
			res = append(res, a)
		}
	}
	return res, nil
}

func (s *MemoryStore) TriedVendors(ctx context.Context, orderID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]struct{})
	var res []string
	for _, id := range s.order {
		a := s.assignments[id]
		if a.OrderID != orderID || a.Status == model.StatusSuperseded {
			continue
		}
		if _, ok := seen[a.VendorID]; ok {
			continue
		}
		seen[a.VendorID] = struct{}{}
		res = append(res, a.VendorID)
	}
	return res, nil
}

func (s *MemoryStore) Close() error { return nil }
