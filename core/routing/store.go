package routing

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/o2v/core/model"
)

// Store persists routing attempts and assignments. Implementations must
// provide the conditional-update semantics documented on each method; the
// engine's safety under concurrent acknowledgements and sweeps depends on
// them.
type Store interface {
	// CreateAttempt atomically inserts the attempt together with its PENDING
	// assignment and marks any stale PENDING assignment for the same order
	// SUPERSEDED. The three writes commit or fail as one unit so that at most
	// one assignment per order is ever PENDING.
	CreateAttempt(ctx context.Context, attempt *model.RoutingAttempt, asg *model.Assignment) error

	// Transition performs the compare-and-swap "set status where id matches
	// and status is still PENDING" and reports whether this caller won the
	// row. A false result is not an error: another actor already resolved the
	// assignment and the caller must abandon its action.
	Transition(ctx context.Context, id uuid.UUID, to model.AssignmentStatus, at time.Time) (bool, error)

	// Assignment returns the assignment by id, or ErrNotFound.
	Assignment(ctx context.Context, id uuid.UUID) (*model.Assignment, error)

	// Attempt returns the routing attempt by id, or ErrNotFound.
	Attempt(ctx context.Context, id uuid.UUID) (*model.RoutingAttempt, error)

	// PendingByOrder returns the single PENDING assignment for the order, or
	// ErrNotFound.
	PendingByOrder(ctx context.Context, orderID string) (*model.Assignment, error)

	// PendingForVendor returns the PENDING assignment for the order and
	// vendor pair, or ErrNotFound.
	PendingForVendor(ctx context.Context, orderID, vendorID string) (*model.Assignment, error)

	// ExpiredPending lists assignments still PENDING whose response deadline
	// is at or before now. Callers must still win each row via Transition
	// before acting on it.
	ExpiredPending(ctx context.Context, now time.Time) ([]model.Assignment, error)

	// TriedVendors returns the vendor ids of every non-SUPERSEDED assignment
	// for the order. This is the exclusion set for reassignment.
	TriedVendors(ctx context.Context, orderID string) ([]string, error)

	Close() error
}
