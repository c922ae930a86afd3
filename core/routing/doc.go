// Package routing implements the core logic for assigning marketplace orders
// to fulfillment vendors.
//
// An order enters with a pool of candidate vendors. The pool is scored and
// ranked (see core/scoring), a pending assignment is created for the top
// candidate and the vendor is notified. The vendor either acknowledges within
// the response window, or the assignment is reclaimed by the timeout sweep.
// Rejections and timeouts feed the reassignment policy, which retries with the
// next best candidate — excluding every vendor already tried for the order —
// until the attempt ceiling is reached, at which point the order escalates to
// manual handling.
//
// Key components:
//   - Engine: orchestrates routing, acknowledgements, sweeps and cancellation.
//   - Store: durable assignment state with atomic conditional transitions.
//   - CandidateSource, Notifier, OrderService, VendorStats: collaborator
//     boundaries; their failures are logged, never rolled back into state.
//
// Concurrency rests entirely on the store's compare-and-swap contract: every
// transition out of PENDING is a conditional update, and whichever actor wins
// the row proceeds while the loser abandons its action. There is no broader
// lock and no process-global sweep flag, so acknowledgement handling and any
// number of concurrent sweep workers are safe without coordination.
package routing
