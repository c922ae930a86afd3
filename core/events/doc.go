// Package events defines the routing related events emitted on the event bus.
//
// Available event types:
//   - AssignmentEvent: a new pending assignment was created
//   - AckEvent: vendor acknowledgement result
//   - ReassignmentEvent: a failed assignment triggered a new attempt
//   - EscalationEvent: attempts exhausted or no candidate available
//   - SweepEvent: result of a timeout sweep
package events
