package routing

import "errors"

var (
	// ErrValidation marks malformed input rejected before any state mutation.
	ErrValidation = errors.New("routing: invalid input")

	// ErrNoCandidates is returned when routing escalated because no eligible
	// vendor remained. The escalation side effects have already happened when
	// the caller sees this error.
	ErrNoCandidates = errors.New("routing: no vendor available")

	// ErrNotFound is returned by stores when no matching record exists.
	ErrNotFound = errors.New("routing: record not found")
)
