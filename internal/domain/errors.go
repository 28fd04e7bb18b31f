package domain

import "errors"

// Sentinel errors forming the engine's error taxonomy. Handlers map
// these onto HTTP status codes; everything else is an internal error.
var (
	// ErrInvalidPageSize rejects a zero or negative page/batch size
	// before any I/O happens.
	ErrInvalidPageSize = errors.New("page size must be positive")

	// ErrInvalidCursor rejects a cursor token that does not decode.
	// Stale-but-well-formed cursors are not an error; they restart from
	// the head of the current batch.
	ErrInvalidCursor = errors.New("malformed cursor")

	// ErrAllSourcesFailed is surfaced when composition produced nothing
	// usable and at least one source failed. Retryable.
	ErrAllSourcesFailed = errors.New("all feed sources failed")

	// ErrInvalidPercentages is raised at startup when the strategy
	// percentage table does not sum to exactly 1.0.
	ErrInvalidPercentages = errors.New("strategy percentages must sum to 1.0")

	// ErrInvalidWeights is raised at startup when interaction weights
	// break the like < save < share ordering.
	ErrInvalidWeights = errors.New("invalid interaction weights")
)
