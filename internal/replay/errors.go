package replay

import "errors"

var (
	// ErrInvalidOrdering is returned when matches are not in feed order.
	ErrInvalidOrdering = errors.New("matches are not in deterministic order")

	// ErrFeedExhausted is returned by Step when every match has been applied.
	ErrFeedExhausted = errors.New("replay feed exhausted")

	// ErrStopped is returned by Run when Stop was requested before the feed ended.
	ErrStopped = errors.New("replay stopped")

	// ErrAlreadyRunning is returned when a second Run or a Reset overlaps a running replay.
	ErrAlreadyRunning = errors.New("replay already running")
)
