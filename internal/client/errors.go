package client

import "errors"

// Client error taxonomy. Clients never retry; retry policy belongs to
// the pipeline orchestrator and poller.
var (
	// ErrServiceUnavailable covers network failures and non-2xx
	// responses that are not input or lookup problems.
	ErrServiceUnavailable = errors.New("external service unavailable")

	// ErrInvalidInput marks requests the service rejected as malformed.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound marks lookups for sessions the service does not know.
	ErrNotFound = errors.New("not found")
)
