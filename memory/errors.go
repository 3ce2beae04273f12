package memory

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced memory does not exist.
	ErrNotFound = errors.New("memory not found")

	// ErrConflict is returned by Store.Update when the stored version has
	// advanced past the version the caller read.
	ErrConflict = errors.New("memory version conflict")

	// ErrInvalidInput is returned for empty or malformed input, before any
	// store mutation.
	ErrInvalidInput = errors.New("invalid input")
)

// GatewayKind categorizes a failed call to an external gateway.
type GatewayKind string

const (
	GatewayRateLimited GatewayKind = "rate_limited"
	GatewayUnavailable GatewayKind = "unavailable"
	GatewayBadInput    GatewayKind = "invalid_input"
)

// GatewayError reports a failed embedding or language-model call.
// Rate-limited and unavailable failures are retryable by the caller.
type GatewayError struct {
	Kind GatewayKind
	Err  error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway %s: %v", e.Kind, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}
