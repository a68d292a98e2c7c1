package types

import (
	"errors"
	"strings"
)

// Sentinel errors for the fundec library.
//
// These errors provide type-safe error checking using errors.Is().
// Components wrap external errors with context using fmt.Errorf("%s: %w", msg, err).

// Construction errors - returned by NewCoordinator and NewWorker.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrTransportRequired is returned when the transport is nil.
	ErrTransportRequired = errors.New("transport is required")

	// ErrKernelRequired is returned when the computation kernel is nil.
	ErrKernelRequired = errors.New("kernel is required")

	// ErrInvalidRank is returned when a rank is outside [0, Size).
	ErrInvalidRank = errors.New("invalid rank")

	// ErrWrongRole is returned when a Coordinator is built on a worker rank or vice versa.
	ErrWrongRole = errors.New("rank does not match role")

	// ErrAlreadyRunning is returned when Run is called twice on the same component.
	ErrAlreadyRunning = errors.New("already running")
)

// Transport errors - returned by Transport implementations.
var (
	// ErrTruncated is returned when a message is longer than the posted receive buffer.
	ErrTruncated = errors.New("message truncated")

	// ErrTransportClosed is returned by operations on a closed transport.
	ErrTransportClosed = errors.New("transport closed")

	// ErrChecksumMismatch is returned when a received payload fails its integrity check.
	ErrChecksumMismatch = errors.New("payload checksum mismatch")

	// ErrMalformedMessage is returned when a received message cannot be decoded.
	ErrMalformedMessage = errors.New("malformed message")

	// ErrInvalidTag is returned when a caller sends with a wildcard or reserved tag.
	ErrInvalidTag = errors.New("invalid tag")

	// ErrConnectivity indicates a broker connectivity issue.
	ErrConnectivity = errors.New("connectivity issue")
)

// Dispatch errors - returned by the Coordinator run loop.
var (
	// ErrWorkerStalled is returned when outstanding assignments make no progress
	// within the configured stall timeout. The withheld work is never re-assigned.
	ErrWorkerStalled = errors.New("worker stalled")

	// ErrInvariantViolated is returned when dispatch bookkeeping becomes inconsistent.
	ErrInvariantViolated = errors.New("dispatch invariant violated")
)

// IsTransportClosedError checks if an error indicates the transport is gone.
//
// Handles both the sentinel and the NATS client's "connection closed" message, which may
// surface wrapped inside other errors.
//
// Parameters:
//   - err: The error to check
//
// Returns:
//   - bool: true if the error means the transport can no longer be used
func IsTransportClosedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTransportClosed) {
		return true
	}

	return strings.Contains(err.Error(), "connection closed")
}
