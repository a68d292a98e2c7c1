package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSentinelErrors(t *testing.T) {
	t.Run("errors.Is works correctly", func(t *testing.T) {
		require.True(t, errors.Is(ErrTruncated, ErrTruncated))
		require.False(t, errors.Is(ErrTruncated, ErrTransportClosed))

		wrapped := fmt.Errorf("recv from rank 2: %w", ErrTruncated)
		require.True(t, errors.Is(wrapped, ErrTruncated))
	})

	t.Run("all errors are distinct", func(t *testing.T) {
		allErrors := []error{
			ErrInvalidConfig,
			ErrTransportRequired,
			ErrKernelRequired,
			ErrInvalidRank,
			ErrWrongRole,
			ErrAlreadyRunning,
			ErrTruncated,
			ErrTransportClosed,
			ErrChecksumMismatch,
			ErrMalformedMessage,
			ErrInvalidTag,
			ErrConnectivity,
			ErrWorkerStalled,
			ErrInvariantViolated,
		}

		for i, err1 := range allErrors {
			for j, err2 := range allErrors {
				if i == j {
					require.True(t, errors.Is(err1, err2), "error should equal itself: %v", err1)
				} else {
					require.False(t, errors.Is(err1, err2), "errors should be distinct: %v vs %v", err1, err2)
				}
			}
		}
	})
}

func TestIsTransportClosedError(t *testing.T) {
	t.Run("returns false for nil error", func(t *testing.T) {
		require.False(t, IsTransportClosedError(nil))
	})

	t.Run("returns true for wrapped sentinel", func(t *testing.T) {
		require.True(t, IsTransportClosedError(fmt.Errorf("send: %w", ErrTransportClosed)))
	})

	t.Run("returns true for NATS message", func(t *testing.T) {
		require.True(t, IsTransportClosedError(errors.New("publish: nats: connection closed")))
	})

	t.Run("returns false for unrelated error", func(t *testing.T) {
		require.False(t, IsTransportClosedError(ErrTruncated))
	})
}
