package fundec

import "github.com/sobulik/fundec/types"

// Sentinel errors re-exported from the types package so callers can match them with
// errors.Is without importing types.
var (
	ErrInvalidConfig     = types.ErrInvalidConfig
	ErrTransportRequired = types.ErrTransportRequired
	ErrKernelRequired    = types.ErrKernelRequired
	ErrInvalidRank       = types.ErrInvalidRank
	ErrWrongRole         = types.ErrWrongRole
	ErrAlreadyRunning    = types.ErrAlreadyRunning

	ErrTruncated        = types.ErrTruncated
	ErrTransportClosed  = types.ErrTransportClosed
	ErrChecksumMismatch = types.ErrChecksumMismatch
	ErrMalformedMessage = types.ErrMalformedMessage
	ErrInvalidTag       = types.ErrInvalidTag
	ErrConnectivity     = types.ErrConnectivity

	ErrWorkerStalled     = types.ErrWorkerStalled
	ErrInvariantViolated = types.ErrInvariantViolated
)
