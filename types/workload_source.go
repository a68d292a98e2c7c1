package types

import "context"

// WorkloadSource provides the items the coordinator distributes.
//
// Implementations:
//   - Static: fixed list for tests and defaults
//   - File: whitespace-separated integers read from disk
//   - Fallback: wraps a source and substitutes a default when the primary is missing
type WorkloadSource interface {
	// Load returns the workload.
	//
	// The returned slice is owned by the caller; implementations must not retain it.
	//
	// Parameters:
	//   - ctx: Context for cancellation
	//
	// Returns:
	//   - []int: Items in workload order
	//   - error: Load error (nil on success)
	Load(ctx context.Context) ([]int, error)
}
