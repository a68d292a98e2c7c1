package types

import "context"

// NotFound is the value a kernel stores for items that do not match the target.
const NotFound = -1

// Kernel scans one chunk of the workload against a target value.
//
// Implementations must be pure: the input is never modified and identical inputs
// produce identical outputs. The returned slice has the same length as chunk; position
// i holds owner when chunk[i] == target, NotFound otherwise.
type Kernel interface {
	// Scan computes the owner-or-NotFound projection of chunk.
	//
	// Parameters:
	//   - ctx: Context for cancellation (only latency-injecting kernels block)
	//   - chunk: Items to scan
	//   - target: Search value
	//   - owner: Rank recorded for matches
	//
	// Returns:
	//   - []int: New slice of len(chunk) values
	//   - error: ctx error if cancelled
	Scan(ctx context.Context, chunk []int, target int, owner Rank) ([]int, error)
}

// KernelFunc adapts an ordinary function to the Kernel interface.
type KernelFunc func(ctx context.Context, chunk []int, target int, owner Rank) ([]int, error)

// Scan calls f(ctx, chunk, target, owner).
func (f KernelFunc) Scan(ctx context.Context, chunk []int, target int, owner Rank) ([]int, error) {
	return f(ctx, chunk, target, owner)
}
