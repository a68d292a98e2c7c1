package kernel

import (
	"context"

	"github.com/sobulik/fundec/types"
)

// Search records owner at every position equal to the target and types.NotFound elsewhere.
type Search struct{}

var _ types.Kernel = Search{}

// NewSearch returns the target scan kernel.
func NewSearch() Search {
	return Search{}
}

// Scan implements types.Kernel. The input chunk is never modified.
func (Search) Scan(_ context.Context, chunk []int, target int, owner types.Rank) ([]int, error) {
	out := make([]int, len(chunk))
	for i, v := range chunk {
		if v == target {
			out[i] = int(owner)
		} else {
			out[i] = types.NotFound
		}
	}

	return out, nil
}
