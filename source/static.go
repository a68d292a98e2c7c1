package source

import (
	"context"
	"slices"
	"sync"

	"github.com/sobulik/fundec/types"
)

// DefaultWorkload is used when no workload file is available.
var DefaultWorkload = []int{4, 5, 6}

// Static implements a workload source with a fixed list of items.
type Static struct {
	mu    sync.RWMutex
	items []int
}

var _ types.WorkloadSource = (*Static)(nil)

// NewStatic creates a new static workload source.
//
// Parameters:
//   - items: Fixed workload (copied)
//
// Returns:
//   - *Static: Initialized static source
//
// Example:
//
//	src := source.NewStatic([]int{9, 4, 9, 2})
//	items, _ := src.Load(ctx)
func NewStatic(items []int) *Static {
	return &Static{items: slices.Clone(items)}
}

// Load returns a copy of the items.
func (s *Static) Load(_ context.Context) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]int, len(s.items))
	copy(result, s.items)

	return result, nil
}

// Update replaces the item list.
func (s *Static) Update(items []int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = slices.Clone(items)
}
