// Package hooks provides default hook implementations.
package hooks

import (
	"context"

	"github.com/sobulik/fundec/types"
)

// NopHooks implements Hooks with no-op callbacks.
//
// This is the default implementation used when no custom hooks are provided,
// eliminating the need for nil checks throughout the codebase.
type NopHooks struct{}

// Compile-time assertions that NopHooks implements hook callbacks.
var (
	_ func(context.Context, types.Assignment) error                                 = (*NopHooks)(nil).OnAssignment
	_ func(context.Context, types.Assignment) error                                 = (*NopHooks)(nil).OnCompletion
	_ func(context.Context, types.Rank, types.WorkerState, types.WorkerState) error = (*NopHooks)(nil).OnStateChanged
)

// NewNop creates a new no-op hooks implementation.
func NewNop() types.Hooks {
	h := &NopHooks{}
	return types.Hooks{
		OnAssignment:   h.OnAssignment,
		OnCompletion:   h.OnCompletion,
		OnStateChanged: h.OnStateChanged,
	}
}

// Fill returns a copy of h where every nil callback is replaced by its no-op version.
//
// Parameters:
//   - h: User hooks (may be nil)
//
// Returns:
//   - *types.Hooks: Hooks safe to call without nil checks
func Fill(h *types.Hooks) *types.Hooks {
	filled := NewNop()
	if h == nil {
		return &filled
	}

	if h.OnAssignment != nil {
		filled.OnAssignment = h.OnAssignment
	}
	if h.OnCompletion != nil {
		filled.OnCompletion = h.OnCompletion
	}
	if h.OnStateChanged != nil {
		filled.OnStateChanged = h.OnStateChanged
	}

	return &filled
}

// OnAssignment is a no-op implementation.
func (h *NopHooks) OnAssignment(_ context.Context, _ types.Assignment) error {
	return nil
}

// OnCompletion is a no-op implementation.
func (h *NopHooks) OnCompletion(_ context.Context, _ types.Assignment) error {
	return nil
}

// OnStateChanged is a no-op implementation.
func (h *NopHooks) OnStateChanged(_ context.Context, _ types.Rank, _, _ types.WorkerState) error {
	return nil
}
