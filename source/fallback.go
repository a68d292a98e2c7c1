package source

import (
	"context"
	"errors"
	"os"
	"slices"

	"github.com/sobulik/fundec/internal/logger"
	"github.com/sobulik/fundec/types"
)

// Fallback substitutes a default workload when the primary source reports a missing file.
type Fallback struct {
	primary  types.WorkloadSource
	fallback []int
	logger   types.Logger
}

var _ types.WorkloadSource = (*Fallback)(nil)

// WithFallback wraps src so that an os.ErrNotExist failure logs a warning and returns
// fallback instead. Any other error is returned unchanged.
//
// Parameters:
//   - src: Primary source
//   - fallback: Items used when src is missing (DefaultWorkload if nil)
//   - log: Receives the warning (nop if nil)
//
// Example:
//
//	src := source.WithFallback(source.NewFile("data.txt"), nil, log)
func WithFallback(src types.WorkloadSource, fallback []int, log types.Logger) *Fallback {
	if fallback == nil {
		fallback = DefaultWorkload
	}
	if log == nil {
		log = logger.NewNop()
	}

	return &Fallback{primary: src, fallback: slices.Clone(fallback), logger: log}
}

// Load implements types.WorkloadSource.
func (f *Fallback) Load(ctx context.Context) ([]int, error) {
	items, err := f.primary.Load(ctx)
	if err == nil {
		return items, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	f.logger.Warn("workload not found, using default", "error", err, "default", f.fallback)

	return slices.Clone(f.fallback), nil
}
