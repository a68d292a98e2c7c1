package fundec

import (
	"context"
	"fmt"
)

// Run is the SPMD entry point: every rank calls it with its own transport and the
// same configuration.
//
// On the coordinator rank it loads the workload from src, runs the dispatch loop and
// returns the report. On every other rank it runs the worker loop and returns a nil
// report; src and target are ignored there.
//
// Example:
//
//	world, _ := transport.NewLocalWorld(4)
//	for _, tr := range world[1:] {
//	    go fundec.Run(ctx, &cfg, tr, kernel.NewSearch(), nil, 0)
//	}
//	report, err := fundec.Run(ctx, &cfg, world[0], kernel.NewSearch(), source.NewStatic(items), 5)
func Run(ctx context.Context, cfg *Config, t Transport, k Kernel, src WorkloadSource, target int, opts ...Option) (*Report, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}
	if t == nil {
		return nil, ErrTransportRequired
	}

	if t.Rank() != Rank(cfg.CoordinatorRank) {
		w, err := NewWorker(cfg, t, k, opts...)
		if err != nil {
			return nil, err
		}

		return nil, w.Run(ctx)
	}

	c, err := NewCoordinator(cfg, t, k, opts...)
	if err != nil {
		return nil, err
	}

	var workload []int
	if src != nil {
		workload, err = src.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load workload: %w", err)
		}
	}

	return c.Run(ctx, workload, target)
}
