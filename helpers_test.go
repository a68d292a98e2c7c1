package fundec

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sobulik/fundec/kernel"
	"github.com/sobulik/fundec/transport"
)

// worldResult carries the outcome of every rank of one run.
type worldResult struct {
	report     *Report
	coordErr   error
	workerErrs []error
}

// runLocalWorld runs a full SPMD world of size ranks on the in-process transport.
func runLocalWorld(ctx context.Context, cfg Config, size int, workload []int, target int, opts ...Option) (worldResult, error) {
	world, err := transport.NewLocalWorld(size)
	if err != nil {
		return worldResult{}, err
	}
	defer func() {
		for _, tr := range world {
			_ = tr.Close()
		}
	}()

	res := worldResult{workerErrs: make([]error, size)}
	k := kernel.NewSearch()

	var wg sync.WaitGroup
	for r, tr := range world {
		if r == cfg.CoordinatorRank {
			continue
		}
		wg.Add(1) //nolint:revive // Standard pattern for concurrent operations
		go func() {
			defer wg.Done()

			wcfg := cfg
			w, err := NewWorker(&wcfg, tr, k, opts...)
			if err != nil {
				res.workerErrs[r] = err
				return
			}
			res.workerErrs[r] = w.Run(ctx)
		}()
	}

	ccfg := cfg
	coord, err := NewCoordinator(&ccfg, world[cfg.CoordinatorRank], k, opts...)
	if err != nil {
		return worldResult{}, err
	}
	res.report, res.coordErr = coord.Run(ctx, workload, target)
	wg.Wait()

	return res, nil
}

func testContext(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Second)
	t.Cleanup(cancel)

	return ctx
}

func requireCleanRun(t *testing.T, res worldResult) *Report {
	t.Helper()

	require.NoError(t, res.coordErr)
	for r, err := range res.workerErrs {
		require.NoError(t, err, "rank %d", r)
	}
	require.NotNil(t, res.report)

	return res.report
}

// expectedPositions returns the 1-based positions of target in workload.
func expectedPositions(workload []int, target int) []int {
	var out []int
	for i, v := range workload {
		if v == target {
			out = append(out, i+1)
		}
	}

	return out
}

func hitPositions(hits []Hit) []int {
	var out []int
	for _, h := range hits {
		out = append(out, h.Position)
	}

	return out
}
