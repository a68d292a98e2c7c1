package stress_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sobulik/fundec"
	"github.com/sobulik/fundec/source"
	"github.com/sobulik/fundec/transport"
)

// requireStressEnabled skips the test unless long stress tests are explicitly enabled.
//
// Enable by setting environment variable FUNDEC_STRESS=1 when invoking `go test`.
// Example:
//
//	FUNDEC_STRESS=1 go test -v -timeout 20m ./test/stress
func requireStressEnabled(t *testing.T) {
	t.Helper()
	if os.Getenv("FUNDEC_STRESS") != "1" {
		t.Skip("Skipping long stress/perf test (set FUNDEC_STRESS=1 to run)")
	}
}

func localWorld(t *testing.T, size int) []fundec.Transport {
	t.Helper()

	local, err := transport.NewLocalWorld(size)
	require.NoError(t, err)

	world := make([]fundec.Transport, len(local))
	for i, tr := range local {
		world[i] = tr
	}

	return world
}

// runWorld runs every rank and returns the coordinator's report.
func runWorld(ctx context.Context, cfg fundec.Config, world []fundec.Transport, k fundec.Kernel, workload []int, target int) (*fundec.Report, error) {
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		report *fundec.Report
		errs   []error
	)
	src := source.NewStatic(workload)
	for _, tr := range world {
		wg.Add(1) //nolint:revive // Standard pattern for concurrent operations
		go func() {
			defer wg.Done()

			rcfg := cfg
			r, err := fundec.Run(ctx, &rcfg, tr, k, src, target)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
			}
			if r != nil {
				report = r
			}
		}()
	}
	wg.Wait()

	return report, errors.Join(errs...)
}

// expectedPositions returns the 1-based positions of target in workload.
func expectedPositions(workload []int, target int) []int {
	var pos []int
	for i, v := range workload {
		if v == target {
			pos = append(pos, i+1)
		}
	}

	return pos
}

func hitPositions(hits []fundec.Hit) []int {
	var pos []int
	for _, h := range hits {
		pos = append(pos, h.Position)
	}

	return pos
}
