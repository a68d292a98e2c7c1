package fundec

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/require"

	"github.com/sobulik/fundec/kernel"
	"github.com/sobulik/fundec/source"
	fundectest "github.com/sobulik/fundec/testing"
	"github.com/sobulik/fundec/transport"
)

// runSPMD calls Run on every transport concurrently and returns the coordinator's report.
func runSPMD(ctx context.Context, cfg Config, world []Transport, k Kernel, src WorkloadSource, target int) (*Report, error) {
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		report *Report
		errs   []error
	)
	for _, tr := range world {
		wg.Add(1) //nolint:revive // Standard pattern for concurrent operations
		go func() {
			defer wg.Done()

			rcfg := cfg
			r, err := Run(ctx, &rcfg, tr, k, src, target)

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

func TestRun_LocalWorld(t *testing.T) {
	local, err := transport.NewLocalWorld(4)
	require.NoError(t, err)
	world := make([]Transport, len(local))
	for i, tr := range local {
		world[i] = tr
	}

	workload := make([]int, 300)
	for i := range workload {
		workload[i] = i % 10
	}

	k := kernel.WithLatency(kernel.NewSearch(), 0, time.Millisecond)
	report, err := runSPMD(testContext(t), TestConfig(), world, k, source.NewStatic(workload), 4)
	require.NoError(t, err)
	require.NotNil(t, report)
	require.Equal(t, expectedPositions(workload, 4), hitPositions(report.Hits))
}

func TestRun_Validation(t *testing.T) {
	_, err := Run(t.Context(), nil, nil, nil, nil, 0)
	require.ErrorIs(t, err, ErrInvalidConfig)

	cfg := DefaultConfig()
	_, err = Run(t.Context(), &cfg, nil, nil, nil, 0)
	require.ErrorIs(t, err, ErrTransportRequired)
}

func TestRun_NATS(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping NATS end-to-end test in short mode")
	}

	const size = 3
	ns, _ := fundectest.StartEmbeddedNATS(t)
	runID := transport.NewRunID()

	world := make([]Transport, size)
	for r := range size {
		nc := fundectest.ConnectNATS(t, ns.ClientURL())
		tr, err := transport.NewNATS(t.Context(), nc, transport.NATSConfig{
			RunID: runID,
			Rank:  Rank(r),
			Size:  size,
		})
		require.NoError(t, err)
		t.Cleanup(func() { _ = tr.Close() })
		world[r] = tr
	}

	workload := make([]int, 200)
	for i := range workload {
		workload[i] = (i * 31) % 17
	}

	report, err := runSPMD(testContext(t), TestConfig(), world, kernel.NewSearch(), source.NewStatic(workload), 5)
	require.NoError(t, err)
	require.NotNil(t, report)
	require.Equal(t, expectedPositions(workload, 5), hitPositions(report.Hits))
	for _, h := range report.Hits {
		require.GreaterOrEqual(t, int(h.Owner), 0)
		require.Less(t, int(h.Owner), size)
	}
}

func TestRun_NATSRemovesRunBuckets(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping NATS end-to-end test in short mode")
	}

	const size = 2
	ns, nc := fundectest.StartEmbeddedNATS(t)
	cfg := TestConfig()
	workload := []int{1, 2, 3}

	for range 3 {
		runID := transport.NewRunID()
		world := make([]Transport, size)
		closers := make([]*transport.NATS, size)
		for r := range size {
			tr, err := transport.NewNATS(t.Context(), fundectest.ConnectNATS(t, ns.ClientURL()), transport.NATSConfig{
				RunID:               runID,
				Rank:                Rank(r),
				Size:                size,
				DeleteBucketOnClose: r == cfg.CoordinatorRank,
			})
			require.NoError(t, err)
			world[r], closers[r] = tr, tr
		}

		report, err := runSPMD(testContext(t), cfg, world, kernel.NewSearch(), source.NewStatic(workload), 2)
		require.NoError(t, err)
		require.Equal(t, []int{2}, hitPositions(report.Hits))

		for _, tr := range closers {
			require.NoError(t, tr.Close())
		}
	}

	js, err := jetstream.New(nc)
	require.NoError(t, err)
	lister := js.KeyValueStoreNames(t.Context())
	var names []string
	for name := range lister.Name() {
		names = append(names, name)
	}
	require.NoError(t, lister.Error())
	require.Empty(t, names)
}
