package fundec

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/sobulik/fundec/internal/logger"
	"github.com/sobulik/fundec/internal/metrics"
	"github.com/sobulik/fundec/kernel"
	"github.com/sobulik/fundec/transport"
)

func TestNewCoordinator_Validation(t *testing.T) {
	world, err := transport.NewLocalWorld(2)
	require.NoError(t, err)
	k := kernel.NewSearch()

	t.Run("nil config", func(t *testing.T) {
		_, err := NewCoordinator(nil, world[0], k)
		require.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("nil transport", func(t *testing.T) {
		cfg := DefaultConfig()
		_, err := NewCoordinator(&cfg, nil, k)
		require.ErrorIs(t, err, ErrTransportRequired)
	})

	t.Run("nil kernel", func(t *testing.T) {
		cfg := DefaultConfig()
		_, err := NewCoordinator(&cfg, world[0], nil)
		require.ErrorIs(t, err, ErrKernelRequired)
	})

	t.Run("coordinator outside world", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.CoordinatorRank = 2
		_, err := NewCoordinator(&cfg, world[0], k)
		require.ErrorIs(t, err, ErrInvalidRank)
	})

	t.Run("worker rank", func(t *testing.T) {
		cfg := DefaultConfig()
		_, err := NewCoordinator(&cfg, world[1], k)
		require.ErrorIs(t, err, ErrWrongRole)
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MaxLocalChunk = -1
		_, err := NewCoordinator(&cfg, world[0], k)
		require.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("defaults filled", func(t *testing.T) {
		cfg := Config{}
		c, err := NewCoordinator(&cfg, world[0], k)
		require.NoError(t, err)
		require.Equal(t, DefaultConfig(), c.cfg)
	})
}

func TestCoordinator_SingleRank(t *testing.T) {
	res, err := runLocalWorld(testContext(t), DefaultConfig(), 1, []int{9, 4, 9, 2}, 9)
	require.NoError(t, err)
	report := requireCleanRun(t, res)

	require.Equal(t, []Hit{{Owner: 0, Position: 1}, {Owner: 0, Position: 3}}, report.Hits)
	require.Equal(t, []int{0, NotFound, 0, NotFound}, report.Results)
	require.Equal(t, 1, report.Stats.LocalChunks)
	require.Zero(t, report.Stats.RemoteChunks)
	require.Equal(t, []string{
		"P 0 found integer 9 at position 1.",
		"P 0 found integer 9 at position 3.",
	}, report.Lines())
}

func TestCoordinator_NoMatch(t *testing.T) {
	res, err := runLocalWorld(testContext(t), DefaultConfig(), 3, []int{1, 2, 3}, 9)
	require.NoError(t, err)
	report := requireCleanRun(t, res)

	require.Empty(t, report.Hits)
	require.Empty(t, report.Lines())
}

func TestCoordinator_EmptyWorkload(t *testing.T) {
	res, err := runLocalWorld(testContext(t), DefaultConfig(), 3, nil, 5)
	require.NoError(t, err)
	report := requireCleanRun(t, res)

	require.Empty(t, report.Hits)
	require.Zero(t, report.Stats.Dispatches)
}

func TestCoordinator_HighestIdleRankGetsWork(t *testing.T) {
	// A single remote chunk covers the whole workload, so the first rank found by the
	// high-to-low scan owns every hit.
	res, err := runLocalWorld(testContext(t), DefaultConfig(), 3, []int{9, 4, 9, 2}, 9)
	require.NoError(t, err)
	report := requireCleanRun(t, res)

	require.Equal(t, []Hit{{Owner: 2, Position: 1}, {Owner: 2, Position: 3}}, report.Hits)
	require.Equal(t, 1, report.Stats.RemoteChunks)
	require.Equal(t, int64(1), report.Latency.Count)
}

func TestCoordinator_DoesNotModifyWorkload(t *testing.T) {
	workload := []int{9, 4, 9, 2}
	res, err := runLocalWorld(testContext(t), DefaultConfig(), 2, workload, 9)
	require.NoError(t, err)
	requireCleanRun(t, res)

	require.Equal(t, []int{9, 4, 9, 2}, workload)
}

func TestCoordinator_LargeWorkload(t *testing.T) {
	workload := make([]int, 1000)
	for i := range workload {
		workload[i] = i % 13
	}

	cfg := DefaultConfig()
	cfg.CoordinatorRank = 1

	res, err := runLocalWorld(testContext(t), cfg, 5, workload, 7)
	require.NoError(t, err)
	report := requireCleanRun(t, res)

	require.Equal(t, expectedPositions(workload, 7), hitPositions(report.Hits))
	for _, h := range report.Hits {
		require.GreaterOrEqual(t, int(h.Owner), 0)
		require.Less(t, int(h.Owner), 5)
	}
	require.Equal(t, report.Stats.RemoteChunks+report.Stats.LocalChunks, report.Stats.Dispatches)
	require.GreaterOrEqual(t, report.Stats.PollIterations, report.Stats.Dispatches)
}

func TestCoordinator_DispatchBound(t *testing.T) {
	tests := []struct {
		n, p, remote, local int
	}{
		{1, 1, 40, 10},
		{100, 1, 40, 10},
		{100, 4, 40, 10},
		{37, 3, 5, 2},
		{256, 8, 3, 7},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("n=%d p=%d", tt.n, tt.p), func(t *testing.T) {
			cfg := TestConfig()
			cfg.MaxRemoteChunk = tt.remote
			cfg.MaxLocalChunk = tt.local

			workload := make([]int, tt.n)
			res, err := runLocalWorld(testContext(t), cfg, tt.p, workload, 1)
			require.NoError(t, err)
			report := requireCleanRun(t, res)

			step := min(tt.remote, tt.local)
			bound := (tt.n + step - 1) / step * tt.p
			require.LessOrEqual(t, report.Stats.Dispatches, bound)
			// At most one dispatch per iteration; idle iterations are unbounded.
			require.GreaterOrEqual(t, report.Stats.PollIterations, report.Stats.Dispatches)
		})
	}
}

func TestCoordinator_RunTwice(t *testing.T) {
	world, err := transport.NewLocalWorld(1)
	require.NoError(t, err)

	cfg := DefaultConfig()
	c, err := NewCoordinator(&cfg, world[0], kernel.NewSearch())
	require.NoError(t, err)

	_, err = c.Run(testContext(t), []int{1}, 1)
	require.NoError(t, err)

	_, err = c.Run(testContext(t), []int{1}, 1)
	require.ErrorIs(t, err, ErrAlreadyRunning)
}

// silentWorker joins the collectives, accepts one chunk and never replies.
func silentWorker(ctx context.Context, tr Transport) error {
	if _, err := tr.BroadcastValue(ctx, 0, 0); err != nil {
		return err
	}
	if err := tr.Barrier(ctx); err != nil {
		return err
	}

	buf := make([]int, 64)
	for {
		status, err := tr.Recv(ctx, buf, 0, AnyTag)
		if err != nil {
			return err
		}
		if status.Tag == TagShutdown {
			return nil
		}
	}
}

func TestCoordinator_StalledWorker(t *testing.T) {
	world, err := transport.NewLocalWorld(2)
	require.NoError(t, err)
	ctx := testContext(t)

	var wg sync.WaitGroup
	var workerErr error
	wg.Add(1) //nolint:revive // Standard pattern for concurrent operations
	go func() {
		defer wg.Done()
		workerErr = silentWorker(ctx, world[1])
	}()

	cfg := TestConfig()
	cfg.MaxRemoteChunk = 40
	cfg.StallTimeout = 100 * time.Millisecond

	reg := prometheus.NewRegistry()
	c, err := NewCoordinator(&cfg, world[0], kernel.NewSearch(),
		WithLogger(logger.NewTest(t)),
		WithMetrics(metrics.NewPrometheus(reg, "")),
	)
	require.NoError(t, err)

	start := time.Now()
	report, err := c.Run(ctx, []int{1, 2, 3, 4}, 3)
	require.ErrorIs(t, err, ErrWorkerStalled)
	require.Nil(t, report)
	require.Contains(t, err.Error(), "remote[1..4]@1")
	require.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)

	// The shutdown message still reaches the silent worker.
	wg.Wait()
	require.NoError(t, workerErr)
}

// dropLast is a kernel that loses the last result of every chunk.
var dropLast = KernelFunc(func(ctx context.Context, chunk []int, target int, owner Rank) ([]int, error) {
	out, err := kernel.NewSearch().Scan(ctx, chunk, target, owner)
	if err != nil || len(out) == 0 {
		return out, err
	}

	return out[:len(out)-1], nil
})

func TestCoordinator_ShortReply(t *testing.T) {
	world, err := transport.NewLocalWorld(2)
	require.NoError(t, err)
	ctx := testContext(t)

	cfg := TestConfig()
	cfg.MaxRemoteChunk = 40

	w, err := NewWorker(&cfg, world[1], dropLast)
	require.NoError(t, err)
	workerDone := make(chan error, 1)
	go func() { workerDone <- w.Run(ctx) }()

	c, err := NewCoordinator(&cfg, world[0], kernel.NewSearch())
	require.NoError(t, err)

	_, err = c.Run(ctx, []int{1, 2, 3}, 3)
	require.ErrorIs(t, err, ErrInvariantViolated)
	require.Contains(t, err.Error(), "remote[1..3]@1")

	// Shutdown still reaches the worker after the failed run.
	require.NoError(t, <-workerDone)
	require.Equal(t, WorkerStateTerminated, w.State())
}

func TestCoordinator_ShortLocalScan(t *testing.T) {
	world, err := transport.NewLocalWorld(1)
	require.NoError(t, err)

	cfg := TestConfig()
	c, err := NewCoordinator(&cfg, world[0], dropLast)
	require.NoError(t, err)

	_, err = c.Run(testContext(t), []int{1, 2, 3}, 3)
	require.ErrorIs(t, err, ErrInvariantViolated)
	require.Contains(t, err.Error(), "kernel returned 1 results for local[1..2]@0")
}

func TestCoordinator_Cancelled(t *testing.T) {
	world, err := transport.NewLocalWorld(2)
	require.NoError(t, err)

	cfg := DefaultConfig()
	c, err := NewCoordinator(&cfg, world[0], kernel.NewSearch())
	require.NoError(t, err)

	// Rank 1 never joins, so the barrier blocks until ctx expires.
	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()

	_, err = c.Run(ctx, []int{1}, 1)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCoordinator_HooksAndMetrics(t *testing.T) {
	var (
		mu          sync.Mutex
		assigned    []Assignment
		completions int
	)
	hooks := &Hooks{
		OnAssignment: func(_ context.Context, a Assignment) error {
			mu.Lock()
			defer mu.Unlock()
			assigned = append(assigned, a)

			return nil
		},
		OnCompletion: func(_ context.Context, _ Assignment) error {
			mu.Lock()
			defer mu.Unlock()
			completions++

			return fmt.Errorf("hook errors are logged, not fatal")
		},
	}

	workload := make([]int, 50)
	cfg := TestConfig()
	reg := prometheus.NewRegistry()

	res, err := runLocalWorld(testContext(t), cfg, 3, workload, 0,
		WithHooks(hooks),
		WithMetrics(metrics.NewPrometheus(reg, "")),
		WithLogger(logger.NewTest(t)),
	)
	require.NoError(t, err)
	report := requireCleanRun(t, res)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, assigned, report.Stats.Dispatches)
	require.Equal(t, report.Stats.Dispatches, completions)
	require.Len(t, report.Hits, 50)

	families, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)
}
