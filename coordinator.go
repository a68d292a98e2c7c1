package fundec

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sobulik/fundec/internal/hooks"
	"github.com/sobulik/fundec/internal/logger"
	"github.com/sobulik/fundec/internal/metrics"
)

// Coordinator distributes a workload across the worker ranks of a transport.
//
// The coordinator runs a single-goroutine dispatch loop. Each iteration hands the next
// chunk to the highest-ranked idle worker, or scans a smaller chunk itself when every
// worker is busy, then polls every outstanding assignment for completion. Workers that
// finish early get more work, so faster ranks end up doing a larger share.
//
// Lifecycle:
//   - Create with NewCoordinator() on the coordinator rank
//   - Call Run() once; every worker rank must call Worker.Run() concurrently
//   - Run sends the shutdown message to every worker before returning
//
// Lost work is never re-assigned. A worker that stops replying surfaces as
// ErrWorkerStalled once Config.StallTimeout passes without progress.
type Coordinator struct {
	cfg       Config
	transport Transport
	kernel    Kernel

	hooks   *Hooks
	metrics MetricsCollector
	logger  Logger

	started atomic.Bool
}

// slot tracks one worker's outstanding assignment. Only the Run goroutine touches slots.
type slot struct {
	busy       bool
	req        Request
	assignment Assignment
	dispatched time.Time
}

// NewCoordinator creates the coordinator agent for the rank given by cfg.CoordinatorRank.
//
// Parameters:
//   - cfg: Configuration (zero fields are filled with defaults)
//   - t: Transport whose Rank() is cfg.CoordinatorRank
//   - k: Kernel used for chunks the coordinator scans itself
//   - opts: Optional hooks, metrics and logger
//
// Returns:
//   - *Coordinator: Ready coordinator
//   - error: ErrInvalidConfig, ErrTransportRequired, ErrKernelRequired, ErrInvalidRank or ErrWrongRole
//
// Example:
//
//	world, _ := transport.NewLocalWorld(4)
//	cfg := fundec.DefaultConfig()
//	coord, err := fundec.NewCoordinator(&cfg, world[0], kernel.NewSearch())
func NewCoordinator(cfg *Config, t Transport, k Kernel, opts ...Option) (*Coordinator, error) {
	options, err := newAgentOptions(cfg, t, k, opts)
	if err != nil {
		return nil, err
	}
	if t.Rank() != Rank(cfg.CoordinatorRank) {
		return nil, fmt.Errorf("%w: coordinator is rank %d, transport is rank %s",
			ErrWrongRole, cfg.CoordinatorRank, t.Rank())
	}

	return &Coordinator{
		cfg:       *cfg,
		transport: t,
		kernel:    k,
		hooks:     options.hooks,
		metrics:   options.metrics,
		logger:    options.logger,
	}, nil
}

// newAgentOptions validates the shared constructor arguments and applies defaults.
func newAgentOptions(cfg *Config, t Transport, k Kernel, opts []Option) (*agentOptions, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}
	if t == nil {
		return nil, ErrTransportRequired
	}
	if k == nil {
		return nil, ErrKernelRequired
	}

	SetDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.CoordinatorRank >= t.Size() {
		return nil, fmt.Errorf("%w: coordinator rank %d outside world of %d",
			ErrInvalidRank, cfg.CoordinatorRank, t.Size())
	}

	options := &agentOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if options.metrics == nil {
		options.metrics = metrics.NewNop()
	}
	if options.logger == nil {
		options.logger = logger.NewNop()
	}
	cfg.ValidateWithWarnings(options.logger)
	options.hooks = hooks.Fill(options.hooks)

	return options, nil
}

// Run distributes workload, waits for every item to be scanned and shuts the workers down.
//
// The workload slice is not modified. Run may be called only once per Coordinator.
//
// Parameters:
//   - ctx: Cancels the run; workers are still sent the shutdown message
//   - workload: Items to scan (may be empty)
//   - target: Value to search for, broadcast to every worker
//
// Returns:
//   - *Report: Hits in ascending position order plus dispatch statistics
//   - error: ErrAlreadyRunning, ErrWorkerStalled, a transport error or ctx.Err()
func (c *Coordinator) Run(ctx context.Context, workload []int, target int) (*Report, error) {
	if !c.started.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRunning
	}

	self := c.transport.Rank()

	if _, err := c.transport.BroadcastValue(ctx, target, self); err != nil {
		return nil, fmt.Errorf("broadcast target: %w", err)
	}
	if err := c.transport.Barrier(ctx); err != nil {
		return nil, fmt.Errorf("barrier: %w", err)
	}

	c.logger.Info("dispatch started",
		"items", len(workload),
		"target", target,
		"workers", c.transport.Size()-1,
	)

	report := &Report{
		Target:  target,
		Results: slices.Clone(workload),
		Stats:   Stats{Items: len(workload)},
	}

	start := time.Now()
	latency := newLatencyRecorder()
	loopErr := c.dispatch(ctx, report, latency)
	report.Stats.Elapsed = time.Since(start)
	report.Latency = latency.summary()

	shutdownErr := c.shutdown(ctx)

	if loopErr != nil {
		return nil, loopErr
	}
	if shutdownErr != nil {
		return nil, shutdownErr
	}

	report.Hits = collectHits(report.Results)
	c.logger.Info("dispatch finished",
		"items", report.Stats.Items,
		"hits", len(report.Hits),
		"remoteChunks", report.Stats.RemoteChunks,
		"localChunks", report.Stats.LocalChunks,
		"elapsed", report.Stats.Elapsed,
	)

	return report, nil
}

// dispatch runs the load-balancing loop until every item has been received.
func (c *Coordinator) dispatch(ctx context.Context, report *Report, latency *latencyRecorder) error {
	var (
		results      = report.Results
		stats        = &report.Stats
		n            = len(results)
		self         = c.transport.Rank()
		slots        = make([]slot, c.transport.Size())
		sent         int
		received     int
		outstanding  int
		lastProgress = time.Now()
	)

	for received < n {
		if err := ctx.Err(); err != nil {
			return err
		}

		stats.PollIterations++
		c.metrics.RecordPollIteration()
		progress := false

		if sent < n {
			if worker, ok := c.findIdleWorker(slots); ok {
				a := Assignment{Worker: worker, Offset: sent, Size: min(n-sent, c.cfg.MaxRemoteChunk)}
				if err := c.sendChunk(ctx, &slots[worker], a, results[a.Offset:a.End()]); err != nil {
					return err
				}

				sent += a.Size
				outstanding++
				stats.RemoteChunks++
				c.metrics.RecordOutstanding(outstanding)
			} else {
				a := Assignment{Worker: self, Offset: sent, Size: min(n-sent, c.cfg.MaxLocalChunk), Local: true}
				if err := c.scanLocal(ctx, a, results, report.Target); err != nil {
					return err
				}

				sent += a.Size
				received += a.Size
				stats.LocalChunks++
			}
			stats.Dispatches++
			progress = true
		}

		for r := range slots {
			s := &slots[r]
			if !s.busy {
				continue
			}

			done, err := c.collect(ctx, s, latency)
			if err != nil {
				return err
			}
			if !done {
				continue
			}

			received += s.assignment.Size
			outstanding--
			*s = slot{}
			c.metrics.RecordOutstanding(outstanding)
			progress = true
		}

		if progress {
			lastProgress = time.Now()
			continue
		}

		if c.cfg.StallTimeout > 0 && outstanding > 0 && time.Since(lastProgress) >= c.cfg.StallTimeout {
			return c.stalled(slots)
		}
		if err := c.pause(ctx); err != nil {
			return err
		}
	}

	return nil
}

// findIdleWorker scans from the highest rank down and returns the first idle worker.
// The coordinator's own slot is never returned.
func (c *Coordinator) findIdleWorker(slots []slot) (Rank, bool) {
	self := c.transport.Rank()
	for r := len(slots) - 1; r >= 0; r-- {
		if Rank(r) == self {
			continue
		}
		if !slots[r].busy {
			return Rank(r), true
		}
	}

	return 0, false
}

// sendChunk ships chunk to a.Worker and posts the receive for its results into the same range.
func (c *Coordinator) sendChunk(ctx context.Context, s *slot, a Assignment, chunk []int) error {
	c.invokeHook("assignment", func() error { return c.hooks.OnAssignment(ctx, a) })
	c.logger.Debug("Sending pieces of data to free proc", "pieces", a.Size, "proc", a.Worker, "assignment", a)

	if err := c.transport.Send(ctx, chunk, a.Worker, TagWorkStart); err != nil {
		return fmt.Errorf("send %s: %w", a, err)
	}
	req, err := c.transport.Irecv(chunk, a.Worker, TagCollect)
	if err != nil {
		return fmt.Errorf("post receive for %s: %w", a, err)
	}

	*s = slot{busy: true, req: req, assignment: a, dispatched: time.Now()}
	c.metrics.RecordDispatch(a.Worker, a.Size, false)

	return nil
}

// scanLocal runs a chunk through the kernel on the coordinator.
func (c *Coordinator) scanLocal(ctx context.Context, a Assignment, results []int, target int) error {
	c.invokeHook("assignment", func() error { return c.hooks.OnAssignment(ctx, a) })
	c.logger.Debug("Doing pieces of data locally", "pieces", a.Size, "proc", a.Worker)

	out, err := c.kernel.Scan(ctx, results[a.Offset:a.End()], target, a.Worker)
	if err != nil {
		return fmt.Errorf("scan %s: %w", a, err)
	}
	if len(out) != a.Size {
		return fmt.Errorf("%w: kernel returned %d results for %s", ErrInvariantViolated, len(out), a)
	}
	copy(results[a.Offset:], out)

	c.metrics.RecordDispatch(a.Worker, a.Size, true)
	c.invokeHook("completion", func() error { return c.hooks.OnCompletion(ctx, a) })

	return nil
}

// collect polls one busy slot and reports whether its results have arrived.
func (c *Coordinator) collect(ctx context.Context, s *slot, latency *latencyRecorder) (bool, error) {
	status, done, err := s.req.Test()
	if err != nil {
		return false, fmt.Errorf("collect %s: %w", s.assignment, err)
	}
	if !done {
		return false, nil
	}
	if status.Count != s.assignment.Size {
		return false, fmt.Errorf("%w: rank %s returned %d results for %s",
			ErrInvariantViolated, status.Source, status.Count, s.assignment)
	}

	rtt := time.Since(s.dispatched)
	latency.record(rtt)
	c.metrics.RecordCompletion(s.assignment.Worker, s.assignment.Size, rtt.Seconds())
	c.logger.Debug("Got pieces of data from P", "pieces", s.assignment.Size, "proc", s.assignment.Worker, "rtt", rtt)
	c.invokeHook("completion", func() error { return c.hooks.OnCompletion(ctx, s.assignment) })

	return true, nil
}

// stalled builds the error returned when outstanding workers stop replying.
func (c *Coordinator) stalled(slots []slot) error {
	var (
		silent   []string
		withheld int
	)
	for _, s := range slots {
		if s.busy {
			silent = append(silent, s.assignment.String())
			withheld += s.assignment.Size
		}
	}

	c.metrics.RecordStall(withheld)
	c.logger.Error("workers stopped replying",
		"timeout", c.cfg.StallTimeout,
		"outstanding", silent,
		"withheldItems", withheld,
	)

	return fmt.Errorf("%w: no completion for %v, %d items withheld by %s",
		ErrWorkerStalled, c.cfg.StallTimeout, withheld, strings.Join(silent, ", "))
}

// pause waits PollInterval or until ctx is done.
func (c *Coordinator) pause(ctx context.Context) error {
	if c.cfg.PollInterval <= 0 {
		return nil
	}

	timer := time.NewTimer(c.cfg.PollInterval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// shutdown sends one TagShutdown message to every worker. It runs even when the
// dispatch loop failed, so live workers can exit; ctx cancellation does not stop it.
func (c *Coordinator) shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.ShutdownTimeout)
	defer cancel()

	self := c.transport.Rank()

	var errs []error
	for r := range c.transport.Size() {
		if Rank(r) == self {
			continue
		}
		// The payload is the worker's own rank; workers ignore it.
		if err := c.transport.Send(ctx, []int{r}, Rank(r), TagShutdown); err != nil {
			errs = append(errs, fmt.Errorf("shutdown rank %d: %w", r, err))
		}
	}

	c.logger.Info("shutdown sent", "workers", c.transport.Size()-1, "failed", len(errs))

	return errors.Join(errs...)
}

func (c *Coordinator) invokeHook(name string, fn func() error) {
	if err := fn(); err != nil {
		c.logger.Warn("hook error", "hook", name, "error", err)
	}
}
