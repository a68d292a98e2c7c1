package fundec

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

// Worker is the agent run by every non-coordinator rank.
//
// It receives the target, then loops: wait for a message from the coordinator, scan
// work chunks and send the results back, until the shutdown message arrives. A worker
// never initiates communication.
//
// State is safe to read from other goroutines while Run executes.
type Worker struct {
	cfg       Config
	transport Transport
	kernel    Kernel

	hooks   *Hooks
	metrics MetricsCollector
	logger  Logger

	state   atomic.Int32 // WorkerState
	started atomic.Bool
}

// NewWorker creates the worker agent for a non-coordinator rank.
//
// Parameters:
//   - cfg: Configuration shared with the coordinator (zero fields are filled with defaults)
//   - t: Transport whose Rank() differs from cfg.CoordinatorRank
//   - k: Kernel applied to every received chunk
//   - opts: Optional hooks, metrics and logger
//
// Returns:
//   - *Worker: Worker in WorkerStateIdle
//   - error: ErrInvalidConfig, ErrTransportRequired, ErrKernelRequired, ErrInvalidRank or ErrWrongRole
func NewWorker(cfg *Config, t Transport, k Kernel, opts ...Option) (*Worker, error) {
	options, err := newAgentOptions(cfg, t, k, opts)
	if err != nil {
		return nil, err
	}
	if t.Rank() == Rank(cfg.CoordinatorRank) {
		return nil, fmt.Errorf("%w: rank %s is the coordinator", ErrWrongRole, t.Rank())
	}

	w := &Worker{
		cfg:       *cfg,
		transport: t,
		kernel:    k,
		hooks:     options.hooks,
		metrics:   options.metrics,
		logger:    options.logger,
	}
	w.state.Store(int32(WorkerStateIdle))

	return w, nil
}

// State returns the current worker state.
func (w *Worker) State() WorkerState {
	return WorkerState(w.state.Load())
}

func (w *Worker) setState(ctx context.Context, to WorkerState) {
	from := WorkerState(w.state.Swap(int32(to)))
	if from == to {
		return
	}

	w.logger.Debug("worker state changed", "rank", w.transport.Rank(), "from", from, "to", to)
	if err := w.hooks.OnStateChanged(ctx, w.transport.Rank(), from, to); err != nil {
		w.logger.Warn("hook error", "hook", "state", "error", err)
	}
}

// Run executes the worker loop until the coordinator's shutdown message arrives.
//
// Parameters:
//   - ctx: Cancels the loop
//
// Returns:
//   - error: nil after a clean shutdown, ErrAlreadyRunning, a transport error
//     (ErrTruncated if the coordinator sends more than MaxRemoteChunk items) or ctx.Err()
func (w *Worker) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	coordinator := Rank(w.cfg.CoordinatorRank)
	self := w.transport.Rank()

	target, err := w.transport.BroadcastValue(ctx, 0, coordinator)
	if err != nil {
		return fmt.Errorf("receive target: %w", err)
	}
	if err := w.transport.Barrier(ctx); err != nil {
		return fmt.Errorf("barrier: %w", err)
	}

	buf := make([]int, w.cfg.MaxRemoteChunk)
	var replies []Request

	w.setState(ctx, WorkerStateWaitingForWork)
	for {
		status, err := w.transport.Recv(ctx, buf, coordinator, AnyTag)
		if err != nil {
			return fmt.Errorf("rank %s receive: %w", self, err)
		}

		switch status.Tag {
		case TagWorkStart:
			reply, err := w.process(ctx, buf[:status.Count], target)
			if err != nil {
				return err
			}
			replies = append(pruneCompleted(replies), reply)
			w.setState(ctx, WorkerStateWaitingForWork)

		case TagShutdown:
			if err := waitAll(ctx, replies); err != nil {
				return fmt.Errorf("rank %s flush replies: %w", self, err)
			}
			w.setState(ctx, WorkerStateTerminated)

			return nil

		default:
			w.logger.Warn("ignoring message with unknown tag", "rank", self, "tag", status.Tag)
		}
	}
}

// process scans one chunk and starts sending the results back.
func (w *Worker) process(ctx context.Context, chunk []int, target int) (Request, error) {
	self := w.transport.Rank()

	w.setState(ctx, WorkerStateProcessing)
	start := time.Now()
	out, err := w.kernel.Scan(ctx, chunk, target, self)
	if err != nil {
		return nil, fmt.Errorf("rank %s scan: %w", self, err)
	}
	w.metrics.RecordChunkProcessed(self, len(chunk), time.Since(start).Seconds())

	w.setState(ctx, WorkerStateReplying)
	req, err := w.transport.Isend(out, Rank(w.cfg.CoordinatorRank), TagCollect)
	if err != nil {
		return nil, fmt.Errorf("rank %s reply: %w", self, err)
	}

	return req, nil
}

// pruneCompleted drops requests that finished cleanly. Failed ones stay for waitAll to report.
func pruneCompleted(reqs []Request) []Request {
	kept := reqs[:0]
	for _, r := range reqs {
		if _, done, err := r.Test(); !done || err != nil {
			kept = append(kept, r)
		}
	}

	return kept
}

func waitAll(ctx context.Context, reqs []Request) error {
	var errs []error
	for _, r := range reqs {
		if _, err := r.Wait(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
