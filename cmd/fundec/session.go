package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sobulik/fundec"
	"github.com/sobulik/fundec/internal/metrics"
	"github.com/sobulik/fundec/kernel"
	"github.com/sobulik/fundec/source"
	"github.com/sobulik/fundec/types"
)

// session holds everything a command needs that is independent of the transport.
type session struct {
	cfg    *fileConfig
	logger types.Logger
	kernel types.Kernel
	source types.WorkloadSource
	opts   []fundec.Option

	metricsServer *metrics.Server
}

func newSession(log types.Logger) (*session, error) {
	fc, err := loadFileConfig(cfgFile)
	if err != nil {
		return nil, err
	}
	fc.applyFlags()
	fc.Balancer.ValidateWithWarnings(log)

	k := types.Kernel(kernel.NewSearch())
	if latency != "" {
		minDelay, maxDelay, err := kernel.ParseLatency(latency)
		if err != nil {
			return nil, err
		}
		k = kernel.WithLatency(k, minDelay, maxDelay)
	}

	file := source.NewFile(fc.Data)
	log.Debug("workload source", "path", file.Path())

	s := &session{
		cfg:    fc,
		logger: log,
		kernel: k,
		source: source.WithFallback(file, source.DefaultWorkload, log),
		opts:   []fundec.Option{fundec.WithLogger(log)},
	}

	if fc.Metrics.Addr != "" {
		reg := prometheus.NewRegistry()
		s.opts = append(s.opts, fundec.WithMetrics(metrics.NewPrometheus(reg, fc.Metrics.Namespace)))

		srv, err := metrics.Serve(fc.Metrics.Addr, reg, log)
		if err != nil {
			return nil, err
		}
		s.metricsServer = srv
	}

	return s, nil
}

// close stops the metrics server, if any.
func (s *session) close() {
	if s.metricsServer == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.metricsServer.Shutdown(ctx); err != nil {
		s.logger.Warn("metrics server shutdown failed", "error", err)
	}
}

// runRank runs a single rank and returns the coordinator's report, or nil on a worker.
func (s *session) runRank(ctx context.Context, t types.Transport, target int) (*fundec.Report, error) {
	cfg := s.cfg.Balancer

	return fundec.Run(ctx, &cfg, t, s.kernel, s.source, target, s.opts...)
}

// runWorld runs every rank of world concurrently and returns the coordinator's report.
func (s *session) runWorld(ctx context.Context, world []types.Transport, target int) (*fundec.Report, error) {
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		report *fundec.Report
		errs   []error
	)

	// A failed rank would leave its peers blocked, so the first error cancels the rest.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for _, t := range world {
		wg.Add(1) //nolint:revive // Standard pattern for concurrent operations
		go func() {
			defer wg.Done()

			r, err := s.runRank(ctx, t, target)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("rank %d: %w", t.Rank(), err))
				cancel()
			}
			if r != nil {
				report = r
			}
		}()
	}
	wg.Wait()

	return report, errors.Join(errs...)
}

// printReport writes one line per hit and logs the run summary.
func (s *session) printReport(w io.Writer, report *fundec.Report) {
	for _, line := range report.Lines() {
		_, _ = fmt.Fprintln(w, line)
	}

	s.logger.Info("search complete",
		"items", report.Stats.Items,
		"hits", len(report.Hits),
		"remoteChunks", report.Stats.RemoteChunks,
		"localChunks", report.Stats.LocalChunks,
		"elapsed", report.Stats.Elapsed,
		"p99RoundTrip", report.Latency.P99,
	)
}
