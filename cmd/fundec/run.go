package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/sobulik/fundec/internal/natsutil"
	"github.com/sobulik/fundec/transport"
	"github.com/sobulik/fundec/types"
)

const (
	transportLocal = "local"
	transportNATS  = "nats"
)

var (
	procs         int
	transportKind string
	natsURL       string
)

var runCmd = &cobra.Command{
	Use:   "run [target]",
	Short: "Run every rank in this process",
	Long: `Run starts the coordinator and all workers in one process.

With --transport local the ranks exchange messages in memory. With
--transport nats they go through a NATS broker; when --nats-url is empty an
embedded broker is started for the duration of the run.`,
	Example: `  fundec run 5 --procs 4
  fundec run 7 --procs 8 --data numbers.txt --latency 1ms-5ms
  fundec run 5 --transport nats --metrics-addr :9090`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().IntVarP(&procs, "procs", "p", 4, "number of ranks, coordinator included")
	runCmd.Flags().StringVarP(&transportKind, "transport", "t", transportLocal, "message transport: local or nats")
	runCmd.Flags().StringVar(&natsURL, "nats-url", "", "NATS server URL (embedded server when empty)")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	log := newLogger()

	target, err := parseTarget(args, log)
	if err != nil {
		return err
	}

	s, err := newSession(log)
	if err != nil {
		return err
	}
	defer s.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var world []types.Transport
	switch transportKind {
	case transportLocal:
		world, err = localWorld(procs)
	case transportNATS:
		var cleanup func()
		world, cleanup, err = natsWorld(ctx, s, procs)
		if cleanup != nil {
			defer cleanup()
		}
	default:
		err = fmt.Errorf("unknown transport %q (want %s or %s)", transportKind, transportLocal, transportNATS)
	}
	if err != nil {
		return err
	}

	report, err := s.runWorld(ctx, world, target)
	if err != nil {
		return err
	}

	s.printReport(cmd.OutOrStdout(), report)

	return nil
}

func localWorld(size int) ([]types.Transport, error) {
	local, err := transport.NewLocalWorld(size)
	if err != nil {
		return nil, err
	}

	world := make([]types.Transport, len(local))
	for i, t := range local {
		world[i] = t
	}

	return world, nil
}

// natsWorld builds size NATS ranks sharing one run, each with its own connection.
// The returned cleanup closes transports, connections and any embedded server.
func natsWorld(ctx context.Context, s *session, size int) ([]types.Transport, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	url := s.cfg.NATS.URL
	if natsURL != "" {
		url = natsURL
	}
	if url == "" {
		ns, err := natsutil.StartEmbedded(natsutil.EmbeddedOptions{Quiet: !debug})
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { shutdownEmbedded(ns) })
		url = ns.ClientURL()
		s.logger.Info("started embedded NATS server", "url", url)
	}

	runID := transport.NewRunID()
	world := make([]types.Transport, size)
	for r := range size {
		nc, err := nats.Connect(url, nats.Name(fmt.Sprintf("fundec-%s-%d", runID, r)))
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("connect to NATS: %w", natsutil.Classify(err))
		}
		closers = append(closers, nc.Close)

		t, err := transport.NewNATS(ctx, nc, s.natsConfig(runID, types.Rank(r), size))
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, func() {
			if err := t.Close(); err != nil {
				s.logger.Warn("closing transport failed", "rank", t.Rank(), "error", err)
			}
		})
		world[r] = t
	}

	return world, cleanup, nil
}

func shutdownEmbedded(ns *server.Server) {
	ns.Shutdown()
	ns.WaitForShutdown()
}

func (s *session) natsConfig(runID string, rank types.Rank, size int) transport.NATSConfig {
	return transport.NATSConfig{
		SubjectPrefix:    s.cfg.NATS.SubjectPrefix,
		RunID:            runID,
		Rank:             rank,
		Size:             size,
		BucketTTL:        s.cfg.NATS.BucketTTL,
		OperationTimeout: s.cfg.NATS.OperationTimeout,
		Logger:           s.logger,

		DeleteBucketOnClose: rank == types.Rank(s.cfg.Balancer.CoordinatorRank),
	}
}
