package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/sobulik/fundec/internal/natsutil"
	"github.com/sobulik/fundec/transport"
	"github.com/sobulik/fundec/types"
)

var (
	rankID    int
	rankSize  int
	rankRunID string
)

var rankCmd = &cobra.Command{
	Use:   "rank [target]",
	Short: "Run a single rank against a shared NATS server",
	Long: `Rank runs one process of a multi-process run.

Start one process per rank with the same --size, --run-id and target. The
rank equal to the configured coordinator rank (0 unless changed in the config
file) loads the workload and prints the result.`,
	Example: `  id=$(fundec rank --new-run-id)
  fundec rank 5 --rank 0 --size 3 --nats-url nats://127.0.0.1:4222 --run-id $id &
  fundec rank 5 --rank 1 --size 3 --nats-url nats://127.0.0.1:4222 --run-id $id &
  fundec rank 5 --rank 2 --size 3 --nats-url nats://127.0.0.1:4222 --run-id $id`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRank,
}

var newRunID bool

func init() {
	rankCmd.Flags().IntVarP(&rankID, "rank", "r", 0, "rank of this process")
	rankCmd.Flags().IntVarP(&rankSize, "size", "n", 0, "number of ranks in the run")
	rankCmd.Flags().StringVar(&rankRunID, "run-id", "", "identifier shared by every rank of the run")
	rankCmd.Flags().StringVar(&natsURL, "nats-url", "", "NATS server URL")
	rankCmd.Flags().BoolVar(&newRunID, "new-run-id", false, "print a fresh run id and exit")

	rootCmd.AddCommand(rankCmd)
}

// rankOptions identifies one process of a multi-process run.
type rankOptions struct {
	Rank  int
	Size  int
	RunID string
	URL   string
}

func runRank(cmd *cobra.Command, args []string) error {
	if newRunID {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), transport.NewRunID())
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return joinRun(ctx, cmd.OutOrStdout(), rankOptions{
		Rank:  rankID,
		Size:  rankSize,
		RunID: rankRunID,
		URL:   natsURL,
	}, args)
}

// joinRun runs one rank over NATS. Only the coordinator rank parses the target and
// writes the report to out.
func joinRun(ctx context.Context, out io.Writer, ro rankOptions, args []string) error {
	log := newLogger()

	s, err := newSession(log)
	if err != nil {
		return err
	}
	defer s.close()

	url := s.cfg.NATS.URL
	if ro.URL != "" {
		url = ro.URL
	}
	if url == "" {
		return errors.New("--nats-url is required")
	}
	if ro.RunID == "" {
		return errors.New("--run-id is required")
	}

	rank := types.Rank(ro.Rank)
	var target int
	if rank == types.Rank(s.cfg.Balancer.CoordinatorRank) {
		target, err = parseTarget(args, log)
		if err != nil {
			return err
		}
	}

	nc, err := nats.Connect(url, nats.Name(fmt.Sprintf("fundec-%s-%d", ro.RunID, ro.Rank)))
	if err != nil {
		return fmt.Errorf("connect to NATS: %w", natsutil.Classify(err))
	}
	defer nc.Close()

	t, err := transport.NewNATS(ctx, nc, s.natsConfig(ro.RunID, rank, ro.Size))
	if err != nil {
		return err
	}
	defer func() {
		if err := t.Close(); err != nil {
			log.Warn("closing transport failed", "rank", ro.Rank, "error", err)
		}
	}()

	report, err := s.runRank(ctx, t, target)
	if err != nil {
		return err
	}

	stats := t.Stats()
	log.Debug("transport traffic", "rank", ro.Rank, "sent", stats.Sent, "received", stats.Received, "malformed", stats.Malformed)

	if report != nil {
		s.printReport(out, report)
	}

	return nil
}
