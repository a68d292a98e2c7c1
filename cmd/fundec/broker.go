package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sobulik/fundec/internal/natsutil"
)

var (
	brokerHost  string
	brokerPort  int
	brokerStore string
)

var brokerCmd = &cobra.Command{
	Use:   "broker",
	Short: "Run a standalone NATS server for multi-process runs",
	Long: `Broker starts a NATS server with JetStream enabled and prints its URL.

Point every "fundec rank" process at the printed URL. The server runs until
interrupted.`,
	Example: `  fundec broker --port 4222
  fundec broker --host 0.0.0.0 --store /var/lib/fundec`,
	Args: cobra.NoArgs,
	RunE: runBroker,
}

func init() {
	brokerCmd.Flags().StringVar(&brokerHost, "host", "127.0.0.1", "listen address")
	brokerCmd.Flags().IntVar(&brokerPort, "port", 4222, "client port (0 picks a free port)")
	brokerCmd.Flags().StringVar(&brokerStore, "store", "", "JetStream storage directory (temporary when empty)")

	rootCmd.AddCommand(brokerCmd)
}

func runBroker(cmd *cobra.Command, _ []string) error {
	log := newLogger()

	ns, err := natsutil.StartEmbedded(natsutil.EmbeddedOptions{
		Host:     brokerHost,
		Port:     brokerPort,
		StoreDir: brokerStore,
		Quiet:    !debug,
	})
	if err != nil {
		return err
	}
	defer shutdownEmbedded(ns)

	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "NATS_URL=%s\n", ns.ClientURL()); err != nil {
		return err
	}
	log.Info("broker ready", "url", ns.ClientURL())

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info("shutting down broker")

	return nil
}
