package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sobulik/fundec/internal/logging"
	"github.com/sobulik/fundec/types"
)

var (
	cfgFile     string
	debug       bool
	dataFile    string
	metricsAddr string
	latency     string
)

var rootCmd = &cobra.Command{
	Use:   "fundec",
	Short: "Dynamic load balancing integer search",
	Long: `fundec scans a workload of integers for a target value.

One rank acts as coordinator: it hands chunks of the workload to idle workers,
scans small chunks itself while every worker is busy, and prints where the
target was found and which rank found it.`,
	Version:      "1.0.0",
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&dataFile, "data", "", "workload file of whitespace separated integers (default data.txt)")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	rootCmd.PersistentFlags().StringVar(&latency, "latency", "", "random per-chunk kernel latency, e.g. 1ms-5ms")

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

func newLogger() types.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	return logging.NewSlogText(os.Stderr, level)
}
