package main

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	fundectest "github.com/sobulik/fundec/testing"
	"github.com/sobulik/fundec/transport"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())

	return out.String()
}

func requireHitLines(t *testing.T, out string, target int, positions ...int) {
	t.Helper()

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, len(positions), out)
	for i, pos := range positions {
		require.Regexp(t, `^P \d+ found integer `+strconv.Itoa(target)+` at position `+strconv.Itoa(pos)+`\.$`, lines[i])
	}
}

func TestRunCommand_Local(t *testing.T) {
	data := writeFile(t, "data.txt", "9 4 9 2")

	out := execute(t, "run", "9", "--procs", "3", "--transport", "local", "--data", data)
	requireHitLines(t, out, 9, 1, 3)
}

func TestRunCommand_NATS(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping embedded NATS run in short mode")
	}

	data := writeFile(t, "data.txt", "1 2 3 4 5 6 7 8 5")

	out := execute(t, "run", "5", "--procs", "3", "--transport", "nats", "--data", data)
	requireHitLines(t, out, 5, 5, 9)
}

func TestRunCommand_UnknownTransport(t *testing.T) {
	rootCmd.SetArgs([]string{"run", "5", "--transport", "carrier-pigeon"})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		transportKind = transportLocal
	})

	require.ErrorContains(t, rootCmd.Execute(), "unknown transport")
}

func TestRankCommand_NewRunID(t *testing.T) {
	t.Cleanup(func() { newRunID = false })

	out := strings.TrimSpace(execute(t, "rank", "--new-run-id"))
	require.Len(t, out, 26)
}

func TestRankCommand_RequiredFlags(t *testing.T) {
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rankRunID, natsURL = "", ""
	})

	rootCmd.SetArgs([]string{"rank", "5", "--rank", "0", "--size", "2", "--run-id", "r1", "--nats-url="})
	require.ErrorContains(t, rootCmd.Execute(), "--nats-url is required")

	rootCmd.SetArgs([]string{"rank", "5", "--rank", "0", "--size", "2", "--run-id=", "--nats-url", "nats://127.0.0.1:1"})
	require.ErrorContains(t, rootCmd.Execute(), "--run-id is required")
}

func TestJoinRun_ThreeRanks(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping NATS multi-rank run in short mode")
	}

	ns, _ := fundectest.StartEmbeddedNATS(t)
	prevData := dataFile
	dataFile = writeFile(t, "data.txt", "5 1 5 2 3 5")
	t.Cleanup(func() { dataFile = prevData })

	const size = 3
	runID := transport.NewRunID()
	outs := make([]bytes.Buffer, size)
	errs := make([]error, size)

	ctx, cancel := context.WithTimeout(t.Context(), 30*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	for r := range size {
		// Workers never parse the target, so a malformed one is harmless there.
		args := []string{"not-a-number"}
		if r == 0 {
			args = []string{"5"}
		}

		wg.Add(1) //nolint:revive // Standard pattern for concurrent operations
		go func() {
			defer wg.Done()
			errs[r] = joinRun(ctx, &outs[r], rankOptions{
				Rank:  r,
				Size:  size,
				RunID: runID,
				URL:   ns.ClientURL(),
			}, args)
		}()
	}
	wg.Wait()

	for r := range size {
		require.NoError(t, errs[r], "rank %d", r)
	}
	requireHitLines(t, outs[0].String(), 5, 1, 3, 6)
	require.Empty(t, outs[1].String())
	require.Empty(t, outs[2].String())
}
