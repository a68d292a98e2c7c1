package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestResourceMonitor(t *testing.T) {
	rm := NewResourceMonitor()
	rm.Start(5 * time.Millisecond)

	stop := make(chan struct{})
	go func() { <-stop }()
	time.Sleep(30 * time.Millisecond)
	close(stop)

	report := rm.Stop()
	require.GreaterOrEqual(t, report.Samples, 2)
	require.GreaterOrEqual(t, report.PeakGoroutines, report.Start.Goroutines)
	require.LessOrEqual(t, report.GoroutineGrowth(), 1, report.Summary())
	require.Contains(t, report.Summary(), "goroutines")
}
