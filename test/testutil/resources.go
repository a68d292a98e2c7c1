package testutil

import (
	"fmt"
	"runtime"
	"sync"
	"time"
)

// ResourceMonitor samples heap usage and goroutine count while a run is in progress.
type ResourceMonitor struct {
	samples []ResourceSample
	done    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
}

// ResourceSample is one observation.
type ResourceSample struct {
	Timestamp  time.Time
	HeapMB     float64
	Goroutines int
}

// ResourceReport summarizes a monitoring period.
type ResourceReport struct {
	Start ResourceSample
	End   ResourceSample

	PeakHeapMB     float64
	PeakGoroutines int

	Samples int
}

// NewResourceMonitor creates a monitor and records a baseline sample.
//
// Example:
//
//	monitor := testutil.NewResourceMonitor()
//	monitor.Start(100 * time.Millisecond)
//	runSearch()
//	report := monitor.Stop()
//	require.LessOrEqual(t, report.GoroutineGrowth(), 5, report.Summary())
func NewResourceMonitor() *ResourceMonitor {
	rm := &ResourceMonitor{done: make(chan struct{})}
	rm.sample()

	return rm
}

// Start samples every interval until Stop is called.
func (rm *ResourceMonitor) Start(interval time.Duration) {
	rm.wg.Add(1)

	go func() {
		defer rm.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-rm.done:
				return
			case <-ticker.C:
				rm.sample()
			}
		}
	}()
}

// Stop ends sampling, lets exiting goroutines settle, and returns the report.
func (rm *ResourceMonitor) Stop() ResourceReport {
	close(rm.done)
	rm.wg.Wait()

	// Ranks that just returned may still be unwinding.
	deadline := time.Now().Add(2 * time.Second)
	for runtime.NumGoroutine() > rm.baseline().Goroutines && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	runtime.GC()
	rm.sample()

	rm.mu.Lock()
	defer rm.mu.Unlock()

	report := ResourceReport{
		Start:   rm.samples[0],
		End:     rm.samples[len(rm.samples)-1],
		Samples: len(rm.samples),
	}
	for _, s := range rm.samples {
		report.PeakHeapMB = max(report.PeakHeapMB, s.HeapMB)
		report.PeakGoroutines = max(report.PeakGoroutines, s.Goroutines)
	}

	return report
}

func (rm *ResourceMonitor) baseline() ResourceSample {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	return rm.samples[0]
}

func (rm *ResourceMonitor) sample() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	s := ResourceSample{
		Timestamp:  time.Now(),
		HeapMB:     float64(m.HeapAlloc) / 1024 / 1024,
		Goroutines: runtime.NumGoroutine(),
	}

	rm.mu.Lock()
	rm.samples = append(rm.samples, s)
	rm.mu.Unlock()
}

// GoroutineGrowth is how many more goroutines were alive at the end than at the start.
func (rr ResourceReport) GoroutineGrowth() int {
	return rr.End.Goroutines - rr.Start.Goroutines
}

// Summary returns a one-line human readable description.
func (rr ResourceReport) Summary() string {
	return fmt.Sprintf("heap %.2f -> %.2f MB (peak %.2f), goroutines %d -> %d (peak %d), %d samples over %v",
		rr.Start.HeapMB, rr.End.HeapMB, rr.PeakHeapMB,
		rr.Start.Goroutines, rr.End.Goroutines, rr.PeakGoroutines,
		rr.Samples, rr.End.Timestamp.Sub(rr.Start.Timestamp).Round(time.Millisecond))
}
