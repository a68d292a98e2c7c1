package fundec

import (
	"fmt"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Report is the outcome of one coordinator run.
type Report struct {
	// Target is the value that was searched for.
	Target int

	// Results holds, for every workload item, the rank that found the target there
	// or NotFound.
	Results []int

	// Hits lists every match in ascending position order. Positions are 1-based.
	Hits []Hit

	// Stats describes how the work was distributed.
	Stats Stats

	// Latency summarises remote chunk round trips.
	Latency LatencySummary
}

// Stats counts dispatch loop activity.
type Stats struct {
	// Items is the workload length.
	Items int

	// RemoteChunks and LocalChunks count handouts to workers and to the coordinator itself.
	RemoteChunks int
	LocalChunks  int

	// Dispatches is RemoteChunks + LocalChunks.
	Dispatches int

	// PollIterations counts dispatch loop iterations, including idle ones. It grows
	// with wall time while workers are busy, so it has no bound in terms of the
	// workload. The bound ceil(N / min(MaxRemoteChunk, MaxLocalChunk)) * Size holds
	// for Dispatches instead.
	PollIterations int

	// Elapsed is the wall time from the end of the barrier to the last completion.
	Elapsed time.Duration
}

// LatencySummary summarises remote chunk round-trip times.
type LatencySummary struct {
	Count int64
	Min   time.Duration
	P50   time.Duration
	P90   time.Duration
	P99   time.Duration
	Max   time.Duration
}

// Lines renders one line per hit in the classic output format.
//
// Example output:
//
//	P 2 found integer 9 at position 1.
func (r *Report) Lines() []string {
	lines := make([]string, 0, len(r.Hits))
	for _, h := range r.Hits {
		lines = append(lines, fmt.Sprintf("P %d found integer %d at position %d.", h.Owner, r.Target, h.Position))
	}

	return lines
}

// collectHits extracts every non-NotFound result, ascending, with 1-based positions.
func collectHits(results []int) []Hit {
	var hits []Hit
	for i, v := range results {
		if v != NotFound {
			hits = append(hits, Hit{Owner: Rank(v), Position: i + 1})
		}
	}

	return hits
}

// Round trips are tracked in microseconds from 1µs to one hour.
const (
	latencyLowest  = 1
	latencyHighest = int64(time.Hour / time.Microsecond)
	latencySigFigs = 3
)

// latencyRecorder accumulates round-trip times for the report.
type latencyRecorder struct {
	h *hdrhistogram.Histogram
}

func newLatencyRecorder() *latencyRecorder {
	return &latencyRecorder{h: hdrhistogram.New(latencyLowest, latencyHighest, latencySigFigs)}
}

func (l *latencyRecorder) record(d time.Duration) {
	us := d.Microseconds()
	us = max(us, latencyLowest)
	us = min(us, latencyHighest)
	_ = l.h.RecordValue(us) // in range by construction
}

func (l *latencyRecorder) summary() LatencySummary {
	if l.h.TotalCount() == 0 {
		return LatencySummary{}
	}

	us := func(v int64) time.Duration { return time.Duration(v) * time.Microsecond }

	return LatencySummary{
		Count: l.h.TotalCount(),
		Min:   us(l.h.Min()),
		P50:   us(l.h.ValueAtQuantile(50)),
		P90:   us(l.h.ValueAtQuantile(90)),
		P99:   us(l.h.ValueAtQuantile(99)),
		Max:   us(l.h.Max()),
	}
}
