package kernel

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/sobulik/fundec/types"
)

type latency struct {
	next     types.Kernel
	min, max time.Duration
}

// WithLatency delays every Scan by a uniformly random duration in [min, max] before
// delegating to k. Output is unchanged. A cancelled ctx cuts the delay short and
// Scan returns ctx.Err().
//
// Example:
//
//	k := kernel.WithLatency(kernel.NewSearch(), 0, 5*time.Millisecond)
func WithLatency(k types.Kernel, minDelay, maxDelay time.Duration) types.Kernel {
	if maxDelay < minDelay {
		minDelay, maxDelay = maxDelay, minDelay
	}
	if maxDelay <= 0 {
		return k
	}

	return &latency{next: k, min: max(minDelay, 0), max: maxDelay}
}

func (l *latency) delay() time.Duration {
	if l.max == l.min {
		return l.min
	}

	return l.min + rand.N(l.max-l.min+1) //nolint:gosec // jitter, not security
}

func (l *latency) Scan(ctx context.Context, chunk []int, target int, owner types.Rank) ([]int, error) {
	timer := time.NewTimer(l.delay())
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	return l.next.Scan(ctx, chunk, target, owner)
}

// ParseLatency parses a "min-max" duration range such as "1ms-5ms". A single
// duration means a fixed delay.
func ParseLatency(s string) (minDelay, maxDelay time.Duration, err error) {
	lo, hi, found := strings.Cut(s, "-")
	minDelay, err = time.ParseDuration(strings.TrimSpace(lo))
	if err != nil {
		return 0, 0, fmt.Errorf("latency %q: %w", s, err)
	}
	if !found {
		return minDelay, minDelay, nil
	}
	maxDelay, err = time.ParseDuration(strings.TrimSpace(hi))
	if err != nil {
		return 0, 0, fmt.Errorf("latency %q: %w", s, err)
	}
	if maxDelay < minDelay || minDelay < 0 {
		return 0, 0, fmt.Errorf("latency %q: want 0 <= min <= max", s)
	}

	return minDelay, maxDelay, nil
}
