package logger

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/sobulik/fundec/types"
)

// TestLogger writes log lines through testing.TB so they show up next to the test
// that produced them.
//
// Transports keep delivering messages on background goroutines for a moment after a
// test returns, and testing.TB panics when logged to after completion. TestLogger
// therefore goes quiet once the test's cleanup phase starts.
type TestLogger struct {
	t    testing.TB
	done atomic.Bool
}

var _ types.Logger = (*TestLogger)(nil)

// NewTest creates a logger bound to t.
//
// Example:
//
//	coord, _ := fundec.NewCoordinator(&cfg, tr, k, fundec.WithLogger(logger.NewTest(t)))
func NewTest(t testing.TB) *TestLogger {
	l := &TestLogger{t: t}
	t.Cleanup(func() { l.done.Store(true) })

	return l
}

func (l *TestLogger) log(level, msg string, keysAndValues []any) {
	if l.done.Load() {
		return
	}
	l.t.Helper()
	l.t.Logf("%-5s %s%s", level, msg, formatKeyValues(keysAndValues))
}

func (l *TestLogger) Debug(msg string, keysAndValues ...any) { l.log("DEBUG", msg, keysAndValues) }
func (l *TestLogger) Info(msg string, keysAndValues ...any)  { l.log("INFO", msg, keysAndValues) }
func (l *TestLogger) Warn(msg string, keysAndValues ...any)  { l.log("WARN", msg, keysAndValues) }
func (l *TestLogger) Error(msg string, keysAndValues ...any) { l.log("ERROR", msg, keysAndValues) }

// Fatal fails the test immediately.
func (l *TestLogger) Fatal(msg string, keysAndValues ...any) {
	l.t.Helper()
	l.t.Fatalf("FATAL %s%s", msg, formatKeyValues(keysAndValues))
}

// formatKeyValues renders pairs as " k=v k=v". A trailing key without a value is
// shown as k=<missing>.
func formatKeyValues(keysAndValues []any) string {
	var sb strings.Builder
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			fmt.Fprintf(&sb, " %v=%v", keysAndValues[i], keysAndValues[i+1])
		} else {
			fmt.Fprintf(&sb, " %v=<missing>", keysAndValues[i])
		}
	}

	return sb.String()
}
