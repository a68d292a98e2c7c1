package types

// Logger is the structured logger used by the coordinator, the worker and the transports.
//
// Every method takes a message followed by alternating key-value pairs, the shape shared
// by slog and zap's SugaredLogger. Per-dispatch and per-chunk events go to Debug, run
// lifecycle to Info, recoverable problems (hook failures, malformed messages, missing
// workload files) to Warn.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)

	// Fatal logs and terminates the process. Nop and test implementations do not exit.
	Fatal(msg string, keysAndValues ...any)
}
