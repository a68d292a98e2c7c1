// Package logger provides the default and test implementations of types.Logger.
package logger

import "github.com/sobulik/fundec/types"

// NopLogger discards everything. It is what Coordinator, Worker and the transports
// use when no logger is configured.
type NopLogger struct{}

var _ types.Logger = NopLogger{}

// NewNop returns a logger that discards all messages.
func NewNop() NopLogger {
	return NopLogger{}
}

func (NopLogger) Debug(string, ...any) {}
func (NopLogger) Info(string, ...any)  {}
func (NopLogger) Warn(string, ...any)  {}
func (NopLogger) Error(string, ...any) {}

// Fatal discards the message; it never exits.
func (NopLogger) Fatal(string, ...any) {}
