package testing

import (
	"testing"

	"github.com/sobulik/fundec/internal/logger"
	"github.com/sobulik/fundec/types"
)

// NewTestLogger returns a logger that writes coordinator, worker and transport output
// through t. It stops writing once t's cleanup begins, so transports that are still
// draining messages cannot log into a finished test.
func NewTestLogger(t testing.TB) types.Logger {
	return logger.NewTest(t)
}
