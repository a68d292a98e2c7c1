// Package natsutil holds NATS helpers shared by the transport, the CLI and tests.
package natsutil

import (
	"errors"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/sobulik/fundec/types"
)

// IsConnectivityError checks if an error is caused by connectivity issues.
//
// This includes NATS timeouts, connection refused, disconnections, etc.
// Kept here so the types package stays free of NATS imports.
//
// Parameters:
//   - err: Error to check
//
// Returns:
//   - bool: true if error indicates connectivity issue
func IsConnectivityError(err error) bool {
	if err == nil {
		return false
	}

	return errors.Is(err, types.ErrConnectivity) ||
		errors.Is(err, nats.ErrTimeout) ||
		errors.Is(err, nats.ErrNoServers) ||
		errors.Is(err, nats.ErrDisconnected) ||
		errors.Is(err, nats.ErrConnectionClosed) ||
		errors.Is(err, jetstream.ErrNoStreamResponse) ||
		strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "i/o timeout")
}

// Classify maps a NATS client error onto the fundec sentinels.
//
// Closed connections become types.ErrTransportClosed and other connectivity failures
// are wrapped with types.ErrConnectivity. Anything else is returned unchanged.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, nats.ErrConnectionClosed):
		return errors.Join(types.ErrTransportClosed, err)
	case errors.Is(err, types.ErrConnectivity):
		return err
	case IsConnectivityError(err):
		return errors.Join(types.ErrConnectivity, err)
	default:
		return err
	}
}
