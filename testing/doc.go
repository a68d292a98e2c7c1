// Package testing provides test utilities for the fundec library.
//
// This package offers helpers for setting up test environments, particularly
// embedded NATS servers for exercising the NATS transport. It follows Go's convention
// of providing testing utilities in a dedicated package (similar to net/http/httptest).
//
// Key utilities:
//   - StartEmbeddedNATS: Single NATS server with JetStream
//   - ConnectNATS: Additional client connection, one per simulated rank
//   - CreateJetStreamKV: Convenience wrapper for KV bucket creation
//   - NewTestLogger: types.Logger that writes through t.Logf
//
// Example usage:
//
//	import (
//	    "testing"
//	    fundectest "github.com/sobulik/fundec/testing"
//	)
//
//	func TestMyComponent(t *testing.T) {
//	    ns, _ := fundectest.StartEmbeddedNATS(t)
//	    nc := fundectest.ConnectNATS(t, ns.ClientURL())
//	    // Use nc for your tests
//	}
package testing
