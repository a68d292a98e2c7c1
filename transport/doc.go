// Package transport provides types.Transport implementations.
//
// Two transports are available:
//   - Local: an in-process world where every rank is a goroutine. Used by tests,
//     the basic example and `fundec run --transport local`.
//   - NATS: one rank per process, point-to-point messages over core NATS subjects
//     and collectives over a per-run JetStream KeyValue bucket.
//
// Both share the same receive matcher, so matching semantics are identical: a
// message matches the earliest posted receive whose source and tag accept it, and
// a new receive takes the earliest queued message it accepts. Messages between one
// pair of ranks on one tag are therefore consumed in send order.
package transport
