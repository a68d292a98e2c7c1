package types

import (
	"context"
	"strconv"
)

// Rank identifies one process (or goroutine) in a message-passing world.
//
// Ranks are dense: a world of Size ranks uses 0..Size-1.
type Rank int

// String returns the decimal form of the rank.
func (r Rank) String() string {
	if r == AnySource {
		return "any"
	}

	return strconv.Itoa(int(r))
}

// Tag classifies a point-to-point message.
//
// User tags are non-negative. Negative values are reserved for wildcards and for
// transport-internal collective traffic.
type Tag int

const (
	// AnySource matches a message from any rank.
	AnySource Rank = -1

	// AnyTag matches any user tag (>= 0). It never matches internal collective traffic.
	AnyTag Tag = -1
)

// Message tags used by the coordinator and worker agents.
const (
	// TagWorkStart carries a chunk of items from the coordinator to a worker.
	TagWorkStart Tag = 17

	// TagCollect carries a worker's results back to the coordinator.
	TagCollect Tag = 27

	// TagShutdown tells a worker to leave its loop. The payload is ignored.
	TagShutdown Tag = 37
)

// String returns a readable tag name.
func (t Tag) String() string {
	switch t {
	case AnyTag:
		return "any"
	case TagWorkStart:
		return "work-start"
	case TagCollect:
		return "collect"
	case TagShutdown:
		return "shutdown"
	default:
		return strconv.Itoa(int(t))
	}
}

// Matches reports whether a message carrying tag got satisfies the pattern t.
func (t Tag) Matches(got Tag) bool {
	if t == AnyTag {
		return got >= 0
	}

	return t == got
}

// Status describes a completed receive (or send).
type Status struct {
	// Source is the rank the message came from (the destination for sends).
	Source Rank

	// Tag is the tag the message carried.
	Tag Tag

	// Count is the number of items actually transferred.
	Count int
}

// Request is the handle of a non-blocking operation.
//
// A Request is polled by exactly one goroutine. Once Test reports done it keeps
// returning the same status and error.
type Request interface {
	// Test polls the operation without blocking.
	//
	// Returns:
	//   - Status: Completion status (zero value while pending)
	//   - bool: true once the operation has finished
	//   - error: Non-nil if the operation finished with a failure
	Test() (Status, bool, error)

	// Wait blocks until the operation finishes or ctx is done.
	Wait(ctx context.Context) (Status, error)
}

// Transport is the message-passing contract consumed by the coordinator and worker agents.
//
// Semantics follow the classic SPMD model: every rank runs the same program and
// collectives (BroadcastValue, Barrier) must be entered by all ranks. Point-to-point
// messages between one pair of ranks with one tag are delivered in send order.
//
// Buffers passed to Send and Isend may be reused as soon as the call returns.
// Buffers passed to Irecv are written when the matching message arrives and must not
// be touched until the request reports done.
type Transport interface {
	// Rank returns the rank of the calling process.
	Rank() Rank

	// Size returns the number of ranks in the world.
	Size() int

	// BroadcastValue distributes v from root to every rank. All ranks return root's value.
	BroadcastValue(ctx context.Context, v int, root Rank) (int, error)

	// Barrier blocks until every rank has entered it.
	Barrier(ctx context.Context) error

	// Send delivers buf to dest with the given tag, blocking until handed to the transport.
	Send(ctx context.Context, buf []int, dest Rank, tag Tag) error

	// Recv blocks until a message matching src and tag arrives and copies it into buf.
	// Status.Count reports how many items were actually received.
	Recv(ctx context.Context, buf []int, src Rank, tag Tag) (Status, error)

	// Isend starts a non-blocking send.
	Isend(buf []int, dest Rank, tag Tag) (Request, error)

	// Irecv posts a non-blocking receive into buf.
	Irecv(buf []int, src Rank, tag Tag) (Request, error)

	// Close releases transport resources. Pending requests complete with ErrTransportClosed.
	Close() error
}
