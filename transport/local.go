package transport

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/sobulik/fundec/types"
)

// Local is an in-process types.Transport. Every rank of a world runs on its own
// goroutine and messages are copied directly into the destination's mailbox.
//
// Sends never block: the destination queues messages until a matching receive is
// posted. Each Local must be driven by a single goroutine, like one MPI process.
type Local struct {
	rank   types.Rank
	boxes  []*mailbox
	closed atomic.Bool
}

var _ types.Transport = (*Local)(nil)

// NewLocalWorld creates a world of size connected in-process transports, indexed by rank.
//
// Parameters:
//   - size: Number of ranks (must be >= 1)
//
// Returns:
//   - []*Local: One transport per rank
//   - error: types.ErrInvalidConfig if size < 1
//
// Example:
//
//	world, _ := transport.NewLocalWorld(4)
//	for _, tr := range world[1:] {
//	    go runWorker(tr)
//	}
//	runCoordinator(world[0])
func NewLocalWorld(size int) ([]*Local, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: world size must be >= 1, got %d", types.ErrInvalidConfig, size)
	}

	boxes := make([]*mailbox, size)
	for i := range boxes {
		boxes[i] = newMailbox()
	}

	world := make([]*Local, size)
	for i := range world {
		world[i] = &Local{rank: types.Rank(i), boxes: boxes}
	}

	return world, nil
}

// Rank implements types.Transport.
func (l *Local) Rank() types.Rank { return l.rank }

// Size implements types.Transport.
func (l *Local) Size() int { return len(l.boxes) }

// Send implements types.Transport.
func (l *Local) Send(ctx context.Context, buf []int, dest types.Rank, tag types.Tag) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkSendTag(tag); err != nil {
		return err
	}

	return l.send(buf, dest, tag)
}

// Isend implements types.Transport. The request is complete on return.
func (l *Local) Isend(buf []int, dest types.Rank, tag types.Tag) (types.Request, error) {
	if err := checkSendTag(tag); err != nil {
		return nil, err
	}
	if err := l.send(buf, dest, tag); err != nil {
		return nil, err
	}

	return completedRequest(types.Status{Source: dest, Tag: tag, Count: len(buf)}, nil), nil
}

func (l *Local) send(buf []int, dest types.Rank, tag types.Tag) error {
	if l.closed.Load() {
		return types.ErrTransportClosed
	}
	if err := checkPeer(dest, l.Size(), false); err != nil {
		return err
	}

	l.boxes[dest].deliver(envelope{src: l.rank, tag: tag, data: slices.Clone(buf)})

	return nil
}

// Recv implements types.Transport.
func (l *Local) Recv(ctx context.Context, buf []int, src types.Rank, tag types.Tag) (types.Status, error) {
	if err := checkRecvTag(tag); err != nil {
		return types.Status{}, err
	}

	return l.recv(ctx, buf, src, tag)
}

func (l *Local) recv(ctx context.Context, buf []int, src types.Rank, tag types.Tag) (types.Status, error) {
	if l.closed.Load() {
		return types.Status{}, types.ErrTransportClosed
	}
	if err := checkPeer(src, l.Size(), true); err != nil {
		return types.Status{}, err
	}

	return l.boxes[l.rank].recv(ctx, buf, src, tag)
}

// Irecv implements types.Transport.
func (l *Local) Irecv(buf []int, src types.Rank, tag types.Tag) (types.Request, error) {
	if err := checkRecvTag(tag); err != nil {
		return nil, err
	}
	if l.closed.Load() {
		return nil, types.ErrTransportClosed
	}
	if err := checkPeer(src, l.Size(), true); err != nil {
		return nil, err
	}

	return l.boxes[l.rank].post(buf, src, tag), nil
}

// BroadcastValue implements types.Transport.
//
// The root sends v to every other rank on a reserved tag. Per-pair ordering keeps
// successive broadcasts apart without generation numbers.
func (l *Local) BroadcastValue(ctx context.Context, v int, root types.Rank) (int, error) {
	if err := checkPeer(root, l.Size(), false); err != nil {
		return 0, err
	}

	if l.rank == root {
		for r := range l.Size() {
			if types.Rank(r) == root {
				continue
			}
			if err := l.send([]int{v}, types.Rank(r), tagBroadcast); err != nil {
				return 0, fmt.Errorf("broadcast to rank %d: %w", r, err)
			}
		}

		return v, nil
	}

	buf := make([]int, 1)
	if _, err := l.recv(ctx, buf, root, tagBroadcast); err != nil {
		return 0, fmt.Errorf("broadcast from rank %s: %w", root, err)
	}

	return buf[0], nil
}

// Barrier implements types.Transport.
//
// Rank 0 gathers one arrival from every other rank, then releases them all.
func (l *Local) Barrier(ctx context.Context) error {
	const hub types.Rank = 0

	if l.rank != hub {
		if err := l.send(nil, hub, tagBarrier); err != nil {
			return fmt.Errorf("barrier arrive: %w", err)
		}
		if _, err := l.recv(ctx, nil, hub, tagBarrier); err != nil {
			return fmt.Errorf("barrier release: %w", err)
		}

		return nil
	}

	for range l.Size() - 1 {
		if _, err := l.recv(ctx, nil, types.AnySource, tagBarrier); err != nil {
			return fmt.Errorf("barrier gather: %w", err)
		}
	}
	for r := 1; r < l.Size(); r++ {
		if err := l.send(nil, types.Rank(r), tagBarrier); err != nil {
			return fmt.Errorf("barrier release to rank %d: %w", r, err)
		}
	}

	return nil
}

// Close implements types.Transport. Pending receives on this rank fail with
// types.ErrTransportClosed. Later sends to this rank are dropped.
func (l *Local) Close() error {
	if l.closed.CompareAndSwap(false, true) {
		l.boxes[l.rank].close()
	}

	return nil
}
