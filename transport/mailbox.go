package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sobulik/fundec/types"
)

// envelope is one inbound message waiting for a matching receive.
type envelope struct {
	src  types.Rank
	tag  types.Tag
	data []int

	// err fails the matching receive instead of delivering data.
	err error
}

type pendingRecv struct {
	buf []int
	src types.Rank
	tag types.Tag
	req *request
}

// mailbox matches inbound messages against posted receives for one rank.
type mailbox struct {
	mu     sync.Mutex
	queue  []envelope
	posted []*pendingRecv
	closed bool
}

func newMailbox() *mailbox {
	return &mailbox{}
}

func accepts(src types.Rank, tag types.Tag, e *envelope) bool {
	return (src == types.AnySource || src == e.src) && tag.Matches(e.tag)
}

// fill copies e into buf and completes req.
func fill(req *request, buf []int, e *envelope) {
	status := types.Status{Source: e.src, Tag: e.tag}
	if e.err != nil {
		req.complete(status, e.err)
		return
	}

	status.Count = copy(buf, e.data)
	if len(e.data) > len(buf) {
		req.complete(status, fmt.Errorf("%w: %d items from rank %s into buffer of %d",
			types.ErrTruncated, len(e.data), e.src, len(buf)))

		return
	}
	req.complete(status, nil)
}

// deliver hands an inbound message to the earliest matching posted receive, or queues it.
// The mailbox takes ownership of e.data.
func (m *mailbox) deliver(e envelope) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}

	for i, p := range m.posted {
		if accepts(p.src, p.tag, &e) {
			m.posted = append(m.posted[:i], m.posted[i+1:]...)
			fill(p.req, p.buf, &e)

			return
		}
	}
	m.queue = append(m.queue, e)
}

// post registers a receive into buf, completing it immediately when a queued message matches.
func (m *mailbox) post(buf []int, src types.Rank, tag types.Tag) *request {
	req := newRequest()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		req.complete(types.Status{}, types.ErrTransportClosed)
		return req
	}

	for i := range m.queue {
		if accepts(src, tag, &m.queue[i]) {
			e := m.queue[i]
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			fill(req, buf, &e)

			return req
		}
	}
	m.posted = append(m.posted, &pendingRecv{buf: buf, src: src, tag: tag, req: req})

	return req
}

// withdraw removes a still-pending receive. It reports false when req already matched.
func (m *mailbox) withdraw(req *request) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, p := range m.posted {
		if p.req == req {
			m.posted = append(m.posted[:i], m.posted[i+1:]...)
			return true
		}
	}

	return false
}

// recv is a blocking receive. A receive abandoned by ctx is withdrawn so it cannot
// swallow a later message.
func (m *mailbox) recv(ctx context.Context, buf []int, src types.Rank, tag types.Tag) (types.Status, error) {
	req := m.post(buf, src, tag)

	status, err := req.Wait(ctx)
	if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		if m.withdraw(req) {
			return types.Status{}, err
		}
		// Matched concurrently with cancellation.
		status, _, err = req.Test()
	}

	return status, err
}

// pending returns the number of queued messages and posted receives.
func (m *mailbox) pending() (queued, posted int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.queue), len(m.posted)
}

// close fails every posted receive with ErrTransportClosed and drops queued messages.
func (m *mailbox) close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.closed = true

	for _, p := range m.posted {
		p.req.complete(types.Status{}, types.ErrTransportClosed)
	}
	m.posted = nil
	m.queue = nil
}
