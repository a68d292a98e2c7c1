package transport

import (
	"context"
	"sync"

	"github.com/sobulik/fundec/types"
)

// request is the types.Request handed out by Isend and Irecv.
type request struct {
	done   chan struct{}
	once   sync.Once
	status types.Status
	err    error
}

var _ types.Request = (*request)(nil)

func newRequest() *request {
	return &request{done: make(chan struct{})}
}

// completedRequest returns a request that is already finished.
func completedRequest(status types.Status, err error) *request {
	r := newRequest()
	r.complete(status, err)

	return r
}

// complete finishes the request. Only the first call has any effect.
func (r *request) complete(status types.Status, err error) {
	r.once.Do(func() {
		r.status = status
		r.err = err
		close(r.done)
	})
}

// Test implements types.Request.
func (r *request) Test() (types.Status, bool, error) {
	select {
	case <-r.done:
		return r.status, true, r.err
	default:
		return types.Status{}, false, nil
	}
}

// Wait implements types.Request.
func (r *request) Wait(ctx context.Context) (types.Status, error) {
	select {
	case <-r.done:
		return r.status, r.err
	case <-ctx.Done():
		return types.Status{}, ctx.Err()
	}
}
