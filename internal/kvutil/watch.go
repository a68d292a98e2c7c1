package kvutil

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// ErrBucketDeleted is returned by WaitForKeys when the bucket disappears while waiting.
var ErrBucketDeleted = errors.New("KV bucket deleted")

// bucketCheckInterval is how often WaitForKeys confirms the bucket still exists.
const bucketCheckInterval = 200 * time.Millisecond

// bucketGone reports whether kv's backing stream no longer exists.
func bucketGone(ctx context.Context, kv jetstream.KeyValue) bool {
	_, err := kv.Status(ctx)

	return errors.Is(err, jetstream.ErrStreamNotFound) || errors.Is(err, jetstream.ErrBucketNotFound)
}

// WaitForKey blocks until key exists in kv and returns its value.
//
// A value written before the call is delivered from the watcher's initial replay, so
// the order of Put and WaitForKey across ranks does not matter.
func WaitForKey(ctx context.Context, kv jetstream.KeyValue, key string) ([]byte, error) {
	w, err := kv.Watch(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", key, err)
	}
	defer func() { _ = w.Stop() }()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case entry, ok := <-w.Updates():
			if !ok {
				return nil, fmt.Errorf("watch %s: watcher closed", key)
			}
			// nil marks the end of the initial replay.
			if entry == nil || entry.Operation() != jetstream.KeyValuePut {
				continue
			}

			return entry.Value(), nil
		}
	}
}

// WaitForKeys blocks until at least n distinct keys matching pattern exist in kv.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - kv: Bucket to watch
//   - pattern: Key subject pattern, e.g. "barrier.3.*"
//   - n: Number of distinct keys to wait for
//
// A deleted bucket does not always close the watcher, so the bucket is checked
// periodically and ErrBucketDeleted returned once it is gone.
//
// Returns:
//   - error: ctx.Err() on cancellation, ErrBucketDeleted, or a watch failure
func WaitForKeys(ctx context.Context, kv jetstream.KeyValue, pattern string, n int) error {
	if n <= 0 {
		return nil
	}

	w, err := kv.Watch(ctx, pattern)
	if err != nil {
		return fmt.Errorf("watch %s: %w", pattern, err)
	}
	defer func() { _ = w.Stop() }()

	ticker := time.NewTicker(bucketCheckInterval)
	defer ticker.Stop()

	seen := make(map[string]struct{}, n)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if bucketGone(ctx, kv) {
				return fmt.Errorf("watch %s: %w", pattern, ErrBucketDeleted)
			}
		case entry, ok := <-w.Updates():
			if !ok {
				if bucketGone(ctx, kv) {
					return fmt.Errorf("watch %s: %w", pattern, ErrBucketDeleted)
				}

				return fmt.Errorf("watch %s: watcher closed", pattern)
			}
			if entry == nil || entry.Operation() != jetstream.KeyValuePut {
				continue
			}

			seen[entry.Key()] = struct{}{}
			if len(seen) >= n {
				return nil
			}
		}
	}
}
