// Package kvutil provides the JetStream KeyValue helpers behind the NATS transport's collectives.
package kvutil

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// DefaultBucketTTL bounds how long a finished run's collective keys linger in the broker.
const DefaultBucketTTL = 10 * time.Minute

// BucketName derives the per-run collective bucket name.
//
// Bucket names only allow [A-Za-z0-9_-], so any other character in prefix or runID
// is replaced with '_'.
func BucketName(prefix, runID string) string {
	clean := func(s string) string {
		return strings.Map(func(r rune) rune {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
				return r
			default:
				return '_'
			}
		}, s)
	}

	return clean(prefix) + "_" + clean(runID)
}

// EnsureRunBucket creates or opens the collective bucket shared by every rank of one run.
//
// All ranks call this concurrently at startup, so creation races are expected: when
// another rank wins, the existing bucket is opened instead. Transient failures are
// retried with exponential backoff.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - js: JetStream context
//   - bucket: Bucket name (see BucketName)
//   - ttl: Key time-to-live (DefaultBucketTTL if <= 0)
//   - maxRetries: Maximum number of attempts (default: 3)
//
// Returns:
//   - jetstream.KeyValue: The bucket handle
//   - error: Last error after all attempts failed
func EnsureRunBucket(
	ctx context.Context,
	js jetstream.JetStream,
	bucket string,
	ttl time.Duration,
	maxRetries int,
) (jetstream.KeyValue, error) {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if ttl <= 0 {
		ttl = DefaultBucketTTL
	}

	config := jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "fundec run collectives",
		History:     1,
		TTL:         ttl,
		Storage:     jetstream.MemoryStorage,
	}

	var lastErr error

	for attempt := range maxRetries {
		kv, err := js.CreateKeyValue(ctx, config)
		if err == nil {
			return kv, nil
		}

		if errors.Is(err, jetstream.ErrBucketExists) {
			kv, err := js.KeyValue(ctx, bucket)
			if err == nil {
				return kv, nil
			}
			lastErr = fmt.Errorf("bucket exists but failed to open: %w", err)
		} else {
			lastErr = err
		}

		if ctx.Err() != nil {
			return nil, fmt.Errorf("context cancelled during KV bucket creation: %w", ctx.Err())
		}

		// 10ms, 20ms, 40ms...
		if attempt < maxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * 10 * time.Millisecond //nolint:gosec // attempt is bounded by maxRetries
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return nil, fmt.Errorf("failed to create/open KV bucket %s after %d attempts: %w",
		bucket, maxRetries, lastErr)
}

// DeleteRunBucket removes a run's collective bucket. A missing bucket is not an error.
func DeleteRunBucket(ctx context.Context, js jetstream.JetStream, bucket string) error {
	err := js.DeleteKeyValue(ctx, bucket)
	if err != nil && !errors.Is(err, jetstream.ErrBucketNotFound) {
		return fmt.Errorf("delete KV bucket %s: %w", bucket, err)
	}

	return nil
}
