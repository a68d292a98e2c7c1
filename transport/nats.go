package transport

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/oklog/ulid/v2"
	"github.com/puzpuzpuz/xsync/v4"

	"github.com/sobulik/fundec/internal/kvutil"
	"github.com/sobulik/fundec/internal/logger"
	"github.com/sobulik/fundec/internal/natsutil"
	"github.com/sobulik/fundec/types"
)

// DefaultSubjectPrefix is the first subject token used when NATSConfig.SubjectPrefix is empty.
const DefaultSubjectPrefix = "fundec"

// NATSConfig configures one rank of a NATS-backed world.
type NATSConfig struct {
	// SubjectPrefix namespaces every subject and the collective bucket. Default "fundec".
	SubjectPrefix string

	// RunID isolates concurrent runs on one broker. Every rank of a run must use the
	// same value. See NewRunID.
	RunID string

	// Rank is this process's rank.
	Rank types.Rank

	// Size is the number of ranks in the world.
	Size int

	// BucketTTL bounds how long collective keys live in the broker.
	BucketTTL time.Duration

	// OperationTimeout bounds broker round trips made during setup. Default 5s.
	OperationTimeout time.Duration

	// Logger receives transport diagnostics. Default is a no-op logger.
	Logger types.Logger

	// DeleteBucketOnClose makes Close remove the run's collective bucket. Set it on the
	// coordinator rank, which closes last; the bucket otherwise outlives the run on the
	// broker.
	DeleteBucketOnClose bool
}

// NATSStats is a snapshot of per-peer message counters.
type NATSStats struct {
	Sent      map[types.Rank]int64
	Received  map[types.Rank]int64
	Malformed int64
}

// NATS is a types.Transport where each rank is a separate process sharing a NATS broker.
//
// Point-to-point messages are published to "<prefix>.<runID>.<rank>" and carry their
// source, tag, item count and an xxh3 payload checksum in headers. BroadcastValue and
// Barrier are built on a JetStream KeyValue bucket private to the run.
//
// A NATS value must be driven by a single goroutine. The caller owns the connection.
type NATS struct {
	nc     *nats.Conn
	cfg    NATSConfig
	logger types.Logger

	box    *mailbox
	sub    *nats.Subscription
	js     jetstream.JetStream
	bucket string
	kv     jetstream.KeyValue

	// Collective generation counters; advanced identically on every rank.
	bcastGen   int
	barrierGen int

	sent      *xsync.Map[types.Rank, *xsync.Counter]
	received  *xsync.Map[types.Rank, *xsync.Counter]
	malformed *xsync.Counter

	closed atomic.Bool
}

var _ types.Transport = (*NATS)(nil)

// NewRunID returns a fresh, sortable run identifier suitable for NATSConfig.RunID.
func NewRunID() string {
	return ulid.Make().String()
}

func validSubjectToken(s string) bool {
	return s != "" && !strings.ContainsAny(s, ".*> \t\r\n")
}

// NewNATS joins a run as cfg.Rank.
//
// It subscribes to this rank's subject and opens (or creates) the run's collective
// bucket. Every rank must be constructed before any rank sends to it; entering
// Barrier after NewNATS guarantees that.
//
// Parameters:
//   - ctx: Bounds setup together with cfg.OperationTimeout
//   - nc: Connected NATS client with JetStream available
//   - cfg: Rank, size and run identity
//
// Returns:
//   - *NATS: Ready transport
//   - error: types.ErrTransportRequired, types.ErrInvalidConfig, types.ErrInvalidRank or a broker error
func NewNATS(ctx context.Context, nc *nats.Conn, cfg NATSConfig) (*NATS, error) {
	if nc == nil {
		return nil, types.ErrTransportRequired
	}
	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = DefaultSubjectPrefix
	}
	if cfg.OperationTimeout <= 0 {
		cfg.OperationTimeout = 5 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}
	if !validSubjectToken(cfg.RunID) {
		return nil, fmt.Errorf("%w: run id %q is not a valid subject token", types.ErrInvalidConfig, cfg.RunID)
	}
	if !validSubjectToken(cfg.SubjectPrefix) {
		return nil, fmt.Errorf("%w: subject prefix %q is not a valid subject token", types.ErrInvalidConfig, cfg.SubjectPrefix)
	}
	if cfg.Size < 1 {
		return nil, fmt.Errorf("%w: world size must be >= 1, got %d", types.ErrInvalidConfig, cfg.Size)
	}
	if err := checkPeer(cfg.Rank, cfg.Size, false); err != nil {
		return nil, err
	}

	t := &NATS{
		nc:        nc,
		cfg:       cfg,
		logger:    cfg.Logger,
		box:       newMailbox(),
		sent:      xsync.NewMap[types.Rank, *xsync.Counter](),
		received:  xsync.NewMap[types.Rank, *xsync.Counter](),
		malformed: xsync.NewCounter(),
	}
	for r := range cfg.Size {
		t.sent.Store(types.Rank(r), xsync.NewCounter())
		t.received.Store(types.Rank(r), xsync.NewCounter())
	}

	setupCtx, cancel := context.WithTimeout(ctx, cfg.OperationTimeout)
	defer cancel()

	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", natsutil.Classify(err))
	}
	bucket := kvutil.BucketName(cfg.SubjectPrefix, cfg.RunID)
	t.js, t.bucket = js, bucket
	t.kv, err = kvutil.EnsureRunBucket(setupCtx, js, bucket, cfg.BucketTTL, 5)
	if err != nil {
		return nil, fmt.Errorf("collective bucket: %w", natsutil.Classify(err))
	}

	t.sub, err = nc.Subscribe(t.subject(cfg.Rank), t.handle)
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", natsutil.Classify(err))
	}
	// Queued messages are owned by the mailbox; never let the client drop them.
	if err := t.sub.SetPendingLimits(-1, -1); err != nil {
		_ = t.sub.Unsubscribe()
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	if err := nc.FlushWithContext(setupCtx); err != nil {
		_ = t.sub.Unsubscribe()
		return nil, fmt.Errorf("flush subscription: %w", natsutil.Classify(err))
	}

	t.logger.Debug("joined run",
		"run_id", cfg.RunID,
		"rank", cfg.Rank,
		"size", cfg.Size,
		"subject", t.subject(cfg.Rank),
		"bucket", bucket,
	)

	return t, nil
}

func (t *NATS) subject(r types.Rank) string {
	return t.cfg.SubjectPrefix + "." + t.cfg.RunID + "." + strconv.Itoa(int(r))
}

// handle runs on the subscription's delivery goroutine.
func (t *NATS) handle(msg *nats.Msg) {
	e, err := parseMessage(msg)
	if err != nil {
		t.malformed.Inc()
		t.logger.Warn("dropping malformed message", "subject", msg.Subject, "error", err)

		return
	}
	if c, ok := t.received.Load(e.src); ok {
		c.Inc()
	} else {
		t.malformed.Inc()
		t.logger.Warn("dropping message from unknown rank", "source", e.src, "tag", e.tag)

		return
	}
	if e.err != nil {
		t.logger.Warn("received corrupt message", "source", e.src, "tag", e.tag, "error", e.err)
	}

	t.box.deliver(e)
}

// Rank implements types.Transport.
func (t *NATS) Rank() types.Rank { return t.cfg.Rank }

// Size implements types.Transport.
func (t *NATS) Size() int { return t.cfg.Size }

// RunID returns the run identifier shared by every rank.
func (t *NATS) RunID() string { return t.cfg.RunID }

// Send implements types.Transport. It returns once the message is buffered by the client.
func (t *NATS) Send(ctx context.Context, buf []int, dest types.Rank, tag types.Tag) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return t.publish(buf, dest, tag)
}

// Isend implements types.Transport. The request is complete on return.
func (t *NATS) Isend(buf []int, dest types.Rank, tag types.Tag) (types.Request, error) {
	if err := t.publish(buf, dest, tag); err != nil {
		return nil, err
	}

	return completedRequest(types.Status{Source: dest, Tag: tag, Count: len(buf)}, nil), nil
}

func (t *NATS) publish(buf []int, dest types.Rank, tag types.Tag) error {
	if t.closed.Load() {
		return types.ErrTransportClosed
	}
	if err := checkSendTag(tag); err != nil {
		return err
	}
	if err := checkPeer(dest, t.cfg.Size, false); err != nil {
		return err
	}

	if err := t.nc.PublishMsg(newMessage(t.subject(dest), t.cfg.Rank, tag, buf)); err != nil {
		return fmt.Errorf("publish to rank %s: %w", dest, natsutil.Classify(err))
	}
	if c, ok := t.sent.Load(dest); ok {
		c.Inc()
	}

	return nil
}

// Recv implements types.Transport.
func (t *NATS) Recv(ctx context.Context, buf []int, src types.Rank, tag types.Tag) (types.Status, error) {
	if t.closed.Load() {
		return types.Status{}, types.ErrTransportClosed
	}
	if err := checkRecvTag(tag); err != nil {
		return types.Status{}, err
	}
	if err := checkPeer(src, t.cfg.Size, true); err != nil {
		return types.Status{}, err
	}

	return t.box.recv(ctx, buf, src, tag)
}

// Irecv implements types.Transport.
func (t *NATS) Irecv(buf []int, src types.Rank, tag types.Tag) (types.Request, error) {
	if t.closed.Load() {
		return nil, types.ErrTransportClosed
	}
	if err := checkRecvTag(tag); err != nil {
		return nil, err
	}
	if err := checkPeer(src, t.cfg.Size, true); err != nil {
		return nil, err
	}

	return t.box.post(buf, src, tag), nil
}

// BroadcastValue implements types.Transport.
//
// The root writes key "bcast.<gen>"; other ranks watch for it. Each call advances the
// generation on every rank.
func (t *NATS) BroadcastValue(ctx context.Context, v int, root types.Rank) (int, error) {
	if t.closed.Load() {
		return 0, types.ErrTransportClosed
	}
	if err := checkPeer(root, t.cfg.Size, false); err != nil {
		return 0, err
	}

	key := "bcast." + strconv.Itoa(t.bcastGen)
	t.bcastGen++

	if t.cfg.Rank == root {
		if _, err := t.kv.Put(ctx, key, []byte(strconv.Itoa(v))); err != nil {
			return 0, fmt.Errorf("broadcast put: %w", natsutil.Classify(err))
		}

		return v, nil
	}

	raw, err := kvutil.WaitForKey(ctx, t.kv, key)
	if err != nil {
		return 0, fmt.Errorf("broadcast wait: %w", natsutil.Classify(err))
	}
	got, err := strconv.Atoi(string(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: broadcast value %q", types.ErrMalformedMessage, raw)
	}

	return got, nil
}

// Barrier implements types.Transport.
//
// Each rank writes "barrier.<gen>.<rank>" and waits until Size such keys exist. A rank
// still waiting when the coordinator deletes the run bucket is released.
func (t *NATS) Barrier(ctx context.Context) error {
	if t.closed.Load() {
		return types.ErrTransportClosed
	}

	prefix := "barrier." + strconv.Itoa(t.barrierGen)
	t.barrierGen++

	if _, err := t.kv.Put(ctx, prefix+"."+strconv.Itoa(int(t.cfg.Rank)), []byte{1}); err != nil {
		return fmt.Errorf("barrier put: %w", natsutil.Classify(err))
	}
	err := kvutil.WaitForKeys(ctx, t.kv, prefix+".*", t.cfg.Size)
	if errors.Is(err, kvutil.ErrBucketDeleted) {
		// Only the coordinator deletes the bucket, and only after every rank arrived.
		t.logger.Debug("collective bucket deleted during barrier, treating as released", "barrier", prefix)
		return nil
	}
	if err != nil {
		return fmt.Errorf("barrier wait: %w", natsutil.Classify(err))
	}

	return nil
}

// Stats returns a snapshot of per-peer message counters.
func (t *NATS) Stats() NATSStats {
	s := NATSStats{
		Sent:      make(map[types.Rank]int64, t.cfg.Size),
		Received:  make(map[types.Rank]int64, t.cfg.Size),
		Malformed: t.malformed.Value(),
	}
	t.sent.Range(func(r types.Rank, c *xsync.Counter) bool {
		s.Sent[r] = c.Value()
		return true
	})
	t.received.Range(func(r types.Rank, c *xsync.Counter) bool {
		s.Received[r] = c.Value()
		return true
	})

	return s
}

// Close implements types.Transport. It unsubscribes and fails pending receives with
// types.ErrTransportClosed. With NATSConfig.DeleteBucketOnClose it also deletes the
// run's collective bucket. The NATS connection stays open.
func (t *NATS) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}

	var errs []error
	if t.sub != nil {
		if err := t.sub.Unsubscribe(); err != nil && !types.IsTransportClosedError(err) {
			errs = append(errs, fmt.Errorf("unsubscribe: %w", err))
		}
	}
	t.box.close()

	if t.cfg.DeleteBucketOnClose {
		ctx, cancel := context.WithTimeout(context.Background(), t.cfg.OperationTimeout)
		defer cancel()
		if err := kvutil.DeleteRunBucket(ctx, t.js, t.bucket); err != nil {
			errs = append(errs, natsutil.Classify(err))
		} else {
			t.logger.Debug("deleted collective bucket", "bucket", t.bucket)
		}
	}

	return errors.Join(errs...)
}
