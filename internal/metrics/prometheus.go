package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sobulik/fundec/types"
)

// PrometheusCollector implements types.MetricsCollector backed by Prometheus.
//
// Collectors are created and registered lazily on first use so that constructing a
// collector which is never exercised leaves the registry untouched.
type PrometheusCollector struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	// Coordinator metrics
	chunksDispatched *prometheus.CounterVec
	itemsDispatched  *prometheus.CounterVec
	completions      *prometheus.CounterVec
	roundTrip        prometheus.Histogram
	pollIterations   prometheus.Counter
	outstanding      prometheus.Gauge
	stalls           prometheus.Counter
	withheldItems    prometheus.Counter

	// Worker metrics
	workerChunks   *prometheus.CounterVec
	workerDuration prometheus.Histogram
}

// Compile-time assertion that PrometheusCollector implements MetricsCollector.
var _ types.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheus creates a new Prometheus-backed metrics collector.
//
// Parameters:
//   - reg: Prometheus registerer interface (uses prometheus.DefaultRegisterer if nil)
//   - namespace: Prometheus metrics namespace (defaults to "fundec" if empty)
//
// Returns:
//   - *PrometheusCollector: A MetricsCollector implementation using Prometheus
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "fundec"
	}

	return &PrometheusCollector{reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.chunksDispatched = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "coordinator",
			Name:      "chunks_dispatched_total",
			Help:      "Chunks handed out by kind (remote, local).",
		}, []string{"kind"})

		p.itemsDispatched = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "coordinator",
			Name:      "items_dispatched_total",
			Help:      "Workload items handed out by kind (remote, local).",
		}, []string{"kind"})

		p.completions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "coordinator",
			Name:      "completions_total",
			Help:      "Remote chunks whose results were observed, by worker rank.",
		}, []string{"worker"})

		p.roundTrip = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "coordinator",
			Name:      "chunk_round_trip_seconds",
			Help:      "Time between dispatching a remote chunk and observing its results.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 16), // 100µs .. ~3.3s
		})

		p.pollIterations = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "coordinator",
			Name:      "poll_iterations_total",
			Help:      "Dispatch loop iterations.",
		})

		p.outstanding = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "coordinator",
			Name:      "outstanding_assignments",
			Help:      "Remote assignments dispatched but not yet observed complete.",
		})

		p.stalls = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "coordinator",
			Name:      "stalls_total",
			Help:      "Runs aborted because outstanding workers stopped replying.",
		})

		p.withheldItems = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "coordinator",
			Name:      "withheld_items_total",
			Help:      "Items never returned by stalled workers.",
		})

		p.workerChunks = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "worker",
			Name:      "chunks_processed_total",
			Help:      "Chunks scanned by worker rank.",
		}, []string{"worker"})

		p.workerDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "worker",
			Name:      "chunk_seconds",
			Help:      "Kernel time per chunk in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 12), // 10µs .. ~42s
		})

		p.reg.MustRegister(p.chunksDispatched)
		p.reg.MustRegister(p.itemsDispatched)
		p.reg.MustRegister(p.completions)
		p.reg.MustRegister(p.roundTrip)
		p.reg.MustRegister(p.pollIterations)
		p.reg.MustRegister(p.outstanding)
		p.reg.MustRegister(p.stalls)
		p.reg.MustRegister(p.withheldItems)
		p.reg.MustRegister(p.workerChunks)
		p.reg.MustRegister(p.workerDuration)
	})
}

func dispatchKind(local bool) string {
	if local {
		return "local"
	}

	return "remote"
}

// RecordDispatch increments chunk and item counters for the dispatch kind.
func (p *PrometheusCollector) RecordDispatch(_ types.Rank, items int, local bool) {
	p.ensureRegistered()
	kind := dispatchKind(local)
	p.chunksDispatched.WithLabelValues(kind).Inc()
	p.itemsDispatched.WithLabelValues(kind).Add(float64(items))
}

// RecordCompletion counts a completion and observes its round trip.
func (p *PrometheusCollector) RecordCompletion(worker types.Rank, _ int, roundTrip float64) {
	p.ensureRegistered()
	p.completions.WithLabelValues(worker.String()).Inc()
	p.roundTrip.Observe(roundTrip)
}

// RecordPollIteration increments the loop iteration counter.
func (p *PrometheusCollector) RecordPollIteration() {
	p.ensureRegistered()
	p.pollIterations.Inc()
}

// RecordOutstanding sets the in-flight assignment gauge.
func (p *PrometheusCollector) RecordOutstanding(count int) {
	p.ensureRegistered()
	p.outstanding.Set(float64(count))
}

// RecordStall counts an aborted run and the items it withheld.
func (p *PrometheusCollector) RecordStall(withheld int) {
	p.ensureRegistered()
	p.stalls.Inc()
	p.withheldItems.Add(float64(withheld))
}

// RecordChunkProcessed counts a worker chunk and observes its kernel time.
func (p *PrometheusCollector) RecordChunkProcessed(worker types.Rank, _ int, duration float64) {
	p.ensureRegistered()
	p.workerChunks.WithLabelValues(worker.String()).Inc()
	p.workerDuration.Observe(duration)
}
