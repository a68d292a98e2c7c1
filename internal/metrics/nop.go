// Package metrics provides MetricsCollector implementations.
package metrics

import "github.com/sobulik/fundec/types"

// NopMetrics implements a no-op metrics collector.
//
// All metrics are discarded. Useful for testing or when external
// metrics collection is used.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNop creates a new no-op metrics collector.
//
// Example:
//
//	coord, err := fundec.NewCoordinator(&cfg, tr, k, fundec.WithMetrics(metrics.NewNop()))
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

// CoordinatorMetrics implementation

// RecordDispatch discards the dispatch metric.
func (n *NopMetrics) RecordDispatch(_ /* worker */ types.Rank, _ /* items */ int, _ /* local */ bool) {
	// No-op
}

// RecordCompletion discards the completion metric.
func (n *NopMetrics) RecordCompletion(_ /* worker */ types.Rank, _ /* items */ int, _ /* roundTrip */ float64) {
	// No-op
}

// RecordPollIteration discards the poll iteration metric.
func (n *NopMetrics) RecordPollIteration() {
	// No-op
}

// RecordOutstanding discards the outstanding assignment gauge.
func (n *NopMetrics) RecordOutstanding(_ /* count */ int) {
	// No-op
}

// RecordStall discards the stall metric.
func (n *NopMetrics) RecordStall(_ /* withheld */ int) {
	// No-op
}

// WorkerMetrics implementation

// RecordChunkProcessed discards the worker chunk metric.
func (n *NopMetrics) RecordChunkProcessed(_ /* worker */ types.Rank, _ /* items */ int, _ /* duration */ float64) {
	// No-op
}
