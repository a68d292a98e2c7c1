package types

// MetricsCollector defines methods for recording operational metrics.
//
// Implementations should be non-blocking and handle failures gracefully.
// Worker methods may be called from several goroutines at once and must be thread-safe.
//
// This interface composes smaller, role-focused interfaces.
type MetricsCollector interface {
	CoordinatorMetrics
	WorkerMetrics
}

// CoordinatorMetrics defines metrics for the dispatch loop.
type CoordinatorMetrics interface {
	// RecordDispatch records a chunk handed out.
	//
	// Parameters:
	//   - worker: Rank that received the chunk (the coordinator for local execution)
	//   - items: Chunk size
	//   - local: true if the coordinator executed the chunk itself
	RecordDispatch(worker Rank, items int, local bool)

	// RecordCompletion records a remote chunk whose results were observed.
	//
	// Parameters:
	//   - worker: Rank that produced the results
	//   - items: Chunk size
	//   - roundTrip: Seconds between dispatch and observed completion
	RecordCompletion(worker Rank, items int, roundTrip float64)

	// RecordPollIteration records one pass of the dispatch loop.
	RecordPollIteration()

	// RecordOutstanding sets the number of in-flight remote assignments (gauge).
	RecordOutstanding(count int)

	// RecordStall records a run aborted because workers stopped replying.
	//
	// Parameters:
	//   - withheld: Number of items never returned
	RecordStall(withheld int)
}

// WorkerMetrics defines metrics recorded by individual worker agents.
type WorkerMetrics interface {
	// RecordChunkProcessed records one chunk scanned by a worker.
	//
	// Parameters:
	//   - worker: Rank of the worker
	//   - items: Number of items scanned
	//   - duration: Kernel time in seconds
	RecordChunkProcessed(worker Rank, items int, duration float64)
}
