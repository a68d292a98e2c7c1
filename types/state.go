package types

// WorkerState represents the worker agent lifecycle state.
//
// Normal operation cycles:
//
//	WaitingForWork → Processing → Replying → WaitingForWork
//
// A shutdown message moves the agent to the absorbing Terminated state.
type WorkerState int

const (
	// WorkerStateIdle is the state before Run is called.
	WorkerStateIdle WorkerState = iota

	// WorkerStateWaitingForWork indicates the agent is blocked on its receive.
	WorkerStateWaitingForWork

	// WorkerStateProcessing indicates the kernel is running over a received chunk.
	WorkerStateProcessing

	// WorkerStateReplying indicates results are being handed back to the coordinator.
	WorkerStateReplying

	// WorkerStateTerminated indicates the agent received shutdown and left its loop.
	WorkerStateTerminated
)

// String returns the string representation of the state.
func (s WorkerState) String() string {
	switch s {
	case WorkerStateIdle:
		return "Idle"
	case WorkerStateWaitingForWork:
		return "WaitingForWork"
	case WorkerStateProcessing:
		return "Processing"
	case WorkerStateReplying:
		return "Replying"
	case WorkerStateTerminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}
