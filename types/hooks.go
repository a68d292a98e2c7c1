package types

import "context"

// Hooks defines callbacks for dispatch and worker lifecycle events.
//
// All hooks are optional. They are invoked synchronously on the goroutine that owns
// the event (the coordinator loop or a worker loop), so they must return quickly.
// Hook errors are logged but never fail a run.
//
// Example:
//
//	var seen []fundec.Assignment
//	hooks := &fundec.Hooks{
//	    OnAssignment: func(ctx context.Context, a fundec.Assignment) error {
//	        seen = append(seen, a)
//	        return nil
//	    },
//	}
type Hooks struct {
	// OnAssignment is called when a range is handed to a worker or executed locally.
	OnAssignment func(ctx context.Context, a Assignment) error

	// OnCompletion is called when a range's results are observed by the coordinator.
	// Local ranges complete immediately after OnAssignment.
	OnCompletion func(ctx context.Context, a Assignment) error

	// OnStateChanged is called when a worker agent transitions state.
	OnStateChanged func(ctx context.Context, rank Rank, from, to WorkerState) error
}
