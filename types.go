package fundec

import "github.com/sobulik/fundec/types"

// Re-export types from the types package.
//
// Internal packages depend on types rather than on the root package, which avoids
// import cycles while still giving users fundec.Rank, fundec.Logger and so on.
type (
	Rank        = types.Rank
	Tag         = types.Tag
	Status      = types.Status
	Assignment  = types.Assignment
	Hit         = types.Hit
	WorkerState = types.WorkerState
)

// Re-export interfaces from the types package for convenience.
type (
	Transport        = types.Transport
	Request          = types.Request
	Kernel           = types.Kernel
	KernelFunc       = types.KernelFunc
	WorkloadSource   = types.WorkloadSource
	MetricsCollector = types.MetricsCollector
	Logger           = types.Logger
	Hooks            = types.Hooks
)

// Re-export constants from the types package.
const (
	AnySource = types.AnySource
	AnyTag    = types.AnyTag
	NotFound  = types.NotFound

	TagWorkStart = types.TagWorkStart
	TagCollect   = types.TagCollect
	TagShutdown  = types.TagShutdown

	WorkerStateIdle           = types.WorkerStateIdle
	WorkerStateWaitingForWork = types.WorkerStateWaitingForWork
	WorkerStateProcessing     = types.WorkerStateProcessing
	WorkerStateReplying       = types.WorkerStateReplying
	WorkerStateTerminated     = types.WorkerStateTerminated
)
