// Package fundec provides a coordinator/worker dynamic load balancer over message passing.
//
// One rank, the coordinator, owns a workload of integers and hands out chunks to the
// other ranks as they become idle. When every worker is busy the coordinator scans a
// smaller chunk itself. Each item is scanned against a target value and the result
// records which rank found it. Faster ranks simply come back for more work, so no
// static partitioning is needed.
//
// # Quick Start
//
// All ranks in one process, using the in-process transport:
//
//	import (
//	    "github.com/sobulik/fundec"
//	    "github.com/sobulik/fundec/kernel"
//	    "github.com/sobulik/fundec/source"
//	    "github.com/sobulik/fundec/transport"
//	)
//
//	cfg := fundec.DefaultConfig()
//	world, _ := transport.NewLocalWorld(4)
//	for _, tr := range world[1:] {
//	    go fundec.Run(ctx, &cfg, tr, kernel.NewSearch(), nil, 0)
//	}
//	report, err := fundec.Run(ctx, &cfg, world[0], kernel.NewSearch(),
//	    source.NewStatic([]int{9, 4, 9, 2}), 9)
//	for _, line := range report.Lines() {
//	    fmt.Println(line)
//	}
//
// # Protocol
//
// Every rank first takes part in BroadcastValue (the target) and Barrier. After that:
//
//	coordinator → worker   TagWorkStart  chunk of at most MaxRemoteChunk items
//	worker → coordinator   TagCollect    one result per item, same length
//	coordinator → worker   TagShutdown   sent once to every worker at the end
//
// Workers move through WaitingForWork → Processing → Replying → WaitingForWork and end
// in Terminated. The shutdown message is not acknowledged.
//
// # Transports
//
// transport.NewLocalWorld runs every rank as a goroutine. transport.NewNATS runs one rank
// per process over a NATS broker, with collectives on a JetStream KeyValue bucket.
//
// # Failure Model
//
// Lost work is never re-assigned. If assignments are outstanding and nothing completes
// within Config.StallTimeout, Run returns ErrWorkerStalled naming the silent workers.
//
// See the examples/ directory and cmd/fundec for complete programs.
package fundec
