// Package types provides core type definitions and interfaces for the fundec library.
//
// This package contains shared types that are used across multiple packages in the
// library. By keeping these types in a separate package, we avoid import cycles
// between the root fundec package and its transport, kernel and internal implementations.
//
// Key types:
//   - Rank, Tag, Status: Message-passing addressing
//   - Transport, Request: Point-to-point and collective primitives
//   - Kernel: Per-chunk computation
//   - Assignment, Hit: Dispatch records and reported matches
//   - WorkerState: Worker agent lifecycle state
//   - Logger: Structured logging interface
//   - MetricsCollector: Metrics recording interface
package types
