// Package source provides built-in workload source implementations.
//
// Workload sources supply the items the coordinator distributes.
// The package includes:
//
//   - Static: Fixed list of items
//   - File: Whitespace-separated integers read from a file
//   - Fallback: Substitutes a default workload when the primary source is missing
//
// Custom sources can be implemented by satisfying the types.WorkloadSource interface.
package source
