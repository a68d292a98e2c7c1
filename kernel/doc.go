// Package kernel provides types.Kernel implementations.
//
// Search is the pure target scan run by every rank. WithLatency wraps any kernel
// with a random per-chunk delay, which makes workers finish out of order and
// exercises the coordinator's dynamic dispatch.
package kernel
