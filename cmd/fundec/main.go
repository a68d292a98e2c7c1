// Command fundec searches a workload of integers for a target value, spreading the
// scan over a coordinator and a set of workers.
//
// Usage:
//
//	fundec run 5 --procs 4 --data data.txt
//	fundec run 5 --procs 4 --transport nats
//	fundec rank 5 --rank 1 --size 4 --nats-url nats://127.0.0.1:4222 --run-id 01J...
package main

func main() {
	Execute()
}
