// Package engine runs dispatch work on a single goroutine.
//
// Session deliveries, host callbacks and periodic ticks are posted to a Loop
// as tasks. The loop runs them one at a time in FIFO order, so translators
// and the dispatcher never need locks.
//
// Two ways to drive a Loop:
//
//   - Run blocks on its own goroutine until the context is cancelled or
//     Stop is called. This is how the CLI hosts a live session.
//   - Drain runs every queued task on the caller's goroutine and returns.
//     Scenario tests use it to step the system deterministically.
//
// Every task is stamped with a seq from the loop's Clock. Seqs are logical;
// wall-clock time is never used for ordering.
package engine
