// Package batch splits work into chunks and runs them on a bounded worker pool.
//
// Run executes one function per chunk with at most Concurrency chunks in flight and
// returns an Outcome per chunk in chunk order, regardless of completion order. A failing
// chunk is recorded in its Outcome and does not stop the others unless FailFast is set,
// in which case the first error cancels the shared context and is returned.
//
// An optional rate.Limiter paces chunk starts toward the collaborator.
package batch
