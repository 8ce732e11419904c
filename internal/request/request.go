// Package request tracks the execution state of one asynchronous call so
// readers can render "loading", "loaded" and "failed" without owning the call.
package request

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded is returned by Execute when a newer execution already
// completed; the stale outcome is dropped.
var ErrSuperseded = errors.New("request superseded by a newer execution")

// Status is a consistent view of a request. Result and Err are mutually
// exclusive.
type Status[T any] struct {
	IsExecuting bool
	WasExecuted bool
	HasResult   bool
	Result      T
	Err         error
	// Seq is the sequence number of the execution that produced this status.
	Seq uint64
}

// Request wraps a call and records the outcome of its latest completion.
type Request[T any] struct {
	call func(ctx context.Context) (T, error)

	mu       sync.RWMutex
	issued   uint64
	inFlight int
	status   Status[T]
}

// New wraps call. A nil call is allowed when every execution goes through
// Track.
func New[T any](call func(ctx context.Context) (T, error)) *Request[T] {
	return &Request[T]{call: call}
}

// Execute runs the wrapped call. Overlapping executions are allowed; each is
// tagged with a sequence number and a completion older than the last applied
// one returns ErrSuperseded without touching the status.
func (r *Request[T]) Execute(ctx context.Context) (T, error) {
	result, _, err := r.Track(ctx, r.call)
	return result, err
}

// Track runs call as an execution of r and returns the sequence number it was
// tagged with. It lets callers pass per-execution arguments through a closure
// while sharing one status.
func (r *Request[T]) Track(ctx context.Context, call func(ctx context.Context) (T, error)) (T, uint64, error) {
	r.mu.Lock()
	r.issued++
	seq := r.issued
	r.inFlight++
	r.status.IsExecuting = true
	r.mu.Unlock()

	result, err := call(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.inFlight--
	r.status.IsExecuting = r.inFlight > 0
	if seq < r.status.Seq {
		var zero T
		return zero, seq, ErrSuperseded
	}

	r.status.Seq = seq
	r.status.WasExecuted = true
	if err != nil {
		var zero T
		r.status.Result = zero
		r.status.HasResult = false
		r.status.Err = err
		return zero, seq, err
	}
	r.status.Result = result
	r.status.HasResult = true
	r.status.Err = nil
	return result, seq, nil
}

// Status returns the current status.
func (r *Request[T]) Status() Status[T] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// Issued returns the sequence number of the most recently started execution.
func (r *Request[T]) Issued() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.issued
}

// IsExecuting reports whether at least one execution is in flight.
func (r *Request[T]) IsExecuting() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status.IsExecuting
}

// WasExecuted reports whether any execution has completed.
func (r *Request[T]) WasExecuted() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status.WasExecuted
}

// Reset forgets the recorded outcome. Executions still in flight will apply
// their result when they complete.
func (r *Request[T]) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = Status[T]{IsExecuting: r.inFlight > 0, Seq: r.status.Seq}
}
