package scheduler

import (
	"context"
	"time"
)

// Action performs one backend call. ctx carries the attempt deadline and
// the submitter's cancellation.
type Action func(ctx context.Context) (any, error)

// Policy is the per-submission scheduling contract.
type Policy struct {
	// Priority orders dispatch; higher first. Any value is valid.
	Priority int
	// Timeout bounds a single attempt. Must be positive.
	Timeout time.Duration
	// MaxAttempts counts the first try plus retries. Must be at least 1.
	MaxAttempts int
}

// Validate rejects policies that must never be enqueued.
func (p Policy) Validate() error {
	if p.Timeout <= 0 {
		return &ConfigError{Field: "timeout", Reason: "must be positive, got " + p.Timeout.String()}
	}
	if p.MaxAttempts < 1 {
		return &ConfigError{Field: "max_attempts", Reason: "must be at least 1"}
	}
	return nil
}

// WithPriority returns a copy of p with the given priority.
func (p Policy) WithPriority(priority int) Policy {
	p.Priority = priority
	return p
}

type itemState int

const (
	statePending itemState = iota
	stateWaiting
	stateInFlight
	stateDone
)

// WorkItem is one schedulable unit. Fields other than the identity and
// policy are owned by the dispatcher goroutine.
type WorkItem struct {
	ID           string
	Priority     int
	Timeout      time.Duration
	MaxAttempts  int
	AttemptsMade int
	SubmittedAt  time.Time

	action Action
	ctx    context.Context
	fut    *Future

	seq     uint64
	index   int
	state   itemState
	noRetry bool
	// stopCancel unregisters the context.AfterFunc cancellation hook.
	stopCancel func() bool
}

// Future delivers the terminal outcome of a submitted item.
type Future struct {
	id    string
	done  chan struct{}
	value any
	err   error
}

func newFuture(id string) *Future {
	return &Future{id: id, done: make(chan struct{})}
}

// settle is called exactly once, by the dispatcher.
func (f *Future) settle(v any, err error) {
	f.value, f.err = v, err
	close(f.done)
}

// ID is the item's opaque identifier.
func (f *Future) ID() string { return f.id }

// Done is closed once the outcome is available.
func (f *Future) Done() <-chan struct{} { return f.done }

// Result blocks until the outcome is available.
func (f *Future) Result() (any, error) {
	<-f.done
	return f.value, f.err
}

// Wait is Result bounded by ctx. Giving up on ctx does not cancel the item;
// cancel the context passed to Submit for that.
func (f *Future) Wait(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
