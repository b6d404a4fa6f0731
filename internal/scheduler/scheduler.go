package scheduler

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/panics"

	"mysteryd/internal/backend"
	"mysteryd/internal/stats"
)

// Default policy values applied when Config.Defaults leaves them zero.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 500 * time.Millisecond
)

// Load is a point-in-time view of the scheduler's queues.
type Load = stats.Load

// Config configures a Scheduler.
type Config struct {
	// Concurrency bounds the number of attempts in flight. Must be positive.
	Concurrency int
	// BaseDelay is the backoff unit between attempts. Zero retries immediately.
	BaseDelay time.Duration
	// MaxDelay caps a single backoff wait; zero means uncapped.
	MaxDelay time.Duration
	Backoff  Backoff
	// Defaults is returned by DefaultPolicy. Zero fields get package defaults.
	Defaults  Policy
	Stats     *stats.Collector
	Publisher EventPublisher
	Logger    zerolog.Logger
}

func (c *Config) normalize() error {
	if c.Concurrency <= 0 {
		return &ConfigError{Field: "concurrency", Reason: "must be positive"}
	}
	if c.BaseDelay < 0 {
		return &ConfigError{Field: "base_delay", Reason: "must not be negative"}
	}
	if c.MaxDelay < 0 {
		return &ConfigError{Field: "max_delay", Reason: "must not be negative"}
	}
	b, err := ParseBackoff(string(c.Backoff))
	if err != nil {
		return &ConfigError{Field: "backoff", Reason: err.Error()}
	}
	c.Backoff = b
	if c.Defaults.Timeout == 0 {
		c.Defaults.Timeout = DefaultTimeout
	}
	if c.Defaults.MaxAttempts == 0 {
		c.Defaults.MaxAttempts = DefaultMaxAttempts
	}
	if err := c.Defaults.Validate(); err != nil {
		return err
	}
	if c.Stats == nil {
		c.Stats = stats.New()
	}
	if c.Publisher == nil {
		c.Publisher = noopPublisher{}
	}
	return nil
}

type attemptResult struct {
	item    *WorkItem
	attempt int
	value   any
	err     error
}

// Scheduler admits work items into a priority queue and runs them with
// bounded concurrency, per-attempt timeouts and retries.
//
// All queue state is owned by a single dispatcher goroutine; public methods
// talk to it over channels.
type Scheduler struct {
	cfg   Config
	log   zerolog.Logger
	stats *stats.Collector
	pub   EventPublisher

	submitCh  chan *WorkItem
	resultCh  chan attemptResult
	requeueCh chan *WorkItem
	cancelCh  chan *WorkItem
	drainCh   chan chan int
	closeCh   chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	attempts  sync.WaitGroup

	// dispatcher-owned
	pending  pendingQueue
	waiting  map[*WorkItem]*time.Timer
	running  map[*WorkItem]struct{}
	seq      uint64
	inFlight int
	closing  bool

	nPending  atomic.Int64
	nWaiting  atomic.Int64
	nInFlight atomic.Int64
}

// New validates cfg and starts the dispatcher.
func New(cfg Config) (*Scheduler, error) {
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	s := &Scheduler{
		cfg:       cfg,
		log:       cfg.Logger.With().Str("component", "scheduler").Logger(),
		stats:     cfg.Stats,
		pub:       cfg.Publisher,
		submitCh:  make(chan *WorkItem),
		resultCh:  make(chan attemptResult, cfg.Concurrency),
		requeueCh: make(chan *WorkItem),
		cancelCh:  make(chan *WorkItem),
		drainCh:   make(chan chan int),
		closeCh:   make(chan struct{}),
		done:      make(chan struct{}),
		waiting:   make(map[*WorkItem]*time.Timer),
		running:   make(map[*WorkItem]struct{}),
	}
	go s.loop()
	return s, nil
}

// DefaultPolicy returns the configured default policy.
func (s *Scheduler) DefaultPolicy() Policy { return s.cfg.Defaults }

// Stats returns the collector outcomes are recorded into.
func (s *Scheduler) Stats() *stats.Collector { return s.stats }

// CurrentLoad reports queue sizes as of the dispatcher's last transition.
func (s *Scheduler) CurrentLoad() Load {
	return Load{
		Pending:          int(s.nPending.Load()),
		Retrying:         int(s.nWaiting.Load()),
		InFlight:         int(s.nInFlight.Load()),
		ConcurrencyLimit: s.cfg.Concurrency,
	}
}

// Submit enqueues action under policy p. Validation errors are returned
// synchronously; every accepted item eventually settles its Future exactly
// once. Cancelling ctx removes a queued item or aborts its running attempt
// without retry.
func (s *Scheduler) Submit(ctx context.Context, p Policy, action Action) (*Future, error) {
	if action == nil {
		return nil, &ConfigError{Field: "action", Reason: "must not be nil"}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-s.closeCh:
		return nil, ErrClosed
	default:
	}
	id := uuid.NewString()
	it := &WorkItem{
		ID:          id,
		Priority:    p.Priority,
		Timeout:     p.Timeout,
		MaxAttempts: p.MaxAttempts,
		SubmittedAt: time.Now(),
		action:      action,
		ctx:         ctx,
		fut:         newFuture(id),
		index:       -1,
	}
	select {
	case s.submitCh <- it:
		return it.fut, nil
	case <-s.closeCh:
		return nil, ErrClosed
	case <-s.done:
		return nil, ErrClosed
	}
}

// Run submits and waits for the outcome.
func (s *Scheduler) Run(ctx context.Context, p Policy, action Action) (any, error) {
	f, err := s.Submit(ctx, p, action)
	if err != nil {
		return nil, err
	}
	return f.Result()
}

// Do is Run with a typed result.
func Do[T any](ctx context.Context, s *Scheduler, p Policy, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	v, err := s.Run(ctx, p, func(ctx context.Context) (any, error) { return fn(ctx) })
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("scheduler: result is %T, want %T", v, zero)
	}
	return t, nil
}

// Drain rejects every queued and backoff-waiting item with ErrDrained and
// stops in-flight items from retrying. The scheduler keeps accepting new
// work. It returns the number of rejected items.
func (s *Scheduler) Drain() int {
	reply := make(chan int, 1)
	select {
	case s.drainCh <- reply:
		return <-reply
	case <-s.done:
		return 0
	}
}

// Close rejects queued work with ErrClosed, waits for in-flight attempts to
// settle and stops the dispatcher. Later submissions fail with ErrClosed.
func (s *Scheduler) Close() error {
	s.closeOnce.Do(func() { close(s.closeCh) })
	<-s.done
	s.attempts.Wait()
	return nil
}

func (s *Scheduler) loop() {
	defer close(s.done)
	closeCh := s.closeCh
	for {
		select {
		case it := <-s.submitCh:
			s.accept(it)
		case r := <-s.resultCh:
			s.finish(r)
		case it := <-s.requeueCh:
			s.requeue(it)
		case it := <-s.cancelCh:
			s.cancel(it)
		case reply := <-s.drainCh:
			reply <- s.drain(ErrDrained)
		case <-closeCh:
			closeCh = nil
			s.closing = true
			if n := s.drain(ErrClosed); n > 0 {
				s.log.Info().Int("rejected", n).Msg("closing scheduler")
			}
		}
		s.dispatch()
		s.publishLoad()
		if s.closing && s.inFlight == 0 {
			return
		}
	}
}

func (s *Scheduler) accept(it *WorkItem) {
	if s.closing {
		it.state = stateDone
		it.fut.settle(nil, ErrClosed)
		return
	}
	it.stopCancel = context.AfterFunc(it.ctx, func() {
		select {
		case s.cancelCh <- it:
		case <-s.done:
		}
	})
	s.push(it)
	s.pub.Publish(Event{Name: EventSubmitted, ItemID: it.ID, Priority: it.Priority})
	s.log.Debug().Str("item", it.ID).Int("priority", it.Priority).Msg("item submitted")
}

func (s *Scheduler) push(it *WorkItem) {
	s.seq++
	it.seq = s.seq
	it.state = statePending
	heap.Push(&s.pending, it)
}

func (s *Scheduler) dispatch() {
	for !s.closing && s.inFlight < s.cfg.Concurrency && s.pending.Len() > 0 {
		it := heap.Pop(&s.pending).(*WorkItem)
		it.state = stateInFlight
		it.AttemptsMade++
		s.inFlight++
		s.running[it] = struct{}{}
		s.pub.Publish(Event{Name: EventDispatched, ItemID: it.ID, Priority: it.Priority, Attempt: it.AttemptsMade})
		s.log.Debug().Str("item", it.ID).Int("priority", it.Priority).Int("attempt", it.AttemptsMade).Msg("dispatch")
		s.attempts.Add(1)
		go s.runAttempt(it, it.AttemptsMade)
	}
}

// runAttempt races one action call against the attempt deadline. An action
// that settles after the deadline is ignored.
func (s *Scheduler) runAttempt(it *WorkItem, attempt int) {
	defer s.attempts.Done()
	ctx, cancel := context.WithTimeout(it.ctx, it.Timeout)
	defer cancel()

	out := make(chan attemptResult, 1)
	go func() {
		var r attemptResult
		var pc panics.Catcher
		pc.Try(func() { r.value, r.err = it.action(ctx) })
		if rec := pc.Recovered(); rec != nil {
			r.value, r.err = nil, backend.Permanent("action", rec.AsError())
		}
		out <- r
	}()

	var r attemptResult
	select {
	case r = <-out:
	case <-ctx.Done():
		if err := it.ctx.Err(); err != nil {
			r.err = err
		} else {
			r.err = &backend.TimeoutError{After: it.Timeout}
		}
	}
	r.item, r.attempt = it, attempt
	s.resultCh <- r
}

func (s *Scheduler) finish(r attemptResult) {
	it := r.item
	s.inFlight--
	delete(s.running, it)
	if r.err == nil {
		s.settle(it, r.value, nil)
		return
	}
	if s.retryable(it, r.err) {
		s.scheduleRetry(it, r.err)
		return
	}
	s.settle(it, nil, r.err)
}

func (s *Scheduler) retryable(it *WorkItem, err error) bool {
	if it.noRetry || s.closing || it.ctx.Err() != nil {
		return false
	}
	return it.AttemptsMade < it.MaxAttempts && backend.IsRetryable(err)
}

func (s *Scheduler) scheduleRetry(it *WorkItem, cause error) {
	s.stats.RecordRetry()
	delay := retryDelay(s.cfg.Backoff, s.cfg.BaseDelay, s.cfg.MaxDelay, it.AttemptsMade)
	it.state = stateWaiting
	s.waiting[it] = time.AfterFunc(delay, func() {
		select {
		case s.requeueCh <- it:
		case <-s.done:
		}
	})
	s.pub.Publish(Event{Name: EventRetry, ItemID: it.ID, Priority: it.Priority, Attempt: it.AttemptsMade,
		Fields: map[string]any{"delay": delay, "error": cause.Error()}})
	s.log.Warn().Err(cause).Str("item", it.ID).Int("attempt", it.AttemptsMade).
		Int("max_attempts", it.MaxAttempts).Dur("delay", delay).Msg("attempt failed, retrying")
}

func (s *Scheduler) requeue(it *WorkItem) {
	if _, ok := s.waiting[it]; !ok {
		return
	}
	delete(s.waiting, it)
	s.push(it)
}

// cancel handles the submitter's context ending. Running attempts observe
// the same context and settle through finish.
func (s *Scheduler) cancel(it *WorkItem) {
	switch it.state {
	case statePending:
		heap.Remove(&s.pending, it.index)
	case stateWaiting:
		s.waiting[it].Stop()
		delete(s.waiting, it)
	default:
		return
	}
	s.reject(it, it.ctx.Err())
}

func (s *Scheduler) drain(cause error) int {
	n := 0
	for s.pending.Len() > 0 {
		s.reject(heap.Pop(&s.pending).(*WorkItem), cause)
		n++
	}
	for it, t := range s.waiting {
		t.Stop()
		delete(s.waiting, it)
		s.reject(it, cause)
		n++
	}
	for it := range s.running {
		it.noRetry = true
	}
	if n > 0 && errors.Is(cause, ErrDrained) {
		s.log.Info().Int("rejected", n).Int("in_flight", s.inFlight).Msg("scheduler drained")
	}
	return n
}

// reject settles an item that never reached a terminal attempt. Rejections
// are not counted as outcomes.
func (s *Scheduler) reject(it *WorkItem, cause error) {
	it.state = stateDone
	if it.stopCancel != nil {
		it.stopCancel()
	}
	it.fut.settle(nil, cause)
	s.pub.Publish(Event{Name: EventRejected, ItemID: it.ID, Priority: it.Priority, Attempt: it.AttemptsMade,
		Fields: map[string]any{"error": cause.Error()}})
}

func (s *Scheduler) settle(it *WorkItem, v any, err error) {
	it.state = stateDone
	if it.stopCancel != nil {
		it.stopCancel()
	}
	s.stats.RecordOutcome(err == nil, time.Since(it.SubmittedAt))
	it.fut.settle(v, err)
	ev := Event{Name: EventSucceeded, ItemID: it.ID, Priority: it.Priority, Attempt: it.AttemptsMade}
	if err != nil {
		ev.Name = EventFailed
		ev.Fields = map[string]any{"error": err.Error(), "class": backend.Classify(err).String()}
		s.log.Warn().Err(err).Str("item", it.ID).Int("attempts", it.AttemptsMade).Msg("item failed")
	} else {
		s.log.Info().Str("item", it.ID).Int("attempts", it.AttemptsMade).Msg("item succeeded")
	}
	s.pub.Publish(ev)
}

func (s *Scheduler) publishLoad() {
	s.nInFlight.Store(int64(s.inFlight))
	s.nPending.Store(int64(s.pending.Len()))
	s.nWaiting.Store(int64(len(s.waiting)))
}
