package manager

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"mysteryd/internal/backend"
	"mysteryd/internal/gate"
	"mysteryd/internal/scheduler"
	"mysteryd/pkg/types"
)

func newTestManager(t *testing.T, mock *backend.Mock, concurrency int) *Manager {
	t.Helper()
	m, err := New(Config{
		Backend: mock,
		GateTTL: time.Minute,
		Scheduler: scheduler.Config{
			Concurrency: concurrency,
			BaseDelay:   time.Millisecond,
			Defaults:    scheduler.Policy{Timeout: time.Second, MaxAttempts: 3},
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestNew_RequiresBackend(t *testing.T) {
	if _, err := New(Config{Scheduler: scheduler.Config{Concurrency: 1}}); err == nil {
		t.Fatal("want error without backend")
	}
}

func TestNew_PropagatesSchedulerConfigError(t *testing.T) {
	_, err := New(Config{Backend: backend.NewMock(backend.MockConfig{})})
	if !scheduler.IsConfigError(err) {
		t.Fatalf("want config error for zero concurrency, got %v", err)
	}
}

func TestNarrate_Success(t *testing.T) {
	mock := backend.NewMock(backend.MockConfig{Model: "m1"})
	m := newTestManager(t, mock, 2)
	gen, err := m.Narrate(context.Background(), backend.NarrativeContext{Scene: "The study", Instructions: "Describe the body."}, m.DefaultPolicy())
	if err != nil {
		t.Fatalf("Narrate: %v", err)
	}
	if !strings.HasPrefix(gen.Text, "mock: ") || gen.ModelID != "m1" {
		t.Fatalf("unexpected generation %+v", gen)
	}
	if s := m.Stats(); s.TotalSucceeded != 1 {
		t.Fatalf("stats = %+v", s)
	}
	if !m.Ready() {
		t.Fatal("manager should be ready after an available verdict")
	}
}

func TestNarrate_UnavailableShortCircuits(t *testing.T) {
	mock := backend.NewMock(backend.MockConfig{})
	mock.SetProbe(backend.ProbeResult{Available: false, Reason: "quota exceeded"}, nil)
	m := newTestManager(t, mock, 1)

	for i := 0; i < 3; i++ {
		_, err := m.Narrate(context.Background(), backend.NarrativeContext{Scene: "x"}, m.DefaultPolicy())
		if !gate.IsUnavailable(err) || !IsUnavailable(err) {
			t.Fatalf("want unavailable, got %v", err)
		}
		if gate.Reason(err) != "quota exceeded" {
			t.Fatalf("reason = %q", gate.Reason(err))
		}
	}
	if mock.Probes() != 1 {
		t.Fatalf("probes = %d, want 1 (negative verdict cached)", mock.Probes())
	}
	if mock.Calls() != 0 {
		t.Fatalf("backend invoked %d times behind a negative verdict", mock.Calls())
	}
	if s := m.Stats(); s.TotalCompleted != 0 {
		t.Fatalf("nothing should reach the scheduler: %+v", s)
	}
	if m.Ready() {
		t.Fatal("Ready with a negative verdict")
	}

	mock.SetProbe(backend.ProbeResult{Available: true}, nil)
	st, err := m.CheckAvailability(context.Background(), true)
	if err != nil || !st.Available {
		t.Fatalf("forced check: %+v %v", st, err)
	}
}

func TestRetriesAreInvisibleToCaller(t *testing.T) {
	var calls atomic.Int32
	mock := backend.NewMock(backend.MockConfig{Reply: func(msgs []backend.Message) (string, error) {
		if calls.Add(1) < 3 {
			return "", backend.Transient("mock", errors.New("connection reset"))
		}
		return "third time", nil
	}})
	m := newTestManager(t, mock, 1)
	got, err := m.Closing(context.Background(), backend.NarrativeContext{Scene: "x"}, m.DefaultPolicy())
	if err != nil || got != "third time" {
		t.Fatalf("got %q err %v", got, err)
	}
	if s := m.Stats(); s.TotalRetries != 2 || s.TotalSucceeded != 1 {
		t.Fatalf("stats = %+v", s)
	}
}

func TestExhaustedRetriesReturnLastError(t *testing.T) {
	mock := backend.NewMock(backend.MockConfig{FailureRate: 1})
	m := newTestManager(t, mock, 1)
	p := m.DefaultPolicy()
	p.MaxAttempts = 2
	_, err := m.Invoke(context.Background(), []backend.Message{{Role: backend.RoleUser, Content: "hi"}}, backend.InvokeOptions{}, p)
	if !errors.Is(err, backend.ErrInjected) || backend.Classify(err) != backend.ClassTransient {
		t.Fatalf("want injected transient error, got %v", err)
	}
	if mock.Calls() != 2 {
		t.Fatalf("calls = %d", mock.Calls())
	}
}

func TestSummarize_Validation(t *testing.T) {
	m := newTestManager(t, backend.NewMock(backend.MockConfig{}), 1)
	if _, err := m.Summarize(context.Background(), "  ", m.DefaultPolicy()); !IsBadRequest(err) {
		t.Fatalf("want bad request, got %v", err)
	}
	if _, err := m.Invoke(context.Background(), nil, backend.InvokeOptions{}, m.DefaultPolicy()); !IsBadRequest(err) {
		t.Fatalf("want bad request, got %v", err)
	}
	p := m.DefaultPolicy()
	p.Timeout = -time.Second
	if _, err := m.Summarize(context.Background(), "text", p); !IsBadRequest(err) {
		t.Fatalf("invalid policy: want bad request, got %v", err)
	}
}

func TestSummarizeBatch_KeepsInputOrder(t *testing.T) {
	mock := backend.NewMock(backend.MockConfig{
		Latency: 2 * time.Millisecond,
		Reply: func(msgs []backend.Message) (string, error) {
			return "sum:" + msgs[len(msgs)-1].Content, nil
		},
	})
	m := newTestManager(t, mock, 3)
	texts := []string{"alpha", "bravo", "charlie", "delta", "echo", "foxtrot"}
	out, err := m.SummarizeBatch(context.Background(), texts, m.DefaultPolicy())
	if err != nil {
		t.Fatalf("SummarizeBatch: %v", err)
	}
	if len(out) != len(texts) {
		t.Fatalf("len = %d", len(out))
	}
	for i, s := range out {
		if s != "sum:"+texts[i] {
			t.Fatalf("out[%d] = %q", i, s)
		}
	}
	if mock.Probes() != 1 {
		t.Fatalf("batch should probe once, got %d", mock.Probes())
	}

	if out, err := m.SummarizeBatch(context.Background(), nil, m.DefaultPolicy()); err != nil || out != nil {
		t.Fatalf("empty batch: %v %v", out, err)
	}
	if _, err := m.SummarizeBatch(context.Background(), []string{"a", ""}, m.DefaultPolicy()); !IsBadRequest(err) {
		t.Fatalf("want bad request, got %v", err)
	}
}

func TestSummarizeBatch_FailureSurfaces(t *testing.T) {
	mock := backend.NewMock(backend.MockConfig{Reply: func(msgs []backend.Message) (string, error) {
		if msgs[len(msgs)-1].Content == "bad" {
			return "", backend.Permanent("mock", errors.New("malformed"))
		}
		return "ok", nil
	}})
	m := newTestManager(t, mock, 2)
	_, err := m.SummarizeBatch(context.Background(), []string{"good", "bad", "good"}, m.DefaultPolicy())
	var pe *backend.PermanentError
	if !errors.As(err, &pe) {
		t.Fatalf("want permanent error, got %v", err)
	}
	if !strings.Contains(err.Error(), "texts[1]") {
		t.Fatalf("error should name the failing index: %v", err)
	}
}

func TestPolicyFrom(t *testing.T) {
	m := newTestManager(t, backend.NewMock(backend.MockConfig{}), 1)
	p := m.PolicyFrom(types.PolicyOptions{})
	if p != m.DefaultPolicy() {
		t.Fatalf("empty options: %+v", p)
	}
	prio := -4
	p = m.PolicyFrom(types.PolicyOptions{Priority: &prio, TimeoutMs: 250, MaxAttempts: 1})
	want := scheduler.Policy{Priority: -4, Timeout: 250 * time.Millisecond, MaxAttempts: 1}
	if p != want {
		t.Fatalf("got %+v, want %+v", p, want)
	}
	if err := m.PolicyFrom(types.PolicyOptions{TimeoutMs: -1}).Validate(); !scheduler.IsConfigError(err) {
		t.Fatalf("negative timeout must stay invalid, got %v", err)
	}
}

func TestStatusAndClose(t *testing.T) {
	mock := backend.NewMock(backend.MockConfig{Model: "m1"})
	m, err := New(Config{Backend: mock, Scheduler: scheduler.Config{Concurrency: 2}})
	if err != nil {
		t.Fatal(err)
	}
	st := m.Status()
	if st.State != StateUnchecked || st.Availability.Checked || st.Load.ConcurrencyLimit != 2 {
		t.Fatalf("initial status %+v", st)
	}
	if st.Availability.Backend != backend.KindMock || st.Availability.Model != "m1" {
		t.Fatalf("identity %+v", st.Availability)
	}
	if _, err := m.EnsureAvailable(context.Background()); err != nil {
		t.Fatal(err)
	}
	if st := m.Status(); st.State != StateReady || st.Availability.CheckedAtUnixMs == 0 || st.Availability.TTLMs != gate.DefaultTTL.Milliseconds() {
		t.Fatalf("status after probe %+v", st)
	}

	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if m.Ready() || m.Status().State != StateClosed {
		t.Fatal("closed manager reports ready")
	}
	_, err = m.Narrate(context.Background(), backend.NarrativeContext{Scene: "x"}, m.DefaultPolicy())
	if !errors.Is(err, scheduler.ErrClosed) || !IsUnavailable(err) {
		t.Fatalf("after close: %v", err)
	}
}

func TestDrainAndResetStats(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 4)
	mock := backend.NewMock(backend.MockConfig{Reply: func(msgs []backend.Message) (string, error) {
		started <- struct{}{}
		<-release
		return "done", nil
	}})
	m := newTestManager(t, mock, 1)
	if _, err := m.EnsureAvailable(context.Background()); err != nil {
		t.Fatal(err)
	}

	errs := make(chan error, 3)
	for i := 0; i < 3; i++ {
		go func() {
			_, err := m.Summarize(context.Background(), "transcript", m.DefaultPolicy())
			errs <- err
		}()
	}
	<-started
	deadline := time.Now().Add(2 * time.Second)
	for m.Load().Pending != 2 {
		if time.Now().After(deadline) {
			t.Fatalf("load = %+v", m.Load())
		}
		time.Sleep(2 * time.Millisecond)
	}
	if n := m.Drain(); n != 2 {
		t.Fatalf("Drain = %d", n)
	}
	close(release)
	var drained, ok int
	for i := 0; i < 3; i++ {
		switch err := <-errs; {
		case err == nil:
			ok++
		case errors.Is(err, scheduler.ErrDrained) && IsUnavailable(err):
			drained++
		default:
			t.Fatalf("unexpected error %v", err)
		}
	}
	if ok != 1 || drained != 2 {
		t.Fatalf("ok=%d drained=%d", ok, drained)
	}
	if m.Stats().TotalCompleted != 1 {
		t.Fatalf("stats = %+v", m.Stats())
	}
	m.ResetStats()
	if s := m.Stats(); s.TotalCompleted != 0 || s.AverageLatencyMs != 0 {
		t.Fatalf("after reset %+v", s)
	}
}
