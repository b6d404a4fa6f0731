package backend

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
	"time"
)

// ErrInjected is the cause of failures produced by Mock.FailureRate.
var ErrInjected = errors.New("injected failure")

// MockConfig configures the scripted backend.
type MockConfig struct {
	Model string
	// Latency is slept before each reply, honoring ctx.
	Latency time.Duration
	// FailureRate in [0,1] is the share of calls that fail with ErrInjected.
	FailureRate float64
	// PermanentFailures makes injected failures permanent instead of transient.
	PermanentFailures bool
	// Reply produces the text for a call; nil echoes the last user message.
	Reply func(messages []Message) (string, error)
}

// Mock is a deterministic in-memory backend for development, benchmarks and tests.
type Mock struct {
	Base
	cfg MockConfig

	mu       sync.Mutex
	calls    int
	probes   int
	probe    ProbeResult
	probeErr error
}

// NewMock builds a mock that probes as available.
func NewMock(cfg MockConfig) *Mock {
	if cfg.Model == "" {
		cfg.Model = "mock"
	}
	m := &Mock{cfg: cfg, probe: ProbeResult{Available: true}}
	m.Base = NewBase(m, InvokeOptions{})
	return m
}

func (m *Mock) Name() string  { return KindMock }
func (m *Mock) Model() string { return m.cfg.Model }

// SetProbe replaces the verdict (and error) returned by subsequent probes.
func (m *Mock) SetProbe(r ProbeResult, err error) {
	m.mu.Lock()
	m.probe, m.probeErr = r, err
	m.mu.Unlock()
}

// Calls returns the number of Invoke calls so far.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Probes returns the number of Probe calls so far.
func (m *Mock) Probes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.probes
}

func (m *Mock) Invoke(ctx context.Context, messages []Message, opts InvokeOptions) (Generation, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.cfg.Latency > 0 {
		t := time.NewTimer(m.cfg.Latency)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return Generation{}, ctx.Err()
		}
	}
	if m.cfg.FailureRate > 0 && rand.Float64() < m.cfg.FailureRate {
		if m.cfg.PermanentFailures {
			return Generation{}, Permanent("mock", ErrInjected)
		}
		return Generation{}, Transient("mock", ErrInjected)
	}
	var text string
	if m.cfg.Reply != nil {
		var err error
		if text, err = m.cfg.Reply(messages); err != nil {
			return Generation{}, err
		}
	} else {
		text = echo(messages)
	}
	if opts.MaxTokens > 0 {
		if words := strings.Fields(text); len(words) > opts.MaxTokens {
			text = strings.Join(words[:opts.MaxTokens], " ")
		}
	}
	return Generation{Text: text, ModelID: m.cfg.Model, TokenCount: len(strings.Fields(text))}, nil
}

func (m *Mock) Probe(ctx context.Context) (ProbeResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.probes++
	return m.probe, m.probeErr
}

func echo(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			return "mock: " + clip(messages[i].Content, 80)
		}
	}
	return "mock"
}

// clip collapses whitespace and cuts s to n bytes.
func clip(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > n {
		return s[:n]
	}
	return s
}
