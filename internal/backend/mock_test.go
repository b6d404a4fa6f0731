package backend

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestMock_DerivedOperations(t *testing.T) {
	m := NewMock(MockConfig{Reply: func(msgs []Message) (string, error) {
		return "  " + msgs[0].Role + " reply  ", nil
	}})
	s, err := m.Summarize(context.Background(), "long transcript")
	if err != nil || s != "system reply" {
		t.Fatalf("summarize: %q err=%v", s, err)
	}
	c, err := m.GenerateClosing(context.Background(), NarrativeContext{Scene: "Study"})
	if err != nil || c != "system reply" {
		t.Fatalf("closing: %q err=%v", c, err)
	}
	if m.Calls() != 2 {
		t.Fatalf("calls=%d", m.Calls())
	}
}

func TestMock_EchoAndTokenCap(t *testing.T) {
	m := NewMock(MockConfig{})
	g, err := m.Invoke(context.Background(), []Message{{Role: RoleUser, Content: "one two three four"}}, InvokeOptions{MaxTokens: 3})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if g.Text != "mock: one two" || g.TokenCount != 3 || g.ModelID != "mock" {
		t.Fatalf("unexpected %+v", g)
	}
}

func TestMock_FailureInjection(t *testing.T) {
	m := NewMock(MockConfig{FailureRate: 1})
	_, err := m.Invoke(context.Background(), nil, InvokeOptions{})
	if !errors.Is(err, ErrInjected) || Classify(err) != ClassTransient {
		t.Fatalf("expected transient injected failure, got %v", err)
	}
	m = NewMock(MockConfig{FailureRate: 1, PermanentFailures: true})
	_, err = m.Invoke(context.Background(), nil, InvokeOptions{})
	if Classify(err) != ClassPermanent {
		t.Fatalf("expected permanent injected failure, got %v", err)
	}
}

func TestMock_LatencyHonorsContext(t *testing.T) {
	m := NewMock(MockConfig{Latency: time.Second})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := m.Invoke(ctx, nil, InvokeOptions{})
	if !errors.Is(err, context.DeadlineExceeded) || time.Since(start) > 500*time.Millisecond {
		t.Fatalf("expected early deadline, got %v after %s", err, time.Since(start))
	}
}

func TestMock_Probe(t *testing.T) {
	m := NewMock(MockConfig{})
	r, err := m.Probe(context.Background())
	if err != nil || !r.Available {
		t.Fatalf("default probe: %+v %v", r, err)
	}
	m.SetProbe(ProbeResult{Available: false, Reason: "quota exceeded"}, nil)
	r, _ = m.Probe(context.Background())
	if r.Available || !strings.Contains(r.Reason, "quota") || m.Probes() != 2 {
		t.Fatalf("scripted probe: %+v probes=%d", r, m.Probes())
	}
}
