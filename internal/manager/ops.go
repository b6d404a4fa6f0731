package manager

import (
	"context"
	"fmt"
	"strings"

	"github.com/sourcegraph/conc/pool"

	"mysteryd/internal/backend"
	"mysteryd/internal/gate"
	"mysteryd/internal/scheduler"
	"mysteryd/internal/stats"
)

// EnsureAvailable returns the cached verdict, probing only when it is stale.
// An unavailable backend yields a *gate.UnavailableError.
func (m *Manager) EnsureAvailable(ctx context.Context) (gate.State, error) {
	return m.gate.Ensure(ctx)
}

// CheckAvailability is EnsureAvailable with an optional forced re-probe.
func (m *Manager) CheckAvailability(ctx context.Context, force bool) (gate.State, error) {
	return m.gate.Check(ctx, force)
}

// Narrate produces the next narrative beat.
func (m *Manager) Narrate(ctx context.Context, nc backend.NarrativeContext, p scheduler.Policy) (backend.Generation, error) {
	if _, err := m.gate.Ensure(ctx); err != nil {
		return backend.Generation{}, err
	}
	return scheduler.Do(ctx, m.sched, p, func(ctx context.Context) (backend.Generation, error) {
		return m.backend.GenerateNarrative(ctx, nc)
	})
}

// Closing produces the end-of-game reveal.
func (m *Manager) Closing(ctx context.Context, nc backend.NarrativeContext, p scheduler.Policy) (string, error) {
	if _, err := m.gate.Ensure(ctx); err != nil {
		return "", err
	}
	return scheduler.Do(ctx, m.sched, p, func(ctx context.Context) (string, error) {
		return m.backend.GenerateClosing(ctx, nc)
	})
}

// Summarize condenses one transcript.
func (m *Manager) Summarize(ctx context.Context, text string, p scheduler.Policy) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrBadRequest("text is empty")
	}
	if _, err := m.gate.Ensure(ctx); err != nil {
		return "", err
	}
	return m.summarize(ctx, text, p)
}

func (m *Manager) summarize(ctx context.Context, text string, p scheduler.Policy) (string, error) {
	return scheduler.Do(ctx, m.sched, p, func(ctx context.Context) (string, error) {
		return m.backend.Summarize(ctx, text)
	})
}

// SummarizeBatch condenses several transcripts concurrently and returns the
// summaries in input order. The gate is consulted once for the whole batch.
// The first failure cancels the remaining items.
func (m *Manager) SummarizeBatch(ctx context.Context, texts []string, p scheduler.Policy) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			return nil, ErrBadRequest(fmt.Sprintf("texts[%d] is empty", i))
		}
	}
	if _, err := m.gate.Ensure(ctx); err != nil {
		return nil, err
	}
	out := make([]string, len(texts))
	pl := pool.New().
		WithMaxGoroutines(m.sched.CurrentLoad().ConcurrencyLimit).
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError()
	for i, t := range texts {
		pl.Go(func(ctx context.Context) error {
			s, err := m.summarize(ctx, t, p)
			if err != nil {
				return fmt.Errorf("texts[%d]: %w", i, err)
			}
			out[i] = s
			return nil
		})
	}
	if err := pl.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Invoke sends raw messages through the scheduler.
func (m *Manager) Invoke(ctx context.Context, messages []backend.Message, opts backend.InvokeOptions, p scheduler.Policy) (backend.Generation, error) {
	if len(messages) == 0 {
		return backend.Generation{}, ErrBadRequest("messages are empty")
	}
	if _, err := m.gate.Ensure(ctx); err != nil {
		return backend.Generation{}, err
	}
	return scheduler.Do(ctx, m.sched, p, func(ctx context.Context) (backend.Generation, error) {
		return m.backend.Invoke(ctx, messages, opts)
	})
}

// Drain rejects queued work; see scheduler.Scheduler.Drain.
func (m *Manager) Drain() int {
	n := m.sched.Drain()
	m.log.Info().Int("rejected", n).Msg("drain requested")
	return n
}

func (m *Manager) Load() scheduler.Load { return m.sched.CurrentLoad() }
func (m *Manager) Stats() stats.Snapshot { return m.sched.Stats().Snapshot() }
func (m *Manager) ResetStats() { m.sched.Stats().Reset() }
