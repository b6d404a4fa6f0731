package manager

import (
	"time"

	"mysteryd/internal/backend"
	"mysteryd/internal/scheduler"
	"mysteryd/pkg/types"
)

// PolicyFrom fills unset request fields from the scheduler defaults. Explicit
// invalid values (negative timeout or attempts) are kept so Submit rejects
// them as configuration errors.
func (m *Manager) PolicyFrom(o types.PolicyOptions) scheduler.Policy {
	p := m.sched.DefaultPolicy()
	if o.Priority != nil {
		p.Priority = *o.Priority
	}
	if o.TimeoutMs != 0 {
		p.Timeout = time.Duration(o.TimeoutMs) * time.Millisecond
	}
	if o.MaxAttempts != 0 {
		p.MaxAttempts = o.MaxAttempts
	}
	return p
}

// NarrativeFrom converts the wire request into the adapter's context.
func NarrativeFrom(r types.NarrativeRequest) backend.NarrativeContext {
	return backend.NarrativeContext{
		Scene:        r.Scene,
		Players:      r.Players,
		Clues:        r.Clues,
		Events:       r.Events,
		Instructions: r.Instructions,
		MaxTokens:    r.MaxTokens,
	}
}
