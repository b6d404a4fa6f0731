package manager

import (
	"time"

	"mysteryd/internal/gate"
	"mysteryd/internal/scheduler"
	"mysteryd/internal/stats"
	"mysteryd/pkg/types"
)

// Overall states reported by Status.
const (
	StateReady       = "ready"
	StateUnavailable = "unavailable"
	StateUnchecked   = "unchecked"
	StateClosed      = "closed"
)

// Status builds the /status payload from the cached verdict; it never probes.
func (m *Manager) Status() types.StatusResponse {
	st := m.gate.State()
	state := StateUnchecked
	switch {
	case m.closed.Load():
		state = StateClosed
	case st.Checked && st.Available:
		state = StateReady
	case st.Checked:
		state = StateUnavailable
	}
	now := time.Now()
	return types.StatusResponse{
		State:          state,
		Availability:   AvailabilityDTO(st),
		Load:           LoadDTO(m.Load()),
		Stats:          StatsDTO(m.Stats()),
		UptimeSeconds:  int64(now.Sub(m.started).Seconds()),
		ServerTimeUnix: now.Unix(),
	}
}

func AvailabilityDTO(st gate.State) types.AvailabilityResponse {
	out := types.AvailabilityResponse{
		Backend:   st.Backend,
		Model:     st.Model,
		Checked:   st.Checked,
		Available: st.Available,
		Reason:    st.Reason,
		TTLMs:     st.TTL.Milliseconds(),
	}
	if st.Checked {
		out.CheckedAtUnixMs = st.CheckedAt.UnixMilli()
	}
	return out
}

func LoadDTO(l scheduler.Load) types.LoadResponse {
	return types.LoadResponse{
		Pending:          l.Pending,
		Retrying:         l.Retrying,
		InFlight:         l.InFlight,
		ConcurrencyLimit: l.ConcurrencyLimit,
	}
}

func StatsDTO(s stats.Snapshot) types.StatsResponse {
	return types.StatsResponse{
		TotalCompleted:   s.TotalCompleted,
		TotalSucceeded:   s.TotalSucceeded,
		TotalFailed:      s.TotalFailed,
		TotalRetries:     s.TotalRetries,
		AverageLatencyMs: s.AverageLatencyMs,
		FailureRate:      s.FailureRate(),
	}
}
