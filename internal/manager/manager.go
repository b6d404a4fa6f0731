package manager

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"mysteryd/internal/backend"
	"mysteryd/internal/gate"
	"mysteryd/internal/scheduler"
)

// Config wires a Manager. Backend is required; zero durations use the
// gate and scheduler defaults.
type Config struct {
	Backend   backend.Backend
	GateTTL   time.Duration
	Scheduler scheduler.Config
	Logger    zerolog.Logger
	// Now overrides the gate clock in tests.
	Now func() time.Time
}

type Manager struct {
	backend backend.Backend
	gate    *gate.Gate
	sched   *scheduler.Scheduler
	log     zerolog.Logger
	started time.Time

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// New builds the gate and the scheduler around cfg.Backend.
func New(cfg Config) (*Manager, error) {
	if cfg.Backend == nil {
		return nil, errors.New("manager: backend is required")
	}
	sc := cfg.Scheduler
	sc.Logger = cfg.Logger
	s, err := scheduler.New(sc)
	if err != nil {
		return nil, fmt.Errorf("manager: %w", err)
	}
	g := gate.New(cfg.Backend, gate.Config{TTL: cfg.GateTTL, Logger: cfg.Logger, Now: cfg.Now})
	m := &Manager{
		backend: cfg.Backend,
		gate:    g,
		sched:   s,
		log:     cfg.Logger.With().Str("component", "manager").Logger(),
		started: time.Now(),
	}
	m.log.Info().Str("backend", cfg.Backend.Name()).Str("model", cfg.Backend.Model()).
		Int("concurrency", s.CurrentLoad().ConcurrencyLimit).Msg("manager ready")
	return m, nil
}

func (m *Manager) Backend() backend.Backend { return m.backend }
func (m *Manager) Gate() *gate.Gate { return m.gate }
func (m *Manager) Scheduler() *scheduler.Scheduler { return m.sched }
func (m *Manager) DefaultPolicy() scheduler.Policy { return m.sched.DefaultPolicy() }
func (m *Manager) Uptime() time.Duration { return time.Since(m.started) }

// Ready reports whether the last cached verdict was available. It never
// probes.
func (m *Manager) Ready() bool {
	if m.closed.Load() {
		return false
	}
	st := m.gate.State()
	return st.Checked && st.Available
}

// Close stops the scheduler (queued items fail with scheduler.ErrClosed),
// waits for in-flight attempts and releases the backend if it holds
// resources. Safe to call more than once.
func (m *Manager) Close() error {
	m.closeOnce.Do(func() {
		m.closed.Store(true)
		load := m.sched.CurrentLoad()
		m.log.Info().Int("pending", load.Pending).Int("in_flight", load.InFlight).Msg("closing manager")
		err := m.sched.Close()
		if c, ok := m.backend.(io.Closer); ok {
			err = errors.Join(err, c.Close())
		}
		m.closeErr = err
	})
	return m.closeErr
}
