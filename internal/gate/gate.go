// Package gate caches the health verdict of the active backend and fails
// fast while the backend is known to be down.
package gate

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"mysteryd/internal/backend"
)

// DefaultTTL is used when Config.TTL is unset.
const DefaultTTL = 60 * time.Second

// Prober is the slice of backend.Backend the gate needs.
type Prober interface {
	Name() string
	Model() string
	Probe(ctx context.Context) (backend.ProbeResult, error)
}

// State is one cached verdict. It is replaced whole, never mutated.
type State struct {
	Backend   string        `json:"backend"`
	Model     string        `json:"model"`
	Checked   bool          `json:"checked"`
	Available bool          `json:"available"`
	Reason    string        `json:"reason,omitempty"`
	CheckedAt time.Time     `json:"checked_at"`
	TTL       time.Duration `json:"ttl"`
}

// Fresh reports whether the verdict is younger than its TTL at now.
func (s State) Fresh(now time.Time) bool {
	return s.Checked && now.Sub(s.CheckedAt) < s.TTL
}

// Config tunes a Gate.
type Config struct {
	TTL    time.Duration
	Logger zerolog.Logger
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// Gate is a time-cached circuit breaker over a single backend.
type Gate struct {
	prober Prober
	ttl    time.Duration
	now    func() time.Time
	log    zerolog.Logger

	state atomic.Pointer[State]
	// probeCh serializes probes (size 1) so concurrent checks share one.
	probeCh chan struct{}
}

// New builds a gate holding the unchecked placeholder verdict.
func New(p Prober, cfg Config) *Gate {
	g := &Gate{
		prober:  p,
		ttl:     cfg.TTL,
		now:     cfg.Now,
		log:     cfg.Logger,
		probeCh: make(chan struct{}, 1),
	}
	if g.ttl <= 0 {
		g.ttl = DefaultTTL
	}
	if g.now == nil {
		g.now = time.Now
	}
	g.state.Store(&State{Backend: p.Name(), Model: p.Model(), TTL: g.ttl})
	return g
}

// State returns the cached verdict without probing.
func (g *Gate) State() State { return *g.state.Load() }

// Ensure checks availability honoring the cache.
func (g *Gate) Ensure(ctx context.Context) (State, error) { return g.Check(ctx, false) }

// Check returns the cached verdict while it is fresh: the state when
// available, an UnavailableError carrying the cached reason otherwise.
// A stale, absent or forced verdict is replaced by a new probe.
func (g *Gate) Check(ctx context.Context, force bool) (State, error) {
	if !force {
		if st, ok := g.cached(); ok {
			return st, verdictErr(st)
		}
	}
	select {
	case g.probeCh <- struct{}{}:
	case <-ctx.Done():
		return g.State(), ctx.Err()
	}
	defer func() { <-g.probeCh }()
	// Another caller may have probed while we waited.
	if !force {
		if st, ok := g.cached(); ok {
			return st, verdictErr(st)
		}
	}
	st, err := g.probe(ctx)
	if err != nil {
		return st, err
	}
	return st, verdictErr(st)
}

func (g *Gate) cached() (State, bool) {
	st := *g.state.Load()
	if !st.Fresh(g.now()) {
		return st, false
	}
	g.log.Debug().Str("backend", st.Backend).Bool("available", st.Available).Msg("availability cache hit")
	return st, true
}

// probe replaces the verdict with a fresh one. A probe cut short by the
// caller's context describes the caller, not the backend: the cached
// verdict is left alone and ctx.Err() is returned.
func (g *Gate) probe(ctx context.Context) (State, error) {
	res, err := g.prober.Probe(ctx)
	if cerr := ctx.Err(); cerr != nil {
		g.log.Debug().Str("backend", g.prober.Name()).Err(cerr).Msg("probe abandoned by caller")
		return g.State(), cerr
	}
	st := State{
		Backend:   g.prober.Name(),
		Model:     g.prober.Model(),
		Checked:   true,
		Available: res.Available,
		Reason:    res.Reason,
		CheckedAt: g.now(),
		TTL:       g.ttl,
	}
	if err != nil {
		st.Available = false
		st.Reason = err.Error()
	}
	if st.Available {
		st.Reason = ""
	} else if st.Reason == "" {
		st.Reason = "backend reported unavailable"
	}
	g.state.Store(&st)
	if st.Available {
		g.log.Info().Str("backend", st.Backend).Str("model", st.Model).Msg("backend available")
	} else {
		g.log.Warn().Str("backend", st.Backend).Str("model", st.Model).Str("reason", st.Reason).Msg("backend unavailable")
	}
	return st, nil
}

func verdictErr(st State) error {
	if st.Available {
		return nil
	}
	return &UnavailableError{Backend: st.Backend, Model: st.Model, Reason: st.Reason}
}
