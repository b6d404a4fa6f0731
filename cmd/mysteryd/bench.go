package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"

	"mysteryd/internal/backend"
	"mysteryd/internal/config"
	"mysteryd/internal/manager"
	"mysteryd/internal/scheduler"
)

type benchOpts struct {
	items       int
	workers     int
	concurrency int
	failureRate float64
	latency     time.Duration
	maxAttempts int
	timeout     time.Duration
	baseDelay   time.Duration
	priorities  int
}

func newBenchCmd(g *globalOpts) *cobra.Command {
	o := &benchOpts{}
	cmd := &cobra.Command{
		Use:     "bench",
		Short:   "Drive the scheduler against a mock backend and print statistics",
		Example: "  mysteryd bench --items 500 --failure-rate 0.2 --latency 20ms",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Only logging settings apply; the backend is always the mock.
			cfg, err := loadConfig(g, func(c *config.Config) {
				c.Backend = config.BackendConfig{Kind: backend.KindMock}
			})
			if err != nil {
				return err
			}
			log := newLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
			mgr, err := manager.New(manager.Config{
				Backend: backend.NewMock(backend.MockConfig{
					Model:       "bench",
					Latency:     o.latency,
					FailureRate: o.failureRate,
				}),
				Scheduler: scheduler.Config{
					Concurrency: o.concurrency,
					BaseDelay:   o.baseDelay,
					Defaults:    scheduler.Policy{Timeout: o.timeout, MaxAttempts: o.maxAttempts},
				},
				Logger: log,
			})
			if err != nil {
				return err
			}
			defer mgr.Close()
			return bench(cmd, mgr, o)
		},
	}
	f := cmd.Flags()
	f.IntVar(&o.items, "items", 200, "Number of items to submit")
	f.IntVar(&o.workers, "workers", 32, "Concurrent submitters")
	f.IntVar(&o.concurrency, "concurrency", 4, "Scheduler concurrency limit")
	f.Float64Var(&o.failureRate, "failure-rate", 0.1, "Share of mock calls that fail transiently")
	f.DurationVar(&o.latency, "latency", 5*time.Millisecond, "Mock latency per call")
	f.IntVar(&o.maxAttempts, "max-attempts", scheduler.DefaultMaxAttempts, "Attempts per item")
	f.DurationVar(&o.timeout, "timeout", time.Second, "Per-attempt timeout")
	f.DurationVar(&o.baseDelay, "base-delay", 2*time.Millisecond, "Retry base delay")
	f.IntVar(&o.priorities, "priorities", 5, "Priorities are drawn from [0, n)")
	return cmd
}

func bench(cmd *cobra.Command, mgr *manager.Manager, o *benchOpts) error {
	if o.items <= 0 || o.workers <= 0 || o.priorities <= 0 {
		return fmt.Errorf("items, workers and priorities must be positive")
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if _, err := mgr.EnsureAvailable(ctx); err != nil {
		return err
	}

	start := time.Now()
	p := pool.New().WithMaxGoroutines(o.workers)
	for i := 0; i < o.items; i++ {
		pol := mgr.DefaultPolicy().WithPriority(rand.IntN(o.priorities))
		p.Go(func() {
			_, _ = mgr.Invoke(ctx, []backend.Message{{Role: backend.RoleUser, Content: fmt.Sprintf("item %d", i)}}, backend.InvokeOptions{}, pol)
		})
	}
	p.Wait()
	elapsed := time.Since(start)

	s := mgr.Stats()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "items:         %d in %s (%.1f/s)\n", o.items, elapsed.Round(time.Millisecond), float64(o.items)/elapsed.Seconds())
	fmt.Fprintf(out, "completed:     %d\n", s.TotalCompleted)
	fmt.Fprintf(out, "succeeded:     %d\n", s.TotalSucceeded)
	fmt.Fprintf(out, "failed:        %d\n", s.TotalFailed)
	fmt.Fprintf(out, "retries:       %d\n", s.TotalRetries)
	fmt.Fprintf(out, "failure rate:  %.3f\n", s.FailureRate())
	fmt.Fprintf(out, "avg latency:   %.2fms\n", s.AverageLatencyMs)
	return nil
}
