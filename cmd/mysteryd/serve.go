package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"mysteryd/internal/backend"
	"mysteryd/internal/config"
	"mysteryd/internal/httpapi"
	"mysteryd/internal/manager"
	"mysteryd/internal/scheduler"
	"mysteryd/internal/stats"
)

const shutdownGrace = 10 * time.Second

type serveOpts struct {
	addr        string
	kind        string
	model       string
	baseURL     string
	concurrency int
}

func newServeCmd(g *globalOpts) *cobra.Command {
	o := &serveOpts{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Example: "  mysteryd serve --config mysteryd.yaml\n" +
			"  mysteryd serve --backend mock --addr :9090",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g, o.apply)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.addr, "addr", "", "HTTP listen address, e.g. :8080 (defaults MYSTERYD_ADDR or :8080)")
	f.StringVar(&o.kind, "backend", "", "Backend kind: "+kindList())
	f.StringVar(&o.model, "model", "", "Backend model name")
	f.StringVar(&o.baseURL, "base-url", "", "Backend base URL")
	f.IntVar(&o.concurrency, "concurrency", 0, "Concurrent attempts against the backend")
	return cmd
}

func (o *serveOpts) apply(c *config.Config) {
	if o.addr != "" {
		c.Addr = o.addr
	}
	if o.kind != "" {
		c.Backend.Kind = o.kind
	}
	if o.model != "" {
		c.Backend.Model = o.model
	}
	if o.baseURL != "" {
		c.Backend.BaseURL = o.baseURL
	}
	if o.concurrency != 0 {
		c.Scheduler.Concurrency = o.concurrency
	}
}

func serve(parent context.Context, cfg config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	log := newLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	be, err := backend.New(cfg.BackendSettings())
	if err != nil {
		return err
	}
	events := scheduler.NewMetricsPublisher("mysteryd")
	sc := cfg.SchedulerSettings()
	sc.Publisher = events
	mgr, err := manager.New(manager.Config{
		Backend:   be,
		GateTTL:   cfg.GateTTL(),
		Scheduler: sc,
		Logger:    log,
	})
	if err != nil {
		return err
	}
	prometheus.MustRegister(stats.NewExporter("mysteryd", mgr.Scheduler().Stats(), mgr.Load), events)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpapi.SetLogger(log.With().Str("component", "http").Logger())
	httpapi.SetMaxBodyBytes(cfg.HTTP.MaxBodyBytes)
	httpapi.SetRequestTimeoutSeconds(int64(cfg.HTTP.RequestTimeoutSeconds))
	httpapi.SetCORSOptions(cfg.HTTP.CORSEnabled, cfg.HTTP.CORSOrigins, nil, nil)
	httpapi.SetBaseContext(ctx)

	// Warm the gate so /readyz reflects the backend from the start.
	if st, err := mgr.EnsureAvailable(ctx); err != nil {
		log.Warn().Err(err).Str("backend", st.Backend).Msg("backend not available at startup")
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewMux(mgr),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("backend", be.Name()).Str("model", be.Model()).Msg("mysteryd listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-errCh:
		if err != nil {
			_ = mgr.Close()
			return err
		}
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	var errs []error
	if err := srv.Shutdown(sctx); err != nil {
		errs = append(errs, err)
	}
	if err := mgr.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
