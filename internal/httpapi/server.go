package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mysteryd/internal/backend"
	"mysteryd/internal/gate"
	"mysteryd/internal/manager"
	"mysteryd/internal/scheduler"
	"mysteryd/internal/stats"
	"mysteryd/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
// *manager.Manager implements it.
type Service interface {
	Backend() backend.Backend
	Ready() bool
	Status() types.StatusResponse
	Stats() stats.Snapshot
	ResetStats()
	Drain() int
	CheckAvailability(ctx context.Context, force bool) (gate.State, error)
	PolicyFrom(o types.PolicyOptions) scheduler.Policy
	Narrate(ctx context.Context, nc backend.NarrativeContext, p scheduler.Policy) (backend.Generation, error)
	Closing(ctx context.Context, nc backend.NarrativeContext, p scheduler.Policy) (string, error)
	Summarize(ctx context.Context, text string, p scheduler.Policy) (string, error)
	SummarizeBatch(ctx context.Context, texts []string, p scheduler.Policy) ([]string, error)
}

var _ Service = (*manager.Manager)(nil)

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(middleware.Compress(5))
	if corsEnabled {
		r.Use(cors.Handler(corsOptions()))
	}
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	h := &handlers{svc: svc}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("unavailable"))
	})
	r.Get("/status", h.status)
	r.Get("/stats", h.stats)
	r.Post("/stats/reset", h.resetStats)
	r.Post("/drain", h.drain)
	r.Post("/availability/check", h.checkAvailability)
	r.Post("/narrate", h.narrate)
	r.Post("/closing", h.closing)
	r.Post("/summarize", h.summarize)

	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	MountSwagger(r)
	return r
}

func corsOptions() cors.Options {
	methods := corsAllowedMethods
	if len(methods) == 0 {
		methods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	}
	headers := corsAllowedHeaders
	if len(headers) == 0 {
		headers = []string{"Content-Type", "X-Request-Id", "X-Log-Level"}
	}
	return cors.Options{
		AllowedOrigins: corsAllowedOrigins,
		AllowedMethods: methods,
		AllowedHeaders: headers,
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}
}
