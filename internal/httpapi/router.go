package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter returns the dashboard API. Every route is a GET.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(AccessLog)
	r.Use(Recover)
	r.Use(chimw.Timeout(30 * time.Second))

	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", HealthHandler{Jobs: d.Jobs}.Health)

	jh := JobsHandler{Jobs: d.Jobs, DB: d.DB}
	r.Get("/jobs", jh.List)

	ph := ProspectsHandler{Prospects: d.Prospects}
	r.Get("/prospects", ph.List)
	r.Get("/prospects/{company}", ph.Get)

	if d.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Metrics.Registry, promhttp.HandlerOpts{}))
	}
	return r
}
