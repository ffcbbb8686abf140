// Package router assembles the chi router over the pipeline handlers.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bronn-dev/smartdental/internal/api/handlers"
	apimiddleware "github.com/bronn-dev/smartdental/internal/api/middleware"
	"github.com/bronn-dev/smartdental/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger             *logging.Logger
	Triage             *handlers.TriageHandler
	Slots              *handlers.SlotsHandler
	Appointments       *handlers.AppointmentsHandler
	Dashboard          *handlers.DashboardHandler
	MetricsHandler     http.Handler
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// New creates the chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if cfg.Logger != nil {
		r.Use(apimiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.Triage != nil {
		r.Route("/triage", func(tr chi.Router) {
			if cfg.RateLimitPerSecond > 0 {
				tr.Use(apimiddleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst))
			}
			tr.Post("/analyze", cfg.Triage.Analyze)
		})
	}

	if cfg.Slots != nil {
		r.Route("/slots", func(sr chi.Router) {
			sr.Post("/search", cfg.Slots.Search)
			sr.Get("/procedures", cfg.Slots.ListProcedures)
		})
	}

	if cfg.Appointments != nil {
		r.Route("/appointments", func(ar chi.Router) {
			ar.Post("/book", cfg.Appointments.Book)
			ar.Patch("/{apptID}/cancel", cfg.Appointments.Cancel)
			ar.Get("/patient/{patientID}", cfg.Appointments.ListForPatient)
		})
	}

	if cfg.Dashboard != nil {
		r.Get("/dashboard/stats", cfg.Dashboard.Stats)
	}

	return r
}
