package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/clinic-scheduler/internal/appointments"
	httpmiddleware "github.com/wolfman30/clinic-scheduler/internal/http/middleware"
	"github.com/wolfman30/clinic-scheduler/internal/scheduling"
	"github.com/wolfman30/clinic-scheduler/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	CalendarHandler    *scheduling.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// Canonical appointments API (optional)
	AppointmentsHandler *appointments.Handler
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))

	r.Get("/health", health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// The clinic is part of the path here, so no tenant header is needed.
	if cfg.AppointmentsHandler != nil {
		r.Mount("/api/clinics/{clinicID}/appointments", cfg.AppointmentsHandler.Routes())
	}

	if cfg.CalendarHandler != nil {
		r.Group(func(tenant chi.Router) {
			tenant.Use(requireClinicID)
			cfg.CalendarHandler.Register(tenant)
		})
	}

	return r
}

func health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
