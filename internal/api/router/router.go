package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/brightsmile-labs/dental-portal-api/internal/appointments"
	"github.com/brightsmile-labs/dental-portal-api/internal/billing"
	"github.com/brightsmile-labs/dental-portal-api/internal/catalog"
	httpmiddleware "github.com/brightsmile-labs/dental-portal-api/internal/http/middleware"
	"github.com/brightsmile-labs/dental-portal-api/internal/identity"
	"github.com/brightsmile-labs/dental-portal-api/internal/profiles"
	"github.com/brightsmile-labs/dental-portal-api/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	AppointmentsHandler *appointments.Handler
	BillingHandler      *billing.Handler
	CatalogHandler      *catalog.Handler
	ProfilesHandler     *profiles.Handler
	MetricsHandler      http.Handler
	SessionSecret       string
	CORSAllowedOrigins  []string
	RateLimitRPS        float64
	RateLimitBurst      int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	if cfg.RateLimitRPS > 0 {
		r.Use(httpmiddleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Authenticated portal API
	r.Route("/api/v1", func(api chi.Router) {
		api.Use(httpmiddleware.SessionAuth(cfg.SessionSecret))

		if cfg.CatalogHandler != nil {
			api.Route("/catalog", func(r chi.Router) {
				r.Get("/services", cfg.CatalogHandler.ListServices)
				r.With(httpmiddleware.RequireRole(identity.RoleAdmin, identity.RoleDoctor, identity.RoleStaff)).
					Get("/doctors/{doctorID}/pricing", cfg.CatalogHandler.ListDoctorPricing)
			})
		}

		if cfg.AppointmentsHandler != nil {
			api.Route("/appointments", func(r chi.Router) {
				r.Get("/", cfg.AppointmentsHandler.List)
				r.Route("/{appointmentID}", func(r chi.Router) {
					r.Get("/duration", cfg.AppointmentsHandler.GetDuration)
					r.Group(func(r chi.Router) {
						r.Use(httpmiddleware.RequireRole(identity.RoleAdmin, identity.RoleDoctor, identity.RoleStaff))
						r.Patch("/status", cfg.AppointmentsHandler.SetStatus)
						r.Put("/duration", cfg.AppointmentsHandler.SetDuration)
					})
				})
			})
		}

		if cfg.BillingHandler != nil {
			api.Route("/invoices", func(r chi.Router) {
				r.Get("/", cfg.BillingHandler.ListInvoices)
				r.Route("/{invoiceID}", func(r chi.Router) {
					r.Get("/", cfg.BillingHandler.GetInvoice)
					r.Get("/payments", cfg.BillingHandler.ListPayments)
					r.Post("/payments", cfg.BillingHandler.SubmitPayment)
				})
			})
			api.Get("/payments", cfg.BillingHandler.ListPayments)
			api.Route("/payments/{paymentID}", func(r chi.Router) {
				r.Use(httpmiddleware.RequireRole(identity.RoleDoctor))
				r.Post("/approve", cfg.BillingHandler.Approve)
				r.Post("/reject", cfg.BillingHandler.Reject)
			})
		}

		if cfg.ProfilesHandler != nil {
			api.Route("/admin/users", func(r chi.Router) {
				r.Use(httpmiddleware.RequireRole(identity.RoleAdmin))
				r.Get("/", cfg.ProfilesHandler.ListUsers)
				r.Post("/", cfg.ProfilesHandler.CreateUser)
				r.Get("/{userID}", cfg.ProfilesHandler.GetUser)
				r.Put("/{userID}", cfg.ProfilesHandler.UpdateUser)
				r.Patch("/{userID}", cfg.ProfilesHandler.UpdateUser)
			})
		}
	})

	return r
}
