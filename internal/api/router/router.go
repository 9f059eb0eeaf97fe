package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/praxisflow/praxisflow/internal/appointments"
	"github.com/praxisflow/praxisflow/internal/billing"
	"github.com/praxisflow/praxisflow/internal/compliance"
	"github.com/praxisflow/praxisflow/internal/gdpr"
	httpmiddleware "github.com/praxisflow/praxisflow/internal/http/middleware"
	"github.com/praxisflow/praxisflow/internal/patients"
	"github.com/praxisflow/praxisflow/internal/reports"
	"github.com/praxisflow/praxisflow/internal/voiceagent"
	"github.com/praxisflow/praxisflow/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	AppointmentsHandler *appointments.Handler
	PatientsHandler     *patients.Handler
	GDPRHandler         *gdpr.Handler
	AuditHandler        *compliance.AuditHandler
	BillingHandler      *billing.Handler
	StripeWebhook       *billing.WebhookHandler
	VoiceWebhooks       *voiceagent.WebhookHandler
	ReportsHandler      *reports.StatsHandler
	MetricsHandler      http.Handler
	CORSAllowedOrigins  []string

	// Portal auth config. When the secret is empty the /portal routes
	// answer 503.
	PortalJWTSecret string

	// Webhook rate limiting (requests/sec per IP). Zero disables it.
	WebhookRateLimit float64
	WebhookRateBurst int
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

	// Public endpoints (webhooks, health checks)
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.VoiceWebhooks != nil {
			public.Route("/webhooks/voice", func(r chi.Router) {
				if cfg.WebhookRateLimit > 0 {
					r.Use(httpmiddleware.RateLimit(cfg.WebhookRateLimit, cfg.WebhookRateBurst))
				}
				r.Post("/retell", cfg.VoiceWebhooks.Retell)
				r.Post("/vapi", cfg.VoiceWebhooks.VAPI)
			})
		}
		if cfg.StripeWebhook != nil {
			public.Post("/webhooks/stripe", cfg.StripeWebhook.Handle)
		}
	})

	// Tenant-scoped API routes, keyed by the X-Practice-Id header.
	r.Group(func(tenant chi.Router) {
		tenant.Use(requirePracticeID)
		registerPracticeRoutes(tenant, cfg)
	})

	// Practice portal routes (JWT auth, practice id taken from the token).
	r.Route("/portal", func(portal chi.Router) {
		portal.Use(httpmiddleware.PortalAuth(cfg.PortalJWTSecret))
		registerPracticeRoutes(portal, cfg)
	})

	return r
}

// registerPracticeRoutes mounts the practice-scoped resources. Both the
// header-keyed API group and the JWT portal group serve the same routes;
// only the tenancy middleware differs.
func registerPracticeRoutes(r chi.Router, cfg *Config) {
	if cfg.AppointmentsHandler != nil {
		r.Route("/appointments", func(r chi.Router) {
			r.Post("/", cfg.AppointmentsHandler.Create)
			r.Get("/", cfg.AppointmentsHandler.List)
			r.Post("/conflict-check", cfg.AppointmentsHandler.CheckConflicts)
			r.Get("/day-summary", cfg.AppointmentsHandler.DaySummary)
			r.Get("/slots", cfg.AppointmentsHandler.Slots)
			r.Get("/free-slots", cfg.AppointmentsHandler.FreeSlots)
			r.Get("/{id}", cfg.AppointmentsHandler.Get)
			r.Put("/{id}", cfg.AppointmentsHandler.Update)
			r.Post("/{id}/cancel", cfg.AppointmentsHandler.Cancel)
			r.Delete("/{id}", cfg.AppointmentsHandler.Delete)
		})
	}

	if cfg.PatientsHandler != nil {
		r.Route("/patients", func(r chi.Router) {
			r.Post("/", cfg.PatientsHandler.Create)
			r.Get("/", cfg.PatientsHandler.List)
			r.Get("/{id}", cfg.PatientsHandler.Get)
			r.Put("/{id}", cfg.PatientsHandler.Update)
			r.Delete("/{id}", cfg.PatientsHandler.Delete)
		})
	}

	if cfg.GDPRHandler != nil {
		r.Route("/gdpr/requests", func(r chi.Router) {
			r.Post("/", cfg.GDPRHandler.Create)
			r.Get("/", cfg.GDPRHandler.List)
			r.Get("/{id}", cfg.GDPRHandler.Get)
			r.Get("/{id}/export", cfg.GDPRHandler.Export)
		})
	}

	if cfg.AuditHandler != nil {
		r.Get("/gdpr/audit", cfg.AuditHandler.ListEvents)
	}

	if cfg.BillingHandler != nil {
		r.Route("/billing", func(r chi.Router) {
			r.Post("/checkout", cfg.BillingHandler.CreateCheckout)
			r.Get("/subscription", cfg.BillingHandler.GetSubscription)
		})
	}

	if cfg.ReportsHandler != nil {
		r.Get("/reports/stats", cfg.ReportsHandler.GetStats)
	}
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
