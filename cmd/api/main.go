package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/praxisflow/praxisflow/internal/api/router"
	"github.com/praxisflow/praxisflow/internal/app/bootstrap"
	"github.com/praxisflow/praxisflow/internal/appointments"
	"github.com/praxisflow/praxisflow/internal/billing"
	"github.com/praxisflow/praxisflow/internal/compliance"
	appconfig "github.com/praxisflow/praxisflow/internal/config"
	"github.com/praxisflow/praxisflow/internal/gdpr"
	"github.com/praxisflow/praxisflow/internal/observability/metrics"
	"github.com/praxisflow/praxisflow/internal/patients"
	"github.com/praxisflow/praxisflow/internal/reports"
	"github.com/praxisflow/praxisflow/internal/voiceagent"
	"github.com/praxisflow/praxisflow/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting praxisflow API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	// External runtime dependencies
	pool, err := bootstrap.BuildDBPool(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to connect postgres", "error", err)
		os.Exit(1)
	}
	if pool != nil {
		defer pool.Close()
	}
	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	mailer := bootstrap.BuildMailer(cfg, logger)

	// Metrics
	registry := prometheus.NewRegistry()
	schedMetrics := metrics.NewSchedulingMetrics(registry)
	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	// Stores: Postgres when configured, in-memory otherwise.
	var (
		apptRepo     appointments.Repository
		patientRepo  patients.Repository
		gdprStore    gdpr.Store
		billingStore billing.SubscriptionStore
	)
	var audit *compliance.AuditService
	if pool != nil {
		apptRepo = appointments.NewPostgresRepository(pool)
		patientRepo = patients.NewPostgresRepository(pool)
		gdprStore = gdpr.NewPostgresStore(pool)
		billingStore = billing.NewPostgresStore(pool)
		audit = compliance.NewAuditService(pool)
	} else {
		logger.Warn("no database configured; using in-memory stores")
		apptRepo = appointments.NewInMemoryRepository()
		patientRepo = patients.NewInMemoryRepository()
		gdprStore = gdpr.NewInMemoryStore()
		// The in-memory store only answers for seeded practices; other
		// tenants get 404 from the billing endpoints until a database is
		// configured.
		billingStore = billing.NewInMemoryStore("demo-practice")
	}

	// Services
	apptService := appointments.NewService(appointments.ServiceConfig{
		Repo:           apptRepo,
		Logger:         logger,
		Metrics:        schedMetrics,
		Mailer:         mailer,
		OpenTime:       cfg.PracticeOpenTime,
		CloseTime:      cfg.PracticeCloseTime,
		SlotMinutes:    cfg.SlotMinutes,
		DefaultMinutes: cfg.DefaultAppointmentMinutes,
	})
	gdprService := gdpr.NewService(gdpr.ServiceConfig{
		Store:        gdprStore,
		Patients:     patientRepo,
		Appointments: apptRepo,
		Mailer:       mailer,
		Audit:        audit,
		Logger:       logger,
	})
	checkout := billing.NewCheckoutService(billing.CheckoutConfig{
		SecretKey:  cfg.StripeSecretKey,
		PriceID:    cfg.StripePriceID,
		SuccessURL: cfg.BillingSuccessURL,
		CancelURL:  cfg.BillingCancelURL,
		Logger:     logger,
	})

	// Voice agent: needs Redis for call sessions and an LLM extractor.
	var voiceWebhooks *voiceagent.WebhookHandler
	extractor, err := bootstrap.BuildExtractor(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build llm extractor", "error", err)
		os.Exit(1)
	}
	if extractor != nil && redisClient != nil {
		sessions := voiceagent.NewSessionStore(redisClient, cfg.VoiceSessionTTL)
		flow := voiceagent.NewBookingFlow(sessions, extractor, apptService, logger)
		voiceWebhooks = voiceagent.NewWebhookHandler(voiceagent.WebhookConfig{
			Flow:         flow,
			RetellSecret: cfg.RetellWebhookSecret,
			VAPISecret:   cfg.VAPIWebhookSecret,
			Metrics:      schedMetrics,
			Logger:       logger,
		})
	} else if extractor != nil {
		logger.Warn("redis unavailable; voice booking disabled")
	}

	var stripeWebhook *billing.WebhookHandler
	if cfg.StripeWebhookSecret != "" {
		stripeWebhook = billing.NewWebhookHandler(cfg.StripeWebhookSecret, billingStore, logger)
	}

	var reportsHandler *reports.StatsHandler
	var auditHandler *compliance.AuditHandler
	if pool != nil {
		reportsHandler = reports.NewStatsHandler(reports.NewStatsRepository(pool), logger)
		auditHandler = compliance.NewAuditHandler(audit, logger)
	}

	// Setup router
	routerCfg := &router.Config{
		Logger:              logger,
		AppointmentsHandler: appointments.NewHandler(apptService, logger),
		PatientsHandler:     patients.NewHandler(patientRepo, logger),
		GDPRHandler:         gdpr.NewHandler(gdprService, logger),
		AuditHandler:        auditHandler,
		BillingHandler:      billing.NewHandler(checkout, billingStore, logger),
		StripeWebhook:       stripeWebhook,
		VoiceWebhooks:       voiceWebhooks,
		ReportsHandler:      reportsHandler,
		MetricsHandler:      metricsHandler,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		PortalJWTSecret:     cfg.PortalJWTSecret,
		WebhookRateLimit:    10,
		WebhookRateBurst:    30,
	}
	r := router.New(routerCfg)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}

	logger.Info("server stopped")
}
