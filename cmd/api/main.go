package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/brightsmile-labs/dental-portal-api/cmd/mainconfig"
	"github.com/brightsmile-labs/dental-portal-api/internal/api/router"
	"github.com/brightsmile-labs/dental-portal-api/internal/appointments"
	"github.com/brightsmile-labs/dental-portal-api/internal/billing"
	"github.com/brightsmile-labs/dental-portal-api/internal/catalog"
	appconfig "github.com/brightsmile-labs/dental-portal-api/internal/config"
	"github.com/brightsmile-labs/dental-portal-api/internal/notify"
	"github.com/brightsmile-labs/dental-portal-api/internal/observability/metrics"
	"github.com/brightsmile-labs/dental-portal-api/internal/profiles"
	"github.com/brightsmile-labs/dental-portal-api/internal/storage"
	"github.com/brightsmile-labs/dental-portal-api/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting dental portal API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("database unreachable", "error", err)
		os.Exit(1)
	}

	// Optional Redis cache for the service catalog.
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, catalog caching disabled", "error", err)
			redisClient = nil
		}
	}

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	portalMetrics := metrics.NewPortalMetrics(registry)

	// Proof storage (optional, S3-backed).
	var proofStore *storage.ProofStore
	if cfg.ProofBucket != "" {
		proofStore = storage.NewProofStore(s3.NewFromConfig(awsCfg), storage.ProofStoreConfig{
			Bucket:     cfg.ProofBucket,
			Region:     cfg.AWSRegion,
			PublicBase: cfg.ProofPublicBase,
			MaxBytes:   cfg.ProofMaxBytes,
			Logger:     logger,
		})
	}

	// Email notifications (optional, SES-backed).
	var emailSender notify.EmailSender
	if cfg.NotifyFromEmail != "" {
		emailSender = notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.NotifyFromEmail,
			FromName:  cfg.NotifyFromName,
		}, logger)
	}

	profileRepo := profiles.NewRepository(pool)
	catalogRepo := catalog.NewRepository(pool)
	catalogCache := catalog.NewCache(catalogRepo, redisClient, cfg.CatalogCacheTTL, logger)
	apptRepo := appointments.NewRepository(pool)
	billingRepo := billing.NewRepository(pool)

	notifier := notify.NewService(emailSender, profileRepo, notify.Config{ClinicName: cfg.NotifyFromName}, logger)

	directory := appointments.NewDirectory(apptRepo, profileRepo, catalogRepo, portalMetrics, logger)
	lifecycle := appointments.NewLifecycle(apptRepo, notifier, portalMetrics, logger)

	var proofUploader billing.ProofUploader
	if proofStore != nil {
		proofUploader = proofStore
	}
	billingService := billing.NewService(billingRepo, proofUploader, portalMetrics, logger)

	routerCfg := &router.Config{
		Logger:              logger,
		AppointmentsHandler: appointments.NewHandler(directory, lifecycle, logger),
		BillingHandler:      billing.NewHandler(billingService, logger),
		CatalogHandler:      catalog.NewHandler(catalogCache, catalogRepo, logger),
		ProfilesHandler:     profiles.NewHandler(profileRepo, logger),
		MetricsHandler:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		SessionSecret:       cfg.JWTSecret,
		CORSAllowedOrigins:  cfg.CORSOrigins,
		RateLimitRPS:        cfg.RateLimitRPS,
		RateLimitBurst:      cfg.RateLimitBurst,
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  4 * cfg.ReadTimeout,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
