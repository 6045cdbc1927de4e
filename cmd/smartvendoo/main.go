package main

import (
	"context"
	"time"

	"github.com/adetolarazak567-alt/AI-Smartvendoo/internal/catalog"
	"github.com/adetolarazak567-alt/AI-Smartvendoo/internal/entitlement"
	"github.com/adetolarazak567-alt/AI-Smartvendoo/internal/generator"
	"github.com/adetolarazak567-alt/AI-Smartvendoo/internal/handlers"
	"github.com/adetolarazak567-alt/AI-Smartvendoo/internal/payments"
	"github.com/adetolarazak567-alt/AI-Smartvendoo/internal/snapshot"
	"github.com/adetolarazak567-alt/AI-Smartvendoo/pkg/auth"
	"github.com/adetolarazak567-alt/AI-Smartvendoo/pkg/config"
	"github.com/adetolarazak567-alt/AI-Smartvendoo/pkg/database"
	"github.com/adetolarazak567-alt/AI-Smartvendoo/pkg/logging"
	"github.com/adetolarazak567-alt/AI-Smartvendoo/pkg/monitoring"
	"github.com/adetolarazak567-alt/AI-Smartvendoo/pkg/server"
	"github.com/adetolarazak567-alt/AI-Smartvendoo/pkg/version"
)

func main() {
	// Setup logger
	logger := logging.NewLoggerWithService("smartvendoo")

	// Load environment variables
	config.LoadEnv(logger)

	logger.Info("Starting Smartvendoo (Entitlement & Generation API)")

	jwtSecret := config.RequireEnv("JWT_SECRET")

	// Service catalog: file-driven when CATALOG_PATH is set, built-in
	// defaults otherwise.
	var cat *catalog.Catalog
	if path := config.GetEnv("CATALOG_PATH", ""); path != "" {
		loaded, err := catalog.Load(path)
		if err != nil {
			logger.WithError(err).Fatal("Failed to load service catalog")
		}
		cat = loaded
	} else {
		cat = catalog.Default()
	}
	logger.WithField("services", cat.Names()).Info("Service catalog loaded")

	// Core entitlement stores
	ledger := entitlement.NewLedger(cat.Allowances())
	subs := entitlement.NewSubscriptionStore()
	engine := entitlement.NewEngine(ledger, subs)

	// Payment reconciliation
	extension := config.GetEnvDuration("SUBSCRIPTION_DURATION", 30*24*time.Hour)
	dedupWindow := config.GetEnvDuration("PAYMENT_DEDUP_WINDOW", 7*24*time.Hour)
	reconciler := payments.NewReconciler(subs, logger, extension, dedupWindow)

	// Payment providers: each is optional, configured purely by env
	clients := map[payments.Provider]payments.ProviderClient{}
	var npClient *payments.NowPaymentsClient
	var stripeClient *payments.StripeClient

	if clientID := config.GetEnv("PAYPAL_CLIENT_ID", ""); clientID != "" {
		clients[payments.ProviderPayPal] = payments.NewPayPalClient(payments.PayPalConfig{
			ClientID:  clientID,
			Secret:    config.RequireEnv("PAYPAL_SECRET"),
			BaseURL:   config.GetEnv("PAYPAL_API_URL", ""),
			ReturnURL: config.GetEnv("PAYPAL_RETURN_URL", ""),
			CancelURL: config.GetEnv("PAYPAL_CANCEL_URL", ""),
			Logger:    logger,
		})
	}
	if apiKey := config.GetEnv("NOWPAYMENTS_API_KEY", ""); apiKey != "" {
		npClient = payments.NewNowPaymentsClient(payments.NowPaymentsConfig{
			APIKey:     apiKey,
			IPNSecret:  config.GetEnv("NOWPAYMENTS_IPN_SECRET", ""),
			BaseURL:    config.GetEnv("NOWPAYMENTS_API_URL", ""),
			SuccessURL: config.GetEnv("PAYMENT_SUCCESS_URL", ""),
			CancelURL:  config.GetEnv("PAYMENT_CANCEL_URL", ""),
			Logger:     logger,
		})
		clients[payments.ProviderNowPayments] = npClient
	}
	if secretKey := config.GetEnv("STRIPE_SECRET_KEY", ""); secretKey != "" {
		stripeClient = payments.NewStripeClient(payments.StripeConfig{
			SecretKey:     secretKey,
			WebhookSecret: config.GetEnv("STRIPE_WEBHOOK_SECRET", ""),
			SuccessURL:    config.GetEnv("PAYMENT_SUCCESS_URL", ""),
			CancelURL:     config.GetEnv("PAYMENT_CANCEL_URL", ""),
			Logger:        logger,
		})
		clients[payments.ProviderStripe] = stripeClient
	}
	checkoutSvc := payments.NewCheckoutService(logger, reconciler, clients)
	logger.WithField("providers", checkoutSvc.AvailableProviders()).Info("Payment providers configured")

	// Generation backend
	genCfg := generator.LoadConfig()
	provider, err := generator.NewProvider(genCfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to configure generation provider")
	}
	gen := generator.New(cat, provider)

	// Setup monitoring
	healthChecker := monitoring.NewHealthChecker("smartvendoo", version.Version)
	metricsCollector := monitoring.NewMetricsCollector("smartvendoo", version.Version, version.GitCommit)

	healthChecker.AddCheck("config", monitoring.ConfigurationHealthCheck(map[string]string{
		"JWT_SECRET": jwtSecret,
	}))

	metrics := &handlers.VendMetrics{
		GenerationRequests:   metricsCollector.NewCounter("generation_requests_total", "Generation requests served", []string{"service", "outcome"}),
		EntitlementDenials:   metricsCollector.NewCounter("entitlement_denials_total", "Requests denied by the entitlement engine", []string{"service", "reason"}),
		PaymentConfirmations: metricsCollector.NewCounter("payment_confirmations_total", "Payment confirmations by path", []string{"path", "outcome"}),
		CheckoutsCreated:     metricsCollector.NewCounter("checkouts_created_total", "Checkout sessions created", []string{"provider", "outcome"}),
		GenerationDuration:   metricsCollector.NewHistogram("generation_duration_seconds", "Generation latency", []string{"service"}, nil),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Optional Postgres snapshots: state survives restarts when
	// DATABASE_URL is set, otherwise the service runs purely in memory.
	if dbURL := config.GetEnv("DATABASE_URL", ""); dbURL != "" {
		dbConfig := database.DefaultConfig()
		dbConfig.URL = dbURL
		db := database.MustConnect(dbConfig, logger)
		defer db.Close()

		healthChecker.AddCheck("database", monitoring.DatabaseHealthCheck(db))

		store := snapshot.NewStore(db, logger)
		if err := store.EnsureSchema(ctx); err != nil {
			logger.WithError(err).Fatal("Failed to prepare snapshot schema")
		}

		saver := snapshot.NewSaver(store, engine, reconciler, logger,
			config.GetEnvDuration("SNAPSHOT_INTERVAL", time.Minute))
		if err := saver.Restore(ctx); err != nil {
			logger.WithError(err).Fatal("Failed to restore entitlement snapshot")
		}
		go saver.Start(ctx)
		defer saver.Stop()
	} else {
		logger.Warn("DATABASE_URL not set, entitlement state will not survive restarts")
	}

	// Initialize handlers
	handlers.Init(handlers.Deps{
		Logger:      logger,
		Catalog:     cat,
		Engine:      engine,
		Generator:   gen,
		Reconciler:  reconciler,
		Checkout:    checkoutSvc,
		NowPayments: npClient,
		Stripe:      stripeClient,
		Metrics:     metrics,
	})

	// Setup router with unified monitoring
	router := server.SetupServiceRouter(logger, "smartvendoo", healthChecker, metricsCollector)

	// Generation endpoints, one per catalog service
	for _, svc := range cat.Services() {
		router.POST("/"+svc.Name, handlers.GenerateHandler(svc))
	}
	router.GET("/user-trials", handlers.GetUserTrials)

	// Payment endpoints
	router.POST("/pay/paypal", handlers.CreateCheckoutHandler(payments.ProviderPayPal))
	router.POST("/pay/crypto", handlers.CreateCheckoutHandler(payments.ProviderNowPayments))
	router.POST("/pay/stripe", handlers.CreateCheckoutHandler(payments.ProviderStripe))
	router.POST("/payment/callback", handlers.PaymentCallback)

	// Webhook endpoints (no auth, providers sign their own payloads)
	router.POST("/webhooks/paypal", handlers.PayPalWebhook)
	router.POST("/webhooks/nowpayments", handlers.NowPaymentsWebhook)
	router.POST("/webhooks/stripe", handlers.StripeWebhook)

	// Admin endpoints
	router.POST("/admin/login", handlers.AdminLogin)
	admin := router.Group("/admin")
	admin.Use(auth.JWTAuthMiddleware([]byte(jwtSecret)), auth.RequireRole("admin"))
	{
		admin.GET("/stats", handlers.AdminStats)
		admin.GET("/identities", handlers.AdminIdentities)
		admin.POST("/ban", handlers.AdminBan)
		admin.POST("/unban", handlers.AdminUnban)
		admin.DELETE("/identity", handlers.AdminDeleteIdentity)
	}

	// Start server with graceful shutdown
	serverConfig := server.DefaultConfig("smartvendoo", "18090")
	if err := server.Start(serverConfig, router, logger); err != nil {
		logger.WithError(err).Fatal("Server startup failed")
	}
}
