package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mojisejr/oeng-api/internal/core/analyze"
	"github.com/mojisejr/oeng-api/internal/core/auth"
	"github.com/mojisejr/oeng-api/internal/core/ledgercheck"
	"github.com/mojisejr/oeng-api/internal/core/llm"
	"github.com/mojisejr/oeng-api/internal/core/payment"
	"github.com/mojisejr/oeng-api/internal/metrics"
	"github.com/mojisejr/oeng-api/internal/modules/coach/handlers"
	"github.com/mojisejr/oeng-api/internal/modules/coach/repositories"
	"github.com/mojisejr/oeng-api/internal/modules/coach/services"
	"github.com/mojisejr/oeng-api/internal/shared/config"
	"github.com/mojisejr/oeng-api/internal/shared/database"
	"github.com/mojisejr/oeng-api/internal/shared/utils"
)

// @title oeng API
// @version 1.0
// @description Backend for the oeng English-coaching app: accounts, credit ledger, AI sentence analysis.
// @host localhost:8080
// @BasePath /
func main() {
	// Load config
	cfg := config.LoadConfig()
	utils.InitLogger(cfg.Env)
	log.Printf("🚀 Starting oeng-api on port %s", cfg.Port)

	if cfg.JWTSecret == "" {
		log.Fatal("❌ JWT_SECRET is empty")
	}

	// Init database
	db := database.NewDB(cfg.DatabaseURL)
	defer db.Close()

	// Init metrics
	ledgerMetrics := metrics.NewLedgerMetrics()

	// Init repositories
	userRepo := repositories.NewUserRepo(db.GORM)
	ledgerRepo := repositories.NewLedgerRepo(db.GORM)
	sentenceRepo := repositories.NewSentenceRepo(db.GORM)
	purchaseRepo := repositories.NewPurchaseRepo(db.GORM)

	// Init LLM service
	llmService, err := llm.NewService(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to create LLM provider: %v", err)
	}
	log.Printf("🤖 Using LLM provider: %s", llmService.GetProviderName())

	// Init payment gateway based on config
	paymentGateway, err := payment.NewGateway(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize payment gateway: %v", err)
	}

	// Init services
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	creditService := services.NewCreditService(ledgerRepo, ledgerMetrics)
	accountService := services.NewAccountService(userRepo, creditService, jwtService, cfg.FreeCredits)
	analyzer := analyze.NewAnalyzer(llmService)
	sentenceService := services.NewSentenceService(db.GORM, sentenceRepo, ledgerRepo, analyzer, ledgerMetrics)
	purchaseService := services.NewPurchaseService(db.GORM, purchaseRepo, ledgerRepo, paymentGateway, ledgerMetrics)

	// Init handlers
	accountHandler := handlers.NewAccountHandler(accountService)
	creditHandler := handlers.NewCreditHandler(creditService, purchaseService, accountService)
	sentenceHandler := handlers.NewSentenceHandler(sentenceService)
	healthHandler := handlers.NewHealthHandler(db)

	// Nightly ledger audit; an empty schedule disables it
	if cfg.LedgerAuditSchedule != "" {
		auditScheduler := ledgercheck.NewScheduler(ledgercheck.NewChecker(db.GORM, ledgerMetrics))
		if err := auditScheduler.Start(cfg.LedgerAuditSchedule); err != nil {
			log.Fatalf("Failed to start ledger audit: %v", err)
		}
		defer auditScheduler.Stop()
	}

	// Init Fiber app
	app := fiber.New(fiber.Config{
		AppName: "oeng API",
	})

	// Middleware
	app.Use(cors.New())

	// Health check and metrics
	app.Get("/health", healthHandler.GetHealth)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Auth routes
	app.Post("/api/auth/register", accountHandler.Register)
	app.Post("/api/auth/login", accountHandler.Login)
	app.Post("/api/auth/refresh", accountHandler.Refresh)

	// Everything below requires a Bearer token
	protected := auth.Middleware(jwtService)

	app.Get("/api/auth/me", protected, accountHandler.Me)

	// Credit routes
	app.Get("/api/credits/balance", protected, creditHandler.GetBalance)
	app.Get("/api/credits/history", protected, creditHandler.GetHistory)
	app.Get("/api/credits/packs", creditHandler.GetPacks)
	app.Post("/api/credits/purchase", protected, creditHandler.CreatePurchase)
	app.Post("/api/credits/purchase/:id/confirm", protected, creditHandler.ConfirmPurchase)

	// Sentence routes
	app.Post("/api/sentences", protected, sentenceHandler.Create)
	app.Get("/api/sentences", protected, sentenceHandler.List)
	app.Post("/api/sentences/analyze", protected, sentenceHandler.Analyze)
	app.Get("/api/sentences/:id", protected, sentenceHandler.Get)
	app.Delete("/api/sentences/:id", protected, sentenceHandler.Delete)

	// Start server
	log.Printf("✅ oeng-api running at :%s", cfg.Port)
	log.Fatal(app.Listen(":" + cfg.Port))
}
