package main

import (
	"log"

	"greenloop/config"
	"greenloop/database"
	"greenloop/gemini"
	"greenloop/handlers"
	"greenloop/metrics"
	"greenloop/middleware"
	"greenloop/services"
	"greenloop/utils/email"
	"greenloop/verification"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.Load()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	log.Println("Initializing database schema...")
	if err := database.InitSchema(db); err != nil {
		log.Fatal("Failed to initialize database schema:", err)
	}

	metrics.Register()

	var classifier verification.Classifier
	if cfg.GeminiAPIKey != "" {
		classifier = gemini.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel)
	} else {
		log.Println("WARNING: GEMINI_API_KEY not set, using stub classifier")
		classifier = verification.NewStubClassifier()
	}

	var mailer services.Mailer
	if cfg.SendGridAPIKey != "" {
		mailer = email.NewSender(cfg.SendGridAPIKey, cfg.EmailFromName, cfg.EmailFromAddr)
	}

	users := services.NewUserService(db)
	ledger := services.NewLedgerService(db)
	rewards := services.NewRewardService(db, mailer)
	lifecycle := services.NewLifecycleService(db, classifier, mailer)
	notifications := services.NewNotificationService(db)
	stats := services.NewStatsService(db)
	reportMap := services.NewMapService(db)

	h := handlers.NewHandlers(lifecycle, ledger, rewards, notifications, stats, reportMap)

	router := setupRouter(h, cfg, users)

	log.Printf("Greenloop service starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

func setupRouter(h *handlers.Handlers, cfg *config.Config, users *services.UserService) *gin.Engine {
	router := gin.Default()

	router.SetTrustedProxies(cfg.TrustedProxies)

	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RateLimitMiddleware())

	router.GET("/health", h.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	protected := router.Group("/api/v3")
	protected.Use(middleware.AuthMiddleware(cfg.JWTSecret, users))
	{
		protected.POST("/reports", h.SubmitReport)
		protected.GET("/reports/recent", h.RecentReports)
		protected.GET("/reports/mine", h.MyReports)

		protected.GET("/tasks", h.CollectionTasks)
		protected.POST("/tasks/:id/claim", h.ClaimTask)
		protected.POST("/tasks/:id/verify", h.VerifyCollection)
		protected.GET("/collected", h.CollectedWastes)

		protected.GET("/rewards", h.AvailableRewards)
		protected.POST("/rewards/redeem", h.Redeem)
		protected.GET("/balance", h.Balance)
		protected.GET("/transactions", h.Transactions)

		protected.GET("/notifications", h.Notifications)
		protected.POST("/notifications/:id/read", h.MarkNotificationRead)

		protected.GET("/map", h.ReportMap)
		protected.GET("/stats", h.ImpactStats)
	}

	return router
}
