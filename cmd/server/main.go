package main

import (
	"context"
	"log"
	"os"

	"github.com/Sabnock-k/SmartFinderAI-sub000/internal/cache"
	"github.com/Sabnock-k/SmartFinderAI-sub000/internal/config"
	"github.com/Sabnock-k/SmartFinderAI-sub000/internal/database"
	"github.com/Sabnock-k/SmartFinderAI-sub000/internal/embedding"
	"github.com/Sabnock-k/SmartFinderAI-sub000/internal/handler"
	"github.com/Sabnock-k/SmartFinderAI-sub000/internal/middleware"
	"github.com/Sabnock-k/SmartFinderAI-sub000/internal/scheduler"
	"github.com/Sabnock-k/SmartFinderAI-sub000/internal/search"
	"github.com/Sabnock-k/SmartFinderAI-sub000/internal/workflow"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.Load()

	// Initialize database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto migrate
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Initialize Redis cache
	var redisCache *cache.RedisCache
	redisCache, err = cache.NewRedisCache(cfg.RedisURL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v", err)
		// Continue without Redis cache (fail-open)
		redisCache = nil
	}

	// Initialize embedding provider
	embedder, err := embedding.NewGeminiEmbedder(context.Background(), cfg.GeminiAPIKey, cfg.EmbeddingTimeout)
	if err != nil {
		log.Fatalf("Failed to create embedding client: %v", err)
	}
	defer embedder.Close()

	// Initialize services
	searchEngine := search.NewEngine(db, embedder, redisCache)
	workflowService := workflow.NewService(db, embedder)

	// Initialize handlers
	itemHandler := handler.NewItemHandler(workflowService)
	searchHandler := handler.NewSearchHandler(searchEngine)
	claimHandler := handler.NewClaimHandler(workflowService)
	notificationHandler := handler.NewNotificationHandler(db)
	adminHandler := handler.NewAdminHandler(db, workflowService)

	// Initialize and start the embedding backfill scheduler if enabled
	var backfill *scheduler.BackfillScheduler
	if cfg.SchedulerEnabled {
		backfill = scheduler.NewBackfillScheduler(db, embedder, scheduler.Config{
			Interval: cfg.SchedulerInterval,
		})
		go backfill.Start(context.Background())
		log.Println("Embedding backfill scheduler started")
	}

	// Setup router
	r := gin.Default()
	r.Use(middleware.MetricsMiddleware())

	// CORS middleware
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Scheduler status
	r.GET("/scheduler/status", func(c *gin.Context) {
		if backfill != nil {
			c.JSON(200, backfill.GetStatus())
		} else {
			c.JSON(200, gin.H{"enabled": false, "message": "Scheduler is disabled"})
		}
	})

	// API routes
	api := r.Group("/api")
	authed := api.Group("", middleware.AuthMiddleware(cfg.JWTSecret))
	{
		// Items
		authed.POST("/items", itemHandler.Create)
		authed.GET("/items/founder/:founderId", itemHandler.ListByFounder)
		authed.GET("/items/claimed/:userId", itemHandler.ListClaimed)

		// Search
		authed.POST("/search", searchHandler.Search)

		// Claims
		authed.POST("/claims", claimHandler.Create)
		authed.PUT("/claims/founder-confirm", claimHandler.FounderConfirm)
		authed.PUT("/claims/claimer-confirm/:claimId", claimHandler.ClaimerConfirm)

		// Notifications
		authed.GET("/notifications", notificationHandler.List)
		authed.DELETE("/notifications/:id", notificationHandler.Delete)
		authed.DELETE("/notifications", notificationHandler.ClearAll)
	}

	admin := api.Group("/admin", middleware.AdminMiddleware(cfg.JWTSecret, cfg.AdminEmails))
	{
		admin.PUT("/items/:id/approve", adminHandler.Approve)
		admin.DELETE("/items/:id/reject", adminHandler.Reject)
		admin.PUT("/items/:id/reunited", adminHandler.Reunite)
		admin.DELETE("/items/:id", adminHandler.Delete)
		admin.POST("/items/:id/reembed", adminHandler.Reembed)
		admin.GET("/analytics", adminHandler.Analytics)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "4000"
	}

	log.Printf("API server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
