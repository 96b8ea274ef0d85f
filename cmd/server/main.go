package main

import (
	"context" // context package is needed for Redis operations
	"log"     // log package is needed for logging

	"coinkeeper/internal/api"        // Custom package for API handlers
	"coinkeeper/internal/config"     // Custom package for configuration
	"coinkeeper/internal/ledger"     // Core ledger engine
	"coinkeeper/internal/middleware" // Custom package for middleware

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
	"gorm.io/driver/mysql"         // MySQL driver for GORM
	"gorm.io/gorm"                 // GORM ORM library
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Connect to the database
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})

	// Test Redis connection
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Core services, all sharing the same transactional store
	categories := ledger.NewCategoryStore(db)
	led := ledger.NewLedger(db)
	balance := ledger.NewBalanceAggregator(db)
	statistics := ledger.NewStatisticsEngine(led)

	// Setup Gin
	r := gin.Default() // Gin router instance

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	// Auth routes
	r.POST("/api/auth/register", api.RegisterHandler(db, cfg.JWTSecret)) // Registration endpoint
	r.POST("/api/auth/login", api.LoginHandler(db, cfg.JWTSecret))       // Login endpoint

	// Everything under /api except auth requires a valid token
	authorized := r.Group("/api")
	authorized.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))

	// Category routes
	authorized.GET("/categories", api.ListCategoriesHandler(categories))
	authorized.POST("/categories", api.CreateCategoryHandler(categories))
	authorized.PUT("/categories/:id", api.RenameCategoryHandler(categories, redisClient))
	authorized.DELETE("/categories/:id", api.DeleteCategoryHandler(categories, redisClient))

	// Transaction routes
	authorized.GET("/transactions/statistics", api.GetStatisticsHandler(statistics))
	authorized.GET("/transactions", api.ListTransactionsHandler(led, redisClient))
	authorized.POST("/transactions", api.CreateTransactionHandler(led, redisClient))
	authorized.PUT("/transactions/:id", api.UpdateTransactionHandler(led, redisClient))
	authorized.DELETE("/transactions/:id", api.DeleteTransactionHandler(led, redisClient))

	// Balance routes
	authorized.GET("/balance", api.GetBalanceHandler(balance, redisClient))
	authorized.POST("/balance/recompute", api.RecomputeBalanceHandler(balance, redisClient))

	log.Println("Server running on " + cfg.AppPort) // Log server start
	r.Run(":" + cfg.AppPort)                        // Start the server on port cfg.AppPort
}
