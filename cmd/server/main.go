package main

import (
	"context"                          // context package is needed for Redis operations
	"log"                              // log package is needed for logging
	"transit_card/internal/api"        // Custom package for API handlers
	"transit_card/internal/config"     // Custom package for configuration
	"transit_card/internal/middleware" // Custom package for middleware

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

	// Setup Data Source Name (DSN) and connect to the database
	dsn := cfg.DBUser + ":" + cfg.DBPassword + "@tcp(" + cfg.DBHost + ":" + cfg.DBPort + ")/" + cfg.DBName + "?parseTime=true"
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
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
	_, err = redisClient.Ping(context.Background()).Result()
	if err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin
	r := gin.Default() // Gin router instance

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	// Auth routes
	r.POST("/user", api.RegisterHandler(db))            // Registration endpoint
	r.GET("/user", api.LoginHandler(db, cfg.JWTSecret)) // Login endpoint

	// Authenticated routes share the JWT middleware and the Redis client
	authed := func(g *gin.RouterGroup) {
		g.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret), func(c *gin.Context) {
			c.Set("redisClient", redisClient)
			c.Next()
		})
	}

	// Account routes (balance, history, charging)
	accountGroup := r.Group("/account")
	authed(accountGroup)
	accountGroup.GET("", api.GetAccountHandler(db, redisClient))              // Account endpoint
	accountGroup.GET("/transactions", api.GetTransactionsHandler(db, redisClient)) // Transaction history endpoint
	accountGroup.POST("/charge", api.ChargeHandler(db))                       // Charge endpoint
	accountGroup.POST("/pay", api.PayHandler(db))                             // Payment endpoint

	// QR ticket routes
	ticketGroup := r.Group("/tickets")
	authed(ticketGroup)
	ticketGroup.POST("", api.IssueTicketHandler(db))                 // Issue endpoint
	ticketGroup.GET("", api.ListTicketsHandler(db, redisClient))     // List endpoint
	ticketGroup.POST("/:id/use", api.UseTicketHandler(db))           // Use endpoint
	ticketGroup.POST("/:id/cancel", api.CancelTicketHandler(db))     // Cancel/refund endpoint
	ticketGroup.GET("/:id/qr", api.TicketQRHandler(db))              // QR payload endpoint

	// Commuter pass routes
	passGroup := r.Group("/passes")
	authed(passGroup)
	passGroup.POST("", api.PurchasePassHandler(db))              // Purchase endpoint
	passGroup.GET("", api.ListPassesHandler(db, redisClient))    // List endpoint
	passGroup.POST("/:id/cancel", api.CancelPassHandler(db))     // Cancel endpoint

	// Payment method routes
	pmGroup := r.Group("/payment-methods")
	authed(pmGroup)
	pmGroup.GET("", api.ListPaymentMethodsHandler(db, redisClient))       // List endpoint
	pmGroup.POST("", api.AddPaymentMethodHandler(db))                     // Add endpoint
	pmGroup.DELETE("/:id", api.DeletePaymentMethodHandler(db))            // Delete endpoint
	pmGroup.POST("/:id/default", api.SetDefaultPaymentMethodHandler(db))  // Set default endpoint

	// Admin routes (protected, admin only)
	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret), middleware.AdminOnlyMiddleware(db))
	adminGroup.GET("/users", api.ListUsersHandler(db, redisClient))               // List users endpoint
	adminGroup.GET("/transactions", api.ListTransactionsHandler(db, redisClient)) // List transactions endpoint

	log.Println("Server running on " + cfg.AppPort) // Log server start
	r.Run(":" + cfg.AppPort)                        // Start the server on port cfg.AppPort
}
