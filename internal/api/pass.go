package api

import (
	"context"                       // Context for Redis operations
	"net/http"                      // HTTP status codes
	"time"                          // Log timestamps
	"transit_card/internal/domain"  // Importing domain models
	"transit_card/internal/fare"    // Pass duration tiers
	"transit_card/internal/service" // Pass operations
	"transit_card/internal/utils"   // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// PurchasePassRequest represents a commuter pass purchase request
type PurchasePassRequest struct {
	StartStation string `json:"start_station" binding:"required"` // Departure station
	EndStation   string `json:"end_station" binding:"required"`   // Arrival station
	RouteName    string `json:"route_name"`                       // Optional route label
	Duration     string `json:"duration" binding:"required"`      // 1month, 3months or 6months
}

// PurchasePassHandler debits the pass price and creates an active pass
func PurchasePassHandler(db *gorm.DB) gin.HandlerFunc {
	accounts := service.NewAccountService(db)
	passes := service.NewCommuterPassService(db)
	return func(c *gin.Context) {
		userID, ok := userIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req PurchasePassRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Same-station passes are rejected before the ledger is touched
		if req.StartStation == req.EndStation {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Start and end stations must differ"})
			return
		}
		account, err := accounts.GetAccount(userID)
		if err != nil {
			c.JSON(errorStatus(err), gin.H{"error": err.Error()})
			return
		}
		result, err := passes.Purchase(account.ID, req.StartStation, req.EndStation, req.RouteName, fare.PassDuration(req.Duration))
		if err != nil {
			c.JSON(errorStatus(err), gin.H{"error": err.Error()})
			return
		}
		// Log successful purchase
		logrus.WithFields(logrus.Fields{
			"user_id":     userID,                          // User ID
			"account_id":  account.ID,                      // Account ID
			"pass_id":     result.Pass.ID,                  // Purchased pass ID
			"price":       result.Pass.Price,               // Debited price
			"new_balance": result.NewBalance,               // Balance after the debit
			"timestamp":   time.Now().Format(time.RFC3339), // Current timestamp
		}).Info("Commuter pass purchased")
		// Invalidate account, history and pass caches
		if rdb, ok := c.MustGet("redisClient").(*redis.Client); ok {
			ctx := context.Background()
			invalidateLedgerCache(ctx, rdb, userID, account.ID)
			_ = utils.DeleteCache(ctx, rdb, passesCacheKey(account.ID), passesCacheKey(account.ID)+":active")
		}
		c.JSON(http.StatusCreated, gin.H{"result": result})
	}
}

// ListPassesHandler returns the account's passes; ?active=true narrows to
// active passes ordered soonest to expire
func ListPassesHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	accounts := service.NewAccountService(db)
	passes := service.NewCommuterPassService(db)
	return func(c *gin.Context) {
		userID, ok := userIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		account, err := accounts.GetAccount(userID)
		if err != nil {
			c.JSON(errorStatus(err), gin.H{"error": err.Error()})
			return
		}
		activeOnly := c.Query("active") == "true"
		ctx := context.Background()
		cacheKey := passesCacheKey(account.ID)
		if activeOnly {
			cacheKey += ":active"
		}
		var cached []domain.CommuterPass
		found, err := utils.GetCache(ctx, rdb, cacheKey, &cached)
		// If found in cache, return it
		if err == nil && found {
			c.JSON(http.StatusOK, gin.H{"commuter_passes": cached, "cached": true})
			return
		}
		var list []domain.CommuterPass
		if activeOnly {
			list, err = passes.GetActivePasses(account.ID)
		} else {
			list, err = passes.GetPasses(account.ID)
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch commuter passes"})
			return
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, list, cacheTTL)
		c.JSON(http.StatusOK, gin.H{"commuter_passes": list, "cached": false})
	}
}

// CancelPassHandler marks one of the user's passes canceled (no refund)
func CancelPassHandler(db *gorm.DB) gin.HandlerFunc {
	accounts := service.NewAccountService(db)
	passes := service.NewCommuterPassService(db)
	return func(c *gin.Context) {
		userID, ok := userIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		account, err := accounts.GetAccount(userID)
		if err != nil {
			c.JSON(errorStatus(err), gin.H{"error": err.Error()})
			return
		}
		passID := c.Param("id") // Pass ID from the path
		// Verify ownership before canceling
		var pass domain.CommuterPass
		if err := db.Where("id = ? AND account_id = ?", passID, account.ID).First(&pass).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Commuter pass not found"})
			return
		}
		if err := passes.Cancel(passID); err != nil {
			c.JSON(errorStatus(err), gin.H{"error": err.Error()})
			return
		}
		logrus.WithFields(logrus.Fields{
			"user_id": userID, // User ID
			"pass_id": passID, // Canceled pass ID
		}).Info("Commuter pass canceled")
		// Drop the stale pass list caches
		if rdb, ok := c.MustGet("redisClient").(*redis.Client); ok {
			_ = utils.DeleteCache(context.Background(), rdb,
				passesCacheKey(account.ID), passesCacheKey(account.ID)+":active")
		}
		c.JSON(http.StatusOK, gin.H{"message": "Commuter pass canceled"})
	}
}
