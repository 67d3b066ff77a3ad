package api

import (
	"context"                       // Context for Redis operations
	"net/http"                      // HTTP status codes
	"transit_card/internal/domain"  // Importing domain models
	"transit_card/internal/service" // Payment method operations
	"transit_card/internal/utils"   // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// AddPaymentMethodRequest represents a payment method registration
type AddPaymentMethodRequest struct {
	Type        string `json:"type" binding:"required"` // Payment method type
	DisplayName string `json:"display_name"`            // Optional display name
	IsDefault   bool   `json:"is_default"`              // Whether to make it the default
}

// ListPaymentMethodsHandler returns the user's payment methods, default first
func ListPaymentMethodsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	methods := service.NewPaymentMethodService(db)
	return func(c *gin.Context) {
		userID, ok := userIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		ctx := context.Background()
		cacheKey := payMethodsCacheKey(userID)
		var cached []domain.PaymentMethod
		found, err := utils.GetCache(ctx, rdb, cacheKey, &cached)
		// If found in cache, return it
		if err == nil && found {
			c.JSON(http.StatusOK, gin.H{"payment_methods": cached, "cached": true})
			return
		}
		list, err := methods.List(userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch payment methods"})
			return
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, list, cacheTTL)
		c.JSON(http.StatusOK, gin.H{"payment_methods": list, "cached": false})
	}
}

// AddPaymentMethodHandler registers a payment method for the user
func AddPaymentMethodHandler(db *gorm.DB) gin.HandlerFunc {
	methods := service.NewPaymentMethodService(db)
	return func(c *gin.Context) {
		userID, ok := userIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req AddPaymentMethodRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		displayName := req.DisplayName
		if displayName == "" {
			displayName = domain.PaymentTypeDisplayName(req.Type) // Fall back to the type label
		}
		method, err := methods.Add(userID, req.Type, displayName, req.IsDefault)
		if err != nil {
			c.JSON(errorStatus(err), gin.H{"error": err.Error()})
			return
		}
		logrus.WithFields(logrus.Fields{
			"user_id":           userID,      // User ID
			"payment_method_id": method.ID,   // New payment method ID
			"type":              method.Type, // Payment method type
		}).Info("Payment method added")
		// Drop the stale payment method cache
		if rdb, ok := c.MustGet("redisClient").(*redis.Client); ok {
			_ = utils.DeleteCache(context.Background(), rdb, payMethodsCacheKey(userID))
		}
		c.JSON(http.StatusCreated, gin.H{"payment_method": method})
	}
}

// DeletePaymentMethodHandler removes one of the user's payment methods
func DeletePaymentMethodHandler(db *gorm.DB) gin.HandlerFunc {
	methods := service.NewPaymentMethodService(db)
	return func(c *gin.Context) {
		userID, ok := userIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		if err := methods.Delete(userID, c.Param("id")); err != nil {
			c.JSON(errorStatus(err), gin.H{"error": err.Error()})
			return
		}
		// Drop the stale payment method cache
		if rdb, ok := c.MustGet("redisClient").(*redis.Client); ok {
			_ = utils.DeleteCache(context.Background(), rdb, payMethodsCacheKey(userID))
		}
		c.JSON(http.StatusOK, gin.H{"message": "Payment method deleted"})
	}
}

// SetDefaultPaymentMethodHandler makes the given method the user's default
func SetDefaultPaymentMethodHandler(db *gorm.DB) gin.HandlerFunc {
	methods := service.NewPaymentMethodService(db)
	return func(c *gin.Context) {
		userID, ok := userIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		if err := methods.SetDefault(userID, c.Param("id")); err != nil {
			c.JSON(errorStatus(err), gin.H{"error": err.Error()})
			return
		}
		// Drop the stale payment method cache
		if rdb, ok := c.MustGet("redisClient").(*redis.Client); ok {
			_ = utils.DeleteCache(context.Background(), rdb, payMethodsCacheKey(userID))
		}
		c.JSON(http.StatusOK, gin.H{"message": "Default payment method updated"})
	}
}
