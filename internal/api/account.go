package api

import (
	"context"                       // Context for Redis operations
	"errors"                        // Sentinel error matching
	"net/http"                      // HTTP status codes
	"strconv"                       // String conversion
	"time"                          // Cache TTLs and log timestamps
	"transit_card/internal/domain"  // Importing domain models
	"transit_card/internal/service" // Ledger operations
	"transit_card/internal/utils"   // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// cacheTTL is how long read responses stay cached
const cacheTTL = 60 * time.Second

// userIDFromContext extracts the authenticated user ID set by the JWT middleware
func userIDFromContext(c *gin.Context) (string, bool) {
	v, exists := c.Get("userID")
	if !exists {
		return "", false
	}
	userID, ok := v.(string)
	return userID, ok && userID != ""
}

// errorStatus maps a service error to an HTTP status code
func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrAccountNotFound),
		errors.Is(err, service.ErrPassNotFound),
		errors.Is(err, service.ErrPaymentMethodNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrChargeLimitExceeded),
		errors.Is(err, service.ErrBalanceCapExceeded),
		errors.Is(err, service.ErrInsufficientBalance),
		errors.Is(err, service.ErrInvalidDuration),
		errors.Is(err, service.ErrTicketNotIssued),
		errors.Is(err, service.ErrInvalidPaymentType),
		errors.Is(err, service.ErrInvalidTransactionType):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ChargeRequest represents a balance charge request
type ChargeRequest struct {
	Amount          int    `json:"amount" binding:"required,gt=0"` // Charge amount in yen
	PaymentMethodID string `json:"payment_method_id"`              // Optional payment method to show in history
}

// PayRequest represents a balance payment request
type PayRequest struct {
	Amount      int    `json:"amount" binding:"required,gt=0"`  // Payment amount in yen
	Description string `json:"description" binding:"required"`  // What the payment was for
	Type        string `json:"type"`                            // Transaction classification, defaults to demo_purchase
	Location    string `json:"location"`                        // Optional location label
}

// GetAccountHandler returns the authenticated user's transit account
func GetAccountHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	accounts := service.NewAccountService(db)
	return func(c *gin.Context) {
		userID, ok := userIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		ctx := context.Background()          // Context for Redis operations
		cacheKey := accountCacheKey(userID)  // Cache key for the account
		var account domain.Account           // Account struct to hold data
		found, err := utils.GetCache(ctx, rdb, cacheKey, &account)
		// If found in cache, return it
		if err == nil && found {
			c.JSON(http.StatusOK, gin.H{"account": account, "cached": true})
			return
		}
		// If not in cache, fetch from the store
		acct, err := accounts.GetAccount(userID)
		if err != nil {
			c.JSON(errorStatus(err), gin.H{"error": err.Error()})
			return
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, acct, cacheTTL) // Cache the account
		c.JSON(http.StatusOK, gin.H{"account": acct, "cached": false})
	}
}

// GetTransactionsHandler returns the account's history, newest first
func GetTransactionsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	accounts := service.NewAccountService(db)
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
		limit := service.DefaultTransactionLimit // Default row count
		if l := c.Query("limit"); l != "" {
			// Clamping happens in the service; only parse here
			if v, err := strconv.Atoi(l); err == nil && v > 0 {
				limit = v
			}
		}
		ctx := context.Background()
		cacheKey := txHistoryCacheKey(account.ID)
		// Only default-limit reads are cached so one key covers invalidation
		cacheable := limit == service.DefaultTransactionLimit
		if cacheable {
			var cached []domain.Transaction
			found, err := utils.GetCache(ctx, rdb, cacheKey, &cached)
			// If found in cache, return it
			if err == nil && found {
				c.JSON(http.StatusOK, gin.H{"transactions": cached, "cached": true})
				return
			}
		}
		transactions, err := accounts.GetTransactions(account.ID, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions"})
			return
		}
		if cacheable {
			_ = utils.SetCache(ctx, rdb, cacheKey, transactions, cacheTTL)
		}
		c.JSON(http.StatusOK, gin.H{"transactions": transactions, "cached": false})
	}
}

// ChargeHandler increases the account balance by the requested amount
func ChargeHandler(db *gorm.DB) gin.HandlerFunc {
	accounts := service.NewAccountService(db)
	return func(c *gin.Context) {
		userID, ok := userIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req ChargeRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		account, err := accounts.GetAccount(userID)
		if err != nil {
			c.JSON(errorStatus(err), gin.H{"error": err.Error()})
			return
		}
		result, err := accounts.Charge(account.ID, req.Amount, req.PaymentMethodID)
		if err != nil {
			c.JSON(errorStatus(err), gin.H{"error": err.Error()})
			return
		}
		// Log successful charge
		logrus.WithFields(logrus.Fields{
			"user_id":     userID,                          // User ID
			"account_id":  account.ID,                      // Account ID
			"amount":      req.Amount,                      // Charge amount
			"new_balance": result.NewBalance,               // Balance after the charge
			"timestamp":   time.Now().Format(time.RFC3339), // Current timestamp
		}).Info("Charge transaction")
		// Invalidate account and history cache
		if rdb, ok := c.MustGet("redisClient").(*redis.Client); ok {
			invalidateLedgerCache(context.Background(), rdb, userID, account.ID)
		}
		c.JSON(http.StatusOK, gin.H{"result": result})
	}
}

// PayHandler decreases the account balance for a generic purchase
func PayHandler(db *gorm.DB) gin.HandlerFunc {
	accounts := service.NewAccountService(db)
	return func(c *gin.Context) {
		userID, ok := userIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req PayRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		txType := req.Type
		if txType == "" {
			txType = domain.TransactionTypeDemoPurchase // Default classification
		}
		account, err := accounts.GetAccount(userID)
		if err != nil {
			c.JSON(errorStatus(err), gin.H{"error": err.Error()})
			return
		}
		result, err := accounts.Pay(account.ID, req.Amount, req.Description, txType, req.Location)
		if err != nil {
			c.JSON(errorStatus(err), gin.H{"error": err.Error()})
			return
		}
		// Log successful payment
		logrus.WithFields(logrus.Fields{
			"user_id":     userID,                          // User ID
			"account_id":  account.ID,                      // Account ID
			"amount":      req.Amount,                      // Payment amount
			"type":        txType,                          // Transaction classification
			"new_balance": result.NewBalance,               // Balance after the payment
			"timestamp":   time.Now().Format(time.RFC3339), // Current timestamp
		}).Info("Payment transaction")
		// Invalidate account and history cache
		if rdb, ok := c.MustGet("redisClient").(*redis.Client); ok {
			invalidateLedgerCache(context.Background(), rdb, userID, account.ID)
		}
		c.JSON(http.StatusOK, gin.H{"result": result})
	}
}
