package api

import (
	"context"                       // Context for Redis operations
	"net/http"                      // HTTP status codes
	"time"                          // Log timestamps
	"transit_card/internal/domain"  // Importing domain models
	"transit_card/internal/service" // Ticket operations
	"transit_card/internal/utils"   // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// IssueTicketRequest represents a QR ticket issuance request
type IssueTicketRequest struct {
	StartStation string `json:"start_station" binding:"required"` // Departure station
	EndStation   string `json:"end_station" binding:"required"`   // Arrival station
}

// IssueTicketHandler debits the fare and issues a QR ticket
func IssueTicketHandler(db *gorm.DB) gin.HandlerFunc {
	accounts := service.NewAccountService(db)
	tickets := service.NewQRTicketService(db)
	return func(c *gin.Context) {
		userID, ok := userIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req IssueTicketRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Same-station trips are rejected before the ledger is touched
		if req.StartStation == req.EndStation {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Start and end stations must differ"})
			return
		}
		account, err := accounts.GetAccount(userID)
		if err != nil {
			c.JSON(errorStatus(err), gin.H{"error": err.Error()})
			return
		}
		result, err := tickets.Issue(account.ID, req.StartStation, req.EndStation)
		if err != nil {
			c.JSON(errorStatus(err), gin.H{"error": err.Error()})
			return
		}
		// Log successful issuance
		logrus.WithFields(logrus.Fields{
			"user_id":     userID,                          // User ID
			"account_id":  account.ID,                      // Account ID
			"ticket_id":   result.Ticket.ID,                // Issued ticket ID
			"fare":        result.Ticket.Fare,              // Debited fare
			"new_balance": result.NewBalance,               // Balance after the debit
			"timestamp":   time.Now().Format(time.RFC3339), // Current timestamp
		}).Info("QR ticket issued")
		// Invalidate account, history and ticket caches
		if rdb, ok := c.MustGet("redisClient").(*redis.Client); ok {
			ctx := context.Background()
			invalidateLedgerCache(ctx, rdb, userID, account.ID)
			_ = utils.DeleteCache(ctx, rdb, ticketsCacheKey(account.ID), ticketsCacheKey(account.ID)+":active")
		}
		c.JSON(http.StatusCreated, gin.H{"result": result})
	}
}

// ListTicketsHandler returns the account's tickets; ?active=true narrows to
// issued tickets only
func ListTicketsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	accounts := service.NewAccountService(db)
	tickets := service.NewQRTicketService(db)
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
		cacheKey := ticketsCacheKey(account.ID)
		if activeOnly {
			cacheKey += ":active"
		}
		var cached []domain.QRTicket
		found, err := utils.GetCache(ctx, rdb, cacheKey, &cached)
		// If found in cache, return it
		if err == nil && found {
			c.JSON(http.StatusOK, gin.H{"tickets": cached, "cached": true})
			return
		}
		var list []domain.QRTicket
		if activeOnly {
			list, err = tickets.GetActiveTickets(account.ID)
		} else {
			list, err = tickets.GetTickets(account.ID)
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tickets"})
			return
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, list, cacheTTL)
		c.JSON(http.StatusOK, gin.H{"tickets": list, "cached": false})
	}
}

// UseTicketHandler transitions an issued ticket to used. Only tickets owned
// by the caller's account can be used.
func UseTicketHandler(db *gorm.DB) gin.HandlerFunc {
	accounts := service.NewAccountService(db)
	tickets := service.NewQRTicketService(db)
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
		ticketID := c.Param("id") // Ticket ID from the path
		if err := tickets.Use(ticketID, account.ID); err != nil {
			c.JSON(errorStatus(err), gin.H{"error": err.Error()})
			return
		}
		logrus.WithFields(logrus.Fields{
			"user_id":   userID,   // User ID
			"ticket_id": ticketID, // Used ticket ID
		}).Info("QR ticket used")
		// Drop the stale ticket list caches for this user's account
		if rdb, ok := c.MustGet("redisClient").(*redis.Client); ok {
			invalidateTicketCache(db, rdb, userID)
		}
		c.JSON(http.StatusOK, gin.H{"message": "Ticket used"})
	}
}

// CancelTicketHandler voids an issued ticket and refunds its fare
func CancelTicketHandler(db *gorm.DB) gin.HandlerFunc {
	accounts := service.NewAccountService(db)
	tickets := service.NewQRTicketService(db)
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
		ticketID := c.Param("id") // Ticket ID from the path
		result, err := tickets.Cancel(ticketID, account.ID)
		if err != nil {
			c.JSON(errorStatus(err), gin.H{"error": err.Error()})
			return
		}
		logrus.WithFields(logrus.Fields{
			"user_id":   userID,              // User ID
			"ticket_id": ticketID,            // Canceled ticket ID
			"refund":    result.RefundAmount, // Refunded yen
		}).Info("QR ticket canceled")
		// Invalidate account, history and ticket caches
		if rdb, ok := c.MustGet("redisClient").(*redis.Client); ok {
			ctx := context.Background()
			invalidateLedgerCache(ctx, rdb, userID, account.ID)
			_ = utils.DeleteCache(ctx, rdb, ticketsCacheKey(account.ID), ticketsCacheKey(account.ID)+":active")
		}
		c.JSON(http.StatusOK, gin.H{"result": result})
	}
}

// TicketQRHandler returns the string payload the client renders as a QR image
func TicketQRHandler(db *gorm.DB) gin.HandlerFunc {
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
		// Fetch the ticket, scoped to the caller's account
		var ticket domain.QRTicket
		if err := db.Where("id = ? AND account_id = ?", c.Param("id"), account.ID).
			First(&ticket).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Ticket not found"})
			return
		}
		payload, err := service.QRCodeData(&ticket)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build QR payload"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"qr_data": payload, "ticket": ticket})
	}
}

// invalidateTicketCache drops the ticket list caches of the caller's account
func invalidateTicketCache(db *gorm.DB, rdb *redis.Client, userID string) {
	var account domain.Account
	if err := db.Where("user_id = ?", userID).First(&account).Error; err != nil {
		return // Nothing cached without an account
	}
	_ = utils.DeleteCache(context.Background(), rdb,
		ticketsCacheKey(account.ID), ticketsCacheKey(account.ID)+":active")
}
