package api

import (
	"context"                     // Context for Redis operations
	"transit_card/internal/utils" // Cache helpers

	"github.com/redis/go-redis/v9" // Redis client
)

// Cache key builders. One key per cached resource, invalidated after every
// mutation touching it.

func accountCacheKey(userID string) string {
	return "account:user:" + userID
}

func txHistoryCacheKey(accountID string) string {
	return "txhistory:account:" + accountID
}

func ticketsCacheKey(accountID string) string {
	return "tickets:account:" + accountID
}

func passesCacheKey(accountID string) string {
	return "passes:account:" + accountID
}

func payMethodsCacheKey(userID string) string {
	return "paymethods:user:" + userID
}

// invalidateLedgerCache drops every cache entry a balance mutation can
// staleify: the account view and its transaction history
func invalidateLedgerCache(ctx context.Context, rdb *redis.Client, userID, accountID string) {
	_ = utils.DeleteCache(ctx, rdb, accountCacheKey(userID), txHistoryCacheKey(accountID))
}
