package api

import (
	"context"  // Context for Redis operations
	"net/http" // HTTP status codes

	"coinkeeper/internal/ledger" // Balance aggregator
	"coinkeeper/internal/utils"  // Cache helpers

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
)

// BalanceResponse is the wire shape of a balance read
type BalanceResponse struct {
	Balance string `json:"balance"` // Fixed-point amount rendered with two decimals
}

// GetBalanceHandler returns the user's running balance, cached for the
// standard TTL. Every write path invalidates the cached value, so a cached
// response never disagrees with the ledger.
func GetBalanceHandler(agg *ledger.BalanceAggregator, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		ctx := context.Background()
		cacheKey := utils.BalanceCacheKey(userID)
		var cached BalanceResponse
		found, err := utils.GetCache(ctx, rdb, cacheKey, &cached)
		if err == nil && found {
			c.JSON(http.StatusOK, cached)
			return
		}
		balance, err := agg.Current(c.Request.Context(), userID)
		if err != nil {
			respondServiceError(c, err, "Balance not found")
			return
		}
		resp := BalanceResponse{Balance: balance.StringFixed(2)}
		_ = utils.SetCache(ctx, rdb, cacheKey, resp)
		c.JSON(http.StatusOK, resp)
	}
}

// RecomputeBalanceHandler rebuilds the running balance from the transaction
// table. It exists as a repair path: the stored total should already equal
// the fold, and this endpoint restores that equality if it ever drifts.
func RecomputeBalanceHandler(agg *ledger.BalanceAggregator, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		balance, err := agg.Recompute(c.Request.Context(), userID)
		if err != nil {
			respondServiceError(c, err, "Balance not found")
			return
		}
		_ = utils.InvalidateUserCaches(context.Background(), rdb, userID)
		c.JSON(http.StatusOK, BalanceResponse{Balance: balance.StringFixed(2)})
	}
}
