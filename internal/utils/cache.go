package utils

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"strconv"       // Integer to string conversion for cache keys
	"time"          // Time durations

	"github.com/redis/go-redis/v9" // Redis client
)

// CacheTTL is how long cached read responses stay valid. Writes invalidate
// eagerly, so the TTL only bounds staleness after out-of-band changes.
const CacheTTL = 60 * time.Second

// BalanceCacheKey returns the cache key for a user's balance
func BalanceCacheKey(userID uint) string {
	return "balance:user:" + strconv.Itoa(int(userID))
}

// TransactionsCacheKey returns the cache key for a user's unfiltered transaction list
func TransactionsCacheKey(userID uint) string {
	return "transactions:user:" + strconv.Itoa(int(userID))
}

// GetCache retrieves a value from Redis and unmarshals it into dest
func GetCache(ctx context.Context, rdb *redis.Client, key string, dest any) (bool, error) {
	val, err := rdb.Get(ctx, key).Result() // Get value from Redis
	if err == redis.Nil {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, err // Other Redis error
	}
	return true, json.Unmarshal([]byte(val), dest) // Unmarshal JSON into dest
}

// SetCache sets a value in Redis with the standard TTL
func SetCache(ctx context.Context, rdb *redis.Client, key string, value any) error {
	b, err := json.Marshal(value) // Marshal value to JSON
	if err != nil {
		return err // Return error if marshaling fails
	}
	return rdb.Set(ctx, key, b, CacheTTL).Err() // Set value in Redis with TTL
}

// InvalidateUserCaches drops every cached read for the user. Called after any
// ledger or category mutation so cached balance and transaction responses
// never survive a write.
func InvalidateUserCaches(ctx context.Context, rdb *redis.Client, userID uint) error {
	return rdb.Del(ctx, BalanceCacheKey(userID), TransactionsCacheKey(userID)).Err()
}
