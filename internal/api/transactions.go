package api

import (
	"context"  // Context for Redis operations
	"net/http" // HTTP status codes
	"strconv"  // String conversion for params

	"coinkeeper/internal/domain" // Domain models
	"coinkeeper/internal/ledger" // Core ledger
	"coinkeeper/internal/utils"  // Cache helpers

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Fixed-point amounts
)

// TransactionRequest carries a create or update body. Field names follow the
// client API: categoryId is camelCase and optional.
type TransactionRequest struct {
	Type       string          `json:"type"`       // income or expense
	Amount     decimal.Decimal `json:"amount"`     // Positive fixed-point amount
	CategoryID *uint           `json:"categoryId"` // Required for expenses, ignored for income
	Date       string          `json:"date"`       // YYYY-MM-DD
	Comment    string          `json:"comment"`    // Optional free text
}

// TransactionResponse is the wire shape of a transaction, including the
// joined category name
type TransactionResponse struct {
	ID           uint            `json:"id"`            // Transaction ID
	UserID       uint            `json:"user_id"`       // Owning user
	CategoryID   *uint           `json:"category_id"`   // Expense category, null for income
	CategoryName *string         `json:"category_name"` // Resolved category name, null for income
	Type         string          `json:"type"`          // income or expense
	Amount       decimal.Decimal `json:"amount"`        // Positive fixed-point amount
	Date         string          `json:"date"`          // Calendar date
	Comment      string          `json:"comment"`       // Optional free text
	CreatedAt    int64           `json:"created_at"`    // Creation timestamp in milliseconds
}

// toTransactionResponse maps a domain transaction onto the wire shape
func toTransactionResponse(tx *domain.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:         tx.ID,
		UserID:     tx.UserID,
		CategoryID: tx.CategoryID,
		Type:       tx.Type,
		Amount:     tx.Amount,
		Date:       tx.Date.Format("2006-01-02"),
		Comment:    tx.Comment,
		CreatedAt:  tx.CreatedAt,
	}
	if tx.Category != nil {
		resp.CategoryName = &tx.Category.Name
	}
	return resp
}

// toInput maps the request body onto the ledger's input type
func (r TransactionRequest) toInput() ledger.TransactionInput {
	return ledger.TransactionInput{
		Type:       r.Type,
		Amount:     r.Amount,
		CategoryID: r.CategoryID,
		Date:       r.Date,
		Comment:    r.Comment,
	}
}

// listFilterFromQuery builds the ledger filter from query parameters. The
// second result reports whether any filter was supplied at all.
func listFilterFromQuery(c *gin.Context) (ledger.ListFilter, bool, bool) {
	filter := ledger.ListFilter{
		From: c.Query("startDate"),
		To:   c.Query("endDate"),
		Type: c.Query("type"),
	}
	hasFilters := filter.From != "" || filter.To != "" || filter.Type != ""
	if raw := c.Query("categoryId"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid categoryId"})
			return filter, false, false
		}
		categoryID := uint(id)
		filter.CategoryID = &categoryID
		hasFilters = true
	}
	return filter, hasFilters, true
}

// CreateTransactionHandler records a new transaction
func CreateTransactionHandler(led *ledger.Ledger, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		var req TransactionRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		tx, err := led.Record(c.Request.Context(), userID, req.toInput())
		if err != nil {
			respondServiceError(c, err, "Category not found")
			return
		}
		// Drop cached balance and transaction responses for this user
		_ = utils.InvalidateUserCaches(context.Background(), rdb, userID)
		c.JSON(http.StatusCreated, toTransactionResponse(tx))
	}
}

// UpdateTransactionHandler fully replaces a transaction's mutable fields
func UpdateTransactionHandler(led *ledger.Ledger, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid transaction id"})
			return
		}
		var req TransactionRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		tx, err := led.Update(c.Request.Context(), userID, uint(id), req.toInput())
		if err != nil {
			respondServiceError(c, err, "Transaction not found")
			return
		}
		_ = utils.InvalidateUserCaches(context.Background(), rdb, userID)
		c.JSON(http.StatusOK, toTransactionResponse(tx))
	}
}

// DeleteTransactionHandler removes a transaction and reverses its balance effect
func DeleteTransactionHandler(led *ledger.Ledger, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid transaction id"})
			return
		}
		if err := led.Remove(c.Request.Context(), userID, uint(id)); err != nil {
			respondServiceError(c, err, "Transaction not found")
			return
		}
		_ = utils.InvalidateUserCaches(context.Background(), rdb, userID)
		c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted successfully"})
	}
}

// ListTransactionsHandler returns the user's transactions, optionally filtered
// by startDate, endDate, type and categoryId. Only the unfiltered list is
// cached; filtered reads always hit the database.
func ListTransactionsHandler(led *ledger.Ledger, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		filter, hasFilters, ok := listFilterFromQuery(c)
		if !ok {
			return
		}
		ctx := context.Background()
		cacheKey := utils.TransactionsCacheKey(userID)
		if !hasFilters {
			// Try the cache for the common unfiltered read
			var cached []TransactionResponse
			found, err := utils.GetCache(ctx, rdb, cacheKey, &cached)
			if err == nil && found {
				c.JSON(http.StatusOK, cached)
				return
			}
		}
		transactions, err := led.List(c.Request.Context(), userID, filter)
		if err != nil {
			respondServiceError(c, err, "Transaction not found")
			return
		}
		resp := make([]TransactionResponse, len(transactions))
		for i := range transactions {
			resp[i] = toTransactionResponse(&transactions[i])
		}
		if !hasFilters {
			_ = utils.SetCache(ctx, rdb, cacheKey, resp)
		}
		c.JSON(http.StatusOK, resp)
	}
}

// GetStatisticsHandler returns income and expense summaries for a date range.
// Statistics are never cached: they must always reflect the latest ledger
// state.
func GetStatisticsHandler(stats *ledger.StatisticsEngine) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		summary, err := stats.Summarize(c.Request.Context(), userID, c.Query("startDate"), c.Query("endDate"))
		if err != nil {
			respondServiceError(c, err, "Transaction not found")
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}
