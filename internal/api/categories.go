package api

import (
	"context"  // Context for Redis operations
	"net/http" // HTTP status codes
	"strconv"  // String conversion for path params

	"coinkeeper/internal/ledger" // Core category store
	"coinkeeper/internal/utils"  // Cache helpers

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
)

// Request struct for creating or renaming a category
type CategoryRequest struct {
	Name string `json:"name"` // Display name; the store validates it
}

// categoryID parses the :id path parameter
func categoryID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category id"})
		return 0, false
	}
	return uint(id), true
}

// ListCategoriesHandler returns the user's categories, newest first
func ListCategoriesHandler(store *ledger.CategoryStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		categories, err := store.List(c.Request.Context(), userID)
		if err != nil {
			respondServiceError(c, err, "Category not found")
			return
		}
		c.JSON(http.StatusOK, categories)
	}
}

// CreateCategoryHandler adds a category for the user
func CreateCategoryHandler(store *ledger.CategoryStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		var req CategoryRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		category, err := store.Create(c.Request.Context(), userID, req.Name)
		if err != nil {
			respondServiceError(c, err, "Category not found")
			return
		}
		c.JSON(http.StatusCreated, category)
	}
}

// RenameCategoryHandler changes a category's display name
func RenameCategoryHandler(store *ledger.CategoryStore, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		id, ok := categoryID(c)
		if !ok {
			return
		}
		var req CategoryRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		category, err := store.Rename(c.Request.Context(), userID, id, req.Name)
		if err != nil {
			respondServiceError(c, err, "Category not found")
			return
		}
		// Cached transaction lists embed the old category name
		_ = utils.InvalidateUserCaches(context.Background(), rdb, userID)
		c.JSON(http.StatusOK, category)
	}
}

// DeleteCategoryHandler removes a category unless transactions still reference it
func DeleteCategoryHandler(store *ledger.CategoryStore, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		id, ok := categoryID(c)
		if !ok {
			return
		}
		if err := store.Remove(c.Request.Context(), userID, id); err != nil {
			respondServiceError(c, err, "Category not found")
			return
		}
		_ = utils.InvalidateUserCaches(context.Background(), rdb, userID)
		c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
	}
}
