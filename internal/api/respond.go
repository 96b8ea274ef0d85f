package api

import (
	"errors"   // Error inspection
	"net/http" // HTTP status codes

	"coinkeeper/internal/ledger" // Core ledger errors

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// currentUserID extracts the authenticated user's id set by the JWT middleware
func currentUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return 0, false
	}
	userID, ok := v.(uint)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return 0, false
	}
	return userID, true
}

// respondServiceError maps a ledger error onto the HTTP taxonomy. notFoundMsg
// names the resource so responses read like the rest of the API; storage
// failures keep their detail in the logs only.
func respondServiceError(c *gin.Context, err error, notFoundMsg string) {
	switch {
	case ledger.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundMsg})
	case errors.Is(err, ledger.ErrCategoryInUse):
		c.JSON(http.StatusConflict, gin.H{"error": "Category is still used by transactions"})
	default:
		logrus.WithFields(logrus.Fields{
			"path":  c.FullPath(),
			"error": err.Error(),
		}).Error("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
