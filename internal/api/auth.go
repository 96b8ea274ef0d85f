package api

import (
	"net/http" // HTTP status codes
	"regexp"   // Regular expressions
	"strings"  // String manipulation

	"coinkeeper/internal/domain" // Importing domain models
	"coinkeeper/internal/utils"  // Utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus" // Logging library
	"golang.org/x/crypto/bcrypt" // Password hashing
	"gorm.io/gorm"               // GORM ORM library
)

// Request struct for registration
type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`    // Email must be provided
	Password string `json:"password" binding:"required"` // Password must be provided
}

// Request struct for login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`    // Email must be provided
	Password string `json:"password" binding:"required"` // Password must be provided
}

// Response struct for authentication
type AuthResponse struct {
	User  UserResponse `json:"user"`  // The authenticated user
	Token string       `json:"token"` // JWT token
}

// UserResponse is the public shape of a user
type UserResponse struct {
	ID    uint   `json:"id"`    // User ID
	Email string `json:"email"` // Email address
}

// defaultCategories are seeded for every new user so the first expense can be
// categorized right away. They can be renamed or removed like any other
// category.
var defaultCategories = []string{
	"Groceries",
	"Eating out",
	"Transport",
	"Shopping",
	"Home",
	"Entertainment",
	"Services",
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// isValidEmail checks that the email has a plausible mailbox@domain shape
func isValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// isValidPassword checks if the password length is between 8 and 72 characters
func isValidPassword(password string) bool {
	return len(password) >= 8 && len(password) <= 72 // bcrypt input is capped at 72 bytes
}

// RegisterHandler creates a user together with its balance row and default categories
func RegisterHandler(db *gorm.DB, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		email := strings.ToLower(strings.TrimSpace(req.Email))
		// Validate email and password
		if !isValidEmail(email) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email address"})
			return
		}
		if !isValidPassword(req.Password) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be 8-72 characters"})
			return
		}
		// Hash the password
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
			return
		}
		user := domain.User{Email: email, Password: string(hash)}
		// Create the user, its balance row and the default categories atomically
		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
			balance := domain.Balance{UserID: user.ID, Amount: decimal.Zero}
			if err := tx.Create(&balance).Error; err != nil {
				return err
			}
			for _, name := range defaultCategories {
				if err := tx.Create(&domain.Category{UserID: user.ID, Name: name}).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			// Duplicate email violates the unique constraint
			c.JSON(http.StatusBadRequest, gin.H{"error": "User already exists"})
			return
		}
		// Issue a token so the client is logged in immediately after signup
		token, err := utils.GenerateJWT(user.ID, user.Email, jwtSecret)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}
		logrus.WithFields(logrus.Fields{
			"user_id": user.ID,
			"email":   user.Email,
		}).Info("User registered")
		c.JSON(http.StatusCreated, gin.H{
			"message": "User created successfully",
			"user":    UserResponse{ID: user.ID, Email: user.Email},
			"token":   token,
		})
	}
}

// LoginHandler authenticates a user and returns a JWT token
func LoginHandler(db *gorm.DB, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		var user domain.User // Fetch user from database
		email := strings.ToLower(strings.TrimSpace(req.Email))
		if err := db.Where("email = ?", email).First(&user).Error; err != nil {
			// Unknown email and wrong password are indistinguishable
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		// Compare provided password with stored hash
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		token, err := utils.GenerateJWT(user.ID, user.Email, jwtSecret)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}
		c.JSON(http.StatusOK, AuthResponse{
			User:  UserResponse{ID: user.ID, Email: user.Email},
			Token: token,
		})
	}
}
