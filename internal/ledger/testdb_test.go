package ledger

import (
	"testing"

	"coinkeeper/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a fresh in-memory database with the full schema. The shared
// cache keeps gorm's pooled connections pointed at the same in-memory store.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}, &domain.Balance{}, &domain.Category{}, &domain.Transaction{}))
	return db
}

// createTestUser inserts a user with a zeroed balance row, the state
// registration leaves behind.
func createTestUser(t *testing.T, db *gorm.DB, email string) *domain.User {
	t.Helper()
	user := domain.User{Email: email, Password: "irrelevant"}
	require.NoError(t, db.Create(&user).Error)
	require.NoError(t, db.Create(&domain.Balance{UserID: user.ID, Amount: decimal.Zero}).Error)
	return &user
}

// seedCategory inserts a category directly, bypassing the store.
func seedCategory(t *testing.T, db *gorm.DB, userID uint, name string) *domain.Category {
	t.Helper()
	category := domain.Category{UserID: userID, Name: name}
	require.NoError(t, db.Create(&category).Error)
	return &category
}

// seedCategoryAt inserts a category with an explicit creation timestamp so
// ordering rules can be pinned down.
func seedCategoryAt(t *testing.T, db *gorm.DB, userID uint, name string, createdAt int64) *domain.Category {
	t.Helper()
	category := domain.Category{UserID: userID, Name: name, CreatedAt: createdAt}
	require.NoError(t, db.Create(&category).Error)
	return &category
}

// dec parses a decimal literal or fails the test.
func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

// requireAmount compares fixed-point values by numeric equality rather than
// representation, so "750" and "750.00" match.
func requireAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, got.Equal(dec(t, want)), "amount = %s, want %s", got, want)
}
