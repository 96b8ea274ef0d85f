package domain

import "github.com/shopspring/decimal"

// Balance Model
//
// One row per user, holding the signed sum over that user's transactions.
// It is derived state: every ledger mutation adjusts it inside the same
// database transaction, and it can always be rebuilt from the transactions
// table.
type Balance struct {
	ID     uint            `gorm:"primaryKey" json:"id"`                                // Primary key
	UserID uint            `gorm:"uniqueIndex" json:"user_id"`                          // Foreign key to User
	Amount decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"amount"` // Current running balance
}
