package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types form a closed set.
const (
	TypeIncome  = "income"
	TypeExpense = "expense"
)

// Transaction Model
//
// Amount is always positive fixed-point; the sign of its balance effect is
// carried by Type. CategoryID is set if and only if Type is "expense".
type Transaction struct {
	ID         uint            `gorm:"primaryKey" json:"id"`                      // Primary key
	UserID     uint            `gorm:"index;not null" json:"user_id"`             // Owning user
	CategoryID *uint           `gorm:"index" json:"category_id"`                  // Expense category, null for income
	Type       string          `gorm:"size:16;not null" json:"type"`              // income or expense
	Amount     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"` // Positive fixed-point amount
	Date       time.Time       `gorm:"type:date;not null" json:"-"`               // Calendar date, no time-of-day semantics
	Comment    string          `json:"comment"`                                   // Optional free text
	CreatedAt  int64           `gorm:"autoCreateTime:milli" json:"created_at"`    // Tie-breaker for equal dates

	Category *Category `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"` // Resolved category for read-side joins
}

// SignedAmount returns the transaction's effect on the running balance:
// positive for income, negative for expense.
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Type == TypeExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}
