package ledger

import (
	"context"
	"errors"

	"coinkeeper/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// BalanceAggregator maintains one signed running total per user so balance
// reads stay O(1) regardless of ledger size. The total is only ever written
// together with a ledger mutation; this type reads it and can rebuild it.
type BalanceAggregator struct {
	db *gorm.DB
}

// NewBalanceAggregator creates a balance aggregator backed by db.
func NewBalanceAggregator(db *gorm.DB) *BalanceAggregator {
	return &BalanceAggregator{db: db}
}

// applyBalanceDelta shifts the user's balance row by delta inside the caller's
// transaction. The UPDATE takes a row lock, which serializes concurrent
// writers for the same user.
func applyBalanceDelta(tx *gorm.DB, userID uint, delta decimal.Decimal) error {
	res := tx.Model(&domain.Balance{}).
		Where("user_id = ?", userID).
		Update("amount", gorm.Expr("amount + ?", delta))
	if res.Error != nil {
		return storageErr(res.Error)
	}
	if res.RowsAffected == 0 {
		// Every user gets a balance row at registration. Its absence here is
		// corrupted state, not a bad request, and must not read as a lookup
		// miss on whatever entity the caller was mutating.
		return storageErr(errors.New("balance row missing for user"))
	}
	return nil
}

// Current returns the maintained running total for the user.
func (b *BalanceAggregator) Current(ctx context.Context, userID uint) (decimal.Decimal, error) {
	var balance domain.Balance
	err := b.db.WithContext(ctx).Where("user_id = ?", userID).First(&balance).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, ErrNotFound
		}
		return decimal.Zero, storageErr(err)
	}
	return balance.Amount, nil
}

// Recompute rebuilds the running total from scratch by folding over the
// user's transactions, stores it, and returns it. It is the repair path for
// a balance row that has drifted, and the reference point for reconciliation
// checks.
func (b *BalanceAggregator) Recompute(ctx context.Context, userID uint) (decimal.Decimal, error) {
	total := decimal.Zero
	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var transactions []domain.Transaction
		if err := tx.Where("user_id = ?", userID).Find(&transactions).Error; err != nil {
			return storageErr(err)
		}
		for i := range transactions {
			total = total.Add(transactions[i].SignedAmount())
		}
		res := tx.Model(&domain.Balance{}).
			Where("user_id = ?", userID).
			Update("amount", total)
		if res.Error != nil {
			return storageErr(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"balance": total.String(),
	}).Info("Balance recomputed")
	return total, nil
}
