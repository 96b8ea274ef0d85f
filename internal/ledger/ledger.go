package ledger

import (
	"context"
	"errors"
	"time"

	"coinkeeper/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// dateLayout is the calendar-date wire format for transaction dates and range
// filters.
const dateLayout = "2006-01-02"

// TransactionInput carries the caller-supplied fields of a write request.
// Amount arrives as fixed-point decimal, Date as a YYYY-MM-DD string.
type TransactionInput struct {
	Type       string
	Amount     decimal.Decimal
	CategoryID *uint
	Date       string
	Comment    string
}

// ListFilter narrows List results. All supplied filters are combined with AND.
type ListFilter struct {
	From       string // inclusive lower date bound, YYYY-MM-DD
	To         string // inclusive upper date bound, YYYY-MM-DD
	Type       string
	CategoryID *uint
}

// Ledger owns the lifecycle of a user's transactions. Every mutation adjusts
// the user's balance row inside the same database transaction, so a
// concurrent balance read sees either the pre-write or post-write state of
// both, never a partial one.
type Ledger struct {
	db *gorm.DB
}

// NewLedger creates a transaction ledger backed by db.
func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// validate checks a write request and normalizes it into a transaction row.
// All validation happens here, before anything is written. For income the
// caller-supplied category id is discarded; for expense it must resolve to a
// category owned by the user.
func (l *Ledger) validate(ctx context.Context, userID uint, in TransactionInput) (*domain.Transaction, error) {
	if in.Type != domain.TypeIncome && in.Type != domain.TypeExpense {
		return nil, invalid(`Type must be either "income" or "expense"`)
	}
	if !in.Amount.IsPositive() {
		return nil, invalid("Amount must be greater than zero")
	}
	if !in.Amount.Equal(in.Amount.Round(2)) {
		return nil, invalid("Amount must have at most two decimal places")
	}
	if in.Date == "" {
		return nil, invalid("Date is required")
	}
	date, err := time.Parse(dateLayout, in.Date)
	if err != nil {
		return nil, invalid("Date must be formatted as YYYY-MM-DD")
	}

	tx := domain.Transaction{
		UserID:  userID,
		Type:    in.Type,
		Amount:  in.Amount,
		Date:    date,
		Comment: in.Comment,
	}
	if in.Type == domain.TypeIncome {
		// Income never carries a category, whatever the caller sent.
		tx.CategoryID = nil
		return &tx, nil
	}
	if in.CategoryID == nil {
		return nil, invalid("Category is required for expenses")
	}
	var category domain.Category
	err = l.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", *in.CategoryID, userID).
		First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, storageErr(err)
	}
	tx.CategoryID = in.CategoryID
	tx.Category = &category
	return &tx, nil
}

// Record validates and persists a new transaction and applies its effect to
// the user's balance atomically. The returned transaction carries the
// resolved category.
func (l *Ledger) Record(ctx context.Context, userID uint, in TransactionInput) (*domain.Transaction, error) {
	tx, err := l.validate(ctx, userID, in)
	if err != nil {
		return nil, err
	}
	err = l.db.WithContext(ctx).Transaction(func(dbtx *gorm.DB) error {
		if err := dbtx.Create(tx).Error; err != nil {
			return storageErr(err)
		}
		return applyBalanceDelta(dbtx, userID, tx.SignedAmount())
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id": userID,
			"type":    in.Type,
			"amount":  in.Amount.String(),
			"error":   err.Error(),
		}).Error("Record transaction failed")
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"user_id":        userID,
		"transaction_id": tx.ID,
		"type":           tx.Type,
		"amount":         tx.Amount.String(),
		"date":           in.Date,
	}).Info("Transaction recorded")
	return tx, nil
}

// Update replaces a transaction's type, amount, category, date and comment
// under the same validation as Record. The balance delta is computed as
// reverse-old-effect, apply-new-effect, so a type change is handled
// correctly.
func (l *Ledger) Update(ctx context.Context, userID, transactionID uint, in TransactionInput) (*domain.Transaction, error) {
	updated, err := l.validate(ctx, userID, in)
	if err != nil {
		return nil, err
	}
	// The old row is read inside the write transaction with a locking read:
	// the delta below must be computed against the row state this transaction
	// actually replaces, not against a snapshot a concurrent writer may have
	// changed in the meantime.
	err = l.db.WithContext(ctx).Transaction(func(dbtx *gorm.DB) error {
		var old domain.Transaction
		err := dbtx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND user_id = ?", transactionID, userID).
			First(&old).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return storageErr(err)
		}
		updated.ID = old.ID
		updated.CreatedAt = old.CreatedAt
		delta := updated.SignedAmount().Sub(old.SignedAmount())
		cols := map[string]any{
			"type":        updated.Type,
			"amount":      updated.Amount,
			"category_id": updated.CategoryID,
			"date":        updated.Date,
			"comment":     updated.Comment,
		}
		res := dbtx.Model(&domain.Transaction{}).Where("id = ?", old.ID).Updates(cols)
		if res.Error != nil {
			return storageErr(res.Error)
		}
		if res.RowsAffected == 0 {
			// The row vanished between the locking read and the update; do
			// not let the delta land without its ledger mutation.
			return ErrNotFound
		}
		return applyBalanceDelta(dbtx, userID, delta)
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logrus.WithFields(logrus.Fields{
				"user_id":        userID,
				"transaction_id": transactionID,
				"error":          err.Error(),
			}).Error("Update transaction failed")
		}
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"user_id":        userID,
		"transaction_id": updated.ID,
		"type":           updated.Type,
		"amount":         updated.Amount.String(),
	}).Info("Transaction updated")
	return updated, nil
}

// Remove deletes a transaction and reverses its balance effect atomically.
func (l *Ledger) Remove(ctx context.Context, userID, transactionID uint) error {
	err := l.db.WithContext(ctx).Transaction(func(dbtx *gorm.DB) error {
		// Locking read, same reasoning as Update: the reversal must match the
		// row this transaction deletes. Exactly one of two racing removals
		// gets the row; the other sees not-found and applies nothing.
		var tx domain.Transaction
		err := dbtx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND user_id = ?", transactionID, userID).
			First(&tx).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return storageErr(err)
		}
		res := dbtx.Delete(&domain.Transaction{}, tx.ID)
		if res.Error != nil {
			return storageErr(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return applyBalanceDelta(dbtx, userID, tx.SignedAmount().Neg())
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logrus.WithFields(logrus.Fields{
				"user_id":        userID,
				"transaction_id": transactionID,
				"error":          err.Error(),
			}).Error("Remove transaction failed")
		}
		return err
	}
	logrus.WithFields(logrus.Fields{
		"user_id":        userID,
		"transaction_id": transactionID,
	}).Info("Transaction removed")
	return nil
}

// List returns the user's transactions matching every supplied filter,
// ordered by date descending with creation time as tie-break. The resolved
// category rides along on each row.
func (l *Ledger) List(ctx context.Context, userID uint, f ListFilter) ([]domain.Transaction, error) {
	query := l.db.WithContext(ctx).Where("user_id = ?", userID)
	if f.From != "" {
		from, err := time.Parse(dateLayout, f.From)
		if err != nil {
			return nil, invalid("startDate must be formatted as YYYY-MM-DD")
		}
		query = query.Where("date >= ?", from)
	}
	if f.To != "" {
		to, err := time.Parse(dateLayout, f.To)
		if err != nil {
			return nil, invalid("endDate must be formatted as YYYY-MM-DD")
		}
		query = query.Where("date <= ?", to)
	}
	if f.Type != "" {
		if f.Type != domain.TypeIncome && f.Type != domain.TypeExpense {
			return nil, invalid(`Type must be either "income" or "expense"`)
		}
		query = query.Where("type = ?", f.Type)
	}
	if f.CategoryID != nil {
		query = query.Where("category_id = ?", *f.CategoryID)
	}
	var transactions []domain.Transaction
	err := query.Preload("Category").
		Order("date DESC, created_at DESC, id DESC").
		Find(&transactions).Error
	if err != nil {
		return nil, storageErr(err)
	}
	return transactions, nil
}
