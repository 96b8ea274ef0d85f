package ledger

import (
	"context"
	"sort"

	"coinkeeper/internal/domain"

	"github.com/shopspring/decimal"
)

// IncomeBucketName labels the single synthetic bucket income amounts fold
// into, since income carries no category.
const IncomeBucketName = "Income"

// Bucket is a per-category slice of a summary. CategoryID is nil for the
// synthetic income bucket.
type Bucket struct {
	CategoryID   *uint           `json:"categoryId"`
	CategoryName string          `json:"categoryName"`
	Amount       decimal.Decimal `json:"amount"`
}

// Summary totals one transaction type over a date window. ByCategory is
// sparse: categories without matching transactions are omitted.
type Summary struct {
	Total      decimal.Decimal `json:"total"`
	ByCategory []Bucket        `json:"byCategory"`
}

// Statistics is the full per-type breakdown for a date window.
type Statistics struct {
	Income  Summary `json:"income"`
	Expense Summary `json:"expense"`
}

// StatisticsEngine computes summaries on demand by folding over the ledger's
// filtered window. There is no cache: the result always reflects the current
// ledger state, which is cheap at per-user data volumes.
type StatisticsEngine struct {
	ledger *Ledger
}

// NewStatisticsEngine creates a statistics engine reading through ledger.
func NewStatisticsEngine(ledger *Ledger) *StatisticsEngine {
	return &StatisticsEngine{ledger: ledger}
}

// Summarize folds the user's transactions within [from, to] by type and
// category. Buckets are ordered by amount descending, ties broken by category
// creation order so the result is deterministic. Empty bounds leave that side
// of the window open.
func (s *StatisticsEngine) Summarize(ctx context.Context, userID uint, from, to string) (*Statistics, error) {
	transactions, err := s.ledger.List(ctx, userID, ListFilter{From: from, To: to})
	if err != nil {
		return nil, err
	}

	stats := Statistics{
		Income:  Summary{Total: decimal.Zero},
		Expense: Summary{Total: decimal.Zero},
	}
	expenseBuckets := make(map[uint]*Bucket)
	bucketCreatedAt := make(map[uint]int64) // category creation time, for tie-breaking
	var bucketOrder []uint

	for i := range transactions {
		tx := &transactions[i]
		if tx.Type == domain.TypeIncome {
			stats.Income.Total = stats.Income.Total.Add(tx.Amount)
			continue
		}
		stats.Expense.Total = stats.Expense.Total.Add(tx.Amount)
		if tx.CategoryID == nil || tx.Category == nil {
			continue
		}
		id := *tx.CategoryID
		bucket, ok := expenseBuckets[id]
		if !ok {
			bucket = &Bucket{CategoryID: tx.CategoryID, CategoryName: tx.Category.Name, Amount: decimal.Zero}
			expenseBuckets[id] = bucket
			bucketCreatedAt[id] = tx.Category.CreatedAt
			bucketOrder = append(bucketOrder, id)
		}
		bucket.Amount = bucket.Amount.Add(tx.Amount)
	}

	if stats.Income.Total.IsPositive() {
		stats.Income.ByCategory = []Bucket{{CategoryName: IncomeBucketName, Amount: stats.Income.Total}}
	}

	sort.SliceStable(bucketOrder, func(i, j int) bool {
		a, b := expenseBuckets[bucketOrder[i]], expenseBuckets[bucketOrder[j]]
		if !a.Amount.Equal(b.Amount) {
			return a.Amount.GreaterThan(b.Amount)
		}
		ca, cb := bucketCreatedAt[bucketOrder[i]], bucketCreatedAt[bucketOrder[j]]
		if ca != cb {
			return ca < cb
		}
		return bucketOrder[i] < bucketOrder[j]
	})
	for _, id := range bucketOrder {
		stats.Expense.ByCategory = append(stats.Expense.ByCategory, *expenseBuckets[id])
	}
	return &stats, nil
}
