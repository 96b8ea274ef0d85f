package ledger

import (
	"context"
	"testing"

	"coinkeeper/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_RecordValidation(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")
	aliceCategory := seedCategory(t, db, alice.ID, "Groceries")
	bobCategory := seedCategory(t, db, bob.ID, "His")
	led := NewLedger(db)
	ctx := context.Background()
	missing := aliceCategory.ID + bobCategory.ID + 100

	tests := []struct {
		name       string
		input      TransactionInput
		validation bool // expect a validation error; otherwise ErrNotFound
	}{
		{
			name:       "unknown type",
			input:      TransactionInput{Type: "transfer", Amount: decimal.NewFromInt(10), Date: "2024-01-01"},
			validation: true,
		},
		{
			name:       "zero amount",
			input:      TransactionInput{Type: "income", Amount: decimal.Zero, Date: "2024-01-01"},
			validation: true,
		},
		{
			name:       "negative amount",
			input:      TransactionInput{Type: "income", Amount: decimal.NewFromInt(-5), Date: "2024-01-01"},
			validation: true,
		},
		{
			name:       "more than two decimal places",
			input:      TransactionInput{Type: "income", Amount: decimal.RequireFromString("10.005"), Date: "2024-01-01"},
			validation: true,
		},
		{
			name:       "missing date",
			input:      TransactionInput{Type: "income", Amount: decimal.NewFromInt(10)},
			validation: true,
		},
		{
			name:       "unparseable date",
			input:      TransactionInput{Type: "income", Amount: decimal.NewFromInt(10), Date: "01/02/2024"},
			validation: true,
		},
		{
			name:       "expense without category",
			input:      TransactionInput{Type: "expense", Amount: decimal.NewFromInt(10), Date: "2024-01-01"},
			validation: true,
		},
		{
			name:  "expense with another user's category",
			input: TransactionInput{Type: "expense", Amount: decimal.NewFromInt(10), CategoryID: &bobCategory.ID, Date: "2024-01-01"},
		},
		{
			name:  "expense with nonexistent category",
			input: TransactionInput{Type: "expense", Amount: decimal.NewFromInt(10), CategoryID: &missing, Date: "2024-01-01"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := led.Record(ctx, alice.ID, tt.input)
			require.Error(t, err)
			if tt.validation {
				assert.True(t, IsValidation(err), "want validation error, got %v", err)
			} else {
				assert.ErrorIs(t, err, ErrNotFound)
			}
		})
	}

	// Nothing may have been written by any failed attempt
	var count int64
	require.NoError(t, db.Model(&domain.Transaction{}).Count(&count).Error)
	assert.Zero(t, count)
	balance, err := NewBalanceAggregator(db).Current(ctx, alice.ID)
	require.NoError(t, err)
	requireAmount(t, "0", balance)
}

func TestLedger_RecordIncomeDropsCategory(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "a@example.com")
	category := seedCategory(t, db, user.ID, "Groceries")
	led := NewLedger(db)

	// The caller-supplied category must be ignored for income
	tx, err := led.Record(context.Background(), user.ID, TransactionInput{
		Type:       "income",
		Amount:     dec(t, "100.00"),
		CategoryID: &category.ID,
		Date:       "2024-01-15",
	})
	require.NoError(t, err)
	assert.Nil(t, tx.CategoryID)

	// The exclusivity invariant holds on the stored rows as well
	var stored []domain.Transaction
	require.NoError(t, db.Find(&stored).Error)
	for _, s := range stored {
		assert.Equal(t, s.Type == domain.TypeIncome, s.CategoryID == nil)
	}
}

func TestLedger_RecordResolvesCategoryName(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "a@example.com")
	category := seedCategory(t, db, user.ID, "Groceries")
	led := NewLedger(db)

	tx, err := led.Record(context.Background(), user.ID, TransactionInput{
		Type:       "expense",
		Amount:     dec(t, "42.50"),
		CategoryID: &category.ID,
		Date:       "2024-01-15",
		Comment:    "weekly shop",
	})
	require.NoError(t, err)
	require.NotNil(t, tx.Category)
	assert.Equal(t, "Groceries", tx.Category.Name)
	assert.Equal(t, "weekly shop", tx.Comment)
	requireAmount(t, "42.50", tx.Amount)
}

func TestLedger_RecordWithoutBalanceRowRollsBack(t *testing.T) {
	db := newTestDB(t)
	// A user with no balance row: the balance update fails and the whole
	// write must be rolled back.
	user := domain.User{Email: "broken@example.com", Password: "irrelevant"}
	require.NoError(t, db.Create(&user).Error)
	led := NewLedger(db)

	_, err := led.Record(context.Background(), user.ID, TransactionInput{
		Type:   "income",
		Amount: dec(t, "10.00"),
		Date:   "2024-01-01",
	})
	require.Error(t, err)
	// Corrupted state, not a lookup miss: the caller never asked for the
	// balance row, so the failure must not surface as ErrNotFound.
	assert.True(t, IsStorage(err), "want storage error, got %v", err)
	assert.NotErrorIs(t, err, ErrNotFound)

	var count int64
	require.NoError(t, db.Model(&domain.Transaction{}).Count(&count).Error)
	assert.Zero(t, count, "ledger row must not survive a failed balance update")
}

func TestLedger_RacingRemovesReverseBalanceOnce(t *testing.T) {
	db := newTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single pooled connection serializes the two racing transactions, so
	// the loser's in-transaction read runs after the winner's commit.
	sqlDB.SetMaxOpenConns(1)
	user := createTestUser(t, db, "a@example.com")
	led := NewLedger(db)
	agg := NewBalanceAggregator(db)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		tx, err := led.Record(ctx, user.ID, TransactionInput{Type: "income", Amount: dec(t, "100.00"), Date: "2024-01-01"})
		require.NoError(t, err)

		results := make(chan error, 2)
		for j := 0; j < 2; j++ {
			go func() { results <- led.Remove(ctx, user.ID, tx.ID) }()
		}
		first, second := <-results, <-results
		if first == nil {
			assert.ErrorIs(t, second, ErrNotFound, "only one removal may claim the row")
		} else {
			require.NoError(t, second)
			assert.ErrorIs(t, first, ErrNotFound, "only one removal may claim the row")
		}

		// A double-reversed removal would leave -100 here
		balance, err := agg.Current(ctx, user.ID)
		require.NoError(t, err)
		requireAmount(t, "0", balance)
	}
}

func TestLedger_RacingUpdatesKeepBalanceReconciled(t *testing.T) {
	db := newTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	user := createTestUser(t, db, "a@example.com")
	led := NewLedger(db)
	agg := NewBalanceAggregator(db)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		tx, err := led.Record(ctx, user.ID, TransactionInput{Type: "income", Amount: dec(t, "100.00"), Date: "2024-01-01"})
		require.NoError(t, err)

		// Each writer must compute its delta against the row state it
		// actually replaces, so the maintained total tracks whichever
		// amount ends up stored.
		results := make(chan error, 2)
		for _, amount := range []string{"300.00", "40.00"} {
			go func(amount string) {
				_, err := led.Update(ctx, user.ID, tx.ID, TransactionInput{Type: "income", Amount: dec(t, amount), Date: "2024-01-01"})
				results <- err
			}(amount)
		}
		require.NoError(t, <-results)
		require.NoError(t, <-results)

		balance, err := agg.Current(ctx, user.ID)
		require.NoError(t, err)
		requireAmount(t, foldBalance(t, led, user.ID).String(), balance)

		require.NoError(t, led.Remove(ctx, user.ID, tx.ID))
	}
}

func TestLedger_ListFiltersAndOrder(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "a@example.com")
	groceries := seedCategory(t, db, user.ID, "Groceries")
	transport := seedCategory(t, db, user.ID, "Transport")
	led := NewLedger(db)
	ctx := context.Background()

	record := func(typ string, amount, date string, categoryID *uint) *domain.Transaction {
		t.Helper()
		tx, err := led.Record(ctx, user.ID, TransactionInput{Type: typ, Amount: dec(t, amount), CategoryID: categoryID, Date: date})
		require.NoError(t, err)
		return tx
	}
	record("income", "1000.00", "2024-01-01", nil)
	record("expense", "50.00", "2024-01-02", &groceries.ID)
	record("expense", "15.00", "2024-01-02", &transport.ID)
	record("income", "200.00", "2024-02-10", nil)

	t.Run("no filters, date desc then newest first", func(t *testing.T) {
		all, err := led.List(ctx, user.ID, ListFilter{})
		require.NoError(t, err)
		require.Len(t, all, 4)
		requireAmount(t, "200.00", all[0].Amount)
		// The two 2024-01-02 rows tie on date; the later insert wins
		requireAmount(t, "15.00", all[1].Amount)
		requireAmount(t, "50.00", all[2].Amount)
		requireAmount(t, "1000.00", all[3].Amount)
	})

	t.Run("date range", func(t *testing.T) {
		janOnly, err := led.List(ctx, user.ID, ListFilter{From: "2024-01-01", To: "2024-01-31"})
		require.NoError(t, err)
		assert.Len(t, janOnly, 3)
	})

	t.Run("type filter", func(t *testing.T) {
		incomes, err := led.List(ctx, user.ID, ListFilter{Type: "income"})
		require.NoError(t, err)
		assert.Len(t, incomes, 2)
	})

	t.Run("category filter", func(t *testing.T) {
		byCategory, err := led.List(ctx, user.ID, ListFilter{CategoryID: &groceries.ID})
		require.NoError(t, err)
		require.Len(t, byCategory, 1)
		requireAmount(t, "50.00", byCategory[0].Amount)
	})

	t.Run("combined filters", func(t *testing.T) {
		combined, err := led.List(ctx, user.ID, ListFilter{From: "2024-01-01", To: "2024-01-31", Type: "expense", CategoryID: &transport.ID})
		require.NoError(t, err)
		require.Len(t, combined, 1)
		requireAmount(t, "15.00", combined[0].Amount)
	})

	t.Run("invalid filter values", func(t *testing.T) {
		_, err := led.List(ctx, user.ID, ListFilter{From: "January 1st"})
		assert.True(t, IsValidation(err))
		_, err = led.List(ctx, user.ID, ListFilter{Type: "transfer"})
		assert.True(t, IsValidation(err))
	})

	t.Run("list is a pure read", func(t *testing.T) {
		first, err := led.List(ctx, user.ID, ListFilter{})
		require.NoError(t, err)
		second, err := led.List(ctx, user.ID, ListFilter{})
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestLedger_OwnershipIsolation(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")
	led := NewLedger(db)
	ctx := context.Background()

	tx, err := led.Record(ctx, alice.ID, TransactionInput{Type: "income", Amount: dec(t, "500.00"), Date: "2024-01-01"})
	require.NoError(t, err)

	// Bob guessing Alice's valid id must look like nonexistence
	_, err = led.Update(ctx, bob.ID, tx.ID, TransactionInput{Type: "income", Amount: dec(t, "1.00"), Date: "2024-01-01"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, led.Remove(ctx, bob.ID, tx.ID), ErrNotFound)

	// Bob's listing stays empty and Alice's data is untouched
	bobView, err := led.List(ctx, bob.ID, ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, bobView)

	aliceView, err := led.List(ctx, alice.ID, ListFilter{})
	require.NoError(t, err)
	require.Len(t, aliceView, 1)
	requireAmount(t, "500.00", aliceView[0].Amount)

	bobBalance, err := NewBalanceAggregator(db).Current(ctx, bob.ID)
	require.NoError(t, err)
	requireAmount(t, "0", bobBalance)
}

func TestLedger_UpdateValidatesLikeRecord(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "a@example.com")
	category := seedCategory(t, db, user.ID, "Groceries")
	led := NewLedger(db)
	ctx := context.Background()

	tx, err := led.Record(ctx, user.ID, TransactionInput{Type: "expense", Amount: dec(t, "20.00"), CategoryID: &category.ID, Date: "2024-01-01"})
	require.NoError(t, err)

	_, err = led.Update(ctx, user.ID, tx.ID, TransactionInput{Type: "expense", Amount: dec(t, "-20.00"), CategoryID: &category.ID, Date: "2024-01-01"})
	assert.True(t, IsValidation(err))

	// Changing an expense to income must clear the category
	updated, err := led.Update(ctx, user.ID, tx.ID, TransactionInput{Type: "income", Amount: dec(t, "20.00"), CategoryID: &category.ID, Date: "2024-01-01"})
	require.NoError(t, err)
	assert.Nil(t, updated.CategoryID)

	var stored domain.Transaction
	require.NoError(t, db.First(&stored, tx.ID).Error)
	assert.Nil(t, stored.CategoryID)
	assert.Equal(t, domain.TypeIncome, stored.Type)
}

func TestLedger_UpdateMissingTransaction(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "a@example.com")
	led := NewLedger(db)

	_, err := led.Update(context.Background(), user.ID, 12345, TransactionInput{Type: "income", Amount: dec(t, "5.00"), Date: "2024-01-01"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, led.Remove(context.Background(), user.ID, 12345), ErrNotFound)
}
