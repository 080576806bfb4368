package entity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finance-tracker/ledger-api/internal/domain/valueobject"
)

func newTestTransaction(accountID uuid.UUID, txnType TransactionType, amount string) *Transaction {
	return NewTransaction(
		uuid.New(),
		accountID,
		txnType,
		decimal.RequireFromString(amount),
		time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		"test",
		"Misc",
		false,
		nil,
	)
}

func TestTransaction_SignedEffect(t *testing.T) {
	accountID := uuid.New()

	income := newTestTransaction(accountID, TransactionTypeIncome, "100.50")
	if !income.SignedEffect().Equal(decimal.RequireFromString("100.50")) {
		t.Errorf("expected income effect 100.50, got %s", income.SignedEffect())
	}

	expense := newTestTransaction(accountID, TransactionTypeExpense, "40")
	if !expense.SignedEffect().Equal(decimal.RequireFromString("-40")) {
		t.Errorf("expected expense effect -40, got %s", expense.SignedEffect())
	}
}

func TestTransaction_RefreshRecurrence(t *testing.T) {
	monthly := valueobject.IntervalMonthly

	t.Run("recurring with interval projects next date", func(t *testing.T) {
		txn := newTestTransaction(uuid.New(), TransactionTypeExpense, "10")
		txn.Date = time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
		txn.IsRecurring = true
		txn.RecurringInterval = &monthly
		txn.RefreshRecurrence()

		if txn.NextRecurringDate == nil {
			t.Fatal("expected next recurring date")
		}
		expected := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
		if !txn.NextRecurringDate.Equal(expected) {
			t.Errorf("expected %s, got %s", expected, txn.NextRecurringDate)
		}
	})

	t.Run("non recurring clears interval and projection", func(t *testing.T) {
		txn := newTestTransaction(uuid.New(), TransactionTypeExpense, "10")
		next := time.Now()
		txn.RecurringInterval = &monthly
		txn.NextRecurringDate = &next
		txn.RefreshRecurrence()

		if txn.RecurringInterval != nil || txn.NextRecurringDate != nil {
			t.Error("expected interval and next date to be cleared")
		}
	})

	t.Run("recurring without interval has no projection", func(t *testing.T) {
		txn := newTestTransaction(uuid.New(), TransactionTypeExpense, "10")
		txn.IsRecurring = true
		txn.RefreshRecurrence()

		if txn.NextRecurringDate != nil {
			t.Error("expected no next recurring date")
		}
	})
}

func TestAdjustmentsForCreate(t *testing.T) {
	accountID := uuid.New()
	adjs := AdjustmentsForCreate(newTestTransaction(accountID, TransactionTypeExpense, "25"))

	if len(adjs) != 1 {
		t.Fatalf("expected 1 adjustment, got %d", len(adjs))
	}
	if adjs[0].AccountID != accountID || !adjs[0].Delta.Equal(decimal.NewFromInt(-25)) {
		t.Errorf("unexpected adjustment %+v", adjs[0])
	}
}

func TestAdjustmentsForCreate_ZeroAmount(t *testing.T) {
	adjs := AdjustmentsForCreate(newTestTransaction(uuid.New(), TransactionTypeIncome, "0"))
	if len(adjs) != 0 {
		t.Errorf("expected no adjustments, got %d", len(adjs))
	}
}

func TestAdjustmentsForUpdate(t *testing.T) {
	accountA := uuid.New()
	accountB := uuid.New()

	tests := []struct {
		name     string
		before   *Transaction
		after    *Transaction
		expected map[uuid.UUID]string
	}{
		{
			name:     "same account amount change yields net delta",
			before:   newTestTransaction(accountA, TransactionTypeExpense, "100"),
			after:    newTestTransaction(accountA, TransactionTypeExpense, "150"),
			expected: map[uuid.UUID]string{accountA: "-50"},
		},
		{
			name:     "same account type flip doubles the effect",
			before:   newTestTransaction(accountA, TransactionTypeExpense, "100"),
			after:    newTestTransaction(accountA, TransactionTypeIncome, "100"),
			expected: map[uuid.UUID]string{accountA: "200"},
		},
		{
			name:     "unchanged ledger fields yield nothing",
			before:   newTestTransaction(accountA, TransactionTypeIncome, "30"),
			after:    newTestTransaction(accountA, TransactionTypeIncome, "30"),
			expected: map[uuid.UUID]string{},
		},
		{
			name:     "account move reverses old and applies new",
			before:   newTestTransaction(accountA, TransactionTypeExpense, "100"),
			after:    newTestTransaction(accountB, TransactionTypeExpense, "100"),
			expected: map[uuid.UUID]string{accountA: "100", accountB: "-100"},
		},
		{
			name:     "account move with amount and type change",
			before:   newTestTransaction(accountA, TransactionTypeExpense, "100"),
			after:    newTestTransaction(accountB, TransactionTypeIncome, "70"),
			expected: map[uuid.UUID]string{accountA: "100", accountB: "70"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adjs := AdjustmentsForUpdate(tt.before, tt.after)
			if len(adjs) != len(tt.expected) {
				t.Fatalf("expected %d adjustments, got %d: %+v", len(tt.expected), len(adjs), adjs)
			}
			for _, adj := range adjs {
				want, ok := tt.expected[adj.AccountID]
				if !ok {
					t.Fatalf("unexpected account %s", adj.AccountID)
				}
				if !adj.Delta.Equal(decimal.RequireFromString(want)) {
					t.Errorf("account %s: expected %s, got %s", adj.AccountID, want, adj.Delta)
				}
			}
		})
	}
}

func TestAdjustmentsForDelete_AggregatesPerAccount(t *testing.T) {
	accountA := uuid.New()
	accountB := uuid.New()

	adjs := AdjustmentsForDelete([]*Transaction{
		newTestTransaction(accountA, TransactionTypeExpense, "10"),
		newTestTransaction(accountA, TransactionTypeIncome, "3"),
		newTestTransaction(accountB, TransactionTypeIncome, "5"),
	})

	if len(adjs) != 2 {
		t.Fatalf("expected 2 adjustments, got %d", len(adjs))
	}
	for _, adj := range adjs {
		switch adj.AccountID {
		case accountA:
			if !adj.Delta.Equal(decimal.NewFromInt(7)) {
				t.Errorf("expected 7 for account A, got %s", adj.Delta)
			}
		case accountB:
			if !adj.Delta.Equal(decimal.NewFromInt(-5)) {
				t.Errorf("expected -5 for account B, got %s", adj.Delta)
			}
		default:
			t.Errorf("unexpected account %s", adj.AccountID)
		}
	}
}

func TestNormalizeAdjustments_SortedByAccount(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New()}
	adjs := make([]BalanceAdjustment, 0, len(ids))
	for _, id := range ids {
		adjs = append(adjs, BalanceAdjustment{AccountID: id, Delta: decimal.NewFromInt(1)})
	}

	result := normalizeAdjustments(adjs)
	for i := 1; i < len(result); i++ {
		if result[i-1].AccountID.String() >= result[i].AccountID.String() {
			t.Fatalf("adjustments not sorted: %s before %s", result[i-1].AccountID, result[i].AccountID)
		}
	}
}

func TestTransaction_AdvanceRecurrence(t *testing.T) {
	weekly := valueobject.IntervalWeekly
	start := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	txn := NewTransaction(uuid.New(), uuid.New(), TransactionTypeExpense, decimal.NewFromInt(9), start, "gym", "Health", true, &weekly)

	txn.AdvanceRecurrence()

	if txn.LastProcessedAt == nil || !txn.LastProcessedAt.Equal(start.AddDate(0, 0, 7)) {
		t.Fatalf("expected last processed %v, got %v", start.AddDate(0, 0, 7), txn.LastProcessedAt)
	}
	if !txn.NextRecurringDate.Equal(start.AddDate(0, 0, 14)) {
		t.Errorf("expected next %v, got %v", start.AddDate(0, 0, 14), txn.NextRecurringDate)
	}

	// Editing the template must not re-project an occurrence already posted.
	txn.Amount = decimal.NewFromInt(12)
	txn.RefreshRecurrence()
	if !txn.NextRecurringDate.Equal(start.AddDate(0, 0, 14)) {
		t.Errorf("expected projection to stay after last processed, got %v", txn.NextRecurringDate)
	}

	occurrence := txn.Occurrence(*txn.LastProcessedAt)
	if occurrence.IsRecurring || occurrence.RecurringInterval != nil || occurrence.NextRecurringDate != nil {
		t.Errorf("expected occurrence to be non-recurring")
	}
	if occurrence.ID == txn.ID {
		t.Errorf("expected occurrence to get its own ID")
	}
}

func TestTransaction_AdvanceRecurrence_NonRecurring(t *testing.T) {
	txn := newTestTransaction(uuid.New(), TransactionTypeIncome, "1")
	txn.AdvanceRecurrence()
	if txn.LastProcessedAt != nil || txn.NextRecurringDate != nil {
		t.Errorf("expected non-recurring transaction to stay unprojected")
	}
}

func TestTransaction_AdvanceRecurrence_MonthlyKeepsDayOfMonth(t *testing.T) {
	monthly := valueobject.IntervalMonthly
	start := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	txn := NewTransaction(uuid.New(), uuid.New(), TransactionTypeExpense, decimal.NewFromInt(700), start, "rent", "Housing", true, &monthly)

	expected := []time.Time{
		time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC),
	}
	for i, want := range expected {
		txn.AdvanceRecurrence()
		if !txn.NextRecurringDate.Equal(want) {
			t.Fatalf("advance %d: expected next %v, got %v", i+1, want, txn.NextRecurringDate)
		}
	}

	// Re-projecting after an edit lands on the same anchored date.
	txn.Description = "rent and parking"
	txn.RefreshRecurrence()
	if !txn.NextRecurringDate.Equal(expected[len(expected)-1]) {
		t.Errorf("expected refreshed next %v, got %v", expected[len(expected)-1], txn.NextRecurringDate)
	}
}
