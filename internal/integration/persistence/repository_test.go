package persistence

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/finance-tracker/ledger-api/internal/application/adapter"
	"github.com/finance-tracker/ledger-api/internal/domain/entity"
	domainerror "github.com/finance-tracker/ledger-api/internal/domain/error"
	"github.com/finance-tracker/ledger-api/internal/domain/valueobject"
	"github.com/finance-tracker/ledger-api/internal/integration/persistence/model"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dbSQL, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	dbSQL.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = dbSQL.Close() })

	db, err := gorm.Open(sqlite.Dialector{Conn: dbSQL}, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open gorm: %v", err)
	}

	err = db.AutoMigrate(
		&model.UserModel{},
		&model.RefreshTokenModel{},
		&model.AccountModel{},
		&model.TransactionModel{},
		&model.NotificationModel{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

type ledgerFixture struct {
	db           *gorm.DB
	users        adapter.UserRepository
	accounts     adapter.AccountRepository
	transactions adapter.TransactionRepository
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	db := openTestDB(t)
	return &ledgerFixture{
		db:           db,
		users:        NewUserRepository(db),
		accounts:     NewAccountRepository(db),
		transactions: NewTransactionRepository(db),
	}
}

func (f *ledgerFixture) user(t *testing.T) *entity.User {
	t.Helper()
	user := entity.NewUser(uuid.NewString()+"@example.com", "Test", "hash")
	if err := f.users.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func (f *ledgerFixture) account(t *testing.T, userID uuid.UUID, balance string) *entity.Account {
	t.Helper()
	account := entity.NewAccount(userID, "Main", entity.AccountTypeCurrent, decimal.RequireFromString(balance), false)
	if err := f.accounts.Create(context.Background(), account); err != nil {
		t.Fatalf("failed to create account: %v", err)
	}
	return account
}

func (f *ledgerFixture) balance(t *testing.T, account *entity.Account) decimal.Decimal {
	t.Helper()
	stored, err := f.accounts.FindByIDAndUser(context.Background(), account.ID, account.UserID)
	if err != nil {
		t.Fatalf("failed to load account: %v", err)
	}
	return stored.Balance
}

func expense(userID, accountID uuid.UUID, amount string, date time.Time) *entity.Transaction {
	return entity.NewTransaction(userID, accountID, entity.TransactionTypeExpense,
		decimal.RequireFromString(amount), date, "Groceries", "food", false, nil)
}

func assertBalance(t *testing.T, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("balance = %s, want %s", got, want)
	}
}

func TestUserRepository(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	user := f.user(t)

	found, err := f.users.FindByEmail(ctx, user.Email)
	if err != nil {
		t.Fatalf("FindByEmail() error = %v", err)
	}
	if found.ID != user.ID {
		t.Errorf("FindByEmail() ID = %s, want %s", found.ID, user.ID)
	}

	exists, err := f.users.ExistsByEmail(ctx, user.Email)
	if err != nil || !exists {
		t.Errorf("ExistsByEmail() = %v, %v, want true", exists, err)
	}

	if _, err := f.users.FindByID(ctx, uuid.New()); !errors.Is(err, domainerror.ErrUserNotFound) {
		t.Errorf("FindByID() error = %v, want ErrUserNotFound", err)
	}
}

func TestAccountRepository_DefaultMovesToNewest(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	user := f.user(t)

	first := entity.NewAccount(user.ID, "Main", entity.AccountTypeCurrent, decimal.Zero, true)
	second := entity.NewAccount(user.ID, "Savings", entity.AccountTypeSavings, decimal.Zero, true)
	for _, account := range []*entity.Account{first, second} {
		if err := f.accounts.Create(ctx, account); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	accounts, err := f.accounts.FindByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("FindByUser() error = %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("FindByUser() returned %d accounts, want 2", len(accounts))
	}
	if accounts[0].ID != second.ID || !accounts[0].IsDefault {
		t.Errorf("first account = %s (default %v), want %s as default", accounts[0].Name, accounts[0].IsDefault, second.Name)
	}
	if accounts[1].IsDefault {
		t.Errorf("previous default was not cleared")
	}

	count, err := f.accounts.CountByUser(ctx, user.ID)
	if err != nil || count != 2 {
		t.Errorf("CountByUser() = %d, %v, want 2", count, err)
	}

	other := f.user(t)
	if _, err := f.accounts.FindByIDAndUser(ctx, first.ID, other.ID); !errors.Is(err, domainerror.ErrAccountNotFound) {
		t.Errorf("FindByIDAndUser() for another user error = %v, want ErrAccountNotFound", err)
	}
}

func TestTransactionRepository_CreateAppliesBalance(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	user := f.user(t)
	account := f.account(t, user.ID, "100")

	txn := expense(user.ID, account.ID, "50", time.Now().UTC())
	if err := f.transactions.CreateWithAdjustments(ctx, txn, entity.AdjustmentsForCreate(txn)); err != nil {
		t.Fatalf("CreateWithAdjustments() error = %v", err)
	}

	assertBalance(t, f.balance(t, account), "50")

	stored, err := f.transactions.FindByIDAndUser(ctx, txn.ID, user.ID)
	if err != nil {
		t.Fatalf("FindByIDAndUser() error = %v", err)
	}
	if !stored.Amount.Equal(txn.Amount) || stored.Type != entity.TransactionTypeExpense {
		t.Errorf("stored transaction = %s %s, want EXPENSE 50", stored.Type, stored.Amount)
	}
}

func TestTransactionRepository_CreateRollsBackOnForeignAccount(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	owner := f.user(t)
	intruder := f.user(t)
	account := f.account(t, owner.ID, "100")

	txn := expense(intruder.ID, account.ID, "50", time.Now().UTC())
	err := f.transactions.CreateWithAdjustments(ctx, txn, entity.AdjustmentsForCreate(txn))
	if !errors.Is(err, domainerror.ErrAccountNotFound) {
		t.Fatalf("CreateWithAdjustments() error = %v, want ErrAccountNotFound", err)
	}

	assertBalance(t, f.balance(t, account), "100")
	if _, err := f.transactions.FindByIDAndUser(ctx, txn.ID, intruder.ID); !errors.Is(err, domainerror.ErrTransactionNotFound) {
		t.Errorf("transaction row survived rollback: %v", err)
	}
}

func TestTransactionRepository_UpdateMovesBetweenAccounts(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	user := f.user(t)
	from := f.account(t, user.ID, "100")
	to := f.account(t, user.ID, "0")

	txn := expense(user.ID, from.ID, "20", time.Now().UTC())
	if err := f.transactions.CreateWithAdjustments(ctx, txn, entity.AdjustmentsForCreate(txn)); err != nil {
		t.Fatalf("CreateWithAdjustments() error = %v", err)
	}

	before := *txn
	after := *txn
	after.AccountID = to.ID
	after.Amount = decimal.RequireFromString("5")

	err := f.transactions.UpdateWithAdjustments(ctx, &after, adapter.SnapshotOf(&before), entity.AdjustmentsForUpdate(&before, &after))
	if err != nil {
		t.Fatalf("UpdateWithAdjustments() error = %v", err)
	}

	assertBalance(t, f.balance(t, from), "100")
	assertBalance(t, f.balance(t, to), "-5")

	stored, err := f.transactions.FindByIDAndUser(ctx, txn.ID, user.ID)
	if err != nil {
		t.Fatalf("FindByIDAndUser() error = %v", err)
	}
	if stored.AccountID != to.ID {
		t.Errorf("stored account = %s, want %s", stored.AccountID, to.ID)
	}
}

func TestTransactionRepository_UpdateDetectsStaleSnapshot(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	user := f.user(t)
	account := f.account(t, user.ID, "100")

	txn := expense(user.ID, account.ID, "20", time.Now().UTC())
	if err := f.transactions.CreateWithAdjustments(ctx, txn, entity.AdjustmentsForCreate(txn)); err != nil {
		t.Fatalf("CreateWithAdjustments() error = %v", err)
	}

	stale := adapter.SnapshotOf(txn)
	stale.Amount = decimal.RequireFromString("999")

	after := *txn
	after.Amount = decimal.RequireFromString("30")
	err := f.transactions.UpdateWithAdjustments(ctx, &after, stale, entity.AdjustmentsForUpdate(txn, &after))
	if !errors.Is(err, domainerror.ErrConcurrentModification) {
		t.Fatalf("UpdateWithAdjustments() error = %v, want ErrConcurrentModification", err)
	}
	assertBalance(t, f.balance(t, account), "80")
}

func TestTransactionRepository_DeleteReversesBalances(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	user := f.user(t)
	account := f.account(t, user.ID, "100")

	var txns []*entity.Transaction
	for _, amount := range []string{"10", "15"} {
		txn := expense(user.ID, account.ID, amount, time.Now().UTC())
		if err := f.transactions.CreateWithAdjustments(ctx, txn, entity.AdjustmentsForCreate(txn)); err != nil {
			t.Fatalf("CreateWithAdjustments() error = %v", err)
		}
		txns = append(txns, txn)
	}
	assertBalance(t, f.balance(t, account), "75")

	ids := []uuid.UUID{txns[0].ID, txns[1].ID}
	deleted, err := f.transactions.DeleteWithAdjustments(ctx, ids, user.ID)
	if err != nil {
		t.Fatalf("DeleteWithAdjustments() error = %v", err)
	}
	if len(deleted) != 2 {
		t.Errorf("DeleteWithAdjustments() returned %d rows, want 2", len(deleted))
	}
	assertBalance(t, f.balance(t, account), "100")

	for _, id := range ids {
		if _, err := f.transactions.FindByIDAndUser(ctx, id, user.ID); !errors.Is(err, domainerror.ErrTransactionNotFound) {
			t.Errorf("transaction %s still found after delete: %v", id, err)
		}
	}

	_, err = f.transactions.DeleteWithAdjustments(ctx, ids, user.ID)
	if !errors.Is(err, domainerror.ErrTransactionIDsNotFound) {
		t.Errorf("second delete error = %v, want ErrTransactionIDsNotFound", err)
	}
	assertBalance(t, f.balance(t, account), "100")
}

func TestTransactionRepository_FindByFilter(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	user := f.user(t)
	account := f.account(t, user.ID, "0")

	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	older := expense(user.ID, account.ID, "5", day)
	newer := expense(user.ID, account.ID, "7", day.AddDate(0, 0, 1))
	income := entity.NewTransaction(user.ID, account.ID, entity.TransactionTypeIncome,
		decimal.RequireFromString("100"), day, "Salary", "salary", false, nil)
	for _, txn := range []*entity.Transaction{older, newer, income} {
		if err := f.transactions.CreateWithAdjustments(ctx, txn, entity.AdjustmentsForCreate(txn)); err != nil {
			t.Fatalf("CreateWithAdjustments() error = %v", err)
		}
	}

	expenseType := entity.TransactionTypeExpense
	results, err := f.transactions.FindByFilter(ctx, adapter.TransactionFilter{UserID: user.ID, Type: &expenseType})
	if err != nil {
		t.Fatalf("FindByFilter() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("FindByFilter() returned %d results, want 2", len(results))
	}
	if results[0].Transaction.ID != newer.ID {
		t.Errorf("first result = %s, want newest expense", results[0].Transaction.ID)
	}
	if results[0].Account == nil || results[0].Account.ID != account.ID {
		t.Errorf("account was not preloaded")
	}

	other := f.user(t)
	results, err = f.transactions.FindByFilter(ctx, adapter.TransactionFilter{UserID: other.ID})
	if err != nil {
		t.Fatalf("FindByFilter() error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("another user sees %d transactions, want 0", len(results))
	}
}

func TestTransactionRepository_SumByTypeInPeriod(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	user := f.user(t)
	account := f.account(t, user.ID, "0")

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	txns := []*entity.Transaction{
		expense(user.ID, account.ID, "30", start),
		expense(user.ID, account.ID, "12.50", start.AddDate(0, 0, 14)),
		expense(user.ID, account.ID, "99", end),
		entity.NewTransaction(user.ID, account.ID, entity.TransactionTypeIncome,
			decimal.RequireFromString("200"), start.AddDate(0, 0, 3), "Salary", "salary", false, nil),
	}
	for _, txn := range txns {
		if err := f.transactions.CreateWithAdjustments(ctx, txn, entity.AdjustmentsForCreate(txn)); err != nil {
			t.Fatalf("CreateWithAdjustments() error = %v", err)
		}
	}

	totals, err := f.transactions.SumByTypeInPeriod(ctx, user.ID, start, end)
	if err != nil {
		t.Fatalf("SumByTypeInPeriod() error = %v", err)
	}
	if !totals.Income.Equal(decimal.RequireFromString("200")) {
		t.Errorf("income = %s, want 200", totals.Income)
	}
	if !totals.Expense.Equal(decimal.RequireFromString("42.5")) {
		t.Errorf("expense = %s, want 42.5", totals.Expense)
	}
}

func TestTransactionRepository_PostRecurringOccurrenceOnce(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	user := f.user(t)
	account := f.account(t, user.ID, "1000")

	monthly := valueobject.IntervalMonthly
	template := entity.NewTransaction(user.ID, account.ID, entity.TransactionTypeExpense,
		decimal.RequireFromString("400"), time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), "Rent", "housing", true, &monthly)
	if err := f.transactions.CreateWithAdjustments(ctx, template, entity.AdjustmentsForCreate(template)); err != nil {
		t.Fatalf("CreateWithAdjustments() error = %v", err)
	}
	assertBalance(t, f.balance(t, account), "600")

	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	due, err := f.transactions.FindDueRecurring(ctx, now, 10)
	if err != nil {
		t.Fatalf("FindDueRecurring() error = %v", err)
	}
	if len(due) != 1 || due[0].ID != template.ID {
		t.Fatalf("FindDueRecurring() = %d templates, want the rent template", len(due))
	}

	dueDate := *due[0].NextRecurringDate
	posting, err := f.transactions.PostRecurringOccurrence(ctx, template.ID, user.ID, dueDate)
	if err != nil || posting == nil {
		t.Fatalf("PostRecurringOccurrence() = %v, %v, want a posting", posting, err)
	}
	if !posting.Occurrence.Date.Equal(dueDate) || posting.Occurrence.IsRecurring {
		t.Errorf("occurrence = %+v, want a one-off on %v", posting.Occurrence, dueDate)
	}
	assertBalance(t, f.balance(t, account), "200")

	replay, err := f.transactions.PostRecurringOccurrence(ctx, template.ID, user.ID, dueDate)
	if err != nil {
		t.Fatalf("replayed PostRecurringOccurrence() error = %v", err)
	}
	if replay != nil {
		t.Errorf("replayed PostRecurringOccurrence() posted twice")
	}
	assertBalance(t, f.balance(t, account), "200")

	stored, err := f.transactions.FindByIDAndUser(ctx, template.ID, user.ID)
	if err != nil {
		t.Fatalf("FindByIDAndUser() error = %v", err)
	}
	wantNext := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	if stored.NextRecurringDate == nil || !stored.NextRecurringDate.Equal(wantNext) {
		t.Errorf("next recurring date = %v, want %v", stored.NextRecurringDate, wantNext)
	}

	due, err = f.transactions.FindDueRecurring(ctx, now, 10)
	if err != nil {
		t.Fatalf("FindDueRecurring() error = %v", err)
	}
	if len(due) != 0 {
		t.Errorf("template still due after posting")
	}
}

func TestRefreshTokenStore(t *testing.T) {
	db := openTestDB(t)
	store := NewRefreshTokenStore(db)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	live := RefreshTokenRecord{ID: uuid.New(), UserID: uuid.New(), TokenHash: "live", ExpiresAt: now.Add(time.Hour)}
	expired := RefreshTokenRecord{ID: uuid.New(), UserID: uuid.New(), TokenHash: "expired", ExpiresAt: now.Add(-time.Minute)}
	loggedOut := RefreshTokenRecord{ID: uuid.New(), UserID: uuid.New(), TokenHash: "logged-out", ExpiresAt: now.Add(time.Hour)}
	for _, record := range []RefreshTokenRecord{live, expired, loggedOut} {
		if err := store.Save(ctx, record); err != nil {
			t.Fatalf("Save(%s) error = %v", record.TokenHash, err)
		}
	}
	if err := store.Revoke(ctx, loggedOut.TokenHash, now); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}

	tests := []struct {
		name string
		hash string
		want bool
	}{
		{name: "live token", hash: "live", want: true},
		{name: "second use", hash: "live", want: false},
		{name: "expired", hash: "expired", want: false},
		{name: "logged out", hash: "logged-out", want: false},
		{name: "unknown", hash: "unknown", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Consume(ctx, tt.hash, now)
			if err != nil {
				t.Fatalf("Consume() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Consume(%s) = %v, want %v", tt.hash, got, tt.want)
			}
		})
	}

	if err := store.Revoke(ctx, "unknown", now); err != nil {
		t.Errorf("Revoke(unknown) error = %v", err)
	}
}

func TestTransactionRepository_PostRecurringOccurrenceUsesStoredTemplate(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	user := f.user(t)
	account := f.account(t, user.ID, "1000")

	weekly := valueobject.IntervalWeekly
	template := entity.NewTransaction(user.ID, account.ID, entity.TransactionTypeExpense,
		decimal.RequireFromString("40"), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), "Gym", "health", true, &weekly)
	if err := f.transactions.CreateWithAdjustments(ctx, template, entity.AdjustmentsForCreate(template)); err != nil {
		t.Fatalf("CreateWithAdjustments() error = %v", err)
	}

	due, err := f.transactions.FindDueRecurring(ctx, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), 10)
	if err != nil || len(due) != 1 {
		t.Fatalf("FindDueRecurring() = %d, %v, want the gym template", len(due), err)
	}

	// The amount is edited after the worker listed the template.
	before := *due[0]
	after := before
	after.Amount = decimal.RequireFromString("55")
	err = f.transactions.UpdateWithAdjustments(ctx, &after, adapter.SnapshotOf(&before), entity.AdjustmentsForUpdate(&before, &after))
	if err != nil {
		t.Fatalf("UpdateWithAdjustments() error = %v", err)
	}
	assertBalance(t, f.balance(t, account), "945")

	posting, err := f.transactions.PostRecurringOccurrence(ctx, before.ID, user.ID, *before.NextRecurringDate)
	if err != nil || posting == nil {
		t.Fatalf("PostRecurringOccurrence() = %v, %v, want a posting", posting, err)
	}
	if !posting.Occurrence.Amount.Equal(decimal.RequireFromString("55")) {
		t.Errorf("occurrence amount = %s, want the edited 55", posting.Occurrence.Amount)
	}
	assertBalance(t, f.balance(t, account), "890")
}

func TestTransactionRepository_UpdateAfterRecurringPostingConflicts(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	user := f.user(t)
	account := f.account(t, user.ID, "1000")

	monthly := valueobject.IntervalMonthly
	template := entity.NewTransaction(user.ID, account.ID, entity.TransactionTypeExpense,
		decimal.RequireFromString("200"), time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), "Rent", "housing", true, &monthly)
	if err := f.transactions.CreateWithAdjustments(ctx, template, entity.AdjustmentsForCreate(template)); err != nil {
		t.Fatalf("CreateWithAdjustments() error = %v", err)
	}

	read, err := f.transactions.FindByIDAndUser(ctx, template.ID, user.ID)
	if err != nil {
		t.Fatalf("FindByIDAndUser() error = %v", err)
	}

	// The worker posts the Feb 15 occurrence between the read and the update.
	posting, err := f.transactions.PostRecurringOccurrence(ctx, template.ID, user.ID, *read.NextRecurringDate)
	if err != nil || posting == nil {
		t.Fatalf("PostRecurringOccurrence() = %v, %v, want a posting", posting, err)
	}

	edited := *read
	edited.Description = "Rent and parking"
	edited.RefreshRecurrence()
	err = f.transactions.UpdateWithAdjustments(ctx, &edited, adapter.SnapshotOf(read), nil)
	if !errors.Is(err, domainerror.ErrConcurrentModification) {
		t.Fatalf("UpdateWithAdjustments() error = %v, want ErrConcurrentModification", err)
	}

	stored, err := f.transactions.FindByIDAndUser(ctx, template.ID, user.ID)
	if err != nil {
		t.Fatalf("FindByIDAndUser() error = %v", err)
	}
	wantNext := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if stored.NextRecurringDate == nil || !stored.NextRecurringDate.Equal(wantNext) {
		t.Errorf("next recurring date = %v, want %v", stored.NextRecurringDate, wantNext)
	}

	due, err := f.transactions.FindDueRecurring(ctx, time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC), 10)
	if err != nil {
		t.Fatalf("FindDueRecurring() error = %v", err)
	}
	if len(due) != 0 {
		t.Errorf("Feb 15 occurrence is due again after the rejected update")
	}
	assertBalance(t, f.balance(t, account), "600")
}

func TestTransactionRepository_DeleteReversesLockedAmount(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	user := f.user(t)
	account := f.account(t, user.ID, "100")

	txn := expense(user.ID, account.ID, "50", time.Now().UTC())
	if err := f.transactions.CreateWithAdjustments(ctx, txn, entity.AdjustmentsForCreate(txn)); err != nil {
		t.Fatalf("CreateWithAdjustments() error = %v", err)
	}

	// The delete's caller read the 50 expense before this update committed.
	stale, err := f.transactions.FindByIDAndUser(ctx, txn.ID, user.ID)
	if err != nil {
		t.Fatalf("FindByIDAndUser() error = %v", err)
	}

	after := *stale
	after.Amount = decimal.RequireFromString("80")
	err = f.transactions.UpdateWithAdjustments(ctx, &after, adapter.SnapshotOf(stale), entity.AdjustmentsForUpdate(stale, &after))
	if err != nil {
		t.Fatalf("UpdateWithAdjustments() error = %v", err)
	}
	assertBalance(t, f.balance(t, account), "20")

	deleted, err := f.transactions.DeleteWithAdjustments(ctx, []uuid.UUID{txn.ID}, user.ID)
	if err != nil {
		t.Fatalf("DeleteWithAdjustments() error = %v", err)
	}
	if len(deleted) != 1 || !deleted[0].Amount.Equal(decimal.RequireFromString("80")) {
		t.Errorf("deleted rows = %+v, want the 80 expense", deleted)
	}
	assertBalance(t, f.balance(t, account), "100")
}

func TestTransactionRepository_DeleteRejectsForeignIDs(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	owner := f.user(t)
	intruder := f.user(t)
	account := f.account(t, owner.ID, "100")

	txn := expense(owner.ID, account.ID, "25", time.Now().UTC())
	if err := f.transactions.CreateWithAdjustments(ctx, txn, entity.AdjustmentsForCreate(txn)); err != nil {
		t.Fatalf("CreateWithAdjustments() error = %v", err)
	}

	_, err := f.transactions.DeleteWithAdjustments(ctx, []uuid.UUID{txn.ID}, intruder.ID)
	if !errors.Is(err, domainerror.ErrTransactionIDsNotFound) {
		t.Fatalf("DeleteWithAdjustments() error = %v, want ErrTransactionIDsNotFound", err)
	}
	assertBalance(t, f.balance(t, account), "75")
	if _, err := f.transactions.FindByIDAndUser(ctx, txn.ID, owner.ID); err != nil {
		t.Errorf("transaction was deleted by another user: %v", err)
	}
}

// ledgerSum returns opening plus the signed effect of every stored transaction on account.
func (f *ledgerFixture) ledgerSum(t *testing.T, account *entity.Account, opening string) decimal.Decimal {
	t.Helper()
	txns, err := f.transactions.FindByAccount(context.Background(), account.ID, account.UserID)
	if err != nil {
		t.Fatalf("FindByAccount() error = %v", err)
	}
	sum := decimal.RequireFromString(opening)
	for _, txn := range txns {
		sum = sum.Add(txn.SignedEffect())
	}
	return sum
}

func TestTransactionRepository_BalanceMatchesLedgerSum(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	user := f.user(t)
	account := f.account(t, user.ID, "10.50")

	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	steps := []*entity.Transaction{
		entity.NewTransaction(user.ID, account.ID, entity.TransactionTypeIncome,
			decimal.RequireFromString("1500"), day, "Salary", "salary", false, nil),
		expense(user.ID, account.ID, "64.25", day.AddDate(0, 0, 1)),
		expense(user.ID, account.ID, "0.75", day.AddDate(0, 0, 2)),
		expense(user.ID, account.ID, "2000", day.AddDate(0, 0, 3)),
		entity.NewTransaction(user.ID, account.ID, entity.TransactionTypeIncome,
			decimal.RequireFromString("19.50"), day.AddDate(0, 0, 4), "Refund", "shopping", false, nil),
	}
	for i, txn := range steps {
		if err := f.transactions.CreateWithAdjustments(ctx, txn, entity.AdjustmentsForCreate(txn)); err != nil {
			t.Fatalf("CreateWithAdjustments() step %d error = %v", i, err)
		}
		if got, want := f.balance(t, account), f.ledgerSum(t, account, "10.50"); !got.Equal(want) {
			t.Fatalf("after step %d balance = %s, ledger sum = %s", i, got, want)
		}
	}
	assertBalance(t, f.balance(t, account), "-535")
}

func TestTransactionRepository_ConcurrentCreatesKeepLedgerSum(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	user := f.user(t)
	account := f.account(t, user.ID, "0")

	const writers = 20
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			txnType := entity.TransactionTypeIncome
			if i%2 == 1 {
				txnType = entity.TransactionTypeExpense
			}
			txn := entity.NewTransaction(user.ID, account.ID, txnType,
				decimal.NewFromInt(int64(i+1)), time.Now().UTC(), "Parallel", "misc", false, nil)
			errs <- f.transactions.CreateWithAdjustments(ctx, txn, entity.AdjustmentsForCreate(txn))
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("CreateWithAdjustments() error = %v", err)
		}
	}

	// Incomes 1+3+...+19 = 100, expenses 2+4+...+20 = 110.
	assertBalance(t, f.balance(t, account), "-10")
	if got, want := f.balance(t, account), f.ledgerSum(t, account, "0"); !got.Equal(want) {
		t.Errorf("balance = %s, ledger sum = %s", got, want)
	}
}
