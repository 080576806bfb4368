package transaction

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finance-tracker/ledger-api/internal/application/adapter"
	"github.com/finance-tracker/ledger-api/internal/domain/entity"
	domainerror "github.com/finance-tracker/ledger-api/internal/domain/error"
)

// memoryLedger is an in-memory TransactionRepository, AccountRepository and
// UserRepository sharing one lock, so every ledger write is atomic.
type memoryLedger struct {
	mu           sync.Mutex
	users        map[uuid.UUID]*entity.User
	accounts     map[uuid.UUID]*entity.Account
	transactions map[uuid.UUID]*entity.Transaction
	failWrites   error
	writes       int
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{
		users:        map[uuid.UUID]*entity.User{},
		accounts:     map[uuid.UUID]*entity.Account{},
		transactions: map[uuid.UUID]*entity.Transaction{},
	}
}

func (m *memoryLedger) addUser() *entity.User {
	user := entity.NewUser(uuid.NewString()+"@example.com", "Test", "hash")
	m.users[user.ID] = user
	return user
}

func (m *memoryLedger) addAccount(userID uuid.UUID, balance string) *entity.Account {
	account := entity.NewAccount(userID, "Main", entity.AccountTypeCurrent, decimal.RequireFromString(balance), false)
	m.accounts[account.ID] = account
	return account
}

func (m *memoryLedger) balance(accountID uuid.UUID) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts[accountID].Balance
}

// applyLocked validates and applies adjustments; callers hold m.mu.
func (m *memoryLedger) applyLocked(userID uuid.UUID, adjustments []entity.BalanceAdjustment) error {
	for _, adj := range adjustments {
		account, ok := m.accounts[adj.AccountID]
		if !ok || account.UserID != userID {
			return domainerror.ErrAccountNotFound
		}
	}
	for _, adj := range adjustments {
		m.accounts[adj.AccountID].Balance = m.accounts[adj.AccountID].Balance.Add(adj.Delta)
	}
	return nil
}

func (m *memoryLedger) CreateWithAdjustments(ctx context.Context, txn *entity.Transaction, adjustments []entity.BalanceAdjustment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites != nil {
		return m.failWrites
	}
	if err := m.applyLocked(txn.UserID, adjustments); err != nil {
		return err
	}
	stored := *txn
	m.transactions[txn.ID] = &stored
	m.writes++
	return nil
}

func (m *memoryLedger) UpdateWithAdjustments(ctx context.Context, txn *entity.Transaction, expected adapter.LedgerSnapshot, adjustments []entity.BalanceAdjustment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites != nil {
		return m.failWrites
	}
	current, ok := m.transactions[txn.ID]
	if !ok || current.UserID != txn.UserID {
		return domainerror.ErrTransactionNotFound
	}
	if !expected.Matches(current) {
		return domainerror.ErrConcurrentModification
	}
	if err := m.applyLocked(txn.UserID, adjustments); err != nil {
		return err
	}
	stored := *txn
	m.transactions[txn.ID] = &stored
	m.writes++
	return nil
}

func (m *memoryLedger) DeleteWithAdjustments(ctx context.Context, ids []uuid.UUID, userID uuid.UUID) ([]*entity.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites != nil {
		return nil, m.failWrites
	}
	deleted := make([]*entity.Transaction, 0, len(ids))
	for _, id := range ids {
		txn, ok := m.transactions[id]
		if !ok || txn.UserID != userID {
			return nil, domainerror.ErrTransactionIDsNotFound
		}
		copied := *txn
		deleted = append(deleted, &copied)
	}
	if err := m.applyLocked(userID, entity.AdjustmentsForDelete(deleted)); err != nil {
		return nil, err
	}
	for _, id := range ids {
		delete(m.transactions, id)
	}
	m.writes++
	return deleted, nil
}

func (m *memoryLedger) FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*entity.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	txn, ok := m.transactions[id]
	if !ok || txn.UserID != userID {
		return nil, domainerror.ErrTransactionNotFound
	}
	copied := *txn
	return &copied, nil
}

func (m *memoryLedger) FindByFilter(ctx context.Context, filter adapter.TransactionFilter) ([]*entity.TransactionWithAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*entity.TransactionWithAccount
	for _, txn := range m.transactions {
		if txn.UserID != filter.UserID {
			continue
		}
		if filter.AccountID != nil && txn.AccountID != *filter.AccountID {
			continue
		}
		if filter.Type != nil && txn.Type != *filter.Type {
			continue
		}
		if filter.Category != nil && txn.Category != *filter.Category {
			continue
		}
		if filter.IsRecurring != nil && txn.IsRecurring != *filter.IsRecurring {
			continue
		}
		copied := *txn
		account := *m.accounts[txn.AccountID]
		result = append(result, &entity.TransactionWithAccount{Transaction: &copied, Account: &account})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Transaction.Date.After(result[j].Transaction.Date)
	})
	return result, nil
}

func (m *memoryLedger) FindByAccount(ctx context.Context, accountID, userID uuid.UUID) ([]*entity.Transaction, error) {
	return nil, nil
}

func (m *memoryLedger) SumByTypeInPeriod(ctx context.Context, userID uuid.UUID, start, end time.Time) (*adapter.PeriodTotals, error) {
	return &adapter.PeriodTotals{}, nil
}

func (m *memoryLedger) FindDueRecurring(ctx context.Context, now time.Time, limit int) ([]*entity.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*entity.Transaction
	for _, txn := range m.transactions {
		if txn.IsRecurring && txn.NextRecurringDate != nil && !txn.NextRecurringDate.After(now) {
			copied := *txn
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *memoryLedger) PostRecurringOccurrence(ctx context.Context, templateID, userID uuid.UUID, dueDate time.Time) (*adapter.RecurringPosting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.transactions[templateID]
	if !ok || current.UserID != userID || !current.IsRecurring || current.NextRecurringDate == nil || !current.NextRecurringDate.Equal(dueDate) {
		return nil, nil
	}
	template := *current
	occurrence := template.Occurrence(dueDate)
	template.AdvanceRecurrence()
	if err := m.applyLocked(userID, entity.AdjustmentsForCreate(occurrence)); err != nil {
		return nil, err
	}
	storedTemplate := template
	storedOccurrence := *occurrence
	m.transactions[templateID] = &storedTemplate
	m.transactions[occurrence.ID] = &storedOccurrence
	m.writes++
	return &adapter.RecurringPosting{Template: &template, Occurrence: occurrence}, nil
}

// accountRepo adapts memoryLedger to adapter.AccountRepository.
type accountRepo struct{ *memoryLedger }

func (r accountRepo) Create(ctx context.Context, account *entity.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[account.ID] = account
	return nil
}

func (r accountRepo) FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok || account.UserID != userID {
		return nil, domainerror.ErrAccountNotFound
	}
	copied := *account
	return &copied, nil
}

func (r accountRepo) FindByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Account, error) {
	return nil, nil
}

func (r accountRepo) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

// userRepo adapts memoryLedger to adapter.UserRepository.
type userRepo struct{ *memoryLedger }

func (r userRepo) Create(ctx context.Context, user *entity.User) error {
	r.users[user.ID] = user
	return nil
}

func (r userRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, domainerror.ErrUserNotFound
	}
	return user, nil
}

func (r userRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return nil, domainerror.ErrUserNotFound
}

func (r userRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return false, nil
}

// fakeGate returns a fixed decision.
type fakeGate struct {
	decision adapter.AdmissionDecision
	calls    int
}

func allowAll() *fakeGate {
	return &fakeGate{decision: adapter.AdmissionDecision{Allowed: true}}
}

func (g *fakeGate) Protect(ctx context.Context, userID uuid.UUID, requested int) (*adapter.AdmissionDecision, error) {
	g.calls++
	decision := g.decision
	return &decision, nil
}

// recordingCache records invalidations.
type recordingCache struct {
	mu         sync.Mutex
	dashboards []uuid.UUID
	accounts   []uuid.UUID
	failWith   error
}

func (c *recordingCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	return false, nil
}

func (c *recordingCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return nil
}

func (c *recordingCache) InvalidateDashboard(ctx context.Context, userID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dashboards = append(c.dashboards, userID)
	return c.failWith
}

func (c *recordingCache) InvalidateAccount(ctx context.Context, accountID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accounts = append(c.accounts, accountID)
	return c.failWith
}
