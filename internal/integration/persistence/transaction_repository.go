package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/finance-tracker/ledger-api/internal/application/adapter"
	"github.com/finance-tracker/ledger-api/internal/domain/entity"
	domainerror "github.com/finance-tracker/ledger-api/internal/domain/error"
	"github.com/finance-tracker/ledger-api/internal/integration/persistence/model"
)

// transactionRepository implements the adapter.TransactionRepository interface.
type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new transaction repository instance.
func NewTransactionRepository(db *gorm.DB) adapter.TransactionRepository {
	return &transactionRepository{
		db: db,
	}
}

// CreateWithAdjustments inserts txn and applies the balance adjustments atomically.
func (r *transactionRepository) CreateWithAdjustments(ctx context.Context, txn *entity.Transaction, adjustments []entity.BalanceAdjustment) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(model.TransactionFromEntity(txn)).Error; err != nil {
			return err
		}
		return applyAdjustments(tx, txn.UserID, adjustments)
	})
	return translateError(err)
}

// UpdateWithAdjustments saves txn and applies the adjustments atomically.
// The stored row is locked and compared to expected before anything is written.
func (r *transactionRepository) UpdateWithAdjustments(
	ctx context.Context,
	txn *entity.Transaction,
	expected adapter.LedgerSnapshot,
	adjustments []entity.BalanceAdjustment,
) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current model.TransactionModel
		result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND user_id = ?", txn.ID, txn.UserID).
			First(&current)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return domainerror.ErrTransactionNotFound
			}
			return result.Error
		}

		if !expected.Matches(current.ToEntity()) {
			return domainerror.ErrConcurrentModification
		}

		updated := model.TransactionFromEntity(txn)
		result = tx.Model(&model.TransactionModel{}).
			Where("id = ? AND user_id = ?", txn.ID, txn.UserID).
			Updates(map[string]interface{}{
				"account_id":          updated.AccountID,
				"type":                updated.Type,
				"amount":              updated.Amount,
				"date":                updated.Date,
				"description":         updated.Description,
				"category":            updated.Category,
				"is_recurring":        updated.IsRecurring,
				"recurring_interval":  updated.RecurringInterval,
				"next_recurring_date": updated.NextRecurringDate,
				"last_processed_at":   updated.LastProcessedAt,
				"updated_at":          updated.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}

		return applyAdjustments(tx, txn.UserID, adjustments)
	})
	return translateError(err)
}

// DeleteWithAdjustments locks the user's transactions, soft-deletes them and
// reverses their balance effects atomically. The reversal is computed from the
// locked rows, so a concurrent update is either fully seen or blocked.
func (r *transactionRepository) DeleteWithAdjustments(ctx context.Context, ids []uuid.UUID, userID uuid.UUID) ([]*entity.Transaction, error) {
	if len(ids) == 0 {
		return []*entity.Transaction{}, nil
	}

	var deleted []*entity.Transaction
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked []model.TransactionModel
		result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id IN ? AND user_id = ?", ids, userID).
			Order("id").
			Find(&locked)
		if result.Error != nil {
			return result.Error
		}
		if len(locked) != len(ids) {
			return domainerror.ErrTransactionIDsNotFound
		}

		result = tx.Where("id IN ? AND user_id = ?", ids, userID).Delete(&model.TransactionModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != int64(len(ids)) {
			return domainerror.ErrConcurrentModification
		}

		deleted = toTransactionEntities(locked)
		return applyAdjustments(tx, userID, entity.AdjustmentsForDelete(deleted))
	})
	if err != nil {
		return nil, translateError(err)
	}
	return deleted, nil
}

// FindByIDAndUser retrieves a transaction owned by userID.
func (r *transactionRepository) FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*entity.Transaction, error) {
	var transactionModel model.TransactionModel
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&transactionModel)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domainerror.ErrTransactionNotFound
		}
		return nil, result.Error
	}
	return transactionModel.ToEntity(), nil
}

// FindByFilter retrieves the user's transactions with their accounts, newest first.
func (r *transactionRepository) FindByFilter(ctx context.Context, filter adapter.TransactionFilter) ([]*entity.TransactionWithAccount, error) {
	query := r.db.WithContext(ctx).
		Model(&model.TransactionModel{}).
		Preload("Account").
		Where("user_id = ?", filter.UserID)

	if filter.AccountID != nil {
		query = query.Where("account_id = ?", *filter.AccountID)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", string(*filter.Type))
	}
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	if filter.IsRecurring != nil {
		query = query.Where("is_recurring = ?", *filter.IsRecurring)
	}

	var transactionModels []model.TransactionModel
	if err := query.Order("date DESC, created_at DESC").Find(&transactionModels).Error; err != nil {
		return nil, err
	}

	results := make([]*entity.TransactionWithAccount, len(transactionModels))
	for i := range transactionModels {
		results[i] = transactionModels[i].ToEntityWithAccount()
	}
	return results, nil
}

// FindByAccount retrieves the transactions of one account, newest first.
func (r *transactionRepository) FindByAccount(ctx context.Context, accountID, userID uuid.UUID) ([]*entity.Transaction, error) {
	var transactionModels []model.TransactionModel
	result := r.db.WithContext(ctx).
		Where("account_id = ? AND user_id = ?", accountID, userID).
		Order("date DESC, created_at DESC").
		Find(&transactionModels)
	if result.Error != nil {
		return nil, result.Error
	}
	return toTransactionEntities(transactionModels), nil
}

// periodTotalRow is the scan target for SumByTypeInPeriod.
type periodTotalRow struct {
	Type  string
	Total decimal.Decimal
}

// SumByTypeInPeriod returns income and expense totals for a user within [start, end).
func (r *transactionRepository) SumByTypeInPeriod(ctx context.Context, userID uuid.UUID, start, end time.Time) (*adapter.PeriodTotals, error) {
	var rows []periodTotalRow
	result := r.db.WithContext(ctx).
		Model(&model.TransactionModel{}).
		Select("type, COALESCE(SUM(amount), 0) AS total").
		Where("user_id = ? AND date >= ? AND date < ?", userID, start, end).
		Group("type").
		Scan(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	totals := &adapter.PeriodTotals{
		Income:  decimal.Zero,
		Expense: decimal.Zero,
	}
	for _, row := range rows {
		switch entity.TransactionType(row.Type) {
		case entity.TransactionTypeIncome:
			totals.Income = row.Total
		case entity.TransactionTypeExpense:
			totals.Expense = row.Total
		}
	}
	return totals, nil
}

// FindDueRecurring retrieves recurring templates whose next date is at or before now.
func (r *transactionRepository) FindDueRecurring(ctx context.Context, now time.Time, limit int) ([]*entity.Transaction, error) {
	query := r.db.WithContext(ctx).
		Where("is_recurring = ? AND next_recurring_date IS NOT NULL AND next_recurring_date <= ?", true, now).
		Order("next_recurring_date ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var transactionModels []model.TransactionModel
	if err := query.Find(&transactionModels).Error; err != nil {
		return nil, err
	}
	return toTransactionEntities(transactionModels), nil
}

// PostRecurringOccurrence posts the occurrence due at dueDate and advances the
// template in one database transaction. The occurrence is built from the
// locked template row, and the row's projection must still equal dueDate, so
// two workers racing on the same template post the occurrence once.
func (r *transactionRepository) PostRecurringOccurrence(
	ctx context.Context,
	templateID, userID uuid.UUID,
	dueDate time.Time,
) (*adapter.RecurringPosting, error) {
	var posting *adapter.RecurringPosting
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current model.TransactionModel
		result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND user_id = ?", templateID, userID).
			First(&current)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return nil
			}
			return result.Error
		}
		if !current.IsRecurring || current.NextRecurringDate == nil || !current.NextRecurringDate.Equal(dueDate) {
			return nil
		}

		template := current.ToEntity()
		occurrence := template.Occurrence(dueDate)
		template.AdvanceRecurrence()

		if err := tx.Create(model.TransactionFromEntity(occurrence)).Error; err != nil {
			return err
		}
		if err := applyAdjustments(tx, occurrence.UserID, entity.AdjustmentsForCreate(occurrence)); err != nil {
			return err
		}

		result = tx.Model(&model.TransactionModel{}).
			Where("id = ?", template.ID).
			Updates(map[string]interface{}{
				"next_recurring_date": template.NextRecurringDate,
				"last_processed_at":   template.LastProcessedAt,
				"updated_at":          template.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}

		posting = &adapter.RecurringPosting{Template: template, Occurrence: occurrence}
		return nil
	})
	if err != nil {
		return nil, translateError(err)
	}
	return posting, nil
}

// applyAdjustments increments account balances in place. Adjustments arrive
// sorted by account ID so concurrent writers lock rows in the same order.
// An adjustment against an account the user does not own aborts the transaction.
func applyAdjustments(tx *gorm.DB, userID uuid.UUID, adjustments []entity.BalanceAdjustment) error {
	now := time.Now().UTC()
	for _, adj := range adjustments {
		result := tx.Model(&model.AccountModel{}).
			Where("id = ? AND user_id = ?", adj.AccountID, userID).
			Updates(map[string]interface{}{
				"balance":    gorm.Expr("balance + ?", adj.Delta),
				"updated_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerror.ErrAccountNotFound
		}
	}
	return nil
}

func toTransactionEntities(models []model.TransactionModel) []*entity.Transaction {
	transactions := make([]*entity.Transaction, len(models))
	for i := range models {
		transactions[i] = models[i].ToEntity()
	}
	return transactions
}
