package entity

import (
	"bytes"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BalanceAdjustment is a signed delta to apply to one account balance.
type BalanceAdjustment struct {
	AccountID uuid.UUID
	Delta     decimal.Decimal
}

// AdjustmentsForCreate returns the balance change caused by posting txn.
func AdjustmentsForCreate(txn *Transaction) []BalanceAdjustment {
	return normalizeAdjustments([]BalanceAdjustment{
		{AccountID: txn.AccountID, Delta: txn.SignedEffect()},
	})
}

// AdjustmentsForUpdate returns the balance changes needed to move from before to after.
//
// When the account is unchanged a single net adjustment is produced. When the
// transaction moves between accounts the old effect is reversed on the old
// account and the new effect is applied to the new one.
func AdjustmentsForUpdate(before, after *Transaction) []BalanceAdjustment {
	if before.AccountID == after.AccountID {
		return normalizeAdjustments([]BalanceAdjustment{
			{AccountID: after.AccountID, Delta: after.SignedEffect().Sub(before.SignedEffect())},
		})
	}
	return normalizeAdjustments([]BalanceAdjustment{
		{AccountID: before.AccountID, Delta: before.SignedEffect().Neg()},
		{AccountID: after.AccountID, Delta: after.SignedEffect()},
	})
}

// AdjustmentsForDelete reverses the effect of every transaction, aggregated per account.
func AdjustmentsForDelete(txns []*Transaction) []BalanceAdjustment {
	adjs := make([]BalanceAdjustment, 0, len(txns))
	for _, txn := range txns {
		adjs = append(adjs, BalanceAdjustment{AccountID: txn.AccountID, Delta: txn.SignedEffect().Neg()})
	}
	return normalizeAdjustments(adjs)
}

// normalizeAdjustments merges deltas per account, drops zero deltas and
// orders the result by account ID so row locks are always taken in the same order.
func normalizeAdjustments(adjs []BalanceAdjustment) []BalanceAdjustment {
	totals := make(map[uuid.UUID]decimal.Decimal, len(adjs))
	for _, adj := range adjs {
		totals[adj.AccountID] = totals[adj.AccountID].Add(adj.Delta)
	}

	result := make([]BalanceAdjustment, 0, len(totals))
	for accountID, delta := range totals {
		if delta.IsZero() {
			continue
		}
		result = append(result, BalanceAdjustment{AccountID: accountID, Delta: delta})
	}

	sort.Slice(result, func(i, j int) bool {
		return bytes.Compare(result[i].AccountID[:], result[j].AccountID[:]) < 0
	})
	return result
}

// AffectedAccounts returns the distinct account IDs touched by adjs.
func AffectedAccounts(adjs []BalanceAdjustment) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(adjs))
	for _, adj := range adjs {
		ids = append(ids, adj.AccountID)
	}
	return ids
}
