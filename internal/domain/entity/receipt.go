package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Default values for receipt fields the model could not read.
const (
	DefaultReceiptDescription = "No Description"
	DefaultReceiptMerchant    = "Unknown"
	DefaultReceiptCategory    = "Misc"
)

// ReceiptScan is a suggested transaction extracted from a receipt image.
// It is never persisted; the caller decides whether to create a transaction from it.
type ReceiptScan struct {
	Amount       decimal.Decimal
	Date         time.Time
	Description  string
	MerchantName string
	Category     string
}
