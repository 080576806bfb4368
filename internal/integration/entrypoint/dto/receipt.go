package dto

import (
	"encoding/json"
	"time"

	"github.com/finance-tracker/ledger-api/internal/domain/entity"
)

// ReceiptScanResponse represents the transaction suggested by a receipt scan.
type ReceiptScanResponse struct {
	Amount       json.Number `json:"amount"`
	Date         string      `json:"date"`
	Description  string      `json:"description"`
	MerchantName string      `json:"merchant_name"`
	Category     string      `json:"category"`
}

// ToReceiptScanResponse converts a ReceiptScan to a ReceiptScanResponse DTO.
func ToReceiptScanResponse(scan *entity.ReceiptScan) ReceiptScanResponse {
	return ReceiptScanResponse{
		Amount:       Money(scan.Amount),
		Date:         scan.Date.Format(time.RFC3339),
		Description:  scan.Description,
		MerchantName: scan.MerchantName,
		Category:     scan.Category,
	}
}
