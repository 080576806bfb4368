package receipt

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finance-tracker/ledger-api/internal/domain/entity"
)

func TestParseReceiptReply(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		raw      string
		expected entity.ReceiptScan
	}{
		{
			name: "fenced reply with string amount",
			raw:  "```json\n{\"amount\":\"12.5\"}\n```",
			expected: entity.ReceiptScan{
				Amount:       decimal.RequireFromString("12.5"),
				Date:         now,
				Description:  entity.DefaultReceiptDescription,
				MerchantName: entity.DefaultReceiptMerchant,
				Category:     entity.DefaultReceiptCategory,
			},
		},
		{
			name: "complete reply",
			raw:  `{"amount": 42.99, "date": "2024-05-20", "description": "Weekly shop", "merchantName": "Corner Market", "category": "Groceries"}`,
			expected: entity.ReceiptScan{
				Amount:       decimal.RequireFromString("42.99"),
				Date:         time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC),
				Description:  "Weekly shop",
				MerchantName: "Corner Market",
				Category:     "Groceries",
			},
		},
		{
			name: "malformed fields fall back",
			raw:  "```\n{\"amount\":\"twelve\",\"date\":\"yesterday\",\"description\":\"  \",\"merchantName\":7,\"category\":null}\n```",
			expected: entity.ReceiptScan{
				Amount:       decimal.Zero,
				Date:         now,
				Description:  entity.DefaultReceiptDescription,
				MerchantName: entity.DefaultReceiptMerchant,
				Category:     entity.DefaultReceiptCategory,
			},
		},
		{
			name: "RFC3339 date",
			raw:  `{"date":"2024-05-20T18:30:00Z","amount":0.1}`,
			expected: entity.ReceiptScan{
				Amount:       decimal.RequireFromString("0.1"),
				Date:         time.Date(2024, 5, 20, 18, 30, 0, 0, time.UTC),
				Description:  entity.DefaultReceiptDescription,
				MerchantName: entity.DefaultReceiptMerchant,
				Category:     entity.DefaultReceiptCategory,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scan, err := ParseReceiptReply(tt.raw, now)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !scan.Amount.Equal(tt.expected.Amount) {
				t.Errorf("amount: expected %s, got %s", tt.expected.Amount, scan.Amount)
			}
			if !scan.Date.Equal(tt.expected.Date) {
				t.Errorf("date: expected %v, got %v", tt.expected.Date, scan.Date)
			}
			if scan.Description != tt.expected.Description {
				t.Errorf("description: expected %q, got %q", tt.expected.Description, scan.Description)
			}
			if scan.MerchantName != tt.expected.MerchantName {
				t.Errorf("merchant: expected %q, got %q", tt.expected.MerchantName, scan.MerchantName)
			}
			if scan.Category != tt.expected.Category {
				t.Errorf("category: expected %q, got %q", tt.expected.Category, scan.Category)
			}
		})
	}
}

func TestParseReceiptReply_Invalid(t *testing.T) {
	for _, raw := range []string{"", "not json", "```json\n[1,2]\n```", "null", `{"amount":`,
		`{"amount":1} trailing junk`, `{"amount":1}{"amount":2}`, "```json\n{\"amount\":1}\n```\nTotal: 1"} {
		if _, err := ParseReceiptReply(raw, time.Now()); err == nil {
			t.Errorf("expected error for %q", raw)
		}
	}
}
