// Package receipt contains receipt scanning use cases.
package receipt

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finance-tracker/ledger-api/internal/domain/entity"
)

var fenceStripper = strings.NewReplacer("```json", "", "```", "")

// ParseReceiptReply normalizes a model reply into a fully populated ReceiptScan.
// Only a reply that is not a single JSON object is an error; every malformed or missing
// field falls back to its default, and a missing date falls back to now.
func ParseReceiptReply(raw string, now time.Time) (*entity.ReceiptScan, error) {
	cleaned := strings.TrimSpace(fenceStripper.Replace(raw))

	decoder := json.NewDecoder(bytes.NewReader([]byte(cleaned)))
	decoder.UseNumber()

	var fields map[string]any
	if err := decoder.Decode(&fields); err != nil {
		return nil, fmt.Errorf("failed to decode receipt reply: %w", err)
	}
	if fields == nil {
		return nil, fmt.Errorf("receipt reply is not a JSON object")
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("receipt reply has data after the JSON object")
	}

	return &entity.ReceiptScan{
		Amount:       parseAmount(fields["amount"]),
		Date:         parseDate(fields["date"], now),
		Description:  stringOr(fields["description"], entity.DefaultReceiptDescription),
		MerchantName: stringOr(fields["merchantName"], entity.DefaultReceiptMerchant),
		Category:     stringOr(fields["category"], entity.DefaultReceiptCategory),
	}, nil
}

func parseAmount(value any) decimal.Decimal {
	var text string
	switch v := value.(type) {
	case json.Number:
		text = v.String()
	case string:
		text = strings.TrimSpace(v)
	default:
		return decimal.Zero
	}

	amount, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero
	}
	return amount
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

func parseDate(value any, now time.Time) time.Time {
	text, ok := value.(string)
	if !ok {
		return now
	}
	text = strings.TrimSpace(text)
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, text); err == nil {
			return parsed
		}
	}
	return now
}

func stringOr(value any, fallback string) string {
	text, ok := value.(string)
	if !ok {
		return fallback
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return fallback
	}
	return text
}
