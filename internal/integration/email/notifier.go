// Package email delivers user notifications by email through an outbox.
package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/finance-tracker/ledger-api/internal/application/adapter"
	"github.com/finance-tracker/ledger-api/internal/domain/entity"
)

const (
	payloadDescription = "description"
	payloadAmount      = "amount"
	payloadType        = "type"
	payloadPostedOn    = "posted_on"
	payloadNextDate    = "next_date"
)

const dateLayout = "2006-01-02"

// Notifier records ledger notifications in the outbox for later delivery.
type Notifier struct {
	outbox adapter.NotificationOutbox
}

// NewNotifier creates a new outbox-backed notifier.
func NewNotifier(outbox adapter.NotificationOutbox) *Notifier {
	return &Notifier{
		outbox: outbox,
	}
}

// NotifyRecurringPosted queues the "recurring transaction posted" email.
func (n *Notifier) NotifyRecurringPosted(ctx context.Context, notice adapter.RecurringPostedNotice) error {
	description := notice.Description
	if description == "" {
		description = "Recurring transaction"
	}

	payload := map[string]string{
		payloadDescription: description,
		payloadAmount:      notice.Amount.StringFixed(2),
		payloadType:        strings.ToLower(notice.Type),
		payloadPostedOn:    notice.PostedOn.Format(dateLayout),
	}
	if notice.NextDate != nil {
		payload[payloadNextDate] = notice.NextDate.Format(dateLayout)
	}

	notification := entity.NewNotification(
		entity.NotificationRecurringPosted,
		notice.UserEmail,
		notice.UserName,
		fmt.Sprintf("Posted: %s", description),
		payload,
	)

	return n.outbox.Enqueue(ctx, notification)
}

// Ensure Notifier implements adapter.Notifier.
var _ adapter.Notifier = (*Notifier)(nil)
