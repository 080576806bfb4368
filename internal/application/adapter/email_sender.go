package adapter

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// SendEmailInput represents the input for sending an email.
type SendEmailInput struct {
	To      string
	Name    string
	Subject string
	HTML    string
	Text    string
}

// SendEmailResult represents the result of sending an email.
type SendEmailResult struct {
	ProviderID string
}

// EmailSender defines the interface for sending emails via an external provider.
type EmailSender interface {
	// Send sends an email via the email provider (e.g., Resend).
	Send(ctx context.Context, input SendEmailInput) (*SendEmailResult, error)
}

// RecurringPostedNotice describes an occurrence posted by the recurring processor.
type RecurringPostedNotice struct {
	UserEmail   string
	UserName    string
	Description string
	Amount      decimal.Decimal
	Type        string
	PostedOn    time.Time
	NextDate    *time.Time
}

// Notifier delivers user-facing notifications about ledger activity.
type Notifier interface {
	// NotifyRecurringPosted informs a user that a recurring transaction was posted.
	NotifyRecurringPosted(ctx context.Context, notice RecurringPostedNotice) error
}
