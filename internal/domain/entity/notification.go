package entity

import (
	"time"

	"github.com/google/uuid"
)

// NotificationStatus is the delivery state of an outbox entry.
type NotificationStatus string

const (
	NotificationPending   NotificationStatus = "pending"
	NotificationSending   NotificationStatus = "sending"
	NotificationDelivered NotificationStatus = "delivered"
	NotificationFailed    NotificationStatus = "failed"
)

// NotificationKind selects the message template.
type NotificationKind string

const (
	NotificationRecurringPosted NotificationKind = "recurring_posted"
)

// DefaultNotificationAttempts is how many sends are tried before giving up.
const DefaultNotificationAttempts = 3

// retryDelays is indexed by the number of failed attempts so far.
var retryDelays = []time.Duration{0, time.Minute, 5 * time.Minute}

// Notification is an outbox entry: a message recorded next to the ledger
// write that caused it and delivered later by the dispatcher.
type Notification struct {
	ID             uuid.UUID
	Kind           NotificationKind
	RecipientEmail string
	RecipientName  string
	Subject        string
	Payload        map[string]string
	Status         NotificationStatus
	Attempts       int
	MaxAttempts    int
	LastError      string
	ProviderID     string
	CreatedAt      time.Time
	NotBefore      time.Time
	DeliveredAt    *time.Time
}

// NewNotification creates a pending notification that is due immediately.
func NewNotification(kind NotificationKind, recipientEmail, recipientName, subject string, payload map[string]string) *Notification {
	now := time.Now().UTC()
	return &Notification{
		ID:             uuid.New(),
		Kind:           kind,
		RecipientEmail: recipientEmail,
		RecipientName:  recipientName,
		Subject:        subject,
		Payload:        payload,
		Status:         NotificationPending,
		MaxAttempts:    DefaultNotificationAttempts,
		CreatedAt:      now,
		NotBefore:      now,
	}
}

// MarkSending claims the notification for a delivery attempt.
func (n *Notification) MarkSending() {
	n.Status = NotificationSending
}

// MarkDelivered records a successful send.
func (n *Notification) MarkDelivered(providerID string, at time.Time) {
	n.Status = NotificationDelivered
	n.ProviderID = providerID
	n.DeliveredAt = &at
}

// MarkFailed records a failed attempt. The notification goes back to pending
// with a delay unless the failure is permanent or attempts are exhausted.
func (n *Notification) MarkFailed(err error, permanent bool, at time.Time) {
	n.Attempts++
	n.LastError = err.Error()

	if permanent || n.Attempts >= n.MaxAttempts {
		n.Status = NotificationFailed
		return
	}

	delay := retryDelays[len(retryDelays)-1]
	if n.Attempts < len(retryDelays) {
		delay = retryDelays[n.Attempts]
	}
	n.Status = NotificationPending
	n.NotBefore = at.Add(delay)
}

// IsDue reports whether the notification should be attempted at now.
func (n *Notification) IsDue(now time.Time) bool {
	return n.Status == NotificationPending && !n.NotBefore.After(now)
}
