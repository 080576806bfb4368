package adapter

import (
	"context"
	"time"

	"github.com/finance-tracker/ledger-api/internal/domain/entity"
)

// NotificationOutbox persists notifications until the dispatcher delivers them.
type NotificationOutbox interface {
	// Enqueue stores a new pending notification.
	Enqueue(ctx context.Context, notification *entity.Notification) error

	// Due returns pending notifications whose NotBefore is not after now, oldest first.
	Due(ctx context.Context, now time.Time, limit int) ([]*entity.Notification, error)

	// Save persists the state of a notification.
	Save(ctx context.Context, notification *entity.Notification) error

	// PurgeDelivered removes delivered notifications older than before.
	PurgeDelivered(ctx context.Context, before time.Time) (int64, error)
}
