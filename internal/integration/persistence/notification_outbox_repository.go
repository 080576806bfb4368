package persistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/finance-tracker/ledger-api/internal/application/adapter"
	"github.com/finance-tracker/ledger-api/internal/domain/entity"
	"github.com/finance-tracker/ledger-api/internal/integration/persistence/model"
)

// notificationOutboxRepository implements the adapter.NotificationOutbox interface.
type notificationOutboxRepository struct {
	db *gorm.DB
}

// NewNotificationOutboxRepository creates a new notification outbox repository instance.
func NewNotificationOutboxRepository(db *gorm.DB) adapter.NotificationOutbox {
	return &notificationOutboxRepository{
		db: db,
	}
}

// Enqueue stores a new pending notification.
func (r *notificationOutboxRepository) Enqueue(ctx context.Context, notification *entity.Notification) error {
	if err := r.db.WithContext(ctx).Create(model.NotificationFromEntity(notification)).Error; err != nil {
		return fmt.Errorf("failed to enqueue notification: %w", err)
	}
	return nil
}

// Due returns pending notifications ready to be attempted.
func (r *notificationOutboxRepository) Due(ctx context.Context, now time.Time, limit int) ([]*entity.Notification, error) {
	var models []model.NotificationModel

	result := r.db.WithContext(ctx).
		Where("status = ?", entity.NotificationPending).
		Where("not_before <= ?", now).
		Order("not_before ASC").
		Limit(limit).
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}

	notifications := make([]*entity.Notification, len(models))
	for i := range models {
		notifications[i] = models[i].ToEntity()
	}
	return notifications, nil
}

// Save persists the state of a notification.
func (r *notificationOutboxRepository) Save(ctx context.Context, notification *entity.Notification) error {
	return r.db.WithContext(ctx).Save(model.NotificationFromEntity(notification)).Error
}

// PurgeDelivered removes delivered notifications older than before.
func (r *notificationOutboxRepository) PurgeDelivered(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("status = ?", entity.NotificationDelivered).
		Where("delivered_at < ?", before).
		Delete(&model.NotificationModel{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
