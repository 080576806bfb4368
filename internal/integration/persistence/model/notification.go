package model

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/finance-tracker/ledger-api/internal/domain/entity"
)

// NotificationModel represents the notification_outbox table in the database.
type NotificationModel struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Kind           string     `gorm:"type:varchar(50);not null"`
	RecipientEmail string     `gorm:"type:varchar(255);not null;index"`
	RecipientName  string     `gorm:"type:varchar(255)"`
	Subject        string     `gorm:"type:varchar(500);not null"`
	Payload        string     `gorm:"type:text;not null;default:'{}'"`
	Status         string     `gorm:"type:varchar(20);not null;default:'pending';index:idx_outbox_due,priority:1"`
	Attempts       int        `gorm:"not null;default:0"`
	MaxAttempts    int        `gorm:"not null;default:3"`
	LastError      string     `gorm:"type:text"`
	ProviderID     string     `gorm:"type:varchar(100)"`
	CreatedAt      time.Time  `gorm:"not null"`
	NotBefore      time.Time  `gorm:"not null;index:idx_outbox_due,priority:2"`
	DeliveredAt    *time.Time
}

// TableName returns the table name for the NotificationModel.
func (NotificationModel) TableName() string {
	return "notification_outbox"
}

// ToEntity converts a NotificationModel to a domain Notification entity.
func (m *NotificationModel) ToEntity() *entity.Notification {
	payload := map[string]string{}
	if m.Payload != "" {
		if err := json.Unmarshal([]byte(m.Payload), &payload); err != nil {
			slog.Warn("Failed to unmarshal notification payload", "error", err, "id", m.ID)
		}
	}

	return &entity.Notification{
		ID:             m.ID,
		Kind:           entity.NotificationKind(m.Kind),
		RecipientEmail: m.RecipientEmail,
		RecipientName:  m.RecipientName,
		Subject:        m.Subject,
		Payload:        payload,
		Status:         entity.NotificationStatus(m.Status),
		Attempts:       m.Attempts,
		MaxAttempts:    m.MaxAttempts,
		LastError:      m.LastError,
		ProviderID:     m.ProviderID,
		CreatedAt:      m.CreatedAt,
		NotBefore:      m.NotBefore,
		DeliveredAt:    m.DeliveredAt,
	}
}

// NotificationFromEntity creates a NotificationModel from a domain Notification entity.
func NotificationFromEntity(n *entity.Notification) *NotificationModel {
	payload, err := json.Marshal(n.Payload)
	if err != nil || n.Payload == nil {
		payload = []byte("{}")
	}

	return &NotificationModel{
		ID:             n.ID,
		Kind:           string(n.Kind),
		RecipientEmail: n.RecipientEmail,
		RecipientName:  n.RecipientName,
		Subject:        n.Subject,
		Payload:        string(payload),
		Status:         string(n.Status),
		Attempts:       n.Attempts,
		MaxAttempts:    n.MaxAttempts,
		LastError:      n.LastError,
		ProviderID:     n.ProviderID,
		CreatedAt:      n.CreatedAt,
		NotBefore:      n.NotBefore,
		DeliveredAt:    n.DeliveredAt,
	}
}
