package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/finance-tracker/ledger-api/internal/application/adapter"
	"github.com/finance-tracker/ledger-api/internal/domain/entity"
	domainerror "github.com/finance-tracker/ledger-api/internal/domain/error"
	"github.com/finance-tracker/ledger-api/internal/integration/email/templates"
)

// Dispatcher drains the notification outbox and sends due emails.
type Dispatcher struct {
	outbox       adapter.NotificationOutbox
	sender       adapter.EmailSender
	renderer     *templates.Renderer
	pollInterval time.Duration
	batchSize    int
	retention    time.Duration
	now          func() time.Time
}

// DispatcherConfig holds configuration for the dispatcher.
type DispatcherConfig struct {
	PollInterval time.Duration
	BatchSize    int
	Retention    time.Duration // Delivered notifications older than this are purged
}

// DefaultDispatcherConfig returns the default dispatcher configuration.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		PollInterval: 5 * time.Second,
		BatchSize:    10,
		Retention:    30 * 24 * time.Hour,
	}
}

// NewDispatcher creates a new outbox dispatcher.
func NewDispatcher(outbox adapter.NotificationOutbox, sender adapter.EmailSender, renderer *templates.Renderer, config DispatcherConfig) *Dispatcher {
	return &Dispatcher{
		outbox:       outbox,
		sender:       sender,
		renderer:     renderer,
		pollInterval: config.PollInterval,
		batchSize:    config.BatchSize,
		retention:    config.Retention,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Start runs the dispatch loop until the context is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	slog.Info("Notification dispatcher started",
		"poll_interval", d.pollInterval,
		"batch_size", d.batchSize,
	)

	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	d.dispatchDue(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Notification dispatcher shutting down")
			return
		case <-ticker.C:
			d.dispatchDue(ctx)
		}
	}
}

// DispatchNow delivers everything currently due.
func (d *Dispatcher) DispatchNow(ctx context.Context) {
	d.dispatchDue(ctx)
}

func (d *Dispatcher) dispatchDue(ctx context.Context) {
	now := d.now()

	notifications, err := d.outbox.Due(ctx, now, d.batchSize)
	if err != nil {
		slog.Error("Failed to load due notifications", "error", err)
		return
	}

	for _, notification := range notifications {
		select {
		case <-ctx.Done():
			return
		default:
			d.deliver(ctx, notification)
		}
	}

	if d.retention > 0 {
		purged, err := d.outbox.PurgeDelivered(ctx, now.Add(-d.retention))
		if err != nil {
			slog.Warn("Failed to purge delivered notifications", "error", err)
		} else if purged > 0 {
			slog.Debug("Purged delivered notifications", "count", purged)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, notification *entity.Notification) {
	logger := slog.With(
		"notification_id", notification.ID,
		"kind", notification.Kind,
		"recipient", notification.RecipientEmail,
	)

	notification.MarkSending()
	if err := d.outbox.Save(ctx, notification); err != nil {
		logger.Error("Failed to claim notification", "error", err)
		return
	}

	html, text, err := d.render(notification)
	if err != nil {
		logger.Error("Failed to render notification", "error", err)
		d.fail(ctx, notification, err, true)
		return
	}

	result, err := d.sender.Send(ctx, adapter.SendEmailInput{
		To:      notification.RecipientEmail,
		Name:    notification.RecipientName,
		Subject: notification.Subject,
		HTML:    html,
		Text:    text,
	})
	if err != nil {
		logger.Error("Failed to send notification", "error", err)
		d.fail(ctx, notification, err, domainerror.IsPermanentDelivery(err))
		return
	}

	notification.MarkDelivered(result.ProviderID, d.now())
	if err := d.outbox.Save(ctx, notification); err != nil {
		logger.Error("Failed to mark notification delivered", "error", err)
		return
	}

	logger.Info("Notification delivered", "provider_id", result.ProviderID)
}

func (d *Dispatcher) render(notification *entity.Notification) (string, string, error) {
	switch notification.Kind {
	case entity.NotificationRecurringPosted:
		return d.renderer.Render(templates.RecurringPosted, templates.RecurringPostedData{
			UserName:    notification.RecipientName,
			Description: notification.Payload[payloadDescription],
			Amount:      notification.Payload[payloadAmount],
			Type:        notification.Payload[payloadType],
			PostedOn:    notification.Payload[payloadPostedOn],
			NextDate:    notification.Payload[payloadNextDate],
		})
	default:
		return "", "", fmt.Errorf("%w: %s", domainerror.ErrUnknownNotificationKind, notification.Kind)
	}
}

func (d *Dispatcher) fail(ctx context.Context, notification *entity.Notification, err error, permanent bool) {
	notification.MarkFailed(err, permanent, d.now())

	if saveErr := d.outbox.Save(ctx, notification); saveErr != nil {
		slog.Error("Failed to record notification failure",
			"notification_id", notification.ID,
			"error", saveErr,
		)
	}

	if notification.Status == entity.NotificationFailed {
		slog.Warn("Notification permanently failed",
			"notification_id", notification.ID,
			"attempts", notification.Attempts,
			"last_error", notification.LastError,
		)
		return
	}
	slog.Info("Notification scheduled for retry",
		"notification_id", notification.ID,
		"attempts", notification.Attempts,
		"not_before", notification.NotBefore,
	)
}
