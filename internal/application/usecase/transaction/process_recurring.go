package transaction

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/finance-tracker/ledger-api/internal/application/adapter"
	"github.com/finance-tracker/ledger-api/internal/domain/entity"
)

// ProcessRecurringInput represents the input for one recurring processing run.
type ProcessRecurringInput struct {
	Now       time.Time
	BatchSize int
}

// ProcessRecurringOutput summarizes a processing run.
type ProcessRecurringOutput struct {
	Posted  int
	Skipped int
	Failed  int
}

// ProcessRecurringUseCase posts due occurrences of recurring transactions.
type ProcessRecurringUseCase struct {
	transactionRepo adapter.TransactionRepository
	userRepo        adapter.UserRepository
	notifier        adapter.Notifier
	cache           adapter.ViewCache
}

// NewProcessRecurringUseCase creates a new ProcessRecurringUseCase instance.
// notifier may be nil when email delivery is not configured.
func NewProcessRecurringUseCase(
	transactionRepo adapter.TransactionRepository,
	userRepo adapter.UserRepository,
	notifier adapter.Notifier,
	cache adapter.ViewCache,
) *ProcessRecurringUseCase {
	return &ProcessRecurringUseCase{
		transactionRepo: transactionRepo,
		userRepo:        userRepo,
		notifier:        notifier,
		cache:           cache,
	}
}

// Execute posts at most one occurrence per due template.
func (uc *ProcessRecurringUseCase) Execute(ctx context.Context, input ProcessRecurringInput) (*ProcessRecurringOutput, error) {
	templates, err := uc.transactionRepo.FindDueRecurring(ctx, input.Now, input.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to find due recurring transactions: %w", err)
	}

	output := &ProcessRecurringOutput{}
	for _, template := range templates {
		select {
		case <-ctx.Done():
			return output, ctx.Err()
		default:
		}

		posted, err := uc.postOccurrence(ctx, template)
		switch {
		case err != nil:
			output.Failed++
			slog.Error("Failed to post recurring occurrence",
				"transactionID", template.ID,
				"error", err,
			)
		case posted:
			output.Posted++
		default:
			output.Skipped++
		}
	}

	if len(templates) > 0 {
		slog.Info("Recurring transactions processed",
			"posted", output.Posted,
			"skipped", output.Skipped,
			"failed", output.Failed,
		)
	}

	return output, nil
}

func (uc *ProcessRecurringUseCase) postOccurrence(ctx context.Context, template *entity.Transaction) (bool, error) {
	if template.NextRecurringDate == nil {
		return false, nil
	}

	dueDate := *template.NextRecurringDate
	posting, err := uc.transactionRepo.PostRecurringOccurrence(ctx, template.ID, template.UserID, dueDate)
	if err != nil {
		return false, err
	}
	if posting == nil {
		slog.Debug("Recurring occurrence already posted",
			"transactionID", template.ID,
			"dueDate", dueDate,
		)
		return false, nil
	}

	invalidateViews(ctx, uc.cache, template.UserID, template.AccountID, posting.Occurrence.AccountID)
	uc.notify(ctx, posting.Template, posting.Occurrence)

	return true, nil
}

// notify sends the posting notice. Delivery failures never undo the posting.
func (uc *ProcessRecurringUseCase) notify(ctx context.Context, template, occurrence *entity.Transaction) {
	if uc.notifier == nil || uc.userRepo == nil {
		return
	}

	user, err := uc.userRepo.FindByID(ctx, template.UserID)
	if err != nil {
		slog.Warn("Failed to load user for recurring notice",
			"userID", template.UserID,
			"error", err,
		)
		return
	}

	err = uc.notifier.NotifyRecurringPosted(ctx, adapter.RecurringPostedNotice{
		UserEmail:   user.Email,
		UserName:    user.Name,
		Description: occurrence.Description,
		Amount:      occurrence.Amount,
		Type:        string(occurrence.Type),
		PostedOn:    occurrence.Date,
		NextDate:    template.NextRecurringDate,
	})
	if err != nil {
		slog.Warn("Failed to send recurring notice",
			"userID", template.UserID,
			"transactionID", occurrence.ID,
			"error", err,
		)
	}
}
