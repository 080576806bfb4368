package receipt

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/finance-tracker/ledger-api/internal/application/adapter"
	"github.com/finance-tracker/ledger-api/internal/application/usecase/access"
	"github.com/finance-tracker/ledger-api/internal/domain/entity"
	domainerror "github.com/finance-tracker/ledger-api/internal/domain/error"
)

// DefaultMimeType is assumed when the upload declares no content type.
const DefaultMimeType = "image/jpeg"

// MaxImageSize is the largest receipt image accepted, in bytes.
const MaxImageSize = 5 << 20

// scanFailedMessage is the only failure text shown to callers.
const scanFailedMessage = "failed to scan receipt"

// ScanReceiptInput represents the input for a receipt scan.
type ScanReceiptInput struct {
	UserID   uuid.UUID
	Image    []byte
	MimeType string
}

// ScanReceiptOutput carries the suggested transaction fields.
type ScanReceiptOutput struct {
	Scan *entity.ReceiptScan
}

// ScanReceiptUseCase extracts a suggested transaction from a receipt image.
// It never writes to the ledger.
type ScanReceiptUseCase struct {
	extractor adapter.ReceiptExtractor
	gate      adapter.AdmissionGate
	now       func() time.Time
}

// NewScanReceiptUseCase creates a new ScanReceiptUseCase instance.
// extractor is nil when no AI credential is configured.
func NewScanReceiptUseCase(extractor adapter.ReceiptExtractor, gate adapter.AdmissionGate) *ScanReceiptUseCase {
	return &ScanReceiptUseCase{
		extractor: extractor,
		gate:      gate,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Execute performs the receipt scan.
func (uc *ScanReceiptUseCase) Execute(ctx context.Context, input ScanReceiptInput) (*ScanReceiptOutput, error) {
	if len(input.Image) == 0 {
		return nil, domainerror.NewReceiptError(
			domainerror.ErrCodeEmptyReceipt,
			"receipt image is required",
			domainerror.ErrEmptyReceipt,
		)
	}
	if len(input.Image) > MaxImageSize {
		return nil, domainerror.NewReceiptError(
			domainerror.ErrCodeReceiptTooLarge,
			"receipt image must not exceed 5MB",
			domainerror.ErrReceiptTooLarge,
		)
	}

	if uc.extractor == nil {
		slog.Error("Receipt scan requested but AI service is not configured", "userID", input.UserID)
		return nil, domainerror.NewReceiptError(
			domainerror.ErrCodeAINotConfigured,
			scanFailedMessage,
			domainerror.ErrAIServiceNotConfigured,
		)
	}

	if err := access.Admit(ctx, uc.gate, input.UserID, 1); err != nil {
		return nil, err
	}

	mimeType := input.MimeType
	if mimeType == "" {
		mimeType = DefaultMimeType
	}

	reply, err := uc.extractor.ExtractText(ctx, input.Image, mimeType)
	if err != nil {
		slog.Error("Receipt extraction failed",
			"userID", input.UserID,
			"mimeType", mimeType,
			"size", len(input.Image),
			"error", err,
		)
		return nil, domainerror.NewReceiptError(
			domainerror.ErrCodeExtractionFailed,
			scanFailedMessage,
			domainerror.ErrReceiptExtractionFailed,
		)
	}

	scan, err := ParseReceiptReply(reply, uc.now())
	if err != nil {
		slog.Error("Receipt reply could not be parsed",
			"userID", input.UserID,
			"reply", reply,
			"error", err,
		)
		return nil, domainerror.NewReceiptError(
			domainerror.ErrCodeInvalidReceiptReply,
			scanFailedMessage,
			domainerror.ErrInvalidReceiptReply,
		)
	}

	return &ScanReceiptOutput{Scan: scan}, nil
}
