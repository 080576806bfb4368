package controller

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"github.com/finance-tracker/ledger-api/internal/application/usecase/receipt"
	domainerror "github.com/finance-tracker/ledger-api/internal/domain/error"
	"github.com/finance-tracker/ledger-api/internal/integration/entrypoint/dto"
)

// receiptFormField is the multipart field carrying the receipt image.
const receiptFormField = "file"

// multipartOverhead is the body allowance above the image size for multipart framing.
const multipartOverhead = 64 << 10

// ReceiptController handles receipt scanning.
type ReceiptController struct {
	scanUseCase *receipt.ScanReceiptUseCase
}

// NewReceiptController creates a new receipt controller instance.
func NewReceiptController(scanUseCase *receipt.ScanReceiptUseCase) *ReceiptController {
	return &ReceiptController{
		scanUseCase: scanUseCase,
	}
}

// Scan handles POST /receipts/scan requests.
func (c *ReceiptController) Scan(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, receipt.MaxImageSize+multipartOverhead)

	fileHeader, err := ctx.FormFile(receiptFormField)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			tooLarge(ctx)
			return
		}
		badRequest(ctx, "No file uploaded", string(domainerror.ErrCodeEmptyReceipt))
		return
	}
	if fileHeader.Size > receipt.MaxImageSize {
		tooLarge(ctx)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(ctx, "scan_receipt", err)
		return
	}
	defer file.Close()

	image, err := io.ReadAll(io.LimitReader(file, receipt.MaxImageSize+1))
	if err != nil {
		respondError(ctx, "scan_receipt", err)
		return
	}

	output, err := c.scanUseCase.Execute(ctx.Request.Context(), receipt.ScanReceiptInput{
		UserID:   userID,
		Image:    image,
		MimeType: detectMimeType(fileHeader.Header.Get("Content-Type"), image),
	})
	if err != nil {
		respondError(ctx, "scan_receipt", err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToReceiptScanResponse(output.Scan))
}

// detectMimeType prefers the declared part type and sniffs the bytes otherwise.
// An empty result lets the use case apply its default.
func detectMimeType(declared string, data []byte) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if len(data) == 0 {
		return ""
	}

	detected := mimetype.Detect(data)
	if detected.Is("application/octet-stream") {
		return ""
	}
	mediaType, _, _ := strings.Cut(detected.String(), ";")
	return strings.TrimSpace(mediaType)
}

func tooLarge(ctx *gin.Context) {
	ctx.JSON(http.StatusRequestEntityTooLarge, dto.ErrorResponse{
		Error: "receipt image exceeds 5MB",
		Code:  string(domainerror.ErrCodeReceiptTooLarge),
	})
}

