package controller

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	domainerror "github.com/finance-tracker/ledger-api/internal/domain/error"
	"github.com/finance-tracker/ledger-api/internal/integration/entrypoint/dto"
)

const internalErrorMessage = "An internal error occurred"

// respondError maps a use case error onto an HTTP response. Only the concise
// domain message reaches the caller; the full error chain is logged.
func respondError(ctx *gin.Context, operation string, err error) {
	status, code, message := classifyError(err)

	attrs := []any{
		"operation", operation,
		"status", status,
		"code", code,
		"error", err,
	}
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", attrs...)
	} else {
		slog.Warn("Request rejected", attrs...)
	}

	var gateErr *domainerror.GateError
	if errors.As(err, &gateErr) && status == http.StatusTooManyRequests && !gateErr.ResetAt.IsZero() {
		seconds := int(time.Until(gateErr.ResetAt).Seconds()) + 1
		if seconds > 0 {
			ctx.Header("Retry-After", strconv.Itoa(seconds))
		}
	}

	ctx.JSON(status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// classifyError returns the HTTP status, error code and caller-facing message for err.
func classifyError(err error) (int, string, string) {
	var txnErr *domainerror.TransactionError
	if errors.As(err, &txnErr) {
		return transactionStatus(txnErr.Code), string(txnErr.Code), txnErr.Message
	}

	var accErr *domainerror.AccountError
	if errors.As(err, &accErr) {
		return accountStatus(accErr.Code), string(accErr.Code), accErr.Message
	}

	var gateErr *domainerror.GateError
	if errors.As(err, &gateErr) {
		if gateErr.Code == domainerror.ErrCodeGateRateLimited {
			return http.StatusTooManyRequests, string(gateErr.Code), gateErr.Message
		}
		return http.StatusForbidden, string(gateErr.Code), gateErr.Message
	}

	var rcpErr *domainerror.ReceiptError
	if errors.As(err, &rcpErr) {
		return receiptStatus(rcpErr.Code), string(rcpErr.Code), rcpErr.Message
	}

	var authErr *domainerror.AuthError
	if errors.As(err, &authErr) {
		return authStatus(authErr.Code), string(authErr.Code), authErr.Message
	}

	return http.StatusInternalServerError, "", internalErrorMessage
}

func transactionStatus(code domainerror.TransactionErrorCode) int {
	switch code {
	case domainerror.ErrCodeInvalidTransactionType,
		domainerror.ErrCodeInvalidTransactionDate,
		domainerror.ErrCodeInvalidTransactionAmount,
		domainerror.ErrCodeInvalidRecurringInterval,
		domainerror.ErrCodeDescriptionTooLong,
		domainerror.ErrCodeMissingTransactionFields,
		domainerror.ErrCodeEmptyTransactionIDs:
		return http.StatusBadRequest
	case domainerror.ErrCodeTransactionNotFound,
		domainerror.ErrCodeTxnAccountNotFound,
		domainerror.ErrCodeTxnUserNotFound,
		domainerror.ErrCodeTransactionIDsNotFound:
		return http.StatusNotFound
	case domainerror.ErrCodeTxnUnauthenticated:
		return http.StatusUnauthorized
	case domainerror.ErrCodeConcurrentModification:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func accountStatus(code domainerror.AccountErrorCode) int {
	switch code {
	case domainerror.ErrCodeInvalidAccountName, domainerror.ErrCodeInvalidAccountType, domainerror.ErrCodeInvalidOpeningBalance:
		return http.StatusBadRequest
	case domainerror.ErrCodeAccountNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func receiptStatus(code domainerror.ReceiptErrorCode) int {
	switch code {
	case domainerror.ErrCodeEmptyReceipt:
		return http.StatusBadRequest
	case domainerror.ErrCodeReceiptTooLarge:
		return http.StatusRequestEntityTooLarge
	case domainerror.ErrCodeAINotConfigured:
		return http.StatusServiceUnavailable
	case domainerror.ErrCodeExtractionFailed, domainerror.ErrCodeInvalidReceiptReply:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func authStatus(code domainerror.AuthErrorCode) int {
	switch code {
	case domainerror.ErrCodeEmailExists:
		return http.StatusConflict
	case domainerror.ErrCodeWeakPassword,
		domainerror.ErrCodeInvalidEmail,
		domainerror.ErrCodeMissingFields:
		return http.StatusBadRequest
	case domainerror.ErrCodeInvalidCredentials,
		domainerror.ErrCodeInvalidToken,
		domainerror.ErrCodeExpiredToken,
		domainerror.ErrCodeMissingToken:
		return http.StatusUnauthorized
	case domainerror.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// badRequest rejects a malformed request before it reaches a use case.
func badRequest(ctx *gin.Context, message, code string) {
	ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}
