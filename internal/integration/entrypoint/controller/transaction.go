package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/finance-tracker/ledger-api/internal/application/usecase/transaction"
	"github.com/finance-tracker/ledger-api/internal/domain/entity"
	domainerror "github.com/finance-tracker/ledger-api/internal/domain/error"
	"github.com/finance-tracker/ledger-api/internal/domain/valueobject"
	"github.com/finance-tracker/ledger-api/internal/integration/entrypoint/dto"
	"github.com/finance-tracker/ledger-api/internal/integration/entrypoint/middleware"
)

// TransactionController handles transaction endpoints.
// The caller identity is passed through unchecked; the use cases reject a missing one.
type TransactionController struct {
	listUseCase       *transaction.ListTransactionsUseCase
	getUseCase        *transaction.GetTransactionUseCase
	createUseCase     *transaction.CreateTransactionUseCase
	updateUseCase     *transaction.UpdateTransactionUseCase
	bulkDeleteUseCase *transaction.BulkDeleteTransactionsUseCase
}

// NewTransactionController creates a new transaction controller instance.
func NewTransactionController(
	listUseCase *transaction.ListTransactionsUseCase,
	getUseCase *transaction.GetTransactionUseCase,
	createUseCase *transaction.CreateTransactionUseCase,
	updateUseCase *transaction.UpdateTransactionUseCase,
	bulkDeleteUseCase *transaction.BulkDeleteTransactionsUseCase,
) *TransactionController {
	return &TransactionController{
		listUseCase:       listUseCase,
		getUseCase:        getUseCase,
		createUseCase:     createUseCase,
		updateUseCase:     updateUseCase,
		bulkDeleteUseCase: bulkDeleteUseCase,
	}
}

// List handles GET /transactions requests.
func (c *TransactionController) List(ctx *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(ctx)
	input := transaction.ListTransactionsInput{UserID: userID}

	if accountIDStr := ctx.Query("account_id"); accountIDStr != "" {
		accountID, err := uuid.Parse(accountIDStr)
		if err != nil {
			badRequest(ctx, "Invalid account_id", string(domainerror.ErrCodeTxnAccountNotFound))
			return
		}
		input.AccountID = &accountID
	}

	if typeStr := ctx.Query("type"); typeStr != "" {
		txnType := entity.TransactionType(typeStr)
		if !txnType.IsValid() {
			badRequest(ctx, "type must be 'INCOME' or 'EXPENSE'", string(domainerror.ErrCodeInvalidTransactionType))
			return
		}
		input.Type = &txnType
	}

	if category, ok := ctx.GetQuery("category"); ok {
		input.Category = &category
	}

	if recurringStr := ctx.Query("is_recurring"); recurringStr != "" {
		isRecurring, err := strconv.ParseBool(recurringStr)
		if err != nil {
			badRequest(ctx, "is_recurring must be a boolean", string(domainerror.ErrCodeMissingTransactionFields))
			return
		}
		input.IsRecurring = &isRecurring
	}

	output, err := c.listUseCase.Execute(ctx.Request.Context(), input)
	if err != nil {
		respondError(ctx, "list_transactions", err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToTransactionListResponse(output))
}

// Get handles GET /transactions/:id requests.
func (c *TransactionController) Get(ctx *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(ctx)
	id, ok := pathID(ctx, string(domainerror.ErrCodeTransactionNotFound))
	if !ok {
		return
	}

	output, err := c.getUseCase.Execute(ctx.Request.Context(), transaction.GetTransactionInput{
		ID:     id,
		UserID: userID,
	})
	if err != nil {
		respondError(ctx, "get_transaction", err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToTransactionResponse(output.Transaction))
}

// Create handles POST /transactions requests.
func (c *TransactionController) Create(ctx *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(ctx)

	var req dto.CreateTransactionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "Invalid request body: "+err.Error(), string(domainerror.ErrCodeMissingTransactionFields))
		return
	}

	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		badRequest(ctx, "Invalid account_id", string(domainerror.ErrCodeTxnAccountNotFound))
		return
	}

	date, err := dto.ParseDate(req.Date)
	if err != nil {
		badRequest(ctx, "Invalid date format. Use YYYY-MM-DD", string(domainerror.ErrCodeInvalidTransactionDate))
		return
	}

	output, err := c.createUseCase.Execute(ctx.Request.Context(), transaction.CreateTransactionInput{
		UserID:            userID,
		AccountID:         accountID,
		Type:              entity.TransactionType(req.Type),
		Amount:            *req.Amount,
		Date:              date,
		Description:       req.Description,
		Category:          req.Category,
		IsRecurring:       req.IsRecurring,
		RecurringInterval: toInterval(req.RecurringInterval),
	})
	if err != nil {
		respondError(ctx, "create_transaction", err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.ToTransactionResponse(output.Transaction))
}

// Update handles PATCH /transactions/:id requests.
func (c *TransactionController) Update(ctx *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(ctx)
	id, ok := pathID(ctx, string(domainerror.ErrCodeTransactionNotFound))
	if !ok {
		return
	}

	var req dto.UpdateTransactionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "Invalid request body: "+err.Error(), string(domainerror.ErrCodeMissingTransactionFields))
		return
	}

	input := transaction.UpdateTransactionInput{
		ID:                id,
		UserID:            userID,
		Amount:            req.Amount,
		Description:       req.Description,
		Category:          req.Category,
		IsRecurring:       req.IsRecurring,
		RecurringInterval: toInterval(req.RecurringInterval),
	}

	if req.AccountID != nil {
		accountID, err := uuid.Parse(*req.AccountID)
		if err != nil {
			badRequest(ctx, "Invalid account_id", string(domainerror.ErrCodeTxnAccountNotFound))
			return
		}
		input.AccountID = &accountID
	}

	if req.Type != nil {
		txnType := entity.TransactionType(*req.Type)
		input.Type = &txnType
	}

	if req.Date != nil {
		date, err := dto.ParseDate(*req.Date)
		if err != nil {
			badRequest(ctx, "Invalid date format. Use YYYY-MM-DD", string(domainerror.ErrCodeInvalidTransactionDate))
			return
		}
		input.Date = &date
	}

	output, err := c.updateUseCase.Execute(ctx.Request.Context(), input)
	if err != nil {
		respondError(ctx, "update_transaction", err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToTransactionResponse(output.Transaction))
}

// BulkDelete handles POST /transactions/bulk-delete requests.
func (c *TransactionController) BulkDelete(ctx *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(ctx)

	var req dto.BulkDeleteTransactionsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "Invalid request body: "+err.Error(), string(domainerror.ErrCodeEmptyTransactionIDs))
		return
	}

	ids := make([]uuid.UUID, 0, len(req.IDs))
	for _, idStr := range req.IDs {
		id, err := uuid.Parse(idStr)
		if err != nil {
			badRequest(ctx, "Invalid transaction ID: "+idStr, string(domainerror.ErrCodeTransactionIDsNotFound))
			return
		}
		ids = append(ids, id)
	}

	output, err := c.bulkDeleteUseCase.Execute(ctx.Request.Context(), transaction.BulkDeleteTransactionsInput{
		TransactionIDs: ids,
		UserID:         userID,
	})
	if err != nil {
		respondError(ctx, "bulk_delete_transactions", err)
		return
	}

	ctx.JSON(http.StatusOK, dto.BulkDeleteTransactionsResponse{
		DeletedCount: output.DeletedCount,
	})
}

func toInterval(value *string) *valueobject.RecurringInterval {
	if value == nil || *value == "" {
		return nil
	}
	interval := valueobject.RecurringInterval(*value)
	return &interval
}
