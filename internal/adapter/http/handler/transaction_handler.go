package handler

import (
	"strconv"
	"time"

	"peerpay-settlement/internal/adapter/http/dto"
	"peerpay-settlement/internal/core/domain"
	"peerpay-settlement/internal/core/ports"
	"peerpay-settlement/pkg/apperror"
	"peerpay-settlement/pkg/response"

	"github.com/gin-gonic/gin"
)

// TransactionHandler handles transaction lifecycle endpoints.
type TransactionHandler struct {
	settlements ports.SettlementService
	ledger      ports.LedgerService
	txRepo      ports.TransactionRepository
	subRepo     ports.SubscriptionRepository
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(
	settlements ports.SettlementService,
	ledger ports.LedgerService,
	txRepo ports.TransactionRepository,
	subRepo ports.SubscriptionRepository,
) *TransactionHandler {
	return &TransactionHandler{settlements: settlements, ledger: ledger, txRepo: txRepo, subRepo: subRepo}
}

// Create handles POST /api/v1/transactions.
func (h *TransactionHandler) Create(c *gin.Context) {
	var req dto.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	create := ports.CreateTransactionRequest{
		Kind:       domain.TransactionKind(req.Kind),
		SenderID:   req.SenderID,
		ReceiverID: req.ReceiverID,
		Amount:     req.Amount,
		Currency:   req.Currency,
		Method:     domain.PaymentMethod(req.Method),
		PayerRef:   req.PayerRef,
		Notes:      req.Notes,
	}
	if req.PlanType != nil {
		plan := domain.PlanType(*req.PlanType)
		create.PlanType = &plan
	}

	result, err := h.settlements.Create(c.Request.Context(), create)
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := dto.CreateTransactionResponse{Transaction: toTransactionResponse(result.Transaction)}
	if result.Initiation != nil {
		resp.RedirectURL = result.Initiation.RedirectURL
		resp.FormFields = result.Initiation.FormFields
	}
	response.Created(c, resp)
}

// Get handles GET /api/v1/transactions/:reference.
func (h *TransactionHandler) Get(c *gin.Context) {
	txn, err := h.txRepo.GetByReference(c.Request.Context(), c.Param("reference"))
	if err != nil {
		response.Error(c, apperror.InternalError(err))
		return
	}
	if txn == nil {
		response.Error(c, apperror.ErrNotFound("transaction"))
		return
	}
	response.OK(c, toTransactionResponse(txn))
}

// VerifyReturn handles GET /api/v1/payments/return. The provider redirects
// the paying user here; it races the async webhook and either side may win.
func (h *TransactionHandler) VerifyReturn(c *gin.Context) {
	referenceID := c.Query("reference_id")
	if referenceID == "" {
		response.Error(c, apperror.Validation("reference_id is required"))
		return
	}

	txn, err := h.settlements.Verify(c.Request.Context(), referenceID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toTransactionResponse(txn))
}

// Cancel handles POST /api/v1/transactions/:reference/cancel.
func (h *TransactionHandler) Cancel(c *gin.Context) {
	txn, err := h.settlements.Cancel(c.Request.Context(), c.Param("reference"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toTransactionResponse(txn))
}

// Refund handles POST /api/v1/transactions/:reference/refund.
func (h *TransactionHandler) Refund(c *gin.Context) {
	var req dto.RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	txn, err := h.settlements.Refund(c.Request.Context(), c.Param("reference"), req.Amount, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toTransactionResponse(txn))
}

// GetBalance handles GET /api/v1/users/:id/balance.
func (h *TransactionHandler) GetBalance(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || userID <= 0 {
		response.Error(c, apperror.Validation("user id must be a positive integer"))
		return
	}

	bal, err := h.ledger.GetBalance(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.BalanceResponse{UserID: bal.UserID, Amount: bal.Amount, Currency: bal.Currency})
}

// GetSubscription handles GET /api/v1/users/:id/subscription.
func (h *TransactionHandler) GetSubscription(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || userID <= 0 {
		response.Error(c, apperror.Validation("user id must be a positive integer"))
		return
	}

	sub, err := h.subRepo.GetActive(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, apperror.InternalError(err))
		return
	}
	if sub == nil {
		response.Error(c, apperror.ErrNotFound("subscription"))
		return
	}
	response.OK(c, dto.SubscriptionResponse{
		ID:        sub.ID.String(),
		UserID:    sub.UserID,
		PlanType:  string(sub.PlanType),
		Status:    string(sub.Status),
		StartDate: sub.StartDate.Format(time.RFC3339),
		EndDate:   sub.EndDate.Format(time.RFC3339),
	})
}

// toTransactionResponse converts domain.Transaction to DTO.
func toTransactionResponse(tx *domain.Transaction) dto.TransactionResponse {
	resp := dto.TransactionResponse{
		ID:            tx.ID.String(),
		ReferenceID:   tx.ReferenceID,
		SenderID:      tx.SenderID,
		ReceiverID:    tx.ReceiverID,
		Amount:        tx.Amount,
		Currency:      tx.Currency,
		Kind:          string(tx.Kind),
		Status:        string(tx.Status),
		Method:        string(tx.Method),
		ProviderTxnID: tx.ProviderTxnID,
		CreatedAt:     tx.CreatedAt.Format(time.RFC3339),
	}
	if tx.PlanType != nil {
		p := string(*tx.PlanType)
		resp.PlanType = &p
	}
	if tx.SettledAt != nil {
		s := tx.SettledAt.Format(time.RFC3339)
		resp.SettledAt = &s
	}
	return resp
}
