package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/SscSPs/payment_ledger_app/internal/apperrors"
	portssvc "github.com/SscSPs/payment_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/payment_ledger_app/internal/core/services"
	"github.com/SscSPs/payment_ledger_app/internal/dto"
	"github.com/SscSPs/payment_ledger_app/internal/metrics"
	"github.com/SscSPs/payment_ledger_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// transactionHandler handles HTTP requests related to ledger transactions.
type transactionHandler struct {
	txnService portssvc.TransactionSvcFacade
}

// newTransactionHandler creates a new transactionHandler.
func newTransactionHandler(txnService portssvc.TransactionSvcFacade) *transactionHandler {
	return &transactionHandler{
		txnService: txnService,
	}
}

// RegisterTransactionRoutes registers transaction routes, including the
// escrow lifecycle routes nested under a specific transaction.
func RegisterTransactionRoutes(rg *gin.RouterGroup, txnService portssvc.TransactionSvcFacade, escrowService portssvc.EscrowSvcFacade) {
	h := newTransactionHandler(txnService)

	txns := rg.Group("/transactions")
	{
		txns.POST("", h.createTransaction)
		txns.GET("", h.listTransactions)
		txns.POST("/verify", h.verifyTransaction)
		txns.GET("/:transactionID", h.getTransaction)
		txns.POST("/:transactionID/complete", h.completeTransaction)
		txns.POST("/:transactionID/refund", h.refundTransaction)
	}

	registerEscrowRoutes(txns, escrowService)
}

// createTransaction godoc
// @Summary Create a transaction
// @Description Opens a payment intent with the named gateway and persists a pending ledger transaction with its commission snapshot. A zero-amount request creates nothing.
// @Tags transactions
// @Accept json
// @Produce json
// @Param transaction body dto.CreateTransactionRequest true "Transaction details"
// @Success 201 {object} dto.CreateTransactionResponse
// @Success 200 {object} dto.CreateTransactionResponse "Zero-amount request, nothing created"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} map[string]string "Idempotency key already used with a different payload"
// @Failure 502 {object} map[string]string "Payment gateway failure"
// @Security BearerAuth
// @Router /transactions [post]
func (h *transactionHandler) createTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateTransaction", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actorID, ok := middleware.GetActorIDFromContext(c)
	if !ok {
		logger.Error("Actor ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	txn, intent, err := h.txnService.CreateTransaction(c.Request.Context(), req, actorID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) || errors.Is(err, services.ErrUnknownGateway) {
			logger.Warn("Validation error creating transaction", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else if errors.Is(err, apperrors.ErrDuplicate) {
			logger.Warn("Idempotency conflict creating transaction", slog.String("error", err.Error()))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		} else if errors.Is(err, apperrors.ErrProvider) {
			logger.Error("Gateway error creating transaction", slog.String("error", err.Error()))
			c.JSON(http.StatusBadGateway, gin.H{"error": "Payment gateway error"})
		} else {
			logger.Error("Failed to create transaction", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create transaction"})
		}
		return
	}

	if txn == nil {
		// Zero-amount request: nothing was charged and nothing was recorded.
		c.JSON(http.StatusOK, dto.CreateTransactionResponse{})
		return
	}

	metrics.RecordTransactionCreated(txn.Gateway, string(txn.Direction))
	logger.Info("Transaction created", slog.String("transaction_id", txn.TransactionID), slog.String("gateway", txn.Gateway))

	txnResp := dto.ToTransactionResponse(txn)
	c.JSON(http.StatusCreated, dto.CreateTransactionResponse{
		Transaction: &txnResp,
		Payment:     dto.ToPaymentIntentResponse(intent),
	})
}

// getTransaction godoc
// @Summary Get a transaction
// @Description Retrieves a ledger transaction with its commission, escrow and split state.
// @Tags transactions
// @Produce json
// @Param transactionID path string true "Transaction ID"
// @Success 200 {object} dto.TransactionResponse
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 500 {object} map[string]string "Failed to retrieve transaction"
// @Security BearerAuth
// @Router /transactions/{transactionID} [get]
func (h *transactionHandler) getTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transactionID := c.Param("transactionID")

	txn, err := h.txnService.GetTransactionByID(c.Request.Context(), transactionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
			return
		}
		logger.Error("Failed to get transaction", slog.String("error", err.Error()), slog.String("transaction_id", transactionID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve transaction"})
		return
	}

	c.JSON(http.StatusOK, dto.ToTransactionResponse(txn))
}

// listTransactions godoc
// @Summary List transactions
// @Description Retrieves a page of transactions, newest first, optionally filtered by category or status.
// @Tags transactions
// @Produce json
// @Param limit query int false "Page size (default 20)"
// @Param nextToken query string false "Opaque pagination token from a previous page"
// @Param category query string false "Filter by category"
// @Param status query string false "Filter by status"
// @Success 200 {object} dto.ListTransactionsResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Failure 500 {object} map[string]string "Failed to list transactions"
// @Security BearerAuth
// @Router /transactions [get]
func (h *transactionHandler) listTransactions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.ListTransactionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	page, err := h.txnService.ListTransactions(c.Request.Context(), params)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Failed to list transactions", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list transactions"})
		return
	}

	c.JSON(http.StatusOK, page)
}

// verifyTransaction godoc
// @Summary Verify a transaction against its gateway
// @Description Resolves a transaction by gateway session or payment-intent ID and applies the provider's authoritative payment result. Safe to retry.
// @Tags transactions
// @Accept json
// @Produce json
// @Param identifiers body dto.VerifyTransactionRequest true "Gateway identifiers"
// @Success 200 {object} dto.TransactionResponse
// @Failure 400 {object} map[string]string "No gateway identifier supplied"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "No transaction matches the identifiers"
// @Failure 409 {object} map[string]string "Provider result contradicts the stored transaction"
// @Failure 502 {object} map[string]string "Payment gateway failure"
// @Security BearerAuth
// @Router /transactions/verify [post]
func (h *transactionHandler) verifyTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.VerifyTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actorID, ok := middleware.GetActorIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	txn, err := h.txnService.VerifyTransaction(c.Request.Context(), req.SessionID, req.PaymentIntentID, actorID, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingGatewayRef):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
		case errors.Is(err, services.ErrAmountMismatch), errors.Is(err, services.ErrCurrencyMismatch), errors.Is(err, apperrors.ErrConflict):
			logger.Warn("Verification conflict", slog.String("error", err.Error()))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrProvider):
			logger.Error("Gateway error verifying transaction", slog.String("error", err.Error()))
			c.JSON(http.StatusBadGateway, gin.H{"error": "Payment gateway error"})
		default:
			logger.Error("Failed to verify transaction", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify transaction"})
		}
		return
	}

	logger.Info("Transaction verified", slog.String("transaction_id", txn.TransactionID), slog.String("status", string(txn.Status)))
	c.JSON(http.StatusOK, dto.ToTransactionResponse(txn))
}

// completeTransaction godoc
// @Summary Complete a verified transaction
// @Description Marks a verified transaction as completed, meaning the underlying obligation was fulfilled. Completing twice is a no-op.
// @Tags transactions
// @Produce json
// @Param transactionID path string true "Transaction ID"
// @Success 200 {object} dto.TransactionResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 409 {object} map[string]string "Transaction is not verified"
// @Security BearerAuth
// @Router /transactions/{transactionID}/complete [post]
func (h *transactionHandler) completeTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transactionID := c.Param("transactionID")

	actorID, ok := middleware.GetActorIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	txn, err := h.txnService.CompleteTransaction(c.Request.Context(), transactionID, actorID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
		} else if errors.Is(err, apperrors.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to complete transaction", slog.String("error", err.Error()), slog.String("transaction_id", transactionID))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to complete transaction"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToTransactionResponse(txn))
}

// refundTransaction godoc
// @Summary Refund a transaction
// @Description Refunds part or all of a refundable transaction through its gateway. The refund is recorded as a separate expense transaction; the original row keeps its amount.
// @Tags transactions
// @Accept json
// @Produce json
// @Param transactionID path string true "Transaction ID"
// @Param refund body dto.RefundTransactionRequest true "Refund amount, omit for full refund"
// @Success 201 {object} dto.TransactionResponse "The refund transaction"
// @Failure 400 {object} map[string]string "Refund exceeds the refundable balance"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 409 {object} map[string]string "Transaction not refundable or blocked by an active hold"
// @Failure 422 {object} map[string]string "Gateway does not support this refund"
// @Failure 502 {object} map[string]string "Payment gateway failure"
// @Security BearerAuth
// @Router /transactions/{transactionID}/refund [post]
func (h *transactionHandler) refundTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transactionID := c.Param("transactionID")

	// An empty body means a full refund.
	var req dto.RefundTransactionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
			return
		}
	}

	actorID, ok := middleware.GetActorIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	refund, err := h.txnService.RefundTransaction(c.Request.Context(), transactionID, req.Amount, req.Reason, actorID, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
		case errors.Is(err, services.ErrRefundExceedsBalance), errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrNotRefundable), errors.Is(err, services.ErrRefundBlockedByHold), errors.Is(err, apperrors.ErrConflict):
			logger.Warn("Refund rejected", slog.String("error", err.Error()), slog.String("transaction_id", transactionID))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrUnsupported):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrProvider):
			logger.Error("Gateway error refunding transaction", slog.String("error", err.Error()), slog.String("transaction_id", transactionID))
			c.JSON(http.StatusBadGateway, gin.H{"error": "Payment gateway error"})
		default:
			logger.Error("Failed to refund transaction", slog.String("error", err.Error()), slog.String("transaction_id", transactionID))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to refund transaction"})
		}
		return
	}

	metrics.RecordRefund()
	logger.Info("Transaction refunded", slog.String("transaction_id", transactionID), slog.String("refund_id", refund.TransactionID))
	c.JSON(http.StatusCreated, dto.ToTransactionResponse(refund))
}
