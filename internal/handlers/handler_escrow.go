package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/SscSPs/payment_ledger_app/internal/apperrors"
	"github.com/SscSPs/payment_ledger_app/internal/core/domain"
	portssvc "github.com/SscSPs/payment_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/payment_ledger_app/internal/core/services"
	"github.com/SscSPs/payment_ledger_app/internal/dto"
	"github.com/SscSPs/payment_ledger_app/internal/metrics"
	"github.com/SscSPs/payment_ledger_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// escrowHandler handles HTTP requests for the escrow hold lifecycle.
type escrowHandler struct {
	escrowService portssvc.EscrowSvcFacade
}

// newEscrowHandler creates a new escrowHandler.
func newEscrowHandler(escrowService portssvc.EscrowSvcFacade) *escrowHandler {
	return &escrowHandler{
		escrowService: escrowService,
	}
}

// registerEscrowRoutes registers the escrow routes nested under a transaction.
func registerEscrowRoutes(txns *gin.RouterGroup, escrowService portssvc.EscrowSvcFacade) {
	h := newEscrowHandler(escrowService)

	escrow := txns.Group("/:transactionID/escrow")
	{
		escrow.POST("/hold", h.holdFunds)
		escrow.POST("/split", h.splitFunds)
		escrow.POST("/release", h.releaseFunds)
		escrow.POST("/cancel", h.cancelHold)
	}
}

// respondEscrowError maps escrow service errors to HTTP responses. The four
// escrow operations share one error surface, so the mapping lives here once.
func respondEscrowError(c *gin.Context, logger *slog.Logger, err error, transactionID string) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
	case errors.Is(err, apperrors.ErrValidation), errors.Is(err, services.ErrReleaseExceedsHeld):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotHoldable), errors.Is(err, services.ErrAlreadyHeld),
		errors.Is(err, services.ErrNoActiveHold), errors.Is(err, apperrors.ErrConflict):
		logger.Warn("Escrow operation rejected", slog.String("error", err.Error()), slog.String("transaction_id", transactionID))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Error("Escrow operation failed", slog.String("error", err.Error()), slog.String("transaction_id", transactionID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Escrow operation failed"})
	}
}

// holdFunds godoc
// @Summary Place a transaction's funds on hold
// @Description Places the full amount of a verified transaction in escrow. The optional holdUntil is advisory only.
// @Tags escrow
// @Accept json
// @Produce json
// @Param transactionID path string true "Transaction ID"
// @Param hold body dto.HoldFundsRequest true "Hold details"
// @Success 200 {object} dto.TransactionResponse
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 409 {object} map[string]string "Transaction not holdable or already held"
// @Security BearerAuth
// @Router /transactions/{transactionID}/escrow/hold [post]
func (h *escrowHandler) holdFunds(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transactionID := c.Param("transactionID")

	var req dto.HoldFundsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actorID, ok := middleware.GetActorIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	txn, err := h.escrowService.HoldFunds(c.Request.Context(), transactionID, req.Reason, req.HoldUntil, actorID, time.Now().UTC())
	if err != nil {
		respondEscrowError(c, logger, err, transactionID)
		return
	}

	metrics.RecordEscrowOperation("hold")
	logger.Info("Funds held", slog.String("transaction_id", transactionID))
	c.JSON(http.StatusOK, dto.ToTransactionResponse(txn))
}

// splitFunds godoc
// @Summary Split held funds across recipients
// @Description Allocates held funds across recipients by rate. Each non-organization share is recorded as its own income transaction; the remainder stays with the organization.
// @Tags escrow
// @Accept json
// @Produce json
// @Param transactionID path string true "Transaction ID"
// @Param split body dto.SplitFundsRequest true "Split rules"
// @Success 200 {object} dto.SplitFundsResponse
// @Failure 400 {object} map[string]string "Invalid rules or rates exceed 100%"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 409 {object} map[string]string "No active hold"
// @Security BearerAuth
// @Router /transactions/{transactionID}/escrow/split [post]
func (h *escrowHandler) splitFunds(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transactionID := c.Param("transactionID")

	var req dto.SplitFundsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actorID, ok := middleware.GetActorIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	rules := make([]domain.SplitRule, len(req.Rules))
	for i, r := range req.Rules {
		rules[i] = domain.SplitRule{
			Type:          r.Type,
			RecipientID:   r.RecipientID,
			RecipientType: r.RecipientType,
			Rate:          r.Rate,
		}
	}

	txn, orgPayout, err := h.escrowService.SplitFunds(c.Request.Context(), transactionID, rules, actorID, time.Now().UTC())
	if err != nil {
		respondEscrowError(c, logger, err, transactionID)
		return
	}

	metrics.RecordEscrowOperation("split")
	logger.Info("Held funds split", slog.String("transaction_id", transactionID), slog.Int("rules", len(rules)))
	c.JSON(http.StatusOK, dto.SplitFundsResponse{
		Transaction:        dto.ToTransactionResponse(txn),
		OrganizationPayout: orgPayout,
	})
}

// releaseFunds godoc
// @Summary Release held funds to a recipient
// @Description Pays out part or all of the held balance to one recipient. Omitting the amount releases the full remaining balance.
// @Tags escrow
// @Accept json
// @Produce json
// @Param transactionID path string true "Transaction ID"
// @Param release body dto.ReleaseFundsRequest true "Release details"
// @Success 200 {object} dto.TransactionResponse
// @Failure 400 {object} map[string]string "Release exceeds the held balance"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 409 {object} map[string]string "No active hold"
// @Security BearerAuth
// @Router /transactions/{transactionID}/escrow/release [post]
func (h *escrowHandler) releaseFunds(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transactionID := c.Param("transactionID")

	var req dto.ReleaseFundsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actorID, ok := middleware.GetActorIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	txn, err := h.escrowService.ReleaseFunds(c.Request.Context(), transactionID, req.RecipientID, req.RecipientType, req.Amount, actorID, time.Now().UTC())
	if err != nil {
		respondEscrowError(c, logger, err, transactionID)
		return
	}

	metrics.RecordEscrowOperation("release")
	logger.Info("Held funds released", slog.String("transaction_id", transactionID), slog.String("recipient_id", req.RecipientID))
	c.JSON(http.StatusOK, dto.ToTransactionResponse(txn))
}

// cancelHold godoc
// @Summary Cancel an active hold
// @Description Voids an active hold with no further payouts. Amounts already released stay released; only the remainder returns to the payer.
// @Tags escrow
// @Accept json
// @Produce json
// @Param transactionID path string true "Transaction ID"
// @Param cancel body dto.CancelHoldRequest true "Cancellation reason"
// @Success 200 {object} dto.TransactionResponse
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 409 {object} map[string]string "No active hold"
// @Security BearerAuth
// @Router /transactions/{transactionID}/escrow/cancel [post]
func (h *escrowHandler) cancelHold(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transactionID := c.Param("transactionID")

	var req dto.CancelHoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actorID, ok := middleware.GetActorIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	txn, err := h.escrowService.CancelHold(c.Request.Context(), transactionID, req.Reason, actorID, time.Now().UTC())
	if err != nil {
		respondEscrowError(c, logger, err, transactionID)
		return
	}

	metrics.RecordEscrowOperation("cancel")
	logger.Info("Hold cancelled", slog.String("transaction_id", transactionID))
	c.JSON(http.StatusOK, dto.ToTransactionResponse(txn))
}
