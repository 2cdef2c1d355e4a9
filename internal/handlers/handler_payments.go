package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/SscSPs/payment_ledger_app/internal/apperrors"
	"github.com/SscSPs/payment_ledger_app/internal/dto"
	"github.com/SscSPs/payment_ledger_app/internal/middleware"
	"github.com/SscSPs/payment_ledger_app/internal/providers"
	"github.com/gin-gonic/gin"
)

// manualPaymentHandler exposes the operator side of the manual provider:
// checking an offline intent and confirming that its money arrived.
type manualPaymentHandler struct {
	provider *providers.ManualProvider
}

// newManualPaymentHandler creates a new manualPaymentHandler.
func newManualPaymentHandler(provider *providers.ManualProvider) *manualPaymentHandler {
	return &manualPaymentHandler{
		provider: provider,
	}
}

// registerManualPaymentRoutes registers the manual payment operator routes.
func registerManualPaymentRoutes(rg *gin.RouterGroup, provider *providers.ManualProvider) {
	h := newManualPaymentHandler(provider)

	manual := rg.Group("/payments/manual")
	{
		manual.GET("/:intentID", h.getManualPayment)
		manual.POST("/:intentID/confirm", h.confirmManualPayment)
	}
}

// getManualPayment godoc
// @Summary Get an offline payment intent
// @Description Reports the current state of a manual payment intent.
// @Tags payments
// @Produce json
// @Param intentID path string true "Intent ID"
// @Success 200 {object} domain.PaymentResult
// @Failure 404 {object} map[string]string "Intent not found"
// @Failure 500 {object} map[string]string "Failed to read intent"
// @Security BearerAuth
// @Router /payments/manual/{intentID} [get]
func (h *manualPaymentHandler) getManualPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	intentID := c.Param("intentID")

	result, err := h.provider.VerifyPayment(c.Request.Context(), intentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Payment intent not found"})
			return
		}
		logger.Error("Failed to read manual payment intent", slog.String("error", err.Error()), slog.String("intent_id", intentID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read payment intent"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// confirmManualPayment godoc
// @Summary Confirm an offline payment
// @Description Marks a pending manual intent as succeeded once the operator sees the money arrive. Confirming twice is a no-op. The corresponding ledger transaction still verifies through POST /transactions/verify.
// @Tags payments
// @Accept json
// @Produce json
// @Param intentID path string true "Intent ID"
// @Param confirmation body dto.ConfirmManualPaymentRequest false "Optional receipt instant"
// @Success 200 {object} dto.ManualPaymentResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Intent not found"
// @Failure 409 {object} map[string]string "Intent is cancelled or expired"
// @Security BearerAuth
// @Router /payments/manual/{intentID}/confirm [post]
func (h *manualPaymentHandler) confirmManualPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	intentID := c.Param("intentID")

	var req dto.ConfirmManualPaymentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
			return
		}
	}

	if _, ok := middleware.GetActorIDFromContext(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	at := time.Now().UTC()
	if req.At != nil {
		at = req.At.UTC()
	}

	rec, err := h.provider.MarkPaid(c.Request.Context(), intentID, at)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Payment intent not found"})
		case errors.Is(err, apperrors.ErrConflict):
			logger.Warn("Manual payment confirmation rejected", slog.String("error", err.Error()), slog.String("intent_id", intentID))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to confirm manual payment", slog.String("error", err.Error()), slog.String("intent_id", intentID))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to confirm payment"})
		}
		return
	}

	logger.Info("Manual payment confirmed", slog.String("intent_id", intentID))
	c.JSON(http.StatusOK, dto.ToManualPaymentResponse(rec))
}
