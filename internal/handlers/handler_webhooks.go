package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/SscSPs/payment_ledger_app/internal/apperrors"
	portssvc "github.com/SscSPs/payment_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/payment_ledger_app/internal/core/services"
	"github.com/SscSPs/payment_ledger_app/internal/metrics"
	"github.com/SscSPs/payment_ledger_app/internal/middleware"
	"github.com/SscSPs/payment_ledger_app/internal/platform/config"
	"github.com/gin-gonic/gin"
)

// webhookHandler handles inbound payment gateway notifications.
type webhookHandler struct {
	txnService portssvc.TransactionSvcFacade
}

// newWebhookHandler creates a new webhookHandler.
func newWebhookHandler(txnService portssvc.TransactionSvcFacade) *webhookHandler {
	return &webhookHandler{
		txnService: txnService,
	}
}

// registerWebhookRoutes registers the public gateway webhook endpoint.
// Webhooks carry their own provider signatures, so the route sits outside
// the authenticated API group, protected by an IP rate limit.
func registerWebhookRoutes(r *gin.Engine, cfg *config.Config, txnService portssvc.TransactionSvcFacade) {
	h := newWebhookHandler(txnService)

	rate, err := limiter.NewRateFromFormatted(cfg.WebhookRateLimit)
	if err != nil {
		slog.Warn("Invalid WEBHOOK_RATE_LIMIT, using 120-M", slog.String("value", cfg.WebhookRateLimit))
		rate, _ = limiter.NewRateFromFormatted("120-M")
	}
	ipLimiter := limiter.New(memory.NewStore(), rate)

	r.POST("/webhooks/:provider", middleware.RateLimit(ipLimiter), h.handleWebhook)
}

// handleWebhook godoc
// @Summary Receive a payment gateway webhook
// @Description Verifies and applies an asynchronous gateway notification. A 404 tells the gateway to redeliver later, which covers webhooks that race their transaction's creation.
// @Tags webhooks
// @Accept json
// @Produce json
// @Param provider path string true "Provider name"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string "Payload rejected"
// @Failure 404 {object} map[string]string "Unknown provider or no matching transaction"
// @Failure 409 {object} map[string]string "Notification contradicts the stored transaction"
// @Router /webhooks/{provider} [post]
func (h *webhookHandler) handleWebhook(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	providerName := c.Param("provider")

	payload, err := c.GetRawData()
	if err != nil {
		metrics.RecordWebhookEvent(providerName, "rejected")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	headers := make(map[string]string, len(c.Request.Header))
	for k, v := range c.Request.Header {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}

	txn, err := h.txnService.HandleProviderWebhook(c.Request.Context(), providerName, payload, headers, time.Now().UTC())
	if err != nil {
		metrics.RecordWebhookEvent(providerName, "rejected")
		switch {
		case errors.Is(err, services.ErrUnknownGateway), errors.Is(err, apperrors.ErrNotFound):
			logger.Warn("Webhook had no destination", slog.String("provider", providerName), slog.String("error", err.Error()))
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrUnsupported), errors.Is(err, apperrors.ErrValidation), errors.Is(err, apperrors.ErrProvider):
			logger.Warn("Webhook rejected", slog.String("provider", providerName), slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrAmountMismatch), errors.Is(err, apperrors.ErrConflict):
			logger.Warn("Webhook conflicts with stored transaction", slog.String("provider", providerName), slog.String("error", err.Error()))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to process webhook", slog.String("provider", providerName), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process webhook"})
		}
		return
	}

	metrics.RecordWebhookEvent(providerName, "accepted")
	logger.Info("Webhook processed", slog.String("provider", providerName), slog.String("transaction_id", txn.TransactionID), slog.String("status", string(txn.Status)))
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
