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

// subscriptionHandler handles HTTP requests related to subscriptions.
type subscriptionHandler struct {
	subService portssvc.SubscriptionSvcFacade
}

// newSubscriptionHandler creates a new subscriptionHandler.
func newSubscriptionHandler(subService portssvc.SubscriptionSvcFacade) *subscriptionHandler {
	return &subscriptionHandler{
		subService: subService,
	}
}

// registerSubscriptionRoutes registers routes for the subscription lifecycle.
func registerSubscriptionRoutes(rg *gin.RouterGroup, subService portssvc.SubscriptionSvcFacade) {
	h := newSubscriptionHandler(subService)

	subs := rg.Group("/subscriptions")
	{
		subs.POST("", h.createSubscription)
		subs.GET("", h.listSubscriptions)
		subs.GET("/:subscriptionID", h.getSubscription)
		subs.POST("/:subscriptionID/activate", h.activateSubscription)
		subs.POST("/:subscriptionID/renew", h.renewSubscription)
		subs.POST("/:subscriptionID/pause", h.pauseSubscription)
		subs.POST("/:subscriptionID/resume", h.resumeSubscription)
		subs.POST("/:subscriptionID/cancel", h.cancelSubscription)
		subs.POST("/:subscriptionID/expire", h.expireSubscription)
	}
}

// respondSubscriptionError maps the shared error surface of the subscription
// state transitions to HTTP responses.
func respondSubscriptionError(c *gin.Context, logger *slog.Logger, err error, subscriptionID string) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Subscription not found"})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrSubscriptionNotActive), errors.Is(err, services.ErrSubscriptionNotPaused),
		errors.Is(err, services.ErrPeriodNotElapsed), errors.Is(err, services.ErrFreePlanNotRenewable),
		errors.Is(err, apperrors.ErrConflict):
		logger.Warn("Subscription transition rejected", slog.String("error", err.Error()), slog.String("subscription_id", subscriptionID))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Error("Subscription operation failed", slog.String("error", err.Error()), slog.String("subscription_id", subscriptionID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Subscription operation failed"})
	}
}

// resolveAt returns the caller-supplied instant, or the current time.
func resolveAt(at *time.Time) time.Time {
	if at != nil {
		return at.UTC()
	}
	return time.Now().UTC()
}

// createSubscription godoc
// @Summary Create a subscription
// @Description Creates a pending subscription and, for paid plans, the initial charge that must be verified before activation. Zero-amount plans activate immediately with no charge.
// @Tags subscriptions
// @Accept json
// @Produce json
// @Param subscription body dto.CreateSubscriptionRequest true "Subscription details"
// @Success 201 {object} dto.CreateSubscriptionResponse
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} map[string]string "Idempotency key already used"
// @Failure 502 {object} map[string]string "Payment gateway failure"
// @Security BearerAuth
// @Router /subscriptions [post]
func (h *subscriptionHandler) createSubscription(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateSubscription", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actorID, ok := middleware.GetActorIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	sub, txn, intent, err := h.subService.CreateSubscription(c.Request.Context(), req, actorID, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrValidation), errors.Is(err, services.ErrUnknownGateway):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrDuplicate):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrProvider):
			logger.Error("Gateway error creating subscription charge", slog.String("error", err.Error()))
			c.JSON(http.StatusBadGateway, gin.H{"error": "Payment gateway error"})
		default:
			logger.Error("Failed to create subscription", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create subscription"})
		}
		return
	}

	metrics.RecordSubscriptionCreated(string(sub.Interval))
	logger.Info("Subscription created", slog.String("subscription_id", sub.SubscriptionID), slog.String("plan_key", sub.PlanKey))

	resp := dto.CreateSubscriptionResponse{
		Subscription: dto.ToSubscriptionResponse(sub),
		Payment:      dto.ToPaymentIntentResponse(intent),
	}
	if txn != nil {
		txnResp := dto.ToTransactionResponse(txn)
		resp.Transaction = &txnResp
	}
	c.JSON(http.StatusCreated, resp)
}

// getSubscription godoc
// @Summary Get a subscription
// @Description Retrieves a subscription by its ID.
// @Tags subscriptions
// @Produce json
// @Param subscriptionID path string true "Subscription ID"
// @Success 200 {object} dto.SubscriptionResponse
// @Failure 404 {object} map[string]string "Subscription not found"
// @Failure 500 {object} map[string]string "Failed to retrieve subscription"
// @Security BearerAuth
// @Router /subscriptions/{subscriptionID} [get]
func (h *subscriptionHandler) getSubscription(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	subscriptionID := c.Param("subscriptionID")

	sub, err := h.subService.GetSubscriptionByID(c.Request.Context(), subscriptionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Subscription not found"})
			return
		}
		logger.Error("Failed to get subscription", slog.String("error", err.Error()), slog.String("subscription_id", subscriptionID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve subscription"})
		return
	}

	c.JSON(http.StatusOK, dto.ToSubscriptionResponse(sub))
}

// listSubscriptions godoc
// @Summary List subscriptions
// @Description Retrieves a page of subscriptions, newest first, optionally filtered by status.
// @Tags subscriptions
// @Produce json
// @Param limit query int false "Page size (default 20)"
// @Param nextToken query string false "Opaque pagination token from a previous page"
// @Param status query string false "Filter by status"
// @Success 200 {object} dto.ListSubscriptionsResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Failure 500 {object} map[string]string "Failed to list subscriptions"
// @Security BearerAuth
// @Router /subscriptions [get]
func (h *subscriptionHandler) listSubscriptions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.ListSubscriptionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	page, err := h.subService.ListSubscriptions(c.Request.Context(), params)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Failed to list subscriptions", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list subscriptions"})
		return
	}

	c.JSON(http.StatusOK, page)
}

// activateSubscription godoc
// @Summary Activate a subscription
// @Description Starts the first billing period of a pending subscription. Activating an active subscription is a no-op.
// @Tags subscriptions
// @Accept json
// @Produce json
// @Param subscriptionID path string true "Subscription ID"
// @Param activation body dto.ActivateSubscriptionRequest false "Optional activation instant"
// @Success 200 {object} dto.SubscriptionResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Subscription not found"
// @Failure 409 {object} map[string]string "Subscription cannot be activated from its current status"
// @Security BearerAuth
// @Router /subscriptions/{subscriptionID}/activate [post]
func (h *subscriptionHandler) activateSubscription(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	subscriptionID := c.Param("subscriptionID")

	var req dto.ActivateSubscriptionRequest
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

	sub, err := h.subService.ActivateSubscription(c.Request.Context(), subscriptionID, actorID, resolveAt(req.At))
	if err != nil {
		respondSubscriptionError(c, logger, err, subscriptionID)
		return
	}

	logger.Info("Subscription activated", slog.String("subscription_id", subscriptionID))
	c.JSON(http.StatusOK, dto.ToSubscriptionResponse(sub))
}

// renewSubscription godoc
// @Summary Renew a subscription
// @Description Opens a charge for the next billing period of an active subscription. The period advances once that charge verifies.
// @Tags subscriptions
// @Accept json
// @Produce json
// @Param subscriptionID path string true "Subscription ID"
// @Param renewal body dto.RenewSubscriptionRequest false "Optional renewal instant and idempotency key"
// @Success 200 {object} dto.RenewSubscriptionResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Subscription not found"
// @Failure 409 {object} map[string]string "Subscription not active or free"
// @Failure 502 {object} map[string]string "Payment gateway failure"
// @Security BearerAuth
// @Router /subscriptions/{subscriptionID}/renew [post]
func (h *subscriptionHandler) renewSubscription(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	subscriptionID := c.Param("subscriptionID")

	var req dto.RenewSubscriptionRequest
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

	sub, txn, intent, err := h.subService.RenewSubscription(c.Request.Context(), subscriptionID, req, actorID, resolveAt(req.At))
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		if errors.Is(err, apperrors.ErrProvider) {
			logger.Error("Gateway error renewing subscription", slog.String("error", err.Error()), slog.String("subscription_id", subscriptionID))
			c.JSON(http.StatusBadGateway, gin.H{"error": "Payment gateway error"})
			return
		}
		respondSubscriptionError(c, logger, err, subscriptionID)
		return
	}

	logger.Info("Subscription renewal opened", slog.String("subscription_id", subscriptionID))

	resp := dto.RenewSubscriptionResponse{
		Subscription: dto.ToSubscriptionResponse(sub),
		Payment:      dto.ToPaymentIntentResponse(intent),
	}
	if txn != nil {
		txnResp := dto.ToTransactionResponse(txn)
		resp.Transaction = &txnResp
	}
	c.JSON(http.StatusOK, resp)
}

// pauseSubscription godoc
// @Summary Pause a subscription
// @Description Suspends an active subscription, recording when and why.
// @Tags subscriptions
// @Accept json
// @Produce json
// @Param subscriptionID path string true "Subscription ID"
// @Param pause body dto.PauseSubscriptionRequest true "Pause reason"
// @Success 200 {object} dto.SubscriptionResponse
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Subscription not found"
// @Failure 409 {object} map[string]string "Subscription is not active"
// @Security BearerAuth
// @Router /subscriptions/{subscriptionID}/pause [post]
func (h *subscriptionHandler) pauseSubscription(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	subscriptionID := c.Param("subscriptionID")

	var req dto.PauseSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actorID, ok := middleware.GetActorIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	sub, err := h.subService.PauseSubscription(c.Request.Context(), subscriptionID, req.Reason, actorID, resolveAt(req.At))
	if err != nil {
		respondSubscriptionError(c, logger, err, subscriptionID)
		return
	}

	logger.Info("Subscription paused", slog.String("subscription_id", subscriptionID))
	c.JSON(http.StatusOK, dto.ToSubscriptionResponse(sub))
}

// resumeSubscription godoc
// @Summary Resume a paused subscription
// @Description Reactivates a paused subscription. With extendPeriod the current period end is pushed out by the time spent paused.
// @Tags subscriptions
// @Accept json
// @Produce json
// @Param subscriptionID path string true "Subscription ID"
// @Param resume body dto.ResumeSubscriptionRequest false "Resume options"
// @Success 200 {object} dto.SubscriptionResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Subscription not found"
// @Failure 409 {object} map[string]string "Subscription is not paused"
// @Security BearerAuth
// @Router /subscriptions/{subscriptionID}/resume [post]
func (h *subscriptionHandler) resumeSubscription(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	subscriptionID := c.Param("subscriptionID")

	var req dto.ResumeSubscriptionRequest
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

	sub, err := h.subService.ResumeSubscription(c.Request.Context(), subscriptionID, req.ExtendPeriod, actorID, resolveAt(req.At))
	if err != nil {
		respondSubscriptionError(c, logger, err, subscriptionID)
		return
	}

	logger.Info("Subscription resumed", slog.String("subscription_id", subscriptionID))
	c.JSON(http.StatusOK, dto.ToSubscriptionResponse(sub))
}

// cancelSubscription godoc
// @Summary Cancel a subscription
// @Description Cancels immediately, or flags the subscription to cancel at the end of the current period.
// @Tags subscriptions
// @Accept json
// @Produce json
// @Param subscriptionID path string true "Subscription ID"
// @Param cancellation body dto.CancelSubscriptionRequest false "Cancellation options"
// @Success 200 {object} dto.SubscriptionResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Subscription not found"
// @Failure 409 {object} map[string]string "Subscription already terminal"
// @Security BearerAuth
// @Router /subscriptions/{subscriptionID}/cancel [post]
func (h *subscriptionHandler) cancelSubscription(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	subscriptionID := c.Param("subscriptionID")

	var req dto.CancelSubscriptionRequest
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

	sub, err := h.subService.CancelSubscription(c.Request.Context(), subscriptionID, req.Immediate, actorID, resolveAt(req.At))
	if err != nil {
		respondSubscriptionError(c, logger, err, subscriptionID)
		return
	}

	logger.Info("Subscription cancelled", slog.String("subscription_id", subscriptionID), slog.Bool("immediate", req.Immediate))
	c.JSON(http.StatusOK, dto.ToSubscriptionResponse(sub))
}

// expireSubscription godoc
// @Summary Expire a subscription
// @Description Moves an active subscription whose billing period has elapsed to expired. Called by the operator's scheduler.
// @Tags subscriptions
// @Accept json
// @Produce json
// @Param subscriptionID path string true "Subscription ID"
// @Param expiry body dto.ActivateSubscriptionRequest false "Optional expiry instant"
// @Success 200 {object} dto.SubscriptionResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Subscription not found"
// @Failure 409 {object} map[string]string "Billing period has not elapsed"
// @Security BearerAuth
// @Router /subscriptions/{subscriptionID}/expire [post]
func (h *subscriptionHandler) expireSubscription(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	subscriptionID := c.Param("subscriptionID")

	var req dto.ActivateSubscriptionRequest
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

	sub, err := h.subService.ExpireSubscription(c.Request.Context(), subscriptionID, actorID, resolveAt(req.At))
	if err != nil {
		respondSubscriptionError(c, logger, err, subscriptionID)
		return
	}

	logger.Info("Subscription expired", slog.String("subscription_id", subscriptionID))
	c.JSON(http.StatusOK, dto.ToSubscriptionResponse(sub))
}
