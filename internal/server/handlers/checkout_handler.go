package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/medimart-cart/internal/domain/models"
	"github.com/mamadbah2/medimart-cart/internal/service/cart"
	"github.com/mamadbah2/medimart-cart/internal/service/checkout"
)

// CheckoutService completes a checkout of the current cart.
type CheckoutService interface {
	Complete(ctx context.Context, reference string) (models.CheckoutReceipt, error)
}

// CheckoutHandler exposes checkout over HTTP.
type CheckoutHandler struct {
	svc    CheckoutService
	logger *zap.Logger
}

// NewCheckoutHandler constructs the checkout HTTP adapter.
func NewCheckoutHandler(svc CheckoutService, logger *zap.Logger) *CheckoutHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckoutHandler{svc: svc, logger: logger}
}

// Complete records the cart and clears it.
func (h *CheckoutHandler) Complete(c *gin.Context) {
	var req models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid checkout payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	receipt, err := h.svc.Complete(c.Request.Context(), req.Reference)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, receipt)
	case errors.Is(err, checkout.ErrEmptyCart):
		c.JSON(http.StatusConflict, gin.H{"error": "cart is empty"})
	case errors.Is(err, cart.ErrPersist):
		h.logger.Error("checkout failed", zap.String("reference", req.Reference), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "cart storage unavailable"})
	default:
		h.logger.Error("checkout failed", zap.String("reference", req.Reference), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to record checkout"})
	}
}
