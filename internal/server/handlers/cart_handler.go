package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/medimart-cart/internal/domain/models"
	"github.com/mamadbah2/medimart-cart/internal/service/cart"
	"github.com/mamadbah2/medimart-cart/pkg/clients/catalog"
)

// CartHandler exposes the cart store over HTTP.
type CartHandler struct {
	store   *cart.Store
	catalog catalog.Client
	logger  *zap.Logger
}

// NewCartHandler constructs the cart HTTP adapter. catalogClient may be nil,
// in which case adds must carry a full product snapshot.
func NewCartHandler(store *cart.Store, catalogClient catalog.Client, logger *zap.Logger) *CartHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartHandler{store: store, catalog: catalogClient, logger: logger}
}

// Get returns the line items and totals.
func (h *CartHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, models.NewCartView(h.store.Load(c.Request.Context())))
}

// Count returns the badge count and label.
func (h *CartHandler) Count(c *gin.Context) {
	c.JSON(http.StatusOK, models.NewBadgeView(h.store.Load(c.Request.Context())))
}

// Quantity reports how many units of one product are in the cart.
func (h *CartHandler) Quantity(c *gin.Context) {
	c.JSON(http.StatusOK, models.NewItemView(h.store.Load(c.Request.Context()), c.Param("id")))
}

// Add puts one unit of a product into the cart. A body with only an id is
// resolved against the catalog first.
func (h *CartHandler) Add(c *gin.Context) {
	var req models.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid add payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ctx := c.Request.Context()
	candidate := req.CartItem()
	if !req.HasSnapshot() {
		if h.catalog == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name and price are required"})
			return
		}
		product, err := h.catalog.GetProduct(ctx, req.ID)
		if errors.Is(err, catalog.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		if err != nil {
			h.logger.Error("catalog lookup failed", zap.String("id", req.ID), zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "catalog unavailable"})
			return
		}
		candidate = product.Snapshot()
	}

	current, err := h.store.AddOrIncrement(ctx, candidate)
	h.respond(c, "add", current, err)
}

// Decrement removes one unit of a product.
func (h *CartHandler) Decrement(c *gin.Context) {
	current, err := h.store.Decrement(c.Request.Context(), c.Param("id"))
	h.respond(c, "decrement", current, err)
}

// Remove drops a product line entirely.
func (h *CartHandler) Remove(c *gin.Context) {
	current, err := h.store.Remove(c.Request.Context(), c.Param("id"))
	h.respond(c, "remove", current, err)
}

// Clear empties the cart, e.g. on logout.
func (h *CartHandler) Clear(c *gin.Context) {
	if err := h.store.Clear(c.Request.Context()); err != nil {
		h.fail(c, "clear", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CartHandler) respond(c *gin.Context, op string, current models.Cart, err error) {
	if err != nil {
		h.fail(c, op, err)
		return
	}
	c.JSON(http.StatusOK, models.NewCartView(current))
}

func (h *CartHandler) fail(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, cart.ErrInvalidItem):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, cart.ErrPersist):
		h.logger.Error("cart mutation failed", zap.String("op", op), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "cart storage unavailable"})
	default:
		h.logger.Error("cart mutation failed", zap.String("op", op), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update cart"})
	}
}
