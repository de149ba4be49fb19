package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CheckoutReceipt summarizes a cart that was handed over to checkout.
type CheckoutReceipt struct {
	Reference   string          `json:"reference"`
	CompletedAt time.Time       `json:"completed_at"`
	Lines       int             `json:"lines"`
	Units       int             `json:"units"`
	Total       decimal.Decimal `json:"total"`
}

// CheckoutRequest is the body accepted by the checkout endpoint.
type CheckoutRequest struct {
	Reference string `json:"reference" binding:"required"`
}
