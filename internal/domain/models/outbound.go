package models

import "github.com/shopspring/decimal"

// AddItemRequest is accepted by the add endpoint. Only ID is required when the
// catalog client is configured; the remaining fields are then fetched from it.
type AddItemRequest struct {
	ID          string           `json:"id" binding:"required"`
	Name        string           `json:"name"`
	Company     string           `json:"company"`
	Image       string           `json:"image"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       int              `json:"stock"`
}

// HasSnapshot reports whether the request carries enough catalog data to be
// added without a catalog lookup.
func (r AddItemRequest) HasSnapshot() bool {
	return r.Name != "" && r.Price != nil
}

// CartItem builds the candidate line from the request body.
func (r AddItemRequest) CartItem() CartItem {
	item := CartItem{
		ID:          r.ID,
		Name:        r.Name,
		Company:     r.Company,
		Image:       r.Image,
		Description: r.Description,
		Stock:       r.Stock,
		Quantity:    1,
	}
	if r.Price != nil {
		item.Price = *r.Price
	}
	return item
}

// CartView is the JSON representation of a cart returned over HTTP.
type CartView struct {
	Items      []CartItem      `json:"items"`
	TotalCount int             `json:"totalCount"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

// BadgeView is what the navigation badge needs.
type BadgeView struct {
	Count int    `json:"count"`
	Label string `json:"label"`
}

// ItemView tells an add control whether its product is already in the cart.
type ItemView struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
	InCart   bool   `json:"inCart"`
}

// NewCartView derives the HTTP view of a cart.
func NewCartView(c Cart) CartView {
	items := c.Items
	if items == nil {
		items = []CartItem{}
	}
	return CartView{Items: items, TotalCount: c.TotalCount(), Subtotal: c.Subtotal()}
}

// NewBadgeView derives the badge view of a cart.
func NewBadgeView(c Cart) BadgeView {
	count := c.TotalCount()
	return BadgeView{Count: count, Label: BadgeLabel(count)}
}

// NewItemView derives the in-cart indicator for one product.
func NewItemView(c Cart, id string) ItemView {
	qty := c.QuantityOf(id)
	return ItemView{ID: id, Quantity: qty, InCart: qty > 0}
}
