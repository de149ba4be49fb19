package models

import "github.com/shopspring/decimal"

// Product is the catalog view of a medicine, as returned by the storefront API.
type Product struct {
	ID          string          `json:"_id"`
	Name        string          `json:"name"`
	Company     string          `json:"company"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Image       string          `json:"image"`
	Description string          `json:"description"`
}

// Snapshot freezes the product into a cart line candidate.
func (p Product) Snapshot() CartItem {
	return CartItem{
		ID:          p.ID,
		Name:        p.Name,
		Company:     p.Company,
		Image:       p.Image,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		Quantity:    1,
	}
}
