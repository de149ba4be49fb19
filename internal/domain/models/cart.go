package models

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// BadgeLimit is the largest count the navigation badge renders verbatim.
const BadgeLimit = 99

// CartItem is a line in the shopper's cart. Display fields and price are a
// snapshot taken from the catalog when the item was first added.
type CartItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Company     string          `json:"company"`
	Image       string          `json:"image"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Stock       int             `json:"stock"`
}

// Cart is an ordered list of line items, in the order each id was first added.
// Values are treated as immutable: every operation returns a new Cart.
type Cart struct {
	Items []CartItem `json:"items"`
}

// EmptyCart returns a cart with no items.
func EmptyCart() Cart {
	return Cart{Items: []CartItem{}}
}

// Clone returns a deep copy of the cart.
func (c Cart) Clone() Cart {
	items := make([]CartItem, len(c.Items))
	copy(items, c.Items)
	return Cart{Items: items}
}

func (c Cart) indexOf(id string) int {
	for i, item := range c.Items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

// AddOrIncrement adds one unit of candidate. An existing line keeps its
// original snapshot and only its quantity grows.
func (c Cart) AddOrIncrement(candidate CartItem) Cart {
	next := c.Clone()
	if i := next.indexOf(candidate.ID); i >= 0 {
		next.Items[i].Quantity++
		return next
	}
	candidate.Quantity = 1
	next.Items = append(next.Items, candidate)
	return next
}

// Decrement removes one unit of id, dropping the line when it reaches zero.
func (c Cart) Decrement(id string) Cart {
	next := c.Clone()
	i := next.indexOf(id)
	if i < 0 {
		return next
	}
	if next.Items[i].Quantity <= 1 {
		return next.Remove(id)
	}
	next.Items[i].Quantity--
	return next
}

// Remove drops the line for id. Unknown ids leave the cart unchanged.
func (c Cart) Remove(id string) Cart {
	items := make([]CartItem, 0, len(c.Items))
	for _, item := range c.Items {
		if item.ID != id {
			items = append(items, item)
		}
	}
	return Cart{Items: items}
}

// Without takes the quantities in taken out of the cart. Lines that reach
// zero are dropped; lines and units not in taken are kept.
func (c Cart) Without(taken Cart) Cart {
	items := make([]CartItem, 0, len(c.Items))
	for _, item := range c.Items {
		item.Quantity -= taken.QuantityOf(item.ID)
		if item.Quantity > 0 {
			items = append(items, item)
		}
	}
	return Cart{Items: items}
}

// QuantityOf reports how many units of id are in the cart.
func (c Cart) QuantityOf(id string) int {
	if i := c.indexOf(id); i >= 0 {
		return c.Items[i].Quantity
	}
	return 0
}

// TotalCount sums the quantities of every line.
func (c Cart) TotalCount() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

// Subtotal is the sum of price times quantity over all lines.
func (c Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// LineTotal is the unit price multiplied by the quantity.
func (item CartItem) LineTotal() decimal.Decimal {
	return item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
}

// IsEmpty reports whether the cart holds no items.
func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Equal compares item sequences, including order and prices.
func (c Cart) Equal(other Cart) bool {
	if len(c.Items) != len(other.Items) {
		return false
	}
	for i := range c.Items {
		if !c.Items[i].Equal(other.Items[i]) {
			return false
		}
	}
	return true
}

// Equal compares every field, using decimal equality for the price.
func (item CartItem) Equal(other CartItem) bool {
	return item.ID == other.ID &&
		item.Name == other.Name &&
		item.Company == other.Company &&
		item.Image == other.Image &&
		item.Description == other.Description &&
		item.Price.Equal(other.Price) &&
		item.Quantity == other.Quantity &&
		item.Stock == other.Stock
}

// BadgeLabel renders a count the way the navigation badge displays it.
func BadgeLabel(count int) string {
	if count > BadgeLimit {
		return strconv.Itoa(BadgeLimit) + "+"
	}
	return strconv.Itoa(count)
}
