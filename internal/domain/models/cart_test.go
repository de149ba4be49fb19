package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(id string, price int64) CartItem {
	return CartItem{ID: id, Name: "Medicine " + id, Price: decimal.NewFromInt(price), Stock: 10}
}

func ids(c Cart) []string {
	out := make([]string, 0, len(c.Items))
	for _, it := range c.Items {
		out = append(out, it.ID)
	}
	return out
}

func TestCart_Scenario(t *testing.T) {
	c := EmptyCart()

	c = c.AddOrIncrement(item("m1", 10))
	assert.Equal(t, 1, c.TotalCount())

	c = c.AddOrIncrement(item("m1", 10))
	require.Len(t, c.Items, 1)
	assert.Equal(t, 2, c.QuantityOf("m1"))
	assert.Equal(t, 2, c.TotalCount())

	c = c.AddOrIncrement(item("m2", 5))
	assert.Equal(t, 3, c.TotalCount())
	assert.Equal(t, []string{"m1", "m2"}, ids(c))

	c = c.Remove("m1")
	assert.Equal(t, []string{"m2"}, ids(c))
	assert.Equal(t, 1, c.TotalCount())

	before := c
	c = c.Remove("m1")
	assert.True(t, before.Equal(c))
	assert.Equal(t, 1, c.TotalCount())
}

func TestCart_AddOrIncrementCountsPerID(t *testing.T) {
	adds := []string{"a", "b", "a", "c", "a", "b"}

	c := EmptyCart()
	for _, id := range adds {
		c = c.AddOrIncrement(item(id, 1))
	}

	assert.Equal(t, []string{"a", "b", "c"}, ids(c))
	assert.Equal(t, 3, c.QuantityOf("a"))
	assert.Equal(t, 2, c.QuantityOf("b"))
	assert.Equal(t, 1, c.QuantityOf("c"))
	assert.Equal(t, len(adds), c.TotalCount())
}

func TestCart_IncrementKeepsSnapshot(t *testing.T) {
	c := EmptyCart().AddOrIncrement(item("m1", 10))

	refreshed := item("m1", 99)
	refreshed.Name = "Renamed"
	refreshed.Stock = 0
	c = c.AddOrIncrement(refreshed)

	require.Len(t, c.Items, 1)
	assert.Equal(t, "Medicine m1", c.Items[0].Name)
	assert.True(t, decimal.NewFromInt(10).Equal(c.Items[0].Price))
	assert.Equal(t, 10, c.Items[0].Stock)
}

func TestCart_AddIgnoresCandidateQuantity(t *testing.T) {
	candidate := item("m1", 10)
	candidate.Quantity = 7

	c := EmptyCart().AddOrIncrement(candidate)
	assert.Equal(t, 1, c.QuantityOf("m1"))
}

func TestCart_OperationsDoNotMutateReceiver(t *testing.T) {
	original := EmptyCart().AddOrIncrement(item("m1", 10))

	_ = original.AddOrIncrement(item("m1", 10))
	_ = original.Decrement("m1")
	_ = original.Remove("m1")

	assert.Equal(t, 1, original.QuantityOf("m1"))
	assert.Len(t, original.Items, 1)
}

func TestCart_Decrement(t *testing.T) {
	c := EmptyCart().AddOrIncrement(item("m1", 10)).AddOrIncrement(item("m1", 10))

	c = c.Decrement("m1")
	assert.Equal(t, 1, c.QuantityOf("m1"))

	c = c.Decrement("m1")
	assert.True(t, c.IsEmpty(), "a line reaching zero is removed")

	c = c.Decrement("missing")
	assert.True(t, c.IsEmpty())
}

func TestCart_TotalsAreFreshSums(t *testing.T) {
	c := EmptyCart().
		AddOrIncrement(item("m1", 10)).
		AddOrIncrement(item("m1", 10)).
		AddOrIncrement(item("m2", 3))

	sum := 0
	for _, it := range c.Items {
		sum += it.Quantity
	}
	assert.Equal(t, sum, c.TotalCount())
	assert.True(t, decimal.NewFromInt(23).Equal(c.Subtotal()), "got %s", c.Subtotal())
	assert.Equal(t, 0, EmptyCart().TotalCount())
}

func TestBadgeLabel(t *testing.T) {
	assert.Equal(t, "0", BadgeLabel(0))
	assert.Equal(t, "99", BadgeLabel(99))
	assert.Equal(t, "99+", BadgeLabel(100))
}

func TestProduct_Snapshot(t *testing.T) {
	p := Product{ID: "m1", Name: "Napa", Company: "Beximco", Price: decimal.RequireFromString("1.25"), Stock: 40}

	got := p.Snapshot()
	assert.Equal(t, "m1", got.ID)
	assert.Equal(t, "Beximco", got.Company)
	assert.Equal(t, 40, got.Stock)
	assert.Equal(t, 1, got.Quantity)
}

func TestCart_Without(t *testing.T) {
	taken := EmptyCart().AddOrIncrement(item("m1", 1)).AddOrIncrement(item("m1", 1)).AddOrIncrement(item("m2", 3))

	later := taken.AddOrIncrement(item("m1", 1)).AddOrIncrement(item("m3", 5))
	left := later.Without(taken)
	assert.Equal(t, []string{"m1", "m3"}, ids(left))
	assert.Equal(t, 1, left.QuantityOf("m1"))

	assert.True(t, taken.Without(taken).IsEmpty())
	assert.True(t, taken.Decrement("m1").Without(taken).IsEmpty(), "lines never go negative")
}
