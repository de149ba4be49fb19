package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mamadbah2/medimart-cart/internal/domain/models"
	"github.com/mamadbah2/medimart-cart/internal/repository/memory"
	"github.com/mamadbah2/medimart-cart/internal/service/cart"
)

type fakeLedger struct {
	sheetRange string
	rows       [][]interface{}
	err        error
	during     func()
}

func (l *fakeLedger) AppendRows(_ context.Context, sheetRange string, rows [][]interface{}) error {
	if l.err != nil {
		return l.err
	}
	if l.during != nil {
		l.during()
	}
	l.sheetRange = sheetRange
	l.rows = append(l.rows, rows...)
	return nil
}

func newStore(t *testing.T) *cart.Store {
	t.Helper()
	logger := zap.NewNop()
	slot := memory.NewStore().Slot("medimart_cart", "tab-a")
	return cart.NewStore(cart.NewPersistence(slot, logger), cart.NewNotifier(nil, logger), nil, logger)
}

func fill(t *testing.T, store *cart.Store) {
	t.Helper()
	ctx := context.Background()
	for _, it := range []models.CartItem{
		{ID: "m1", Name: "Napa", Company: "Beximco", Price: decimal.RequireFromString("2.5")},
		{ID: "m1"},
		{ID: "m2", Name: "Seclo", Company: "Square", Price: decimal.NewFromInt(8)},
	} {
		_, err := store.AddOrIncrement(ctx, it)
		require.NoError(t, err)
	}
}

func TestService_Complete(t *testing.T) {
	store := newStore(t)
	fill(t, store)
	ledger := &fakeLedger{}

	svc := NewService(store, ledger, "Orders!A:H", nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC) }

	receipt, err := svc.Complete(context.Background(), "ORD-1")
	require.NoError(t, err)

	assert.Equal(t, "ORD-1", receipt.Reference)
	assert.Equal(t, 2, receipt.Lines)
	assert.Equal(t, 3, receipt.Units)
	assert.Equal(t, "13", receipt.Total.String())

	assert.Equal(t, "Orders!A:H", ledger.sheetRange)
	require.Len(t, ledger.rows, 2)
	assert.Equal(t, []interface{}{"2026-03-01 09:30:00", "ORD-1", "m1", "Napa", "Beximco", 2, "2.5", "5"}, ledger.rows[0])

	assert.True(t, store.Load(context.Background()).IsEmpty(), "checkout clears the cart")
}

func TestService_CompleteEmptyCart(t *testing.T) {
	svc := NewService(newStore(t), nil, "", nil)

	_, err := svc.Complete(context.Background(), "ORD-2")
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestService_LedgerFailureKeepsCart(t *testing.T) {
	store := newStore(t)
	fill(t, store)

	svc := NewService(store, &fakeLedger{err: errors.New("sheets quota")}, "Orders!A:H", nil)

	_, err := svc.Complete(context.Background(), "ORD-3")
	require.Error(t, err)
	assert.Equal(t, 3, store.Load(context.Background()).TotalCount())
}

func TestService_WithoutLedger(t *testing.T) {
	store := newStore(t)
	fill(t, store)

	receipt, err := NewService(store, nil, "", nil).Complete(context.Background(), "ORD-4")
	require.NoError(t, err)
	assert.Equal(t, 3, receipt.Units)
	assert.True(t, store.Load(context.Background()).IsEmpty())
}

func TestService_RequiresReference(t *testing.T) {
	_, err := NewService(newStore(t), nil, "", nil).Complete(context.Background(), "")
	assert.Error(t, err)
}

func TestService_KeepsItemsAddedDuringCheckout(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	_, err := store.AddOrIncrement(ctx, models.CartItem{ID: "m1", Name: "Napa", Price: decimal.NewFromInt(2)})
	require.NoError(t, err)

	ledger := &fakeLedger{during: func() {
		// Another surface adds while the ledger call is in flight.
		_, err := store.AddOrIncrement(ctx, models.CartItem{ID: "m2", Name: "Seclo", Price: decimal.NewFromInt(8)})
		require.NoError(t, err)
		_, err = store.AddOrIncrement(ctx, models.CartItem{ID: "m1"})
		require.NoError(t, err)
	}}

	receipt, err := NewService(store, ledger, "Orders!A:H", nil).Complete(ctx, "ORD-5")
	require.NoError(t, err)
	assert.Equal(t, 1, receipt.Units)
	require.Len(t, ledger.rows, 1)
	assert.Equal(t, "m1", ledger.rows[0][2])

	left := store.Load(ctx)
	assert.Equal(t, 1, left.QuantityOf("m2"), "an item added mid-checkout is not lost")
	assert.Equal(t, 1, left.QuantityOf("m1"), "only the recorded unit of m1 is cleared")
	assert.Equal(t, 2, left.TotalCount())
}
