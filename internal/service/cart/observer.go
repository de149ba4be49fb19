package cart

import (
	"sync"

	"github.com/mamadbah2/medimart-cart/internal/domain/models"
)

// Observer is a surface that renders a view derived from the cart. Refresh is
// called with a freshly loaded cart on mount and after every change, possibly
// from another goroutine.
type Observer interface {
	Refresh(cart models.Cart)
}

// latest is a one-slot channel that always holds the newest value.
type latest[T any] struct {
	ch chan T
}

func newLatest[T any]() latest[T] {
	return latest[T]{ch: make(chan T, 1)}
}

func (l latest[T]) publish(v T) {
	select {
	case <-l.ch:
	default:
	}
	select {
	case l.ch <- v:
	default:
	}
}

// BadgeObserver backs the navigation cart badge.
type BadgeObserver struct {
	mu      sync.RWMutex
	view    models.BadgeView
	updates latest[models.BadgeView]
}

// NewBadgeObserver creates a badge showing zero.
func NewBadgeObserver() *BadgeObserver {
	return &BadgeObserver{
		view:    models.NewBadgeView(models.EmptyCart()),
		updates: newLatest[models.BadgeView](),
	}
}

// Refresh implements Observer.
func (o *BadgeObserver) Refresh(cart models.Cart) {
	view := models.NewBadgeView(cart)
	o.mu.Lock()
	o.view = view
	o.mu.Unlock()
	o.updates.publish(view)
}

// View returns the current badge.
func (o *BadgeObserver) View() models.BadgeView {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.view
}

// Updates streams badge views; only the newest pending view is kept.
func (o *BadgeObserver) Updates() <-chan models.BadgeView {
	return o.updates.ch
}

// ItemObserver backs the "add to cart" control of a single product.
type ItemObserver struct {
	id      string
	mu      sync.RWMutex
	view    models.ItemView
	updates latest[models.ItemView]
}

// NewItemObserver tracks product id.
func NewItemObserver(id string) *ItemObserver {
	return &ItemObserver{
		id:      id,
		view:    models.ItemView{ID: id},
		updates: newLatest[models.ItemView](),
	}
}

// Refresh implements Observer.
func (o *ItemObserver) Refresh(cart models.Cart) {
	view := models.NewItemView(cart, o.id)
	o.mu.Lock()
	o.view = view
	o.mu.Unlock()
	o.updates.publish(view)
}

// View returns the current indicator.
func (o *ItemObserver) View() models.ItemView {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.view
}

// Updates streams indicator views.
func (o *ItemObserver) Updates() <-chan models.ItemView {
	return o.updates.ch
}

// ListObserver backs the cart page.
type ListObserver struct {
	mu      sync.RWMutex
	view    models.CartView
	updates latest[models.CartView]
}

// NewListObserver creates an empty cart page view.
func NewListObserver() *ListObserver {
	return &ListObserver{
		view:    models.NewCartView(models.EmptyCart()),
		updates: newLatest[models.CartView](),
	}
}

// Refresh implements Observer.
func (o *ListObserver) Refresh(cart models.Cart) {
	view := models.NewCartView(cart)
	o.mu.Lock()
	o.view = view
	o.mu.Unlock()
	o.updates.publish(view)
}

// View returns the current line items.
func (o *ListObserver) View() models.CartView {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.view
}

// Updates streams cart page views.
func (o *ListObserver) Updates() <-chan models.CartView {
	return o.updates.ch
}

var (
	_ Observer = (*BadgeObserver)(nil)
	_ Observer = (*ItemObserver)(nil)
	_ Observer = (*ListObserver)(nil)
)
