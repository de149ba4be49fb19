// Package cart keeps a shopper's cart consistent across every surface that
// renders it, across execution contexts sharing the same durable record, and
// across restarts of the process.
//
// The durable record is the single source of truth. A Store's in-memory cart
// is a cache that is rebuilt from the record on every Load and mutation.
package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mamadbah2/medimart-cart/internal/domain/models"
	"github.com/mamadbah2/medimart-cart/internal/metrics"
)

var (
	// ErrPersist is returned when a mutation could not be committed.
	ErrPersist = errors.New("cart mutation not persisted")
	// ErrInvalidItem is returned when a candidate line has no id.
	ErrInvalidItem = errors.New("cart item must have an id")
)

// Store owns the cart of one execution context.
type Store struct {
	mu          sync.Mutex
	persistence *Persistence
	notifier    *Notifier
	metrics     *metrics.Metrics
	logger      *zap.Logger
	cached      models.Cart
}

// NewStore wires a store. The cache starts empty until the first Load.
func NewStore(persistence *Persistence, notifier *Notifier, m *metrics.Metrics, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		persistence: persistence,
		notifier:    notifier,
		metrics:     m,
		logger:      logger,
		cached:      models.EmptyCart(),
	}
}

// Notifier returns the notifier mutations are broadcast on.
func (s *Store) Notifier() *Notifier {
	return s.notifier
}

// Load re-reads the durable record and refreshes the cache. An absent or
// malformed record yields an empty cart. If the backend cannot be reached the
// last cached cart is returned.
func (s *Store) Load(ctx context.Context) models.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, _, err := s.persistence.Read(ctx)
	if err != nil {
		s.logger.Warn("cart load failed, serving cached cart", zap.Error(err))
		return s.cached.Clone()
	}
	s.cached = cart
	return cart.Clone()
}

// Snapshot returns the cached cart without touching the backend.
func (s *Store) Snapshot() models.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cached.Clone()
}

// Items returns the cached line items.
func (s *Store) Items() []models.CartItem {
	return s.Snapshot().Items
}

// QuantityOf returns the cached quantity of id, 0 when absent.
func (s *Store) QuantityOf(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cached.QuantityOf(id)
}

// TotalCount sums the cached quantities.
func (s *Store) TotalCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cached.TotalCount()
}

// AddOrIncrement adds one unit of candidate.
func (s *Store) AddOrIncrement(ctx context.Context, candidate models.CartItem) (models.Cart, error) {
	if candidate.ID == "" {
		return s.Snapshot(), ErrInvalidItem
	}
	return s.mutate(ctx, "add", func(c models.Cart) models.Cart {
		return c.AddOrIncrement(candidate)
	})
}

// Decrement removes one unit of id; the line disappears at zero.
func (s *Store) Decrement(ctx context.Context, id string) (models.Cart, error) {
	return s.mutate(ctx, "decrement", func(c models.Cart) models.Cart {
		return c.Decrement(id)
	})
}

// Remove drops the line for id. Unknown ids succeed without writing.
func (s *Store) Remove(ctx context.Context, id string) (models.Cart, error) {
	return s.mutate(ctx, "remove", func(c models.Cart) models.Cart {
		return c.Remove(id)
	})
}

// Clear empties the cart. It is only ever called explicitly, by checkout or
// logout.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.mutate(ctx, "clear", func(models.Cart) models.Cart {
		return models.EmptyCart()
	})
	return err
}

// ClearCheckedOut is the clear a checkout issues: it removes exactly the
// quantities in snapshot, so lines committed after the snapshot was read
// survive. With no concurrent change it leaves the cart empty.
func (s *Store) ClearCheckedOut(ctx context.Context, snapshot models.Cart) (models.Cart, error) {
	return s.mutate(ctx, "clear", func(c models.Cart) models.Cart {
		return c.Without(snapshot)
	})
}

// mutate applies fn to the current durable cart, persists the result and only
// then broadcasts. On failure the cache is left at the last committed value
// and nothing is broadcast.
func (s *Store) mutate(ctx context.Context, op string, fn func(models.Cart) models.Cart) (models.Cart, error) {
	s.mu.Lock()

	current, stored, err := s.persistence.Read(ctx)
	if err != nil {
		cached := s.cached.Clone()
		s.mu.Unlock()
		s.metrics.Mutation(op, err)
		return cached, fmt.Errorf("%w: %s: %w", ErrPersist, op, err)
	}

	next := fn(current)
	// A clear must still overwrite an absent or malformed record.
	if next.Equal(current) && (stored || op != "clear") {
		s.cached = current
		s.mu.Unlock()
		s.metrics.Mutation(op, nil)
		return current.Clone(), nil
	}

	if err := s.persistence.Write(ctx, next); err != nil {
		cached := s.cached.Clone()
		s.mu.Unlock()
		s.metrics.Mutation(op, err)
		s.logger.Error("cart mutation rolled back", zap.String("op", op), zap.Error(err))
		return cached, fmt.Errorf("%w: %s: %w", ErrPersist, op, err)
	}

	s.cached = next
	s.mu.Unlock()

	s.metrics.Mutation(op, nil)
	s.metrics.CartUnits(next.TotalCount())
	s.logger.Debug("cart mutated",
		zap.String("op", op),
		zap.Int("lines", len(next.Items)),
		zap.Int("units", next.TotalCount()))

	s.notifier.Notify(Change{Source: SourceLocal})
	return next.Clone(), nil
}
