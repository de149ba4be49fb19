package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/medimart-cart/internal/domain/models"
	"github.com/mamadbah2/medimart-cart/internal/repository"
)

// ErrUnavailable wraps backend failures while reading the record.
var ErrUnavailable = errors.New("cart record unavailable")

// recordItem is the on-disk shape of a line. Quantity is a pointer so records
// written before quantities existed still decode, as one unit. Price is a JSON
// number, as the storefront writes it; quoted numbers are accepted on read.
type recordItem struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Company     string      `json:"company"`
	Image       string      `json:"image"`
	Description string      `json:"description"`
	Price       json.Number `json:"price"`
	Quantity    *int        `json:"quantity,omitempty"`
	Stock       int         `json:"stock"`
}

// Persistence serializes the cart into a single slot as a JSON array of lines.
type Persistence struct {
	slot   repository.Slot
	logger *zap.Logger
}

// NewPersistence wraps slot.
func NewPersistence(slot repository.Slot, logger *zap.Logger) *Persistence {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Persistence{slot: slot, logger: logger}
}

// Key returns the storage key of the underlying slot.
func (p *Persistence) Key() string {
	return p.slot.Key()
}

// Read returns the stored cart. ok is false when the record is absent or
// malformed. err is only set when the backend itself could not be reached.
func (p *Persistence) Read(ctx context.Context) (cart models.Cart, ok bool, err error) {
	payload, err := p.slot.Read(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return models.EmptyCart(), false, nil
	}
	if err != nil {
		return models.EmptyCart(), false, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	cart, err = Decode(payload)
	if err != nil {
		p.logger.Warn("discarding malformed cart record", zap.String("key", p.slot.Key()), zap.Error(err))
		return models.EmptyCart(), false, nil
	}
	return cart, true, nil
}

// Write replaces the stored record with cart.
func (p *Persistence) Write(ctx context.Context, cart models.Cart) error {
	payload, err := Encode(cart)
	if err != nil {
		return err
	}
	if err := p.slot.Write(ctx, payload); err != nil {
		return fmt.Errorf("write cart record %s: %w", p.slot.Key(), err)
	}
	return nil
}

// Encode renders the cart record.
func Encode(cart models.Cart) ([]byte, error) {
	items := make([]recordItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		qty := item.Quantity
		items = append(items, recordItem{
			ID:          item.ID,
			Name:        item.Name,
			Company:     item.Company,
			Image:       item.Image,
			Description: item.Description,
			Price:       json.Number(item.Price.String()),
			Quantity:    &qty,
			Stock:       item.Stock,
		})
	}

	payload, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("marshal cart record: %w", err)
	}
	return payload, nil
}

// Decode parses a cart record and enforces the cart invariants. Unknown fields
// are ignored.
func Decode(payload []byte) (models.Cart, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return models.Cart{}, errors.New("empty record")
	}

	var items []recordItem
	if err := json.Unmarshal(payload, &items); err != nil {
		return models.Cart{}, fmt.Errorf("unmarshal cart record: %w", err)
	}

	cart := models.Cart{Items: make([]models.CartItem, 0, len(items))}
	seen := make(map[string]struct{}, len(items))
	for i, raw := range items {
		if raw.ID == "" {
			return models.Cart{}, fmt.Errorf("item %d has no id", i)
		}
		if _, dup := seen[raw.ID]; dup {
			return models.Cart{}, fmt.Errorf("duplicate item id %q", raw.ID)
		}
		seen[raw.ID] = struct{}{}

		qty := 1
		if raw.Quantity != nil {
			qty = *raw.Quantity
		}
		if qty < 1 {
			return models.Cart{}, fmt.Errorf("item %q has quantity %d", raw.ID, qty)
		}

		price := decimal.Zero
		if raw.Price != "" {
			parsed, err := decimal.NewFromString(raw.Price.String())
			if err != nil {
				return models.Cart{}, fmt.Errorf("item %q has price %q: %w", raw.ID, raw.Price, err)
			}
			price = parsed
		}

		cart.Items = append(cart.Items, models.CartItem{
			ID:          raw.ID,
			Name:        raw.Name,
			Company:     raw.Company,
			Image:       raw.Image,
			Description: raw.Description,
			Price:       price,
			Quantity:    qty,
			Stock:       raw.Stock,
		})
	}
	return cart, nil
}
