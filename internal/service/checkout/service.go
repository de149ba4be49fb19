package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/medimart-cart/internal/domain/models"
	"github.com/mamadbah2/medimart-cart/internal/service/cart"
)

const dateLayout = "2006-01-02 15:04:05"

// ErrEmptyCart is returned when there is nothing to check out.
var ErrEmptyCart = errors.New("cart is empty")

// Ledger records completed checkouts.
type Ledger interface {
	AppendRows(ctx context.Context, sheetRange string, rows [][]interface{}) error
}

// Service hands the current cart to checkout and clears it afterwards.
type Service struct {
	store      *cart.Store
	ledger     Ledger
	sheetRange string
	logger     *zap.Logger
	now        func() time.Time
}

// NewService wires a checkout service. ledger may be nil, in which case
// checkouts are only logged.
func NewService(store *cart.Store, ledger Ledger, sheetRange string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:      store,
		ledger:     ledger,
		sheetRange: sheetRange,
		logger:     logger,
		now:        time.Now,
	}
}

// Complete records the cart under reference and then clears the recorded
// lines. The cart is left untouched if the ledger write fails.
func (s *Service) Complete(ctx context.Context, reference string) (models.CheckoutReceipt, error) {
	if reference == "" {
		return models.CheckoutReceipt{}, errors.New("checkout reference must not be empty")
	}

	current := s.store.Load(ctx)
	if current.IsEmpty() {
		return models.CheckoutReceipt{}, ErrEmptyCart
	}

	completedAt := s.now().UTC()
	receipt := models.CheckoutReceipt{
		Reference:   reference,
		CompletedAt: completedAt,
		Lines:       len(current.Items),
		Units:       current.TotalCount(),
		Total:       current.Subtotal(),
	}

	if s.ledger != nil {
		if err := s.ledger.AppendRows(ctx, s.sheetRange, ledgerRows(reference, completedAt, current)); err != nil {
			return models.CheckoutReceipt{}, fmt.Errorf("record checkout %s: %w", reference, err)
		}
	}

	remaining, err := s.store.ClearCheckedOut(ctx, current)
	if err != nil {
		s.logger.Error("checkout recorded but cart not cleared",
			zap.String("reference", reference),
			zap.Error(err))
		return receipt, fmt.Errorf("clear cart after checkout %s: %w", reference, err)
	}
	if !remaining.IsEmpty() {
		s.logger.Info("items added during checkout kept in cart",
			zap.String("reference", reference),
			zap.Int("units", remaining.TotalCount()))
	}

	s.logger.Info("checkout completed",
		zap.String("reference", reference),
		zap.Int("lines", receipt.Lines),
		zap.Int("units", receipt.Units),
		zap.String("total", receipt.Total.String()))

	return receipt, nil
}

func ledgerRows(reference string, at time.Time, c models.Cart) [][]interface{} {
	rows := make([][]interface{}, 0, len(c.Items))
	for _, item := range c.Items {
		rows = append(rows, []interface{}{
			at.Format(dateLayout),
			reference,
			item.ID,
			item.Name,
			item.Company,
			item.Quantity,
			item.Price.String(),
			item.LineTotal().String(),
		})
	}
	return rows
}
