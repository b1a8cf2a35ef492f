package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/joao-fontenele/marketplace/internal/domain"
	"github.com/joao-fontenele/marketplace/internal/store"
)

// Lifecycle owns order status changes. Callers are expected to have checked
// the admin role already.
type Lifecycle struct {
	store store.Store
	now   func() time.Time
}

func NewLifecycle(s store.Store) *Lifecycle {
	return &Lifecycle{
		store: s,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// UpdateStatus sets the order's status to the upper-cased requested value.
// Only membership in the legal set is checked, not the previous status.
func (l *Lifecycle) UpdateStatus(ctx context.Context, orderID, requested string) (*domain.Order, error) {
	var order *domain.Order
	err := l.store.WithinTx(ctx, func(tx store.Tx) error {
		var err error
		order, err = tx.OrderByID(ctx, orderID)
		if err != nil {
			return fmt.Errorf("load order %s: %w", orderID, err)
		}
		if order == nil {
			return domain.NotFoundf("order not found: %s", orderID)
		}

		status, err := domain.ParseOrderStatus(requested)
		if err != nil {
			return err
		}

		now := l.now()
		updated, err := tx.UpdateOrderStatus(ctx, orderID, status, now)
		if err != nil {
			return fmt.Errorf("update order %s status: %w", orderID, err)
		}
		if !updated {
			return domain.NotFoundf("order not found: %s", orderID)
		}

		order.Status = status
		order.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}
