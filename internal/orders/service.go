package orders

import (
	"context"
	"fmt"

	"github.com/joao-fontenele/marketplace/internal/authz"
	"github.com/joao-fontenele/marketplace/internal/domain"
	"github.com/joao-fontenele/marketplace/internal/store"
)

// Service serves order reads for buyers and admins.
type Service struct {
	store store.Store
}

func NewService(s store.Store) *Service {
	return &Service{store: s}
}

// MyOrders lists the buyer's orders, newest first.
func (s *Service) MyOrders(ctx context.Context, buyerID string, req domain.PageRequest) (domain.OrderPage, error) {
	req = req.Normalize()

	var page domain.OrderPage
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		orders, total, err := tx.OrdersByBuyer(ctx, buyerID, req)
		if err != nil {
			return fmt.Errorf("list orders for buyer %s: %w", buyerID, err)
		}
		page = domain.NewOrderPage(orders, req, total)
		return nil
	})
	return page, err
}

// GetMyOrder returns the order only when buyerID placed it.
func (s *Service) GetMyOrder(ctx context.Context, buyerID, orderID string) (*domain.Order, error) {
	order, err := s.GetAnyOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := authz.EnsureOwnsOrder(buyerID, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Service) GetAnyOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	var order *domain.Order
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		var err error
		order, err = tx.OrderByID(ctx, orderID)
		if err != nil {
			return fmt.Errorf("load order %s: %w", orderID, err)
		}
		if order == nil {
			return domain.NotFoundf("order not found: %s", orderID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}
