// Package inventory stores the stock quantity recorded for each product.
// Quantities are informational; nothing reserves or decrements them.
package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/joao-fontenele/marketplace/internal/authz"
	"github.com/joao-fontenele/marketplace/internal/domain"
	"github.com/joao-fontenele/marketplace/internal/store"
)

type Service struct {
	store store.Store
	now   func() time.Time
}

func NewService(s store.Store) *Service {
	return &Service{
		store: s,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) GetByProduct(ctx context.Context, productID string) (*domain.Inventory, error) {
	var inv *domain.Inventory
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		var err error
		inv, err = tx.InventoryByProduct(ctx, productID)
		if err != nil {
			return fmt.Errorf("load inventory for product %s: %w", productID, err)
		}
		if inv == nil {
			return domain.NotFoundf("inventory not found for product: %s", productID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// SetQuantityBySeller overwrites the stock of a product the seller owns.
// A nil quantity is treated as zero.
func (s *Service) SetQuantityBySeller(ctx context.Context, sellerID, productID string, quantity *int) (*domain.Inventory, error) {
	var inv *domain.Inventory
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		if _, err := authz.EnsureOwnsProduct(ctx, tx, sellerID, productID); err != nil {
			return err
		}
		var err error
		inv, err = s.upsert(ctx, tx, productID, quantity)
		return err
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *Service) SetQuantityByAdmin(ctx context.Context, productID string, quantity *int) (*domain.Inventory, error) {
	var inv *domain.Inventory
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		product, err := tx.ProductByID(ctx, productID)
		if err != nil {
			return fmt.Errorf("load product %s: %w", productID, err)
		}
		if product == nil {
			return domain.NotFoundf("product not found: %s", productID)
		}
		inv, err = s.upsert(ctx, tx, productID, quantity)
		return err
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *Service) upsert(ctx context.Context, tx store.InventoryTx, productID string, quantity *int) (*domain.Inventory, error) {
	qty := 0
	if quantity != nil {
		qty = *quantity
	}
	if qty < 0 {
		return nil, domain.Validationf("quantity cannot be negative")
	}

	inv, err := tx.UpsertInventoryQuantity(ctx, productID, qty, s.now())
	if err != nil {
		return nil, fmt.Errorf("set inventory for product %s: %w", productID, err)
	}
	return inv, nil
}
