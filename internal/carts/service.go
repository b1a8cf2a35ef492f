// Package carts manages the single mutable cart each buyer owns.
package carts

import (
	"context"
	"errors"
	"fmt"
	"time"

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

// GetOrCreateCart returns the buyer's cart, creating an empty one on first
// access.
func (s *Service) GetOrCreateCart(ctx context.Context, buyerID string) (*domain.Cart, error) {
	if buyerID == "" {
		return nil, domain.Validationf("buyer id is required")
	}

	var cart *domain.Cart
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		var err error
		cart, err = LoadOrCreate(ctx, tx, buyerID, false, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// AddItem adds quantity units of the product, defaulting to one. The price
// is captured only when the line is first created.
func (s *Service) AddItem(ctx context.Context, buyerID, productID string, quantity *int) (*domain.Cart, error) {
	if productID == "" {
		return nil, domain.Validationf("product_id is required")
	}
	qty := domain.NormalizeAddQuantity(quantity)
	if qty > domain.MaxItemQuantity {
		return nil, domain.Validationf("quantity must not exceed %d", domain.MaxItemQuantity)
	}

	return s.mutate(ctx, buyerID, func(tx store.Tx, cart *domain.Cart, now time.Time) error {
		if cart.Quantity(productID) > domain.MaxItemQuantity-qty {
			return domain.Validationf("quantity must not exceed %d", domain.MaxItemQuantity)
		}

		product, err := tx.ProductByID(ctx, productID)
		if err != nil {
			return fmt.Errorf("load product %s: %w", productID, err)
		}
		if product == nil {
			return domain.Validationf("product not found: %s", productID)
		}
		if product.Archived() {
			return domain.Validationf("product is archived")
		}

		item := domain.CartItem{
			CartID:        cart.ID,
			ProductID:     product.ID,
			Quantity:      qty,
			PriceSnapshot: product.Price,
			CreatedAt:     now,
		}
		if err := tx.AddCartItem(ctx, item); err != nil {
			return fmt.Errorf("add cart item: %w", err)
		}
		return nil
	})
}

// SetQuantity overwrites the line's quantity without refreshing its price.
// A non-positive quantity removes the line; a positive one requires the line
// to exist.
func (s *Service) SetQuantity(ctx context.Context, buyerID, productID string, quantity int) (*domain.Cart, error) {
	if productID == "" {
		return nil, domain.Validationf("product_id is required")
	}
	if quantity > domain.MaxItemQuantity {
		return nil, domain.Validationf("quantity must not exceed %d", domain.MaxItemQuantity)
	}

	return s.mutate(ctx, buyerID, func(tx store.Tx, cart *domain.Cart, _ time.Time) error {
		if quantity <= 0 {
			if err := tx.DeleteCartItem(ctx, cart.ID, productID); err != nil {
				return fmt.Errorf("delete cart item: %w", err)
			}
			return nil
		}

		updated, err := tx.UpdateCartItemQuantity(ctx, cart.ID, productID, quantity)
		if err != nil {
			return fmt.Errorf("update cart item: %w", err)
		}
		if !updated {
			return domain.NotFoundf("cart item not found")
		}
		return nil
	})
}

func (s *Service) RemoveItem(ctx context.Context, buyerID, productID string) (*domain.Cart, error) {
	return s.mutate(ctx, buyerID, func(tx store.Tx, cart *domain.Cart, _ time.Time) error {
		if err := tx.DeleteCartItem(ctx, cart.ID, productID); err != nil {
			return fmt.Errorf("delete cart item: %w", err)
		}
		return nil
	})
}

func (s *Service) Clear(ctx context.Context, buyerID string) (*domain.Cart, error) {
	return s.mutate(ctx, buyerID, func(tx store.Tx, cart *domain.Cart, _ time.Time) error {
		if err := tx.DeleteCartItems(ctx, cart.ID); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		return nil
	})
}

// mutate runs fn against the buyer's locked cart, bumps the cart timestamp
// and returns the cart as stored afterwards.
func (s *Service) mutate(ctx context.Context, buyerID string, fn func(tx store.Tx, cart *domain.Cart, now time.Time) error) (*domain.Cart, error) {
	if buyerID == "" {
		return nil, domain.Validationf("buyer id is required")
	}

	var result *domain.Cart
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		now := s.now()
		cart, err := LoadOrCreate(ctx, tx, buyerID, true, now)
		if err != nil {
			return err
		}

		if err := fn(tx, cart, now); err != nil {
			return err
		}

		if err := tx.TouchCart(ctx, cart.ID, now); err != nil {
			return fmt.Errorf("touch cart: %w", err)
		}

		result, err = tx.CartByBuyer(ctx, buyerID, false)
		if err != nil {
			return fmt.Errorf("reload cart: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// LoadOrCreate returns the buyer's cart inside tx, inserting it first when
// the buyer has none.
func LoadOrCreate(ctx context.Context, tx store.CartTx, buyerID string, lock bool, now time.Time) (*domain.Cart, error) {
	cart, err := tx.CartByBuyer(ctx, buyerID, lock)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if cart != nil {
		return cart, nil
	}

	if err := tx.CreateCart(ctx, buyerID, now); err != nil {
		return nil, fmt.Errorf("create cart: %w", err)
	}

	cart, err = tx.CartByBuyer(ctx, buyerID, lock)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if cart == nil {
		return nil, errors.New("cart missing after create")
	}
	return cart, nil
}
