// Package authz holds the ownership predicates used by seller- and
// buyer-scoped operations. They never mutate state.
package authz

import (
	"context"
	"fmt"

	"github.com/joao-fontenele/marketplace/internal/domain"
)

type SellerProductLookup interface {
	ProductByIDAndSeller(ctx context.Context, id, sellerID string) (*domain.Product, error)
}

// EnsureOwnsProduct returns the product when userID is its seller. A missing
// product and a product owned by someone else fail identically so callers
// cannot test whether a product exists.
func EnsureOwnsProduct(ctx context.Context, products SellerProductLookup, userID, productID string) (*domain.Product, error) {
	product, err := products.ProductByIDAndSeller(ctx, productID, userID)
	if err != nil {
		return nil, fmt.Errorf("load product %s for seller %s: %w", productID, userID, err)
	}
	if product == nil {
		return nil, domain.AccessDeniedf("no access to product or not found")
	}
	return product, nil
}

func EnsureOwnsOrder(userID string, order *domain.Order) error {
	if order == nil || !order.OwnedBy(userID) {
		return domain.AccessDeniedf("not your order")
	}
	return nil
}
