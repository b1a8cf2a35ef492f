// Package store defines the transactional persistence contract shared by the
// cart, order, catalog and inventory services. Every operation of those
// services runs inside exactly one Store.WithinTx call, so a failure at any
// step leaves no partial writes behind.
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/joao-fontenele/marketplace/internal/domain"
)

type Store interface {
	// WithinTx runs fn in a single transaction. The transaction commits when
	// fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

type Tx interface {
	CartTx
	OrderTx
	CatalogTx
	InventoryTx
	OutboxTx
}

// Read methods return nil, nil when the row does not exist. Update methods
// report whether a row was affected.

type CartTx interface {
	// CartByBuyer loads the buyer's cart and its items. With lock set the cart
	// row stays locked until the transaction ends.
	CartByBuyer(ctx context.Context, buyerID string, lock bool) (*domain.Cart, error)
	// CreateCart inserts an empty cart unless the buyer already has one.
	CreateCart(ctx context.Context, buyerID string, now time.Time) error
	TouchCart(ctx context.Context, cartID string, at time.Time) error
	// AddCartItem inserts the line, or adds item.Quantity onto the existing
	// line for the same product. The existing price snapshot is kept.
	AddCartItem(ctx context.Context, item domain.CartItem) error
	UpdateCartItemQuantity(ctx context.Context, cartID, productID string, qty int) (bool, error)
	DeleteCartItem(ctx context.Context, cartID, productID string) error
	DeleteCartItems(ctx context.Context, cartID string) error
}

type OrderTx interface {
	// InsertOrder writes the order and all of its items, assigning ids.
	InsertOrder(ctx context.Context, order *domain.Order) error
	OrderByID(ctx context.Context, id string) (*domain.Order, error)
	OrdersByBuyer(ctx context.Context, buyerID string, page domain.PageRequest) ([]domain.Order, int, error)
	UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus, at time.Time) (bool, error)
}

type CatalogTx interface {
	// InsertProduct writes the product, assigning its id.
	InsertProduct(ctx context.Context, product *domain.Product) error
	ProductByID(ctx context.Context, id string) (*domain.Product, error)
	ProductByIDAndSeller(ctx context.Context, id, sellerID string) (*domain.Product, error)
	// UpdateProduct overwrites title, description, price, status and
	// updated_at of the product with product.ID.
	UpdateProduct(ctx context.Context, product *domain.Product) (bool, error)
	UpdateProductStatus(ctx context.Context, id string, status domain.ProductStatus, at time.Time) (bool, error)
	// ProductsByStatus and ProductsBySeller return one page, newest first,
	// and the total count.
	ProductsByStatus(ctx context.Context, status domain.ProductStatus, page domain.PageRequest) ([]domain.Product, int, error)
	ProductsBySeller(ctx context.Context, sellerID string, page domain.PageRequest) ([]domain.Product, int, error)
}

type InventoryTx interface {
	InventoryByProduct(ctx context.Context, productID string) (*domain.Inventory, error)
	UpsertInventoryQuantity(ctx context.Context, productID string, qty int, at time.Time) (*domain.Inventory, error)
}

type OutboxTx interface {
	EnqueueEvent(ctx context.Context, rec OutboxRecord) error
}

type OutboxRecord struct {
	ID        int64           `json:"id"`
	EventID   string          `json:"event_id"`
	Topic     string          `json:"topic"`
	Key       string          `json:"key"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	SentAt    *time.Time      `json:"sent_at"`
}
