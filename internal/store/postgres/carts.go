package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/joao-fontenele/marketplace/internal/domain"
)

func (t *tx) CartByBuyer(ctx context.Context, buyerID string, lock bool) (*domain.Cart, error) {
	cart := &domain.Cart{}

	err := t.tx.QueryRowContext(ctx, `
		SELECT id, buyer_id, created_at, updated_at
		FROM carts
		WHERE buyer_id = $1`+lockClause(lock), buyerID).
		Scan(&cart.ID, &cart.BuyerID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	rows, err := t.tx.QueryContext(ctx, `
		SELECT ci.id, ci.cart_id, ci.product_id, p.title, ci.quantity, ci.price_snapshot, ci.created_at
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.created_at, ci.id
	`, cart.ID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	cart.Items = []domain.CartItem{}
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(&item.ID, &item.CartID, &item.ProductID, &item.ProductTitle,
			&item.Quantity, &item.PriceSnapshot, &item.CreatedAt); err != nil {
			return nil, err
		}
		cart.Items = append(cart.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return cart, nil
}

func (t *tx) CreateCart(ctx context.Context, buyerID string, now time.Time) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO carts (id, buyer_id, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (buyer_id) DO NOTHING
	`, uuid.New().String(), buyerID, now)
	return err
}

func (t *tx) TouchCart(ctx context.Context, cartID string, at time.Time) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE carts SET updated_at = $1
		WHERE id = $2
	`, at, cartID)
	return err
}

func (t *tx) AddCartItem(ctx context.Context, item domain.CartItem) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO cart_items (id, cart_id, product_id, quantity, price_snapshot, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
	`, uuid.New().String(), item.CartID, item.ProductID, item.Quantity, item.PriceSnapshot, item.CreatedAt)
	return err
}

func (t *tx) UpdateCartItemQuantity(ctx context.Context, cartID, productID string, qty int) (bool, error) {
	result, err := t.tx.ExecContext(ctx, `
		UPDATE cart_items SET quantity = $1
		WHERE cart_id = $2 AND product_id = $3
	`, qty, cartID, productID)
	if err != nil {
		return false, err
	}
	return affected(result)
}

func (t *tx) DeleteCartItem(ctx context.Context, cartID, productID string) error {
	_, err := t.tx.ExecContext(ctx, `
		DELETE FROM cart_items
		WHERE cart_id = $1 AND product_id = $2
	`, cartID, productID)
	return err
}

func (t *tx) DeleteCartItems(ctx context.Context, cartID string) error {
	_, err := t.tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	return err
}
