package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/joao-fontenele/marketplace/internal/domain"
)

func (t *tx) InventoryByProduct(ctx context.Context, productID string) (*domain.Inventory, error) {
	inv := &domain.Inventory{}

	err := t.tx.QueryRowContext(ctx, `
		SELECT product_id, quantity, reserved, updated_at
		FROM inventory
		WHERE product_id = $1
	`, productID).Scan(&inv.ProductID, &inv.Quantity, &inv.Reserved, &inv.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return inv, nil
}

func (t *tx) UpsertInventoryQuantity(ctx context.Context, productID string, qty int, at time.Time) (*domain.Inventory, error) {
	inv := &domain.Inventory{}

	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO inventory (product_id, quantity, reserved, updated_at)
		VALUES ($1, $2, 0, $3)
		ON CONFLICT (product_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = EXCLUDED.updated_at
		RETURNING product_id, quantity, reserved, updated_at
	`, productID, qty, at).Scan(&inv.ProductID, &inv.Quantity, &inv.Reserved, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return inv, nil
}
