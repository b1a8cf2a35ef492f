package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/joao-fontenele/marketplace/internal/domain"
)

func (t *tx) InsertOrder(ctx context.Context, order *domain.Order) error {
	order.ID = uuid.New().String()

	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO orders (id, buyer_id, status, total_amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, order.ID, order.BuyerID, order.Status, order.TotalAmount, order.CreatedAt, order.UpdatedAt)
	if err != nil {
		return err
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.ID = uuid.New().String()
		item.OrderID = order.ID
		_, err = t.tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, seller_id, product_title, quantity, price_snapshot, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, item.ID, item.OrderID, item.ProductID, item.SellerID, item.ProductTitle, item.Quantity, item.PriceSnapshot, item.CreatedAt)
		if err != nil {
			return err
		}
	}

	return nil
}

func (t *tx) OrderByID(ctx context.Context, id string) (*domain.Order, error) {
	order := &domain.Order{}

	err := t.tx.QueryRowContext(ctx, `
		SELECT id, buyer_id, status, total_amount, created_at, updated_at
		FROM orders
		WHERE id = $1
	`, id).Scan(&order.ID, &order.BuyerID, &order.Status, &order.TotalAmount, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	rows, err := t.tx.QueryContext(ctx, `
		SELECT id, order_id, product_id, seller_id, product_title, quantity, price_snapshot, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at, id
	`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	order.Items = []domain.OrderItem{}
	for rows.Next() {
		item, err := scanOrderItem(rows)
		if err != nil {
			return nil, err
		}
		order.Items = append(order.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return order, nil
}

func (t *tx) OrdersByBuyer(ctx context.Context, buyerID string, page domain.PageRequest) ([]domain.Order, int, error) {
	var total int
	if err := t.tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM orders WHERE buyer_id = $1
	`, buyerID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := t.tx.QueryContext(ctx, `
		SELECT id, buyer_id, status, total_amount, created_at, updated_at
		FROM orders
		WHERE buyer_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, buyerID, page.Size, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = rows.Close() }()

	orderMap := make(map[string]*domain.Order)
	var orderIDs []string

	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(&order.ID, &order.BuyerID, &order.Status, &order.TotalAmount, &order.CreatedAt, &order.UpdatedAt); err != nil {
			return nil, 0, err
		}
		order.Items = []domain.OrderItem{}
		orderMap[order.ID] = &order
		orderIDs = append(orderIDs, order.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if len(orderIDs) == 0 {
		return []domain.Order{}, total, nil
	}

	itemRows, err := t.tx.QueryContext(ctx, `
		SELECT id, order_id, product_id, seller_id, product_title, quantity, price_snapshot, created_at
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY created_at, id
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = itemRows.Close() }()

	for itemRows.Next() {
		item, err := scanOrderItem(itemRows)
		if err != nil {
			return nil, 0, err
		}
		order := orderMap[item.OrderID]
		order.Items = append(order.Items, item)
	}

	if err := itemRows.Err(); err != nil {
		return nil, 0, err
	}

	orders := make([]domain.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		orders = append(orders, *orderMap[id])
	}

	return orders, total, nil
}

func (t *tx) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus, at time.Time) (bool, error) {
	result, err := t.tx.ExecContext(ctx, `
		UPDATE orders SET status = $1, updated_at = $2
		WHERE id = $3
	`, status, at, id)
	if err != nil {
		return false, err
	}
	return affected(result)
}

func scanOrderItem(rows *sql.Rows) (domain.OrderItem, error) {
	var item domain.OrderItem
	err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.SellerID, &item.ProductTitle,
		&item.Quantity, &item.PriceSnapshot, &item.CreatedAt)
	return item, err
}
