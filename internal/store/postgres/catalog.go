package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/joao-fontenele/marketplace/internal/domain"
)

const productColumns = `id, seller_id, title, description, price, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func (t *tx) InsertProduct(ctx context.Context, product *domain.Product) error {
	product.ID = uuid.New().String()

	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, product.ID, product.SellerID, product.Title, product.Description, product.Price,
		product.Status, product.CreatedAt, product.UpdatedAt)
	return err
}

func (t *tx) ProductByID(ctx context.Context, id string) (*domain.Product, error) {
	return scanProductRow(t.tx.QueryRowContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = $1
	`, id))
}

func (t *tx) ProductByIDAndSeller(ctx context.Context, id, sellerID string) (*domain.Product, error) {
	return scanProductRow(t.tx.QueryRowContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = $1 AND seller_id = $2
	`, id, sellerID))
}

func (t *tx) UpdateProduct(ctx context.Context, product *domain.Product) (bool, error) {
	result, err := t.tx.ExecContext(ctx, `
		UPDATE products
		SET title = $1, description = $2, price = $3, status = $4, updated_at = $5
		WHERE id = $6
	`, product.Title, product.Description, product.Price, product.Status, product.UpdatedAt, product.ID)
	if err != nil {
		return false, err
	}
	return affected(result)
}

func (t *tx) UpdateProductStatus(ctx context.Context, id string, status domain.ProductStatus, at time.Time) (bool, error) {
	result, err := t.tx.ExecContext(ctx, `
		UPDATE products SET status = $1, updated_at = $2
		WHERE id = $3
	`, status, at, id)
	if err != nil {
		return false, err
	}
	return affected(result)
}

func (t *tx) ProductsByStatus(ctx context.Context, status domain.ProductStatus, page domain.PageRequest) ([]domain.Product, int, error) {
	return t.listProducts(ctx, `status = $1`, string(status), page)
}

func (t *tx) ProductsBySeller(ctx context.Context, sellerID string, page domain.PageRequest) ([]domain.Product, int, error) {
	return t.listProducts(ctx, `seller_id = $1`, sellerID, page)
}

// listProducts pages through products matching a single-argument filter.
func (t *tx) listProducts(ctx context.Context, filter, arg string, page domain.PageRequest) ([]domain.Product, int, error) {
	var total int
	if err := t.tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM products WHERE `+filter, arg).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := t.tx.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE `+filter+`
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, arg, page.Size, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = rows.Close() }()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

func scanProductRow(row *sql.Row) (*domain.Product, error) {
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	p := &domain.Product{}
	err := row.Scan(&p.ID, &p.SellerID, &p.Title, &p.Description, &p.Price, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}
