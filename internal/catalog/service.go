// Package catalog manages seller products: creation, updates, archiving and
// the public and per-seller listings the cart flow reads from.
package catalog

import (
	"context"
	"fmt"
	"strings"
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

// ProductInput carries the editable fields of a product. Status is ignored
// on create.
type ProductInput struct {
	Title       string
	Description string
	Price       *domain.Money
	Status      string
}

func (in ProductInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return domain.Validationf("title is required")
	}
	if in.Price == nil {
		return domain.Validationf("price is required")
	}
	if *in.Price < 0 {
		return domain.Validationf("price cannot be negative")
	}
	return nil
}

// Create stores a DRAFT product for the seller together with an empty
// inventory record.
func (s *Service) Create(ctx context.Context, sellerID string, in ProductInput) (*domain.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := s.now()
	product := &domain.Product{
		SellerID:    sellerID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Price:       *in.Price,
		Status:      domain.ProductStatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		if err := tx.InsertProduct(ctx, product); err != nil {
			return fmt.Errorf("insert product: %w", err)
		}
		if _, err := tx.UpsertInventoryQuantity(ctx, product.ID, 0, now); err != nil {
			return fmt.Errorf("create inventory for product %s: %w", product.ID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (s *Service) UpdateBySeller(ctx context.Context, sellerID, productID string, in ProductInput) (*domain.Product, error) {
	var product *domain.Product
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		var err error
		if product, err = authz.EnsureOwnsProduct(ctx, tx, sellerID, productID); err != nil {
			return err
		}
		return s.update(ctx, tx, product, in)
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (s *Service) UpdateByAdmin(ctx context.Context, productID string, in ProductInput) (*domain.Product, error) {
	var product *domain.Product
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		var err error
		if product, err = tx.ProductByID(ctx, productID); err != nil {
			return fmt.Errorf("load product %s: %w", productID, err)
		}
		if product == nil {
			return domain.NotFoundf("product not found: %s", productID)
		}
		return s.update(ctx, tx, product, in)
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

// update applies in to product. A missing status resets the product to DRAFT.
func (s *Service) update(ctx context.Context, tx store.CatalogTx, product *domain.Product, in ProductInput) error {
	if err := in.validate(); err != nil {
		return err
	}
	status, err := domain.ParseProductStatus(in.Status)
	if err != nil {
		return err
	}

	product.Title = strings.TrimSpace(in.Title)
	product.Description = in.Description
	product.Price = *in.Price
	product.Status = status
	product.UpdatedAt = s.now()

	updated, err := tx.UpdateProduct(ctx, product)
	if err != nil {
		return fmt.Errorf("update product %s: %w", product.ID, err)
	}
	if !updated {
		return domain.NotFoundf("product not found: %s", product.ID)
	}
	return nil
}

// ListPublic pages through ACTIVE products, newest first.
func (s *Service) ListPublic(ctx context.Context, req domain.PageRequest) (domain.ProductPage, error) {
	req = req.Normalize()

	var page domain.ProductPage
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		products, total, err := tx.ProductsByStatus(ctx, domain.ProductStatusActive, req)
		if err != nil {
			return fmt.Errorf("list active products: %w", err)
		}
		page = domain.NewProductPage(products, req, total)
		return nil
	})
	return page, err
}

// ListBySeller pages through every product of the seller, in any status,
// newest first.
func (s *Service) ListBySeller(ctx context.Context, sellerID string, req domain.PageRequest) (domain.ProductPage, error) {
	req = req.Normalize()

	var page domain.ProductPage
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		products, total, err := tx.ProductsBySeller(ctx, sellerID, req)
		if err != nil {
			return fmt.Errorf("list products for seller %s: %w", sellerID, err)
		}
		page = domain.NewProductPage(products, req, total)
		return nil
	})
	return page, err
}

func (s *Service) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	var product *domain.Product
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		var err error
		product, err = tx.ProductByID(ctx, productID)
		if err != nil {
			return fmt.Errorf("load product %s: %w", productID, err)
		}
		if product == nil {
			return domain.NotFoundf("product not found: %s", productID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

// ArchiveBySeller archives a product the seller owns. Archiving an archived
// product is a no-op apart from the timestamp.
func (s *Service) ArchiveBySeller(ctx context.Context, sellerID, productID string) error {
	return s.store.WithinTx(ctx, func(tx store.Tx) error {
		if _, err := authz.EnsureOwnsProduct(ctx, tx, sellerID, productID); err != nil {
			return err
		}
		return s.archive(ctx, tx, productID)
	})
}

func (s *Service) ArchiveByAdmin(ctx context.Context, productID string) error {
	return s.store.WithinTx(ctx, func(tx store.Tx) error {
		product, err := tx.ProductByID(ctx, productID)
		if err != nil {
			return fmt.Errorf("load product %s: %w", productID, err)
		}
		if product == nil {
			return domain.NotFoundf("product not found: %s", productID)
		}
		return s.archive(ctx, tx, productID)
	})
}

func (s *Service) archive(ctx context.Context, tx store.CatalogTx, productID string) error {
	updated, err := tx.UpdateProductStatus(ctx, productID, domain.ProductStatusArchived, s.now())
	if err != nil {
		return fmt.Errorf("archive product %s: %w", productID, err)
	}
	if !updated {
		return domain.NotFoundf("product not found: %s", productID)
	}
	return nil
}
