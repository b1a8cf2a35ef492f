package domain

import (
	"strings"
	"time"
)

type ProductStatus string

const (
	ProductStatusDraft    ProductStatus = "DRAFT"
	ProductStatusActive   ProductStatus = "ACTIVE"
	ProductStatusArchived ProductStatus = "ARCHIVED"
)

type Product struct {
	ID          string        `json:"id"`
	SellerID    string        `json:"seller_id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Price       Money         `json:"price"`
	Status      ProductStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// ParseProductStatus upper-cases s and checks it against the product
// lifecycle. An empty status means DRAFT.
func ParseProductStatus(s string) (ProductStatus, error) {
	status := ProductStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch status {
	case "":
		return ProductStatusDraft, nil
	case ProductStatusDraft, ProductStatusActive, ProductStatusArchived:
		return status, nil
	}
	return "", Validationf("invalid status: %s", s)
}

// Archived reports whether the product has left the sellable lifecycle.
// Stored statuses are compared case-insensitively.
func (p *Product) Archived() bool {
	return strings.EqualFold(string(p.Status), string(ProductStatusArchived))
}

type Inventory struct {
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Reserved  int       `json:"reserved"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ProductPage struct {
	Products      []Product `json:"content"`
	Page          int       `json:"page"`
	Size          int       `json:"size"`
	TotalElements int       `json:"total_elements"`
	TotalPages    int       `json:"total_pages"`
}

func NewProductPage(products []Product, req PageRequest, total int) ProductPage {
	if products == nil {
		products = []Product{}
	}
	return ProductPage{
		Products:      products,
		Page:          req.Page,
		Size:          req.Size,
		TotalElements: total,
		TotalPages:    req.pages(total),
	}
}
