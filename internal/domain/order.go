package domain

import (
	"strings"
	"time"
)

type OrderStatus string

const (
	OrderStatusCreated   OrderStatus = "CREATED"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusCompleted OrderStatus = "COMPLETED"
)

var orderStatuses = map[OrderStatus]struct{}{
	OrderStatusCreated:   {},
	OrderStatusPaid:      {},
	OrderStatusShipped:   {},
	OrderStatusCancelled: {},
	OrderStatusCompleted: {},
}

// ParseOrderStatus upper-cases s and checks it against the legal set.
// Any legal status may follow any other.
func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := orderStatuses[status]; !ok {
		return "", Validationf("invalid status: %s", s)
	}
	return status, nil
}

func (s OrderStatus) Valid() bool {
	_, ok := orderStatuses[s]
	return ok
}

type OrderItem struct {
	ID            string    `json:"id"`
	OrderID       string    `json:"order_id"`
	ProductID     string    `json:"product_id"`
	ProductTitle  string    `json:"product_title"`
	SellerID      string    `json:"seller_id"`
	Quantity      int       `json:"quantity"`
	PriceSnapshot Money     `json:"price_snapshot"`
	CreatedAt     time.Time `json:"created_at"`
}

func (i OrderItem) Subtotal() Money {
	return i.PriceSnapshot.Times(i.Quantity)
}

type Order struct {
	ID          string      `json:"id"`
	BuyerID     string      `json:"buyer_id"`
	Status      OrderStatus `json:"status"`
	TotalAmount Money       `json:"total_amount"`
	Items       []OrderItem `json:"items"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

func (o *Order) OwnedBy(userID string) bool {
	return o.BuyerID == userID
}

// SellerIDs returns the distinct sellers of the order's lines in first-seen
// order.
func (o *Order) SellerIDs() []string {
	seen := make(map[string]struct{}, len(o.Items))
	var ids []string
	for _, item := range o.Items {
		if _, ok := seen[item.SellerID]; ok {
			continue
		}
		seen[item.SellerID] = struct{}{}
		ids = append(ids, item.SellerID)
	}
	return ids
}

type PageRequest struct {
	Page int
	Size int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Normalize clamps the request to a valid page window.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

type OrderPage struct {
	Orders        []Order `json:"content"`
	Page          int     `json:"page"`
	Size          int     `json:"size"`
	TotalElements int     `json:"total_elements"`
	TotalPages    int     `json:"total_pages"`
}

func (p PageRequest) pages(total int) int {
	if p.Size <= 0 {
		return 0
	}
	return (total + p.Size - 1) / p.Size
}

func NewOrderPage(orders []Order, req PageRequest, total int) OrderPage {
	if orders == nil {
		orders = []Order{}
	}
	return OrderPage{
		Orders:        orders,
		Page:          req.Page,
		Size:          req.Size,
		TotalElements: total,
		TotalPages:    req.pages(total),
	}
}
