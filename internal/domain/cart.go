package domain

import (
	"math"
	"time"
)

const (
	// DefaultAddQuantity is used when an add-to-cart request carries no
	// quantity, or a non-positive one.
	DefaultAddQuantity = 1
	// MaxItemQuantity bounds a single cart line to the quantity column.
	MaxItemQuantity = math.MaxInt32
)

type CartItem struct {
	ID            string    `json:"id"`
	CartID        string    `json:"cart_id"`
	ProductID     string    `json:"product_id"`
	ProductTitle  string    `json:"product_title"`
	Quantity      int       `json:"quantity"`
	PriceSnapshot Money     `json:"price_snapshot"`
	CreatedAt     time.Time `json:"created_at"`
}

func (i CartItem) Subtotal() Money {
	return i.PriceSnapshot.Times(i.Quantity)
}

type Cart struct {
	ID        string     `json:"id"`
	BuyerID   string     `json:"buyer_id"`
	Items     []CartItem `json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Total sums every line at its frozen price.
func (c *Cart) Total() Money {
	var total Money
	for _, item := range c.Items {
		total += item.Subtotal()
	}
	return total
}

// Quantity returns how many units of productID the cart holds.
func (c *Cart) Quantity(productID string) int {
	for _, item := range c.Items {
		if item.ProductID == productID {
			return item.Quantity
		}
	}
	return 0
}

func (c *Cart) Empty() bool {
	return len(c.Items) == 0
}

// NormalizeAddQuantity applies the add-to-cart defaulting rule: a missing or
// non-positive quantity adds one unit.
func NormalizeAddQuantity(qty *int) int {
	if qty == nil || *qty <= 0 {
		return DefaultAddQuantity
	}
	return *qty
}
