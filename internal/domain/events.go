package domain

import "time"

const TopicOrderCreated = "order.created"

type OrderCreatedItem struct {
	ProductID     string `json:"product_id"`
	ProductTitle  string `json:"product_title"`
	SellerID      string `json:"seller_id"`
	Quantity      int    `json:"quantity"`
	PriceSnapshot Money  `json:"price_snapshot"`
}

type OrderCreatedEvent struct {
	EventID     string             `json:"event_id"`
	OrderID     string             `json:"order_id"`
	BuyerID     string             `json:"buyer_id"`
	TotalAmount Money              `json:"total_amount"`
	Items       []OrderCreatedItem `json:"items"`
	Timestamp   time.Time          `json:"timestamp"`
}

func NewOrderCreatedEvent(eventID string, order *Order) OrderCreatedEvent {
	items := make([]OrderCreatedItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderCreatedItem{
			ProductID:     item.ProductID,
			ProductTitle:  item.ProductTitle,
			SellerID:      item.SellerID,
			Quantity:      item.Quantity,
			PriceSnapshot: item.PriceSnapshot,
		})
	}
	return OrderCreatedEvent{
		EventID:     eventID,
		OrderID:     order.ID,
		BuyerID:     order.BuyerID,
		TotalAmount: order.TotalAmount,
		Items:       items,
		Timestamp:   order.CreatedAt,
	}
}
