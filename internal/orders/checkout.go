// Package orders turns carts into immutable orders and manages them
// afterwards.
package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/joao-fontenele/marketplace/internal/domain"
	"github.com/joao-fontenele/marketplace/internal/store"
)

var (
	tracer = otel.Tracer("marketplace/orders")
	meter  = otel.Meter("marketplace/orders")
)

type CheckoutEngine struct {
	store    store.Store
	topic    string
	now      func() time.Time
	orders   metric.Int64Counter
	failures metric.Int64Counter
	amount   metric.Int64Histogram
}

// NewCheckoutEngine returns an engine that enqueues order-created events for
// topic. An empty topic means domain.TopicOrderCreated.
func NewCheckoutEngine(s store.Store, topic string) (*CheckoutEngine, error) {
	if topic == "" {
		topic = domain.TopicOrderCreated
	}

	orders, err := meter.Int64Counter("marketplace.checkout.orders",
		metric.WithDescription("Orders created by checkout."))
	if err != nil {
		return nil, err
	}
	failures, err := meter.Int64Counter("marketplace.checkout.failures",
		metric.WithDescription("Checkouts that did not create an order."))
	if err != nil {
		return nil, err
	}
	amount, err := meter.Int64Histogram("marketplace.checkout.amount",
		metric.WithDescription("Order total in minor currency units."))
	if err != nil {
		return nil, err
	}

	return &CheckoutEngine{
		store:    s,
		topic:    topic,
		now:      func() time.Time { return time.Now().UTC() },
		orders:   orders,
		failures: failures,
		amount:   amount,
	}, nil
}

// Checkout converts the buyer's cart into a CREATED order and empties the
// cart in the same transaction. Prices come from the cart's snapshots; the
// seller is read from the product as it is now. Stock is not checked.
func (e *CheckoutEngine) Checkout(ctx context.Context, buyerID string) (*domain.Order, error) {
	ctx, span := tracer.Start(ctx, "checkout")
	defer span.End()
	span.SetAttributes(attribute.String("buyer.id", buyerID))

	var order *domain.Order
	err := e.store.WithinTx(ctx, func(tx store.Tx) error {
		cart, err := tx.CartByBuyer(ctx, buyerID, true)
		if err != nil {
			return fmt.Errorf("load cart: %w", err)
		}
		if cart == nil || cart.Empty() {
			return domain.Validationf("cart is empty")
		}

		now := e.now()
		order, err = buildOrder(ctx, tx, cart, now)
		if err != nil {
			return err
		}

		if err := tx.InsertOrder(ctx, order); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		if err := enqueueOrderCreated(ctx, tx, e.topic, order); err != nil {
			return err
		}

		if err := tx.DeleteCartItems(ctx, cart.ID); err != nil {
			return fmt.Errorf("empty cart: %w", err)
		}
		if err := tx.TouchCart(ctx, cart.ID, now); err != nil {
			return fmt.Errorf("touch cart: %w", err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.failures.Add(ctx, 1)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("order.id", order.ID),
		attribute.Int("order.items", len(order.Items)),
	)
	e.orders.Add(ctx, 1)
	e.amount.Record(ctx, int64(order.TotalAmount))

	return order, nil
}

func buildOrder(ctx context.Context, tx store.CatalogTx, cart *domain.Cart, now time.Time) (*domain.Order, error) {
	order := &domain.Order{
		BuyerID:   cart.BuyerID,
		Status:    domain.OrderStatusCreated,
		Items:     make([]domain.OrderItem, 0, len(cart.Items)),
		CreatedAt: now,
		UpdatedAt: now,
	}

	var total domain.Money
	for _, line := range cart.Items {
		product, err := tx.ProductByID(ctx, line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("load product %s: %w", line.ProductID, err)
		}
		if product == nil {
			return nil, domain.NotFoundf("product not found: %s", line.ProductID)
		}

		item := domain.OrderItem{
			ProductID:     line.ProductID,
			ProductTitle:  product.Title,
			SellerID:      product.SellerID,
			Quantity:      line.Quantity,
			PriceSnapshot: line.PriceSnapshot,
			CreatedAt:     now,
		}
		order.Items = append(order.Items, item)
		total += item.Subtotal()
	}
	order.TotalAmount = total

	return order, nil
}

func enqueueOrderCreated(ctx context.Context, tx store.OutboxTx, topic string, order *domain.Order) error {
	eventID := uuid.New().String()
	payload, err := json.Marshal(domain.NewOrderCreatedEvent(eventID, order))
	if err != nil {
		return fmt.Errorf("marshal order created event: %w", err)
	}

	if err := tx.EnqueueEvent(ctx, store.OutboxRecord{
		EventID:   eventID,
		Topic:     topic,
		Key:       order.ID,
		Payload:   payload,
		CreatedAt: order.CreatedAt,
	}); err != nil {
		return fmt.Errorf("enqueue order created event: %w", err)
	}
	return nil
}
