// Package worker reacts to marketplace events consumed from the broker.
package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/joao-fontenele/marketplace/internal/cache"
	"github.com/joao-fontenele/marketplace/internal/domain"
)

const processedTTL = 7 * 24 * time.Hour

// NotificationHandler emails the buyer a confirmation and each seller the
// lines they have to fulfil when an order is created.
type NotificationHandler struct {
	emailServiceURL string
	httpClient      *http.Client
	processed       cache.Cache
	logger          *slog.Logger
}

// NewNotificationHandler builds the handler. processed may be nil, in which
// case redelivered events send their emails again.
func NewNotificationHandler(emailServiceURL string, client *http.Client, processed cache.Cache, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		emailServiceURL: emailServiceURL,
		httpClient:      client,
		processed:       processed,
		logger:          logger,
	}
}

type email struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (h *NotificationHandler) Handle(ctx context.Context, payload []byte) error {
	var event domain.OrderCreatedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order created event: %w", err)
	}

	h.logger.InfoContext(ctx, "processing order created event", "order_id", event.OrderID, "buyer_id", event.BuyerID, "event_id", event.EventID)

	key := ""
	if h.processed != nil && event.EventID != "" {
		key = h.processed.GenerateKey("order-created", event.EventID)
		seen, err := h.processed.Get(ctx, key)
		if err != nil {
			h.logger.WarnContext(ctx, "failed to check processed events", "error", err, "event_id", event.EventID)
		} else if seen != "" {
			h.logger.InfoContext(ctx, "skipping already processed event", "event_id", event.EventID)
			return nil
		}
	}

	for _, msg := range notificationsFor(event) {
		if err := h.sendEmail(ctx, msg); err != nil {
			h.logger.ErrorContext(ctx, "failed to send email", "error", err, "order_id", event.OrderID, "to", msg.To)
			return fmt.Errorf("send email to %s: %w", msg.To, err)
		}
	}

	if key != "" {
		if err := h.processed.Set(ctx, key, event.OrderID, processedTTL); err != nil {
			h.logger.WarnContext(ctx, "failed to record processed event", "error", err, "event_id", event.EventID)
		}
	}

	h.logger.InfoContext(ctx, "order notifications sent", "order_id", event.OrderID)
	return nil
}

// notificationsFor returns the buyer confirmation followed by one email per
// seller, sellers sorted by id.
func notificationsFor(event domain.OrderCreatedEvent) []email {
	msgs := []email{{
		To:      addressOf(event.BuyerID),
		Subject: "Order Confirmation: " + event.OrderID,
		Body: fmt.Sprintf("Your order %s with %d items totalling %d has been placed.",
			event.OrderID, len(event.Items), event.TotalAmount),
	}}

	bySeller := map[string][]domain.OrderCreatedItem{}
	for _, item := range event.Items {
		bySeller[item.SellerID] = append(bySeller[item.SellerID], item)
	}
	sellers := make([]string, 0, len(bySeller))
	for id := range bySeller {
		sellers = append(sellers, id)
	}
	sort.Strings(sellers)

	for _, sellerID := range sellers {
		var b strings.Builder
		fmt.Fprintf(&b, "Order %s includes your products:\n", event.OrderID)
		for _, item := range bySeller[sellerID] {
			fmt.Fprintf(&b, "- %s x%d\n", item.ProductTitle, item.Quantity)
		}
		msgs = append(msgs, email{
			To:      addressOf(sellerID),
			Subject: "New Order: " + event.OrderID,
			Body:    b.String(),
		})
	}
	return msgs
}

func addressOf(userID string) string {
	return userID + "@example.com"
}

func (h *NotificationHandler) sendEmail(ctx context.Context, msg email) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.emailServiceURL+"/send", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("email service returned status %d", resp.StatusCode)
	}

	return nil
}
