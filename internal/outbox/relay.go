// Package outbox moves events written inside business transactions onto the
// message broker.
package outbox

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/joao-fontenele/marketplace/internal/store"
)

var meter = otel.Meter("marketplace/outbox")

type Source interface {
	PendingEvents(ctx context.Context, limit int) ([]store.OutboxRecord, error)
	MarkEventSent(ctx context.Context, id int64) error
}

type Publisher interface {
	Publish(ctx context.Context, topic, key, eventID string, payload []byte) error
}

// Relay publishes pending records in id order and marks each one sent after
// the broker accepts it. Delivery is at least once: a crash between publish
// and mark resends the record, and consumers dedupe on the event id.
type Relay struct {
	source    Source
	publisher Publisher
	batchSize int
	interval  time.Duration
	logger    *slog.Logger
	published metric.Int64Counter
	failures  metric.Int64Counter
}

func NewRelay(source Source, publisher Publisher, batchSize int, interval time.Duration, logger *slog.Logger) (*Relay, error) {
	published, err := meter.Int64Counter("marketplace.outbox.published",
		metric.WithDescription("Outbox records published to the broker."))
	if err != nil {
		return nil, err
	}
	failures, err := meter.Int64Counter("marketplace.outbox.failures",
		metric.WithDescription("Outbox publish attempts that failed."))
	if err != nil {
		return nil, err
	}

	return &Relay{
		source:    source,
		publisher: publisher,
		batchSize: batchSize,
		interval:  interval,
		logger:    logger,
		published: published,
		failures:  failures,
	}, nil
}

// Run polls until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		n, err := r.RelayOnce(ctx)
		if err != nil {
			r.logger.ErrorContext(ctx, "outbox relay pass failed", "error", err)
		} else if n > 0 {
			r.logger.InfoContext(ctx, "outbox records published", "count", n)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RelayOnce publishes up to one batch. It stops at the first failure so
// records of the same key keep their order.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	records, err := r.source.PendingEvents(ctx, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("fetch pending events: %w", err)
	}

	sent := 0
	for _, rec := range records {
		if err := r.publisher.Publish(ctx, rec.Topic, rec.Key, rec.EventID, rec.Payload); err != nil {
			r.failures.Add(ctx, 1)
			return sent, fmt.Errorf("publish event %s: %w", rec.EventID, err)
		}
		if err := r.source.MarkEventSent(ctx, rec.ID); err != nil {
			return sent, fmt.Errorf("mark event %s sent: %w", rec.EventID, err)
		}
		r.published.Add(ctx, 1)
		sent++
	}
	return sent, nil
}
