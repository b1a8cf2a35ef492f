package messaging

import (
	"context"
	"fmt"
	"strconv"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

var consumerTracer = otel.Tracer("marketplace/messaging/consumer")

// Handler processes one message payload. Returning an error stops the
// consumer without committing the message, so it is redelivered.
type Handler func(ctx context.Context, payload []byte) error

// Consumer reads one topic as part of a consumer group and commits each
// message only after its handler succeeds.
type Consumer struct {
	reader  *kafka.Reader
	groupID string
}

type ConsumerOption func(*kafka.ReaderConfig)

// WithStartOffset sets where a group with no committed offset begins,
// kafka.FirstOffset or kafka.LastOffset.
func WithStartOffset(offset int64) ConsumerOption {
	return func(cfg *kafka.ReaderConfig) {
		cfg.StartOffset = offset
	}
}

func NewConsumer(brokers []string, topic, groupID string, opts ...ConsumerOption) *Consumer {
	cfg := kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Consumer{reader: kafka.NewReader(cfg), groupID: groupID}
}

// Consume blocks until ctx is done or a handler fails. The returned error
// wraps the cause, so callers can test for context.Canceled.
func (c *Consumer) Consume(ctx context.Context, handler Handler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			return fmt.Errorf("fetch message: %w", err)
		}

		if err := c.deliver(ctx, &msg, handler); err != nil {
			return fmt.Errorf("handle message at offset %d: %w", msg.Offset, err)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return fmt.Errorf("commit offset %d: %w", msg.Offset, err)
		}
	}
}

func (c *Consumer) deliver(ctx context.Context, msg *kafka.Message, handler Handler) error {
	ctx = otel.GetTextMapPropagator().Extract(ctx, headersOf(msg))

	ctx, span := consumerTracer.Start(ctx, "process "+msg.Topic,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(messageAttributes(msg)...),
		trace.WithAttributes(
			semconv.MessagingOperationName("process"),
			semconv.MessagingOperationTypeDeliver,
			semconv.MessagingKafkaConsumerGroup(c.groupID),
			semconv.MessagingKafkaMessageOffset(int(msg.Offset)),
			semconv.MessagingDestinationPartitionID(strconv.Itoa(msg.Partition)),
		),
	)
	defer span.End()

	if err := handler(ctx, msg.Value); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
