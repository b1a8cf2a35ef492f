package messaging

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

var producerTracer = otel.Tracer("marketplace/messaging/producer")

// Producer writes already-encoded events. The topic is chosen per message,
// so one producer serves every outbox topic.
type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
			BatchTimeout:           100 * time.Millisecond,
			RequiredAcks:           kafka.RequireAll,
		},
	}
}

// Publish sends payload keyed by key, so every event of one aggregate lands
// on the same partition, and waits for all in-sync replicas.
func (p *Producer) Publish(ctx context.Context, topic, key, eventID string, payload []byte) error {
	msg := kafka.Message{
		Topic:   topic,
		Key:     []byte(key),
		Value:   payload,
		Headers: []kafka.Header{{Key: HeaderEventID, Value: []byte(eventID)}},
	}

	ctx, span := producerTracer.Start(ctx, "send "+topic,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(messageAttributes(&msg)...),
		trace.WithAttributes(
			semconv.MessagingOperationName("send"),
			semconv.MessagingOperationTypePublish,
		),
	)
	defer span.End()

	otel.GetTextMapPropagator().Inject(ctx, headersOf(&msg))

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
