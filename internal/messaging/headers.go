package messaging

import (
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// HeaderEventID carries the outbox event id so consumers can dedupe
// redeliveries without decoding the payload.
const HeaderEventID = "event_id"

// Headers lets OTel propagators read and write kafka message headers.
type Headers []kafka.Header

func headersOf(msg *kafka.Message) *Headers {
	return (*Headers)(&msg.Headers)
}

func (h *Headers) Get(key string) string {
	for _, hdr := range *h {
		if hdr.Key == key {
			return string(hdr.Value)
		}
	}
	return ""
}

// Set replaces the first header with the given key, or appends one.
func (h *Headers) Set(key, value string) {
	for i := range *h {
		if (*h)[i].Key == key {
			(*h)[i].Value = []byte(value)
			return
		}
	}
	*h = append(*h, kafka.Header{Key: key, Value: []byte(value)})
}

func (h *Headers) Keys() []string {
	keys := make([]string, 0, len(*h))
	for _, hdr := range *h {
		keys = append(keys, hdr.Key)
	}
	return keys
}

// EventID returns the outbox event id stamped on msg, or "".
func EventID(msg *kafka.Message) string {
	return headersOf(msg).Get(HeaderEventID)
}

func messageAttributes(msg *kafka.Message) []attribute.KeyValue {
	return []attribute.KeyValue{
		semconv.MessagingSystemKafka,
		semconv.MessagingDestinationName(msg.Topic),
		semconv.MessagingKafkaMessageKey(string(msg.Key)),
		semconv.MessagingMessageID(EventID(msg)),
	}
}
