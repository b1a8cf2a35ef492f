package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

func TestNewLogger_AddsTraceContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "api", "info")

	tp := sdktrace.NewTracerProvider()
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	logger.With("component", "test").InfoContext(ctx, "hello")
	span.End()

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("failed to decode log line: %v", err)
	}
	if record["trace_id"] != span.SpanContext().TraceID().String() {
		t.Errorf("expected trace_id %s, got %v", span.SpanContext().TraceID(), record["trace_id"])
	}
	if record["span_id"] != span.SpanContext().SpanID().String() {
		t.Errorf("expected span_id %s, got %v", span.SpanContext().SpanID(), record["span_id"])
	}
	if record["service"] != "api" || record["component"] != "test" {
		t.Errorf("expected service and component attributes, got %v", record)
	}
}

func TestNewLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "api", "warn")

	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("expected info to be filtered, got %s", buf.String())
	}
	logger.Warn("kept")
	if buf.Len() == 0 {
		t.Error("expected warn to be logged")
	}
}

func TestRouteTag(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx, span := tp.Tracer("test").Start(req.Context(), "server")
			defer span.End()
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Use(RouteTag)
	r.Get("/api/buyer/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/buyer/orders/42", nil))

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name() != "GET /api/buyer/orders/{id}" {
		t.Errorf("unexpected span name %q", spans[0].Name())
	}

	found := false
	for _, attr := range spans[0].Attributes() {
		if attr.Key == semconv.HTTPRouteKey && attr.Value.AsString() == "/api/buyer/orders/{id}" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected http.route attribute, got %v", spans[0].Attributes())
	}
}

func TestInitMeterProvider_ServesRegistry(t *testing.T) {
	handler, shutdown, err := InitMeterProvider("marketplace-test", "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "process_") {
		t.Errorf("expected process metrics in output")
	}
}
