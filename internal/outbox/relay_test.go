package outbox

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/joao-fontenele/marketplace/internal/store"
	"github.com/joao-fontenele/marketplace/internal/store/memstore"
)

type published struct {
	topic, key, eventID string
	payload             string
}

type fakePublisher struct {
	sent   []published
	failAt int
}

func (p *fakePublisher) Publish(ctx context.Context, topic, key, eventID string, payload []byte) error {
	if p.failAt > 0 && len(p.sent)+1 == p.failAt {
		return errors.New("broker unavailable")
	}
	p.sent = append(p.sent, published{topic: topic, key: key, eventID: eventID, payload: string(payload)})
	return nil
}

func seed(t *testing.T, s *memstore.Store, n int) {
	t.Helper()
	err := s.WithinTx(context.Background(), func(tx store.Tx) error {
		for i := range n {
			if err := tx.EnqueueEvent(context.Background(), store.OutboxRecord{
				EventID: string(rune('a' + i)),
				Topic:   "order.created",
				Key:     "order-1",
				Payload: []byte(`{"n":1}`),
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("failed to seed outbox: %v", err)
	}
}

func newTestRelay(t *testing.T, s *memstore.Store, p Publisher, batch int) *Relay {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r, err := NewRelay(s, p, batch, time.Millisecond, logger)
	if err != nil {
		t.Fatalf("failed to create relay: %v", err)
	}
	return r
}

func TestRelay_RelayOnce(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	seed(t, s, 3)

	pub := &fakePublisher{}
	relay := newTestRelay(t, s, pub, 2)

	n, err := relay.RelayOnce(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("expected a batch of 2, got %d", n)
	}

	n, err = relay.RelayOnce(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("expected the last record, got %d", n)
	}

	if len(pub.sent) != 3 {
		t.Fatalf("expected 3 published records, got %d", len(pub.sent))
	}
	for i, want := range []string{"a", "b", "c"} {
		if pub.sent[i].eventID != want {
			t.Errorf("expected event %s at %d, got %s", want, i, pub.sent[i].eventID)
		}
	}
	if pub.sent[0].topic != "order.created" || pub.sent[0].key != "order-1" {
		t.Errorf("unexpected routing: %+v", pub.sent[0])
	}

	pending, _ := s.PendingEvents(ctx, 10)
	if len(pending) != 0 {
		t.Errorf("expected nothing pending, got %d", len(pending))
	}
}

func TestRelay_StopsAtFirstFailure(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	seed(t, s, 3)

	pub := &fakePublisher{failAt: 2}
	relay := newTestRelay(t, s, pub, 10)

	n, err := relay.RelayOnce(ctx)
	if err == nil {
		t.Fatal("expected error")
	}
	if n != 1 {
		t.Errorf("expected 1 record sent before the failure, got %d", n)
	}

	pending, _ := s.PendingEvents(ctx, 10)
	if len(pending) != 2 || pending[0].EventID != "b" {
		t.Errorf("expected b and c to stay pending, got %+v", pending)
	}

	pub.failAt = 0
	if n, err := relay.RelayOnce(ctx); err != nil || n != 2 {
		t.Errorf("expected retry to send 2, got %d (%v)", n, err)
	}
}

func TestRelay_RunStopsOnCancel(t *testing.T) {
	s := memstore.New()
	seed(t, s, 1)

	pub := &fakePublisher{}
	relay := newTestRelay(t, s, pub, 10)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for {
		pending, _ := s.PendingEvents(context.Background(), 10)
		if len(pending) == 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("relay did not publish in time")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not stop")
	}
}
