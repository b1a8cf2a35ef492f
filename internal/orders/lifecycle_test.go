package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/joao-fontenele/marketplace/internal/domain"
)

func TestLifecycle_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		requested string
		want      domain.OrderStatus
		wantErr   error
	}{
		{name: "lower case is accepted", requested: "paid", want: domain.OrderStatusPaid},
		{name: "mixed case is accepted", requested: "Shipped", want: domain.OrderStatusShipped},
		{name: "back to created is allowed", requested: "CREATED", want: domain.OrderStatusCreated},
		{name: "unknown status", requested: "bogus", wantErr: domain.ErrValidation},
		{name: "empty status", requested: "", wantErr: domain.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			placed := f.placeOrder(t, "buyer-1")

			order, err := f.lifecycle.UpdateStatus(ctx, placed.ID, tt.requested)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				stored, err := f.service.GetAnyOrder(ctx, placed.ID)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if stored.Status != domain.OrderStatusCreated {
					t.Errorf("expected status to stay CREATED, got %s", stored.Status)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if order.Status != tt.want {
				t.Errorf("expected status %s, got %s", tt.want, order.Status)
			}
			if !order.UpdatedAt.After(placed.UpdatedAt) {
				t.Errorf("expected updated_at to advance, got %v (was %v)", order.UpdatedAt, placed.UpdatedAt)
			}

			stored, err := f.service.GetAnyOrder(ctx, placed.ID)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if stored.Status != tt.want {
				t.Errorf("expected stored status %s, got %s", tt.want, stored.Status)
			}
		})
	}
}

func TestLifecycle_UpdateStatus_TerminalStatusesAreNotFinal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	placed := f.placeOrder(t, "buyer-1")

	for _, status := range []string{"CANCELLED", "PAID", "COMPLETED", "CREATED"} {
		order, err := f.lifecycle.UpdateStatus(ctx, placed.ID, status)
		if err != nil {
			t.Fatalf("transition to %s failed: %v", status, err)
		}
		if string(order.Status) != status {
			t.Errorf("expected %s, got %s", status, order.Status)
		}
	}
}

func TestLifecycle_UpdateStatus_MissingOrder(t *testing.T) {
	f := newFixture(t)

	_, err := f.lifecycle.UpdateStatus(context.Background(), "missing", "PAID")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestLifecycle_UpdateStatus_StorageFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	placed := f.placeOrder(t, "buyer-1")

	boom := errors.New("boom")
	f.store.FailOn("UpdateOrderStatus", boom)

	if _, err := f.lifecycle.UpdateStatus(ctx, placed.ID, "PAID"); !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}
}
