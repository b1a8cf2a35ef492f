package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/joao-fontenele/marketplace/internal/domain"
)

type productsStub map[string]domain.Product

func (s productsStub) ProductByIDAndSeller(_ context.Context, id, sellerID string) (*domain.Product, error) {
	p, ok := s[id]
	if !ok || p.SellerID != sellerID {
		return nil, nil
	}
	return &p, nil
}

type failingProducts struct{ err error }

func (f failingProducts) ProductByIDAndSeller(context.Context, string, string) (*domain.Product, error) {
	return nil, f.err
}

func TestEnsureOwnsProduct(t *testing.T) {
	ctx := context.Background()
	products := productsStub{
		"p1": {ID: "p1", SellerID: "seller-1", Title: "Lamp", Price: 100},
	}

	t.Run("owner gets the product", func(t *testing.T) {
		p, err := EnsureOwnsProduct(ctx, products, "seller-1", "p1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.ID != "p1" {
			t.Errorf("expected p1, got %s", p.ID)
		}
	})

	t.Run("missing and foreign products fail the same way", func(t *testing.T) {
		_, errForeign := EnsureOwnsProduct(ctx, products, "seller-2", "p1")
		_, errMissing := EnsureOwnsProduct(ctx, products, "seller-2", "nope")

		if !errors.Is(errForeign, domain.ErrAccessDenied) || !errors.Is(errMissing, domain.ErrAccessDenied) {
			t.Fatalf("expected access denied, got %v and %v", errForeign, errMissing)
		}
		if errForeign.Error() != errMissing.Error() {
			t.Errorf("expected identical messages, got %q and %q", errForeign, errMissing)
		}
	})

	t.Run("storage errors are not access denied", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := EnsureOwnsProduct(ctx, failingProducts{err: boom}, "seller-1", "p1")
		if !errors.Is(err, boom) {
			t.Fatalf("expected wrapped storage error, got %v", err)
		}
		if errors.Is(err, domain.ErrAccessDenied) {
			t.Error("storage error must not look like access denied")
		}
	})
}

func TestEnsureOwnsOrder(t *testing.T) {
	order := &domain.Order{ID: "o1", BuyerID: "buyer-1"}

	if err := EnsureOwnsOrder("buyer-1", order); err != nil {
		t.Errorf("expected owner to pass, got %v", err)
	}
	if err := EnsureOwnsOrder("buyer-2", order); !errors.Is(err, domain.ErrAccessDenied) {
		t.Errorf("expected access denied, got %v", err)
	}
}
