package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/joao-fontenele/marketplace/internal/auth"
	"github.com/joao-fontenele/marketplace/internal/domain"
	"github.com/joao-fontenele/marketplace/internal/store/memstore"
)

func intPtr(v int) *int { return &v }

func newTestService() *Service {
	s := memstore.New()
	s.PutProduct(domain.Product{ID: "p1", SellerID: "seller-1", Title: "Lamp", Price: 100, Status: domain.ProductStatusActive})
	return NewService(s)
}

func TestService_SetQuantityBySeller(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		sellerID string
		quantity *int
		want     int
		wantErr  error
	}{
		{name: "creates the record", sellerID: "seller-1", quantity: intPtr(7), want: 7},
		{name: "nil quantity is zero", sellerID: "seller-1", quantity: nil, want: 0},
		{name: "negative quantity", sellerID: "seller-1", quantity: intPtr(-1), wantErr: domain.ErrValidation},
		{name: "not the owner", sellerID: "seller-2", quantity: intPtr(3), wantErr: domain.ErrAccessDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService()

			inv, err := svc.SetQuantityBySeller(ctx, tt.sellerID, "p1", tt.quantity)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				if _, err := svc.GetByProduct(ctx, "p1"); !errors.Is(err, domain.ErrNotFound) {
					t.Errorf("expected no inventory record, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if inv.Quantity != tt.want {
				t.Errorf("expected quantity %d, got %d", tt.want, inv.Quantity)
			}
		})
	}
}

func TestService_SetQuantityByAdmin(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	if _, err := svc.SetQuantityByAdmin(ctx, "p1", intPtr(4)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	inv, err := svc.SetQuantityByAdmin(ctx, "p1", intPtr(9))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.Quantity != 9 {
		t.Errorf("expected overwrite to 9, got %d", inv.Quantity)
	}

	stored, err := svc.GetByProduct(ctx, "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Quantity != 9 || stored.Reserved != 0 {
		t.Errorf("unexpected stored inventory: %+v", stored)
	}

	if _, err := svc.SetQuantityByAdmin(ctx, "missing", intPtr(1)); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(newTestService(), logger)

	r := chi.NewRouter()
	r.Get("/inventory/{productId}", h.HandleGetStock)
	r.Put("/seller/inventory/{productId}", h.HandleSetBySeller)
	r.Put("/admin/inventory/{productId}", h.HandleSetByAdmin)

	asSeller := func(req *http.Request, id string) *http.Request {
		return req.WithContext(auth.WithPrincipal(req.Context(), domain.Principal{UserID: id, Role: domain.RoleSeller}))
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/inventory/p1", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 before any set, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, asSeller(httptest.NewRequest(http.MethodPut, "/seller/inventory/p1", strings.NewReader(`{"quantity":-5}`)), "seller-1"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for negative quantity, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, asSeller(httptest.NewRequest(http.MethodPut, "/seller/inventory/p1", strings.NewReader(`{"quantity":5}`)), "seller-2"))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403 for foreign product, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, asSeller(httptest.NewRequest(http.MethodPut, "/seller/inventory/p1", strings.NewReader(`{"quantity":5}`)), "seller-1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/admin/inventory/p1", strings.NewReader(`{"quantity":12}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/inventory/p1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var inv domain.Inventory
	if err := json.NewDecoder(rec.Body).Decode(&inv); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if inv.Quantity != 12 {
		t.Errorf("expected quantity 12, got %d", inv.Quantity)
	}
}
