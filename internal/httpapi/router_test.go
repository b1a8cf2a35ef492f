package httpapi

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
	"time"

	"github.com/joao-fontenele/marketplace/internal/auth"
	"github.com/joao-fontenele/marketplace/internal/carts"
	"github.com/joao-fontenele/marketplace/internal/catalog"
	"github.com/joao-fontenele/marketplace/internal/domain"
	"github.com/joao-fontenele/marketplace/internal/inventory"
	"github.com/joao-fontenele/marketplace/internal/orders"
	"github.com/joao-fontenele/marketplace/internal/store/memstore"
)

type fakePinger struct{ err error }

func (p fakePinger) PingContext(ctx context.Context) error { return p.err }

type apiFixture struct {
	t      *testing.T
	server *httptest.Server
	store  *memstore.Store
	auth   *auth.Authenticator
}

func newAPIFixture(t *testing.T, db Pinger) *apiFixture {
	t.Helper()

	s := memstore.New()
	s.PutProduct(domain.Product{ID: "p1", SellerID: "seller-1", Title: "Lamp", Price: 100, Status: domain.ProductStatusActive})
	s.PutProduct(domain.Product{ID: "p2", SellerID: "seller-2", Title: "Desk", Price: 250, Status: domain.ProductStatusActive})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	checkout, err := orders.NewCheckoutEngine(s, domain.TopicOrderCreated)
	if err != nil {
		t.Fatalf("failed to create checkout engine: %v", err)
	}

	a := auth.NewAuthenticator("test-secret", logger)
	router := NewRouter(Deps{
		Auth:      a,
		Carts:     carts.NewHandler(carts.NewService(s), logger),
		Orders:    orders.NewHandler(checkout, orders.NewLifecycle(s), orders.NewService(s), nil, logger),
		Catalog:   catalog.NewHandler(catalog.NewService(s), logger),
		Inventory: inventory.NewHandler(inventory.NewService(s), logger),
		DB:        db,
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "# metrics\n")
		}),
		Logger: logger,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &apiFixture{t: t, server: srv, store: s, auth: a}
}

func (f *apiFixture) token(userID string, role domain.Role) string {
	f.t.Helper()
	token, err := f.auth.Issue(domain.Principal{UserID: userID, Role: role}, time.Hour)
	if err != nil {
		f.t.Fatalf("failed to issue token: %v", err)
	}
	return token
}

func (f *apiFixture) do(method, path, token, body string) (int, map[string]any) {
	f.t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, f.server.URL+path, reader)
	if err != nil {
		f.t.Fatalf("failed to build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := f.server.Client().Do(req)
	if err != nil {
		f.t.Fatalf("request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var decoded map[string]any
	data, _ := io.ReadAll(resp.Body)
	if len(data) > 0 {
		_ = json.Unmarshal(data, &decoded)
	}
	return resp.StatusCode, decoded
}

func TestRouter_BuyerCheckoutFlow(t *testing.T) {
	f := newAPIFixture(t, fakePinger{})
	buyer := f.token("buyer-1", domain.RoleBuyer)
	admin := f.token("admin-1", domain.RoleAdmin)

	if status, _ := f.do(http.MethodPost, "/api/buyer/cart/items", buyer, `{"product_id":"p1","quantity":2}`); status != http.StatusOK {
		t.Fatalf("add p1: expected 200, got %d", status)
	}
	status, cart := f.do(http.MethodPost, "/api/buyer/cart/items", buyer, `{"product_id":"p2","quantity":3}`)
	if status != http.StatusOK {
		t.Fatalf("add p2: expected 200, got %d", status)
	}
	if cart["total_amount"] != float64(950) {
		t.Errorf("expected cart total 950, got %v", cart["total_amount"])
	}

	status, order := f.do(http.MethodPost, "/api/buyer/orders/checkout", buyer, "")
	if status != http.StatusCreated {
		t.Fatalf("checkout: expected 201, got %d", status)
	}
	if order["total_amount"] != float64(950) || order["status"] != "CREATED" {
		t.Errorf("unexpected order: %v", order)
	}
	orderID, _ := order["id"].(string)

	status, cart = f.do(http.MethodGet, "/api/buyer/cart", buyer, "")
	if status != http.StatusOK {
		t.Fatalf("get cart: expected 200, got %d", status)
	}
	if items, _ := cart["items"].([]any); len(items) != 0 {
		t.Errorf("expected empty cart after checkout, got %d items", len(items))
	}

	if status, _ := f.do(http.MethodPost, "/api/buyer/orders/checkout", buyer, ""); status != http.StatusBadRequest {
		t.Errorf("second checkout: expected 400, got %d", status)
	}

	status, page := f.do(http.MethodGet, "/api/buyer/orders", buyer, "")
	if status != http.StatusOK || page["total_elements"] != float64(1) {
		t.Errorf("list orders: got %d %v", status, page)
	}

	other := f.token("buyer-2", domain.RoleBuyer)
	if status, _ := f.do(http.MethodGet, "/api/buyer/orders/"+orderID, other, ""); status != http.StatusForbidden {
		t.Errorf("foreign order read: expected 403, got %d", status)
	}

	status, updated := f.do(http.MethodPut, "/api/admin/orders/"+orderID+"/status", admin, `{"status":"paid"}`)
	if status != http.StatusOK || updated["status"] != "PAID" {
		t.Errorf("update status: got %d %v", status, updated)
	}
	if status, _ := f.do(http.MethodPut, "/api/admin/orders/"+orderID+"/status", admin, `{"status":"bogus"}`); status != http.StatusBadRequest {
		t.Errorf("invalid status: expected 400, got %d", status)
	}

	status, mine := f.do(http.MethodGet, "/api/buyer/orders/"+orderID, buyer, "")
	if status != http.StatusOK || mine["status"] != "PAID" {
		t.Errorf("own order read: got %d %v", status, mine)
	}
}

func TestRouter_CartEndpoints(t *testing.T) {
	f := newAPIFixture(t, fakePinger{})
	buyer := f.token("buyer-1", domain.RoleBuyer)

	if status, _ := f.do(http.MethodPut, "/api/buyer/cart/items", buyer, `{"product_id":"p1","quantity":4}`); status != http.StatusNotFound {
		t.Errorf("set missing line: expected 404, got %d", status)
	}
	if status, _ := f.do(http.MethodPost, "/api/buyer/cart/items", buyer, `{"product_id":"nope"}`); status != http.StatusBadRequest {
		t.Errorf("add missing product: expected 400, got %d", status)
	}
	if status, _ := f.do(http.MethodPost, "/api/buyer/cart/items", buyer, `{"product_id":"p1"}`); status != http.StatusOK {
		t.Errorf("add: expected 200, got %d", status)
	}
	if status, _ := f.do(http.MethodDelete, "/api/buyer/cart/items/p1", buyer, ""); status != http.StatusNoContent {
		t.Errorf("remove: expected 204, got %d", status)
	}
	if status, _ := f.do(http.MethodDelete, "/api/buyer/cart/items/p1", buyer, ""); status != http.StatusNoContent {
		t.Errorf("remove again: expected 204, got %d", status)
	}
	if status, _ := f.do(http.MethodDelete, "/api/buyer/cart", buyer, ""); status != http.StatusNoContent {
		t.Errorf("clear: expected 204, got %d", status)
	}
}

func TestRouter_SellerAndAdminEndpoints(t *testing.T) {
	f := newAPIFixture(t, fakePinger{})
	seller := f.token("seller-1", domain.RoleSeller)
	admin := f.token("admin-1", domain.RoleAdmin)

	if status, _ := f.do(http.MethodPut, "/api/seller/inventory/p2", seller, `{"quantity":3}`); status != http.StatusForbidden {
		t.Errorf("foreign inventory: expected 403, got %d", status)
	}
	if status, _ := f.do(http.MethodPut, "/api/seller/inventory/p1", seller, `{"quantity":3}`); status != http.StatusOK {
		t.Errorf("own inventory: expected 200, got %d", status)
	}
	if status, _ := f.do(http.MethodPut, "/api/admin/inventory/p2", admin, `{"quantity":-1}`); status != http.StatusBadRequest {
		t.Errorf("negative inventory: expected 400, got %d", status)
	}
	status, inv := f.do(http.MethodGet, "/api/public/inventory/p1", "", "")
	if status != http.StatusOK || inv["quantity"] != float64(3) {
		t.Errorf("public inventory: got %d %v", status, inv)
	}

	if status, _ := f.do(http.MethodDelete, "/api/seller/products/p2", seller, ""); status != http.StatusForbidden {
		t.Errorf("foreign archive: expected 403, got %d", status)
	}
	if status, _ := f.do(http.MethodDelete, "/api/seller/products/p1", seller, ""); status != http.StatusNoContent {
		t.Errorf("own archive: expected 204, got %d", status)
	}
	if status, _ := f.do(http.MethodDelete, "/api/admin/products/p2", admin, ""); status != http.StatusNoContent {
		t.Errorf("admin archive: expected 204, got %d", status)
	}
	status, product := f.do(http.MethodGet, "/api/public/products/p1", "", "")
	if status != http.StatusOK || product["status"] != "ARCHIVED" {
		t.Errorf("public product: got %d %v", status, product)
	}

	buyer := f.token("buyer-1", domain.RoleBuyer)
	if status, _ := f.do(http.MethodPost, "/api/buyer/cart/items", buyer, `{"product_id":"p1"}`); status != http.StatusBadRequest {
		t.Errorf("add archived product: expected 400, got %d", status)
	}
}

func TestRouter_AccessControl(t *testing.T) {
	f := newAPIFixture(t, fakePinger{})
	buyer := f.token("buyer-1", domain.RoleBuyer)
	seller := f.token("seller-1", domain.RoleSeller)

	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		wantStatus int
	}{
		{name: "no token", method: http.MethodGet, path: "/api/buyer/cart", wantStatus: http.StatusUnauthorized},
		{name: "garbage token", method: http.MethodGet, path: "/api/buyer/cart", token: "garbage", wantStatus: http.StatusUnauthorized},
		{name: "seller on buyer route", method: http.MethodGet, path: "/api/buyer/cart", token: seller, wantStatus: http.StatusForbidden},
		{name: "buyer on admin route", method: http.MethodGet, path: "/api/admin/orders/x", token: buyer, wantStatus: http.StatusForbidden},
		{name: "buyer on seller route", method: http.MethodDelete, path: "/api/seller/products/p1", token: buyer, wantStatus: http.StatusForbidden},
		{name: "public route without token", method: http.MethodGet, path: "/api/public/products/p1", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if status, _ := f.do(tt.method, tt.path, tt.token, ""); status != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, status)
			}
		})
	}
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	f := newAPIFixture(t, fakePinger{})
	if status, body := f.do(http.MethodGet, "/healthz", "", ""); status != http.StatusOK || body["status"] != "ok" {
		t.Errorf("healthz: got %d %v", status, body)
	}
	if status, _ := f.do(http.MethodGet, "/metrics", "", ""); status != http.StatusOK {
		t.Errorf("metrics: expected 200, got %d", status)
	}

	down := newAPIFixture(t, fakePinger{err: errors.New("connection refused")})
	if status, _ := down.do(http.MethodGet, "/healthz", "", ""); status != http.StatusServiceUnavailable {
		t.Errorf("healthz with db down: expected 503, got %d", status)
	}
}
