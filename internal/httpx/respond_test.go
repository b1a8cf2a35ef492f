package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/joao-fontenele/marketplace/internal/domain"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", domain.Validationf("cart is empty"), http.StatusBadRequest},
		{"not found", domain.NotFoundf("order not found"), http.StatusNotFound},
		{"access denied", domain.AccessDeniedf("not your order"), http.StatusForbidden},
		{"wrapped validation", errors.Join(errors.New("ctx"), domain.Validationf("x")), http.StatusBadRequest},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusFor(tt.err); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestWriteServiceError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("domain error keeps its message", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)

		WriteServiceError(rec, req, logger, domain.Validationf("cart is empty"), "checkout failed")

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}
		var resp map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp["error"] != "cart is empty" {
			t.Errorf("expected 'cart is empty', got %s", resp["error"])
		}
	})

	t.Run("unknown error is hidden", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)

		WriteServiceError(rec, req, logger, errors.New("connection refused"), "checkout failed")

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected status 500, got %d", rec.Code)
		}
		var resp map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp["error"] != "internal server error" {
			t.Errorf("expected 'internal server error', got %s", resp["error"])
		}
	})
}

func TestParsePageRequest(t *testing.T) {
	tests := []struct {
		query   string
		want    domain.PageRequest
		wantErr bool
	}{
		{query: "", want: domain.PageRequest{}},
		{query: "page=2&size=5", want: domain.PageRequest{Page: 2, Size: 5}},
		{query: "page=x", wantErr: true},
		{query: "size=ten", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			got, err := ParsePageRequest(req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("wantErr=%v, got %v", tt.wantErr, err)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}
