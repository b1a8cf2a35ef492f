package carts

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/joao-fontenele/marketplace/internal/auth"
	"github.com/joao-fontenele/marketplace/internal/domain"
	"github.com/joao-fontenele/marketplace/internal/httpx"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

type cartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  *int   `json:"quantity"`
}

type cartItemResponse struct {
	ID            string       `json:"id"`
	ProductID     string       `json:"product_id"`
	ProductTitle  string       `json:"product_title"`
	Quantity      int          `json:"quantity"`
	PriceSnapshot domain.Money `json:"price_snapshot"`
	Subtotal      domain.Money `json:"subtotal"`
}

type cartResponse struct {
	ID          string             `json:"id"`
	BuyerID     string             `json:"buyer_id"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	Items       []cartItemResponse `json:"items"`
	TotalAmount domain.Money       `json:"total_amount"`
}

func newCartResponse(cart *domain.Cart) cartResponse {
	items := make([]cartItemResponse, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, cartItemResponse{
			ID:            item.ID,
			ProductID:     item.ProductID,
			ProductTitle:  item.ProductTitle,
			Quantity:      item.Quantity,
			PriceSnapshot: item.PriceSnapshot,
			Subtotal:      item.Subtotal(),
		})
	}
	return cartResponse{
		ID:          cart.ID,
		BuyerID:     cart.BuyerID,
		CreatedAt:   cart.CreatedAt,
		UpdatedAt:   cart.UpdatedAt,
		Items:       items,
		TotalAmount: cart.Total(),
	}
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	buyer, ok := h.principal(w, r)
	if !ok {
		return
	}

	cart, err := h.service.GetOrCreateCart(r.Context(), buyer.UserID)
	if err != nil {
		httpx.WriteServiceError(w, r, h.logger, err, "failed to get cart", "buyer_id", buyer.UserID)
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusOK, newCartResponse(cart))
}

func (h *Handler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	buyer, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req cartItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}

	cart, err := h.service.AddItem(r.Context(), buyer.UserID, req.ProductID, req.Quantity)
	if err != nil {
		httpx.WriteServiceError(w, r, h.logger, err, "failed to add cart item", "buyer_id", buyer.UserID, "product_id", req.ProductID)
		return
	}

	h.logger.InfoContext(r.Context(), "cart item added", "buyer_id", buyer.UserID, "product_id", req.ProductID)
	httpx.WriteJSON(w, h.logger, http.StatusOK, newCartResponse(cart))
}

func (h *Handler) HandleSetQuantity(w http.ResponseWriter, r *http.Request) {
	buyer, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req cartItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}

	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}

	cart, err := h.service.SetQuantity(r.Context(), buyer.UserID, req.ProductID, qty)
	if err != nil {
		httpx.WriteServiceError(w, r, h.logger, err, "failed to set cart item quantity", "buyer_id", buyer.UserID, "product_id", req.ProductID)
		return
	}

	h.logger.InfoContext(r.Context(), "cart item quantity set", "buyer_id", buyer.UserID, "product_id", req.ProductID, "quantity", qty)
	httpx.WriteJSON(w, h.logger, http.StatusOK, newCartResponse(cart))
}

func (h *Handler) HandleRemoveItem(w http.ResponseWriter, r *http.Request) {
	buyer, ok := h.principal(w, r)
	if !ok {
		return
	}

	productID := chi.URLParam(r, "productId")
	if productID == "" {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "missing product id")
		return
	}

	if _, err := h.service.RemoveItem(r.Context(), buyer.UserID, productID); err != nil {
		httpx.WriteServiceError(w, r, h.logger, err, "failed to remove cart item", "buyer_id", buyer.UserID, "product_id", productID)
		return
	}

	h.logger.InfoContext(r.Context(), "cart item removed", "buyer_id", buyer.UserID, "product_id", productID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	buyer, ok := h.principal(w, r)
	if !ok {
		return
	}

	if _, err := h.service.Clear(r.Context(), buyer.UserID); err != nil {
		httpx.WriteServiceError(w, r, h.logger, err, "failed to clear cart", "buyer_id", buyer.UserID)
		return
	}

	h.logger.InfoContext(r.Context(), "cart cleared", "buyer_id", buyer.UserID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) principal(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	p, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		httpx.WriteError(w, h.logger, http.StatusUnauthorized, "missing bearer token")
	}
	return p, ok
}
