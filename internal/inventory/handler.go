package inventory

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/joao-fontenele/marketplace/internal/auth"
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

func (h *Handler) HandleGetStock(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")
	if productID == "" {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "missing product id")
		return
	}

	inv, err := h.service.GetByProduct(r.Context(), productID)
	if err != nil {
		httpx.WriteServiceError(w, r, h.logger, err, "failed to get stock", "product_id", productID)
		return
	}

	h.logger.InfoContext(r.Context(), "stock retrieved", "product_id", productID)
	httpx.WriteJSON(w, h.logger, http.StatusOK, inv)
}

type setQuantityRequest struct {
	Quantity *int `json:"quantity"`
}

func (h *Handler) HandleSetBySeller(w http.ResponseWriter, r *http.Request) {
	seller, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		httpx.WriteError(w, h.logger, http.StatusUnauthorized, "missing bearer token")
		return
	}

	productID := chi.URLParam(r, "productId")
	var req setQuantityRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}

	inv, err := h.service.SetQuantityBySeller(r.Context(), seller.UserID, productID, req.Quantity)
	if err != nil {
		httpx.WriteServiceError(w, r, h.logger, err, "failed to set stock", "product_id", productID, "seller_id", seller.UserID)
		return
	}

	h.logger.InfoContext(r.Context(), "stock set", "product_id", productID, "quantity", inv.Quantity)
	httpx.WriteJSON(w, h.logger, http.StatusOK, inv)
}

func (h *Handler) HandleSetByAdmin(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")
	var req setQuantityRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}

	inv, err := h.service.SetQuantityByAdmin(r.Context(), productID, req.Quantity)
	if err != nil {
		httpx.WriteServiceError(w, r, h.logger, err, "failed to set stock", "product_id", productID)
		return
	}

	h.logger.InfoContext(r.Context(), "stock set by admin", "product_id", productID, "quantity", inv.Quantity)
	httpx.WriteJSON(w, h.logger, http.StatusOK, inv)
}
