package catalog

import (
	"log/slog"
	"net/http"

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

type productRequest struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Price       *domain.Money `json:"price"`
	Status      string        `json:"status"`
}

func (req productRequest) input() ProductInput {
	return ProductInput{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Status:      req.Status,
	}
}

func (h *Handler) HandleListPublic(w http.ResponseWriter, r *http.Request) {
	req, err := httpx.ParsePageRequest(r)
	if err != nil {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.service.ListPublic(r.Context(), req)
	if err != nil {
		httpx.WriteServiceError(w, r, h.logger, err, "failed to list products")
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusOK, page)
}

func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	seller, ok := h.principal(w, r)
	if !ok {
		return
	}

	req, err := httpx.ParsePageRequest(r)
	if err != nil {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.service.ListBySeller(r.Context(), seller.UserID, req)
	if err != nil {
		httpx.WriteServiceError(w, r, h.logger, err, "failed to list seller products", "seller_id", seller.UserID)
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusOK, page)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	seller, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req productRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.service.Create(r.Context(), seller.UserID, req.input())
	if err != nil {
		httpx.WriteServiceError(w, r, h.logger, err, "failed to create product", "seller_id", seller.UserID)
		return
	}

	h.logger.InfoContext(r.Context(), "product created", "product_id", product.ID, "seller_id", seller.UserID)
	httpx.WriteJSON(w, h.logger, http.StatusCreated, product)
}

func (h *Handler) HandleUpdateBySeller(w http.ResponseWriter, r *http.Request) {
	seller, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req productRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}

	id := chi.URLParam(r, "id")
	product, err := h.service.UpdateBySeller(r.Context(), seller.UserID, id, req.input())
	if err != nil {
		httpx.WriteServiceError(w, r, h.logger, err, "failed to update product", "product_id", id, "seller_id", seller.UserID)
		return
	}

	h.logger.InfoContext(r.Context(), "product updated", "product_id", id, "seller_id", seller.UserID, "status", product.Status)
	httpx.WriteJSON(w, h.logger, http.StatusOK, product)
}

func (h *Handler) HandleUpdateByAdmin(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}

	id := chi.URLParam(r, "id")
	product, err := h.service.UpdateByAdmin(r.Context(), id, req.input())
	if err != nil {
		httpx.WriteServiceError(w, r, h.logger, err, "failed to update product", "product_id", id)
		return
	}

	h.logger.InfoContext(r.Context(), "product updated by admin", "product_id", id, "status", product.Status)
	httpx.WriteJSON(w, h.logger, http.StatusOK, product)
}

func (h *Handler) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "missing product id")
		return
	}

	product, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		httpx.WriteServiceError(w, r, h.logger, err, "failed to get product", "product_id", id)
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusOK, product)
}

func (h *Handler) HandleArchiveBySeller(w http.ResponseWriter, r *http.Request) {
	seller, ok := h.principal(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.service.ArchiveBySeller(r.Context(), seller.UserID, id); err != nil {
		httpx.WriteServiceError(w, r, h.logger, err, "failed to archive product", "product_id", id, "seller_id", seller.UserID)
		return
	}

	h.logger.InfoContext(r.Context(), "product archived", "product_id", id, "seller_id", seller.UserID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleArchiveByAdmin(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.ArchiveByAdmin(r.Context(), id); err != nil {
		httpx.WriteServiceError(w, r, h.logger, err, "failed to archive product", "product_id", id)
		return
	}

	h.logger.InfoContext(r.Context(), "product archived by admin", "product_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) principal(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	p, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		httpx.WriteError(w, h.logger, http.StatusUnauthorized, "missing bearer token")
	}
	return p, ok
}
