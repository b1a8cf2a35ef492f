package orders

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/joao-fontenele/marketplace/internal/auth"
	"github.com/joao-fontenele/marketplace/internal/domain"
	"github.com/joao-fontenele/marketplace/internal/httpx"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	idempotencyTTL    = 24 * time.Hour

	// A key holds checkoutPending while its checkout runs. The shorter TTL
	// frees keys left behind by a crashed request.
	checkoutPending = "pending"
	reservationTTL  = time.Minute
)

// IdempotencyCache remembers which order a checkout idempotency key
// produced. Get returns "" for unknown keys.
type IdempotencyCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
	GenerateKey(operation, key string) string
}

type Handler struct {
	checkout  *CheckoutEngine
	lifecycle *Lifecycle
	service   *Service
	cache     IdempotencyCache
	logger    *slog.Logger
}

// NewHandler wires the order endpoints. cache may be nil, which disables
// checkout idempotency keys.
func NewHandler(checkout *CheckoutEngine, lifecycle *Lifecycle, service *Service, cache IdempotencyCache, logger *slog.Logger) *Handler {
	return &Handler{
		checkout:  checkout,
		lifecycle: lifecycle,
		service:   service,
		cache:     cache,
		logger:    logger,
	}
}

type orderItemResponse struct {
	ID            string       `json:"id"`
	ProductID     string       `json:"product_id"`
	ProductTitle  string       `json:"product_title"`
	SellerID      string       `json:"seller_id"`
	PriceSnapshot domain.Money `json:"price_snapshot"`
	Quantity      int          `json:"quantity"`
	Subtotal      domain.Money `json:"subtotal"`
}

type orderResponse struct {
	ID          string              `json:"id"`
	BuyerID     string              `json:"buyer_id"`
	Status      domain.OrderStatus  `json:"status"`
	TotalAmount domain.Money        `json:"total_amount"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	Items       []orderItemResponse `json:"items"`
}

type orderPageResponse struct {
	Content       []orderResponse `json:"content"`
	Page          int             `json:"page"`
	Size          int             `json:"size"`
	TotalElements int             `json:"total_elements"`
	TotalPages    int             `json:"total_pages"`
}

func newOrderResponse(order *domain.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemResponse{
			ID:            item.ID,
			ProductID:     item.ProductID,
			ProductTitle:  item.ProductTitle,
			SellerID:      item.SellerID,
			PriceSnapshot: item.PriceSnapshot,
			Quantity:      item.Quantity,
			Subtotal:      item.Subtotal(),
		})
	}
	return orderResponse{
		ID:          order.ID,
		BuyerID:     order.BuyerID,
		Status:      order.Status,
		TotalAmount: order.TotalAmount,
		CreatedAt:   order.CreatedAt,
		UpdatedAt:   order.UpdatedAt,
		Items:       items,
	}
}

func (h *Handler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	buyer, ok := h.principal(w, r)
	if !ok {
		return
	}

	cacheKey := h.idempotencyKey(r, buyer.UserID)
	if cacheKey != "" {
		reserved, err := h.cache.SetNX(r.Context(), cacheKey, checkoutPending, reservationTTL)
		switch {
		case err != nil:
			h.logger.WarnContext(r.Context(), "failed to reserve idempotency key", "error", err)
			cacheKey = ""
		case !reserved:
			h.replay(w, r, buyer.UserID, cacheKey)
			return
		}
	}

	order, err := h.checkout.Checkout(r.Context(), buyer.UserID)
	if err != nil {
		if cacheKey != "" {
			h.release(r, cacheKey)
		}
		httpx.WriteServiceError(w, r, h.logger, err, "checkout failed", "buyer_id", buyer.UserID)
		return
	}

	if cacheKey != "" {
		if err := h.cache.Set(r.Context(), cacheKey, order.ID, idempotencyTTL); err != nil {
			h.logger.WarnContext(r.Context(), "failed to store idempotency key", "error", err, "order_id", order.ID)
		}
	}

	h.logger.InfoContext(r.Context(), "order created", "order_id", order.ID, "buyer_id", buyer.UserID, "total_amount", order.TotalAmount)
	httpx.WriteJSON(w, h.logger, http.StatusCreated, newOrderResponse(order))
}

func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	buyer, ok := h.principal(w, r)
	if !ok {
		return
	}

	req, err := httpx.ParsePageRequest(r)
	if err != nil {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.service.MyOrders(r.Context(), buyer.UserID, req)
	if err != nil {
		httpx.WriteServiceError(w, r, h.logger, err, "failed to list orders", "buyer_id", buyer.UserID)
		return
	}

	content := make([]orderResponse, 0, len(page.Orders))
	for i := range page.Orders {
		content = append(content, newOrderResponse(&page.Orders[i]))
	}

	h.logger.InfoContext(r.Context(), "orders listed", "buyer_id", buyer.UserID, "count", len(content))
	httpx.WriteJSON(w, h.logger, http.StatusOK, orderPageResponse{
		Content:       content,
		Page:          page.Page,
		Size:          page.Size,
		TotalElements: page.TotalElements,
		TotalPages:    page.TotalPages,
	})
}

func (h *Handler) HandleGetMine(w http.ResponseWriter, r *http.Request) {
	buyer, ok := h.principal(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "missing order id")
		return
	}

	order, err := h.service.GetMyOrder(r.Context(), buyer.UserID, id)
	if err != nil {
		httpx.WriteServiceError(w, r, h.logger, err, "failed to get order", "order_id", id, "buyer_id", buyer.UserID)
		return
	}

	h.logger.InfoContext(r.Context(), "order retrieved", "order_id", order.ID)
	httpx.WriteJSON(w, h.logger, http.StatusOK, newOrderResponse(order))
}

func (h *Handler) HandleGetAny(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "missing order id")
		return
	}

	order, err := h.service.GetAnyOrder(r.Context(), id)
	if err != nil {
		httpx.WriteServiceError(w, r, h.logger, err, "failed to get order", "order_id", id)
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusOK, newOrderResponse(order))
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "missing order id")
		return
	}

	var req updateStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.lifecycle.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		httpx.WriteServiceError(w, r, h.logger, err, "failed to update order status", "order_id", id)
		return
	}

	h.logger.InfoContext(r.Context(), "order status updated", "order_id", order.ID, "status", order.Status)
	httpx.WriteJSON(w, h.logger, http.StatusOK, newOrderResponse(order))
}

func (h *Handler) idempotencyKey(r *http.Request, buyerID string) string {
	if h.cache == nil {
		return ""
	}
	key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
	if key == "" {
		return ""
	}
	return h.cache.GenerateKey("checkout", buyerID+":"+key)
}

// replay answers a checkout whose key is already taken: with the order the
// first request created, or 409 while that request is still running.
func (h *Handler) replay(w http.ResponseWriter, r *http.Request, buyerID, cacheKey string) {
	orderID, err := h.cache.Get(r.Context(), cacheKey)
	if err != nil {
		httpx.WriteServiceError(w, r, h.logger, err, "failed to read idempotency key", "buyer_id", buyerID)
		return
	}
	if orderID == "" || orderID == checkoutPending {
		httpx.WriteError(w, h.logger, http.StatusConflict, "checkout already in progress")
		return
	}

	order, err := h.service.GetMyOrder(r.Context(), buyerID, orderID)
	if err != nil {
		httpx.WriteServiceError(w, r, h.logger, err, "failed to load replayed order", "order_id", orderID)
		return
	}

	h.logger.InfoContext(r.Context(), "checkout replayed", "order_id", order.ID, "buyer_id", buyerID)
	httpx.WriteJSON(w, h.logger, http.StatusOK, newOrderResponse(order))
}

// release drops a reservation so the client can retry a failed checkout
// with the same key.
func (h *Handler) release(r *http.Request, cacheKey string) {
	if err := h.cache.Delete(r.Context(), cacheKey); err != nil {
		h.logger.WarnContext(r.Context(), "failed to release idempotency key", "error", err)
	}
}

func (h *Handler) principal(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	p, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		httpx.WriteError(w, h.logger, http.StatusUnauthorized, "missing bearer token")
	}
	return p, ok
}
