// Package memstore is an in-memory store.Store. Transactions are serialized
// and work on a copy of the state that replaces the original only on
// success, so a failed transaction leaves nothing behind.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joao-fontenele/marketplace/internal/domain"
	"github.com/joao-fontenele/marketplace/internal/store"
)

type Store struct {
	mu       sync.Mutex
	state    *state
	failures map[string]error
}

type state struct {
	products  map[string]domain.Product
	inventory map[string]domain.Inventory
	carts     map[string]domain.Cart // keyed by buyer id; Items unused
	cartItems map[string][]domain.CartItem
	orders    map[string]domain.Order
	outbox    []store.OutboxRecord
	outboxSeq int64
}

func New() *Store {
	return &Store{
		state: &state{
			products:  map[string]domain.Product{},
			inventory: map[string]domain.Inventory{},
			carts:     map[string]domain.Cart{},
			cartItems: map[string][]domain.CartItem{},
			orders:    map[string]domain.Order{},
		},
		failures: map[string]error{},
	}
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	working := s.state.clone()
	if err := fn(&tx{state: working, failures: s.failures}); err != nil {
		return err
	}
	s.state = working
	return nil
}

// FailOn makes the named Tx method return err until cleared with a nil err.
func (s *Store) FailOn(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, method)
		return
	}
	s.failures[method] = err
}

func (s *Store) PutProduct(p domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.products[p.ID] = p
}

func (s *Store) DeleteProduct(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.state.products, id)
}

func (s *Store) Product(id string) (domain.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.state.products[id]
	return p, ok
}

// CartItemCount returns the number of cart lines across all carts.
func (s *Store) CartItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, items := range s.state.cartItems {
		n += len(items)
	}
	return n
}

func (s *Store) CartCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.carts)
}

func (s *Store) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.orders)
}

func (s *Store) PendingEvents(ctx context.Context, limit int) ([]store.OutboxRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []store.OutboxRecord
	for _, rec := range s.state.outbox {
		if rec.SentAt != nil {
			continue
		}
		out = append(out, rec)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) MarkEventSent(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.state.outbox {
		if s.state.outbox[i].ID == id {
			now := time.Now().UTC()
			s.state.outbox[i].SentAt = &now
			return nil
		}
	}
	return fmt.Errorf("outbox record %d not found", id)
}

func (st *state) clone() *state {
	c := &state{
		products:  make(map[string]domain.Product, len(st.products)),
		inventory: make(map[string]domain.Inventory, len(st.inventory)),
		carts:     make(map[string]domain.Cart, len(st.carts)),
		cartItems: make(map[string][]domain.CartItem, len(st.cartItems)),
		orders:    make(map[string]domain.Order, len(st.orders)),
		outbox:    append([]store.OutboxRecord(nil), st.outbox...),
		outboxSeq: st.outboxSeq,
	}
	for k, v := range st.products {
		c.products[k] = v
	}
	for k, v := range st.inventory {
		c.inventory[k] = v
	}
	for k, v := range st.carts {
		c.carts[k] = v
	}
	for k, v := range st.cartItems {
		c.cartItems[k] = append([]domain.CartItem(nil), v...)
	}
	for k, v := range st.orders {
		v.Items = append([]domain.OrderItem(nil), v.Items...)
		c.orders[k] = v
	}
	return c
}

type tx struct {
	state    *state
	failures map[string]error
}

var _ store.Tx = (*tx)(nil)

func (t *tx) fail(method string) error {
	return t.failures[method]
}

func (t *tx) CartByBuyer(ctx context.Context, buyerID string, lock bool) (*domain.Cart, error) {
	if err := t.fail("CartByBuyer"); err != nil {
		return nil, err
	}
	cart, ok := t.state.carts[buyerID]
	if !ok {
		return nil, nil
	}
	cart.Items = []domain.CartItem{}
	for _, item := range t.state.cartItems[cart.ID] {
		item.ProductTitle = t.state.products[item.ProductID].Title
		cart.Items = append(cart.Items, item)
	}
	return &cart, nil
}

func (t *tx) CreateCart(ctx context.Context, buyerID string, now time.Time) error {
	if err := t.fail("CreateCart"); err != nil {
		return err
	}
	if _, ok := t.state.carts[buyerID]; ok {
		return nil
	}
	t.state.carts[buyerID] = domain.Cart{
		ID:        uuid.New().String(),
		BuyerID:   buyerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return nil
}

func (t *tx) TouchCart(ctx context.Context, cartID string, at time.Time) error {
	if err := t.fail("TouchCart"); err != nil {
		return err
	}
	for buyerID, cart := range t.state.carts {
		if cart.ID == cartID {
			cart.UpdatedAt = at
			t.state.carts[buyerID] = cart
		}
	}
	return nil
}

func (t *tx) AddCartItem(ctx context.Context, item domain.CartItem) error {
	if err := t.fail("AddCartItem"); err != nil {
		return err
	}
	items := t.state.cartItems[item.CartID]
	for i := range items {
		if items[i].ProductID == item.ProductID {
			items[i].Quantity += item.Quantity
			return nil
		}
	}
	item.ID = uuid.New().String()
	item.ProductTitle = ""
	t.state.cartItems[item.CartID] = append(items, item)
	return nil
}

func (t *tx) UpdateCartItemQuantity(ctx context.Context, cartID, productID string, qty int) (bool, error) {
	if err := t.fail("UpdateCartItemQuantity"); err != nil {
		return false, err
	}
	items := t.state.cartItems[cartID]
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity = qty
			return true, nil
		}
	}
	return false, nil
}

func (t *tx) DeleteCartItem(ctx context.Context, cartID, productID string) error {
	if err := t.fail("DeleteCartItem"); err != nil {
		return err
	}
	items := t.state.cartItems[cartID]
	kept := items[:0]
	for _, item := range items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	t.state.cartItems[cartID] = kept
	return nil
}

func (t *tx) DeleteCartItems(ctx context.Context, cartID string) error {
	if err := t.fail("DeleteCartItems"); err != nil {
		return err
	}
	delete(t.state.cartItems, cartID)
	return nil
}

func (t *tx) InsertOrder(ctx context.Context, order *domain.Order) error {
	if err := t.fail("InsertOrder"); err != nil {
		return err
	}
	order.ID = uuid.New().String()
	for i := range order.Items {
		order.Items[i].ID = uuid.New().String()
		order.Items[i].OrderID = order.ID
	}
	stored := *order
	stored.Items = append([]domain.OrderItem(nil), order.Items...)
	t.state.orders[order.ID] = stored
	return nil
}

func (t *tx) OrderByID(ctx context.Context, id string) (*domain.Order, error) {
	if err := t.fail("OrderByID"); err != nil {
		return nil, err
	}
	order, ok := t.state.orders[id]
	if !ok {
		return nil, nil
	}
	order.Items = append([]domain.OrderItem{}, order.Items...)
	return &order, nil
}

func (t *tx) OrdersByBuyer(ctx context.Context, buyerID string, page domain.PageRequest) ([]domain.Order, int, error) {
	if err := t.fail("OrdersByBuyer"); err != nil {
		return nil, 0, err
	}
	var all []domain.Order
	for _, order := range t.state.orders {
		if order.BuyerID == buyerID {
			order.Items = append([]domain.OrderItem{}, order.Items...)
			all = append(all, order)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	return append([]domain.Order{}, window(all, page)...), len(all), nil
}

func (t *tx) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus, at time.Time) (bool, error) {
	if err := t.fail("UpdateOrderStatus"); err != nil {
		return false, err
	}
	order, ok := t.state.orders[id]
	if !ok {
		return false, nil
	}
	order.Status = status
	order.UpdatedAt = at
	t.state.orders[id] = order
	return true, nil
}

func (t *tx) ProductByID(ctx context.Context, id string) (*domain.Product, error) {
	if err := t.fail("ProductByID"); err != nil {
		return nil, err
	}
	p, ok := t.state.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (t *tx) ProductByIDAndSeller(ctx context.Context, id, sellerID string) (*domain.Product, error) {
	if err := t.fail("ProductByIDAndSeller"); err != nil {
		return nil, err
	}
	p, ok := t.state.products[id]
	if !ok || p.SellerID != sellerID {
		return nil, nil
	}
	return &p, nil
}

func (t *tx) UpdateProductStatus(ctx context.Context, id string, status domain.ProductStatus, at time.Time) (bool, error) {
	if err := t.fail("UpdateProductStatus"); err != nil {
		return false, err
	}
	p, ok := t.state.products[id]
	if !ok {
		return false, nil
	}
	p.Status = status
	p.UpdatedAt = at
	t.state.products[id] = p
	return true, nil
}

func (t *tx) InsertProduct(ctx context.Context, product *domain.Product) error {
	if err := t.fail("InsertProduct"); err != nil {
		return err
	}
	product.ID = uuid.New().String()
	t.state.products[product.ID] = *product
	return nil
}

func (t *tx) UpdateProduct(ctx context.Context, product *domain.Product) (bool, error) {
	if err := t.fail("UpdateProduct"); err != nil {
		return false, err
	}
	p, ok := t.state.products[product.ID]
	if !ok {
		return false, nil
	}
	p.Title = product.Title
	p.Description = product.Description
	p.Price = product.Price
	p.Status = product.Status
	p.UpdatedAt = product.UpdatedAt
	t.state.products[p.ID] = p
	return true, nil
}

func (t *tx) ProductsByStatus(ctx context.Context, status domain.ProductStatus, page domain.PageRequest) ([]domain.Product, int, error) {
	if err := t.fail("ProductsByStatus"); err != nil {
		return nil, 0, err
	}
	match := func(p domain.Product) bool { return p.Status == status }
	return t.pageProducts(match, page), t.countProducts(match), nil
}

func (t *tx) ProductsBySeller(ctx context.Context, sellerID string, page domain.PageRequest) ([]domain.Product, int, error) {
	if err := t.fail("ProductsBySeller"); err != nil {
		return nil, 0, err
	}
	match := func(p domain.Product) bool { return p.SellerID == sellerID }
	return t.pageProducts(match, page), t.countProducts(match), nil
}

func (t *tx) countProducts(match func(domain.Product) bool) int {
	n := 0
	for _, p := range t.state.products {
		if match(p) {
			n++
		}
	}
	return n
}

func (t *tx) pageProducts(match func(domain.Product) bool, page domain.PageRequest) []domain.Product {
	var all []domain.Product
	for _, p := range t.state.products {
		if match(p) {
			all = append(all, p)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return append([]domain.Product{}, window(all, page)...)
}

// window returns the slice of items page selects.
func window[T any](items []T, page domain.PageRequest) []T {
	start := min(page.Offset(), len(items))
	end := min(start+page.Size, len(items))
	return items[start:end]
}

func (t *tx) InventoryByProduct(ctx context.Context, productID string) (*domain.Inventory, error) {
	if err := t.fail("InventoryByProduct"); err != nil {
		return nil, err
	}
	inv, ok := t.state.inventory[productID]
	if !ok {
		return nil, nil
	}
	return &inv, nil
}

func (t *tx) UpsertInventoryQuantity(ctx context.Context, productID string, qty int, at time.Time) (*domain.Inventory, error) {
	if err := t.fail("UpsertInventoryQuantity"); err != nil {
		return nil, err
	}
	inv := t.state.inventory[productID]
	inv.ProductID = productID
	inv.Quantity = qty
	inv.UpdatedAt = at
	t.state.inventory[productID] = inv
	return &inv, nil
}

func (t *tx) EnqueueEvent(ctx context.Context, rec store.OutboxRecord) error {
	if err := t.fail("EnqueueEvent"); err != nil {
		return err
	}
	t.state.outboxSeq++
	rec.ID = t.state.outboxSeq
	t.state.outbox = append(t.state.outbox, rec)
	return nil
}
