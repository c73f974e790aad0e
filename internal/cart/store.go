package cart

import (
	"sync"

	serrors "github.com/tamaskov/storefront/internal/errors"
)

// OrderStore is the in-process store for orders. Like the catalog's
// transient engine it assigns identities from a counter that never
// decreases, so deleting an order can not lead to an ID collision
// later in the process lifetime.
type OrderStore struct {
	mu     sync.RWMutex
	seq    int64
	orders map[int64]*Order
}

func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders: make(map[int64]*Order),
	}
}

// Create adds a new empty order and returns it with its assigned ID.
func (s *OrderStore) Create() *Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	order := newOrder(s.seq)
	s.orders[order.ID] = order
	return order
}

// FindByID returns ErrOrderNotFound if no order has the given ID.
func (s *OrderStore) FindByID(id int64) (*Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, serrors.ErrOrderNotFound
	}
	return order, nil
}

// DeleteByID removes the order. Deleting a missing ID is a no-op.
func (s *OrderStore) DeleteByID(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.orders, id)
}

// Len returns the number of live orders.
func (s *OrderStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}
