package cart

import "sync"

// SessionManager binds one opaque session token to at most one order.
// The binding map is process-wide shared state and is guarded by its
// own mutex, independent of the per-order and per-store locks.
//
// There is no automatic expiry: a long-running process accumulates
// orders for dead sessions until End is called for their tokens. The
// surrounding layer decides when a session is over.
type SessionManager struct {
	mu     sync.Mutex
	orders *OrderStore
	bound  map[string]int64
}

func NewSessionManager(orders *OrderStore) *SessionManager {
	return &SessionManager{
		orders: orders,
		bound:  make(map[string]int64),
	}
}

// OrderFor returns the order bound to the token, creating and binding a
// new empty one on first use. Concurrent calls with the same token
// observe the same order.
func (m *SessionManager) OrderFor(token string) *Order {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.bound[token]; ok {
		if order, err := m.orders.FindByID(id); err == nil {
			return order
		}
		// Bound order was deleted underneath us; fall through and
		// rebind a fresh one.
	}
	order := m.orders.Create()
	m.bound[token] = order.ID
	return order
}

// End unbinds the token and deletes its order, if any. Ending an
// unknown token is a no-op.
func (m *SessionManager) End(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.bound[token]; ok {
		m.orders.DeleteByID(id)
		delete(m.bound, token)
	}
}

// Len returns the number of bound sessions.
func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bound)
}
