// Package cart implements the order aggregate bound to a visiting
// session: line items keyed by product, derived totals, and the
// session-to-order binding. Orders live in memory only; they are never
// persisted durably.
package cart

import (
	"sort"
	"sync"

	serrors "github.com/tamaskov/storefront/internal/errors"
	"github.com/tamaskov/storefront/internal/model"
)

// LineItem is one product selection inside an order. Quantity is
// always >= 1; a merge that would violate that is rejected before any
// mutation.
type LineItem struct {
	Product  model.Product
	Quantity int32
}

// Order is the cart aggregate. Line items are keyed by product ID so
// re-adding a product merges into the existing line instead of
// duplicating it. The mutex serializes merges against reads, which
// keeps merges from one session applied in arrival order.
type Order struct {
	ID int64

	mu    sync.Mutex
	lines map[int64]*LineItem
}

func newOrder(id int64) *Order {
	return &Order{
		ID:    id,
		lines: make(map[int64]*LineItem),
	}
}

// MergeSelection adds quantity units of the product to the order.
// A quantity below 1 returns ErrInvalidQuantity and leaves the order
// untouched. Merging the same product again accumulates.
func (o *Order) MergeSelection(p model.Product, quantity int32) error {
	if quantity < 1 {
		return serrors.ErrInvalidQuantity
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if line, ok := o.lines[p.ID]; ok {
		line.Quantity += quantity
		return nil
	}
	o.lines[p.ID] = &LineItem{Product: p, Quantity: quantity}
	return nil
}

// Lines returns a copy of the current line items, ordered by product ID.
func (o *Order) Lines() []LineItem {
	o.mu.Lock()
	defer o.mu.Unlock()

	list := make([]LineItem, 0, len(o.lines))
	for _, line := range o.lines {
		list = append(list, *line)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Product.ID < list[j].Product.ID })
	return list
}

// Len returns the number of distinct line items.
func (o *Order) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.lines)
}

// TotalQuantity is the sum of all line-item quantities, recomputed from
// the current lines on every call so it can never drift from them.
func (o *Order) TotalQuantity() int32 {
	o.mu.Lock()
	defer o.mu.Unlock()

	var total int32
	for _, line := range o.lines {
		total += line.Quantity
	}
	return total
}

// TotalPrice is the sum of quantity times default price over all line
// items, in minor currency units.
func (o *Order) TotalPrice() int64 {
	o.mu.Lock()
	defer o.mu.Unlock()

	var total int64
	for _, line := range o.lines {
		total += int64(line.Quantity) * line.Product.DefaultPrice
	}
	return total
}
