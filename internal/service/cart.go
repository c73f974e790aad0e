package service

import (
	"context"
	"fmt"

	"github.com/tamaskov/storefront/internal/cart"
	"github.com/tamaskov/storefront/internal/store"
)

// CartService merges product selections into the order bound to a
// session token and reports the cart state back for the UI.
type CartService interface {
	// AddItem merges quantity units of the product into the session's
	// order, creating the order on first use. Returns
	// ErrProductNotFound for an unknown product and ErrInvalidQuantity
	// for a quantity below 1; in both cases the order is unchanged.
	AddItem(ctx context.Context, token string, productID int64, quantity int32) (*CartDto, error)

	// View returns the current state of the session's order, creating
	// an empty one on first use.
	View(ctx context.Context, token string) (*CartDto, error)

	// EndSession unbinds the token and drops its order.
	EndSession(ctx context.Context, token string)
}

// Cart implements CartService on top of the product store and the
// session binding. Products are resolved through whichever engine is
// configured; orders always live in memory.
type Cart struct {
	products store.ProductStore
	sessions *cart.SessionManager
}

// NewCart creates a CartService.
func NewCart(products store.ProductStore, sessions *cart.SessionManager) *Cart {
	return &Cart{
		products: products,
		sessions: sessions,
	}
}

// CartDto is the cart state sent back after a merge or a view. It is
// the payload the storefront UI refreshes its cart widget from.
type CartDto struct {
	OrderID        int64         `json:"order_id"`
	NumOfLineItems int           `json:"num_of_line_items"`
	TotalQuantity  int32         `json:"total_quantity"`
	TotalPrice     int64         `json:"total_price"`
	Items          []CartItemDto `json:"items"`
}

type CartItemDto struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	UnitPrice   int64  `json:"unit_price"`
	Currency    string `json:"currency"`
	Quantity    int32  `json:"quantity"`
	LinePrice   int64  `json:"line_price"`
}

func (s *Cart) AddItem(ctx context.Context, token string, productID int64, quantity int32) (*CartDto, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve product %d for cart: %w", productID, err)
	}

	order := s.sessions.OrderFor(token)
	if err := order.MergeSelection(*product, quantity); err != nil {
		return nil, err
	}
	return toCartDto(order), nil
}

func (s *Cart) View(_ context.Context, token string) (*CartDto, error) {
	return toCartDto(s.sessions.OrderFor(token)), nil
}

func (s *Cart) EndSession(_ context.Context, token string) {
	s.sessions.End(token)
}

func toCartDto(order *cart.Order) *CartDto {
	lines := order.Lines()
	items := make([]CartItemDto, len(lines))
	for i, line := range lines {
		items[i] = CartItemDto{
			ProductID:   line.Product.ID,
			ProductName: line.Product.Name,
			UnitPrice:   line.Product.DefaultPrice,
			Currency:    line.Product.Currency,
			Quantity:    line.Quantity,
			LinePrice:   int64(line.Quantity) * line.Product.DefaultPrice,
		}
	}
	return &CartDto{
		OrderID:        order.ID,
		NumOfLineItems: len(lines),
		TotalQuantity:  order.TotalQuantity(),
		TotalPrice:     order.TotalPrice(),
		Items:          items,
	}
}
