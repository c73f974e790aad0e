package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tamaskov/storefront/internal/cart"
	serrors "github.com/tamaskov/storefront/internal/errors"
	"github.com/tamaskov/storefront/internal/model"
	"github.com/tamaskov/storefront/internal/store"
)

// newTestCart wires the cart service over a transient catalog seeded
// with one 9.99 USD product and returns both.
func newTestCart(t *testing.T) (*Cart, int64) {
	t.Helper()
	ctx := context.Background()
	mem := store.NewMemory()

	supplier, err := mem.Suppliers.Create(ctx, model.Supplier{Name: "Acme"})
	require.NoError(t, err)
	category, err := mem.Categories.Create(ctx, model.ProductCategory{Name: "Tools"})
	require.NoError(t, err)
	product, err := mem.Products.Create(ctx, model.Product{
		Name:         "Hammer",
		Currency:     "USD",
		DefaultPrice: 999,
		Category:     model.ProductCategory{ID: category.ID},
		Supplier:     model.Supplier{ID: supplier.ID},
	})
	require.NoError(t, err)

	sessions := cart.NewSessionManager(cart.NewOrderStore())
	return NewCart(mem.Products, sessions), product.ID
}

func Test_Cart_AddItem(t *testing.T) {
	ctx := context.Background()
	service, productID := newTestCart(t)

	// first merge creates the session's order
	state, err := service.AddItem(ctx, "visitor-a", productID, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, state.NumOfLineItems)
	assert.Equal(t, int32(2), state.TotalQuantity)
	assert.Equal(t, int64(1998), state.TotalPrice)

	// second merge accumulates onto the same line item
	state, err = service.AddItem(ctx, "visitor-a", productID, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, state.NumOfLineItems)
	assert.Equal(t, int32(5), state.TotalQuantity)
	assert.Equal(t, int64(4995), state.TotalPrice)

	require.Len(t, state.Items, 1)
	item := state.Items[0]
	assert.Equal(t, productID, item.ProductID)
	assert.Equal(t, "Hammer", item.ProductName)
	assert.Equal(t, int64(999), item.UnitPrice)
	assert.Equal(t, "USD", item.Currency)
	assert.Equal(t, int32(5), item.Quantity)
	assert.Equal(t, int64(4995), item.LinePrice)
}

func Test_Cart_AddItem_UnknownProduct(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestCart(t)

	state, err := service.AddItem(ctx, "visitor-a", 42, 1)

	assert.ErrorIs(t, err, serrors.ErrProductNotFound)
	assert.Nil(t, state)
	// the failed merge must not have created a line item
	view, err := service.View(ctx, "visitor-a")
	require.NoError(t, err)
	assert.Equal(t, 0, view.NumOfLineItems)
}

func Test_Cart_AddItem_InvalidQuantity(t *testing.T) {
	ctx := context.Background()
	service, productID := newTestCart(t)

	testCases := []struct {
		name     string
		quantity int32
	}{
		{name: "zero quantity", quantity: 0},
		{name: "negative quantity", quantity: -1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			state, err := service.AddItem(ctx, "visitor-a", productID, tc.quantity)
			assert.ErrorIs(t, err, serrors.ErrInvalidQuantity)
			assert.Nil(t, state)
		})
	}
}

func Test_Cart_SessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	service, productID := newTestCart(t)

	_, err := service.AddItem(ctx, "visitor-a", productID, 2)
	require.NoError(t, err)

	// a different session sees an empty cart
	view, err := service.View(ctx, "visitor-b")
	require.NoError(t, err)
	assert.Equal(t, 0, view.NumOfLineItems)

	// and the first session's cart is unaffected
	view, err = service.View(ctx, "visitor-a")
	require.NoError(t, err)
	assert.Equal(t, int32(2), view.TotalQuantity)
}

func Test_Cart_EndSession(t *testing.T) {
	ctx := context.Background()
	service, productID := newTestCart(t)

	before, err := service.AddItem(ctx, "visitor-a", productID, 2)
	require.NoError(t, err)

	service.EndSession(ctx, "visitor-a")

	// the next view starts a fresh, empty cart
	after, err := service.View(ctx, "visitor-a")
	require.NoError(t, err)
	assert.NotEqual(t, before.OrderID, after.OrderID)
	assert.Equal(t, 0, after.NumOfLineItems)
}
