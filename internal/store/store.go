// Package store defines the storage contract for the catalog and its
// two interchangeable engines: a transient in-process one and a durable
// PostgreSQL one. Both expose identical observable behavior: the same
// call sequence against either engine, given equivalent initial data,
// produces equivalent outcomes.
package store

import (
	"context"

	"github.com/tamaskov/storefront/internal/model"
)

// SupplierStore is the storage contract for suppliers.
type SupplierStore interface {
	// Create inserts the supplier and returns it with its assigned ID.
	Create(ctx context.Context, s model.Supplier) (*model.Supplier, error)

	// FindByID returns ErrSupplierNotFound if no supplier has the given ID.
	FindByID(ctx context.Context, id int64) (*model.Supplier, error)

	// FindAll returns every supplier. Ordering is unspecified but stable
	// within a single call.
	FindAll(ctx context.Context) ([]model.Supplier, error)

	// DeleteByID removes the supplier and cascades to products that
	// reference it. Deleting a missing ID is a no-op.
	DeleteByID(ctx context.Context, id int64) error
}

// CategoryStore is the storage contract for product categories.
type CategoryStore interface {
	// Create inserts the category and returns it with its assigned ID.
	Create(ctx context.Context, c model.ProductCategory) (*model.ProductCategory, error)

	// FindByID returns ErrCategoryNotFound if no category has the given ID.
	FindByID(ctx context.Context, id int64) (*model.ProductCategory, error)

	// FindAll returns every category. Ordering is unspecified but stable
	// within a single call.
	FindAll(ctx context.Context) ([]model.ProductCategory, error)

	// DeleteByID removes the category and cascades to products that
	// reference it. Deleting a missing ID is a no-op.
	DeleteByID(ctx context.Context, id int64) error
}

// ProductStore is the storage contract for products. Reads resolve the
// referenced category and supplier; a reference that no longer resolves
// surfaces ErrBrokenReference rather than a partial product.
type ProductStore interface {
	// Create inserts the product and returns it with its assigned ID.
	// Only Category.ID and Supplier.ID of the references are consulted.
	Create(ctx context.Context, p model.Product) (*model.Product, error)

	// FindByID returns ErrProductNotFound if no product has the given ID.
	FindByID(ctx context.Context, id int64) (*model.Product, error)

	// FindAll returns every product. Ordering is unspecified but stable
	// within a single call.
	FindAll(ctx context.Context) ([]model.Product, error)

	// FindByCategory returns the products referencing the given category.
	FindByCategory(ctx context.Context, categoryID int64) ([]model.Product, error)

	// FindBySupplier returns the products referencing the given supplier.
	FindBySupplier(ctx context.Context, supplierID int64) ([]model.Product, error)

	// DeleteByID removes the product. Deleting a missing ID is a no-op.
	DeleteByID(ctx context.Context, id int64) error
}
