// Package service provides the business logic over the catalog stores
// and the session-bound cart.
package service

import (
	"context"
	"fmt"

	"github.com/tamaskov/storefront/internal/model"
	"github.com/tamaskov/storefront/internal/store"
)

// CatalogService defines the operations the presentation layer uses to
// browse and administer the catalog. Whichever store engine is
// configured sits behind it.
type CatalogService interface {
	// FindProductByID retrieves a single product.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindProductByID(ctx context.Context, id int64) (*ProductDto, error)

	// ListProducts returns all products.
	ListProducts(ctx context.Context) ([]ProductDto, error)

	// ProductsByCategory returns the products referencing the category.
	ProductsByCategory(ctx context.Context, categoryID int64) ([]ProductDto, error)

	// ProductsBySupplier returns the products referencing the supplier.
	ProductsBySupplier(ctx context.Context, supplierID int64) ([]ProductDto, error)

	// ListCategories returns all product categories.
	ListCategories(ctx context.Context) ([]CategoryDto, error)

	// ListSuppliers returns all suppliers.
	ListSuppliers(ctx context.Context) ([]SupplierDto, error)

	// CreateProduct adds a product referencing an existing category and supplier.
	CreateProduct(ctx context.Context, product ProductCreateDto) (*ProductDto, error)

	// CreateCategory adds a product category.
	CreateCategory(ctx context.Context, category CategoryCreateDto) (*CategoryDto, error)

	// CreateSupplier adds a supplier.
	CreateSupplier(ctx context.Context, supplier SupplierCreateDto) (*SupplierDto, error)

	// DeleteProduct removes a product. Unknown IDs are a no-op.
	DeleteProduct(ctx context.Context, id int64) error

	// DeleteCategory removes a category and, by cascade, its products.
	DeleteCategory(ctx context.Context, id int64) error

	// DeleteSupplier removes a supplier and, by cascade, its products.
	DeleteSupplier(ctx context.Context, id int64) error
}

// Catalog implements CatalogService over the per-family stores.
type Catalog struct {
	products   store.ProductStore
	categories store.CategoryStore
	suppliers  store.SupplierStore
}

// NewCatalog creates a CatalogService over the given stores.
func NewCatalog(products store.ProductStore, categories store.CategoryStore, suppliers store.SupplierStore) *Catalog {
	return &Catalog{
		products:   products,
		categories: categories,
		suppliers:  suppliers,
	}
}

// ProductDto carries a product with its resolved references flattened
// for the presentation layer. Price is in minor currency units.
type ProductDto struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Currency     string `json:"currency"`
	Price        int64  `json:"price"`
	CategoryID   int64  `json:"category_id"`
	CategoryName string `json:"category_name"`
	SupplierID   int64  `json:"supplier_id"`
	SupplierName string `json:"supplier_name"`
}

// ProductCreateDto is the payload for adding a product.
type ProductCreateDto struct {
	Name        string `json:"name"        validate:"required,max=100"`
	Description string `json:"description" validate:"max=1000"`
	Currency    string `json:"currency"    validate:"required,len=3"`
	Price       int64  `json:"price"       validate:"min=0"`
	CategoryID  int64  `json:"category_id" validate:"required,min=1"`
	SupplierID  int64  `json:"supplier_id" validate:"required,min=1"`
}

type CategoryDto struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Department  string `json:"department"`
}

type CategoryCreateDto struct {
	Name        string `json:"name"        validate:"required,max=100"`
	Description string `json:"description" validate:"max=1000"`
	Department  string `json:"department"  validate:"max=100"`
}

type SupplierDto struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type SupplierCreateDto struct {
	Name        string `json:"name"        validate:"required,max=100"`
	Description string `json:"description" validate:"max=1000"`
}

func (s *Catalog) FindProductByID(ctx context.Context, id int64) (*ProductDto, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product by ID %d: %w", id, err)
	}
	return toProductDto(product), nil
}

func (s *Catalog) ListProducts(ctx context.Context) ([]ProductDto, error) {
	products, err := s.products.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	return toProductDtos(products), nil
}

func (s *Catalog) ProductsByCategory(ctx context.Context, categoryID int64) ([]ProductDto, error) {
	products, err := s.products.FindByCategory(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products by category %d: %w", categoryID, err)
	}
	return toProductDtos(products), nil
}

func (s *Catalog) ProductsBySupplier(ctx context.Context, supplierID int64) ([]ProductDto, error) {
	products, err := s.products.FindBySupplier(ctx, supplierID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products by supplier %d: %w", supplierID, err)
	}
	return toProductDtos(products), nil
}

func (s *Catalog) ListCategories(ctx context.Context) ([]CategoryDto, error) {
	categories, err := s.categories.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}
	list := make([]CategoryDto, len(categories))
	for i, category := range categories {
		list[i] = CategoryDto{
			ID:          category.ID,
			Name:        category.Name,
			Description: category.Description,
			Department:  category.Department,
		}
	}
	return list, nil
}

func (s *Catalog) ListSuppliers(ctx context.Context) ([]SupplierDto, error) {
	suppliers, err := s.suppliers.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch suppliers: %w", err)
	}
	list := make([]SupplierDto, len(suppliers))
	for i, supplier := range suppliers {
		list[i] = SupplierDto{
			ID:          supplier.ID,
			Name:        supplier.Name,
			Description: supplier.Description,
		}
	}
	return list, nil
}

func (s *Catalog) CreateProduct(ctx context.Context, product ProductCreateDto) (*ProductDto, error) {
	created, err := s.products.Create(ctx, model.Product{
		Name:         product.Name,
		Description:  product.Description,
		Currency:     product.Currency,
		DefaultPrice: product.Price,
		Category:     model.ProductCategory{ID: product.CategoryID},
		Supplier:     model.Supplier{ID: product.SupplierID},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return toProductDto(created), nil
}

func (s *Catalog) CreateCategory(ctx context.Context, category CategoryCreateDto) (*CategoryDto, error) {
	created, err := s.categories.Create(ctx, model.ProductCategory{
		Name:        category.Name,
		Description: category.Description,
		Department:  category.Department,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return &CategoryDto{
		ID:          created.ID,
		Name:        created.Name,
		Description: created.Description,
		Department:  created.Department,
	}, nil
}

func (s *Catalog) CreateSupplier(ctx context.Context, supplier SupplierCreateDto) (*SupplierDto, error) {
	created, err := s.suppliers.Create(ctx, model.Supplier{
		Name:        supplier.Name,
		Description: supplier.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create supplier: %w", err)
	}
	return &SupplierDto{
		ID:          created.ID,
		Name:        created.Name,
		Description: created.Description,
	}, nil
}

func (s *Catalog) DeleteProduct(ctx context.Context, id int64) error {
	return s.products.DeleteByID(ctx, id)
}

func (s *Catalog) DeleteCategory(ctx context.Context, id int64) error {
	return s.categories.DeleteByID(ctx, id)
}

func (s *Catalog) DeleteSupplier(ctx context.Context, id int64) error {
	return s.suppliers.DeleteByID(ctx, id)
}

func toProductDto(p *model.Product) *ProductDto {
	return &ProductDto{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		Currency:     p.Currency,
		Price:        p.DefaultPrice,
		CategoryID:   p.Category.ID,
		CategoryName: p.Category.Name,
		SupplierID:   p.Supplier.ID,
		SupplierName: p.Supplier.Name,
	}
}

func toProductDtos(products []model.Product) []ProductDto {
	list := make([]ProductDto, len(products))
	for i := range products {
		list[i] = *toProductDto(&products[i])
	}
	return list
}
