package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	serrors "github.com/tamaskov/storefront/internal/errors"
	"github.com/tamaskov/storefront/internal/model"
)

// Memory bundles the transient engine's per-family stores. The stores
// are shared process-wide: construct one Memory at startup and hand the
// same instance to everything.
type Memory struct {
	Suppliers  *MemorySuppliers
	Categories *MemoryCategories
	Products   *MemoryProducts
}

// NewMemory creates the transient engine. The family stores are wired
// together so that deleting a category or supplier cascades to the
// products referencing it, matching the durable engine's FK semantics.
func NewMemory() *Memory {
	products := &MemoryProducts{items: make(map[int64]productRow)}
	suppliers := &MemorySuppliers{items: make(map[int64]model.Supplier), products: products}
	categories := &MemoryCategories{items: make(map[int64]model.ProductCategory), products: products}
	products.suppliers = suppliers
	products.categories = categories
	return &Memory{
		Suppliers:  suppliers,
		Categories: categories,
		Products:   products,
	}
}

// MemorySuppliers implements SupplierStore with a mutex-guarded map.
// IDs come from a counter that never decreases, so an ID freed by a
// delete is never handed out again.
type MemorySuppliers struct {
	mu       sync.RWMutex
	seq      int64
	items    map[int64]model.Supplier
	products *MemoryProducts
}

func (s *MemorySuppliers) Create(_ context.Context, supplier model.Supplier) (*model.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	supplier.ID = s.seq
	s.items[supplier.ID] = supplier
	return &supplier, nil
}

func (s *MemorySuppliers) FindByID(_ context.Context, id int64) (*model.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	supplier, ok := s.items[id]
	if !ok {
		return nil, serrors.ErrSupplierNotFound
	}
	return &supplier, nil
}

func (s *MemorySuppliers) FindAll(_ context.Context) ([]model.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]model.Supplier, 0, len(s.items))
	for _, supplier := range s.items {
		list = append(list, supplier)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (s *MemorySuppliers) DeleteByID(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return nil
	}
	delete(s.items, id)
	s.products.deleteBySupplier(id)
	return nil
}

// MemoryCategories implements CategoryStore with a mutex-guarded map.
type MemoryCategories struct {
	mu       sync.RWMutex
	seq      int64
	items    map[int64]model.ProductCategory
	products *MemoryProducts
}

func (s *MemoryCategories) Create(_ context.Context, category model.ProductCategory) (*model.ProductCategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	category.ID = s.seq
	s.items[category.ID] = category
	return &category, nil
}

func (s *MemoryCategories) FindByID(_ context.Context, id int64) (*model.ProductCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	category, ok := s.items[id]
	if !ok {
		return nil, serrors.ErrCategoryNotFound
	}
	return &category, nil
}

func (s *MemoryCategories) FindAll(_ context.Context) ([]model.ProductCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]model.ProductCategory, 0, len(s.items))
	for _, category := range s.items {
		list = append(list, category)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (s *MemoryCategories) DeleteByID(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return nil
	}
	delete(s.items, id)
	s.products.deleteByCategory(id)
	return nil
}

// productRow is a product as stored: references are kept as IDs and
// resolved on every read, the same way the durable engine does it.
type productRow struct {
	ID           int64
	Name         string
	Description  string
	Currency     string
	DefaultPrice int64
	CategoryID   int64
	SupplierID   int64
}

// MemoryProducts implements ProductStore with a mutex-guarded map.
//
// Lock ordering: the category/supplier stores may take the products
// lock while cascading a delete, so product reads copy rows out under
// the products lock and resolve references only after releasing it.
type MemoryProducts struct {
	mu         sync.RWMutex
	seq        int64
	items      map[int64]productRow
	suppliers  *MemorySuppliers
	categories *MemoryCategories
}

func (s *MemoryProducts) Create(ctx context.Context, p model.Product) (*model.Product, error) {
	// Reject dangling references up front, like the durable engine's FK
	// constraints would.
	if _, err := s.categories.FindByID(ctx, p.Category.ID); err != nil {
		return nil, serrors.Storage("create", "product", 0, fmt.Errorf("category %d does not exist", p.Category.ID))
	}
	if _, err := s.suppliers.FindByID(ctx, p.Supplier.ID); err != nil {
		return nil, serrors.Storage("create", "product", 0, fmt.Errorf("supplier %d does not exist", p.Supplier.ID))
	}

	s.mu.Lock()
	s.seq++
	row := productRow{
		ID:           s.seq,
		Name:         p.Name,
		Description:  p.Description,
		Currency:     p.Currency,
		DefaultPrice: p.DefaultPrice,
		CategoryID:   p.Category.ID,
		SupplierID:   p.Supplier.ID,
	}
	s.items[row.ID] = row
	s.mu.Unlock()

	// A cascade may have removed the category or supplier between the
	// pre-check and the insert. resolve re-reads both; on failure the
	// row is rolled back so no orphan outlives the call and the engine
	// keeps the durable engine's FK guarantee.
	created, err := s.resolve(ctx, row)
	if err != nil {
		s.mu.Lock()
		delete(s.items, row.ID)
		s.mu.Unlock()
		return nil, serrors.Storage("create", "product", 0, err)
	}
	return created, nil
}

func (s *MemoryProducts) FindByID(ctx context.Context, id int64) (*model.Product, error) {
	s.mu.RLock()
	row, ok := s.items[id]
	s.mu.RUnlock()

	if !ok {
		return nil, serrors.ErrProductNotFound
	}
	return s.resolve(ctx, row)
}

func (s *MemoryProducts) FindAll(ctx context.Context) ([]model.Product, error) {
	return s.collect(ctx, func(productRow) bool { return true })
}

func (s *MemoryProducts) FindByCategory(ctx context.Context, categoryID int64) ([]model.Product, error) {
	return s.collect(ctx, func(row productRow) bool { return row.CategoryID == categoryID })
}

func (s *MemoryProducts) FindBySupplier(ctx context.Context, supplierID int64) ([]model.Product, error) {
	return s.collect(ctx, func(row productRow) bool { return row.SupplierID == supplierID })
}

func (s *MemoryProducts) DeleteByID(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, id)
	return nil
}

// collect snapshots the matching rows under the read lock and resolves
// references afterwards.
func (s *MemoryProducts) collect(ctx context.Context, match func(productRow) bool) ([]model.Product, error) {
	s.mu.RLock()
	rows := make([]productRow, 0, len(s.items))
	for _, row := range s.items {
		if match(row) {
			rows = append(rows, row)
		}
	}
	s.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	list := make([]model.Product, 0, len(rows))
	for _, row := range rows {
		p, err := s.resolve(ctx, row)
		if err != nil {
			return nil, err
		}
		list = append(list, *p)
	}
	return list, nil
}

// resolve reconstructs a full product from a stored row by looking up
// its category and supplier. Must not be called with the products lock
// held.
func (s *MemoryProducts) resolve(ctx context.Context, row productRow) (*model.Product, error) {
	category, err := s.categories.FindByID(ctx, row.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("product %d references category %d: %w", row.ID, row.CategoryID, serrors.ErrBrokenReference)
	}
	supplier, err := s.suppliers.FindByID(ctx, row.SupplierID)
	if err != nil {
		return nil, fmt.Errorf("product %d references supplier %d: %w", row.ID, row.SupplierID, serrors.ErrBrokenReference)
	}
	return &model.Product{
		ID:           row.ID,
		Name:         row.Name,
		Description:  row.Description,
		Currency:     row.Currency,
		DefaultPrice: row.DefaultPrice,
		Category:     *category,
		Supplier:     *supplier,
	}, nil
}

// deleteBySupplier removes every product referencing the supplier.
// Called by MemorySuppliers while it holds its own lock; only the
// products lock is taken here.
func (s *MemoryProducts) deleteBySupplier(supplierID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, row := range s.items {
		if row.SupplierID == supplierID {
			delete(s.items, id)
		}
	}
}

// deleteByCategory removes every product referencing the category.
func (s *MemoryProducts) deleteByCategory(categoryID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, row := range s.items {
		if row.CategoryID == categoryID {
			delete(s.items, id)
		}
	}
}
