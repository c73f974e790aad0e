package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	serrors "github.com/tamaskov/storefront/internal/errors"
	"github.com/tamaskov/storefront/internal/model"
)

// Pg bundles the durable engine's per-family stores over one
// connection pool. Concurrency control is delegated to PostgreSQL;
// each operation issues a single statement (or a short read sequence
// for reference resolution) and holds no transaction across calls.
type Pg struct {
	Suppliers  *PgSuppliers
	Categories *PgCategories
	Products   *PgProducts
}

// NewPg creates the durable engine on top of the given pool. The
// schema comes from the migrations directory; the two product foreign
// keys are declared ON DELETE CASCADE so that removing a referenced
// category or supplier behaves exactly like the transient engine.
func NewPg(db *pgxpool.Pool) *Pg {
	suppliers := &PgSuppliers{db: db}
	categories := &PgCategories{db: db}
	products := &PgProducts{db: db, suppliers: suppliers, categories: categories}
	return &Pg{
		Suppliers:  suppliers,
		Categories: categories,
		Products:   products,
	}
}

// PgSuppliers implements SupplierStore against the supplier table.
type PgSuppliers struct {
	db *pgxpool.Pool
}

func (s *PgSuppliers) Create(ctx context.Context, supplier model.Supplier) (*model.Supplier, error) {
	err := s.db.QueryRow(ctx,
		`INSERT INTO supplier (name, description) VALUES ($1, $2) RETURNING id`,
		supplier.Name, supplier.Description,
	).Scan(&supplier.ID)
	if err != nil {
		return nil, serrors.Storage("create", "supplier", 0, err)
	}
	return &supplier, nil
}

func (s *PgSuppliers) FindByID(ctx context.Context, id int64) (*model.Supplier, error) {
	var supplier model.Supplier
	err := s.db.QueryRow(ctx,
		`SELECT id, name, description FROM supplier WHERE id = $1`, id,
	).Scan(&supplier.ID, &supplier.Name, &supplier.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, serrors.ErrSupplierNotFound
		}
		return nil, serrors.Storage("find", "supplier", id, err)
	}
	return &supplier, nil
}

func (s *PgSuppliers) FindAll(ctx context.Context) ([]model.Supplier, error) {
	rows, err := s.db.Query(ctx, `SELECT id, name, description FROM supplier ORDER BY id`)
	if err != nil {
		return nil, serrors.Storage("list", "supplier", 0, err)
	}
	defer rows.Close()

	list := make([]model.Supplier, 0)
	for rows.Next() {
		var supplier model.Supplier
		if err := rows.Scan(&supplier.ID, &supplier.Name, &supplier.Description); err != nil {
			return nil, serrors.Storage("list", "supplier", 0, err)
		}
		list = append(list, supplier)
	}
	if err := rows.Err(); err != nil {
		return nil, serrors.Storage("list", "supplier", 0, err)
	}
	return list, nil
}

func (s *PgSuppliers) DeleteByID(ctx context.Context, id int64) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM supplier WHERE id = $1`, id); err != nil {
		return serrors.Storage("delete", "supplier", id, err)
	}
	return nil
}

// PgCategories implements CategoryStore against the product_category table.
type PgCategories struct {
	db *pgxpool.Pool
}

func (s *PgCategories) Create(ctx context.Context, category model.ProductCategory) (*model.ProductCategory, error) {
	err := s.db.QueryRow(ctx,
		`INSERT INTO product_category (name, description, department) VALUES ($1, $2, $3) RETURNING id`,
		category.Name, category.Description, category.Department,
	).Scan(&category.ID)
	if err != nil {
		return nil, serrors.Storage("create", "category", 0, err)
	}
	return &category, nil
}

func (s *PgCategories) FindByID(ctx context.Context, id int64) (*model.ProductCategory, error) {
	var category model.ProductCategory
	err := s.db.QueryRow(ctx,
		`SELECT id, name, description, department FROM product_category WHERE id = $1`, id,
	).Scan(&category.ID, &category.Name, &category.Description, &category.Department)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, serrors.ErrCategoryNotFound
		}
		return nil, serrors.Storage("find", "category", id, err)
	}
	return &category, nil
}

func (s *PgCategories) FindAll(ctx context.Context) ([]model.ProductCategory, error) {
	rows, err := s.db.Query(ctx, `SELECT id, name, description, department FROM product_category ORDER BY id`)
	if err != nil {
		return nil, serrors.Storage("list", "category", 0, err)
	}
	defer rows.Close()

	list := make([]model.ProductCategory, 0)
	for rows.Next() {
		var category model.ProductCategory
		if err := rows.Scan(&category.ID, &category.Name, &category.Description, &category.Department); err != nil {
			return nil, serrors.Storage("list", "category", 0, err)
		}
		list = append(list, category)
	}
	if err := rows.Err(); err != nil {
		return nil, serrors.Storage("list", "category", 0, err)
	}
	return list, nil
}

func (s *PgCategories) DeleteByID(ctx context.Context, id int64) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM product_category WHERE id = $1`, id); err != nil {
		return serrors.Storage("delete", "category", id, err)
	}
	return nil
}

// PgProducts implements ProductStore against the product table.
// Reconstructing a product resolves its category and supplier through
// the corresponding stores, so a read costs two extra lookups and a
// dangling reference surfaces as ErrBrokenReference instead of a
// silently partial product.
type PgProducts struct {
	db         *pgxpool.Pool
	suppliers  *PgSuppliers
	categories *PgCategories
}

// pgProductRow mirrors the product table shape before resolution.
type pgProductRow struct {
	ID           int64
	Name         string
	Description  string
	Currency     string
	DefaultPrice int64
	CategoryID   int64
	SupplierID   int64
}

const productColumns = `id, name, description, currency, default_price, product_category_id, supplier_id`

func (s *PgProducts) Create(ctx context.Context, p model.Product) (*model.Product, error) {
	// RETURNING propagates the generated identity back into the entity
	// handed to the caller, so object and row agree immediately.
	err := s.db.QueryRow(ctx,
		`INSERT INTO product (name, description, currency, default_price, supplier_id, product_category_id)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		p.Name, p.Description, p.Currency, p.DefaultPrice, p.Supplier.ID, p.Category.ID,
	).Scan(&p.ID)
	if err != nil {
		return nil, serrors.Storage("create", "product", 0, err)
	}
	return s.resolve(ctx, pgProductRow{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		Currency:     p.Currency,
		DefaultPrice: p.DefaultPrice,
		CategoryID:   p.Category.ID,
		SupplierID:   p.Supplier.ID,
	})
}

func (s *PgProducts) FindByID(ctx context.Context, id int64) (*model.Product, error) {
	var row pgProductRow
	err := s.db.QueryRow(ctx,
		`SELECT `+productColumns+` FROM product WHERE id = $1`, id,
	).Scan(&row.ID, &row.Name, &row.Description, &row.Currency, &row.DefaultPrice, &row.CategoryID, &row.SupplierID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, serrors.ErrProductNotFound
		}
		return nil, serrors.Storage("find", "product", id, err)
	}
	return s.resolve(ctx, row)
}

func (s *PgProducts) FindAll(ctx context.Context) ([]model.Product, error) {
	return s.query(ctx, `SELECT `+productColumns+` FROM product ORDER BY id`)
}

func (s *PgProducts) FindByCategory(ctx context.Context, categoryID int64) ([]model.Product, error) {
	return s.query(ctx, `SELECT `+productColumns+` FROM product WHERE product_category_id = $1 ORDER BY id`, categoryID)
}

func (s *PgProducts) FindBySupplier(ctx context.Context, supplierID int64) ([]model.Product, error) {
	return s.query(ctx, `SELECT `+productColumns+` FROM product WHERE supplier_id = $1 ORDER BY id`, supplierID)
}

func (s *PgProducts) DeleteByID(ctx context.Context, id int64) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM product WHERE id = $1`, id); err != nil {
		return serrors.Storage("delete", "product", id, err)
	}
	return nil
}

func (s *PgProducts) query(ctx context.Context, sql string, args ...any) ([]model.Product, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, serrors.Storage("list", "product", 0, err)
	}
	defer rows.Close()

	buffered := make([]pgProductRow, 0)
	for rows.Next() {
		var row pgProductRow
		if err := rows.Scan(&row.ID, &row.Name, &row.Description, &row.Currency, &row.DefaultPrice, &row.CategoryID, &row.SupplierID); err != nil {
			return nil, serrors.Storage("list", "product", 0, err)
		}
		buffered = append(buffered, row)
	}
	if err := rows.Err(); err != nil {
		return nil, serrors.Storage("list", "product", 0, err)
	}

	// Resolve after draining the result set; the nested lookups issue
	// their own queries on the pool.
	list := make([]model.Product, 0, len(buffered))
	for _, row := range buffered {
		p, err := s.resolve(ctx, row)
		if err != nil {
			return nil, err
		}
		list = append(list, *p)
	}
	return list, nil
}

func (s *PgProducts) resolve(ctx context.Context, row pgProductRow) (*model.Product, error) {
	category, err := s.categories.FindByID(ctx, row.CategoryID)
	if err != nil {
		if errors.Is(err, serrors.ErrCategoryNotFound) {
			return nil, fmt.Errorf("product %d references category %d: %w", row.ID, row.CategoryID, serrors.ErrBrokenReference)
		}
		return nil, err
	}
	supplier, err := s.suppliers.FindByID(ctx, row.SupplierID)
	if err != nil {
		if errors.Is(err, serrors.ErrSupplierNotFound) {
			return nil, fmt.Errorf("product %d references supplier %d: %w", row.ID, row.SupplierID, serrors.ErrBrokenReference)
		}
		return nil, err
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
