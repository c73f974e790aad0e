package store

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	serrors "github.com/tamaskov/storefront/internal/errors"
	"github.com/tamaskov/storefront/internal/model"
)

const skipIntegrationTests = "STOREFRONT_SKIP_INTEGRATION_TESTS"

// PgStoreSuite exercises the durable engine against a real PostgreSQL
// instance so the cascade and identity behavior declared in the schema
// is verified, not assumed.
type PgStoreSuite struct {
	suite.Suite
	pgContainer *postgres.PostgresContainer
	dbPool      *pgxpool.Pool
	store       *Pg
	logger      *slog.Logger
	ctx         context.Context
}

func (s *PgStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	// 1. Start a PostgreSQL container and wait until it accepts connections.
	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:17.5-alpine",
		postgres.WithDatabase("storefront_db"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("5432/tcp"),
		),
	)
	require.NoError(s.T(), err, "Failed to run PostgreSQL container")

	// 2. Connect a pool through the container's connection string.
	connStr, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err, "Failed to get connection string from container")

	s.dbPool, err = pgxpool.New(s.ctx, connStr)
	require.NoError(s.T(), err, "Failed to create pgxpool")

	for i := range 10 {
		s.logger.Info("Pinging PostgreSQL database", "attempt", i+1)
		err = s.dbPool.Ping(s.ctx)
		if err == nil {
			break
		}
		time.Sleep(time.Second * 2)
	}
	require.NoError(s.T(), err, "Failed to connect to PostgreSQL after retries")

	// 3. Apply the schema migrations.
	wd, _ := os.Getwd()
	migrationsPath := filepath.Join(wd, "../../migrations")
	m, err := migrate.New("file://"+migrationsPath, connStr)
	require.NoError(s.T(), err, "Failed to create migrate instance")
	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		_, _ = m.Close()
		require.NoError(s.T(), err, "Failed to apply migrations")
	}
	s.logger.Info("Migrations applied for integration tests")

	s.store = NewPg(s.dbPool)
	s.logger.Info("Initialization complete for PgStoreSuite")
}

func (s *PgStoreSuite) TearDownSuite() {
	s.logger.Info("Tearing down suite...")
	if s.dbPool != nil {
		s.dbPool.Close()
	}
	if s.pgContainer != nil {
		if err := s.pgContainer.Terminate(s.ctx); err != nil {
			s.logger.Warn("failed to terminate PostgreSQL container", "error", err)
		}
	}
}

// SetupTest wipes all three tables and resets the identity sequences so
// each test starts from an empty catalog.
func (s *PgStoreSuite) SetupTest() {
	_, err := s.dbPool.Exec(s.ctx, "TRUNCATE TABLE product, product_category, supplier RESTART IDENTITY CASCADE")
	require.NoError(s.T(), err, "Failed to truncate tables")
}

func TestPgStoreIntegration(t *testing.T) {
	if os.Getenv(skipIntegrationTests) == "1" {
		t.Skip("Skipping integration tests based on " + skipIntegrationTests + " env var")
	}
	suite.Run(t, new(PgStoreSuite))
}

// seed creates one supplier, one category and one product referencing both.
func (s *PgStoreSuite) seed() (*model.Supplier, *model.ProductCategory, *model.Product) {
	s.T().Helper()
	supplier, err := s.store.Suppliers.Create(s.ctx, model.Supplier{Name: "Acme", Description: "Tools and more"})
	require.NoError(s.T(), err, "seed failed to create supplier")
	category, err := s.store.Categories.Create(s.ctx, model.ProductCategory{Name: "Tools", Department: "Hardware"})
	require.NoError(s.T(), err, "seed failed to create category")
	product, err := s.store.Products.Create(s.ctx, model.Product{
		Name:         "Hammer",
		Description:  "Claw hammer",
		Currency:     "USD",
		DefaultPrice: 999,
		Category:     model.ProductCategory{ID: category.ID},
		Supplier:     model.Supplier{ID: supplier.ID},
	})
	require.NoError(s.T(), err, "seed failed to create product")
	return supplier, category, product
}

func (s *PgStoreSuite) TestCreateAndFind() {
	// given
	supplier, category, product := s.seed()

	// then the generated identities came back through RETURNING
	require.NotZero(s.T(), supplier.ID)
	require.NotZero(s.T(), category.ID)
	require.NotZero(s.T(), product.ID)

	// and a read reconstructs the product with resolved references
	fetched, err := s.store.Products.FindByID(s.ctx, product.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), product.ID, fetched.ID)
	assert.Equal(s.T(), "Hammer", fetched.Name)
	assert.Equal(s.T(), int64(999), fetched.DefaultPrice)
	assert.Equal(s.T(), "Tools", fetched.Category.Name)
	assert.Equal(s.T(), "Acme", fetched.Supplier.Name)
}

func (s *PgStoreSuite) TestFindByID_NotFound() {
	// given (empty catalog)

	// when / then
	_, err := s.store.Products.FindByID(s.ctx, 42)
	require.ErrorIs(s.T(), err, serrors.ErrProductNotFound)
	_, err = s.store.Categories.FindByID(s.ctx, 42)
	require.ErrorIs(s.T(), err, serrors.ErrCategoryNotFound)
	_, err = s.store.Suppliers.FindByID(s.ctx, 42)
	require.ErrorIs(s.T(), err, serrors.ErrSupplierNotFound)
}

func (s *PgStoreSuite) TestDeleteMissingIsNoOp() {
	require.NoError(s.T(), s.store.Suppliers.DeleteByID(s.ctx, 42))
	require.NoError(s.T(), s.store.Categories.DeleteByID(s.ctx, 42))
	require.NoError(s.T(), s.store.Products.DeleteByID(s.ctx, 42))
}

func (s *PgStoreSuite) TestIdentityNotReissuedAfterDelete() {
	// given two suppliers
	_, err := s.store.Suppliers.Create(s.ctx, model.Supplier{Name: "Acme"})
	require.NoError(s.T(), err)
	second, err := s.store.Suppliers.Create(s.ctx, model.Supplier{Name: "Globex"})
	require.NoError(s.T(), err)

	// when the newest one is deleted and another is created
	require.NoError(s.T(), s.store.Suppliers.DeleteByID(s.ctx, second.ID))
	third, err := s.store.Suppliers.Create(s.ctx, model.Supplier{Name: "Initech"})
	require.NoError(s.T(), err)

	// then the sequence moved past the freed identity
	assert.Greater(s.T(), third.ID, second.ID)
}

func (s *PgStoreSuite) TestFilteredListings() {
	// given two suppliers, two categories and three products
	acme, err := s.store.Suppliers.Create(s.ctx, model.Supplier{Name: "Acme"})
	require.NoError(s.T(), err)
	globex, err := s.store.Suppliers.Create(s.ctx, model.Supplier{Name: "Globex"})
	require.NoError(s.T(), err)
	tools, err := s.store.Categories.Create(s.ctx, model.ProductCategory{Name: "Tools"})
	require.NoError(s.T(), err)
	garden, err := s.store.Categories.Create(s.ctx, model.ProductCategory{Name: "Garden"})
	require.NoError(s.T(), err)

	mk := func(name string, categoryID, supplierID int64) *model.Product {
		p, err := s.store.Products.Create(s.ctx, model.Product{
			Name:         name,
			Currency:     "USD",
			DefaultPrice: 100,
			Category:     model.ProductCategory{ID: categoryID},
			Supplier:     model.Supplier{ID: supplierID},
		})
		require.NoError(s.T(), err)
		return p
	}
	hammer := mk("Hammer", tools.ID, acme.ID)
	saw := mk("Saw", tools.ID, globex.ID)
	hose := mk("Hose", garden.ID, acme.ID)

	// when / then: category filter
	byTools, err := s.store.Products.FindByCategory(s.ctx, tools.ID)
	require.NoError(s.T(), err)
	require.Len(s.T(), byTools, 2)
	assert.Equal(s.T(), hammer.ID, byTools[0].ID)
	assert.Equal(s.T(), saw.ID, byTools[1].ID)

	// supplier filter
	byAcme, err := s.store.Products.FindBySupplier(s.ctx, acme.ID)
	require.NoError(s.T(), err)
	require.Len(s.T(), byAcme, 2)
	assert.Equal(s.T(), hammer.ID, byAcme[0].ID)
	assert.Equal(s.T(), hose.ID, byAcme[1].ID)

	// unfiltered listing is ordered by identity
	all, err := s.store.Products.FindAll(s.ctx)
	require.NoError(s.T(), err)
	require.Len(s.T(), all, 3)
	assert.Equal(s.T(), "Hose", all[2].Name)

	// unknown filter key yields an empty list
	none, err := s.store.Products.FindByCategory(s.ctx, 9999)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), none)
}

// TestBrokenReferenceSurfaced orphans a product row and checks that
// reads report the inconsistency instead of a partial product. The FK
// has to be dropped for the duration of the test, since it is what
// normally makes such a row impossible.
func (s *PgStoreSuite) TestBrokenReferenceSurfaced() {
	// given a product whose category FK is temporarily gone
	supplier, category, product := s.seed()

	_, err := s.dbPool.Exec(s.ctx, `ALTER TABLE product DROP CONSTRAINT product_product_category_id_fkey`)
	require.NoError(s.T(), err, "Failed to drop category FK")
	defer func() {
		// remove the orphan before restoring the FK, or the ADD
		// CONSTRAINT validation fails
		_, err := s.dbPool.Exec(s.ctx, `DELETE FROM product`)
		require.NoError(s.T(), err, "Failed to clean up orphaned products")
		_, err = s.dbPool.Exec(s.ctx, `ALTER TABLE product ADD CONSTRAINT product_product_category_id_fkey
			FOREIGN KEY (product_category_id) REFERENCES product_category (id) ON DELETE CASCADE`)
		require.NoError(s.T(), err, "Failed to restore category FK")
	}()

	// when the category is deleted, nothing cascades to the product
	require.NoError(s.T(), s.store.Categories.DeleteByID(s.ctx, category.ID))

	// then every read path surfaces the broken reference
	_, err = s.store.Products.FindByID(s.ctx, product.ID)
	require.ErrorIs(s.T(), err, serrors.ErrBrokenReference)
	_, err = s.store.Products.FindAll(s.ctx)
	require.ErrorIs(s.T(), err, serrors.ErrBrokenReference)
	_, err = s.store.Products.FindBySupplier(s.ctx, supplier.ID)
	require.ErrorIs(s.T(), err, serrors.ErrBrokenReference)
}

func (s *PgStoreSuite) TestCascadeDelete() {
	testCases := []struct {
		name   string
		delete func(category *model.ProductCategory, supplier *model.Supplier) error
	}{
		{
			name: "deleting a category removes its products",
			delete: func(category *model.ProductCategory, _ *model.Supplier) error {
				return s.store.Categories.DeleteByID(s.ctx, category.ID)
			},
		},
		{
			name: "deleting a supplier removes its products",
			delete: func(_ *model.ProductCategory, supplier *model.Supplier) error {
				return s.store.Suppliers.DeleteByID(s.ctx, supplier.ID)
			},
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.SetupTest()
			// given
			supplier, category, product := s.seed()

			// when
			require.NoError(s.T(), tc.delete(category, supplier))

			// then the referencing product is gone with it
			_, err := s.store.Products.FindByID(s.ctx, product.ID)
			require.ErrorIs(s.T(), err, serrors.ErrProductNotFound)
			all, err := s.store.Products.FindAll(s.ctx)
			require.NoError(s.T(), err)
			assert.Empty(s.T(), all)
		})
	}
}

// TestEngineEquivalence replays one scripted scenario against the
// durable engine and the transient engine and requires both to end in
// the same observable state.
func (s *PgStoreSuite) TestEngineEquivalence() {
	mem := NewMemory()

	type engine struct {
		suppliers  SupplierStore
		categories CategoryStore
		products   ProductStore
	}
	engines := []engine{
		{s.store.Suppliers, s.store.Categories, s.store.Products},
		{mem.Suppliers, mem.Categories, mem.Products},
	}

	type snapshot struct {
		products  []model.Product
		suppliers []model.Supplier
	}
	results := make([]snapshot, 0, len(engines))

	for _, e := range engines {
		acme, err := e.suppliers.Create(s.ctx, model.Supplier{Name: "Acme"})
		require.NoError(s.T(), err)
		globex, err := e.suppliers.Create(s.ctx, model.Supplier{Name: "Globex"})
		require.NoError(s.T(), err)
		tools, err := e.categories.Create(s.ctx, model.ProductCategory{Name: "Tools", Department: "Hardware"})
		require.NoError(s.T(), err)

		_, err = e.products.Create(s.ctx, model.Product{
			Name: "Hammer", Currency: "USD", DefaultPrice: 999,
			Category: model.ProductCategory{ID: tools.ID}, Supplier: model.Supplier{ID: acme.ID},
		})
		require.NoError(s.T(), err)
		saw, err := e.products.Create(s.ctx, model.Product{
			Name: "Saw", Currency: "USD", DefaultPrice: 1500,
			Category: model.ProductCategory{ID: tools.ID}, Supplier: model.Supplier{ID: globex.ID},
		})
		require.NoError(s.T(), err)

		// delete one product directly and one supplier with a cascade
		require.NoError(s.T(), e.products.DeleteByID(s.ctx, saw.ID))
		require.NoError(s.T(), e.suppliers.DeleteByID(s.ctx, globex.ID))
		// deleting something already gone must be accepted by both
		require.NoError(s.T(), e.suppliers.DeleteByID(s.ctx, globex.ID))

		products, err := e.products.FindAll(s.ctx)
		require.NoError(s.T(), err)
		suppliers, err := e.suppliers.FindAll(s.ctx)
		require.NoError(s.T(), err)
		results = append(results, snapshot{products: products, suppliers: suppliers})
	}

	assert.Equal(s.T(), results[0].products, results[1].products)
	assert.Equal(s.T(), results[0].suppliers, results[1].suppliers)
}
