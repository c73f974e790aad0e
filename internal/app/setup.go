// Package app contains the application setup for the storefront.
package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tamaskov/storefront/internal/cart"
	"github.com/tamaskov/storefront/internal/config"
	"github.com/tamaskov/storefront/internal/service"
	"github.com/tamaskov/storefront/internal/store"
	"github.com/tamaskov/storefront/internal/transport/rest"
	"github.com/tamaskov/storefront/pkg/server"
)

type Dependencies struct {
	Catalog  service.CatalogService
	Cart     service.CartService
	Sessions *cart.SessionManager
	Logger   *slog.Logger
}

// SetupDependencies builds the service graph on top of the configured
// store engine. dbPool may be nil when the memory engine is selected.
// Orders always live in the in-process order store, whichever catalog
// engine is active.
func SetupDependencies(cfg *config.Config, dbPool *pgxpool.Pool, logger *slog.Logger) *Dependencies {
	var products store.ProductStore
	var categories store.CategoryStore
	var suppliers store.SupplierStore

	switch cfg.Store.Engine {
	case config.EnginePostgres:
		pg := store.NewPg(dbPool)
		products, categories, suppliers = pg.Products, pg.Categories, pg.Suppliers
	default:
		mem := store.NewMemory()
		products, categories, suppliers = mem.Products, mem.Categories, mem.Suppliers
	}

	sessions := cart.NewSessionManager(cart.NewOrderStore())

	return &Dependencies{
		Catalog:  service.NewCatalog(products, categories, suppliers),
		Cart:     service.NewCart(products, sessions),
		Sessions: sessions,
		Logger:   logger,
	}
}

// SetupHttpHandler initializes the router and routes for the
// storefront. Also used by handler-level tests.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return mux
}

func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	handler := rest.NewHandler(deps.Catalog, deps.Cart, deps.Logger)
	handler.RegisterRoutes(mux)
}

// SetupHttpServer creates and configures the HTTP server for the storefront.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	mux := SetupHttpHandler(deps)

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}

	return server.NewHTTPServer(httpCfg, mux)
}
