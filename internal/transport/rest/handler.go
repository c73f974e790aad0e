// Package rest provides the HTTP boundary of the storefront: catalog
// browsing, catalog administration and the session-bound cart.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	serrors "github.com/tamaskov/storefront/internal/errors"
	"github.com/tamaskov/storefront/internal/service"
	"github.com/tamaskov/storefront/pkg/web"
)

type Handler struct {
	catalog  service.CatalogService
	cart     service.CartService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates the storefront HTTP handler.
func NewHandler(catalog service.CatalogService, cart service.CartService, logger *slog.Logger) *Handler {
	return &Handler{
		catalog:  catalog,
		cart:     cart,
		validate: validator.New(),
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the storefront routes.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Post("/", h.CreateProduct)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.FindProductByID)
				r.Delete("/", h.DeleteProduct)
			})
		})
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", h.ListCategories)
			r.Post("/", h.CreateCategory)
			r.Delete("/{id}", h.DeleteCategory)
		})
		r.Route("/suppliers", func(r chi.Router) {
			r.Get("/", h.ListSuppliers)
			r.Post("/", h.CreateSupplier)
			r.Delete("/{id}", h.DeleteSupplier)
		})
		r.Group(func(r chi.Router) {
			r.Use(web.SessionCookie)
			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.ViewCart)
				r.Post("/items", h.AddToCart)
				r.Delete("/", h.EndSession)
			})
		})
	})
	r.Get("/healthz", h.HealthCheck)
}

// ListProducts lists the catalog, optionally filtered by the category
// or supplier query parameter.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)

	categoryID, ok, byCategory := web.ParseQueryID(w, r, mLogger, "category")
	if !ok {
		return
	}
	supplierID, ok, bySupplier := web.ParseQueryID(w, r, mLogger, "supplier")
	if !ok {
		return
	}
	if byCategory && bySupplier {
		web.RespondError(w, mLogger, http.StatusBadRequest, "Filter by either category or supplier, not both")
		return
	}

	var list []service.ProductDto
	var err error
	switch {
	case byCategory:
		list, err = h.catalog.ProductsByCategory(r.Context(), categoryID)
	case bySupplier:
		list, err = h.catalog.ProductsBySupplier(r.Context(), supplierID)
	default:
		list, err = h.catalog.ListProducts(r.Context())
	}
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving product list", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	mLogger.DebugContext(r.Context(), "Successfully retrieved product list", "count", len(list))
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}

// FindProductByID retrieves a product by its ID.
func (h *Handler) FindProductByID(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to find product by ID", "ID", id)
	found, err := h.catalog.FindProductByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, serrors.ErrProductNotFound) {
			mLogger.WarnContext(r.Context(), "Product not found", "ID", id)
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Product with ID %d not found", id))
			return
		}
		mLogger.ErrorContext(r.Context(), "Error retrieving product", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve product with ID %d", id))
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, found)
}

// CreateProduct adds a product to the catalog.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var dto service.ProductCreateDto
	if !h.decodeAndValidate(w, r, mLogger, &dto) {
		return
	}

	created, err := h.catalog.CreateProduct(r.Context(), dto)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error creating product", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to create product")
		return
	}
	mLogger.InfoContext(r.Context(), "Product created successfully", slog.Int64("ID", created.ID))
	web.RespondJSON(w, mLogger, http.StatusCreated, created)
}

// DeleteProduct removes a product. Unknown IDs respond 204 as well.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, "product", h.catalog.DeleteProduct)
}

// ListCategories lists the product categories.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	list, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving category list", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch categories")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}

// CreateCategory adds a product category.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var dto service.CategoryCreateDto
	if !h.decodeAndValidate(w, r, mLogger, &dto) {
		return
	}

	created, err := h.catalog.CreateCategory(r.Context(), dto)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error creating category", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to create category")
		return
	}
	mLogger.InfoContext(r.Context(), "Category created successfully", slog.Int64("ID", created.ID))
	web.RespondJSON(w, mLogger, http.StatusCreated, created)
}

// DeleteCategory removes a category and, by cascade, its products.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, "category", h.catalog.DeleteCategory)
}

// ListSuppliers lists the suppliers.
func (h *Handler) ListSuppliers(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	list, err := h.catalog.ListSuppliers(r.Context())
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving supplier list", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch suppliers")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}

// CreateSupplier adds a supplier.
func (h *Handler) CreateSupplier(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var dto service.SupplierCreateDto
	if !h.decodeAndValidate(w, r, mLogger, &dto) {
		return
	}

	created, err := h.catalog.CreateSupplier(r.Context(), dto)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error creating supplier", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to create supplier")
		return
	}
	mLogger.InfoContext(r.Context(), "Supplier created successfully", slog.Int64("ID", created.ID))
	web.RespondJSON(w, mLogger, http.StatusCreated, created)
}

// DeleteSupplier removes a supplier and, by cascade, its products.
func (h *Handler) DeleteSupplier(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, "supplier", h.catalog.DeleteSupplier)
}

// CartAddDto is the add-to-cart payload. The quantity rule (>= 1)
// belongs to the order aggregate, which reports ErrInvalidQuantity.
type CartAddDto struct {
	ProductID int64 `json:"product_id" validate:"required,min=1"`
	Quantity  int32 `json:"quantity"`
}

// AddToCart merges a product selection into the session's order and
// returns the refreshed cart state for the UI.
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	token, ok := h.sessionToken(w, r, mLogger)
	if !ok {
		return
	}

	var dto CartAddDto
	if !h.decodeAndValidate(w, r, mLogger, &dto) {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to add to cart", "product_id", dto.ProductID, "quantity", dto.Quantity)
	cartState, err := h.cart.AddItem(r.Context(), token, dto.ProductID, dto.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, serrors.ErrInvalidQuantity):
			mLogger.WarnContext(r.Context(), "Invalid quantity for cart merge", "quantity", dto.Quantity)
			web.RespondError(w, mLogger, http.StatusBadRequest, err.Error())
		case errors.Is(err, serrors.ErrProductNotFound):
			mLogger.WarnContext(r.Context(), "Product not found for cart merge", "product_id", dto.ProductID)
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Product with ID %d not found", dto.ProductID))
		default:
			mLogger.ErrorContext(r.Context(), "Error adding to cart", "product_id", dto.ProductID, "error", err)
			web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to add product to cart")
		}
		return
	}
	mLogger.InfoContext(r.Context(), "Product added to cart",
		slog.Int64("order_id", cartState.OrderID),
		slog.Int64("product_id", dto.ProductID),
		slog.Int("num_of_line_items", cartState.NumOfLineItems),
	)
	web.RespondJSON(w, mLogger, http.StatusOK, cartState)
}

// ViewCart returns the current state of the session's order.
func (h *Handler) ViewCart(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	token, ok := h.sessionToken(w, r, mLogger)
	if !ok {
		return
	}

	cartState, err := h.cart.View(r.Context(), token)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving cart", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch cart")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, cartState)
}

// EndSession drops the session's order.
func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	token, ok := h.sessionToken(w, r, mLogger)
	if !ok {
		return
	}
	h.cart.EndSession(r.Context(), token)
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) deleteByID(w http.ResponseWriter, r *http.Request, entity string, del func(ctx context.Context, id int64) error) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	if err := del(r.Context(), id); err != nil {
		mLogger.ErrorContext(r.Context(), "Error deleting "+entity, "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, fmt.Sprintf("Failed to delete %s with ID %d", entity, id))
		return
	}
	mLogger.InfoContext(r.Context(), "Deleted "+entity, slog.Int64("ID", id))
	w.WriteHeader(http.StatusNoContent)
}

// decodeAndValidate decodes the JSON body into dto and validates it.
// On failure the error response has already been written.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, dto any) bool {
	if err := json.NewDecoder(r.Body).Decode(dto); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := h.validate.Struct(dto); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			errorResponse := make(map[string]string)
			for _, fieldErr := range validationErrors {
				errorResponse[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
			}
			mLogger.WarnContext(r.Context(), "Validation errors occurred", "errors", errorResponse)
			web.RespondJSON(w, mLogger, http.StatusBadRequest, map[string]any{"validation_errors": errorResponse})
			return false
		}
		mLogger.ErrorContext(r.Context(), "Error validating request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// sessionToken pulls the session token the SessionCookie middleware
// put on the context.
func (h *Handler) sessionToken(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger) (string, bool) {
	token, ok := web.GetSessionToken(r.Context())
	if !ok || token == "" {
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Session not established")
		return "", false
	}
	return token, true
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID := middleware.GetReqID(r.Context())
	return h.logger.With("request_id", reqID)
}
