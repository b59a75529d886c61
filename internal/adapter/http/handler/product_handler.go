package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tillbook/tillbook/internal/adapter/http/dto"
	"github.com/tillbook/tillbook/internal/domain"
	"github.com/tillbook/tillbook/internal/usecase"
)

// CatalogService defines the behavior needed by ProductHandler.
type CatalogService interface {
	CreateProduct(ctx context.Context, input usecase.ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id string, input usecase.ProductInput) (*domain.Product, error)
	DeactivateProduct(ctx context.Context, id string) error
	ReactivateProduct(ctx context.Context, id string) error
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	GetProductBySKU(ctx context.Context, sku string) (*domain.Product, error)
	ListProducts(ctx context.Context, activeOnly bool, limit, offset int) ([]*domain.Product, error)
	CreateLocation(ctx context.Context, name string) (*domain.Location, error)
	ListLocations(ctx context.Context) ([]*domain.Location, error)
}

// ProductHandler handles catalog HTTP requests.
type ProductHandler struct {
	catalogUC CatalogService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(catalogUC CatalogService) *ProductHandler {
	return &ProductHandler{catalogUC: catalogUC}
}

// Create adds a product to the catalog.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := dto.Validate(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	product, err := h.catalogUC.CreateProduct(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create product", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.ProductFromDomain(product))
}

// Update changes a product's name, price, or minimum stock.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	product, err := h.catalogUC.UpdateProduct(r.Context(), chi.URLParam(r, "id"), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to update product", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ProductFromDomain(product))
}

// Get retrieves a product by ID.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalogUC.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get product", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ProductFromDomain(product))
}

// GetBySKU retrieves a product by SKU.
func (h *ProductHandler) GetBySKU(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalogUC.GetProductBySKU(r.Context(), chi.URLParam(r, "sku"))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get product", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ProductFromDomain(product))
}

// List lists products.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := parseBoolQuery(r, "active_only", false)
	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	products, err := h.catalogUC.ListProducts(r.Context(), activeOnly, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list products", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.NewListResponse(dto.ProductsFromDomain(products)))
}

// SetActive deactivates or reactivates a product.
func (h *ProductHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	var req dto.SetActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	id := chi.URLParam(r, "id")
	var err error
	if req.Active {
		err = h.catalogUC.ReactivateProduct(r.Context(), id)
	} else {
		err = h.catalogUC.DeactivateProduct(r.Context(), id)
	}
	if err != nil {
		writeError(w, mapDomainError(err), "failed to update product", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CreateLocation adds a stock location.
func (h *ProductHandler) CreateLocation(w http.ResponseWriter, r *http.Request) {
	var req dto.LocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := dto.Validate(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	location, err := h.catalogUC.CreateLocation(r.Context(), req.Name)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create location", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.LocationFromDomain(location))
}

// ListLocations lists stock locations.
func (h *ProductHandler) ListLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.catalogUC.ListLocations(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list locations", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.NewListResponse(dto.LocationsFromDomain(locations)))
}
