package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/internal/service"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/pagination"
)

const (
	maxImportBytes = 32 << 20
	importFormFile = "file"
)

// ProductHandler handles HTTP requests for catalog endpoints.
type ProductHandler struct {
	service *service.ProductService
	logger  *slog.Logger
}

// NewProductHandler creates a new product HTTP handler.
func NewProductHandler(svc *service.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: svc,
		logger:  logger,
	}
}

// CreateProductsResponse reports the outcome of a bulk create.
type CreateProductsResponse struct {
	Created     int    `json:"created"`
	FailedIndex *int   `json:"failed_index,omitempty"`
	Message     string `json:"message,omitempty"`
}

// ListProducts handles GET /api/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	filter, msg := parseProductFilter(r)
	if msg != "" {
		writeInvalidParam(w, r, msg)
		return
	}

	page, err := h.service.ListProducts(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, page)
}

// parseProductFilter reads the catalog query string. A non-empty message
// names the first malformed parameter.
func parseProductFilter(r *http.Request) (repository.ProductFilter, string) {
	q := r.URL.Query()
	filter := repository.ProductFilter{
		Category: q.Get("category"),
		Brand:    q.Get("brand"),
		Colors:   splitList(q.Get("color")),
		Sizes:    splitList(q.Get("size")),
		Sort:     q.Get("sort"),
		Page:     pagination.FromRequest(r),
	}

	if v := q.Get("minPrice"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return filter, "minPrice must be a non-negative integer"
		}
		filter.MinPrice = &n
	}
	if v := q.Get("maxPrice"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return filter, "maxPrice must be a non-negative integer"
		}
		filter.MaxPrice = &n
	}
	if v := q.Get("minDiscount"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 100 {
			return filter, "minDiscount must be an integer between 0 and 100"
		}
		filter.MinDiscount = &n
	}
	switch v := q.Get("stock"); v {
	case "", "all":
	case repository.StockIn, repository.StockOut:
		filter.Stock = v
	default:
		return filter, "stock must be one of: in_stock, out_of_stock"
	}

	return filter, ""
}

// GetProduct handles GET /api/products/id/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	product, err := h.service.FindProductByID(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, product)
}

// CreateProduct handles POST /api/admin/products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req service.CreateProductInput
	if !decode(w, r, &req) {
		return
	}

	product, err := h.service.CreateProduct(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, product)
}

// CreateProducts handles POST /api/admin/products/creates
func (h *ProductHandler) CreateProducts(w http.ResponseWriter, r *http.Request) {
	// Items are validated one by one by the service.
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
	var req []service.CreateProductInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteValidationError(w, r, fmt.Errorf("decode request body: %w", err))
		return
	}
	if len(req) == 0 {
		httputil.WriteError(w, r, apperrors.InvalidInput("products array is required"), h.logger)
		return
	}

	created, err := h.service.CreateProducts(r.Context(), req)
	if err != nil {
		// The batch stops at the first failure, so its index equals the
		// number already stored.
		failed := created
		httputil.WriteErrorWithData(w, r, err, CreateProductsResponse{
			Created:     created,
			FailedIndex: &failed,
		}, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, CreateProductsResponse{
		Created: created,
		Message: "Products created successfully",
	})
}

// ImportProducts handles POST /api/admin/products/import with a multipart
// spreadsheet upload in the "file" field.
func (h *ProductHandler) ImportProducts(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
	if err := r.ParseMultipartForm(maxImportBytes); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	file, header, err := r.FormFile(importFormFile)
	if err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("a spreadsheet is required in the \"file\" field"), h.logger)
		return
	}
	defer file.Close()

	res, err := h.service.ImportProducts(r.Context(), file, header.Size)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, res)
}

// UpdateProduct handles PUT /api/admin/products/{id}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req service.UpdateProductInput
	if !decode(w, r, &req) {
		return
	}

	product, err := h.service.UpdateProduct(r.Context(), id.String(), &req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/admin/products/{id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteProduct(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, messageResponse{Message: "Product deleted successfully"})
}
