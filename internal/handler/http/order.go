package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/middleware"
	"github.com/utafrali/storefront/pkg/pagination"
)

// OrderHandler handles HTTP requests for customer and admin order endpoints.
type OrderHandler struct {
	service *service.OrderService
	logger  *slog.Logger
}

// NewOrderHandler creates a new order HTTP handler.
func NewOrderHandler(svc *service.OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// UpdateStatusRequest is the JSON request body for PUT /api/admin/orders/{id}/status.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=PLACED CONFIRMED SHIPPED DELIVERED CANCELLED"`
}

// UpdateOrderStatusRequest is the JSON request body for PUT /api/admin/orders/status.
type UpdateOrderStatusRequest struct {
	OrderID string `json:"orderId" validate:"required,uuid"`
	Status  string `json:"status" validate:"required,oneof=PLACED CONFIRMED SHIPPED DELIVERED CANCELLED"`
}

// --- Customer handlers ---

// PlaceOrder handles POST /api/orders. The body is the shipping address;
// its required fields are checked against the cart inside the placement.
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var address domain.Address
	if !decode(w, r, &address) {
		return
	}

	order, err := h.service.PlaceOrder(r.Context(), middleware.UserIDFromContext(r.Context()), address)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, order)
}

// OrderHistory handles GET /api/orders/user
func (h *OrderHandler) OrderHistory(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.UserOrderHistory(r.Context(), middleware.UserIDFromContext(r.Context()), pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, page)
}

// GetOrder handles GET /api/orders/{id} and GET /api/admin/orders/{id}.
// Non-admin callers only see their own orders.
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	order, err := h.service.FindOrderByID(r.Context(), id.String(), requester(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, order)
}

// --- Admin handlers ---

// ListOrders handles GET /api/admin/orders
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	var status *domain.OrderStatus
	if v := r.URL.Query().Get("status"); v != "" {
		if !domain.IsValidStatus(v) {
			writeInvalidParam(w, r, "status must be one of: PLACED, CONFIRMED, SHIPPED, DELIVERED, CANCELLED")
			return
		}
		s := domain.OrderStatus(v)
		status = &s
	}

	page, err := h.service.AllOrders(r.Context(), status, pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, page)
}

// UpdateOrderStatus handles PUT /api/admin/orders/status
func (h *OrderHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateOrderStatusRequest
	if !decode(w, r, &req) {
		return
	}
	h.updateStatus(w, r, req.OrderID, req.Status)
}

// UpdateOrderStatusByID handles PUT /api/admin/orders/{id}/status
func (h *OrderHandler) UpdateOrderStatusByID(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if !decode(w, r, &req) {
		return
	}
	h.updateStatus(w, r, id.String(), req.Status)
}

func (h *OrderHandler) updateStatus(w http.ResponseWriter, r *http.Request, id, status string) {
	order, err := h.service.UpdateOrderStatus(r.Context(), id, domain.OrderStatus(status))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, order)
}

// DeleteOrder handles DELETE /api/admin/orders/{id}
func (h *OrderHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteOrder(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, messageResponse{Message: "Order deleted successfully"})
}

func requester(r *http.Request) service.Requester {
	return service.Requester{
		UserID: middleware.UserIDFromContext(r.Context()),
		Admin:  middleware.RoleFromContext(r.Context()) == domain.RoleAdmin,
	}
}
