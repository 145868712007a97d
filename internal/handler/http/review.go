package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/middleware"
)

// ReviewHandler handles HTTP requests for ratings and reviews.
type ReviewHandler struct {
	service *service.ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: svc,
		logger:  logger,
	}
}

// CreateRatingRequest is the JSON request body for rating a product.
type CreateRatingRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Rating    int    `json:"rating" validate:"required,gte=1,lte=5"`
}

// CreateReviewRequest is the JSON request body for reviewing a product.
type CreateReviewRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Review    string `json:"review" validate:"required,max=2000"`
}

// CreateRating handles POST /api/ratings/create
func (h *ReviewHandler) CreateRating(w http.ResponseWriter, r *http.Request) {
	var req CreateRatingRequest
	if !decode(w, r, &req) {
		return
	}

	rating, err := h.service.CreateRating(r.Context(), middleware.UserIDFromContext(r.Context()), req.ProductID, req.Rating)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, rating)
}

// ProductRatings handles GET /api/ratings/product/{productId}
func (h *ReviewHandler) ProductRatings(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	ratings, err := h.service.ProductRatings(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, ratings)
}

// CreateReview handles POST /api/reviews/create
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	var req CreateReviewRequest
	if !decode(w, r, &req) {
		return
	}

	review, err := h.service.CreateReview(r.Context(), middleware.UserIDFromContext(r.Context()), req.ProductID, req.Review)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, review)
}

// ProductReviews handles GET /api/reviews/product/{productId}
func (h *ReviewHandler) ProductReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	reviews, err := h.service.ProductReviews(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, reviews)
}
