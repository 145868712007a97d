package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// ReviewService handles product ratings and written reviews.
type ReviewService struct {
	products repository.ProductRepository
	ratings  repository.RatingRepository
	reviews  repository.ReviewRepository
	logger   *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(
	products repository.ProductRepository,
	ratings repository.RatingRepository,
	reviews repository.ReviewRepository,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		products: products,
		ratings:  ratings,
		reviews:  reviews,
		logger:   logger,
	}
}

// CreateRating records a 1..5 rating by userID.
func (s *ReviewService) CreateRating(ctx context.Context, userID, productID string, rating int) (*domain.Rating, error) {
	if rating < 1 || rating > 5 {
		return nil, apperrors.InvalidInput("rating must be between 1 and 5")
	}
	if err := s.ensureProduct(ctx, productID); err != nil {
		return nil, err
	}

	r := &domain.Rating{
		ID:        uuid.New().String(),
		UserID:    userID,
		ProductID: productID,
		Rating:    rating,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.ratings.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("create rating: %w", err)
	}

	s.logger.InfoContext(ctx, "rating created",
		slog.String("product_id", productID),
		slog.Int("rating", rating),
	)
	return r, nil
}

// ProductRatings lists the ratings of a product.
func (s *ReviewService) ProductRatings(ctx context.Context, productID string) ([]domain.Rating, error) {
	if err := s.ensureProduct(ctx, productID); err != nil {
		return nil, err
	}
	ratings, err := s.ratings.ListByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	return ratings, nil
}

// CreateReview records a written review by userID.
func (s *ReviewService) CreateReview(ctx context.Context, userID, productID, text string) (*domain.Review, error) {
	if err := s.ensureProduct(ctx, productID); err != nil {
		return nil, err
	}

	r := &domain.Review{
		ID:        uuid.New().String(),
		UserID:    userID,
		ProductID: productID,
		Review:    text,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.reviews.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	s.logger.InfoContext(ctx, "review created", slog.String("product_id", productID))
	return r, nil
}

// ProductReviews lists the reviews of a product, newest first.
func (s *ReviewService) ProductReviews(ctx context.Context, productID string) ([]domain.Review, error) {
	reviews, err := s.reviews.ListByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

func (s *ReviewService) ensureProduct(ctx context.Context, productID string) error {
	ok, err := s.products.Exists(ctx, productID)
	if err != nil {
		return fmt.Errorf("check product: %w", err)
	}
	if !ok {
		return apperrors.NotFound("product", productID)
	}
	return nil
}
