package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/event"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/pagination"
	"github.com/utafrali/storefront/pkg/validator"
)

// ProductService implements catalog management and browsing.
type ProductService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	cache      repository.ProductCache
	producer   *event.Producer
	logger     *slog.Logger
}

// NewProductService creates a new product service.
func NewProductService(
	products repository.ProductRepository,
	categories repository.CategoryRepository,
	cache repository.ProductCache,
	producer *event.Producer,
	logger *slog.Logger,
) *ProductService {
	return &ProductService{
		products:   products,
		categories: categories,
		cache:      cache,
		producer:   producer,
		logger:     logger,
	}
}

// CreateProductInput describes a new product and the three category names
// it is filed under, from the top level down.
type CreateProductInput struct {
	Title               string        `json:"title" validate:"required,max=255"`
	Description         string        `json:"description" validate:"max=5000"`
	Price               int64         `json:"price" validate:"gte=0"`
	DiscountedPrice     int64         `json:"discountedPrice" validate:"gte=0,ltefield=Price"`
	DiscountPercentage  int           `json:"discountPercentage" validate:"gte=0,lte=100"`
	Quantity            int           `json:"quantity" validate:"gte=0"`
	Brand               string        `json:"brand" validate:"max=100"`
	Color               string        `json:"color" validate:"max=50"`
	Sizes               []domain.Size `json:"sizes" validate:"dive"`
	ImageURL            string        `json:"imageUrl" validate:"omitempty,url"`
	TopLevelCategory    string        `json:"topLevelCategory" validate:"required,max=100"`
	SecondLevelCategory string        `json:"secondLevelCategory" validate:"required,max=100"`
	ThirdLevelCategory  string        `json:"thirdLevelCategory" validate:"required,max=100"`
}

// UpdateProductInput is a partial update. Nil fields are left unchanged.
type UpdateProductInput struct {
	Title              *string        `json:"title" validate:"omitempty,min=1,max=255"`
	Description        *string        `json:"description" validate:"omitempty,max=5000"`
	Price              *int64         `json:"price" validate:"omitempty,gte=0"`
	DiscountedPrice    *int64         `json:"discountedPrice" validate:"omitempty,gte=0"`
	DiscountPercentage *int           `json:"discountPercentage" validate:"omitempty,gte=0,lte=100"`
	Quantity           *int           `json:"quantity" validate:"omitempty,gte=0"`
	Brand              *string        `json:"brand" validate:"omitempty,max=100"`
	Color              *string        `json:"color" validate:"omitempty,max=50"`
	Sizes              *[]domain.Size `json:"sizes"`
	ImageURL           *string        `json:"imageUrl" validate:"omitempty,url"`
}

// CreateProduct resolves the category path, creating missing levels, and
// stores the product under the third level.
func (s *ProductService) CreateProduct(ctx context.Context, input *CreateProductInput) (*domain.Product, error) {
	if err := validator.Validate(input); err != nil {
		return nil, err
	}

	category, err := s.resolveCategory(ctx, input.TopLevelCategory, input.SecondLevelCategory, input.ThirdLevelCategory)
	if err != nil {
		return nil, err
	}

	sizes := input.Sizes
	if sizes == nil {
		sizes = []domain.Size{}
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:                 uuid.New().String(),
		Title:              strings.TrimSpace(input.Title),
		Description:        input.Description,
		Price:              input.Price,
		DiscountedPrice:    input.DiscountedPrice,
		DiscountPercentage: input.DiscountPercentage,
		Quantity:           input.Quantity,
		Brand:              input.Brand,
		Color:              input.Color,
		Sizes:              sizes,
		ImageURL:           input.ImageURL,
		CategoryID:         category.ID,
		Category:           category,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	if err := s.producer.PublishProductCreated(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.created event",
			slog.String("product_id", product.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", product.ID),
		slog.String("category_id", category.ID),
	)

	return product, nil
}

func (s *ProductService) resolveCategory(ctx context.Context, top, second, third string) (*domain.Category, error) {
	var parentID *string
	var category *domain.Category
	for level, name := range []string{top, second, third} {
		c, err := s.categories.GetOrCreate(ctx, strings.TrimSpace(name), parentID, level+1)
		if err != nil {
			return nil, fmt.Errorf("resolve category level %d: %w", level+1, err)
		}
		category = c
		parentID = &c.ID
	}
	return category, nil
}

// CreateProducts creates products one by one and reports how many were
// stored before the first failure.
func (s *ProductService) CreateProducts(ctx context.Context, inputs []CreateProductInput) (int, error) {
	for i := range inputs {
		if _, err := s.CreateProduct(ctx, &inputs[i]); err != nil {
			return i, fmt.Errorf("product %d: %w", i, err)
		}
	}
	return len(inputs), nil
}

// UpdateProduct applies a partial update and evicts the cached copy.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, input *UpdateProductInput) (*domain.Product, error) {
	if err := validator.Validate(input); err != nil {
		return nil, err
	}

	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product for update: %w", err)
	}

	if input.Title != nil {
		product.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.DiscountedPrice != nil {
		product.DiscountedPrice = *input.DiscountedPrice
	}
	if input.DiscountPercentage != nil {
		product.DiscountPercentage = *input.DiscountPercentage
	}
	if input.Quantity != nil {
		product.Quantity = *input.Quantity
	}
	if input.Brand != nil {
		product.Brand = *input.Brand
	}
	if input.Color != nil {
		product.Color = *input.Color
	}
	if input.Sizes != nil {
		product.Sizes = *input.Sizes
	}
	if input.ImageURL != nil {
		product.ImageURL = *input.ImageURL
	}
	if product.DiscountedPrice > product.Price {
		return nil, apperrors.InvalidInput("discounted price must not exceed price")
	}
	product.UpdatedAt = time.Now().UTC()

	if err := s.products.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	s.refresh(ctx, product)

	if err := s.producer.PublishProductUpdated(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.updated event",
			slog.String("product_id", product.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product updated", slog.String("product_id", product.ID))

	return product, nil
}

// DeleteProduct removes a product and evicts the cached copy.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	s.evict(ctx, id)

	if err := s.producer.PublishProductDeleted(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.deleted event",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product deleted", slog.String("product_id", id))
	return nil
}

// FindProductByID reads through the cache. Cache failures are logged and
// the database is used instead.
func (s *ProductService) FindProductByID(ctx context.Context, id string) (*domain.Product, error) {
	cached, err := s.cache.Get(ctx, id)
	if err != nil {
		s.logger.WarnContext(ctx, "product cache read failed",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
	}
	if cached != nil {
		return cached, nil
	}

	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product by id: %w", err)
	}

	if err := s.cache.Set(ctx, product); err != nil {
		s.logger.WarnContext(ctx, "product cache write failed",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
	}
	return product, nil
}

// ListProducts returns one filtered page of products.
func (s *ProductService) ListProducts(ctx context.Context, filter repository.ProductFilter) (pagination.Page[domain.Product], error) {
	for i, c := range filter.Colors {
		filter.Colors[i] = strings.ToLower(strings.TrimSpace(c))
	}

	products, total, err := s.products.List(ctx, filter)
	if err != nil {
		return pagination.Page[domain.Product]{}, fmt.Errorf("list products: %w", err)
	}
	return pagination.NewPage(products, total, filter.Page), nil
}

// refresh writes the updated product through to the cache so a concurrent
// read-through fill of the previous version cannot outlive the update. When
// the write fails the entry is evicted instead.
func (s *ProductService) refresh(ctx context.Context, p *domain.Product) {
	if err := s.cache.Set(ctx, p); err != nil {
		s.logger.WarnContext(ctx, "product cache refresh failed",
			slog.String("product_id", p.ID),
			slog.String("error", err.Error()),
		)
		s.evict(ctx, p.ID)
	}
}

func (s *ProductService) evict(ctx context.Context, id string) {
	if err := s.cache.Delete(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "product cache eviction failed",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
	}
}
