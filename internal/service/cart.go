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

// MessageAlreadyInCart is returned when a (product, size) line already exists.
const MessageAlreadyInCart = "Item already in cart"

// CartService implements cart operations. Totals are always derived from
// the items on read.
type CartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	logger   *slog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(carts repository.CartRepository, products repository.ProductRepository, logger *slog.Logger) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
		logger:   logger,
	}
}

// AddItemInput identifies the product line to add.
type AddItemInput struct {
	ProductID string
	Size      string
}

// CreateCart returns the user's cart, creating it when absent.
func (s *CartService) CreateCart(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.carts.Create(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("create cart: %w", err)
	}
	cart.Recalculate()
	return cart, nil
}

// GetUserCart loads the cart with derived totals.
func (s *CartService) GetUserCart(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.carts.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	cart.Recalculate()
	return cart, nil
}

// AddItem adds one unit of a product in a size, snapshotting its current
// prices. An existing line is left as is and reported as AlreadyInCart.
func (s *CartService) AddItem(ctx context.Context, userID string, input AddItemInput) (*domain.AddItemResult, error) {
	cart, err := s.carts.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	product, err := s.products.GetByID(ctx, input.ProductID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if input.Size != "" && len(product.Sizes) > 0 && !product.HasSize(input.Size) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("size %q is not available for this product", input.Size))
	}

	item := &domain.CartItem{
		ID:              uuid.New().String(),
		CartID:          cart.ID,
		UserID:          userID,
		ProductID:       product.ID,
		Size:            input.Size,
		Quantity:        1,
		Price:           product.Price,
		DiscountedPrice: product.DiscountedPrice,
		CreatedAt:       time.Now().UTC(),
	}

	added, err := s.carts.AddItem(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("add cart item: %w", err)
	}
	if !added {
		cart.Recalculate()
		return &domain.AddItemResult{Cart: cart, AlreadyInCart: true, Message: MessageAlreadyInCart}, nil
	}
	cartItemsAdded.Inc()

	s.logger.InfoContext(ctx, "cart item added",
		slog.String("cart_id", cart.ID),
		slog.String("product_id", product.ID),
		slog.String("size", input.Size),
	)

	updated, err := s.GetUserCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &domain.AddItemResult{Cart: updated}, nil
}

// UpdateItem changes the quantity of a line owned by userID. Prices keep
// the snapshot taken when the line was added.
func (s *CartService) UpdateItem(ctx context.Context, userID, itemID string, quantity int) (*domain.Cart, error) {
	if quantity < 1 {
		return nil, apperrors.InvalidInput("quantity must be at least 1")
	}
	if err := s.checkOwner(ctx, userID, itemID); err != nil {
		return nil, err
	}
	if err := s.carts.UpdateItemQuantity(ctx, itemID, quantity); err != nil {
		return nil, fmt.Errorf("update cart item: %w", err)
	}
	return s.GetUserCart(ctx, userID)
}

// RemoveItem deletes a line owned by userID.
func (s *CartService) RemoveItem(ctx context.Context, userID, itemID string) (*domain.Cart, error) {
	if err := s.checkOwner(ctx, userID, itemID); err != nil {
		return nil, err
	}
	if err := s.carts.DeleteItem(ctx, itemID); err != nil {
		return nil, fmt.Errorf("delete cart item: %w", err)
	}

	s.logger.InfoContext(ctx, "cart item removed", slog.String("item_id", itemID))
	return s.GetUserCart(ctx, userID)
}

func (s *CartService) checkOwner(ctx context.Context, userID, itemID string) error {
	item, err := s.carts.GetItem(ctx, itemID)
	if err != nil {
		return fmt.Errorf("get cart item: %w", err)
	}
	if item.UserID != userID {
		return apperrors.Forbidden("you can't modify another user's cart item")
	}
	return nil
}
