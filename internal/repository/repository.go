package repository

import (
	"context"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/pagination"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	// Create inserts u. A duplicate email yields an AlreadyExists error.
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, page pagination.Params) ([]domain.User, int, error)
}

// CategoryRepository persists the catalog tree.
type CategoryRepository interface {
	// GetOrCreate returns the category named name under parentID, creating
	// it at level when absent. Concurrent callers converge on one row.
	GetOrCreate(ctx context.Context, name string, parentID *string, level int) (*domain.Category, error)
}

// ProductFilter narrows ListProducts. Zero values disable a criterion.
type ProductFilter struct {
	Category    string
	Brand       string
	Colors      []string
	Sizes       []string
	MinPrice    *int64
	MaxPrice    *int64
	MinDiscount *int
	Stock       string
	Sort        string
	Page        pagination.Params
}

// Product sort orders and stock filters.
const (
	SortPriceHigh = "price_high"
	SortPriceLow  = "price_low"
	StockIn       = "in_stock"
	StockOut      = "out_of_stock"
)

// ProductRepository defines persistence operations for products.
type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, int, error)
}

// ProductCache is a read-through cache for single products. Get returns
// (nil, nil) on a miss.
type ProductCache interface {
	Get(ctx context.Context, id string) (*domain.Product, error)
	Set(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id string) error
}

// RatingRepository persists product ratings.
type RatingRepository interface {
	Create(ctx context.Context, r *domain.Rating) error
	ListByProduct(ctx context.Context, productID string) ([]domain.Rating, error)
}

// ReviewRepository persists product reviews.
type ReviewRepository interface {
	Create(ctx context.Context, r *domain.Review) error
	// ListByProduct returns reviews newest first.
	ListByProduct(ctx context.Context, productID string) ([]domain.Review, error)
}

// CartRepository defines persistence operations for carts and their items.
type CartRepository interface {
	// Create returns the user's cart, inserting it if it does not exist yet.
	Create(ctx context.Context, userID string) (*domain.Cart, error)
	// GetByUserID loads the cart with its items. Totals are left to the caller.
	GetByUserID(ctx context.Context, userID string) (*domain.Cart, error)
	// AddItem inserts item unless the (cart, product, size) line already
	// exists, in which case it reports false and writes nothing.
	AddItem(ctx context.Context, item *domain.CartItem) (bool, error)
	GetItem(ctx context.Context, itemID string) (*domain.CartItem, error)
	UpdateItemQuantity(ctx context.Context, itemID string, quantity int) error
	DeleteItem(ctx context.Context, itemID string) error
}

// OrderBuilder turns a locked, loaded cart into the order to persist. It
// runs inside the placement transaction; returning an error rolls it back.
type OrderBuilder func(cart *domain.Cart) (*domain.Order, error)

// OrderFilter narrows order listings.
type OrderFilter struct {
	UserID *string
	Status *domain.OrderStatus
	Page   pagination.Params
}

// OrderRepository defines persistence operations for orders.
type OrderRepository interface {
	// Place locks the user's cart, hands it to build and persists the
	// resulting address, order and items while emptying the cart, all in
	// one transaction. It returns the persisted order's id.
	Place(ctx context.Context, userID string, build OrderBuilder) (string, error)
	// GetByID loads an order with its address and items.
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	// List returns orders newest first with their items.
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, int, error)
	// UpdateStatus moves the order from one status to another. It fails with
	// a Conflict if the stored status is no longer from.
	UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) error
	// Delete removes the order, its items and its address.
	Delete(ctx context.Context, id string) error
}
