package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/database"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

const cartItemSelect = `
	SELECT ci.id, ci.cart_id, ci.user_id, ci.product_id, ci.size, ci.quantity,
	       ci.price, ci.discounted_price, ci.created_at, p.title, p.brand, p.image_url
	FROM cart_items ci
	JOIN products p ON p.id = ci.product_id`

// Every item mutation bumps the owning cart's version in the same statement.
const bumpCart = `
	UPDATE carts SET version = version + 1, updated_at = NOW()
	FROM item WHERE carts.id = item.cart_id`

// CartRepository implements repository.CartRepository using PostgreSQL.
type CartRepository struct {
	db database.DBTX
}

// NewCartRepository creates a new PostgreSQL-backed cart repository.
func NewCartRepository(db database.DBTX) *CartRepository {
	return &CartRepository{db: db}
}

// Create returns the user's cart, inserting an empty one first if needed.
func (r *CartRepository) Create(ctx context.Context, userID string) (*domain.Cart, error) {
	_, err := r.db.Exec(ctx, `
		INSERT INTO carts (id, user_id, version, created_at, updated_at)
		VALUES ($1, $2, 1, NOW(), NOW())
		ON CONFLICT (user_id) DO NOTHING`,
		uuid.NewString(), userID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert cart: %w", err)
	}

	c, err := getCart(ctx, r.db, userID, false)
	if err != nil {
		return nil, err
	}
	c.Items = []domain.CartItem{}
	return c, nil
}

// GetByUserID loads the user's cart and its items.
func (r *CartRepository) GetByUserID(ctx context.Context, userID string) (*domain.Cart, error) {
	c, err := getCart(ctx, r.db, userID, false)
	if err != nil {
		return nil, err
	}
	if c.Items, err = loadCartItems(ctx, r.db, c.ID); err != nil {
		return nil, err
	}
	return c, nil
}

// AddItem inserts a new line. An existing (cart, product, size) line is left
// untouched and reported as false.
func (r *CartRepository) AddItem(ctx context.Context, item *domain.CartItem) (bool, error) {
	query := `
		WITH item AS (
			INSERT INTO cart_items (id, cart_id, user_id, product_id, size, quantity, price, discounted_price, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT ON CONSTRAINT uq_cart_items_line DO NOTHING
			RETURNING cart_id
		)` + bumpCart

	ct, err := r.db.Exec(ctx, query,
		item.ID, item.CartID, item.UserID, item.ProductID, item.Size,
		item.Quantity, item.Price, item.DiscountedPrice, item.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert cart item: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

// GetItem retrieves a single cart line.
func (r *CartRepository) GetItem(ctx context.Context, itemID string) (*domain.CartItem, error) {
	item, err := scanCartItem(r.db.QueryRow(ctx, cartItemSelect+` WHERE ci.id = $1`, itemID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("cart item", itemID)
	}
	return item, err
}

// UpdateItemQuantity sets the quantity of a cart line.
func (r *CartRepository) UpdateItemQuantity(ctx context.Context, itemID string, quantity int) error {
	query := `
		WITH item AS (
			UPDATE cart_items SET quantity = $1 WHERE id = $2
			RETURNING cart_id
		)` + bumpCart

	ct, err := r.db.Exec(ctx, query, quantity, itemID)
	if err != nil {
		return fmt.Errorf("update cart item: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("cart item", itemID)
	}
	return nil
}

// DeleteItem removes a cart line.
func (r *CartRepository) DeleteItem(ctx context.Context, itemID string) error {
	query := `
		WITH item AS (
			DELETE FROM cart_items WHERE id = $1
			RETURNING cart_id
		)` + bumpCart

	ct, err := r.db.Exec(ctx, query, itemID)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("cart item", itemID)
	}
	return nil
}

// getCart reads the cart header. With lock set the row is held FOR UPDATE
// until the surrounding transaction ends.
func getCart(ctx context.Context, db database.DBTX, userID string, lock bool) (*domain.Cart, error) {
	query := `SELECT id, user_id, version, created_at, updated_at FROM carts WHERE user_id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	var c domain.Cart
	err := db.QueryRow(ctx, query, userID).Scan(&c.ID, &c.UserID, &c.Version, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundMessage("Cart not found")
		}
		return nil, fmt.Errorf("select cart: %w", err)
	}
	return &c, nil
}

func loadCartItems(ctx context.Context, db database.DBTX, cartID string) ([]domain.CartItem, error) {
	rows, err := db.Query(ctx, cartItemSelect+` WHERE ci.cart_id = $1 ORDER BY ci.created_at, ci.id`, cartID)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	defer rows.Close()

	items := []domain.CartItem{}
	for rows.Next() {
		item, err := scanCartItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart items: %w", err)
	}
	return items, nil
}

func scanCartItem(row pgx.Row) (*domain.CartItem, error) {
	var (
		item domain.CartItem
		p    domain.ProductSummary
	)
	err := row.Scan(
		&item.ID, &item.CartID, &item.UserID, &item.ProductID, &item.Size, &item.Quantity,
		&item.Price, &item.DiscountedPrice, &item.CreatedAt, &p.Title, &p.Brand, &p.ImageURL,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan cart item: %w", err)
	}
	p.ID = item.ProductID
	item.Product = &p
	return &item, nil
}
