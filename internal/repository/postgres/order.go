package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/pkg/database"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

const orderSelect = `
	SELECT o.id, o.user_id, o.shipping_address_id, o.order_date, o.delivery_date,
	       o.total_price, o.total_discounted_price, o.discount, o.total_item, o.status,
	       o.payment_method, o.payment_status, o.created_at, o.updated_at,
	       a.first_name, a.last_name, a.street_address, a.city, a.state, a.zip_code, a.mobile, a.created_at
	FROM orders o
	JOIN addresses a ON a.id = o.shipping_address_id`

const orderItemSelect = `
	SELECT oi.id, oi.order_id, oi.user_id, oi.product_id, oi.size, oi.quantity,
	       oi.price, oi.discounted_price, oi.delivery_date, p.title, p.brand, p.image_url
	FROM order_items oi
	JOIN products p ON p.id = oi.product_id`

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	db database.DBTX
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(db database.DBTX) *OrderRepository {
	return &OrderRepository{db: db}
}

// Place runs checkout as one transaction: the cart row is locked, the order
// built from it is written, and the cart is emptied. Any failure leaves the
// cart as it was.
func (r *OrderRepository) Place(ctx context.Context, userID string, build repository.OrderBuilder) (orderID string, err error) {
	ctx, end := database.TraceQuery(ctx, "PlaceOrder", "checkout")
	defer func() { end(err) }()

	err = database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		cart, err := getCart(ctx, tx, userID, true)
		if err != nil {
			return err
		}
		if cart.Items, err = loadCartItems(ctx, tx, cart.ID); err != nil {
			return err
		}
		cart.Recalculate()

		o, err := build(cart)
		if err != nil {
			return err
		}

		if err := insertAddress(ctx, tx, o.ShippingAddress); err != nil {
			return err
		}
		if err := insertOrder(ctx, tx, o); err != nil {
			return err
		}
		for i := range o.Items {
			if err := insertOrderItem(ctx, tx, &o.Items[i]); err != nil {
				return err
			}
		}

		if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cart.ID); err != nil {
			return fmt.Errorf("clear cart items: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE carts SET version = version + 1, updated_at = NOW() WHERE id = $1`, cart.ID); err != nil {
			return fmt.Errorf("bump cart version: %w", err)
		}

		orderID = o.ID
		return nil
	})
	if err != nil {
		return "", err
	}
	return orderID, nil
}

func insertAddress(ctx context.Context, tx pgx.Tx, a *domain.Address) error {
	if a == nil {
		return apperrors.InvalidInput("shipping address is required")
	}
	query := `
		INSERT INTO addresses (id, user_id, first_name, last_name, street_address, city, state, zip_code, mobile, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := tx.Exec(ctx, query,
		a.ID, a.UserID, a.FirstName, a.LastName, a.StreetAddress,
		a.City, a.State, a.ZipCode, a.Mobile, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert address: %w", err)
	}
	return nil
}

func insertOrder(ctx context.Context, tx pgx.Tx, o *domain.Order) error {
	query := `
		INSERT INTO orders (id, user_id, shipping_address_id, order_date, delivery_date,
		                    total_price, total_discounted_price, discount, total_item, status,
		                    payment_method, payment_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := tx.Exec(ctx, query,
		o.ID, o.UserID, o.ShippingAddressID, o.OrderDate, o.DeliveryDate,
		o.TotalPrice, o.TotalDiscountedPrice, o.Discount, o.TotalItem, string(o.Status),
		o.PaymentDetails.PaymentMethod, o.PaymentDetails.PaymentStatus, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func insertOrderItem(ctx context.Context, tx pgx.Tx, item *domain.OrderItem) error {
	query := `
		INSERT INTO order_items (id, order_id, user_id, product_id, size, quantity, price, discounted_price, delivery_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := tx.Exec(ctx, query,
		item.ID, item.OrderID, item.UserID, item.ProductID, item.Size,
		item.Quantity, item.Price, item.DiscountedPrice, item.DeliveryDate,
	)
	if err != nil {
		return fmt.Errorf("insert order item: %w", err)
	}
	return nil
}

// GetByID loads an order with its shipping address and items.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, orderSelect+` WHERE o.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("order", id)
		}
		return nil, err
	}

	items, err := r.loadOrderItems(ctx, []string{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]
	if o.Items == nil {
		o.Items = []domain.OrderItem{}
	}
	return o, nil
}

// List returns one page of orders, newest first, with their items.
func (r *OrderRepository) List(ctx context.Context, filter repository.OrderFilter) (orders []domain.Order, total int, err error) {
	var (
		conds []string
		args  []any
	)
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		conds = append(conds, "o.user_id = $"+strconv.Itoa(len(args)))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conds = append(conds, "o.status = $"+strconv.Itoa(len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	ctx, end := database.TraceQuery(ctx, "ListOrders", where)
	defer func() { end(err) }()

	if err = r.db.QueryRow(ctx, `SELECT COUNT(*) FROM orders o`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	n := len(args)
	query := orderSelect + where + ` ORDER BY o.order_date DESC, o.id` +
		` LIMIT $` + strconv.Itoa(n+1) + ` OFFSET $` + strconv.Itoa(n+2)
	rows, err := r.db.Query(ctx, query, append(args, filter.Page.PageSize, filter.Page.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders = make([]domain.Order, 0, filter.Page.PageSize)
	ids := make([]string, 0, filter.Page.PageSize)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, *o)
		ids = append(ids, o.ID)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate orders: %w", err)
	}
	rows.Close()

	if len(ids) == 0 {
		return orders, total, nil
	}
	items, err := r.loadOrderItems(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
		if orders[i].Items == nil {
			orders[i].Items = []domain.OrderItem{}
		}
	}
	return orders, total, nil
}

// UpdateStatus compares and sets the order status.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) error {
	query := `
		UPDATE orders SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3`

	ct, err := r.db.Exec(ctx, query, string(to), id, string(from))
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if ct.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check order exists: %w", err)
	}
	if !exists {
		return apperrors.NotFound("order", id)
	}
	return apperrors.Conflict("STATUS_CHANGED", "order status was changed by another request")
}

// Delete removes an order, its items and its shipping address.
func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	return database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		var addressID string
		err := tx.QueryRow(ctx,
			`DELETE FROM orders WHERE id = $1 RETURNING shipping_address_id`, id).Scan(&addressID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NotFound("order", id)
			}
			return fmt.Errorf("delete order: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM addresses WHERE id = $1`, addressID); err != nil {
			return fmt.Errorf("delete order address: %w", err)
		}
		return nil
	})
}

// loadOrderItems returns the items of the given orders keyed by order id.
func (r *OrderRepository) loadOrderItems(ctx context.Context, orderIDs []string) (map[string][]domain.OrderItem, error) {
	rows, err := r.db.Query(ctx, orderItemSelect+` WHERE oi.order_id = ANY($1) ORDER BY oi.order_id, oi.id`, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	items := make(map[string][]domain.OrderItem, len(orderIDs))
	for rows.Next() {
		var (
			item domain.OrderItem
			p    domain.ProductSummary
		)
		err := rows.Scan(
			&item.ID, &item.OrderID, &item.UserID, &item.ProductID, &item.Size, &item.Quantity,
			&item.Price, &item.DiscountedPrice, &item.DeliveryDate, &p.Title, &p.Brand, &p.ImageURL,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		p.ID = item.ProductID
		item.Product = &p
		items[item.OrderID] = append(items[item.OrderID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}
	return items, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o      domain.Order
		a      domain.Address
		status string
	)
	err := row.Scan(
		&o.ID, &o.UserID, &o.ShippingAddressID, &o.OrderDate, &o.DeliveryDate,
		&o.TotalPrice, &o.TotalDiscountedPrice, &o.Discount, &o.TotalItem, &status,
		&o.PaymentDetails.PaymentMethod, &o.PaymentDetails.PaymentStatus, &o.CreatedAt, &o.UpdatedAt,
		&a.FirstName, &a.LastName, &a.StreetAddress, &a.City, &a.State, &a.ZipCode, &a.Mobile, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	o.Status = domain.OrderStatus(status)
	a.ID = o.ShippingAddressID
	a.UserID = o.UserID
	o.ShippingAddress = &a
	return &o, nil
}
