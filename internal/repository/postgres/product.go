package postgres

import (
	"context"
	"encoding/json"
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

const productSelect = `
	SELECT p.id, p.title, p.description, p.price, p.discounted_price, p.discount_percentage,
	       p.quantity, p.brand, p.color, p.sizes, p.image_url, p.category_id,
	       p.created_at, p.updated_at, c.name, c.slug, c.level, c.parent_id
	FROM products p
	JOIN categories c ON c.id = p.category_id`

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	db database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(db database.DBTX) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create inserts a product.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	sizes, err := marshalSizes(p.Sizes)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO products (id, title, description, price, discounted_price, discount_percentage,
		                      quantity, brand, color, sizes, image_url, category_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		p.ID, p.Title, p.Description, p.Price, p.DiscountedPrice, p.DiscountPercentage,
		p.Quantity, p.Brand, p.Color, sizes, p.ImageURL, p.CategoryID, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID retrieves a product with its category.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, productSelect+` WHERE p.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("product", id)
	}
	return p, err
}

// Update overwrites the mutable product fields.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	sizes, err := marshalSizes(p.Sizes)
	if err != nil {
		return err
	}

	ct, err := r.db.Exec(ctx, `
		UPDATE products
		SET title = $1, description = $2, price = $3, discounted_price = $4, discount_percentage = $5,
		    quantity = $6, brand = $7, color = $8, sizes = $9, image_url = $10, updated_at = $11
		WHERE id = $12`,
		p.Title, p.Description, p.Price, p.DiscountedPrice, p.DiscountPercentage,
		p.Quantity, p.Brand, p.Color, sizes, p.ImageURL, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", p.ID)
	}
	return nil
}

// Delete removes a product. Products referenced by orders cannot be removed.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return apperrors.Conflict("PRODUCT_IN_USE", "product is referenced by existing orders")
		}
		return fmt.Errorf("delete product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", id)
	}
	return nil
}

// Exists reports whether a product with id exists.
func (r *ProductRepository) Exists(ctx context.Context, id string) (bool, error) {
	var ok bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, id).Scan(&ok); err != nil {
		return false, fmt.Errorf("check product exists: %w", err)
	}
	return ok, nil
}

// List returns one filtered page of products and the total match count.
func (r *ProductRepository) List(ctx context.Context, f repository.ProductFilter) (products []domain.Product, total int, err error) {
	where, args := productConditions(f)

	ctx, end := database.TraceQuery(ctx, "ListProducts", where)
	defer func() { end(err) }()

	countQuery := `SELECT COUNT(*) FROM products p JOIN categories c ON c.id = p.category_id` + where
	if err = r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	n := len(args)
	query := productSelect + where + productOrder(f.Sort) +
		` LIMIT $` + strconv.Itoa(n+1) + ` OFFSET $` + strconv.Itoa(n+2)
	rows, err := r.db.Query(ctx, query, append(args, f.Page.PageSize, f.Page.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products = make([]domain.Product, 0, f.Page.PageSize)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate products: %w", err)
	}
	return products, total, nil
}

// productConditions renders f as a WHERE clause with positional args.
func productConditions(f repository.ProductFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(args))))
	}

	if f.Category != "" {
		add("c.name = ? AND c.level = 3", f.Category)
	}
	if f.Brand != "" {
		add("p.brand = ?", f.Brand)
	}
	if len(f.Colors) > 0 {
		add("LOWER(p.color) = ANY(?)", f.Colors)
	}
	if len(f.Sizes) > 0 {
		add("EXISTS (SELECT 1 FROM jsonb_array_elements(p.sizes) s WHERE s->>'name' = ANY(?))", f.Sizes)
	}
	if f.MinPrice != nil {
		add("p.discounted_price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		add("p.discounted_price <= ?", *f.MaxPrice)
	}
	if f.MinDiscount != nil {
		add("p.discount_percentage >= ?", *f.MinDiscount)
	}
	switch f.Stock {
	case repository.StockIn:
		conds = append(conds, "p.quantity > 0")
	case repository.StockOut:
		conds = append(conds, "p.quantity = 0")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func productOrder(sort string) string {
	switch sort {
	case repository.SortPriceHigh:
		return " ORDER BY p.discounted_price DESC, p.id"
	case repository.SortPriceLow:
		return " ORDER BY p.discounted_price ASC, p.id"
	default:
		return " ORDER BY p.created_at DESC, p.id"
	}
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p     domain.Product
		c     domain.Category
		sizes []byte
	)
	err := row.Scan(
		&p.ID, &p.Title, &p.Description, &p.Price, &p.DiscountedPrice, &p.DiscountPercentage,
		&p.Quantity, &p.Brand, &p.Color, &sizes, &p.ImageURL, &p.CategoryID,
		&p.CreatedAt, &p.UpdatedAt, &c.Name, &c.Slug, &c.Level, &c.ParentID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}

	p.Sizes = []domain.Size{}
	if len(sizes) > 0 {
		if err := json.Unmarshal(sizes, &p.Sizes); err != nil {
			return nil, fmt.Errorf("unmarshal product sizes: %w", err)
		}
	}
	c.ID = p.CategoryID
	p.Category = &c
	return &p, nil
}

func marshalSizes(sizes []domain.Size) ([]byte, error) {
	if sizes == nil {
		sizes = []domain.Size{}
	}
	b, err := json.Marshal(sizes)
	if err != nil {
		return nil, fmt.Errorf("marshal product sizes: %w", err)
	}
	return b, nil
}
