package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/database"
	"github.com/utafrali/storefront/pkg/slug"
)

// CategoryRepository implements repository.CategoryRepository using PostgreSQL.
type CategoryRepository struct {
	db database.DBTX
}

// NewCategoryRepository creates a new PostgreSQL-backed category repository.
func NewCategoryRepository(db database.DBTX) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// GetOrCreate inserts the category if (name, parent) is free and then reads
// back whichever row won.
func (r *CategoryRepository) GetOrCreate(ctx context.Context, name string, parentID *string, level int) (*domain.Category, error) {
	_, err := r.db.Exec(ctx, `
		INSERT INTO categories (id, name, slug, parent_id, level)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT ON CONSTRAINT uq_categories_name_parent DO NOTHING`,
		uuid.NewString(), name, slug.Generate(name), parentID, level,
	)
	if err != nil {
		return nil, fmt.Errorf("insert category %q: %w", name, err)
	}

	var c domain.Category
	err = r.db.QueryRow(ctx, `
		SELECT id, name, slug, parent_id, level
		FROM categories
		WHERE name = $1 AND parent_id IS NOT DISTINCT FROM $2`,
		name, parentID,
	).Scan(&c.ID, &c.Name, &c.Slug, &c.ParentID, &c.Level)
	if err != nil {
		return nil, fmt.Errorf("select category %q: %w", name, err)
	}
	return &c, nil
}
