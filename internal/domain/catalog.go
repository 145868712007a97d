package domain

import "time"

// Category levels. Products always hang off a level-3 category.
const (
	CategoryLevelTop    = 1
	CategoryLevelSecond = 2
	CategoryLevelThird  = 3
)

// Category is a node in the three-level catalog tree.
type Category struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Slug     string  `json:"slug"`
	ParentID *string `json:"parentCategoryId,omitempty"`
	Level    int     `json:"level"`
}

// Size is a named size with its own stock count.
type Size struct {
	Name     string `json:"name" validate:"required,max=20"`
	Quantity int    `json:"quantity" validate:"gte=0"`
}

// Product is a catalog entry. Prices are in minor currency units.
type Product struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	Price              int64     `json:"price"`
	DiscountedPrice    int64     `json:"discountedPrice"`
	DiscountPercentage int       `json:"discountPercentage"`
	Quantity           int       `json:"quantity"`
	Brand              string    `json:"brand"`
	Color              string    `json:"color"`
	Sizes              []Size    `json:"sizes"`
	ImageURL           string    `json:"imageUrl"`
	CategoryID         string    `json:"categoryId"`
	Category           *Category `json:"category,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// InStock reports whether any units are available.
func (p *Product) InStock() bool {
	return p.Quantity > 0
}

// HasSize reports whether the product is offered in the named size.
func (p *Product) HasSize(name string) bool {
	for _, s := range p.Sizes {
		if s.Name == name {
			return true
		}
	}
	return false
}

// ProductSummary is the slice of a product embedded in cart and order lines.
type ProductSummary struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Brand    string `json:"brand"`
	ImageURL string `json:"imageUrl"`
}

// Rating is a 1..5 star score left by a user on a product.
type Rating struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ProductID string    `json:"productId"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"createdAt"`
}

// Review is free-text feedback left by a user on a product.
type Review struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ProductID string    `json:"productId"`
	Review    string    `json:"review"`
	CreatedAt time.Time `json:"createdAt"`
}
