package domain

import "time"

// Cart is a user's single shopping cart. Totals are not persisted; they are
// derived from the items every time the cart is loaded.
type Cart struct {
	ID     string     `json:"id"`
	UserID string     `json:"userId"`
	Items  []CartItem `json:"cartItems"`
	Totals
	Version   int       `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CartItem is one (product, size) line in a cart. Price and DiscountedPrice
// are per-unit snapshots taken when the item was added.
type CartItem struct {
	ID              string          `json:"id"`
	CartID          string          `json:"cartId"`
	UserID          string          `json:"userId"`
	ProductID       string          `json:"productId"`
	Product         *ProductSummary `json:"product,omitempty"`
	Size            string          `json:"size"`
	Quantity        int             `json:"quantity"`
	Price           int64           `json:"price"`
	DiscountedPrice int64           `json:"discountedPrice"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// LineTotal returns the undiscounted total for this line.
func (i *CartItem) LineTotal() int64 {
	return i.Price * int64(i.Quantity)
}

// LineDiscountedTotal returns the discounted total for this line.
func (i *CartItem) LineDiscountedTotal() int64 {
	return i.DiscountedPrice * int64(i.Quantity)
}

// Totals is the aggregate shared by carts and orders.
type Totals struct {
	TotalPrice           int64 `json:"totalPrice"`
	TotalDiscountedPrice int64 `json:"totalDiscountedPrice"`
	Discount             int64 `json:"discount"`
	TotalItem            int   `json:"totalItem"`
}

// ComputeTotals sums unit price times quantity over items.
func ComputeTotals(items []CartItem) Totals {
	var t Totals
	for i := range items {
		t.TotalPrice += items[i].LineTotal()
		t.TotalDiscountedPrice += items[i].LineDiscountedTotal()
		t.TotalItem += items[i].Quantity
	}
	t.Discount = t.TotalPrice - t.TotalDiscountedPrice
	return t
}

// Recalculate refreshes the cart totals from its items.
func (c *Cart) Recalculate() {
	if c.Items == nil {
		c.Items = []CartItem{}
	}
	c.Totals = ComputeTotals(c.Items)
}

// IsEmpty reports whether the cart has no items.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// AddItemResult is returned by add-to-cart. AlreadyInCart is informational:
// the cart is returned unchanged and no line was created.
type AddItemResult struct {
	Cart          *Cart  `json:"cart"`
	AlreadyInCart bool   `json:"alreadyInCart"`
	Message       string `json:"message,omitempty"`
}
