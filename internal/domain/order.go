package domain

import (
	"slices"
	"strings"
	"time"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

// Order status constants.
const (
	OrderStatusPlaced    OrderStatus = "PLACED"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// Payment placeholders set when an order is placed.
const (
	PaymentMethodPending = "PENDING"
	PaymentStatusPending = "PENDING"
)

var allowedTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPlaced:    {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:   {OrderStatusDelivered},
	OrderStatusDelivered: {},
	OrderStatusCancelled: {},
}

// ValidStatuses returns all order statuses in lifecycle order.
func ValidStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusPlaced,
		OrderStatusConfirmed,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusCancelled,
	}
}

// IsValidStatus checks if s names a known order status.
func IsValidStatus(s string) bool {
	_, ok := allowedTransitions[OrderStatus(s)]
	return ok
}

// CanTransition reports whether an order may move from one status to
// another. Re-applying the current status is not a transition.
func CanTransition(from, to OrderStatus) bool {
	return slices.Contains(allowedTransitions[from], to)
}

// IsTerminal reports whether no further transitions are possible.
func (s OrderStatus) IsTerminal() bool {
	return len(allowedTransitions[s]) == 0
}

// PaymentDetails records how the order is paid for.
type PaymentDetails struct {
	PaymentMethod string `json:"paymentMethod"`
	PaymentStatus string `json:"paymentStatus"`
}

// Order is a purchase materialized from a cart.
type Order struct {
	ID                string      `json:"id"`
	UserID            string      `json:"userId"`
	ShippingAddressID string      `json:"shippingAddressId"`
	ShippingAddress   *Address    `json:"shippingAddress,omitempty"`
	Items             []OrderItem `json:"orderItems"`
	OrderDate         time.Time   `json:"orderDate"`
	DeliveryDate      time.Time   `json:"deliveryDate"`
	Totals
	Status         OrderStatus    `json:"orderStatus"`
	PaymentDetails PaymentDetails `json:"paymentDetails"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// CanTransitionTo reports whether the order may move to target.
func (o *Order) CanTransitionTo(target OrderStatus) bool {
	return CanTransition(o.Status, target)
}

// OrderItem is an immutable copy of a cart line taken at placement.
type OrderItem struct {
	ID              string          `json:"id"`
	OrderID         string          `json:"orderId"`
	UserID          string          `json:"userId"`
	ProductID       string          `json:"productId"`
	Product         *ProductSummary `json:"product,omitempty"`
	Size            string          `json:"size"`
	Quantity        int             `json:"quantity"`
	Price           int64           `json:"price"`
	DiscountedPrice int64           `json:"discountedPrice"`
	DeliveryDate    time.Time       `json:"deliveryDate"`
}

// Address is a shipping address. A fresh row is stored per order.
type Address struct {
	ID            string    `json:"id,omitempty"`
	UserID        string    `json:"userId,omitempty"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	StreetAddress string    `json:"streetAddress"`
	City          string    `json:"city"`
	State         string    `json:"state"`
	ZipCode       string    `json:"zipCode"`
	Mobile        string    `json:"mobile"`
	CreatedAt     time.Time `json:"createdAt,omitzero"`
}

// MissingField returns the JSON name of the first required field that is
// blank, checked in the order firstName, lastName, streetAddress, city,
// state, zipCode, mobile. It returns "" when the address is complete.
func (a *Address) MissingField() string {
	fields := []struct {
		name  string
		value string
	}{
		{"firstName", a.FirstName},
		{"lastName", a.LastName},
		{"streetAddress", a.StreetAddress},
		{"city", a.City},
		{"state", a.State},
		{"zipCode", a.ZipCode},
		{"mobile", a.Mobile},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return f.name
		}
	}
	return ""
}
