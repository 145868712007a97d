package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/storefront/internal/domain"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/logger"
)

// Kafka topics, one per aggregate.
const (
	TopicUserEvents    = "user.events"
	TopicProductEvents = "product.events"
	TopicOrderEvents   = "order.events"
)

// Event types.
const (
	TypeUserRegistered     = "user.registered"
	TypeProductCreated     = "product.created"
	TypeProductUpdated     = "product.updated"
	TypeProductDeleted     = "product.deleted"
	TypeOrderPlaced        = "order.placed"
	TypeOrderStatusChanged = "order.status_changed"
	TypeOrderDeleted       = "order.deleted"
)

// Source identifies events emitted by this service.
const Source = "storefront"

// UserRegisteredData is the payload for user.registered.
type UserRegisteredData struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// ProductData is the payload for product.created and product.updated.
type ProductData struct {
	ProductID       string `json:"product_id"`
	Title           string `json:"title"`
	Brand           string `json:"brand"`
	CategoryID      string `json:"category_id"`
	Price           int64  `json:"price"`
	DiscountedPrice int64  `json:"discounted_price"`
	Quantity        int    `json:"quantity"`
}

// ProductDeletedData is the payload for product.deleted.
type ProductDeletedData struct {
	ProductID string `json:"product_id"`
}

// OrderPlacedData is the payload for order.placed.
type OrderPlacedData struct {
	OrderID              string          `json:"order_id"`
	UserID               string          `json:"user_id"`
	Items                []OrderItemData `json:"items"`
	TotalPrice           int64           `json:"total_price"`
	TotalDiscountedPrice int64           `json:"total_discounted_price"`
	Discount             int64           `json:"discount"`
	TotalItem            int             `json:"total_item"`
}

// OrderItemData is one line of an order.placed payload.
type OrderItemData struct {
	ProductID       string `json:"product_id"`
	Size            string `json:"size"`
	Quantity        int    `json:"quantity"`
	DiscountedPrice int64  `json:"discounted_price"`
}

// OrderStatusChangedData is the payload for order.status_changed.
type OrderStatusChangedData struct {
	OrderID   string `json:"order_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}

// OrderDeletedData is the payload for order.deleted.
type OrderDeletedData struct {
	OrderID string `json:"order_id"`
}

// Producer publishes storefront domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishUserRegistered publishes user.registered.
func (p *Producer) PublishUserRegistered(ctx context.Context, u *domain.User) error {
	return p.publish(ctx, TopicUserEvents, TypeUserRegistered, u.ID, UserRegisteredData{
		UserID: u.ID,
		Email:  u.Email,
		Role:   u.Role,
	})
}

// PublishProductCreated publishes product.created.
func (p *Producer) PublishProductCreated(ctx context.Context, prod *domain.Product) error {
	return p.publish(ctx, TopicProductEvents, TypeProductCreated, prod.ID, productData(prod))
}

// PublishProductUpdated publishes product.updated.
func (p *Producer) PublishProductUpdated(ctx context.Context, prod *domain.Product) error {
	return p.publish(ctx, TopicProductEvents, TypeProductUpdated, prod.ID, productData(prod))
}

// PublishProductDeleted publishes product.deleted.
func (p *Producer) PublishProductDeleted(ctx context.Context, productID string) error {
	return p.publish(ctx, TopicProductEvents, TypeProductDeleted, productID, ProductDeletedData{ProductID: productID})
}

// PublishOrderPlaced publishes order.placed with a snapshot of the lines.
func (p *Producer) PublishOrderPlaced(ctx context.Context, o *domain.Order) error {
	items := make([]OrderItemData, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemData{
			ProductID:       item.ProductID,
			Size:            item.Size,
			Quantity:        item.Quantity,
			DiscountedPrice: item.DiscountedPrice,
		}
	}

	return p.publish(ctx, TopicOrderEvents, TypeOrderPlaced, o.ID, OrderPlacedData{
		OrderID:              o.ID,
		UserID:               o.UserID,
		Items:                items,
		TotalPrice:           o.TotalPrice,
		TotalDiscountedPrice: o.TotalDiscountedPrice,
		Discount:             o.Discount,
		TotalItem:            o.TotalItem,
	})
}

// PublishOrderStatusChanged publishes order.status_changed.
func (p *Producer) PublishOrderStatusChanged(ctx context.Context, orderID string, oldStatus, newStatus domain.OrderStatus) error {
	return p.publish(ctx, TopicOrderEvents, TypeOrderStatusChanged, orderID, OrderStatusChangedData{
		OrderID:   orderID,
		OldStatus: string(oldStatus),
		NewStatus: string(newStatus),
	})
}

// PublishOrderDeleted publishes order.deleted.
func (p *Producer) PublishOrderDeleted(ctx context.Context, orderID string) error {
	return p.publish(ctx, TopicOrderEvents, TypeOrderDeleted, orderID, OrderDeletedData{OrderID: orderID})
}

func (p *Producer) publish(ctx context.Context, topic, eventType, aggregateID string, data any) error {
	event, err := pkgkafka.NewEvent(eventType, aggregateID, Source, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", eventType, err)
	}
	event.CorrelationID = logger.CorrelationIDFromContext(ctx)

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", eventType, err)
	}

	p.logger.DebugContext(ctx, "published "+eventType+" event",
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}

func productData(p *domain.Product) ProductData {
	return ProductData{
		ProductID:       p.ID,
		Title:           p.Title,
		Brand:           p.Brand,
		CategoryID:      p.CategoryID,
		Price:           p.Price,
		DiscountedPrice: p.DiscountedPrice,
		Quantity:        p.Quantity,
	}
}
