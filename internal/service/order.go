package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/event"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/pagination"
)

// DefaultDeliveryLeadTime is the promised delivery window for new orders.
const DefaultDeliveryLeadTime = 7 * 24 * time.Hour

// OrderService implements order placement, queries and administration.
type OrderService struct {
	repo     repository.OrderRepository
	producer *event.Producer
	logger   *slog.Logger
	leadTime time.Duration
	now      func() time.Time
}

// NewOrderService creates a new order service.
func NewOrderService(repo repository.OrderRepository, producer *event.Producer, leadTime time.Duration, logger *slog.Logger) *OrderService {
	if leadTime <= 0 {
		leadTime = DefaultDeliveryLeadTime
	}
	return &OrderService{
		repo:     repo,
		producer: producer,
		logger:   logger,
		leadTime: leadTime,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Requester is the authenticated caller of an order query.
type Requester struct {
	UserID string
	Admin  bool
}

// PlaceOrder turns the user's cart into an order and empties the cart in one
// transaction.
func (s *OrderService) PlaceOrder(ctx context.Context, userID string, address domain.Address) (*domain.Order, error) {
	orderID, err := s.repo.Place(ctx, userID, func(cart *domain.Cart) (*domain.Order, error) {
		return s.buildOrder(cart, address)
	})
	if err != nil {
		return nil, fmt.Errorf("place order: %w", err)
	}
	ordersPlaced.Inc()

	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("reload placed order: %w", err)
	}

	if err := s.producer.PublishOrderPlaced(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.placed event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order placed",
		slog.String("order_id", order.ID),
		slog.Int("total_item", order.TotalItem),
		slog.Int64("total_discounted_price", order.TotalDiscountedPrice),
	)

	return order, nil
}

// buildOrder runs inside the placement transaction against the locked cart.
func (s *OrderService) buildOrder(cart *domain.Cart, address domain.Address) (*domain.Order, error) {
	if cart.IsEmpty() {
		return nil, apperrors.InvalidState("CART_EMPTY", "Cart is empty")
	}
	if field := address.MissingField(); field != "" {
		return nil, apperrors.InvalidInput(field + " is required in shipping address")
	}

	now := s.now()
	delivery := now.Add(s.leadTime)

	address.ID = uuid.New().String()
	address.UserID = cart.UserID
	address.CreatedAt = now

	order := &domain.Order{
		ID:                uuid.New().String(),
		UserID:            cart.UserID,
		ShippingAddressID: address.ID,
		ShippingAddress:   &address,
		OrderDate:         now,
		DeliveryDate:      delivery,
		Totals:            domain.ComputeTotals(cart.Items),
		Status:            domain.OrderStatusPlaced,
		PaymentDetails: domain.PaymentDetails{
			PaymentMethod: domain.PaymentMethodPending,
			PaymentStatus: domain.PaymentStatusPending,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	order.Items = make([]domain.OrderItem, len(cart.Items))
	for i, ci := range cart.Items {
		order.Items[i] = domain.OrderItem{
			ID:              uuid.New().String(),
			OrderID:         order.ID,
			UserID:          cart.UserID,
			ProductID:       ci.ProductID,
			Product:         ci.Product,
			Size:            ci.Size,
			Quantity:        ci.Quantity,
			Price:           ci.Price,
			DiscountedPrice: ci.DiscountedPrice,
			DeliveryDate:    delivery,
		}
	}
	return order, nil
}

// FindOrderByID returns an order. Non-admin callers may only read their own.
func (s *OrderService) FindOrderByID(ctx context.Context, id string, by Requester) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if !by.Admin && order.UserID != by.UserID {
		return nil, apperrors.Forbidden("you can't access another user's order")
	}
	return order, nil
}

// UserOrderHistory lists the user's orders, newest first.
func (s *OrderService) UserOrderHistory(ctx context.Context, userID string, page pagination.Params) (pagination.Page[domain.Order], error) {
	return s.list(ctx, repository.OrderFilter{UserID: &userID, Page: page})
}

// AllOrders lists every order, newest first, optionally by status.
func (s *OrderService) AllOrders(ctx context.Context, status *domain.OrderStatus, page pagination.Params) (pagination.Page[domain.Order], error) {
	return s.list(ctx, repository.OrderFilter{Status: status, Page: page})
}

func (s *OrderService) list(ctx context.Context, filter repository.OrderFilter) (pagination.Page[domain.Order], error) {
	orders, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return pagination.Page[domain.Order]{}, fmt.Errorf("list orders: %w", err)
	}
	return pagination.NewPage(orders, total, filter.Page), nil
}

// UpdateOrderStatus moves an order along its lifecycle. Re-applying the
// current status is a no-op.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	if !domain.IsValidStatus(string(status)) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid order status %q", status))
	}

	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}

	from := order.Status
	if from == status {
		return order, nil
	}
	if !order.CanTransitionTo(status) {
		return nil, apperrors.Conflict("INVALID_STATUS_TRANSITION",
			fmt.Sprintf("cannot change order status from %s to %s", from, status))
	}

	if err := s.repo.UpdateStatus(ctx, id, from, status); err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	order.Status = status
	order.UpdatedAt = s.now()
	orderStatusTransitions.WithLabelValues(string(from), string(status)).Inc()

	if err := s.producer.PublishOrderStatusChanged(ctx, id, from, status); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.status_changed event",
			slog.String("order_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order status changed",
		slog.String("order_id", id),
		slog.String("from", string(from)),
		slog.String("to", string(status)),
	)

	return order, nil
}

// DeleteOrder hard-deletes an order with its items and address.
func (s *OrderService) DeleteOrder(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}

	if err := s.producer.PublishOrderDeleted(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.deleted event",
			slog.String("order_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order deleted", slog.String("order_id", id))
	return nil
}
